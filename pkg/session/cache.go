// Package session provides the process-wide key/value cache used to avoid
// repeat document-store lookups. Values are stored JSON-encoded; a malformed
// stored value is treated as a cache miss, never as an error.
package session

import (
	"context"
)

// Cache is the session cache contract. Implementations must be safe for
// concurrent use: independent requests read and write entries for
// overlapping keys.
type Cache interface {
	// Set serializes value to JSON and stores it under key, silently
	// overwriting any previous entry.
	Set(ctx context.Context, key string, value any) error

	// Get deserializes the entry under key into out. It reports false when
	// the key is unknown or the stored value cannot be decoded; decode
	// failures are logged and recovered, never surfaced.
	Get(ctx context.Context, key string, out any) (bool, error)

	// Del removes the key. Deleting an absent key is a no-op.
	Del(ctx context.Context, key string) error

	// Clear resets the entire store.
	Clear(ctx context.Context) error
}

// UserKey is the cache key for a user's session entry.
func UserKey(userID string) string {
	return "user:" + userID
}

// ChatUsersKey is the cache key for a chat's member list.
func ChatUsersKey(chatID string) string {
	return "chatUsers:" + chatID
}
