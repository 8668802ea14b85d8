// Package auth validates the bearer credential protocol: an Authorization
// value of the form "Bearer <userId>:<secret>" checked against the token
// stored on the user's account.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
	"github.com/kaiwa-dev/kaiwa/pkg/service/user"
)

var (
	// ErrNoToken indicates the credential does not carry the bearer scheme.
	ErrNoToken = errors.New("no bearer token")
	// ErrInvalidToken indicates a credential that carries the scheme but
	// cannot be parsed into a user id and secret.
	ErrInvalidToken = errors.New("malformed bearer token")
	// ErrUserNotFound indicates the credential names an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenNotValid indicates the secret does not match or has expired.
	// The two causes share one failure class so a response cannot be used to
	// probe which check failed.
	ErrTokenNotValid = errors.New("token not valid")
)

const scheme = "Bearer"

// UserSource resolves accounts for credential verification.
type UserSource interface {
	FindByID(ctx context.Context, id string, opts user.FindOptions) (user.User, bool, error)
}

// Validator checks bearer credentials against stored account tokens. User
// resolution goes through the session cache, so repeated validations for one
// account cost a single store read.
type Validator struct {
	users UserSource
	log   logger.Logger
	now   func() time.Time
}

// NewValidator creates a Validator.
func NewValidator(users UserSource, log logger.Logger) (*Validator, error) {
	if users == nil {
		return nil, fmt.Errorf("user source is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Validator{users: users, log: log, now: time.Now}, nil
}

// WithClock overrides the time source. Test hook.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate checks the credential and returns the authenticated user with the
// secret scrubbed. Parsing failures are rejected before any lookup happens.
func (v *Validator) Validate(ctx context.Context, credential string) (user.User, error) {
	if !strings.HasPrefix(credential, scheme) {
		return user.User{}, ErrNoToken
	}
	id, secret, ok := parse(credential)
	if !ok {
		return user.User{}, ErrInvalidToken
	}

	account, found, err := v.users.FindByID(ctx, id, user.FindOptions{CacheEnabled: true})
	if err != nil {
		return user.User{}, fmt.Errorf("failed to resolve user %s: %w", id, err)
	}
	if !found {
		return user.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}

	mismatch := account.Token == "" || account.Token != secret
	expired := account.ExpiresAt < v.now().Unix()
	if mismatch || expired {
		v.log.Debug("rejected bearer credential", "userId", id)
		return user.User{}, ErrTokenNotValid
	}

	account.Token = ""
	return account, nil
}

// parse splits "Bearer <id>:<secret>" into its parts, tolerating extra
// whitespace around each.
func parse(credential string) (id, secret string, ok bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(credential, scheme))
	if rest == "" {
		return "", "", false
	}
	id, secret, found := strings.Cut(rest, ":")
	if !found {
		return "", "", false
	}
	id = strings.TrimSpace(id)
	secret = strings.TrimSpace(secret)
	if id == "" || secret == "" {
		return "", "", false
	}
	return id, secret, true
}
