package repository

import (
	"context"

	"github.com/kaiwa-dev/kaiwa/pkg/query"
)

// Document is a schemaless record as stored in the document store.
type Document = map[string]any

// Store is the minimal document execution contract the repository runs on.
// Implementations receive already-compiled filters and physical collection
// names; they add no semantics of their own.
type Store interface {
	// InsertOne writes a new document.
	InsertOne(ctx context.Context, collection string, doc Document) error

	// FindOne returns the first document matching the filter under the given
	// ordering, or found=false when nothing matches. No match is not an error.
	FindOne(ctx context.Context, collection string, filter query.Filter, sort []query.Order) (Document, bool, error)

	// Find returns documents matching the filter, ordered, with optional
	// skip/limit. A limit of 0 means unbounded.
	Find(ctx context.Context, collection string, filter query.Filter, sort []query.Order, skip, limit int64) ([]Document, error)

	// Count returns the number of documents matching the filter.
	Count(ctx context.Context, collection string, filter query.Filter) (int64, error)

	// UpdateOne merges fields into the first document matching the filter and
	// reports how many documents matched.
	UpdateOne(ctx context.Context, collection string, filter query.Filter, fields Document) (int64, error)

	// DeleteOne removes the first document matching the filter and reports
	// how many documents were deleted.
	DeleteOne(ctx context.Context, collection string, filter query.Filter) (int64, error)
}

// Page is the bounded listing result.
type Page struct {
	Size      int
	Page      int
	Total     int64
	PageCount int
	Rows      []Document
}
