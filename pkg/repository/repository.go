package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
	"github.com/kaiwa-dev/kaiwa/pkg/opcount"
	"github.com/kaiwa-dev/kaiwa/pkg/query"
	"github.com/kaiwa-dev/kaiwa/pkg/requestid"
)

// ErrNotFound indicates an operation that requires an existing document was
// given an id that does not exist.
var ErrNotFound = errors.New("document not found")

// Reserved document fields stamped by the repository.
const (
	fieldID        = "id"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
	fieldParentID  = "parentId"
)

const generatedIDLength = 12

const idAlphabet = "1234567890abcdefghijklmnopqrstuvwxyz"

// Repository provides CRUD and query operations over the document store.
// Collection names are namespaced with the environment prefix fixed at
// construction, so environments never cross-read each other's data. When the
// context carries a request ID, every successful operation is attributed to
// it through the opcount registry.
type Repository struct {
	store    Store
	prefix   string
	counters *opcount.Registry
	logger   logger.Logger
	now      func() time.Time
	newID    func() (string, error)
}

// New creates a Repository. prefix comes from config.Environment.CollectionPrefix.
func New(store Store, prefix string, counters *opcount.Registry, log logger.Logger) (*Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Repository{
		store:    store,
		prefix:   prefix,
		counters: counters,
		logger:   log,
		now:      time.Now,
		newID:    generateID,
	}, nil
}

// WithClock overrides the timestamp source. Test hook.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// WithIDGenerator overrides the document id source. Test hook.
func (r *Repository) WithIDGenerator(newID func() (string, error)) *Repository {
	r.newID = newID
	return r
}

// CreateOptions controls document creation.
type CreateOptions struct {
	// DocumentID sets an explicit id instead of a generated one.
	DocumentID string
}

// Create writes a new document, assigning an id (explicit or generated) and
// stamping createdAt/updatedAt with the current epoch seconds. The stored
// document is returned.
func (r *Repository) Create(ctx context.Context, col Collection, data Document, opts CreateOptions) (Document, error) {
	id := opts.DocumentID
	if id == "" {
		generated, err := r.newID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate document id: %w", err)
		}
		id = generated
	}

	now := r.now().Unix()
	doc := make(Document, len(data)+4)
	for k, v := range data {
		doc[k] = v
	}
	doc[fieldID] = id
	doc[fieldCreatedAt] = now
	doc[fieldUpdatedAt] = now
	if col.sub != "" {
		doc[fieldParentID] = col.parentID
	}

	if err := r.store.InsertOne(ctx, col.physical(r.prefix), doc); err != nil {
		return nil, fmt.Errorf("failed to create document in %s: %w", col.Name(), err)
	}
	r.record(ctx, col, "create", opcount.KindWrite, 1)
	return doc, nil
}

// UpdateByID merges the given fields into an existing document and refreshes
// updatedAt. Returns ErrNotFound when the id does not exist.
func (r *Repository) UpdateByID(ctx context.Context, col Collection, id string, fields Document) error {
	update := make(Document, len(fields)+1)
	for k, v := range fields {
		update[k] = v
	}
	update[fieldUpdatedAt] = r.now().Unix()

	matched, err := r.store.UpdateOne(ctx, col.physical(r.prefix), r.idFilter(col, id), update)
	if err != nil {
		return fmt.Errorf("failed to update document %s in %s: %w", id, col.Name(), err)
	}
	if matched == 0 {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, id, col.Name())
	}
	r.record(ctx, col, "updateById", opcount.KindWrite, 1)
	return nil
}

// DeleteByID removes a document. Deleting a missing id is not an error.
func (r *Repository) DeleteByID(ctx context.Context, col Collection, id string) error {
	if _, err := r.store.DeleteOne(ctx, col.physical(r.prefix), r.idFilter(col, id)); err != nil {
		return fmt.Errorf("failed to delete document %s in %s: %w", id, col.Name(), err)
	}
	r.record(ctx, col, "deleteById", opcount.KindDelete, 1)
	return nil
}

// FindByID fetches a document by id.
func (r *Repository) FindByID(ctx context.Context, col Collection, id string) (Document, bool, error) {
	doc, found, err := r.store.FindOne(ctx, col.physical(r.prefix), r.idFilter(col, id), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find document %s in %s: %w", id, col.Name(), err)
	}
	r.record(ctx, col, "findById", opcount.KindRead, 1)
	return doc, found, nil
}

// FindOne returns the first document matching the flat query, or found=false.
func (r *Repository) FindOne(ctx context.Context, col Collection, q query.Query) (Document, bool, error) {
	filter, err := query.CompileFlat(q.Where)
	if err != nil {
		return nil, false, err
	}
	return r.findOne(ctx, col, "findOne", filter, q.Order)
}

// ConditionalFindOne returns the first document matching the composite query.
func (r *Repository) ConditionalFindOne(ctx context.Context, col Collection, q query.ConditionalQuery) (Document, bool, error) {
	filter, err := query.CompileConditional(q.Where)
	if err != nil {
		return nil, false, err
	}
	return r.findOne(ctx, col, "conditionalFindOne", filter, q.Order)
}

// FindAll returns every document matching the flat query.
func (r *Repository) FindAll(ctx context.Context, col Collection, q query.Query) ([]Document, error) {
	filter, err := query.CompileFlat(q.Where)
	if err != nil {
		return nil, err
	}
	return r.findAll(ctx, col, "findAll", filter, q.Order)
}

// ConditionalFindAll returns every document matching the composite query.
func (r *Repository) ConditionalFindAll(ctx context.Context, col Collection, q query.ConditionalQuery) ([]Document, error) {
	filter, err := query.CompileConditional(q.Where)
	if err != nil {
		return nil, err
	}
	return r.findAll(ctx, col, "conditionalFindAll", filter, q.Order)
}

// FindPaged returns one page of documents matching the flat query.
func (r *Repository) FindPaged(ctx context.Context, col Collection, q query.Query) (Page, error) {
	filter, err := query.CompileFlat(q.Where)
	if err != nil {
		return Page{}, err
	}
	return r.findPaged(ctx, col, "findPaged", filter, q.Order, q.SizeOrDefault(), q.PageOrDefault())
}

// ConditionalFindPaged returns one page of documents matching the composite query.
func (r *Repository) ConditionalFindPaged(ctx context.Context, col Collection, q query.ConditionalQuery) (Page, error) {
	filter, err := query.CompileConditional(q.Where)
	if err != nil {
		return Page{}, err
	}
	return r.findPaged(ctx, col, "conditionalFindPaged", filter, q.Order, q.SizeOrDefault(), q.PageOrDefault())
}

// Count returns the total number of documents in the collection. The full
// snapshot size is attributed as reads, matching how the cost is billed.
func (r *Repository) Count(ctx context.Context, col Collection) (int64, error) {
	total, err := r.store.Count(ctx, col.physical(r.prefix), col.scope(query.Filter{}))
	if err != nil {
		return 0, fmt.Errorf("failed to count documents in %s: %w", col.Name(), err)
	}
	r.record(ctx, col, "count", opcount.KindRead, total)
	return total, nil
}

func (r *Repository) findOne(ctx context.Context, col Collection, op string, filter query.Filter, order []query.Order) (Document, bool, error) {
	doc, found, err := r.store.FindOne(ctx, col.physical(r.prefix), col.scope(filter), order)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query %s: %w", col.Name(), err)
	}
	r.record(ctx, col, op, opcount.KindRead, 1)
	return doc, found, nil
}

func (r *Repository) findAll(ctx context.Context, col Collection, op string, filter query.Filter, order []query.Order) ([]Document, error) {
	docs, err := r.store.Find(ctx, col.physical(r.prefix), col.scope(filter), order, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", col.Name(), err)
	}
	r.record(ctx, col, op, opcount.KindRead, int64(len(docs)))
	return docs, nil
}

// findPaged runs the unbounded count first and short-circuits on an empty
// result, so an empty collection costs a single round trip. The offset is
// size*(page-1): O(offset) work in a typical document store, a known
// scalability limitation of offset pagination rather than a bug.
func (r *Repository) findPaged(ctx context.Context, col Collection, op string, filter query.Filter, order []query.Order, size, page int) (Page, error) {
	physical := col.physical(r.prefix)
	scoped := col.scope(filter)

	total, err := r.store.Count(ctx, physical, scoped)
	if err != nil {
		return Page{}, fmt.Errorf("failed to count %s: %w", col.Name(), err)
	}
	if total == 0 {
		return Page{}, nil
	}

	offset := int64(size) * int64(page-1)
	rows, err := r.store.Find(ctx, physical, scoped, order, offset, int64(size))
	if err != nil {
		return Page{}, fmt.Errorf("failed to query %s: %w", col.Name(), err)
	}
	r.record(ctx, col, op, opcount.KindRead, int64(len(rows)))

	return Page{
		Size:      size,
		Page:      page,
		Total:     total,
		PageCount: int((total + int64(size) - 1) / int64(size)),
		Rows:      rows,
	}, nil
}

func (r *Repository) idFilter(col Collection, id string) query.Filter {
	return col.scope(query.Filter{fieldID: query.Filter{"$eq": id}})
}

func (r *Repository) record(ctx context.Context, col Collection, op string, kind opcount.Kind, n int64) {
	if r.counters == nil {
		return
	}
	id := requestid.FromContext(ctx)
	if id == "" {
		return
	}
	r.counters.Record(id, col.Name(), op, kind, n)
}

// generateID returns a random lowercase alphanumeric document id drawn from
// crypto/rand.
func generateID() (string, error) {
	max := big.NewInt(int64(len(idAlphabet)))
	code := make([]byte, generatedIDLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = idAlphabet[n.Int64()]
	}
	return string(code), nil
}
