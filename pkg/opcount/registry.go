package opcount

import (
	"fmt"
	"sync"
)

// Kind classifies a store operation for accounting purposes.
type Kind string

const (
	KindRead   Kind = "read"
	KindWrite  Kind = "write"
	KindDelete Kind = "delete"
)

// Count is an immutable snapshot of one request's store accounting.
type Count struct {
	Reads   int64
	Writes  int64
	Deletes int64
	// Trace lists "<collection>.<operation>" entries in call order.
	Trace []string
}

type counter struct {
	reads   int64
	writes  int64
	deletes int64
	trace   []string
}

// Registry attributes store operation cost to logical requests. It owns a
// mutex-guarded map keyed by request ID and is safe for concurrent use.
// Entries never expire on their own: the request-lifecycle owner reads and
// discards them at request end.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*counter
	metrics  *metrics
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*counter),
	}
}

// WithMetrics attaches Prometheus operation counters to the registry.
// Registration failures (duplicate collectors) surface immediately.
func (r *Registry) WithMetrics(reg prometheusRegisterer) (*Registry, error) {
	m, err := newMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register opcount metrics: %w", err)
	}
	r.metrics = m
	return r, nil
}

// Record attributes n operations of the given kind to requestID and appends
// one "<collection>.<op>" trace entry. A missing counter is created and
// registered before the increment, so no increment is ever lost.
func (r *Registry) Record(requestID, collection, op string, kind Kind, n int64) {
	if requestID == "" {
		return
	}
	call := collection + "." + op

	r.mu.Lock()
	c, ok := r.counters[requestID]
	if !ok {
		c = &counter{}
		r.counters[requestID] = c
	}
	switch kind {
	case KindRead:
		c.reads += n
	case KindWrite:
		c.writes += n
	case KindDelete:
		c.deletes += n
	}
	c.trace = append(c.trace, call)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.observe(collection, op, n)
	}
}

// Snapshot returns a copy of the current counts for requestID. Unknown request
// IDs yield a zero-value snapshot without registering anything.
func (r *Registry) Snapshot(requestID string) Count {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[requestID]
	if !ok {
		return Count{}
	}
	return c.snapshot()
}

// Discard removes the counter for requestID and returns its final snapshot.
// Intended for request-end middleware that logs or bills the totals.
func (r *Registry) Discard(requestID string) Count {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[requestID]
	if !ok {
		return Count{}
	}
	delete(r.counters, requestID)
	return c.snapshot()
}

// Len reports the number of live counters.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.counters)
}

func (c *counter) snapshot() Count {
	trace := make([]string, len(c.trace))
	copy(trace, c.trace)
	return Count{
		Reads:   c.reads,
		Writes:  c.writes,
		Deletes: c.deletes,
		Trace:   trace,
	}
}
