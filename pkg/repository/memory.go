package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/kaiwa-dev/kaiwa/pkg/query"
)

// MemoryStore is an in-process Store for local runs and service tests. It
// evaluates the same compiled filter shape the MongoDB executor sends to the
// server, so code exercised against it sees production query semantics.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]Document)}
}

func (s *MemoryStore) InsertOne(_ context.Context, collection string, doc Document) error {
	stored := make(Document, len(doc))
	for k, v := range doc {
		stored[k] = v
	}
	s.mu.Lock()
	s.docs[collection] = append(s.docs[collection], stored)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) FindOne(_ context.Context, collection string, filter query.Filter, sortBy []query.Order) (Document, bool, error) {
	s.mu.RLock()
	matches := s.matching(collection, filter)
	s.mu.RUnlock()
	if len(matches) == 0 {
		return nil, false, nil
	}
	orderDocs(matches, sortBy)
	return matches[0], true, nil
}

func (s *MemoryStore) Find(_ context.Context, collection string, filter query.Filter, sortBy []query.Order, skip, limit int64) ([]Document, error) {
	s.mu.RLock()
	matches := s.matching(collection, filter)
	s.mu.RUnlock()
	orderDocs(matches, sortBy)
	if skip >= int64(len(matches)) {
		return nil, nil
	}
	matches = matches[skip:]
	if limit > 0 && limit < int64(len(matches)) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *MemoryStore) Count(_ context.Context, collection string, filter query.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matching(collection, filter))), nil
}

func (s *MemoryStore) UpdateOne(_ context.Context, collection string, filter query.Filter, fields Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs[collection] {
		if evalFilter(doc, filter) {
			for k, v := range fields {
				doc[k] = v
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (s *MemoryStore) DeleteOne(_ context.Context, collection string, filter query.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.docs[collection]
	for i, doc := range docs {
		if evalFilter(doc, filter) {
			s.docs[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// matching returns copies so callers never alias stored documents. Caller
// holds the lock.
func (s *MemoryStore) matching(collection string, filter query.Filter) []Document {
	var out []Document
	for _, doc := range s.docs[collection] {
		if evalFilter(doc, filter) {
			clone := make(Document, len(doc))
			for k, v := range doc {
				clone[k] = v
			}
			out = append(out, clone)
		}
	}
	return out
}

// evalFilter interprets a compiled filter against one document. An empty
// filter matches everything.
func evalFilter(doc Document, filter query.Filter) bool {
	for key, raw := range filter {
		switch key {
		case "$and":
			for _, member := range raw.([]any) {
				if !evalFilter(doc, member.(query.Filter)) {
					return false
				}
			}
		case "$or":
			matched := false
			for _, member := range raw.([]query.Filter) {
				if evalFilter(doc, member) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		default:
			if !evalClause(doc[key], raw.(query.Filter)) {
				return false
			}
		}
	}
	return true
}

func evalClause(value any, clause query.Filter) bool {
	for op, operand := range clause {
		switch op {
		case "$eq":
			if compare(value, operand) != 0 {
				return false
			}
		case "$ne":
			if compare(value, operand) == 0 {
				return false
			}
		case "$gt":
			if compare(value, operand) <= 0 {
				return false
			}
		case "$gte":
			if compare(value, operand) < 0 {
				return false
			}
		case "$lt":
			if compare(value, operand) >= 0 {
				return false
			}
		case "$lte":
			if compare(value, operand) > 0 {
				return false
			}
		case "$in":
			if !containsValue(operand, value) {
				return false
			}
		case "$nin":
			if containsValue(operand, value) {
				return false
			}
		case "$all":
			for _, want := range asSlice(operand) {
				if !containsValue(value, want) {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

func containsValue(list any, want any) bool {
	for _, member := range asSlice(list) {
		if compare(member, want) == 0 {
			return true
		}
	}
	return false
}

func asSlice(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out
	case []int64:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out
	}
	return nil
}

// compare orders two scalars, treating all numeric kinds as one domain.
// Unordered pairs compare as unequal.
func compare(a, b any) int {
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	}
	if a == b {
		return 0
	}
	return -1
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return float64(n), true
	}
	return 0, false
}

func orderDocs(docs []Document, sortBy []query.Order) {
	if len(sortBy) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range sortBy {
			c := compare(docs[i][o.Field], docs[j][o.Field])
			if o.Direction == query.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}
