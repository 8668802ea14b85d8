package repository

import (
	"github.com/kaiwa-dev/kaiwa/pkg/query"
)

// Collection addresses a logical collection, optionally a sub-collection
// nested under a specific parent document.
type Collection struct {
	name     string
	parentID string
	sub      string
}

// NewCollection addresses a top-level collection.
func NewCollection(name string) Collection {
	return Collection{name: name}
}

// Sub addresses a sub-collection scoped under the given parent document.
func (c Collection) Sub(parentID, name string) Collection {
	c.parentID = parentID
	c.sub = name
	return c
}

// Name returns the logical collection name used in trace entries.
func (c Collection) Name() string {
	return c.name
}

// physical maps the logical address to a prefixed physical collection name.
// Sub-collections share one physical collection per (parent collection, sub
// name) pair and are partitioned by the parentId field.
func (c Collection) physical(prefix string) string {
	if c.sub != "" {
		return prefix + c.name + "_" + c.sub
	}
	return prefix + c.name
}

// scope narrows a compiled filter to the parent document for sub-collections.
// Top-level collections pass through unchanged.
func (c Collection) scope(filter query.Filter) query.Filter {
	if c.sub == "" {
		return filter
	}
	parent := query.Filter{fieldParentID: query.Filter{"$eq": c.parentID}}
	if len(filter) == 0 {
		return parent
	}
	return query.Filter{"$and": []any{filter, parent}}
}
