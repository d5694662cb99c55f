// Package docstore persists blog posts as schemaless documents. The blog
// adapter is written against Collection so the same code runs on Firestore
// and on the in-memory collection used in tests and local development.
package docstore

import (
	"context"
)

// Snapshot is one document read from a collection.
type Snapshot struct {
	ID   string
	Data map[string]any
}

// Filter matches documents whose array field contains Value.
type Filter struct {
	Field string
	Value any
}

type Query struct {
	ArrayContains *Filter
	OrderBy       string
	Descending    bool
	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// Collection is the subset of document store behaviour the adapter relies on.
// Get reports a missing document with ok == false and a nil error. Update
// fails if the document does not exist.
type Collection interface {
	Get(ctx context.Context, id string) (data map[string]any, ok bool, err error)
	Set(ctx context.Context, id string, data map[string]any) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, q Query) ([]Snapshot, error)
}
