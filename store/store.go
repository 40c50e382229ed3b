// Package store provides the document database the API layer persists to.
// The interface is deliberately small so handlers can be tested against an
// in-memory fake.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// Document is a schemaless JSON object.
type Document map[string]interface{}

// Store is a collection-scoped document store.
type Store interface {
	// Get fetches one document by ID.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Put creates or replaces a document under an explicit ID.
	Put(ctx context.Context, collection, id string, doc Document) error
	// Add stores a document under a generated ID and returns it.
	Add(ctx context.Context, collection string, doc Document) (string, error)
	// Query returns every document in a collection.
	Query(ctx context.Context, collection string) ([]Document, error)
	// Delete removes a document; deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	Close() error
}
