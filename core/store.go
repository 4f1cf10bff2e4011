package core

import "context"

// Document is an untyped node of the hierarchical store.
type Document = map[string]interface{}

// Store is a hierarchical key-value document store, addressed by slash separated paths
// (eg. "incomingCalls/{recipientID}/{callKey}").
type Store interface {
	// ReadTree returns the children of the node at path. A missing node yields an empty Document.
	ReadTree(ctx context.Context, path string) (Document, error)
	// ReadOne returns the object stored at path, or ErrNotFound.
	ReadOne(ctx context.Context, path string) (Document, error)
	// UpdateField sets a single field of the object at path.
	UpdateField(ctx context.Context, path, field string, value interface{}) error
	// Set replaces the node at path.
	Set(ctx context.Context, path string, value interface{}) error
}
