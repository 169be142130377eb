// Package store defines the revisioned blob store consumed by the gallery ledger.
package store

import (
	"context"
	"errors"
)

// Errors returned by store backends.
var (
	// ErrNotFound indicates no object exists at the requested path.
	ErrNotFound = errors.New("object not found")
	// ErrRevisionMismatch indicates the supplied revision token is stale,
	// i.e. the object was modified by a concurrent writer.
	ErrRevisionMismatch = errors.New("revision mismatch")
)

// Object is a stored blob together with its current revision token.
type Object struct {
	Content  []byte
	Revision string
}

// Store abstracts a content store whose writes are guarded by per-object
// revision tokens. A Put with a stale expectedRevision must fail with
// ErrRevisionMismatch rather than overwrite.
type Store interface {
	// Get returns the object at path, or ErrNotFound.
	Get(ctx context.Context, path string) (Object, error)
	// Put writes content at path. expectedRevision must be the revision
	// obtained from a prior Get, or empty to create a new object.
	// Returns the new revision token.
	Put(ctx context.Context, path string, content []byte, expectedRevision string) (string, error)
	// List returns the paths of all objects under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
