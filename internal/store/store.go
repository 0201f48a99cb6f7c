// Package store persists named collection snapshots.
//
// A collection is loaded and saved as a whole: the file backend keeps one
// JSON document per collection, the MongoDB backend keeps one database
// document per collection. Typed access with read-modify-write transactions
// is provided by Collection.
package store

import (
	"context"
	"sync"

	"github.com/maxbolgarin/errm"
)

// ErrNotFound is returned when a record is not found inside a snapshot.
var ErrNotFound = errm.New("not found")

// Backend loads and saves whole collection snapshots by name.
type Backend interface {
	// Load reads the snapshot into dest. It returns found == false when
	// the collection does not exist yet, which is not an error.
	Load(ctx context.Context, name string, dest any) (found bool, err error)

	// Save replaces the whole snapshot.
	Save(ctx context.Context, name string, v any) error
}

// Collection is a typed view over one named snapshot. All writes go through
// Update, so concurrent handlers cannot lose each other's changes.
type Collection[T any] struct {
	backend Backend
	name    string

	mu sync.Mutex
}

// NewCollection creates a typed collection over the backend.
func NewCollection[T any](backend Backend, name string) *Collection[T] {
	return &Collection[T]{
		backend: backend,
		name:    name,
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Get loads the current snapshot. It returns the zero value and
// found == false when the collection does not exist yet.
func (c *Collection[T]) Get(ctx context.Context) (T, bool, error) {
	var out T
	found, err := c.backend.Load(ctx, c.name, &out)
	if err != nil {
		return out, false, errm.Wrap(err, "load")
	}
	return out, found, nil
}

// Put replaces the whole snapshot.
func (c *Collection[T]) Put(ctx context.Context, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backend.Save(ctx, c.name, v); err != nil {
		return errm.Wrap(err, "save")
	}
	return nil
}

// Update runs fn on the current snapshot and saves the result, all under
// the collection lock. The zero value is passed to fn when the collection
// does not exist yet. An error from fn aborts the update and nothing
// is written.
func (c *Collection[T]) Update(ctx context.Context, fn func(T) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cur T
	if _, err := c.backend.Load(ctx, c.name, &cur); err != nil {
		return cur, errm.Wrap(err, "load")
	}

	next, err := fn(cur)
	if err != nil {
		return cur, err
	}

	if err := c.backend.Save(ctx, c.name, next); err != nil {
		return next, errm.Wrap(err, "save")
	}

	return next, nil
}
