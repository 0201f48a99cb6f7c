package store

import (
	"context"

	"github.com/maxbolgarin/gorder"
)

// AsyncCollection queues writes to a Collection so hot paths do not block
// on storage. All tasks go to a single queue named after the collection,
// which keeps writes ordered.
type AsyncCollection[T any] struct {
	coll  *Collection[T]
	queue *gorder.Gorder[string]
}

// NewAsyncCollection starts the write queue for the collection.
func NewAsyncCollection[T any](ctx context.Context, coll *Collection[T], workers int, lg gorder.Logger) *AsyncCollection[T] {
	q := gorder.NewWithOptions[string](ctx, gorder.Options{
		Workers:         workers,
		Log:             lg,
		ThrowOnShutdown: true,
		Retries:         10,
	})

	return &AsyncCollection[T]{
		coll:  coll,
		queue: q,
	}
}

// Put adds a task into the queue to call Collection.Put.
func (a *AsyncCollection[T]) Put(name string, v T) {
	a.queue.Push(a.coll.Name(), name, func(ctx context.Context) error {
		return a.coll.Put(ctx, v)
	})
}

// Update adds a task into the queue to call Collection.Update.
func (a *AsyncCollection[T]) Update(name string, fn func(T) (T, error)) {
	a.queue.Push(a.coll.Name(), name, func(ctx context.Context) error {
		_, err := a.coll.Update(ctx, fn)
		return err
	})
}

// Shutdown drains the queue.
func (a *AsyncCollection[T]) Shutdown(ctx context.Context) error {
	return a.queue.Shutdown(ctx)
}
