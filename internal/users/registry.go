// Package users keeps the user registry: who talked to the bot, and for
// each user whether the next free-form message is order content.
package users

import (
	"context"
	"strconv"
	"time"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/gorder"
	"github.com/maypok86/otter"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/store"
)

// CollectionName is the snapshot name of the user registry.
const CollectionName = "users"

const (
	cacheCapacity = 10000
	cacheTTL      = 24 * time.Hour
)

// Registry is an otter cache in front of the users collection. Reads hit
// the cache, writes go through the cache synchronously and to storage
// through an ordered async queue.
type Registry struct {
	coll  *store.Collection[[]domain.User]
	async *store.AsyncCollection[[]domain.User]
	cache otter.Cache[int64, domain.User]
	log   logging.Logger

	// capture marks users whose next message goes straight to operators.
	// It is deliberately not persisted.
	capture *abstract.SafeMap[int64, bool]
}

// NewRegistry creates the registry and starts its write queue.
func NewRegistry(ctx context.Context, coll *store.Collection[[]domain.User], log logging.Logger, lg gorder.Logger) (*Registry, error) {
	cache, err := otter.MustBuilder[int64, domain.User](cacheCapacity).WithTTL(cacheTTL).Build()
	if err != nil {
		return nil, errm.Wrap(err, "create user cache")
	}

	return &Registry{
		coll:    coll,
		async:   store.NewAsyncCollection(ctx, coll, 1, lg),
		cache:   cache,
		log:     log,
		capture: abstract.NewSafeMap[int64, bool](),
	}, nil
}

// Ensure returns the user record, creating it on first contact.
func (r *Registry) Ensure(ctx context.Context, id int64, name string) (domain.User, error) {
	if u, found := r.cache.Get(id); found {
		return u, nil
	}

	all, _, err := r.coll.Get(ctx)
	if err != nil {
		return domain.User{}, errm.Wrap(err, "get users")
	}
	for _, u := range all {
		if u.ID == id {
			r.cache.Set(id, u)
			return u, nil
		}
	}

	u := domain.User{
		ID:        id,
		Name:      name,
		FirstSeen: time.Now().UTC(),
	}
	r.cache.Set(id, u)
	r.persist(u)

	r.log.Info("new user", "user_id", id, "name", name)
	return u, nil
}

// Get returns the user record if it exists.
func (r *Registry) Get(ctx context.Context, id int64) (domain.User, bool, error) {
	if u, found := r.cache.Get(id); found {
		return u, true, nil
	}

	all, _, err := r.coll.Get(ctx)
	if err != nil {
		return domain.User{}, false, errm.Wrap(err, "get users")
	}
	for _, u := range all {
		if u.ID == id {
			r.cache.Set(id, u)
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

// Arm sets the awaiting marker: the next free-form message from the user
// is order content for the given catalog action.
func (r *Registry) Arm(ctx context.Context, id int64, aw domain.Awaiting) error {
	return r.mutate(ctx, id, func(u domain.User) domain.User {
		u.Awaiting = &aw
		return u
	})
}

// Disarm clears the awaiting marker.
func (r *Registry) Disarm(ctx context.Context, id int64) error {
	return r.mutate(ctx, id, func(u domain.User) domain.User {
		u.Awaiting = nil
		return u
	})
}

// InvalidateAwaiting clears every awaiting marker that references the
// given catalog item, used when the item is deleted.
func (r *Registry) InvalidateAwaiting(ctx context.Context, buttonID string) error {
	r.cache.Range(func(id int64, u domain.User) bool {
		if u.Awaiting != nil && u.Awaiting.ButtonID == buttonID {
			u.Awaiting = nil
			r.cache.Set(id, u)
		}
		return true
	})

	_, err := r.coll.Update(ctx, func(all []domain.User) ([]domain.User, error) {
		for i := range all {
			if all[i].Awaiting != nil && all[i].Awaiting.ButtonID == buttonID {
				all[i].Awaiting = nil
			}
		}
		return all, nil
	})
	if err != nil {
		return errm.Wrap(err, "update users")
	}
	return nil
}

// All returns every known user, newest writes included.
func (r *Registry) All(ctx context.Context) ([]domain.User, error) {
	all, _, err := r.coll.Get(ctx)
	if err != nil {
		return nil, errm.Wrap(err, "get users")
	}

	seen := make(map[int64]int, len(all))
	for i, u := range all {
		seen[u.ID] = i
	}

	// Cache entries may be ahead of the async-persisted snapshot.
	r.cache.Range(func(id int64, u domain.User) bool {
		if i, ok := seen[id]; ok {
			all[i] = u
		} else {
			all = append(all, u)
		}
		return true
	})

	return all, nil
}

// Count returns the number of known users.
func (r *Registry) Count(ctx context.Context) (int, error) {
	all, err := r.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// SetCapture marks the user's next message for forwarding to operators.
func (r *Registry) SetCapture(id int64) {
	r.capture.Set(id, true)
}

// TakeCapture consumes the capture mark, reporting whether it was set.
func (r *Registry) TakeCapture(id int64) bool {
	if !r.capture.Get(id) {
		return false
	}
	r.capture.Delete(id)
	return true
}

// Shutdown drains the write queue.
func (r *Registry) Shutdown(ctx context.Context) error {
	return r.async.Shutdown(ctx)
}

func (r *Registry) mutate(ctx context.Context, id int64, fn func(domain.User) domain.User) error {
	u, found, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return errm.New("unknown user")
	}

	u = fn(u)
	r.cache.Set(id, u)
	r.persist(u)
	return nil
}

func (r *Registry) persist(u domain.User) {
	r.async.Update(userTaskName(u.ID), func(all []domain.User) ([]domain.User, error) {
		for i := range all {
			if all[i].ID == u.ID {
				all[i] = u
				return all, nil
			}
		}
		return append(all, u), nil
	})
}

func userTaskName(id int64) string {
	return "user_" + strconv.FormatInt(id, 10)
}
