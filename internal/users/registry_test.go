package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, *store.Collection[[]domain.User]) {
	t.Helper()

	backend, err := store.NewFileBackend(t.TempDir(), logging.Noop())
	require.NoError(t, err)
	coll := store.NewCollection[[]domain.User](backend, CollectionName)

	r, err := NewRegistry(context.Background(), coll, logging.Noop(), logging.Noop())
	require.NoError(t, err)
	return r, coll
}

func TestRegistry_EnsureIsIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	first, err := r.Ensure(ctx, 100, "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), first.ID)
	assert.False(t, first.FirstSeen.IsZero())

	again, err := r.Ensure(ctx, 100, "Alice Renamed")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, found, err := r.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegistry_ArmDisarm(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Ensure(ctx, 100, "Alice")
	require.NoError(t, err)

	aw := domain.Awaiting{ButtonID: "pubg", ButtonText: "PUBG top-up", Prompt: "Send your UserID:"}
	require.NoError(t, r.Arm(ctx, 100, aw))

	u, found, err := r.Get(ctx, 100)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, u.Awaiting)
	assert.Equal(t, aw, *u.Awaiting)

	require.NoError(t, r.Disarm(ctx, 100))

	u, _, err = r.Get(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, u.Awaiting)
}

func TestRegistry_ArmUnknownUser(t *testing.T) {
	r, _ := newTestRegistry(t)

	err := r.Arm(context.Background(), 42, domain.Awaiting{ButtonID: "pubg"})
	assert.Error(t, err)
}

func TestRegistry_InvalidateAwaiting(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		_, err := r.Ensure(ctx, id, "user")
		require.NoError(t, err)
	}
	require.NoError(t, r.Arm(ctx, 1, domain.Awaiting{ButtonID: "pubg"}))
	require.NoError(t, r.Arm(ctx, 2, domain.Awaiting{ButtonID: "ff"}))

	require.NoError(t, r.InvalidateAwaiting(ctx, "pubg"))

	u1, _, err := r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, u1.Awaiting)

	u2, _, err := r.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, u2.Awaiting)
	assert.Equal(t, "ff", u2.Awaiting.ButtonID)
}

func TestRegistry_AllSeesUnpersistedWrites(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Ensure(ctx, 100, "Alice")
	require.NoError(t, err)
	_, err = r.Ensure(ctx, 200, "Bob")
	require.NoError(t, err)

	all, err := r.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRegistry_CaptureIsConsumedOnce(t *testing.T) {
	r, _ := newTestRegistry(t)

	assert.False(t, r.TakeCapture(100))

	r.SetCapture(100)
	assert.True(t, r.TakeCapture(100))
	assert.False(t, r.TakeCapture(100))
}

func TestRegistry_ShutdownDrainsWrites(t *testing.T) {
	r, coll := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Ensure(ctx, 100, "Alice")
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(ctx))

	all, found, err := coll.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, all, 1)
	assert.Equal(t, int64(100), all[0].ID)
}
