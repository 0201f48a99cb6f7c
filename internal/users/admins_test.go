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

func newTestAdmins(t *testing.T, operators ...int64) *Admins {
	t.Helper()
	backend, err := store.NewFileBackend(t.TempDir(), logging.Noop())
	require.NoError(t, err)
	return NewAdmins(store.NewCollection[[]domain.Admin](backend, AdminsCollectionName), operators, logging.Noop())
}

func TestAdmins_ConfiguredOperator(t *testing.T) {
	a := newTestAdmins(t, 1, 2)
	ctx := context.Background()

	assert.True(t, a.IsOperator(ctx, 1))
	assert.True(t, a.IsOperator(ctx, 2))
	assert.False(t, a.IsOperator(ctx, 3))
}

func TestAdmins_AddAndRemove(t *testing.T) {
	a := newTestAdmins(t, 1)
	ctx := context.Background()

	require.NoError(t, a.Add(ctx, 50, "Alice"))
	assert.True(t, a.IsOperator(ctx, 50))

	// adding twice is a no-op
	require.NoError(t, a.Add(ctx, 50, "Bob"))
	ids, err := a.IDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 50}, ids)

	require.NoError(t, a.Remove(ctx, 50))
	assert.False(t, a.IsOperator(ctx, 50))
}

func TestAdmins_RemoveUnknown(t *testing.T) {
	a := newTestAdmins(t, 1)

	err := a.Remove(context.Background(), 99)
	assert.ErrorIs(t, err, ErrAdminNotFound)

	// configured operators are not stored records and cannot be removed
	err = a.Remove(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAdminNotFound)
}

func TestAdmins_IDsDeduplicated(t *testing.T) {
	a := newTestAdmins(t, 1, 2)
	ctx := context.Background()

	require.NoError(t, a.Add(ctx, 2, "Alice"))
	require.NoError(t, a.Add(ctx, 3, "Alice"))

	ids, err := a.IDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}

func TestAdmins_RecordKeepsGrantorAndPerms(t *testing.T) {
	a := newTestAdmins(t, 1)
	ctx := context.Background()

	require.NoError(t, a.Add(ctx, 50, "Alice"))

	all, err := a.Records(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(50), all[0].ID)
	assert.Equal(t, "Alice", all[0].Name)
	assert.Equal(t, []string{PermAll}, all[0].Perms)
	assert.False(t, all[0].AddedAt.IsZero())
}
