package sched

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/store"
)

func newTestScheduler(t *testing.T, fire FireFunc) *Scheduler {
	t.Helper()
	backend, err := store.NewFileBackend(t.TempDir(), logging.Noop())
	require.NoError(t, err)
	coll := store.NewCollection[[]domain.Schedule](backend, CollectionName)
	return New(coll, time.Minute, fire, logging.Noop())
}

func TestScheduler_AddRejectsPastTime(t *testing.T) {
	s := newTestScheduler(t, nil)

	_, err := s.Add(context.Background(), "hello", time.Now().Add(-time.Minute))
	assert.Error(t, err)

	pending, err := s.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestScheduler_AddAndPending(t *testing.T) {
	s := newTestScheduler(t, nil)
	ctx := context.Background()

	sc, err := s.Add(ctx, "hello", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, sc.ID, scheduleIDLength)
	assert.False(t, sc.Fired())

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "hello", pending[0].Text)
}

func TestScheduler_DispatchClaimsOnce(t *testing.T) {
	var fired []domain.Schedule
	s := newTestScheduler(t, func(_ context.Context, sc domain.Schedule) {
		fired = append(fired, sc)
	})
	ctx := context.Background()

	sc, err := s.Add(ctx, "due soon", time.Now().Add(20*time.Millisecond))
	require.NoError(t, err)

	s.startedAt = time.Now()
	time.Sleep(30 * time.Millisecond)

	s.dispatchDue(ctx)
	require.Len(t, fired, 1)
	assert.Equal(t, sc.ID, fired[0].ID)

	// a second poll must not fire the same entry again
	s.dispatchDue(ctx)
	assert.Len(t, fired, 1)

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestScheduler_SkipsEntriesDueBeforeStart(t *testing.T) {
	var fired []domain.Schedule
	s := newTestScheduler(t, func(_ context.Context, sc domain.Schedule) {
		fired = append(fired, sc)
	})
	ctx := context.Background()

	_, err := s.Add(ctx, "missed while down", time.Now().Add(20*time.Millisecond))
	require.NoError(t, err)

	// the loop starts after the entry was already due
	time.Sleep(30 * time.Millisecond)
	s.startedAt = time.Now()

	s.dispatchDue(ctx)
	assert.Empty(t, fired)

	// the entry stays pending and unfired
	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestScheduler_FutureEntryNotClaimed(t *testing.T) {
	var fired []domain.Schedule
	s := newTestScheduler(t, func(_ context.Context, sc domain.Schedule) {
		fired = append(fired, sc)
	})
	ctx := context.Background()

	_, err := s.Add(ctx, "later", time.Now().Add(time.Hour))
	require.NoError(t, err)

	s.startedAt = time.Now()
	s.dispatchDue(ctx)
	assert.Empty(t, fired)
}
