// Package sched runs one-shot scheduled broadcasts from a persisted queue.
package sched

import (
	"context"
	"time"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/store"
)

// CollectionName is the snapshot name of the schedule queue.
const CollectionName = "schedules"

const scheduleIDLength = 8

// FireFunc delivers one due broadcast. It is called after the entry has
// been claimed, so a crash between claim and delivery drops the entry
// rather than duplicating it.
type FireFunc func(ctx context.Context, sc domain.Schedule)

// Scheduler polls the persisted queue and fires due entries. Claiming
// happens inside the collection transaction by stamping FiredAt, so a
// restarted process can tell pending entries from fired ones. Entries are
// never pruned.
type Scheduler struct {
	coll     *store.Collection[[]domain.Schedule]
	fire     FireFunc
	interval time.Duration
	log      logging.Logger

	// Entries already due when the loop starts are left alone: the bot
	// was down at their fire time and late broadcasts are worse than
	// missed ones.
	startedAt time.Time
}

// New creates a scheduler. Call Start to run the dispatch loop.
func New(coll *store.Collection[[]domain.Schedule], interval time.Duration, fire FireFunc, log logging.Logger) *Scheduler {
	return &Scheduler{
		coll:     coll,
		fire:     fire,
		interval: interval,
		log:      log,
	}
}

// Add persists a new entry. The at time must be in the future.
func (s *Scheduler) Add(ctx context.Context, text string, at time.Time) (domain.Schedule, error) {
	if !at.After(time.Now()) {
		return domain.Schedule{}, errm.New("schedule time is in the past")
	}

	sc := domain.Schedule{
		ID:   abstract.GetRandomString(scheduleIDLength),
		Text: text,
		At:   at.UTC(),
	}

	_, err := s.coll.Update(ctx, func(all []domain.Schedule) ([]domain.Schedule, error) {
		return append(all, sc), nil
	})
	if err != nil {
		return domain.Schedule{}, errm.Wrap(err, "update schedules")
	}

	s.log.Info("broadcast scheduled", "id", sc.ID, "at", sc.At)
	return sc, nil
}

// Pending returns entries that are not fired yet.
func (s *Scheduler) Pending(ctx context.Context) ([]domain.Schedule, error) {
	all, _, err := s.coll.Get(ctx)
	if err != nil {
		return nil, errm.Wrap(err, "get schedules")
	}

	out := make([]domain.Schedule, 0, len(all))
	for _, sc := range all {
		if !sc.Fired() {
			out = append(out, sc)
		}
	}
	return out, nil
}

// Start runs the dispatch loop until the context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.startedAt = time.Now()

	if skipped := s.countSkipped(ctx); skipped > 0 {
		s.log.Warn("skipping past-due schedule entries", "count", skipped)
	}

	lang.Go(s.log, func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("scheduler stopped")
				return
			case <-ticker.C:
				s.dispatchDue(ctx)
			}
		}
	})
}

func (s *Scheduler) countSkipped(ctx context.Context) int {
	all, _, err := s.coll.Get(ctx)
	if err != nil {
		s.log.Error("get schedules", "error", err)
		return 0
	}

	var n int
	for _, sc := range all {
		if !sc.Fired() && sc.At.Before(s.startedAt) {
			n++
		}
	}
	return n
}

// dispatchDue claims every due entry in one transaction, then fires them.
func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := time.Now()
	var claimed []domain.Schedule

	_, err := s.coll.Update(ctx, func(all []domain.Schedule) ([]domain.Schedule, error) {
		for i := range all {
			sc := all[i]
			if sc.Fired() || sc.At.After(now) || sc.At.Before(s.startedAt) {
				continue
			}
			firedAt := now.UTC()
			all[i].FiredAt = &firedAt
			claimed = append(claimed, all[i])
		}
		return all, nil
	})
	if err != nil {
		s.log.Error("claim due schedules", "error", err)
		return
	}

	for _, sc := range claimed {
		s.log.Info("firing scheduled broadcast", "id", sc.ID, "at", sc.At)
		s.fire(ctx, sc)
	}
}
