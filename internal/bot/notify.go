package bot

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/users"
)

// Delivery is the per-recipient result of a fan-out.
type Delivery struct {
	ID  int64
	Err error
}

// SentCount returns how many deliveries succeeded.
func SentCount(ds []Delivery) int {
	var n int
	for _, d := range ds {
		if d.Err == nil {
			n++
		}
	}
	return n
}

// Notifier fans messages out to operators or the whole user base on a
// shared goroutine pool. Delivery is best effort: failures are logged
// and reported per recipient, the batch never aborts.
type Notifier struct {
	sender sender
	admins *users.Admins
	pool   *ants.Pool
	log    logging.Logger
}

// NewNotifier creates the notifier and its pool.
func NewNotifier(s sender, admins *users.Admins, workers int, log logging.Logger) (*Notifier, error) {
	pool, err := ants.NewPool(workers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}

	return &Notifier{
		sender: s,
		admins: admins,
		pool:   pool,
		log:    log,
	}, nil
}

// Broadcast sends what to every recipient and returns one Delivery per ID,
// in the same order.
func (n *Notifier) Broadcast(ids []int64, what any) []Delivery {
	results := make([]Delivery, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		i, id := i, id
		wg.Add(1)

		err := n.pool.Submit(func() {
			defer wg.Done()
			_, err := n.sender.Send(id, what)
			if err != nil {
				n.log.Warn("delivery failed", "user_id", id, "error", err)
			}
			results[i] = Delivery{ID: id, Err: err}
		})
		if err != nil {
			wg.Done()
			results[i] = Delivery{ID: id, Err: err}
		}
	}
	wg.Wait()

	return results
}

// Operators sends what to the full operator set.
func (n *Notifier) Operators(ctx context.Context, what any) []Delivery {
	ids, err := n.admins.IDs(ctx)
	if err != nil {
		n.log.Error("get operator ids", "error", err)
		return nil
	}
	return n.Broadcast(ids, what)
}

// Release stops the pool.
func (n *Notifier) Release() {
	n.pool.Release()
}
