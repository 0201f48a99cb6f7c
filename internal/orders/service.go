// Package orders owns the order lifecycle: intake of user submissions,
// operator decisions and listing.
package orders

import (
	"context"
	"time"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/store"
)

// CollectionName is the snapshot name of the order log.
const CollectionName = "orders"

const orderIDLength = 8

var (
	// ErrOrderNotFound is returned when no order matches an ID.
	ErrOrderNotFound = errm.New("order not found")

	// ErrAlreadyDecided is returned when a decision is applied to an
	// order that is already approved or rejected.
	ErrAlreadyDecided = errm.New("order already decided")
)

// Service provides access to the order log.
type Service struct {
	coll *store.Collection[[]domain.Order]
	log  logging.Logger
}

// New creates an order service over the collection.
func New(coll *store.Collection[[]domain.Order], log logging.Logger) *Service {
	return &Service{
		coll: coll,
		log:  log,
	}
}

// Create appends a new pending order for the user's armed catalog action.
func (s *Service) Create(ctx context.Context, u domain.User, aw domain.Awaiting, info string) (domain.Order, error) {
	order := domain.Order{
		ID:         abstract.GetRandomString(orderIDLength),
		UserID:     u.ID,
		UserName:   u.Name,
		ButtonID:   aw.ButtonID,
		ButtonText: aw.ButtonText,
		Info:       info,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.coll.Update(ctx, func(all []domain.Order) ([]domain.Order, error) {
		return append(all, order), nil
	})
	if err != nil {
		return domain.Order{}, errm.Wrap(err, "update orders")
	}

	s.log.Info("order created", "order_id", order.ID, "user_id", u.ID, "button_id", aw.ButtonID)
	return order, nil
}

// Get returns the order with the given ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	all, _, err := s.coll.Get(ctx)
	if err != nil {
		return domain.Order{}, errm.Wrap(err, "get orders")
	}
	for _, o := range all {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, ErrOrderNotFound
}

// Decide moves the order to the given status and stamps the handled time.
// Approved and rejected are terminal: re-deciding such an order returns
// ErrAlreadyDecided and changes nothing.
func (s *Service) Decide(ctx context.Context, id string, status domain.OrderStatus, notes string) (domain.Order, error) {
	var decided domain.Order

	_, err := s.coll.Update(ctx, func(all []domain.Order) ([]domain.Order, error) {
		for i := range all {
			if all[i].ID != id {
				continue
			}
			if all[i].Status.IsTerminal() {
				return all, ErrAlreadyDecided
			}
			now := time.Now().UTC()
			all[i].Status = status
			all[i].HandledAt = &now
			if notes != "" {
				all[i].Notes = notes
			}
			decided = all[i]
			return all, nil
		}
		return all, ErrOrderNotFound
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order decided", "order_id", id, "status", status)
	return decided, nil
}

// Recent returns up to n orders, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]domain.Order, error) {
	all, _, err := s.coll.Get(ctx)
	if err != nil {
		return nil, errm.Wrap(err, "get orders")
	}

	out := make([]domain.Order, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Count returns the total number of orders ever created.
func (s *Service) Count(ctx context.Context) (int, error) {
	all, _, err := s.coll.Get(ctx)
	if err != nil {
		return 0, errm.Wrap(err, "get orders")
	}
	return len(all), nil
}
