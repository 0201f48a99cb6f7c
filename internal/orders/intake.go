package orders

import (
	"context"
	"strings"

	"github.com/maxbolgarin/errm"

	"github.com/ordobot/ordo/internal/catalog"
	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/users"
)

// IntakeOutcome tells the caller what happened to a free-form submission.
type IntakeOutcome int

const (
	// OutcomeNotAwaiting means the user has no armed catalog action,
	// so the message is not order content.
	OutcomeNotAwaiting IntakeOutcome = iota

	// OutcomeLinkRejected means the text contained a link. The marker
	// stays armed and the user should be re-prompted.
	OutcomeLinkRejected

	// OutcomeMarkerInvalid means the armed catalog action no longer
	// exists. The marker has been cleared.
	OutcomeMarkerInvalid

	// OutcomeCreated means exactly one pending order was created and
	// the marker has been cleared.
	OutcomeCreated
)

// IntakeResult is the outcome of one submission attempt.
type IntakeResult struct {
	Outcome IntakeOutcome
	Order   domain.Order
}

// Intake turns free-form user messages into orders according to the
// awaiting marker protocol.
type Intake struct {
	orders     *Service
	registry   *users.Registry
	catalog    *catalog.Service
	allowLinks bool
}

// NewIntake wires the intake coordinator. allowLinks disables the link
// rejection policy.
func NewIntake(orders *Service, registry *users.Registry, cat *catalog.Service, allowLinks bool) *Intake {
	return &Intake{
		orders:     orders,
		registry:   registry,
		catalog:    cat,
		allowLinks: allowLinks,
	}
}

// Submit processes one free-form message from the user. isPhoto marks
// photo submissions, which skip the link policy because info already
// carries a file tag instead of user text.
func (i *Intake) Submit(ctx context.Context, u domain.User, info string, isPhoto bool) (IntakeResult, error) {
	if u.Awaiting == nil {
		return IntakeResult{Outcome: OutcomeNotAwaiting}, nil
	}
	aw := *u.Awaiting

	// The armed action may have been deleted from the catalog since.
	if _, err := i.catalog.Resolve(ctx, aw.ButtonID); err != nil {
		if !errm.Is(err, catalog.ErrItemNotFound) {
			return IntakeResult{}, err
		}
		if err := i.registry.Disarm(ctx, u.ID); err != nil {
			return IntakeResult{}, errm.Wrap(err, "disarm")
		}
		return IntakeResult{Outcome: OutcomeMarkerInvalid}, nil
	}

	if !i.allowLinks && !isPhoto && startsWithLink(info) {
		return IntakeResult{Outcome: OutcomeLinkRejected}, nil
	}

	order, err := i.orders.Create(ctx, u, aw, info)
	if err != nil {
		return IntakeResult{}, errm.Wrap(err, "create order")
	}

	if err := i.registry.Disarm(ctx, u.ID); err != nil {
		return IntakeResult{}, errm.Wrap(err, "disarm")
	}

	return IntakeResult{Outcome: OutcomeCreated, Order: order}, nil
}

func startsWithLink(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}
