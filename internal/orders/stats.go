package orders

import (
	"context"

	"github.com/maxbolgarin/errm"
)

// Stats is the summary shown in the operator panel.
type Stats struct {
	Orders         int
	TopAction      string
	TopActionCount int
}

// Stats aggregates the order log: total count and the most requested
// catalog action.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, _, err := s.coll.Get(ctx)
	if err != nil {
		return Stats{}, errm.Wrap(err, "get orders")
	}

	counts := make(map[string]int)
	out := Stats{Orders: len(all)}
	for _, o := range all {
		counts[o.ButtonText]++
		if counts[o.ButtonText] > out.TopActionCount {
			out.TopActionCount = counts[o.ButtonText]
			out.TopAction = o.ButtonText
		}
	}

	return out, nil
}
