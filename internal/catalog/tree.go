package catalog

import (
	"context"
	"strings"

	"github.com/maxbolgarin/errm"

	"github.com/ordobot/ordo/internal/domain"
)

// Tree renders the menu as an indented text listing for operators.
func (s *Service) Tree(ctx context.Context) (string, error) {
	cat, _, err := s.coll.Get(ctx)
	if err != nil {
		return "", errm.Wrap(err, "get catalog")
	}
	if len(cat.Items) == 0 {
		return "the menu is empty", nil
	}

	var b strings.Builder
	writeItems(&b, cat.Items, 0)
	return b.String(), nil
}

func writeItems(b *strings.Builder, items []domain.MenuItem, depth int) {
	for _, item := range items {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("• ")
		b.WriteString(item.Label)
		b.WriteString(" [")
		b.WriteString(item.ID)
		b.WriteString(", ")
		b.WriteString(string(item.Kind))
		b.WriteString("]\n")
		if len(item.Items) > 0 {
			writeItems(b, item.Items, depth+1)
		}
	}
}
