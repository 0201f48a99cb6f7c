// Package catalog manages the menu tree users navigate.
package catalog

import (
	"context"

	"github.com/maxbolgarin/errm"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/store"
)

// CollectionName is the snapshot name of the menu tree.
const CollectionName = "buttons"

// ErrItemNotFound is returned when no menu item matches a key.
var ErrItemNotFound = errm.New("menu item not found")

// Service provides read and mutation access to the catalog.
type Service struct {
	coll *store.Collection[domain.Catalog]
	log  logging.Logger
}

// New creates a catalog service over the collection.
func New(coll *store.Collection[domain.Catalog], log logging.Logger) *Service {
	return &Service{
		coll: coll,
		log:  log,
	}
}

// Seed writes the default menu if the collection does not exist yet.
func (s *Service) Seed(ctx context.Context) error {
	_, found, err := s.coll.Get(ctx)
	if err != nil {
		return errm.Wrap(err, "get catalog")
	}
	if found {
		return nil
	}

	s.log.Info("seeding default catalog")
	return s.coll.Put(ctx, domain.Catalog{Items: defaultItems()})
}

// Items returns the top-level menu items.
func (s *Service) Items(ctx context.Context) ([]domain.MenuItem, error) {
	cat, _, err := s.coll.Get(ctx)
	if err != nil {
		return nil, errm.Wrap(err, "get catalog")
	}
	return cat.Items, nil
}

// Resolve finds the first item whose ID or label equals key, searching
// depth first through nested submenus.
func (s *Service) Resolve(ctx context.Context, key string) (domain.MenuItem, error) {
	cat, _, err := s.coll.Get(ctx)
	if err != nil {
		return domain.MenuItem{}, errm.Wrap(err, "get catalog")
	}

	item, ok := Find(cat.Items, key)
	if !ok {
		return domain.MenuItem{}, ErrItemNotFound
	}
	return item, nil
}

// Find searches items depth first for the first one whose ID or label
// equals key.
func Find(items []domain.MenuItem, key string) (domain.MenuItem, bool) {
	for _, item := range items {
		if item.ID == key || item.Label == key {
			return item, true
		}
		if len(item.Items) > 0 {
			if found, ok := Find(item.Items, key); ok {
				return found, true
			}
		}
	}
	return domain.MenuItem{}, false
}

// Append adds an item to the top level of the menu.
func (s *Service) Append(ctx context.Context, item domain.MenuItem) error {
	_, err := s.coll.Update(ctx, func(cat domain.Catalog) (domain.Catalog, error) {
		cat.Items = append(cat.Items, item)
		return cat, nil
	})
	if err != nil {
		return errm.Wrap(err, "update catalog")
	}

	s.log.Info("catalog item added", "id", item.ID, "kind", item.Kind)
	return nil
}

// RemoveTopLevel deletes the first top-level item whose ID or label equals
// key and returns it. Nested items cannot be deleted this way.
func (s *Service) RemoveTopLevel(ctx context.Context, key string) (domain.MenuItem, error) {
	var removed domain.MenuItem

	_, err := s.coll.Update(ctx, func(cat domain.Catalog) (domain.Catalog, error) {
		for i, item := range cat.Items {
			if item.ID == key || item.Label == key {
				removed = item
				cat.Items = append(cat.Items[:i], cat.Items[i+1:]...)
				return cat, nil
			}
		}
		return cat, ErrItemNotFound
	})
	if err != nil {
		return domain.MenuItem{}, err
	}

	s.log.Info("catalog item removed", "id", removed.ID)
	return removed, nil
}

func defaultItems() []domain.MenuItem {
	return []domain.MenuItem{
		{
			ID:    "services",
			Label: "🎮 Game services",
			Kind:  domain.KindSubmenu,
			Items: []domain.MenuItem{
				{ID: "pubg", Label: "PUBG top-up", Kind: domain.KindRequestInfo, Prompt: "Send your UserID and the package you need:"},
				{ID: "ff", Label: "FreeFire top-up", Kind: domain.KindRequestInfo, Prompt: "Send your game ID and the package you need:"},
			},
		},
		{
			ID:    "cards",
			Label: "💳 Gift cards",
			Kind:  domain.KindSubmenu,
			Items: []domain.MenuItem{
				{ID: "google", Label: "Google Play", Kind: domain.KindRequestInfo, Prompt: "Send the amount and currency you need:"},
				{ID: "itunes", Label: "iTunes", Kind: domain.KindRequestInfo, Prompt: "Send the amount and currency you need:"},
			},
		},
		{
			ID:    "contact",
			Label: "📩 Contact support",
			Kind:  domain.KindContactAdmin,
		},
	}
}
