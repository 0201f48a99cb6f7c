// Package settings persists runtime-toggleable bot settings.
package settings

import (
	"context"

	"github.com/maxbolgarin/errm"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/store"
)

// CollectionName is the snapshot name of the settings record.
const CollectionName = "config"

// DefaultGreeting is the main menu greeting before an operator changes it.
const DefaultGreeting = "Welcome! Choose a service from the menu below:"

// Service provides access to the settings record.
type Service struct {
	coll *store.Collection[domain.Settings]
	log  logging.Logger
}

// New creates a settings service over the collection.
func New(coll *store.Collection[domain.Settings], log logging.Logger) *Service {
	return &Service{
		coll: coll,
		log:  log,
	}
}

// Seed writes default settings if the collection does not exist yet.
func (s *Service) Seed(ctx context.Context) error {
	_, found, err := s.coll.Get(ctx)
	if err != nil {
		return errm.Wrap(err, "get settings")
	}
	if found {
		return nil
	}

	s.log.Info("seeding default settings")
	return s.coll.Put(ctx, domain.Settings{Enabled: true, Greeting: DefaultGreeting})
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	set, found, err := s.coll.Get(ctx)
	if err != nil {
		return domain.Settings{}, errm.Wrap(err, "get settings")
	}
	if !found {
		return domain.Settings{Enabled: true, Greeting: DefaultGreeting}, nil
	}
	return set, nil
}

// Toggle flips the enabled flag and returns the new state.
func (s *Service) Toggle(ctx context.Context) (bool, error) {
	var enabled bool
	_, err := s.coll.Update(ctx, func(set domain.Settings) (domain.Settings, error) {
		if set.Greeting == "" {
			set.Greeting = DefaultGreeting
		}
		set.Enabled = !set.Enabled
		enabled = set.Enabled
		return set, nil
	})
	if err != nil {
		return false, errm.Wrap(err, "update settings")
	}

	s.log.Info("bot toggled", "enabled", enabled)
	return enabled, nil
}
