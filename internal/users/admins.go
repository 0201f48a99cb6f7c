package users

import (
	"context"
	"time"

	"github.com/maxbolgarin/errm"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/store"
)

// AdminsCollectionName is the snapshot name of managed operator records.
const AdminsCollectionName = "admins"

// ErrAdminNotFound is returned when removing an unknown admin.
var ErrAdminNotFound = errm.New("admin not found")

// PermAll grants every operator capability.
const PermAll = "all"

// Admins manages the runtime operator list. Operators configured at
// startup are merged in by the caller and cannot be removed here.
type Admins struct {
	coll      *store.Collection[[]domain.Admin]
	operators []int64
	log       logging.Logger
}

// NewAdmins creates the admin service. operators are the IDs from
// configuration that always have operator rights.
func NewAdmins(coll *store.Collection[[]domain.Admin], operators []int64, log logging.Logger) *Admins {
	return &Admins{
		coll:      coll,
		operators: operators,
		log:       log,
	}
}

// IsOperator reports whether the user may use the admin panel.
func (a *Admins) IsOperator(ctx context.Context, id int64) bool {
	for _, op := range a.operators {
		if op == id {
			return true
		}
	}

	all, _, err := a.coll.Get(ctx)
	if err != nil {
		a.log.Error("get admins", "error", err)
		return false
	}
	for _, adm := range all {
		if adm.ID == id {
			return true
		}
	}
	return false
}

// Records returns the stored admin records. Configured operators are
// not records and do not appear here.
func (a *Admins) Records(ctx context.Context) ([]domain.Admin, error) {
	all, _, err := a.coll.Get(ctx)
	if err != nil {
		return nil, errm.Wrap(err, "get admins")
	}
	return all, nil
}

// IDs returns the full deduplicated operator set.
func (a *Admins) IDs(ctx context.Context) ([]int64, error) {
	all, _, err := a.coll.Get(ctx)
	if err != nil {
		return nil, errm.Wrap(err, "get admins")
	}

	seen := make(map[int64]bool, len(a.operators)+len(all))
	out := make([]int64, 0, len(a.operators)+len(all))
	for _, id := range a.operators {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, adm := range all {
		if !seen[adm.ID] {
			seen[adm.ID] = true
			out = append(out, adm.ID)
		}
	}
	return out, nil
}

// Add grants full operator rights to the user, recording the display
// name of the granting operator. Adding an existing admin is a no-op.
func (a *Admins) Add(ctx context.Context, id int64, grantedBy string) error {
	_, err := a.coll.Update(ctx, func(all []domain.Admin) ([]domain.Admin, error) {
		for _, adm := range all {
			if adm.ID == id {
				return all, nil
			}
		}
		return append(all, domain.Admin{
			ID:      id,
			Name:    grantedBy,
			Perms:   []string{PermAll},
			AddedAt: time.Now().UTC(),
		}), nil
	})
	if err != nil {
		return errm.Wrap(err, "update admins")
	}

	a.log.Info("admin added", "user_id", id)
	return nil
}

// Remove revokes operator rights. Configured operators cannot be removed.
func (a *Admins) Remove(ctx context.Context, id int64) error {
	_, err := a.coll.Update(ctx, func(all []domain.Admin) ([]domain.Admin, error) {
		for i, adm := range all {
			if adm.ID == id {
				return append(all[:i], all[i+1:]...), nil
			}
		}
		return all, ErrAdminNotFound
	})
	if err != nil {
		return err
	}

	a.log.Info("admin removed", "user_id", id)
	return nil
}
