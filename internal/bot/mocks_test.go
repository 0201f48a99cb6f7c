package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/ordobot/ordo/internal/catalog"
	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/orders"
	"github.com/ordobot/ordo/internal/sched"
	"github.com/ordobot/ordo/internal/settings"
	"github.com/ordobot/ordo/internal/store"
	"github.com/ordobot/ordo/internal/users"
)

type sentMessage struct {
	userID int64
	what   any
	opts   []any
}

// fakeSender records every delivery instead of talking to Telegram.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: make(map[int64]error)}
}

func (f *fakeSender) Send(userID int64, what any, opts ...any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failFor[userID]; err != nil {
		return 0, err
	}
	f.sent = append(f.sent, sentMessage{userID: userID, what: what, opts: opts})
	return len(f.sent), nil
}

func (f *fakeSender) Edit(userID int64, msgID int, what any, opts ...any) error {
	return errm.New("edit not supported")
}

func (f *fakeSender) Delete(userID int64, msgIDs ...int) error {
	return nil
}

// fakeTeleContext is the minimal callback context the dispatch needs.
// Methods not overridden panic through the embedded nil interface.
type fakeTeleContext struct {
	tele.Context
	sender    *tele.User
	data      string
	responses []*tele.CallbackResponse
}

func (c *fakeTeleContext) Sender() *tele.User { return c.sender }

func (c *fakeTeleContext) Callback() *tele.Callback { return &tele.Callback{Data: c.data} }

func (c *fakeTeleContext) Message() *tele.Message { return nil }

func (c *fakeTeleContext) Respond(resp ...*tele.CallbackResponse) error {
	c.responses = append(c.responses, resp...)
	return nil
}

// textsTo returns the string messages delivered to one recipient, in order.
func (f *fakeSender) textsTo(userID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, m := range f.sent {
		if m.userID != userID {
			continue
		}
		if s, ok := m.what.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeSender) lastTextTo(t *testing.T, userID int64) string {
	t.Helper()
	texts := f.textsTo(userID)
	require.NotEmpty(t, texts, "no messages delivered to %d", userID)
	return texts[len(texts)-1]
}

// newTestBot builds a bot over temp-dir storage with a recording sender.
func newTestBot(t *testing.T, operators ...int64) (*Bot, *fakeSender) {
	t.Helper()
	ctx := context.Background()

	backend, err := store.NewFileBackend(t.TempDir(), logging.Noop())
	require.NoError(t, err)

	settingsSvc := settings.New(store.NewCollection[domain.Settings](backend, settings.CollectionName), logging.Noop())
	require.NoError(t, settingsSvc.Seed(ctx))

	catalogSvc := catalog.New(store.NewCollection[domain.Catalog](backend, catalog.CollectionName), logging.Noop())
	require.NoError(t, catalogSvc.Seed(ctx))

	registry, err := users.NewRegistry(ctx, store.NewCollection[[]domain.User](backend, users.CollectionName), logging.Noop(), logging.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Shutdown(context.Background()) })

	adminsSvc := users.NewAdmins(store.NewCollection[[]domain.Admin](backend, users.AdminsCollectionName), operators, logging.Noop())
	ordersSvc := orders.New(store.NewCollection[[]domain.Order](backend, orders.CollectionName), logging.Noop())
	scheduler := sched.New(
		store.NewCollection[[]domain.Schedule](backend, sched.CollectionName),
		time.Minute,
		func(context.Context, domain.Schedule) {},
		logging.Noop(),
	)

	fs := newFakeSender()
	notifier, err := NewNotifier(fs, adminsSvc, 4, logging.Noop())
	require.NoError(t, err)
	t.Cleanup(notifier.Release)

	b := &Bot{
		ctx:  ctx,
		base: fs,
		log:  logging.Noop(),
		svc: Services{
			Settings:  settingsSvc,
			Catalog:   catalogSvc,
			Registry:  registry,
			Admins:    adminsSvc,
			Orders:    ordersSvc,
			Intake:    orders.NewIntake(ordersSvc, registry, catalogSvc, false),
			Scheduler: scheduler,
		},
		notifier: notifier,
		sessions: abstract.NewSafeMap[int64, *wizardSession](),
	}

	return b, fs
}
