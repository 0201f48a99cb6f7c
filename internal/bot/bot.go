// Package bot wires the Telegram transport to the catalog, order and
// operator services.
package bot

import (
	"context"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/lang"
	tele "gopkg.in/telebot.v4"

	"github.com/ordobot/ordo/internal/catalog"
	"github.com/ordobot/ordo/internal/config"
	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/orders"
	"github.com/ordobot/ordo/internal/sched"
	"github.com/ordobot/ordo/internal/settings"
	"github.com/ordobot/ordo/internal/users"
)

// Services are the wired domain services the bot dispatches to.
type Services struct {
	Settings  *settings.Service
	Catalog   *catalog.Service
	Registry  *users.Registry
	Admins    *users.Admins
	Orders    *orders.Service
	Intake    *orders.Intake
	Scheduler *sched.Scheduler
}

// Bot is the Telegram frontend.
type Bot struct {
	ctx  context.Context
	tele *tele.Bot
	base sender
	cfg  config.Config
	log  logging.Logger

	svc      Services
	notifier *Notifier

	// sessions holds at most one wizard session per operator.
	sessions *abstract.SafeMap[int64, *wizardSession]
}

// New creates the bot. A nil poller means long polling; tests and the
// webhook transport pass their own.
func New(ctx context.Context, cfg config.Config, svc Services, poller tele.Poller, log logging.Logger) (*Bot, error) {
	tb, err := newTeleBot(cfg.Token, cfg.Bot, cfg.Debug, poller, log)
	if err != nil {
		return nil, err
	}

	base := newBaseBot(tb, cfg.Bot, log)

	notifier, err := NewNotifier(base, svc.Admins, cfg.Bot.NotifyWorkers, log)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		ctx:      ctx,
		tele:     tb,
		base:     base,
		cfg:      cfg,
		log:      log,
		svc:      svc,
		notifier: notifier,
		sessions: abstract.NewSafeMap[int64, *wizardSession](),
	}
	b.registerHandlers()

	return b, nil
}

// Telebot exposes the underlying bot for webhook registration.
func (b *Bot) Telebot() *tele.Bot {
	return b.tele
}

// Start runs the poller in the background.
func (b *Bot) Start() {
	b.log.Info("bot is starting")
	lang.Go(b.log, b.tele.Start)
}

// Stop stops the poller and releases the fan-out pool.
func (b *Bot) Stop() {
	b.tele.Stop()
	b.notifier.Release()
}

// BroadcastAll sends text to every known user, best effort. It backs both
// the broadcast wizard and scheduled sends.
func (b *Bot) BroadcastAll(ctx context.Context, text string) []Delivery {
	all, err := b.svc.Registry.All(ctx)
	if err != nil {
		b.log.Error("get broadcast targets", "error", err)
		return nil
	}

	ids := make([]int64, 0, len(all))
	for _, u := range all {
		ids = append(ids, u.ID)
	}
	return b.notifier.Broadcast(ids, text)
}

// FireSchedule delivers one claimed schedule entry.
func (b *Bot) FireSchedule(ctx context.Context, sc domain.Schedule) {
	ds := b.BroadcastAll(ctx, sc.Text)
	b.log.Info("scheduled broadcast fired", "id", sc.ID, "sent", SentCount(ds), "total", len(ds))
}

func (b *Bot) registerHandlers() {
	b.tele.Handle("/start", b.wrap(b.onStart))
	b.tele.Handle("/help", b.wrap(b.onStart))
	b.tele.Handle("/admin", b.wrap(b.onAdmin))
	b.tele.Handle(tele.OnText, b.wrap(b.onText))
	b.tele.Handle(tele.OnPhoto, b.wrap(b.onPhoto))
	b.tele.Handle(tele.OnCallback, b.wrap(b.onCallback))
}

// wrap recovers panics, logs handler errors and reports them to the user
// generically, so one bad update never kills the poller.
func (b *Bot) wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		err := b.safeHandle(h, c)
		if err != nil {
			var userID int64
			if c.Sender() != nil {
				userID = c.Sender().ID
			}
			b.log.Error("handler failed", "error", err, "user_id", userID)
			if userID != 0 {
				_, _ = b.base.Send(userID, msgGeneralError)
			}
		}
		return nil
	}
}

func (b *Bot) safeHandle(h tele.HandlerFunc, c tele.Context) (err error) {
	defer lang.RecoverWithErrAndStack(b.log, &err)
	return h(c)
}

func (b *Bot) isOperator(id int64) bool {
	return b.svc.Admins.IsOperator(b.ctx, id)
}

func senderName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return lang.Check(name, u.Username)
}
