// Package webhook implements a tele.Poller that receives updates over
// HTTP instead of long polling.
package webhook

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sync"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/servex/v2"
	tele "gopkg.in/telebot.v4"

	"github.com/ordobot/ordo/internal/config"
	"github.com/ordobot/ordo/internal/logging"
)

// Poller serves POST /webhook/<token> for Telegram, GET /setwebhook to
// re-register with Telegram and GET / as a liveness probe.
type Poller struct {
	srv   *servex.Server
	cfg   config.WebhookConfig
	token string
	log   logging.Logger

	bot     *tele.Bot
	updates chan tele.Update
	stopCh  chan struct{}

	shutdownOnce sync.Once
}

// NewPoller creates the webhook HTTP server.
func NewPoller(cfg config.WebhookConfig, token string, log logging.Logger) (*Poller, error) {
	servexOpts := []servex.Option{
		servex.WithNoRequestLog(),
		servex.WithReadTimeout(cfg.ReadTimeout),
		servex.WithIdleTimeout(cfg.IdleTimeout),
		servex.WithHealthEndpoint(),
		servex.WithLogger(log),
	}
	if cfg.RPS > 0 {
		servexOpts = append(servexOpts,
			servex.WithRPS(cfg.RPS),
			servex.WithBurstSize(lang.Check(cfg.BurstSize, cfg.RPS)),
		)
	}

	srv, err := servex.NewServer(servexOpts...)
	if err != nil {
		return nil, errm.Wrap(err, "create servex server")
	}

	p := &Poller{
		srv:    srv,
		cfg:    cfg,
		token:  token,
		log:    log,
		stopCh: make(chan struct{}),
	}

	p.srv.POST(p.webhookPath(), p.handleUpdate)
	p.srv.GET("/setwebhook", p.handleSetWebhook)
	p.srv.GET("/", p.handleIndex)

	return p, nil
}

// Poll implements tele.Poller.
func (p *Poller) Poll(bot *tele.Bot, updates chan tele.Update, stop chan struct{}) {
	p.bot = bot
	p.updates = updates

	if err := p.srv.StartHTTP(p.cfg.Listen); err != nil {
		p.log.Error("failed to start server", "error", err.Error(), "listen", p.cfg.Listen)
		close(p.stopCh)
		return
	}

	if err := p.setWebhook(); err != nil {
		p.log.Error("failed to set webhook", "error", err.Error())
		close(p.stopCh)
		return
	}

	p.log.Info("webhook poller started", "url", p.cfg.URL, "listen", p.cfg.Listen)

	select {
	case <-stop:
		p.log.Info("webhook poller stopping")
	case <-p.stopCh:
		p.log.Info("webhook poller stopped")
	}
}

// Shutdown deletes the webhook from Telegram and stops the HTTP server.
func (p *Poller) Shutdown(ctx context.Context) error {
	errList := errm.NewList()

	p.shutdownOnce.Do(func() {
		if err := p.deleteWebhook(); err != nil {
			errList.Add(err)
		}
		if err := p.srv.Shutdown(ctx); err != nil {
			errList.Add(err)
		}
		p.log.Debug("webhook poller shutdown complete")
	})

	return errList.Err()
}

func (p *Poller) webhookPath() string {
	return "/webhook/" + p.token
}

// handleUpdate receives one update from Telegram. The channel write is
// non-blocking: when handlers fall behind, updates are dropped instead
// of stalling Telegram's delivery.
func (p *Poller) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := p.srv.NewContext(w, r)

	if err := p.validateRequest(r); err != nil {
		ctx.BadRequest(err, "request validation failed")
		return
	}

	update, err := servex.ReadJSON[tele.Update](r)
	if err != nil {
		ctx.BadRequest(err, "failed to read update")
		return
	}

	select {
	case p.updates <- update:
		ctx.Response(http.StatusOK)

	default:
		p.log.Warn("update channel full, dropping update")
		ctx.ServiceUnavailable(nil, "update channel full, dropping update")
	}
}

func (p *Poller) validateRequest(r *http.Request) error {
	if p.cfg.SecretToken == "" {
		return nil
	}

	signature := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
	if signature == "" {
		return errm.New("missing signature header")
	}
	if subtle.ConstantTimeCompare([]byte(signature), []byte(p.cfg.SecretToken)) != 1 {
		return errm.New("invalid signature")
	}

	return nil
}

func (p *Poller) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := p.srv.NewContext(w, r)

	if err := p.setWebhook(); err != nil {
		ctx.InternalServerError(err, "failed to set webhook")
		return
	}

	ctx.Response(http.StatusOK, "Webhook set: "+p.cfg.URL+p.webhookPath())
}

func (p *Poller) handleIndex(w http.ResponseWriter, r *http.Request) {
	p.srv.NewContext(w, r).Response(http.StatusOK, "Telegram bot (webhook) is running.")
}

// setWebhook registers the webhook on Telegram's side.
func (p *Poller) setWebhook() error {
	if p.bot == nil {
		return errm.New("bot not initialized")
	}

	params := map[string]any{
		"url":                  p.cfg.URL + p.webhookPath(),
		"max_connections":      p.cfg.MaxConnections,
		"drop_pending_updates": p.cfg.DropPendingUpdates,
	}
	if p.cfg.SecretToken != "" {
		params["secret_token"] = p.cfg.SecretToken
	}

	if _, err := p.bot.Raw("setWebhook", params); err != nil {
		return errm.Wrap(err, "set webhook")
	}

	p.log.Debug("webhook set",
		"url", p.cfg.URL+p.webhookPath(),
		"max_connections", p.cfg.MaxConnections,
		"drop_pending_updates", p.cfg.DropPendingUpdates,
		"secret_token", lang.If(p.cfg.SecretToken != "", "set", "not set"),
	)

	return nil
}

func (p *Poller) deleteWebhook() error {
	if p.bot == nil {
		return nil
	}

	if _, err := p.bot.Raw("deleteWebhook", map[string]any{
		"drop_pending_updates": p.cfg.DropPendingUpdates,
	}); err != nil {
		return errm.Wrap(err, "delete webhook")
	}

	p.log.Debug("webhook deleted")
	return nil
}
