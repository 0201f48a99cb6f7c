package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/ordobot/ordo/internal/config"
	"github.com/ordobot/ordo/internal/logging"
)

func newTestPoller(t *testing.T, secret string) *Poller {
	t.Helper()
	p, err := NewPoller(config.WebhookConfig{
		URL:         "https://bot.example.com",
		Listen:      ":8443",
		SecretToken: secret,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}, "test-token", logging.Noop())
	require.NoError(t, err)
	p.updates = make(chan tele.Update, 1)
	return p
}

func updateRequest(t *testing.T, p *Poller, secret string) *http.Request {
	t.Helper()
	body, err := json.Marshal(tele.Update{ID: 7})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, p.webhookPath(), bytes.NewReader(body))
	if secret != "" {
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
	}
	return req
}

func TestWebhookPath(t *testing.T) {
	p := newTestPoller(t, "")
	assert.Equal(t, "/webhook/test-token", p.webhookPath())
}

func TestHandleUpdate_Accepted(t *testing.T) {
	p := newTestPoller(t, "")

	w := httptest.NewRecorder()
	p.handleUpdate(w, updateRequest(t, p, ""))

	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case upd := <-p.updates:
		assert.Equal(t, 7, upd.ID)
	default:
		t.Fatal("update was not enqueued")
	}
}

func TestHandleUpdate_SecretValidation(t *testing.T) {
	p := newTestPoller(t, "s3cret")

	w := httptest.NewRecorder()
	p.handleUpdate(w, updateRequest(t, p, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	p.handleUpdate(w, updateRequest(t, p, "wrong"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	p.handleUpdate(w, updateRequest(t, p, "s3cret"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleUpdate_DropsWhenChannelFull(t *testing.T) {
	p := newTestPoller(t, "")
	p.updates <- tele.Update{ID: 1}

	w := httptest.NewRecorder()
	p.handleUpdate(w, updateRequest(t, p, ""))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleUpdate_BadBody(t *testing.T) {
	p := newTestPoller(t, "")

	req := httptest.NewRequest(http.MethodPost, p.webhookPath(), bytes.NewReader([]byte("{bad")))
	w := httptest.NewRecorder()
	p.handleUpdate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
