package bot

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/maxbolgarin/errm"
	tele "gopkg.in/telebot.v4"

	"github.com/ordobot/ordo/internal/config"
	"github.com/ordobot/ordo/internal/logging"
)

var (
	errEmptyUserID = errm.New("empty user id")
	errEmptyMsgID  = errm.New("empty msg id")
)

// sender delivers messages on behalf of the bot. Handlers depend on this
// interface so tests can record deliveries without a live API.
type sender interface {
	Send(userID int64, what any, opts ...any) (int, error)
	Edit(userID int64, msgID int, what any, opts ...any) error
	Delete(userID int64, msgIDs ...int) error
}

// baseBot wraps tele.Bot with default send options and tolerant edits.
type baseBot struct {
	bot *tele.Bot
	log logging.Logger

	defaultOptions []any
}

func newTeleBot(token string, cfg config.BotConfig, debug bool, poller tele.Poller, log logging.Logger) (*tele.Bot, error) {
	if poller == nil {
		poller = &tele.LongPoller{Timeout: cfg.LPTimeout}
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:   token,
		Poller:  poller,
		Client:  &http.Client{Timeout: 2 * cfg.LPTimeout},
		Verbose: debug,
		OnError: func(err error, ctx tele.Context) {
			var userID int64
			if ctx != nil && ctx.Chat() != nil {
				userID = ctx.Chat().ID
			}
			log.Error("Bot.OnError", "error", err, "user_id", userID)
		},
	})
	if err != nil {
		return nil, errm.Wrap(err, "new telebot")
	}

	return bot, nil
}

func newBaseBot(bot *tele.Bot, cfg config.BotConfig, log logging.Logger) *baseBot {
	b := &baseBot{
		bot:            bot,
		log:            log,
		defaultOptions: []any{tele.ModeHTML},
	}
	if cfg.NoPreview {
		b.defaultOptions = append(b.defaultOptions, tele.NoPreview)
	}
	return b
}

func (b *baseBot) Send(userID int64, what any, options ...any) (int, error) {
	if userID == 0 {
		return 0, errEmptyUserID
	}

	m, err := b.bot.Send(userIDWrapper(userID), what, append(options, b.defaultOptions...)...)
	if err != nil {
		return 0, err
	}

	return m.ID, nil
}

func (b *baseBot) Edit(userID int64, msgID int, what any, options ...any) error {
	if userID == 0 {
		return errEmptyUserID
	}
	if msgID == 0 {
		return errEmptyMsgID
	}

	_, err := b.bot.Edit(getEditable(userID, msgID), what, append(options, b.defaultOptions...)...)
	if err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			b.log.Warn("message is not modified", "msg_id", msgID, "user_id", userID, "method", "Bot.Edit")
			return nil
		}
		return err
	}

	return nil
}

func (b *baseBot) Delete(userID int64, msgIDs ...int) error {
	if userID == 0 {
		return errEmptyUserID
	}

	errSet := errm.NewList()

	for _, msgID := range msgIDs {
		if msgID == 0 {
			return errEmptyMsgID
		}
		if err := b.bot.Delete(getEditable(userID, msgID)); err != nil {
			errSet.Add(err)
		}
	}

	return errSet.Err()
}

type userIDWrapper int64

func (u userIDWrapper) Recipient() string {
	return strconv.Itoa(int(u))
}

func getEditable(senderID int64, messageID int) tele.Editable {
	return &tele.Message{ID: messageID, Chat: &tele.Chat{ID: senderID}}
}
