package bot

import (
	"strings"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	tele "gopkg.in/telebot.v4"

	"github.com/ordobot/ordo/internal/catalog"
	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/orders"
)

// onStart greets the user with the main menu. When the bot is paused,
// regular users get a notice instead.
func (b *Bot) onStart(c tele.Context) error {
	userID := c.Sender().ID

	if _, err := b.svc.Registry.Ensure(b.ctx, userID, senderName(c.Sender())); err != nil {
		return errm.Wrap(err, "ensure user")
	}

	set, err := b.svc.Settings.Get(b.ctx)
	if err != nil {
		return errm.Wrap(err, "get settings")
	}
	if !set.Enabled && !b.isOperator(userID) {
		_, err := b.base.Send(userID, msgPaused)
		return err
	}

	return b.sendMainMenu(userID, set.Greeting)
}

func (b *Bot) sendMainMenu(userID int64, greeting string) error {
	items, err := b.svc.Catalog.Items(b.ctx)
	if err != nil {
		return errm.Wrap(err, "get catalog")
	}
	_, err = b.base.Send(userID, greeting, menuMarkup(items))
	return err
}

// onText routes free-form text: operator wizard steps first, then the
// contact-operator capture, then order intake, otherwise the message is
// refused with a pointer back to the menu.
func (b *Bot) onText(c tele.Context) error {
	userID := c.Sender().ID
	text := c.Text()

	if b.isOperator(userID) {
		if sess := b.sessions.Get(userID); sess != nil {
			b.runWizardStep(userID, sess, text)
			return nil
		}
	}

	if b.svc.Registry.TakeCapture(userID) {
		return b.forwardToOperators(c.Sender(), text)
	}

	u, found, err := b.svc.Registry.Get(b.ctx, userID)
	if err != nil {
		return errm.Wrap(err, "get user")
	}

	if found && u.Awaiting != nil {
		return b.handleIntake(u, text, false)
	}

	if b.isOperator(userID) {
		return nil
	}

	if _, err := b.base.Send(userID, msgNoFreeText); err != nil {
		return err
	}
	set, err := b.svc.Settings.Get(b.ctx)
	if err != nil {
		return errm.Wrap(err, "get settings")
	}
	return b.sendMainMenu(userID, set.Greeting)
}

// onPhoto handles photo submissions for order intake and the contact flow.
// telebot keeps only the highest-resolution variant in Message.Photo.
func (b *Bot) onPhoto(c tele.Context) error {
	userID := c.Sender().ID
	photo := c.Message().Photo
	if photo == nil {
		return nil
	}

	if b.svc.Registry.TakeCapture(userID) {
		return b.forwardPhotoToOperators(c.Sender(), photo.FileID)
	}

	u, found, err := b.svc.Registry.Get(b.ctx, userID)
	if err != nil {
		return errm.Wrap(err, "get user")
	}
	if !found || u.Awaiting == nil {
		return nil
	}

	return b.handleIntake(u, domain.PhotoTag+photo.FileID, true)
}

func (b *Bot) handleIntake(u domain.User, info string, isPhoto bool) error {
	res, err := b.svc.Intake.Submit(b.ctx, u, info, isPhoto)
	if err != nil {
		return errm.Wrap(err, "intake")
	}

	switch res.Outcome {
	case orders.OutcomeLinkRejected:
		if _, err := b.base.Send(u.ID, msgLinksForbidden); err != nil {
			return err
		}
		_, err := b.base.Send(u.ID, msgResendInfo, homeMarkup())
		return err

	case orders.OutcomeMarkerInvalid:
		if _, err := b.base.Send(u.ID, msgActionGone); err != nil {
			return err
		}
		set, err := b.svc.Settings.Get(b.ctx)
		if err != nil {
			return errm.Wrap(err, "get settings")
		}
		return b.sendMainMenu(u.ID, set.Greeting)

	case orders.OutcomeCreated:
		if _, err := b.base.Send(u.ID, msgOrderReceived); err != nil {
			b.log.Warn("order ack failed", "user_id", u.ID, "error", err)
		}
		b.notifier.Operators(b.ctx, newOrderSummary(res.Order))
		return nil
	}

	return nil
}

func (b *Bot) forwardToOperators(from *tele.User, text string) error {
	b.notifier.Operators(b.ctx, contactForwardMsg(senderName(from), from.ID, text))
	_, err := b.base.Send(from.ID, msgContactSent)
	return err
}

func (b *Bot) forwardPhotoToOperators(from *tele.User, fileID string) error {
	photo := &tele.Photo{
		File:    tele.File{FileID: fileID},
		Caption: contactForwardMsg(senderName(from), from.ID, "photo attached"),
	}
	b.notifier.Operators(b.ctx, photo)
	_, err := b.base.Send(from.ID, msgContactSent)
	return err
}

// onCallback decodes the raw callback payload once and dispatches.
func (b *Bot) onCallback(c tele.Context) error {
	userID := c.Sender().ID
	data := strings.TrimPrefix(c.Callback().Data, "\f")

	action, ok := parseAction(data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: msgUnknownCallback})
	}

	var err error
	switch action.Kind {
	case ActionNav:
		err = b.navHome(userID, c.Message())

	case ActionButton:
		err = b.openItem(c, action.Target)

	case ActionContact:
		if action.Target != "send" {
			return c.Respond(&tele.CallbackResponse{Text: msgUnknownCallback})
		}
		b.svc.Registry.SetCapture(userID)
		_, err = b.base.Send(userID, msgContactPrompt)

	case ActionAdmin:
		if !b.isOperator(userID) {
			return c.Respond(&tele.CallbackResponse{Text: msgOperatorsOnly})
		}
		err = b.adminAction(userID, action.Target)

	case ActionOrder:
		if !b.isOperator(userID) {
			return c.Respond(&tele.CallbackResponse{Text: msgOperatorsOnly})
		}
		err = b.orderAction(userID, action.Target, action.Verb)
	}
	if err != nil {
		// answer the query anyway so the client stops the spinner
		_ = c.Respond(&tele.CallbackResponse{})
		return err
	}

	return c.Respond(&tele.CallbackResponse{})
}

// navHome edits the tapped message back into the main menu, falling back
// to a fresh send when the edit is not possible.
func (b *Bot) navHome(userID int64, msg *tele.Message) error {
	set, err := b.svc.Settings.Get(b.ctx)
	if err != nil {
		return errm.Wrap(err, "get settings")
	}
	items, err := b.svc.Catalog.Items(b.ctx)
	if err != nil {
		return errm.Wrap(err, "get catalog")
	}

	if msg != nil {
		if err := b.base.Edit(userID, msg.ID, set.Greeting, menuMarkup(items)); err == nil {
			return nil
		}
	}
	_, err = b.base.Send(userID, set.Greeting, menuMarkup(items))
	return err
}

// openItem resolves a catalog item and acts on its kind.
func (b *Bot) openItem(c tele.Context, key string) error {
	userID := c.Sender().ID

	item, err := b.svc.Catalog.Resolve(b.ctx, key)
	if err != nil {
		if errm.Is(err, catalog.ErrItemNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: msgUnknownButton})
		}
		return errm.Wrap(err, "resolve item")
	}

	switch item.Kind {
	case domain.KindSubmenu:
		text := F(item.Label, Bold) + "\n" + msgChooseFromMenu
		markup := submenuMarkup(item.Items)
		if msg := c.Message(); msg != nil {
			if err := b.base.Edit(userID, msg.ID, text, markup); err == nil {
				return nil
			}
		}
		_, err := b.base.Send(userID, text, markup)
		return err

	case domain.KindContactAdmin:
		markup := NewKeyboard().
			AddRow(dataBtn(msgContactBtn, encodeAction(ActionContact, "send"))).
			AddFooter(homeBtn()).
			CreateInlineMarkup()
		_, err := b.base.Send(userID, msgChooseContact, markup)
		return err

	case domain.KindContent:
		return b.sendContent(userID, item)

	case domain.KindRequestInfo:
		if _, err := b.svc.Registry.Ensure(b.ctx, userID, senderName(c.Sender())); err != nil {
			return errm.Wrap(err, "ensure user")
		}
		aw := domain.Awaiting{
			ButtonID:   item.ID,
			ButtonText: item.Label,
			Prompt:     lang.Check(item.Prompt, msgDefaultPrompt),
		}
		if err := b.svc.Registry.Arm(b.ctx, userID, aw); err != nil {
			return errm.Wrap(err, "arm")
		}
		_, err := b.base.Send(userID, aw.Prompt, homeMarkup())
		return err
	}

	return nil
}

// sendContent delivers a content block, with the image dropped when
// photo delivery fails.
func (b *Bot) sendContent(userID int64, item domain.MenuItem) error {
	if item.Image != "" {
		photo := &tele.Photo{
			File:    tele.FromURL(item.Image),
			Caption: item.Body,
		}
		if _, err := b.base.Send(userID, photo, homeMarkup()); err == nil {
			return nil
		}
		b.log.Warn("photo delivery failed, sending text only", "user_id", userID, "item", item.ID)
	}
	_, err := b.base.Send(userID, item.Body, homeMarkup())
	return err
}
