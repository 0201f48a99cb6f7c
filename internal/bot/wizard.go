package bot

import (
	"strconv"
	"strings"
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"

	"github.com/ordobot/ordo/internal/catalog"
	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/orders"
	"github.com/ordobot/ordo/internal/users"
)

// wizardStep enumerates every multi-step operator flow. Each session
// holds only the fields its steps produce.
type wizardStep int

const (
	stepAskMoreText wizardStep = iota

	stepAddLabel
	stepAddID
	stepAddKind
	stepAddSubmenuLine
	stepAddSubmenuPrompt
	stepAddRequestPrompt
	stepAddContentBody
	stepAddContentImage

	stepDeleteKey

	stepBroadcastText
	stepBroadcastConfirm

	stepAdminAddID
	stepAdminRemoveID

	stepScheduleText
	stepScheduleAt
)

// wizardSession is the per-operator state of one flow. Starting a new
// wizard replaces any session wholesale.
type wizardSession struct {
	step wizardStep

	// add-button accumulator
	item       domain.MenuItem
	pendingSub *domain.MenuItem

	broadcastText string
	scheduleText  string
	orderID       string
}

func (b *Bot) startWizard(operatorID int64, sess *wizardSession) {
	b.sessions.Set(operatorID, sess)
}

func (b *Bot) endWizard(operatorID int64) {
	b.sessions.Delete(operatorID)
}

// runWizardStep feeds one operator message into the active session.
// A panic or error inside a step cancels the session and reports
// generically, never crossing the dispatch boundary.
func (b *Bot) runWizardStep(operatorID int64, sess *wizardSession, text string) {
	err := func() (err error) {
		defer lang.RecoverWithErrAndStack(b.log, &err)
		return b.wizardStep(operatorID, sess, text)
	}()
	if err != nil {
		b.log.Error("wizard step failed", "user_id", operatorID, "step", sess.step, "error", err)
		b.endWizard(operatorID)
		_, _ = b.base.Send(operatorID, "Something went wrong, the operation was canceled.")
	}
}

func (b *Bot) wizardStep(operatorID int64, sess *wizardSession, text string) error {
	switch sess.step {
	case stepAskMoreText:
		return b.stepAskMore(operatorID, sess, text)

	case stepAddLabel:
		sess.item.Label = strings.TrimSpace(text)
		sess.step = stepAddID
		return b.say(operatorID, "Send the button ID: latin letters, no spaces (e.g. new_service):")

	case stepAddID:
		sess.item.ID = strings.TrimSpace(text)
		sess.step = stepAddKind
		return b.say(operatorID, "What kind of button is it? Send one word:\n1) submenu\n2) request_info\n3) content\n4) contact_admin")

	case stepAddKind:
		return b.stepAddKind(operatorID, sess, text)

	case stepAddSubmenuLine:
		return b.stepSubmenuLine(operatorID, sess, text)

	case stepAddSubmenuPrompt:
		if sess.pendingSub == nil {
			b.endWizard(operatorID)
			return b.say(operatorID, "Internal error: no pending entry.")
		}
		sess.pendingSub.Prompt = text
		sess.item.Items = append(sess.item.Items, *sess.pendingSub)
		sess.pendingSub = nil
		sess.step = stepAddSubmenuLine
		return b.say(operatorID, "Entry saved. Send another or 'done' to finish.")

	case stepAddRequestPrompt:
		sess.item.Prompt = text
		if err := b.svc.Catalog.Append(b.ctx, sess.item); err != nil {
			return errm.Wrap(err, "append item")
		}
		b.endWizard(operatorID)
		return b.say(operatorID, "✅ Button (request_info) added.")

	case stepAddContentBody:
		sess.item.Body = text
		sess.step = stepAddContentImage
		return b.say(operatorID, "Send an image URL, or 'no' to skip:")

	case stepAddContentImage:
		img := strings.TrimSpace(text)
		if !strings.EqualFold(img, "no") {
			sess.item.Image = img
		}
		if err := b.svc.Catalog.Append(b.ctx, sess.item); err != nil {
			return errm.Wrap(err, "append item")
		}
		b.endWizard(operatorID)
		return b.say(operatorID, "✅ Content button added.")

	case stepDeleteKey:
		return b.stepDelete(operatorID, text)

	case stepBroadcastText:
		sess.broadcastText = text
		sess.step = stepBroadcastConfirm
		if err := b.say(operatorID, "🔁 Broadcast preview:\n\n"+text); err != nil {
			return err
		}
		return b.say(operatorID, "Send it to all users now? Type 'yes' to send or 'no' to cancel.")

	case stepBroadcastConfirm:
		b.endWizard(operatorID)
		if !strings.EqualFold(strings.TrimSpace(text), "yes") {
			return b.say(operatorID, "Broadcast canceled.")
		}
		ds := b.BroadcastAll(b.ctx, sess.broadcastText)
		return b.say(operatorID, "✅ Sent to "+strconv.Itoa(SentCount(ds))+" users.")

	case stepAdminAddID:
		b.endWizard(operatorID)
		id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return b.say(operatorID, "The ID must be a number, the operation was canceled.")
		}
		var grantedBy string
		if op, ok, err := b.svc.Registry.Get(b.ctx, operatorID); err == nil && ok {
			grantedBy = op.Name
		}
		if err := b.svc.Admins.Add(b.ctx, id, grantedBy); err != nil {
			return errm.Wrap(err, "add admin")
		}
		return b.say(operatorID, "✅ Admin "+strconv.FormatInt(id, 10)+" added.")

	case stepAdminRemoveID:
		b.endWizard(operatorID)
		id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return b.say(operatorID, "The ID must be a number, the operation was canceled.")
		}
		err = b.svc.Admins.Remove(b.ctx, id)
		if errm.Is(err, users.ErrAdminNotFound) {
			return b.say(operatorID, "Couldn't find that admin.")
		}
		if err != nil {
			return errm.Wrap(err, "remove admin")
		}
		return b.say(operatorID, "✅ Admin "+strconv.FormatInt(id, 10)+" removed.")

	case stepScheduleText:
		sess.scheduleText = text
		sess.step = stepScheduleAt
		return b.say(operatorID, "Send the date and time as YYYY-MM-DD HH:MM (e.g. 2025-08-10 15:30):")

	case stepScheduleAt:
		b.endWizard(operatorID)
		at, err := time.ParseInLocation(domain.ScheduleTimeLayout, strings.TrimSpace(text), time.Local)
		if err != nil {
			return b.say(operatorID, "Invalid date format, the operation was canceled.")
		}
		if _, err := b.svc.Scheduler.Add(b.ctx, sess.scheduleText, at); err != nil {
			return b.say(operatorID, "Couldn't schedule that: "+err.Error())
		}
		return b.say(operatorID, "✅ The message has been scheduled.")
	}

	b.endWizard(operatorID)
	return b.say(operatorID, "Unknown step, the operation was canceled.")
}

func (b *Bot) stepAskMore(operatorID int64, sess *wizardSession, text string) error {
	b.endWizard(operatorID)

	o, err := b.svc.Orders.Get(b.ctx, sess.orderID)
	if err != nil {
		if errm.Is(err, orders.ErrOrderNotFound) {
			return b.say(operatorID, "❌ Order not found.")
		}
		return errm.Wrap(err, "get order")
	}

	if _, err := b.base.Send(o.UserID, userAskMoreMsg(text)); err != nil {
		b.log.Warn("follow-up delivery failed", "user_id", o.UserID, "order_id", o.ID, "error", err)
	}
	return b.say(operatorID, "The follow-up was sent to the user.")
}

func (b *Bot) stepAddKind(operatorID int64, sess *wizardSession, text string) error {
	kind := domain.ItemKind(strings.TrimSpace(text))
	sess.item.Kind = kind

	switch kind {
	case domain.KindSubmenu:
		sess.item.Items = make([]domain.MenuItem, 0)
		sess.step = stepAddSubmenuLine
		return b.say(operatorID, "Now add submenu entries. Send each as 'id|label|kind', e.g.:\npkg1|Daily pack|request_info\nSend 'done' when you are finished.")

	case domain.KindRequestInfo:
		sess.step = stepAddRequestPrompt
		return b.say(operatorID, "Send the prompt the user will see (e.g. send your ID and the amount):")

	case domain.KindContent:
		sess.step = stepAddContentBody
		return b.say(operatorID, "Send the content text (HTML allowed):")

	case domain.KindContactAdmin:
		sess.item.Items = nil
		if err := b.svc.Catalog.Append(b.ctx, sess.item); err != nil {
			return errm.Wrap(err, "append item")
		}
		b.endWizard(operatorID)
		return b.say(operatorID, "✅ Contact button added.")
	}

	b.endWizard(operatorID)
	return b.say(operatorID, "Unknown kind, the operation was canceled.")
}

// stepSubmenuLine parses one 'id|label|kind' line. A malformed line
// re-prompts the same step instead of aborting the whole wizard.
func (b *Bot) stepSubmenuLine(operatorID int64, sess *wizardSession, text string) error {
	if strings.EqualFold(strings.TrimSpace(text), "done") {
		if err := b.svc.Catalog.Append(b.ctx, sess.item); err != nil {
			return errm.Wrap(err, "append item")
		}
		b.endWizard(operatorID)
		return b.say(operatorID, "✅ Submenu button added.")
	}

	parts := strings.Split(text, "|")
	if len(parts) < 3 {
		return b.say(operatorID, "Wrong format. Send as: id|label|kind")
	}

	sub := domain.MenuItem{
		ID:    strings.TrimSpace(parts[0]),
		Label: strings.TrimSpace(parts[1]),
		Kind:  domain.ItemKind(strings.TrimSpace(parts[2])),
	}

	if sub.Kind == domain.KindRequestInfo {
		sess.pendingSub = &sub
		sess.step = stepAddSubmenuPrompt
		return b.say(operatorID, "Send the prompt the user will see for "+sub.Label+":")
	}

	sess.item.Items = append(sess.item.Items, sub)
	return b.say(operatorID, "Added "+sub.Label+". Send the next entry or 'done' to finish.")
}

func (b *Bot) stepDelete(operatorID int64, text string) error {
	b.endWizard(operatorID)

	key := strings.TrimSpace(text)
	removed, err := b.svc.Catalog.RemoveTopLevel(b.ctx, key)
	if err != nil {
		if errm.Is(err, catalog.ErrItemNotFound) {
			return b.say(operatorID, "Couldn't find that ID, check it and try again.")
		}
		return errm.Wrap(err, "remove item")
	}

	// Users armed for the deleted action would submit into the void.
	if err := b.svc.Registry.InvalidateAwaiting(b.ctx, removed.ID); err != nil {
		b.log.Error("invalidate awaiting markers", "button_id", removed.ID, "error", err)
	}

	return b.say(operatorID, "✅ Button "+key+" deleted.")
}

func (b *Bot) say(operatorID int64, text string) error {
	_, err := b.base.Send(operatorID, text)
	return err
}
