package bot

import (
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	tele "gopkg.in/telebot.v4"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/orders"
)

const recentOrdersLimit = 20

// onAdmin opens the operator panel.
func (b *Bot) onAdmin(c tele.Context) error {
	userID := c.Sender().ID
	if !b.isOperator(userID) {
		_, err := b.base.Send(userID, msgNotOperator)
		return err
	}

	_, err := b.base.Send(userID, "Operator panel — pick an option:", adminPanelMarkup())
	return err
}

func adminPanelMarkup() *tele.ReplyMarkup {
	return NewKeyboard().
		AddRow(dataBtn("🧭 Manage buttons", encodeAction(ActionAdmin, "manage_buttons"))).
		AddRow(dataBtn("📦 Orders", encodeAction(ActionAdmin, "manage_orders"))).
		AddRow(dataBtn("📢 Broadcast", encodeAction(ActionAdmin, "broadcast"))).
		AddRow(dataBtn("👥 Manage admins", encodeAction(ActionAdmin, "manage_admins"))).
		AddRow(dataBtn("📊 Stats", encodeAction(ActionAdmin, "stats"))).
		AddRow(dataBtn("⏯ Toggle bot on/off", encodeAction(ActionAdmin, "toggle_bot"))).
		AddRow(dataBtn("⏱ Schedule a message", encodeAction(ActionAdmin, "schedule"))).
		CreateInlineMarkup()
}

// adminAction runs one panel action for an already-authorized operator.
func (b *Bot) adminAction(operatorID int64, action string) error {
	switch action {
	case "manage_buttons":
		markup := NewKeyboard().
			AddRow(dataBtn("➕ Add button", encodeAction(ActionAdmin, "add_button"))).
			AddRow(dataBtn("🗑 Delete button", encodeAction(ActionAdmin, "del_button"))).
			AddRow(dataBtn("🔁 Show current menu", encodeAction(ActionAdmin, "show_buttons"))).
			AddFooter(homeBtn()).
			CreateInlineMarkup()
		_, err := b.base.Send(operatorID, "Button management:", markup)
		return err

	case "manage_orders":
		return b.sendOrderList(operatorID)

	case "broadcast":
		b.startWizard(operatorID, &wizardSession{step: stepBroadcastText})
		_, err := b.base.Send(operatorID, "✏️ Send the broadcast text (HTML allowed):")
		return err

	case "manage_admins":
		markup := NewKeyboard().
			AddRow(dataBtn("➕ Add admin", encodeAction(ActionAdmin, "add_admin"))).
			AddRow(dataBtn("🗑 Remove admin", encodeAction(ActionAdmin, "del_admin"))).
			AddFooter(homeBtn()).
			CreateInlineMarkup()
		_, err := b.base.Send(operatorID, "Admin management:", markup)
		return err

	case "stats":
		userCount, err := b.svc.Registry.Count(b.ctx)
		if err != nil {
			return errm.Wrap(err, "count users")
		}
		st, err := b.svc.Orders.Stats(b.ctx)
		if err != nil {
			return errm.Wrap(err, "order stats")
		}
		_, err = b.base.Send(operatorID, statsMsg(userCount, st))
		return err

	case "toggle_bot":
		enabled, err := b.svc.Settings.Toggle(b.ctx)
		if err != nil {
			return errm.Wrap(err, "toggle")
		}
		_, err = b.base.Send(operatorID, "🔁 Bot is now: "+lang.If(enabled, "on", "off"))
		return err

	case "schedule":
		b.startWizard(operatorID, &wizardSession{step: stepScheduleText})
		_, err := b.base.Send(operatorID, "✏️ Send the text you want to schedule:")
		return err

	case "add_button":
		b.startWizard(operatorID, &wizardSession{step: stepAddLabel})
		_, err := b.base.Send(operatorID, "🔰 Send the button label (the text users will see):")
		return err

	case "del_button":
		b.startWizard(operatorID, &wizardSession{step: stepDeleteKey})
		_, err := b.base.Send(operatorID, "🗑 Send the ID or label of the top-level button to delete:")
		return err

	case "show_buttons":
		tree, err := b.svc.Catalog.Tree(b.ctx)
		if err != nil {
			return errm.Wrap(err, "catalog tree")
		}
		_, err = b.base.Send(operatorID, F("Current menu:", Bold)+"\n"+tree)
		return err

	case "add_admin":
		b.startWizard(operatorID, &wizardSession{step: stepAdminAddID})
		_, err := b.base.Send(operatorID, "➕ Send the new admin's Telegram ID (a number):")
		return err

	case "del_admin":
		b.startWizard(operatorID, &wizardSession{step: stepAdminRemoveID})
		_, err := b.base.Send(operatorID, "🗑 Send the Telegram ID of the admin to remove:")
		return err
	}

	_, err := b.base.Send(operatorID, msgUnknownCallback)
	return err
}

func (b *Bot) sendOrderList(operatorID int64) error {
	recent, err := b.svc.Orders.Recent(b.ctx, recentOrdersLimit)
	if err != nil {
		return errm.Wrap(err, "recent orders")
	}
	if len(recent) == 0 {
		_, err := b.base.Send(operatorID, "No orders yet.")
		return err
	}

	k := NewKeyboard()
	for _, o := range recent {
		k.AddRow(dataBtn(o.ButtonText+" - "+o.UserName, encodeAction(ActionOrder, o.ID, "view")))
	}
	_, err = b.base.Send(operatorID, "Orders (newest first):", k.CreateInlineMarkup())
	return err
}

// orderAction applies an operator verb to one order.
func (b *Bot) orderAction(operatorID int64, orderID, verb string) error {
	switch verb {
	case "view":
		o, err := b.svc.Orders.Get(b.ctx, orderID)
		if err != nil {
			if errm.Is(err, orders.ErrOrderNotFound) {
				_, err := b.base.Send(operatorID, "❌ Order not found.")
				return err
			}
			return errm.Wrap(err, "get order")
		}

		markup := NewKeyboard().
			AddRow(dataBtn("✅ Approve", encodeAction(ActionOrder, orderID, "approve"))).
			AddRow(dataBtn("❌ Reject", encodeAction(ActionOrder, orderID, "reject"))).
			AddRow(dataBtn("✏️ Ask for more", encodeAction(ActionOrder, orderID, "askmore"))).
			CreateInlineMarkup()
		_, err = b.base.Send(operatorID, orderDetails(o), markup)
		return err

	case "approve":
		return b.decideOrder(operatorID, orderID, domain.StatusApproved)

	case "reject":
		return b.decideOrder(operatorID, orderID, domain.StatusRejected)

	case "askmore":
		_, err := b.svc.Orders.Decide(b.ctx, orderID, domain.StatusNeedsMore, "")
		if err != nil {
			return b.reportDecisionError(operatorID, err)
		}
		b.startWizard(operatorID, &wizardSession{step: stepAskMoreText, orderID: orderID})
		_, err = b.base.Send(operatorID, "✏️ Send the follow-up question that will reach the user:")
		return err
	}

	_, err := b.base.Send(operatorID, msgUnknownCallback)
	return err
}

func (b *Bot) decideOrder(operatorID int64, orderID string, status domain.OrderStatus) error {
	o, err := b.svc.Orders.Decide(b.ctx, orderID, status, "")
	if err != nil {
		return b.reportDecisionError(operatorID, err)
	}

	// The user notice is best effort: a blocked bot must not fail the decision.
	userMsg := lang.If(status == domain.StatusApproved, userApprovedMsg(orderID), userRejectedMsg(orderID))
	if _, err := b.base.Send(o.UserID, userMsg); err != nil {
		b.log.Warn("decision notice failed", "user_id", o.UserID, "order_id", orderID, "error", err)
	}

	opMsg := lang.If(status == domain.StatusApproved, "Approved and the user was notified.", "Rejected and the user was notified.")
	_, err = b.base.Send(operatorID, opMsg)
	return err
}

// reportDecisionError translates decision failures into operator notices.
// A terminal order is never re-decided and the user is not re-notified.
func (b *Bot) reportDecisionError(operatorID int64, err error) error {
	switch {
	case errm.Is(err, orders.ErrAlreadyDecided):
		_, err := b.base.Send(operatorID, "⚠️ This order was already decided.")
		return err
	case errm.Is(err, orders.ErrOrderNotFound):
		_, err := b.base.Send(operatorID, "❌ Order not found.")
		return err
	}
	return errm.Wrap(err, "decide order")
}
