package bot

import (
	"strings"

	"github.com/maxbolgarin/lang"

	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/orders"
)

const (
	msgPaused     = "🚫 The bot is paused right now. Contact an operator if you need help."
	msgNoFreeText = "⚠️ You can't message the bot directly. Use the menu buttons. To reach an operator tap 'Contact support'."

	msgOrderReceived  = "✅ Your order is under review, we will let you know the result as soon as possible ✅"
	msgLinksForbidden = "🚫 Links are not allowed. Use text, photos or numbers only."
	msgResendInfo     = "🔁 Please send the requested info again, or tap 🏠 to go back."
	msgActionGone     = "⚠️ That service is no longer available. Please pick another one from the menu."
	msgDefaultPrompt  = "Send the requested info:"

	msgChooseContact  = "Choose how to contact the operators:"
	msgContactBtn     = "✉️ Message the operators"
	msgContactPrompt  = "✉️ Send your message to the operators now (text or photo):"
	msgContactSent    = "✅ Your message has been sent to the operators."
	msgChooseFromMenu = "Choose from the menu:"

	msgNotOperator     = "🚫 You don't have access to this panel."
	msgOperatorsOnly   = "Operators only."
	msgUnknownButton   = "This button is gone now."
	msgUnknownCallback = "Something went wrong or the button is unknown."

	msgGeneralError = "Something went wrong. Please try again."
)

func userApprovedMsg(orderID string) string {
	return "✅ Your order (OrderID: " + orderID + ") has been approved. It will be completed shortly, thank you!"
}

func userRejectedMsg(orderID string) string {
	return "❌ Your order (OrderID: " + orderID + ") has been rejected. Contact an operator if you need help."
}

func userAskMoreMsg(text string) string {
	return "✏️ From the operators: " + text + "\n\nPlease reply to this message with the requested info."
}

func contactForwardMsg(name string, id int64, text string) string {
	b := NewBuilder()
	b.Writef("📩 Message from %s (ID: %d):\n\n%s", name, id, text)
	return b.String()
}

// newOrderSummary is the operator notification for a fresh order.
func newOrderSummary(o domain.Order) string {
	info := o.Info
	if strings.HasPrefix(info, domain.PhotoTag) {
		info = "photo"
	}

	b := NewBuilder()
	b.Writeln(F("📥 New order", Bold))
	b.Writeln("")
	b.Writef("👤 %s (ID: %d)\n", o.UserName, o.UserID)
	b.Writef("📦 Service: %s\n", o.ButtonText)
	b.Writef("🆔 OrderID: %s\n", F(o.ID, Code))
	b.Writef("📝 Info: %s", info)
	return b.String()
}

// orderDetails is the operator view of a single order.
func orderDetails(o domain.Order) string {
	b := NewBuilder()
	b.Writef("📦 OrderID: %s\n", F(o.ID, Code))
	b.Writef("👤 User: %s (%d)\n", o.UserName, o.UserID)
	b.Writef("📌 Service: %s\n", o.ButtonText)
	b.Writef("📝 Info: %s\n", o.Info)
	b.Writeln("")
	b.Writef("Status: %s", F(string(o.Status), Bold))
	return b.String()
}

func statsMsg(userCount int, st orders.Stats) string {
	b := NewBuilder()
	b.Writeln(F("📊 Stats", Bold))
	b.Writeln("")
	b.Writef("👥 Users: %d\n", userCount)
	b.Writef("📦 Orders: %d\n", st.Orders)
	b.Writef("⭐ Top service: %s", lang.Check(st.TopAction, "none yet"))
	return b.String()
}
