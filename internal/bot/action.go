package bot

import "strings"

// ActionKind discriminates inbound callback actions.
type ActionKind string

const (
	// ActionNav navigates the menu: home or back.
	ActionNav ActionKind = "NAV"
	// ActionButton opens a catalog item by ID.
	ActionButton ActionKind = "BTN"
	// ActionAdmin runs an operator panel action.
	ActionAdmin ActionKind = "ADMIN"
	// ActionContact starts the contact-operator flow.
	ActionContact ActionKind = "CONTACT"
	// ActionOrder applies a verb to an order: view, approve, reject, askmore.
	ActionOrder ActionKind = "ORDER"
)

// Action is a decoded callback payload. Data stays in its raw
// pipe-separated wire form; decoding happens exactly once here.
type Action struct {
	Kind ActionKind
	// Target is the nav destination, catalog item ID, admin action
	// or order ID, depending on Kind.
	Target string
	// Verb is the order action for ActionOrder.
	Verb string
}

// parseAction decodes raw callback data. It returns false for payloads
// the bot does not recognize.
func parseAction(data string) (Action, bool) {
	parts := strings.Split(strings.TrimSpace(data), "|")
	if len(parts) < 2 {
		return Action{}, false
	}

	a := Action{Kind: ActionKind(parts[0]), Target: parts[1]}
	switch a.Kind {
	case ActionNav, ActionButton, ActionAdmin, ActionContact:
		return a, true
	case ActionOrder:
		if len(parts) < 3 {
			return Action{}, false
		}
		a.Verb = parts[2]
		return a, true
	}

	return Action{}, false
}

// encodeAction builds the wire form of an action for callback buttons.
func encodeAction(kind ActionKind, parts ...string) string {
	return string(kind) + "|" + strings.Join(parts, "|")
}
