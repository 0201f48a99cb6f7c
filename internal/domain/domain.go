// Package domain contains the data model shared by all services.
package domain

import "time"

// ScheduleTimeLayout is the layout operators use for scheduled broadcasts.
const ScheduleTimeLayout = "2006-01-02 15:04"

// PhotoTag prefixes a Telegram file ID inside stored order info
// when the user submitted a photo instead of text.
const PhotoTag = "[PHOTO]"

// ItemKind is the behavior of a menu item when a user taps it.
type ItemKind string

const (
	// KindSubmenu opens a nested menu.
	KindSubmenu ItemKind = "submenu"
	// KindRequestInfo prompts the user for free-form input and arms
	// the awaiting marker.
	KindRequestInfo ItemKind = "request_info"
	// KindContent shows a static text block, optionally with an image.
	KindContent ItemKind = "content"
	// KindContactAdmin forwards the next user message to operators.
	KindContactAdmin ItemKind = "contact_admin"
)

// MenuItem is a node of the catalog tree.
type MenuItem struct {
	ID     string     `json:"id" bson:"id"`
	Label  string     `json:"text" bson:"text"`
	Kind   ItemKind   `json:"type" bson:"type"`
	Items  []MenuItem `json:"submenu,omitempty" bson:"submenu,omitempty"`
	Prompt string     `json:"info_request,omitempty" bson:"info_request,omitempty"`
	Body   string     `json:"content,omitempty" bson:"content,omitempty"`
	Image  string     `json:"image,omitempty" bson:"image,omitempty"`
}

// Catalog is the full menu tree.
type Catalog struct {
	Items []MenuItem `json:"items" bson:"items"`
}

// Settings are runtime-toggleable bot settings.
type Settings struct {
	// Enabled pauses the bot for regular users when false.
	Enabled bool `json:"enabled" bson:"enabled"`
	// Greeting is the text of the main menu message.
	Greeting string `json:"greeting" bson:"greeting"`
}

// Awaiting marks that the next free-form message from a user is
// order content for the given catalog action.
type Awaiting struct {
	ButtonID   string `json:"button_id" bson:"button_id"`
	ButtonText string `json:"button_text" bson:"button_text"`
	Prompt     string `json:"prompt" bson:"prompt"`
}

// User is a bot user record.
type User struct {
	ID        int64     `json:"user_id" bson:"user_id"`
	Name      string    `json:"user_name" bson:"user_name"`
	FirstSeen time.Time `json:"first_seen" bson:"first_seen"`
	Awaiting  *Awaiting `json:"awaiting,omitempty" bson:"awaiting,omitempty"`
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusApproved  OrderStatus = "approved"
	StatusRejected  OrderStatus = "rejected"
	StatusNeedsMore OrderStatus = "needs_more"
)

// IsTerminal reports whether the status allows no further decisions.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Order is a user's submitted request for a catalog action.
type Order struct {
	ID         string      `json:"order_id" bson:"order_id"`
	UserID     int64       `json:"user_id" bson:"user_id"`
	UserName   string      `json:"user_name" bson:"user_name"`
	ButtonID   string      `json:"button_id" bson:"button_id"`
	ButtonText string      `json:"button_text" bson:"button_text"`
	Info       string      `json:"info" bson:"info"`
	Status     OrderStatus `json:"status" bson:"status"`
	CreatedAt  time.Time   `json:"created_at" bson:"created_at"`
	HandledAt  *time.Time  `json:"handled_at,omitempty" bson:"handled_at,omitempty"`
	Notes      string      `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Admin is a runtime-managed operator record. Name is the display name
// of the operator who granted the rights.
type Admin struct {
	ID      int64     `json:"user_id" bson:"user_id"`
	Name    string    `json:"name" bson:"name"`
	Perms   []string  `json:"perms" bson:"perms"`
	AddedAt time.Time `json:"added_at" bson:"added_at"`
}

// Schedule is a one-shot scheduled broadcast.
type Schedule struct {
	ID      string     `json:"id" bson:"id"`
	Text    string     `json:"text" bson:"text"`
	At      time.Time  `json:"at" bson:"at"`
	FiredAt *time.Time `json:"fired_at,omitempty" bson:"fired_at,omitempty"`
}

// Fired reports whether the entry has already been dispatched.
func (s Schedule) Fired() bool {
	return s.FiredAt != nil
}
