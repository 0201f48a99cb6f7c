package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Action
		ok   bool
	}{
		{name: "nav home", data: "NAV|home", want: Action{Kind: ActionNav, Target: "home"}, ok: true},
		{name: "nav back", data: "NAV|back", want: Action{Kind: ActionNav, Target: "back"}, ok: true},
		{name: "button", data: "BTN|pubg", want: Action{Kind: ActionButton, Target: "pubg"}, ok: true},
		{name: "admin", data: "ADMIN|broadcast", want: Action{Kind: ActionAdmin, Target: "broadcast"}, ok: true},
		{name: "contact", data: "CONTACT|send", want: Action{Kind: ActionContact, Target: "send"}, ok: true},
		{name: "order view", data: "ORDER|a1b2c3d4|view", want: Action{Kind: ActionOrder, Target: "a1b2c3d4", Verb: "view"}, ok: true},
		{name: "order approve", data: "ORDER|a1b2c3d4|approve", want: Action{Kind: ActionOrder, Target: "a1b2c3d4", Verb: "approve"}, ok: true},
		{name: "order without verb", data: "ORDER|a1b2c3d4", ok: false},
		{name: "unknown kind", data: "FOO|bar", ok: false},
		{name: "no separator", data: "garbage", ok: false},
		{name: "empty", data: "", ok: false},
		{name: "surrounding whitespace", data: "  NAV|home  ", want: Action{Kind: ActionNav, Target: "home"}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseAction(tt.data)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEncodeAction(t *testing.T) {
	assert.Equal(t, "NAV|home", encodeAction(ActionNav, "home"))
	assert.Equal(t, "ORDER|a1b2c3d4|view", encodeAction(ActionOrder, "a1b2c3d4", "view"))

	// encoded actions must parse back
	a, ok := parseAction(encodeAction(ActionOrder, "xyz", "reject"))
	assert.True(t, ok)
	assert.Equal(t, Action{Kind: ActionOrder, Target: "xyz", Verb: "reject"}, a)
}
