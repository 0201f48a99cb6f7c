package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordobot/ordo/internal/catalog"
	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/users"
)

// feedWizard plays operator messages into the active session, the way
// onText dispatches them.
func feedWizard(b *Bot, operatorID int64, texts ...string) {
	for _, text := range texts {
		sess := b.sessions.Get(operatorID)
		if sess == nil {
			return
		}
		b.runWizardStep(operatorID, sess, text)
	}
}

func TestWizard_AddSubmenuButton(t *testing.T) {
	b, fs := newTestBot(t, 1)
	ctx := context.Background()

	require.NoError(t, b.adminAction(1, "add_button"))
	feedWizard(b, 1, "My Games", "games2", "submenu", "a|Item A|content", "done")

	assert.Nil(t, b.sessions.Get(1))
	assert.Equal(t, "✅ Submenu button added.", fs.lastTextTo(t, 1))

	item, err := b.svc.Catalog.Resolve(ctx, "games2")
	require.NoError(t, err)
	assert.Equal(t, "My Games", item.Label)
	assert.Equal(t, domain.KindSubmenu, item.Kind)
	require.Len(t, item.Items, 1)
	assert.Equal(t, "a", item.Items[0].ID)
	assert.Equal(t, domain.KindContent, item.Items[0].Kind)
}

func TestWizard_SubmenuRequestInfoEntryGetsPrompt(t *testing.T) {
	b, _ := newTestBot(t, 1)
	ctx := context.Background()

	require.NoError(t, b.adminAction(1, "add_button"))
	feedWizard(b, 1, "Packs", "packs", "submenu", "p|Daily pack|request_info", "Send your game ID:", "done")

	item, err := b.svc.Catalog.Resolve(ctx, "packs")
	require.NoError(t, err)
	require.Len(t, item.Items, 1)
	assert.Equal(t, domain.KindRequestInfo, item.Items[0].Kind)
	assert.Equal(t, "Send your game ID:", item.Items[0].Prompt)
}

func TestWizard_SubmenuMalformedLineReprompts(t *testing.T) {
	b, fs := newTestBot(t, 1)

	require.NoError(t, b.adminAction(1, "add_button"))
	feedWizard(b, 1, "X", "x1", "submenu", "only two|parts")

	// the wizard stays on the same step instead of aborting
	require.NotNil(t, b.sessions.Get(1))
	assert.Equal(t, "Wrong format. Send as: id|label|kind", fs.lastTextTo(t, 1))

	feedWizard(b, 1, "a|Item A|content", "done")
	assert.Nil(t, b.sessions.Get(1))

	item, err := b.svc.Catalog.Resolve(context.Background(), "x1")
	require.NoError(t, err)
	assert.Len(t, item.Items, 1)
}

func TestWizard_AddRequestInfoButton(t *testing.T) {
	b, fs := newTestBot(t, 1)

	require.NoError(t, b.adminAction(1, "add_button"))
	feedWizard(b, 1, "Top-up", "topup", "request_info", "Send your ID and the amount:")

	assert.Equal(t, "✅ Button (request_info) added.", fs.lastTextTo(t, 1))

	item, err := b.svc.Catalog.Resolve(context.Background(), "topup")
	require.NoError(t, err)
	assert.Equal(t, "Send your ID and the amount:", item.Prompt)
}

func TestWizard_AddContentButtonSkipImage(t *testing.T) {
	b, _ := newTestBot(t, 1)

	require.NoError(t, b.adminAction(1, "add_button"))
	feedWizard(b, 1, "FAQ", "faq", "content", "Read this first.", "no")

	item, err := b.svc.Catalog.Resolve(context.Background(), "faq")
	require.NoError(t, err)
	assert.Equal(t, "Read this first.", item.Body)
	assert.Empty(t, item.Image)
}

func TestWizard_UnknownKindAborts(t *testing.T) {
	b, fs := newTestBot(t, 1)

	require.NoError(t, b.adminAction(1, "add_button"))
	feedWizard(b, 1, "X", "x1", "bogus")

	assert.Nil(t, b.sessions.Get(1))
	assert.Equal(t, "Unknown kind, the operation was canceled.", fs.lastTextTo(t, 1))

	_, err := b.svc.Catalog.Resolve(context.Background(), "x1")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestWizard_BroadcastConfirmed(t *testing.T) {
	b, fs := newTestBot(t, 1)
	ctx := context.Background()

	_, err := b.svc.Registry.Ensure(ctx, 10, "Alice")
	require.NoError(t, err)
	_, err = b.svc.Registry.Ensure(ctx, 20, "Bob")
	require.NoError(t, err)

	require.NoError(t, b.adminAction(1, "broadcast"))
	feedWizard(b, 1, "hello everyone", "yes")

	assert.Equal(t, []string{"hello everyone"}, fs.textsTo(10))
	assert.Equal(t, []string{"hello everyone"}, fs.textsTo(20))
	assert.Equal(t, "✅ Sent to 2 users.", fs.lastTextTo(t, 1))
}

func TestWizard_BroadcastCanceled(t *testing.T) {
	b, fs := newTestBot(t, 1)

	_, err := b.svc.Registry.Ensure(context.Background(), 10, "Alice")
	require.NoError(t, err)

	require.NoError(t, b.adminAction(1, "broadcast"))
	feedWizard(b, 1, "hello everyone", "no")

	assert.Empty(t, fs.textsTo(10))
	assert.Equal(t, "Broadcast canceled.", fs.lastTextTo(t, 1))
}

func TestWizard_AdminAddRejectsNonNumericID(t *testing.T) {
	b, fs := newTestBot(t, 1)

	require.NoError(t, b.adminAction(1, "add_admin"))
	feedWizard(b, 1, "not-a-number")

	assert.Nil(t, b.sessions.Get(1))
	assert.Equal(t, "The ID must be a number, the operation was canceled.", fs.lastTextTo(t, 1))

	require.NoError(t, b.adminAction(1, "add_admin"))
	feedWizard(b, 1, "77")

	assert.True(t, b.isOperator(77))
	assert.Equal(t, "✅ Admin 77 added.", fs.lastTextTo(t, 1))
}

func TestWizard_AdminAddRecordsGrantorName(t *testing.T) {
	b, _ := newTestBot(t, 1)
	ctx := context.Background()

	_, err := b.svc.Registry.Ensure(ctx, 1, "Alice")
	require.NoError(t, err)

	require.NoError(t, b.adminAction(1, "add_admin"))
	feedWizard(b, 1, "77")

	all, err := b.svc.Admins.Records(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Alice", all[0].Name)
	assert.Equal(t, []string{users.PermAll}, all[0].Perms)
}

func TestWizard_AdminRemove(t *testing.T) {
	b, fs := newTestBot(t, 1)

	require.NoError(t, b.svc.Admins.Add(context.Background(), 77, "Alice"))

	require.NoError(t, b.adminAction(1, "del_admin"))
	feedWizard(b, 1, "77")
	assert.False(t, b.isOperator(77))

	require.NoError(t, b.adminAction(1, "del_admin"))
	feedWizard(b, 1, "99")
	assert.Equal(t, "Couldn't find that admin.", fs.lastTextTo(t, 1))
}

func TestWizard_ScheduleInvalidDateAborts(t *testing.T) {
	b, fs := newTestBot(t, 1)

	require.NoError(t, b.adminAction(1, "schedule"))
	feedWizard(b, 1, "sale starts now", "tomorrow at noon")

	assert.Equal(t, "Invalid date format, the operation was canceled.", fs.lastTextTo(t, 1))

	pending, err := b.svc.Scheduler.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWizard_ScheduleValid(t *testing.T) {
	b, fs := newTestBot(t, 1)

	at := time.Now().Add(2 * time.Hour).Format(domain.ScheduleTimeLayout)
	require.NoError(t, b.adminAction(1, "schedule"))
	feedWizard(b, 1, "sale starts soon", at)

	assert.Equal(t, "✅ The message has been scheduled.", fs.lastTextTo(t, 1))

	pending, err := b.svc.Scheduler.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "sale starts soon", pending[0].Text)
}

func TestWizard_SchedulePastTimeReported(t *testing.T) {
	b, fs := newTestBot(t, 1)

	at := time.Now().Add(-2 * time.Hour).Format(domain.ScheduleTimeLayout)
	require.NoError(t, b.adminAction(1, "schedule"))
	feedWizard(b, 1, "too late", at)

	assert.Contains(t, fs.lastTextTo(t, 1), "Couldn't schedule that:")
}

func TestWizard_DeleteButtonDisarmsUsers(t *testing.T) {
	b, fs := newTestBot(t, 1)
	ctx := context.Background()

	require.NoError(t, b.svc.Catalog.Append(ctx, domain.MenuItem{
		ID: "promo", Label: "Promo", Kind: domain.KindRequestInfo,
	}))
	_, err := b.svc.Registry.Ensure(ctx, 100, "Alice")
	require.NoError(t, err)
	require.NoError(t, b.svc.Registry.Arm(ctx, 100, domain.Awaiting{ButtonID: "promo", ButtonText: "Promo"}))

	require.NoError(t, b.adminAction(1, "del_button"))
	feedWizard(b, 1, "promo")

	assert.Equal(t, "✅ Button promo deleted.", fs.lastTextTo(t, 1))

	_, err = b.svc.Catalog.Resolve(ctx, "promo")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)

	u, _, err := b.svc.Registry.Get(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, u.Awaiting)
}

func TestWizard_DeleteUnknownButton(t *testing.T) {
	b, fs := newTestBot(t, 1)

	require.NoError(t, b.adminAction(1, "del_button"))
	feedWizard(b, 1, "nope")

	assert.Equal(t, "Couldn't find that ID, check it and try again.", fs.lastTextTo(t, 1))
}
