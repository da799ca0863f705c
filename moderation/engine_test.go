package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"earnquest-bot/messenger/messengertest"
	"earnquest-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type staticPolicy struct {
	snap models.PolicySnapshot
}

func (p *staticPolicy) Current() *models.PolicySnapshot { return &p.snap }

type fakeRoles struct {
	roles     map[int64]models.Role
	err       error
	mu        sync.Mutex
	forgotten []int64
}

func (f *fakeRoles) Forget(chatID, userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, userID)
}

func (f *fakeRoles) Role(ctx context.Context, chatID, userID int64) (models.Role, error) {
	if f.err != nil {
		return models.RoleUnknown, f.err
	}
	if r, ok := f.roles[userID]; ok {
		return r, nil
	}
	return models.RoleMember, nil
}

type fakeReporter struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *fakeReporter) Report(ctx context.Context, ev models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *fakeReporter) ofType(typ string) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	engine   *Engine
	store    *MemoryStore
	msgr     *messengertest.Fake
	reporter *fakeReporter
	roles    *fakeRoles
	policy   *staticPolicy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMemoryStore(),
		msgr:     messengertest.New(),
		reporter: &fakeReporter{},
		roles:    &fakeRoles{roles: map[int64]models.Role{}},
		policy: &staticPolicy{snap: models.PolicySnapshot{
			AllowLinks:           false,
			AllowForwards:        true,
			MaxMessagesPerMinute: 5,
		}},
	}
	logger := zaptest.NewLogger(t)
	ledger := NewLedger(f.store, f.msgr, f.reporter, 3, logger)
	f.engine = NewEngine(f.policy, NewRateTracker(f.store), ledger, f.roles, f.msgr, f.reporter,
		Config{WarningTTL: 5 * time.Millisecond}, logger)
	return f
}

func groupMsg(userID int64, text string) models.Message {
	return models.Message{
		ID:       int(userID)*100 + len(text),
		ChatID:   -1001,
		ChatType: models.ChatSupergroup,
		From:     models.User{ID: userID, FirstName: "Sam", Username: "sam"},
		Text:     text,
	}
}

func TestContainsLink(t *testing.T) {
	cases := map[string]bool{
		"see http://x.com":        true,
		"HTTPS://EXAMPLE.ORG":     true,
		"go to www.site.io":       true,
		"join t.me/channel":       true,
		"ping @someone":           true,
		"ping @пользователь":      true,
		"plain text here":         false,
		"email me at home":        false,
		"the price is 5 dollars.": false,
	}
	for text, want := range cases {
		assert.Equal(t, want, ContainsLink(text), text)
	}
}

func TestEvaluateOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// link beats forward and rate state
	msg := groupMsg(1, "http://x.com")
	msg.IsForward = true
	f.policy.snap.AllowForwards = false
	assert.Equal(WarnAndDelete, f.engine.Evaluate(ctx, msg, models.RoleMember).Action)

	// privileged and unknown roles are never moderated
	assert.Equal(Allow, f.engine.Evaluate(ctx, msg, models.RoleAdministrator).Action)
	assert.Equal(Allow, f.engine.Evaluate(ctx, msg, models.RoleOwner).Action)
	assert.Equal(Allow, f.engine.Evaluate(ctx, msg, models.RoleUnknown).Action)

	// forwards without links
	fwd := groupMsg(2, "hello")
	fwd.IsForward = true
	assert.Equal(Verdict{Action: DeleteOnly, Reason: ReasonForward}, f.engine.Evaluate(ctx, fwd, models.RoleMember))

	f.policy.snap.AllowForwards = true
	assert.Equal(Allow, f.engine.Evaluate(ctx, fwd, models.RoleMember).Action)

	// links allowed by policy
	f.policy.snap.AllowLinks = true
	assert.Equal(Allow, f.engine.Evaluate(ctx, groupMsg(3, "www.x.com"), models.RoleMember).Action)
}

func TestEvaluateCaptionLink(t *testing.T) {
	f := newFixture(t)
	msg := groupMsg(1, "")
	msg.Caption = "photo from t.me/somewhere"
	assert.Equal(t, WarnAndDelete, f.engine.Evaluate(context.Background(), msg, models.RoleMember).Action)
}

func TestLinkWarningScenario(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	msg := groupMsg(7, "buy now http://x.com")
	v := f.engine.Moderate(ctx, msg)
	assert.Equal(WarnAndDelete, v.Action)

	deletes := f.msgr.CallsOf("delete")
	require.NotEmpty(t, deletes)
	assert.Equal(msg.ID, deletes[0].MessageID)

	sends := f.msgr.CallsOf("send")
	require.Len(t, sends, 1)
	assert.Equal("⚠️ @sam, links are not allowed!", sends[0].Text)

	assert.Equal(1, f.store.warningCount(7))

	warned := f.reporter.ofType(models.EventUserWarned)
	require.Len(t, warned, 1)
	assert.Equal(1, warned[0].Data["warning_count"])
	assert.Equal("Posting links", warned[0].Data["reason"])
	assert.Equal("User warned (1/3): Posting links", warned[0].Description)

	deleted := f.reporter.ofType(models.EventMessageDeleted)
	require.Len(t, deleted, 1)
	assert.Equal("Link detected", deleted[0].Data["reason"])
	assert.Equal("buy now http://x.com", deleted[0].Data["text_preview"])
	assert.Equal("sam", deleted[0].Username)

	assert.Empty(f.reporter.ofType(models.EventUserBanned))
	assert.Empty(f.msgr.CallsOf("ban"))

	// the notice removes itself
	assert.Eventually(func() bool { return len(f.msgr.CallsOf("delete")) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(sends[0].ChatID, f.msgr.CallsOf("delete")[1].ChatID)
}

func TestThirdWarningBans(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		assert.Equal(WarnAndDelete, f.engine.Moderate(ctx, groupMsg(9, "www.spam.com")).Action)
	}
	v := f.engine.Moderate(ctx, groupMsg(9, "www.spam.com"))
	assert.Equal(BanAndDelete, v.Action)

	bans := f.msgr.CallsOf("ban")
	require.Len(t, bans, 1)
	assert.Equal(int64(9), bans[0].UserID)

	assert.Len(f.reporter.ofType(models.EventUserWarned), 2)
	banned := f.reporter.ofType(models.EventUserBanned)
	require.Len(t, banned, 1)
	assert.Equal("3 warnings: Posting links", banned[0].Data["reason"])
	assert.Equal(3, banned[0].Data["warning_count"])

	var announced bool
	for _, c := range f.msgr.CallsOf("send") {
		if c.Text == "🚫 User banned after 3 warnings!" {
			announced = true
		}
	}
	assert.True(announced)

	assert.Zero(f.store.warningCount(9))
	assert.Equal([]int64{9}, f.roles.forgotten)
	assert.Eventually(func() bool { return len(f.msgr.CallsOf("delete")) == 6 }, time.Second, 5*time.Millisecond)
}

func TestBanFailureStillClears(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.msgr.Fail["ban"] = messengertest.ErrInjected

	ledger := NewLedger(f.store, f.msgr, f.reporter, 2, zaptest.NewLogger(t))
	user := models.User{ID: 4}
	res, err := ledger.RecordWarning(ctx, user, -1, "x")
	require.NoError(t, err)
	assert.Equal(t, WarningResult{Count: 1}, res)

	res, err = ledger.RecordWarning(ctx, user, -1, "x")
	require.NoError(t, err)
	assert.Equal(t, WarningResult{Count: 2, Banned: true}, res)
	assert.Zero(t, f.store.warningCount(4))
	assert.Len(t, f.reporter.ofType(models.EventUserBanned), 1)
}

// slowBan holds every ban call long enough for a second warning to race it.
type slowBan struct {
	*messengertest.Fake
	delay time.Duration
}

func (s *slowBan) Ban(ctx context.Context, chatID, userID int64) error {
	time.Sleep(s.delay)
	return s.Fake.Ban(ctx, chatID, userID)
}

func TestRacingWarningsBanOnce(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := NewMemoryStore()
	msgr := &slowBan{Fake: messengertest.New(), delay: 20 * time.Millisecond}
	reporter := &fakeReporter{}
	ledger := NewLedger(store, msgr, reporter, 3, zaptest.NewLogger(t))
	user := models.User{ID: 7}

	for i := 0; i < 2; i++ {
		_, err := ledger.RecordWarning(ctx, user, -1, "links")
		require.NoError(t, err)
	}

	results := make([]WarningResult, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := ledger.RecordWarning(ctx, user, -1, "links")
			assert.NoError(err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	banned := 0
	for _, res := range results {
		if res.Banned {
			banned++
		}
	}
	assert.Equal(1, banned)
	assert.Len(reporter.ofType(models.EventUserBanned), 1)
	assert.Len(reporter.ofType(models.EventUserWarned), 3)
	assert.Len(msgr.CallsOf("ban"), 1)
	// the losing warning starts the next round
	assert.Equal(1, store.warningCount(7))
}

func TestSpamMute(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.engine.now = func() time.Time { return fixed }

	for i := 0; i < 5; i++ {
		assert.Equal(Allow, f.engine.Moderate(ctx, groupMsg(5, "hi")).Action)
	}
	v := f.engine.Moderate(ctx, groupMsg(5, "hi"))
	assert.Equal(Verdict{Action: MuteAndDelete, Reason: ReasonSpam}, v)

	mutes := f.msgr.CallsOf("mute")
	require.Len(t, mutes, 1)
	assert.Equal(fixed.Add(5*time.Minute), mutes[0].Until)

	sends := f.msgr.CallsOf("send")
	require.Len(t, sends, 1)
	assert.Equal("🔇 @sam muted for 5 minutes (spam)", sends[0].Text)

	muted := f.reporter.ofType(models.EventUserMuted)
	require.Len(t, muted, 1)
	assert.Equal(5, muted[0].Data["duration_minutes"])
	assert.Equal("Spam detected", muted[0].Data["reason"])
}

func TestRoleLookupFailureSkipsModeration(t *testing.T) {
	f := newFixture(t)
	f.roles.err = errors.New("timeout")

	v := f.engine.Moderate(context.Background(), groupMsg(1, "http://x.com"))
	assert.Equal(t, Allow, v.Action)
	assert.Empty(t, f.msgr.Calls())
	assert.Empty(t, f.reporter.ofType(models.EventMessageDeleted))
}

func TestAdminLinkAllowed(t *testing.T) {
	f := newFixture(t)
	f.roles.roles[1] = models.RoleAdministrator

	v := f.engine.Moderate(context.Background(), groupMsg(1, "http://x.com"))
	assert.Equal(t, Allow, v.Action)
	assert.Empty(t, f.msgr.Calls())
}

func TestPrivateChatIgnored(t *testing.T) {
	f := newFixture(t)
	msg := groupMsg(1, "http://x.com")
	msg.ChatType = models.ChatPrivate
	assert.Equal(t, Allow, f.engine.Moderate(context.Background(), msg).Action)
}

func TestDeleteFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.msgr.Fail["delete"] = messengertest.ErrInjected
	f.policy.snap.AllowForwards = false

	msg := groupMsg(2, "hello")
	msg.IsForward = true
	v := f.engine.Moderate(context.Background(), msg)
	assert.Equal(t, DeleteOnly, v.Action)
	deleted := f.reporter.ofType(models.EventMessageDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, "Forward not allowed", deleted[0].Data["reason"])
}

func TestPreview(t *testing.T) {
	long := ""
	for i := 0; i < 120; i++ {
		long += "é"
	}
	assert.Len(t, []rune(preview(long, 100)), 100)
	assert.Equal(t, "short", preview("short", 100))
}
