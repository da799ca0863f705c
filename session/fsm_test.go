package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, inputs ...Input) (Conversation, []Step) {
	t.Helper()
	var (
		cur   Conversation
		steps []Step
	)
	for _, in := range inputs {
		step := Transition(cur, in)
		steps = append(steps, step)
		cur = step.Next
	}
	return cur, steps
}

func TestLoginFlow(t *testing.T) {
	cur, steps := run(t,
		Command("login"),
		Text("not-an-email"),
		Text("  alice@example.com "),
		Text("hunter22"),
	)

	assert.Equal(t, ReplyLoginPrompt, steps[0].Reply)
	assert.Equal(t, AwaitingEmail, steps[0].Next.State)

	assert.Equal(t, ReplyInvalidEmail, steps[1].Reply)
	assert.Equal(t, AwaitingEmail, steps[1].Next.State)

	assert.Equal(t, ReplyPasswordPrompt, steps[2].Reply)
	assert.Equal(t, "alice@example.com", steps[2].Next.Form.Email)

	last := steps[3]
	assert.Equal(t, ActionLogin, last.Action)
	assert.True(t, last.DeleteInput)
	assert.Equal(t, Form{Email: "alice@example.com", Password: "hunter22"}, last.Form)
	assert.Equal(t, Idle, cur.State)
}

func TestRegisterFlow(t *testing.T) {
	cur, steps := run(t,
		Callback("start_register"),
		Text("ab"),
		Text("bob-the-builder"),
		Text("bob_1"),
		Text("bob@example.org"),
		Text("12345"),
		Text("123456"),
	)

	assert.Equal(t, ReplyRegisterButton, steps[0].Reply)
	assert.False(t, steps[0].EditReply)
	assert.Equal(t, ReplyInvalidUsername, steps[1].Reply)
	assert.Equal(t, ReplyInvalidUsername, steps[2].Reply)
	assert.Equal(t, ReplyRegEmailPrompt, steps[3].Reply)
	assert.Equal(t, ReplyRegPasswordAsk, steps[4].Reply)

	short := steps[5]
	assert.Equal(t, ReplyPasswordTooShort, short.Reply)
	assert.True(t, short.DeleteInput)
	assert.Equal(t, AwaitingRegPassword, short.Next.State)

	done := steps[6]
	assert.Equal(t, ActionRegister, done.Action)
	assert.Equal(t, Form{Username: "bob_1", Email: "bob@example.org", Password: "123456"}, done.Form)
	assert.Equal(t, Idle, cur.State)
}

func TestCancel(t *testing.T) {
	cur, steps := run(t, Command("register"), Text("carol"), Command("cancel"))
	assert.Equal(t, ReplyCancelled, steps[2].Reply)
	assert.Equal(t, Conversation{}, cur)

	idle := Transition(Conversation{}, Command("cancel"))
	assert.False(t, idle.Handled)
}

func TestSupportFlow(t *testing.T) {
	_, steps := run(t, Callback("support_withdrawal"), Text("My payout is stuck"))
	require.Len(t, steps, 2)
	assert.Contains(t, steps[0].Reply, "**Support - Withdrawal**")
	assert.True(t, steps[0].EditReply)

	assert.Equal(t, ActionSupportTicket, steps[1].Action)
	assert.Equal(t, "withdrawal", steps[1].Form.Category)
	assert.Equal(t, "My payout is stuck", steps[1].Form.Message)
}

func TestSupportCommandDefaultsCategory(t *testing.T) {
	_, steps := run(t, Command("support"), Text("help"))
	assert.Empty(t, steps[0].Reply)
	assert.Equal(t, DefaultSupportCategory, steps[1].Form.Category)
}

func TestEntryPointRestartsConversation(t *testing.T) {
	cur, _ := run(t, Command("register"), Text("dave_x"), Command("login"))
	assert.Equal(t, AwaitingEmail, cur.State)
	assert.Empty(t, cur.Form.Username)
}

func TestIdleTextIsNotHandled(t *testing.T) {
	step := Transition(Conversation{}, Text("hello"))
	assert.False(t, step.Handled)

	step = Transition(Conversation{State: AwaitingEmail}, Command("balance"))
	assert.False(t, step.Handled)
	assert.Equal(t, AwaitingEmail, step.Next.State)
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Withdrawal", CategoryTitle("withdrawal"))
	assert.Equal(t, "Bug Report", CategoryTitle("bug_report"))
	assert.Equal(t, "", CategoryTitle(""))
}
