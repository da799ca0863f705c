// Package messengertest provides an in-memory Messenger for tests.
package messengertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"earnquest-bot/messenger"
	"earnquest-bot/models"
)

// Call is one recorded transport call.
type Call struct {
	Op        string
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
	PhotoURL  string
	Until     time.Time
	Options   messenger.SendOptions
}

// Fake records every call. Errors can be injected per operation and per chat.
type Fake struct {
	mu     sync.Mutex
	calls  []Call
	nextID int

	// Roles answers MemberRole by user id; missing users are members.
	Roles map[int64]models.Role
	// Fail makes the named operation ("send", "photo", "edit", "delete",
	// "mute", "ban", "role", "answer") return an error.
	Fail map[string]error
	// FailChats makes sends to the given chats return an error.
	FailChats map[int64]error
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		Roles:     make(map[int64]models.Role),
		Fail:      make(map[string]error),
		FailChats: make(map[int64]error),
		nextID:    1000,
	}
}

var _ messenger.Messenger = (*Fake)(nil)

// ErrInjected is a convenience error for tests.
var ErrInjected = errors.New("injected failure")

func (f *Fake) record(c Call) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if err := f.Fail[c.Op]; err != nil {
		return 0, err
	}
	if c.Op == "send" || c.Op == "photo" {
		if err := f.FailChats[c.ChatID]; err != nil {
			return 0, err
		}
	}
	f.nextID++
	return f.nextID, nil
}

func (f *Fake) SendText(ctx context.Context, chatID int64, text string, opts ...messenger.Option) (int, error) {
	return f.record(Call{Op: "send", ChatID: chatID, Text: text, Options: messenger.Apply(opts...)})
}

func (f *Fake) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts ...messenger.Option) (int, error) {
	return f.record(Call{Op: "photo", ChatID: chatID, PhotoURL: photoURL, Text: caption, Options: messenger.Apply(opts...)})
}

func (f *Fake) EditText(ctx context.Context, chatID int64, messageID int, text string, opts ...messenger.Option) error {
	_, err := f.record(Call{Op: "edit", ChatID: chatID, MessageID: messageID, Text: text, Options: messenger.Apply(opts...)})
	return err
}

func (f *Fake) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := f.record(Call{Op: "delete", ChatID: chatID, MessageID: messageID})
	return err
}

func (f *Fake) Mute(ctx context.Context, chatID, userID int64, until time.Time) error {
	_, err := f.record(Call{Op: "mute", ChatID: chatID, UserID: userID, Until: until})
	return err
}

func (f *Fake) Ban(ctx context.Context, chatID, userID int64) error {
	_, err := f.record(Call{Op: "ban", ChatID: chatID, UserID: userID})
	return err
}

func (f *Fake) MemberRole(ctx context.Context, chatID, userID int64) (models.Role, error) {
	if _, err := f.record(Call{Op: "role", ChatID: chatID, UserID: userID}); err != nil {
		return models.RoleUnknown, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.Roles[userID]; ok {
		return r, nil
	}
	return models.RoleMember, nil
}

func (f *Fake) AnswerCallback(ctx context.Context, callbackID string) error {
	_, err := f.record(Call{Op: "answer", Text: callbackID})
	return err
}

// Calls returns a copy of all recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsOf returns the recorded calls for one operation.
func (f *Fake) CallsOf(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
