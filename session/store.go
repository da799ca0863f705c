package session

import (
	"context"
	"errors"
	"fmt"

	"earnquest-bot/database"
	"earnquest-bot/models"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrNoToken means the user has not logged in.
var ErrNoToken = errors.New("not logged in")

// TokenStore persists login sessions.
type TokenStore interface {
	Save(ctx context.Context, sess models.Session) error
	Get(ctx context.Context, telegramUserID int64) (models.Session, error)
	Delete(ctx context.Context, telegramUserID int64) error
}

// Manager owns every user's conversation state and login session.
// Conversation state lives in memory only; sessions are written through to
// the token store when one is configured.
type Manager struct {
	conversations *xsync.MapOf[int64, Conversation]
	sessions      *xsync.MapOf[int64, models.Session]
	tokens        TokenStore
}

func NewManager(tokens TokenStore) *Manager {
	return &Manager{
		conversations: xsync.NewMapOf[int64, Conversation](),
		sessions:      xsync.NewMapOf[int64, models.Session](),
		tokens:        tokens,
	}
}

// Advance runs one input through the state machine for userID and stores
// the next state atomically.
func (m *Manager) Advance(userID int64, in Input) Step {
	var step Step
	m.conversations.Compute(userID, func(cur Conversation, loaded bool) (Conversation, bool) {
		step = Transition(cur, in)
		return step.Next, step.Next.State == Idle
	})
	return step
}

// State returns the user's current conversation state.
func (m *Manager) State(userID int64) State {
	c, _ := m.conversations.Load(userID)
	return c.State
}

// Reset drops any conversation in progress.
func (m *Manager) Reset(userID int64) {
	m.conversations.Delete(userID)
}

// Save records a successful login.
func (m *Manager) Save(ctx context.Context, sess models.Session) error {
	m.sessions.Store(sess.TelegramUserID, sess)
	if m.tokens == nil {
		return nil
	}
	if err := m.tokens.Save(ctx, sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Session returns the stored login, or ErrNoToken.
func (m *Manager) Session(ctx context.Context, userID int64) (models.Session, error) {
	if sess, ok := m.sessions.Load(userID); ok {
		return sess, nil
	}
	if m.tokens == nil {
		return models.Session{}, ErrNoToken
	}
	sess, err := m.tokens.Get(ctx, userID)
	if errors.Is(err, database.ErrNoSession) {
		return models.Session{}, ErrNoToken
	}
	if err != nil {
		return models.Session{}, err
	}
	if sess.Token == "" {
		return models.Session{}, ErrNoToken
	}
	m.sessions.Store(userID, sess)
	return sess, nil
}

// Token returns just the API token; an empty string means not logged in.
func (m *Manager) Token(ctx context.Context, userID int64) string {
	sess, err := m.Session(ctx, userID)
	if err != nil {
		return ""
	}
	return sess.Token
}

// Forget removes the user's login.
func (m *Manager) Forget(ctx context.Context, userID int64) error {
	m.sessions.Delete(userID)
	if m.tokens == nil {
		return nil
	}
	return m.tokens.Delete(ctx, userID)
}
