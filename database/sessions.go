package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"earnquest-bot/models"
)

// ErrNoSession is returned when a user has never logged in.
var ErrNoSession = errors.New("no session")

// Sessions persists login tokens so they survive restarts.
type Sessions struct {
	db *sql.DB
}

func NewSessions(db *sql.DB) *Sessions {
	return &Sessions{db: db}
}

// Save stores or replaces the session of one Telegram user.
func (s *Sessions) Save(ctx context.Context, sess models.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	query := `
    INSERT OR REPLACE INTO sessions (telegram_user_id, token, username, platform_user_id, email, created_at)
    VALUES (?, ?, ?, ?, ?, ?);`
	_, err := s.db.ExecContext(ctx, query,
		sess.TelegramUserID, sess.Token, sess.Username, sess.PlatformUserID, sess.Email, sess.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save session for %d: %w", sess.TelegramUserID, err)
	}
	return nil
}

// Get loads a session, returning ErrNoSession when there is none.
func (s *Sessions) Get(ctx context.Context, telegramUserID int64) (models.Session, error) {
	var (
		sess    models.Session
		created int64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT telegram_user_id, token, username, platform_user_id, email, created_at FROM sessions WHERE telegram_user_id = ?`,
		telegramUserID)
	err := row.Scan(&sess.TelegramUserID, &sess.Token, &sess.Username, &sess.PlatformUserID, &sess.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, ErrNoSession
	}
	if err != nil {
		return sess, fmt.Errorf("failed to load session for %d: %w", telegramUserID, err)
	}
	sess.CreatedAt = time.Unix(created, 0)
	return sess, nil
}

// Delete forgets a session.
func (s *Sessions) Delete(ctx context.Context, telegramUserID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE telegram_user_id = ?`, telegramUserID)
	return err
}
