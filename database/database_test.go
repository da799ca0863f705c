package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"earnquest-bot/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "data", "bot.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitDBIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	db, err := InitDB(path, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitDB(path, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestJournalAppendAndQuery(t *testing.T) {
	ctx := context.Background()
	j := NewJournal(openTestDB(t))
	now := time.Now()

	require.NoError(t, j.Append(ctx, models.JournalEntry{
		ID: "a",
		Event: models.Event{
			Type:   models.EventUserWarned,
			Data:   map[string]any{"reason": "link", "warning_count": 1},
			UserID: 42,
			ChatID: -100,
		},
		CreatedAt: now.Add(-2 * time.Minute),
	}))
	require.NoError(t, j.Append(ctx, models.JournalEntry{
		ID:        "b",
		Event:     models.Event{Type: models.EventPostSent, Data: map[string]any{"post_id": 7}},
		CreatedAt: now.Add(-time.Minute),
	}))
	require.NoError(t, j.MarkDelivered(ctx, "a"))

	all, err := j.Query(ctx, GetLastDaysRange(1), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID, "newest first")
	assert.False(t, all[0].Delivered)
	assert.True(t, all[1].Delivered)
	assert.Equal(t, int64(42), all[1].Event.UserID)
	assert.Equal(t, "link", all[1].Event.Data["reason"])

	warned, err := j.Query(ctx, GetLastDaysRange(1), models.EventUserWarned)
	require.NoError(t, err)
	require.Len(t, warned, 1)
	assert.Equal(t, "a", warned[0].ID)

	counts, err := j.CountByType(ctx, GetLastDaysRange(1))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{models.EventUserWarned: 1, models.EventPostSent: 1}, counts)
}

func TestCleanupOldEvents(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	j := NewJournal(db)

	require.NoError(t, j.Append(ctx, models.JournalEntry{
		ID:        "old",
		Event:     models.Event{Type: models.EventError},
		CreatedAt: time.Now().AddDate(0, 0, -40),
	}))
	require.NoError(t, j.Append(ctx, models.JournalEntry{
		ID:    "fresh",
		Event: models.Event{Type: models.EventError},
	}))

	removed, err := CleanupOldEvents(ctx, db, 30, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	left, err := j.Query(ctx, GetLastDaysRange(365), "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].ID)

	removed, err = CleanupOldEvents(ctx, db, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := NewSessions(openTestDB(t))

	_, err := s.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save(ctx, models.Session{TelegramUserID: 1, Token: "t1", Username: "alice"}))
	require.NoError(t, s.Save(ctx, models.Session{TelegramUserID: 1, Token: "t2", Username: "alice"}))

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.Token)
	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, 1))
	_, err = s.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLastDaysRange(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	r := lastDaysRange(now, 7)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC).Unix(), r.StartTime)
	assert.Equal(t, now.Unix(), r.EndTime)

	assert.Equal(t, "last day", GetTimeRangeLabel(1))
	assert.Equal(t, "last 7 days", GetTimeRangeLabel(7))
}
