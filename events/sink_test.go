package events

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"earnquest-bot/backend"
	"earnquest-bot/database"
	"earnquest-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePoster struct {
	mu     sync.Mutex
	err    error
	events []models.Event
}

func (p *fakePoster) PostEvent(ctx context.Context, ev models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fakeJournal struct {
	appendErr error
	entries   []models.JournalEntry
	delivered []string
}

func (j *fakeJournal) Append(ctx context.Context, entry models.JournalEntry) error {
	if j.appendErr != nil {
		return j.appendErr
	}
	j.entries = append(j.entries, entry)
	return nil
}

func (j *fakeJournal) MarkDelivered(ctx context.Context, id string) error {
	j.delivered = append(j.delivered, id)
	return nil
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestReportDelivers(t *testing.T) {
	poster := &fakePoster{}
	journal := &fakeJournal{}
	sink := NewSink(poster, journal, nil)

	sink.Report(context.Background(), models.Event{Type: models.EventUserMuted, UserID: 7})

	require.Len(t, poster.events, 1)
	assert.Equal(t, map[string]any{}, poster.events[0].Data, "nil data is sent as an empty object")
	require.Len(t, journal.entries, 1)
	assert.NotEmpty(t, journal.entries[0].ID)
	assert.Equal(t, []string{journal.entries[0].ID}, journal.delivered)
}

func TestReportRejectedLogsWarning(t *testing.T) {
	logger, logs := observed()
	poster := &fakePoster{err: &backend.StatusError{Endpoint: "/bot/events/", StatusCode: 500}}
	journal := &fakeJournal{}
	sink := NewSink(poster, journal, logger)

	sink.Report(context.Background(), models.Event{Type: models.EventError})

	assert.Empty(t, journal.delivered)
	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warn, 1)
	assert.Equal(t, "event rejected by backend", warn[0].Message)
}

func TestReportTransportErrorLogsError(t *testing.T) {
	logger, logs := observed()
	sink := NewSink(&fakePoster{err: errors.New("dial tcp: refused")}, nil, logger)

	sink.Report(context.Background(), models.Event{Type: models.EventLogin})

	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestJournalFailureStillPosts(t *testing.T) {
	poster := &fakePoster{}
	sink := NewSink(poster, &fakeJournal{appendErr: errors.New("disk full")}, nil)

	sink.Report(context.Background(), models.Event{Type: models.EventPostSent})

	assert.Len(t, poster.events, 1)
}

func TestReportIntoSqliteJournal(t *testing.T) {
	ctx := context.Background()
	db, err := database.InitDB(filepath.Join(t.TempDir(), "events.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	journal := database.NewJournal(db)

	sink := NewSink(&fakePoster{}, journal, nil)
	sink.Report(ctx, models.Event{
		Type:        models.EventUserWarned,
		Data:        map[string]any{"reason": "Posting links", "warning_count": 1},
		UserID:      42,
		ChatID:      -1001,
		Description: "User warned (1/3): Posting links",
	})

	entries, err := journal.Query(ctx, database.GetLastDaysRange(1), models.EventUserWarned)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Delivered)
	assert.Equal(t, "User warned (1/3): Posting links", entries[0].Event.Description)
}
