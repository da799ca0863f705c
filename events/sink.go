// Package events reports audit events to the backend and keeps a local
// journal copy of each one.
package events

import (
	"context"
	"errors"
	"time"

	"earnquest-bot/backend"
	"earnquest-bot/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Poster delivers one event to the backend.
type Poster interface {
	PostEvent(ctx context.Context, ev models.Event) error
}

// Journal stores a local copy of each event.
type Journal interface {
	Append(ctx context.Context, entry models.JournalEntry) error
	MarkDelivered(ctx context.Context, id string) error
}

// Sink is the single reporting path used by moderation, broadcast and the
// account handlers. Report never fails from the caller's point of view.
type Sink struct {
	poster  Poster
	journal Journal
	logger  *zap.Logger
	newID   func() string
	now     func() time.Time
}

// NewSink creates a sink. poster and journal may each be nil.
func NewSink(poster Poster, journal Journal, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		poster:  poster,
		journal: journal,
		logger:  logger.Named("events"),
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Report journals ev and posts it to the backend.
func (s *Sink) Report(ctx context.Context, ev models.Event) {
	if ev.Data == nil {
		ev.Data = map[string]any{}
	}
	id := s.newID()

	journaled := false
	if s.journal != nil {
		entry := models.JournalEntry{ID: id, Event: ev, CreatedAt: s.now()}
		if err := s.journal.Append(ctx, entry); err != nil {
			s.logger.Warn("journal append failed", zap.String("event_type", ev.Type), zap.Error(err))
		} else {
			journaled = true
		}
	}

	if s.poster == nil {
		reportedTotal.WithLabelValues(ev.Type, "skipped").Inc()
		return
	}

	err := s.poster.PostEvent(ctx, ev)
	var statusErr *backend.StatusError
	switch {
	case err == nil:
		reportedTotal.WithLabelValues(ev.Type, "ok").Inc()
		s.logger.Debug("event logged", zap.String("event_type", ev.Type), zap.String("id", id))
		if journaled {
			if err := s.journal.MarkDelivered(ctx, id); err != nil {
				s.logger.Warn("journal update failed", zap.String("id", id), zap.Error(err))
			}
		}
	case errors.As(err, &statusErr):
		reportedTotal.WithLabelValues(ev.Type, "rejected").Inc()
		s.logger.Warn("event rejected by backend",
			zap.String("event_type", ev.Type),
			zap.Int("status", statusErr.StatusCode))
	default:
		reportedTotal.WithLabelValues(ev.Type, "error").Inc()
		s.logger.Error("event delivery failed", zap.String("event_type", ev.Type), zap.Error(err))
	}
}
