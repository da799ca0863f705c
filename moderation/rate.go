package moderation

import (
	"context"
	"time"
)

// RateWindow is the trailing period over which messages are counted.
const RateWindow = 60 * time.Second

// RateTracker answers whether a user is sending faster than the limit.
type RateTracker struct {
	store Store
	now   func() time.Time
}

func NewRateTracker(store Store) *RateTracker {
	return &RateTracker{store: store, now: time.Now}
}

// Hit records one message and reports the number of messages in the trailing
// window, never more than limit+1.
func (r *RateTracker) Hit(ctx context.Context, userID int64, limit int) (int, error) {
	return r.store.Hit(ctx, userID, r.now(), RateWindow, limit+1)
}

// Over records one message and reports whether the user exceeded limit.
func (r *RateTracker) Over(ctx context.Context, userID int64, limit int) (bool, error) {
	n, err := r.Hit(ctx, userID, limit)
	if err != nil {
		return false, err
	}
	return n > limit, nil
}

// Sweep drops users that have been idle for a full window.
func (r *RateTracker) Sweep(ctx context.Context) (int, error) {
	return r.store.Sweep(ctx, r.now(), RateWindow)
}
