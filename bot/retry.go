package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"earnquest-bot/utils"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// pollRecovered is how long a poller must run without a conflict before the
// retry budget starts over.
const pollRecovered = 5 * time.Minute

// IsConflict reports whether err is Telegram's "another instance is polling" error.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, bot.ErrorConflict) || strings.Contains(strings.ToLower(err.Error()), "conflict")
}

// retryOnConflict runs fn while it fails with a conflict, waiting
// (attempt+1)*step between tries, and gives up after attempts conflicts in a
// row. A run of fn that lasted at least recovered resets the count; zero
// never resets it. Other errors return at once.
func retryOnConflict(ctx context.Context, attempts int, step, recovered time.Duration, logger *zap.Logger, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	attempt := 0
	for {
		started := time.Now()
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsConflict(err) {
			return err
		}
		if recovered > 0 && time.Since(started) >= recovered {
			attempt = 0
		}
		if attempt+1 >= attempts {
			return fmt.Errorf("still conflicting after %d attempts: %w", attempts, err)
		}

		wait := time.Duration(attempt+1) * step
		logger.Warn("another instance is running, retrying",
			zap.Int("attempt", attempt+1), zap.Duration("wait", wait), zap.Error(err))
		utils.Warn("bot", "polling", fmt.Sprintf("Conflict on attempt %d/%d, retrying in %s", attempt+1, attempts, wait))
		attempt++

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// poll runs long polling through start until ctx ends. A conflict reported by
// getUpdates stops the poller, which is restarted with a linear backoff; poll
// fails once startup.conflict_retries conflicts happened in a row.
func (b *Bot) poll(ctx context.Context, start func(context.Context)) error {
	s := b.settings.Startup
	err := retryOnConflict(ctx, s.ConflictRetries, s.ConflictStep, pollRecovered, b.logger, func(ctx context.Context) error {
		return b.pollOnce(ctx, start)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// pollOnce runs one poller until ctx ends or pollingError reports a conflict.
func (b *Bot) pollOnce(ctx context.Context, start func(context.Context)) error {
	// a conflict from the previous poller is stale
	select {
	case <-b.conflicts:
	default:
	}

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		start(pctx)
	}()

	select {
	case <-done:
		return nil
	case err := <-b.conflicts:
		cancel()
		<-done
		return err
	}
}
