package moderation

import (
	"context"
	"fmt"

	"earnquest-bot/messenger"
	"earnquest-bot/models"

	"go.uber.org/zap"
)

// DefaultBanThreshold is the warning count that turns into a ban.
const DefaultBanThreshold = 3

// Reporter receives audit events. Delivery is best-effort.
type Reporter interface {
	Report(ctx context.Context, ev models.Event)
}

// WarningResult is the ledger state after one recorded warning.
type WarningResult struct {
	Count  int
	Banned bool
}

// Ledger counts warnings per user and bans at the threshold.
type Ledger struct {
	store     Store
	msgr      messenger.Messenger
	reporter  Reporter
	threshold int
	logger    *zap.Logger
}

func NewLedger(store Store, msgr messenger.Messenger, reporter Reporter, threshold int, logger *zap.Logger) *Ledger {
	if threshold <= 0 {
		threshold = DefaultBanThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		store:     store,
		msgr:      msgr,
		reporter:  reporter,
		threshold: threshold,
		logger:    logger,
	}
}

// RecordWarning adds one warning for user. The warning that reaches the
// threshold bans the user from chatID and reports user_banned instead of
// user_warned; the counter starts over from zero in the same store step, so
// racing warnings produce a single ban.
func (l *Ledger) RecordWarning(ctx context.Context, user models.User, chatID int64, reason string) (WarningResult, error) {
	n, crossed, err := l.store.AddWarning(ctx, user.ID, l.threshold)
	if err != nil {
		return WarningResult{}, fmt.Errorf("record warning: %w", err)
	}

	if !crossed {
		warningsTotal.Inc()
		l.reporter.Report(ctx, models.Event{
			Type:        models.EventUserWarned,
			Data:        map[string]any{"reason": reason, "warning_count": n},
			UserID:      user.ID,
			ChatID:      chatID,
			Description: fmt.Sprintf("User warned (%d/%d): %s", n, l.threshold, reason),
		})
		return WarningResult{Count: n}, nil
	}

	if err := l.msgr.Ban(ctx, chatID, user.ID); err != nil {
		enforcementFailures.WithLabelValues("ban").Inc()
		l.logger.Error("failed to ban", zap.Int64("user_id", user.ID), zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if _, err := l.msgr.SendText(ctx, chatID, fmt.Sprintf("🚫 User banned after %d warnings!", l.threshold)); err != nil {
		enforcementFailures.WithLabelValues("announce").Inc()
		l.logger.Warn("failed to announce ban", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	bansTotal.Inc()
	l.reporter.Report(ctx, models.Event{
		Type:        models.EventUserBanned,
		Data:        map[string]any{"reason": fmt.Sprintf("%d warnings: %s", l.threshold, reason), "warning_count": n},
		UserID:      user.ID,
		ChatID:      chatID,
		Description: fmt.Sprintf("User banned after %d warnings. Last warning: %s", l.threshold, reason),
	})
	return WarningResult{Count: n, Banned: true}, nil
}
