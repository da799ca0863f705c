// Package moderation decides what happens to each group message and carries
// out the resulting delete, warn, mute and ban actions.
package moderation

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"earnquest-bot/messenger"
	"earnquest-bot/models"

	"go.uber.org/zap"
)

// Action is the outcome of evaluating one message.
type Action int

const (
	Allow Action = iota
	DeleteOnly
	WarnAndDelete
	MuteAndDelete
	BanAndDelete
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case DeleteOnly:
		return "delete_only"
	case WarnAndDelete:
		return "warn_and_delete"
	case MuteAndDelete:
		return "mute_and_delete"
	case BanAndDelete:
		return "ban_and_delete"
	default:
		return "unknown"
	}
}

// Verdict is produced per message and consumed immediately.
type Verdict struct {
	Action Action
	Reason string
}

const (
	ReasonLink    = "link posted"
	ReasonSpam    = "spam"
	ReasonForward = "forward"
)

// linkPattern matches URLs, t.me links and @handles in any script.
var linkPattern = regexp.MustCompile(`(?i)(https?://|www\.|t\.me/|@[\p{L}\p{N}_]+)`)

// ContainsLink reports whether text would be treated as a link.
func ContainsLink(text string) bool {
	return linkPattern.MatchString(text)
}

// PolicySource returns the snapshot in force.
type PolicySource interface {
	Current() *models.PolicySnapshot
}

// RoleResolver looks up the sender's standing in a chat.
type RoleResolver interface {
	Role(ctx context.Context, chatID, userID int64) (models.Role, error)
}

// roleForgetter is implemented by role caches that can drop one entry.
type roleForgetter interface {
	Forget(chatID, userID int64)
}

// Config holds the engine's fixed timings.
type Config struct {
	// WarningTTL is how long the "links are not allowed" notice stays up.
	WarningTTL time.Duration
	// SpamMute is the fixed mute applied to senders over the rate limit.
	SpamMute time.Duration
}

func (c Config) withDefaults() Config {
	if c.WarningTTL <= 0 {
		c.WarningTTL = 10 * time.Second
	}
	if c.SpamMute <= 0 {
		c.SpamMute = 5 * time.Minute
	}
	return c
}

// Engine composes the policy, rate tracker and ledger.
type Engine struct {
	policy   PolicySource
	rates    *RateTracker
	ledger   *Ledger
	roles    RoleResolver
	msgr     messenger.Messenger
	reporter Reporter
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewEngine(policy PolicySource, rates *RateTracker, ledger *Ledger, roles RoleResolver,
	msgr messenger.Messenger, reporter Reporter, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		policy:   policy,
		rates:    rates,
		ledger:   ledger,
		roles:    roles,
		msgr:     msgr,
		reporter: reporter,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// Evaluate classifies msg. Checks run in a fixed order and the first match
// wins: privilege, links, rate, forwards. The rate window is only fed when
// the message passed the link check.
func (e *Engine) Evaluate(ctx context.Context, msg models.Message, role models.Role) Verdict {
	// an unknown role means the lookup failed; never act on an indeterminate sender
	if role == models.RoleUnknown || role.Privileged() {
		return Verdict{Action: Allow}
	}
	policy := e.policy.Current()

	if !policy.AllowLinks && ContainsLink(msg.Body()) {
		return Verdict{Action: WarnAndDelete, Reason: ReasonLink}
	}

	over, err := e.rates.Over(ctx, msg.From.ID, policy.MaxMessagesPerMinute)
	if err != nil {
		e.logger.Warn("rate tracker unavailable", zap.Int64("user_id", msg.From.ID), zap.Error(err))
	} else if over {
		return Verdict{Action: MuteAndDelete, Reason: ReasonSpam}
	}

	if msg.IsForward && !policy.AllowForwards {
		return Verdict{Action: DeleteOnly, Reason: ReasonForward}
	}
	return Verdict{Action: Allow}
}

// Moderate resolves the sender's role, evaluates msg and enforces the
// verdict. It returns the effective verdict; a warning that reached the ban
// threshold comes back as BanAndDelete.
func (e *Engine) Moderate(ctx context.Context, msg models.Message) Verdict {
	if !msg.ChatType.IsGroup() {
		return Verdict{Action: Allow}
	}
	role, err := e.roles.Role(ctx, msg.ChatID, msg.From.ID)
	if err != nil {
		roleLookupErrors.Inc()
		e.logger.Warn("role lookup failed, skipping moderation",
			zap.Int64("chat_id", msg.ChatID), zap.Int64("user_id", msg.From.ID), zap.Error(err))
		role = models.RoleUnknown
	}

	v := e.Evaluate(ctx, msg, role)
	v = e.Enforce(ctx, msg, v)
	verdictTotal.WithLabelValues(v.Action.String()).Inc()
	return v
}

// Enforce carries out a verdict. Failed transport calls are logged and do not
// stop the remaining steps.
func (e *Engine) Enforce(ctx context.Context, msg models.Message, v Verdict) Verdict {
	if v.Action == Allow {
		return v
	}
	name := msg.From.DisplayName()

	e.deleteMessage(ctx, msg)

	switch v.Action {
	case WarnAndDelete:
		if id, err := e.msgr.SendText(ctx, msg.ChatID, fmt.Sprintf("⚠️ @%s, links are not allowed!", name)); err != nil {
			enforcementFailures.WithLabelValues("notice").Inc()
			e.logger.Warn("failed to send link notice", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		} else {
			messenger.DeleteAfter(e.msgr, msg.ChatID, id, e.cfg.WarningTTL)
		}
		e.reporter.Report(ctx, models.Event{
			Type:        models.EventMessageDeleted,
			Data:        map[string]any{"reason": "Link detected", "text_preview": preview(msg.Body(), 100)},
			UserID:      msg.From.ID,
			Username:    name,
			ChatID:      msg.ChatID,
			Description: fmt.Sprintf("Deleted message with link from @%s", name),
		})

		res, err := e.ledger.RecordWarning(ctx, msg.From, msg.ChatID, "Posting links")
		if err != nil {
			e.logger.Error("failed to record warning", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		}
		if res.Banned {
			// a banned member must not be served a cached member role
			if f, ok := e.roles.(roleForgetter); ok {
				f.Forget(msg.ChatID, msg.From.ID)
			}
			return Verdict{Action: BanAndDelete, Reason: v.Reason}
		}

	case MuteAndDelete:
		minutes := int(e.cfg.SpamMute / time.Minute)
		if err := e.msgr.Mute(ctx, msg.ChatID, msg.From.ID, e.now().Add(e.cfg.SpamMute)); err != nil {
			enforcementFailures.WithLabelValues("mute").Inc()
			e.logger.Error("failed to mute", zap.Int64("user_id", msg.From.ID), zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		}
		if _, err := e.msgr.SendText(ctx, msg.ChatID, fmt.Sprintf("🔇 @%s muted for %d minutes (spam)", name, minutes)); err != nil {
			enforcementFailures.WithLabelValues("announce").Inc()
			e.logger.Warn("failed to announce mute", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		}
		e.reporter.Report(ctx, models.Event{
			Type:        models.EventUserMuted,
			Data:        map[string]any{"reason": "Spam detected", "duration_minutes": minutes},
			UserID:      msg.From.ID,
			Username:    name,
			ChatID:      msg.ChatID,
			Description: fmt.Sprintf("Muted @%s for %d minutes (spam)", name, minutes),
		})

	case DeleteOnly:
		e.reporter.Report(ctx, models.Event{
			Type:        models.EventMessageDeleted,
			Data:        map[string]any{"reason": "Forward not allowed", "text_preview": preview(msg.Body(), 100)},
			UserID:      msg.From.ID,
			Username:    name,
			ChatID:      msg.ChatID,
			Description: fmt.Sprintf("Deleted forwarded message from @%s", name),
		})
	}
	return v
}

func (e *Engine) deleteMessage(ctx context.Context, msg models.Message) {
	if err := e.msgr.DeleteMessage(ctx, msg.ChatID, msg.ID); err != nil {
		enforcementFailures.WithLabelValues("delete").Inc()
		e.logger.Debug("failed to delete message", zap.Int64("chat_id", msg.ChatID), zap.Int("message_id", msg.ID), zap.Error(err))
	}
}

// Sweep drops idle rate windows.
func (e *Engine) Sweep(ctx context.Context) {
	n, err := e.rates.Sweep(ctx)
	if err != nil {
		e.logger.Warn("rate sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		e.logger.Debug("rate sweep", zap.Int("removed", n))
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
