package handlers

import (
	"context"
	"strings"

	"earnquest-bot/messenger"
	"earnquest-bot/models"
	"earnquest-bot/session"

	"go.uber.org/zap"
)

// HandleCallback routes inline keyboard presses.
func (h *Handler) HandleCallback(ctx context.Context, cb models.Callback) {
	if err := h.msgr.AnswerCallback(ctx, cb.ID); err != nil {
		h.logger.Debug("answer callback failed", zap.Error(err))
	}

	data := cb.Data
	switch {
	case data == "start_login", data == "start_register", strings.HasPrefix(data, "support_"):
		step := h.sessions.Advance(cb.From.ID, session.Callback(data))
		if step.Handled {
			h.applyStep(ctx, cb.From, cb.ChatID, 0, cb.MessageID, step)
		}

	case data == "cmd_support":
		h.edit(ctx, cb.ChatID, cb.MessageID, textSupportShortMenu,
			messenger.Markdown(), messenger.WithKeyboard(supportShortKeyboard()))

	case data == "cmd_faq":
		h.send(ctx, cb.ChatID, textFAQMenu, messenger.Markdown(), messenger.WithKeyboard(faqKeyboard()))

	case strings.HasPrefix(data, "cmd_"):
		h.accountCommand(ctx, strings.TrimPrefix(data, "cmd_"), cb.From, cb.ChatID, 0)

	case strings.HasPrefix(data, "faq_"):
		topic := strings.TrimPrefix(data, "faq_")
		tpl, ok := h.policy.Current().KnowledgeBase.Lookup(topic)
		if !ok {
			return
		}
		h.edit(ctx, cb.ChatID, cb.MessageID, h.render(tpl, nil), messenger.Markdown())

	default:
		h.logger.Debug("unknown callback", zap.String("data", data))
	}
}
