package handlers

import (
	"context"
	"strings"

	"earnquest-bot/messenger"
	"earnquest-bot/models"
	"earnquest-bot/moderation"

	"go.uber.org/zap"
)

// handleGroup moderates first. Only messages that survive reach the
// welcome, command and intent features.
func (h *Handler) handleGroup(ctx context.Context, msg models.Message) {
	if len(msg.NewChatMembers) > 0 {
		h.welcome(ctx, msg)
		return
	}

	if h.moderator != nil {
		if v := h.moderator.Moderate(ctx, msg); v.Action != moderation.Allow {
			return
		}
	}

	if msg.IsCommand() {
		h.groupCommand(ctx, msg)
		return
	}

	if h.responder == nil || msg.Text == "" {
		return
	}
	answer, ok := h.responder.Respond(msg.Text, h.addressed(msg))
	if !ok {
		return
	}
	h.reply(ctx, msg, answer)
}

// addressed reports whether the message replies to the bot or mentions it.
func (h *Handler) addressed(msg models.Message) bool {
	if h.botID != 0 && msg.ReplyToUserID == h.botID {
		return true
	}
	return h.mention != "" && strings.Contains(strings.ToLower(msg.Text), h.mention)
}

func (h *Handler) groupCommand(ctx context.Context, msg models.Message) {
	name, target, _ := msg.Command()
	if target != "" && h.mention != "" && "@"+strings.ToLower(target) != h.mention {
		return
	}

	switch name {
	case "start", "help":
		h.reply(ctx, msg, groupCard(h.website()))
	case "rules":
		h.reply(ctx, msg, h.render(h.policy.Current().RulesTemplate, nil))
	case "login":
		h.reply(ctx, msg, textLoginInGroup, withoutMarkdown())
	case "register":
		h.reply(ctx, msg, textRegisterInGroup, withoutMarkdown())
	case "support":
		h.reply(ctx, msg, textSupportInGroup, withoutMarkdown())
	case "faq":
		h.reply(ctx, msg, textFAQMenu, messenger.WithKeyboard(faqKeyboard()))
	default:
		h.accountCommand(ctx, name, msg.From, msg.ChatID, msg.ID)
	}
}

// welcome greets each new human member and removes the greeting later.
func (h *Handler) welcome(ctx context.Context, msg models.Message) {
	tpl := h.policy.Current().WelcomeTemplate
	for _, member := range msg.NewChatMembers {
		if member.IsBot {
			continue
		}
		text := welcomeMember(member.FirstName, h.render(tpl, map[string]string{"name": member.FirstName}))
		id, err := h.msgr.SendText(ctx, msg.ChatID, text,
			messenger.WithKeyboard(messenger.Keyboard{{messenger.URLButton("🌐 Start Earning", h.website())}}))
		if err != nil {
			h.logger.Warn("welcome failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
			continue
		}
		messenger.DeleteAfter(h.msgr, msg.ChatID, id, h.welcomeTTL)
	}
}

// withoutMarkdown clears the parse mode set by reply.
func withoutMarkdown() messenger.Option {
	return func(o *messenger.SendOptions) { o.ParseMode = "" }
}
