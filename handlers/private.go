package handlers

import (
	"context"
	"strings"

	"earnquest-bot/messenger"
	"earnquest-bot/models"
	"earnquest-bot/session"

	"go.uber.org/zap"
)

// handlePrivate serves the account assistant.
func (h *Handler) handlePrivate(ctx context.Context, msg models.Message) {
	if !msg.IsCommand() {
		if msg.Text == "" {
			return
		}
		step := h.sessions.Advance(msg.From.ID, session.Text(msg.Text))
		if step.Handled {
			h.applyStep(ctx, msg.From, msg.ChatID, msg.ID, 0, step)
		}
		return
	}

	name, _, _ := msg.Command()
	switch name {
	case "start", "help":
		h.send(ctx, msg.ChatID, privateWelcome(msg.From.FirstName),
			messenger.Markdown(), messenger.ReplyTo(msg.ID), messenger.WithKeyboard(startKeyboard(h.website())))
	case "login", "register", "cancel":
		step := h.sessions.Advance(msg.From.ID, session.Command(name))
		if step.Handled {
			h.applyStep(ctx, msg.From, msg.ChatID, msg.ID, 0, step)
		}
	case "support":
		h.sessions.Advance(msg.From.ID, session.Command(name))
		h.reply(ctx, msg, textSupportMenu, messenger.WithKeyboard(supportKeyboard()))
	case "faq":
		h.reply(ctx, msg, textFAQMenu, messenger.WithKeyboard(faqKeyboard()))
	default:
		h.accountCommand(ctx, name, msg.From, msg.ChatID, msg.ID)
	}
}

// applyStep performs the chat side of a conversation step and runs its action.
// inputID is the user's message, buttonID the message that carried a pressed button.
func (h *Handler) applyStep(ctx context.Context, user models.User, chatID int64, inputID, buttonID int, step session.Step) {
	if step.DeleteInput && inputID != 0 {
		if err := h.msgr.DeleteMessage(ctx, chatID, inputID); err != nil {
			h.logger.Debug("could not delete password message", zap.Error(err))
		}
	}

	if step.Reply != "" {
		opts := []messenger.Option{}
		if strings.Contains(step.Reply, "**") {
			opts = append(opts, messenger.Markdown())
		}
		if step.EditReply && buttonID != 0 {
			h.edit(ctx, chatID, buttonID, step.Reply, opts...)
		} else {
			h.send(ctx, chatID, step.Reply, opts...)
		}
	}

	switch step.Action {
	case session.ActionLogin:
		h.login(ctx, user, chatID, step.Form)
	case session.ActionRegister:
		h.register(ctx, user, chatID, step.Form)
	case session.ActionSupportTicket:
		h.supportTicket(ctx, user, chatID, inputID, step.Form)
	}
}
