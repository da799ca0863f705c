package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"earnquest-bot/backend"
	"earnquest-bot/messenger"
	"earnquest-bot/models"
	"earnquest-bot/session"

	"go.uber.org/zap"
)

func (h *Handler) login(ctx context.Context, user models.User, chatID int64, form session.Form) {
	statusID := h.send(ctx, chatID, textLoggingIn)

	res, err := h.account.Login(ctx, form.Email, form.Password)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			h.edit(ctx, chatID, statusID, "❌ "+statusErr.Message)
			return
		}
		h.logger.Warn("login request failed", zap.Int64("user_id", user.ID), zap.Error(err))
		h.edit(ctx, chatID, statusID, textLoginConnError)
		return
	}

	sess := models.Session{
		TelegramUserID: user.ID,
		Token:          res.Token,
		Username:       res.Username,
		PlatformUserID: string(res.UserID),
		Email:          form.Email,
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		h.logger.Warn("session not persisted", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	h.report(ctx, models.Event{
		Type:        models.EventLogin,
		Data:        map[string]any{"platform_user_id": string(res.UserID), "username": res.Username},
		UserID:      user.ID,
		Username:    user.Username,
		Description: fmt.Sprintf("User %s logged in via Telegram", res.Username),
	})
	h.edit(ctx, chatID, statusID, loginSuccess(res.Username), messenger.Markdown())
}

func (h *Handler) register(ctx context.Context, user models.User, chatID int64, form session.Form) {
	statusID := h.send(ctx, chatID, textCreatingAccount)

	res, err := h.account.Register(ctx, form.Username, form.Email, form.Password)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			h.edit(ctx, chatID, statusID, "❌ "+statusErr.Message)
			return
		}
		h.logger.Warn("register request failed", zap.Int64("user_id", user.ID), zap.Error(err))
		h.edit(ctx, chatID, statusID, textRegisterConnError)
		return
	}

	h.report(ctx, models.Event{
		Type:        models.EventRegistration,
		Data:        map[string]any{"platform_user_id": string(res.UserID), "username": res.Username},
		UserID:      user.ID,
		Username:    user.Username,
		Description: fmt.Sprintf("New user %s registered via Telegram", res.Username),
	})
	h.edit(ctx, chatID, statusID, registerSuccess(res.Username), messenger.Markdown())
}

// supportTicket files a ticket for logged-in users and falls back to the
// contact details otherwise.
func (h *Handler) supportTicket(ctx context.Context, user models.User, chatID int64, replyTo int, form session.Form) {
	category := form.Category
	if category == "" {
		category = session.DefaultSupportCategory
	}
	title := session.CategoryTitle(category)

	if token := h.sessions.Token(ctx, user.ID); token != "" {
		subject := "[Telegram] " + title + " Issue"
		ticket, err := h.account.CreateTicket(ctx, token, subject, form.Message, category)
		if err == nil {
			h.report(ctx, models.Event{
				Type:        models.EventSupportTicket,
				Data:        map[string]any{"ticket_id": string(ticket.ID), "category": category, "subject": subject},
				UserID:      user.ID,
				Username:    user.DisplayName(),
				Description: fmt.Sprintf("Support ticket #%s created: %s", ticket.ID, title),
			})
			h.sendTo(ctx, chatID, replyTo, ticketCreated(string(ticket.ID), title, h.website()))
			return
		}
		h.logger.Warn("ticket creation failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	h.sendTo(ctx, chatID, replyTo, messageReceived(h.supportEmail(), h.website()))
}

// accountCommand runs a display command for user. It reports false for
// names it does not know.
func (h *Handler) accountCommand(ctx context.Context, name string, user models.User, chatID int64, replyTo int) bool {
	switch name {
	case "balance":
		h.balance(ctx, user, chatID, replyTo)
	case "stats":
		h.stats(ctx, user, chatID, replyTo)
	case "referral":
		h.referral(ctx, user, chatID, replyTo)
	case "leaderboard":
		h.leaderboard(ctx, user, chatID, replyTo)
	case "offerwalls", "offers", "earn":
		h.offerwalls(ctx, user, chatID, replyTo)
	case "tasks":
		h.tasks(ctx, user, chatID, replyTo)
	case "surveys":
		h.surveys(ctx, user, chatID, replyTo)
	default:
		return false
	}
	return true
}

// sendTo sends a Markdown message, threaded under replyTo when set.
func (h *Handler) sendTo(ctx context.Context, chatID int64, replyTo int, text string, opts ...messenger.Option) int {
	base := []messenger.Option{messenger.Markdown()}
	if replyTo != 0 {
		base = append(base, messenger.ReplyTo(replyTo))
	}
	return h.send(ctx, chatID, text, append(base, opts...)...)
}

// dropExpiredLogin forgets the stored login when the backend rejected its token.
func (h *Handler) dropExpiredLogin(ctx context.Context, user models.User, err error) {
	var se *backend.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		return
	}
	if err := h.sessions.Forget(ctx, user.ID); err != nil {
		h.logger.Warn("failed to forget expired login", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	h.logger.Info("login expired", zap.Int64("user_id", user.ID))
}

func (h *Handler) balance(ctx context.Context, user models.User, chatID int64, replyTo int) {
	token := h.sessions.Token(ctx, user.ID)
	if token == "" {
		h.sendTo(ctx, chatID, replyTo, textLoginFirst)
		return
	}
	profile, err := h.account.Profile(ctx, token)
	if err != nil {
		h.logger.Debug("profile fetch failed", zap.Error(err))
		h.dropExpiredLogin(ctx, user, err)
		h.sendTo(ctx, chatID, replyTo, textBalanceFailed)
		return
	}
	h.sendTo(ctx, chatID, replyTo, balanceText(profile, h.website()))
}

func (h *Handler) stats(ctx context.Context, user models.User, chatID int64, replyTo int) {
	token := h.sessions.Token(ctx, user.ID)
	if token == "" {
		h.sendTo(ctx, chatID, replyTo, textLoginFirst)
		return
	}
	stats, err := h.account.DashboardStats(ctx, token)
	if err != nil {
		h.logger.Debug("stats fetch failed", zap.Error(err))
		h.dropExpiredLogin(ctx, user, err)
		h.sendTo(ctx, chatID, replyTo, textStatsFailed)
		return
	}
	h.sendTo(ctx, chatID, replyTo, statsText(stats, h.website()))
}

func (h *Handler) referral(ctx context.Context, user models.User, chatID int64, replyTo int) {
	token := h.sessions.Token(ctx, user.ID)
	if token == "" {
		h.sendTo(ctx, chatID, replyTo, textLoginFirst)
		return
	}
	info, err := h.account.ReferralInfo(ctx, token)
	if err != nil {
		h.logger.Debug("referral fetch failed", zap.Error(err))
		h.dropExpiredLogin(ctx, user, err)
		h.sendTo(ctx, chatID, replyTo, textReferralFailed)
		return
	}
	h.sendTo(ctx, chatID, replyTo, referralText(info))
}

func (h *Handler) leaderboard(ctx context.Context, user models.User, chatID int64, replyTo int) {
	token := h.sessions.Token(ctx, user.ID)
	if token == "" {
		h.sendTo(ctx, chatID, replyTo, textLoginFirst)
		return
	}
	top, err := h.account.TopEarners(ctx, token)
	if err != nil {
		h.logger.Debug("leaderboard fetch failed", zap.Error(err))
		h.dropExpiredLogin(ctx, user, err)
		h.sendTo(ctx, chatID, replyTo, textLeaderboardFailed)
		return
	}
	h.sendTo(ctx, chatID, replyTo, leaderboardText(top, h.website()))
}

func (h *Handler) offerwalls(ctx context.Context, user models.User, chatID int64, replyTo int) {
	token := h.sessions.Token(ctx, user.ID)
	if token == "" {
		h.sendTo(ctx, chatID, replyTo, offerwallsLoginText(h.website()))
		return
	}
	statusID := h.sendTo(ctx, chatID, replyTo, textLoadingOfferwalls)

	walls, err := h.account.Offerwalls(ctx, token)
	switch {
	case err != nil:
		h.logger.Debug("offerwalls fetch failed", zap.Error(err))
		h.edit(ctx, chatID, statusID, textOfferwallsFailed)
	case len(walls) == 0:
		h.edit(ctx, chatID, statusID, offerwallsEmptyText(h.website()), messenger.Markdown())
	default:
		text, keyboard := offerwallsText(walls, h.website())
		h.edit(ctx, chatID, statusID, text, messenger.Markdown(), messenger.WithKeyboard(keyboard))
	}
}

func (h *Handler) tasks(ctx context.Context, user models.User, chatID int64, replyTo int) {
	token := h.sessions.Token(ctx, user.ID)
	if token == "" {
		h.sendTo(ctx, chatID, replyTo, tasksLoginText(h.website()))
		return
	}
	statusID := h.sendTo(ctx, chatID, replyTo, textLoadingTasks)

	tasks, err := h.account.Tasks(ctx, token)
	switch {
	case err != nil:
		h.logger.Debug("tasks fetch failed", zap.Error(err))
		h.edit(ctx, chatID, statusID, textTasksFailed)
	case len(tasks) == 0:
		h.edit(ctx, chatID, statusID, tasksEmptyText(h.website()), messenger.Markdown())
	default:
		text, keyboard := tasksText(tasks, h.website())
		h.edit(ctx, chatID, statusID, text, messenger.Markdown(), messenger.WithKeyboard(keyboard))
	}
}

func (h *Handler) surveys(ctx context.Context, user models.User, chatID int64, replyTo int) {
	loggedIn := h.sessions.Token(ctx, user.ID) != ""
	text, keyboard := surveysText(loggedIn, h.website())
	h.sendTo(ctx, chatID, replyTo, text, messenger.WithKeyboard(keyboard))
}
