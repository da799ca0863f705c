package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	"earnquest-bot/messenger"
	"earnquest-bot/models"
	"earnquest-bot/moderation"
	"earnquest-bot/session"
	"earnquest-bot/templates"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Moderator decides and enforces the verdict for a group message.
type Moderator interface {
	Moderate(ctx context.Context, msg models.Message) moderation.Verdict
}

// Responder answers free-text questions in groups.
type Responder interface {
	Respond(text string, addressed bool) (string, bool)
}

// PolicySource provides the active templates and knowledge base.
type PolicySource interface {
	Current() *models.PolicySnapshot
}

// Reporter receives audit events.
type Reporter interface {
	Report(ctx context.Context, ev models.Event)
}

// AccountAPI is the part of the backend the private-chat assistant uses.
type AccountAPI interface {
	Login(ctx context.Context, email, password string) (models.LoginResult, error)
	Register(ctx context.Context, username, email, password string) (models.Registration, error)
	Profile(ctx context.Context, token string) (models.Profile, error)
	DashboardStats(ctx context.Context, token string) (models.DashboardStats, error)
	ReferralInfo(ctx context.Context, token string) (models.ReferralInfo, error)
	TopEarners(ctx context.Context, token string) ([]models.Earner, error)
	Offerwalls(ctx context.Context, token string) ([]models.Offerwall, error)
	Tasks(ctx context.Context, token string) ([]models.Task, error)
	CreateTicket(ctx context.Context, token, subject, message, category string) (models.Ticket, error)
}

// Deps wires a Handler.
type Deps struct {
	Messenger  messenger.Messenger
	Moderator  Moderator
	Responder  Responder
	Policy     PolicySource
	Renderer   *templates.Renderer
	Account    AccountAPI
	Sessions   *session.Manager
	Reporter   Reporter
	BotID      int64
	BotName    string
	WelcomeTTL time.Duration
	// UpdateTimeout bounds the work done for one update, including after
	// polling has stopped.
	UpdateTimeout time.Duration
	Logger        *zap.Logger
}

// Handler routes converted updates to the group and private-chat features.
type Handler struct {
	msgr       messenger.Messenger
	moderator  Moderator
	responder  Responder
	policy     PolicySource
	renderer   *templates.Renderer
	account    AccountAPI
	sessions   *session.Manager
	reporter   Reporter
	botID      int64
	mention    string
	welcomeTTL time.Duration
	logger     *zap.Logger

	updateTimeout time.Duration
	mu            sync.Mutex
	draining      bool
	inflight      sync.WaitGroup
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.WelcomeTTL <= 0 {
		d.WelcomeTTL = 60 * time.Second
	}
	if d.UpdateTimeout <= 0 {
		d.UpdateTimeout = 30 * time.Second
	}
	if d.Sessions == nil {
		d.Sessions = session.NewManager(nil)
	}
	mention := ""
	if d.BotName != "" {
		mention = "@" + strings.ToLower(d.BotName)
	}
	return &Handler{
		msgr:       d.Messenger,
		moderator:  d.Moderator,
		responder:  d.Responder,
		policy:     d.Policy,
		renderer:   d.Renderer,
		account:    d.Account,
		sessions:   d.Sessions,
		reporter:   d.Reporter,
		botID:      d.BotID,
		mention:    mention,
		welcomeTTL: d.WelcomeTTL,
		logger:     d.Logger.Named("handlers"),

		updateTimeout: d.UpdateTimeout,
	}
}

// Register installs the handler on the Telegram client. Every update goes
// through Update.
func (h *Handler) Register(api *bot.Bot) {
	api.RegisterHandlerMatchFunc(func(*tgmodels.Update) bool { return true }, h.Update)
}

// Update is a go-telegram handler func. The client runs it on its own
// goroutine with the polling context; the work continues on a detached
// context so a shutdown lets the current update finish. Drain waits for it.
func (h *Handler) Update(ctx context.Context, _ *bot.Bot, update *tgmodels.Update) {
	if !h.track() {
		h.logger.Debug("dropping update during shutdown", zap.Int64("update_id", update.ID))
		return
	}
	defer h.inflight.Done()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.updateTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		h.HandleMessage(ctx, messenger.ConvertMessage(update.Message))
	case update.CallbackQuery != nil:
		h.HandleCallback(ctx, messenger.ConvertCallback(update.CallbackQuery))
	}
}

func (h *Handler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draining {
		return false
	}
	h.inflight.Add(1)
	return true
}

// Drain stops accepting updates and waits up to timeout for the ones in
// flight. It reports whether they all finished.
func (h *Handler) Drain(timeout time.Duration) bool {
	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// HandleMessage dispatches one inbound message.
func (h *Handler) HandleMessage(ctx context.Context, msg models.Message) {
	if msg.From.IsBot {
		return
	}
	switch {
	case msg.ChatType.IsGroup():
		h.handleGroup(ctx, msg)
	case msg.ChatType == models.ChatPrivate:
		h.handlePrivate(ctx, msg)
	}
}

func (h *Handler) website() string {
	if h.renderer == nil {
		return ""
	}
	return h.renderer.Website
}

func (h *Handler) supportEmail() string {
	if h.renderer == nil {
		return ""
	}
	return h.renderer.Email
}

func (h *Handler) render(tpl string, extras map[string]string) string {
	if h.renderer == nil {
		return tpl
	}
	return h.renderer.Render(tpl, extras)
}

// reply sends text to the message's chat as a Markdown reply.
func (h *Handler) reply(ctx context.Context, msg models.Message, text string, opts ...messenger.Option) int {
	opts = append([]messenger.Option{messenger.Markdown(), messenger.ReplyTo(msg.ID)}, opts...)
	id, err := h.msgr.SendText(ctx, msg.ChatID, text, opts...)
	if err != nil {
		h.logger.Warn("reply failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
	return id
}

// send posts text to chatID without threading.
func (h *Handler) send(ctx context.Context, chatID int64, text string, opts ...messenger.Option) int {
	id, err := h.msgr.SendText(ctx, chatID, text, opts...)
	if err != nil {
		h.logger.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return id
}

func (h *Handler) edit(ctx context.Context, chatID int64, messageID int, text string, opts ...messenger.Option) {
	if messageID == 0 {
		h.send(ctx, chatID, text, opts...)
		return
	}
	if err := h.msgr.EditText(ctx, chatID, messageID, text, opts...); err != nil {
		h.logger.Warn("edit failed", zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
	}
}

func (h *Handler) report(ctx context.Context, ev models.Event) {
	if h.reporter != nil {
		h.reporter.Report(ctx, ev)
	}
}
