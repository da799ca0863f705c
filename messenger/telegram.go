package messenger

import (
	"context"
	"fmt"
	"time"

	"earnquest-bot/models"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// Telegram implements Messenger on top of the Bot API client.
type Telegram struct {
	api     *bot.Bot
	timeout time.Duration
}

// NewTelegram wraps api. Each call is bounded by timeout.
func NewTelegram(api *bot.Bot, timeout time.Duration) *Telegram {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Telegram{api: api, timeout: timeout}
}

func (t *Telegram) SendText(ctx context.Context, chatID int64, text string, opts ...Option) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	o := Apply(opts...)
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseMode(o.ParseMode),
	}
	if o.ReplyTo != 0 {
		params.ReplyParameters = &tgmodels.ReplyParameters{MessageID: o.ReplyTo}
	}
	if len(o.Keyboard) > 0 {
		params.ReplyMarkup = inlineKeyboard(o.Keyboard)
	}
	msg, err := t.api.SendMessage(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return msg.ID, nil
}

func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts ...Option) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	o := Apply(opts...)
	params := &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &tgmodels.InputFileString{Data: photoURL},
		Caption:   caption,
		ParseMode: tgmodels.ParseMode(o.ParseMode),
	}
	if o.ReplyTo != 0 {
		params.ReplyParameters = &tgmodels.ReplyParameters{MessageID: o.ReplyTo}
	}
	if len(o.Keyboard) > 0 {
		params.ReplyMarkup = inlineKeyboard(o.Keyboard)
	}
	msg, err := t.api.SendPhoto(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("send photo to %d: %w", chatID, err)
	}
	return msg.ID, nil
}

func (t *Telegram) EditText(ctx context.Context, chatID int64, messageID int, text string, opts ...Option) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	o := Apply(opts...)
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: tgmodels.ParseMode(o.ParseMode),
	}
	if len(o.Keyboard) > 0 {
		params.ReplyMarkup = inlineKeyboard(o.Keyboard)
	}
	if _, err := t.api.EditMessageText(ctx, params); err != nil {
		return fmt.Errorf("edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if _, err := t.api.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		return fmt.Errorf("delete message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

func (t *Telegram) Mute(ctx context.Context, chatID, userID int64, until time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	_, err := t.api.RestrictChatMember(ctx, &bot.RestrictChatMemberParams{
		ChatID:      chatID,
		UserID:      userID,
		Permissions: &tgmodels.ChatPermissions{CanSendMessages: false},
		UntilDate:   int(until.Unix()),
	})
	if err != nil {
		return fmt.Errorf("restrict user %d in %d: %w", userID, chatID, err)
	}
	return nil
}

func (t *Telegram) Ban(ctx context.Context, chatID, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if _, err := t.api.BanChatMember(ctx, &bot.BanChatMemberParams{ChatID: chatID, UserID: userID}); err != nil {
		return fmt.Errorf("ban user %d in %d: %w", userID, chatID, err)
	}
	return nil
}

func (t *Telegram) MemberRole(ctx context.Context, chatID, userID int64) (models.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	member, err := t.api.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: userID})
	if err != nil {
		return models.RoleUnknown, fmt.Errorf("get member %d in %d: %w", userID, chatID, err)
	}
	switch member.Type {
	case tgmodels.ChatMemberTypeOwner:
		return models.RoleOwner, nil
	case tgmodels.ChatMemberTypeAdministrator:
		return models.RoleAdministrator, nil
	default:
		return models.RoleMember, nil
	}
}

func (t *Telegram) AnswerCallback(ctx context.Context, callbackID string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if _, err := t.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}
	return nil
}

func inlineKeyboard(k Keyboard) *tgmodels.InlineKeyboardMarkup {
	rows := make([][]tgmodels.InlineKeyboardButton, 0, len(k))
	for _, row := range k {
		buttons := make([]tgmodels.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgmodels.InlineKeyboardButton{
				Text:         b.Text,
				URL:          b.URL,
				CallbackData: b.Data,
			})
		}
		rows = append(rows, buttons)
	}
	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// ConvertMessage maps a Bot API message onto the transport-neutral type.
func ConvertMessage(m *tgmodels.Message) models.Message {
	out := models.Message{
		ID:        m.ID,
		ChatID:    m.Chat.ID,
		ChatType:  models.ChatType(m.Chat.Type),
		Text:      m.Text,
		Caption:   m.Caption,
		IsForward: m.ForwardOrigin != nil,
	}
	if m.From != nil {
		out.From = convertUser(*m.From)
	}
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		out.ReplyToUserID = m.ReplyToMessage.From.ID
	}
	for _, u := range m.NewChatMembers {
		out.NewChatMembers = append(out.NewChatMembers, convertUser(u))
	}
	return out
}

// ConvertCallback maps a callback query. Callbacks on messages the bot can no
// longer access keep the chat id but lose the message id.
func ConvertCallback(q *tgmodels.CallbackQuery) models.Callback {
	out := models.Callback{
		ID:   q.ID,
		From: convertUser(q.From),
		Data: q.Data,
	}
	switch {
	case q.Message.Message != nil:
		out.ChatID = q.Message.Message.Chat.ID
		out.ChatType = models.ChatType(q.Message.Message.Chat.Type)
		out.MessageID = q.Message.Message.ID
	case q.Message.InaccessibleMessage != nil:
		out.ChatID = q.Message.InaccessibleMessage.Chat.ID
		out.ChatType = models.ChatType(q.Message.InaccessibleMessage.Chat.Type)
	}
	return out
}

func convertUser(u tgmodels.User) models.User {
	return models.User{
		ID:        u.ID,
		IsBot:     u.IsBot,
		FirstName: u.FirstName,
		Username:  u.Username,
	}
}
