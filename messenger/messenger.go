// Package messenger is the outbound side of the chat transport. Everything
// the bot does to a chat goes through the Messenger interface so that the
// moderation, broadcast and account code never import the Telegram SDK.
package messenger

import (
	"context"
	"time"

	"earnquest-bot/models"
)

// ParseModeMarkdown is the legacy Telegram Markdown flavour the bot texts are written in.
const ParseModeMarkdown = "Markdown"

// Messenger performs chat actions. Every method is a network call and may fail.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, opts ...Option) (int, error)
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts ...Option) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, opts ...Option) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	// Mute revokes the right to send messages until the given time.
	Mute(ctx context.Context, chatID, userID int64, until time.Time) error
	Ban(ctx context.Context, chatID, userID int64) error
	MemberRole(ctx context.Context, chatID, userID int64) (models.Role, error)
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Button is one inline keyboard button. Exactly one of URL or Data is set.
type Button struct {
	Text string
	URL  string
	Data string
}

// URLButton opens a link.
func URLButton(text, url string) Button {
	return Button{Text: text, URL: url}
}

// DataButton sends a callback with data back to the bot.
func DataButton(text, data string) Button {
	return Button{Text: text, Data: data}
}

// Keyboard is an inline keyboard laid out in rows.
type Keyboard [][]Button

// SendOptions collects the optional parts of an outgoing message.
type SendOptions struct {
	ParseMode string
	ReplyTo   int
	Keyboard  Keyboard
}

// Option configures an outgoing message.
type Option func(*SendOptions)

// Markdown renders the text with the legacy Markdown parse mode.
func Markdown() Option {
	return func(o *SendOptions) { o.ParseMode = ParseModeMarkdown }
}

// ReplyTo threads the message under messageID.
func ReplyTo(messageID int) Option {
	return func(o *SendOptions) { o.ReplyTo = messageID }
}

// WithKeyboard attaches an inline keyboard.
func WithKeyboard(k Keyboard) Option {
	return func(o *SendOptions) { o.Keyboard = k }
}

// Apply folds opts into a SendOptions value.
func Apply(opts ...Option) SendOptions {
	var o SendOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DeleteAfter removes a message once d has elapsed. Failures are ignored.
// The returned timer may be stopped to cancel the deletion.
func DeleteAfter(m Messenger, chatID int64, messageID int, d time.Duration) *time.Timer {
	return time.AfterFunc(d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = m.DeleteMessage(ctx, chatID, messageID)
	})
}
