package models

import "time"

// Event types understood by the backend's /bot/events/ endpoint.
const (
	EventMessageDeleted = "message_deleted"
	EventUserWarned     = "user_warned"
	EventUserBanned     = "user_banned"
	EventUserMuted      = "user_muted"
	EventPostSent       = "post_sent"
	EventError          = "error"
	EventLogin          = "login"
	EventRegistration   = "registration"
	EventSupportTicket  = "support_ticket"
)

// Event is a structured audit record. Zero-valued optional fields are
// omitted on the wire.
type Event struct {
	Type        string         `json:"event_type"`
	Data        map[string]any `json:"data"`
	UserID      int64          `json:"telegram_user_id,omitempty"`
	Username    string         `json:"telegram_username,omitempty"`
	ChatID      int64          `json:"chat_id,omitempty"`
	Description string         `json:"description,omitempty"`
}

// JournalEntry is an event as stored in the local journal.
type JournalEntry struct {
	ID        string    `db:"id"`
	Event     Event     `db:"-"`
	Delivered bool      `db:"delivered"`
	CreatedAt time.Time `db:"created_at"`
}
