package models

import "strings"

// ChatType mirrors the Telegram chat kinds the bot cares about.
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"
)

// IsGroup reports whether the chat is a managed group candidate.
func (t ChatType) IsGroup() bool {
	return t == ChatGroup || t == ChatSupergroup
}

// Role is the sender's standing inside a chat.
type Role int

const (
	// RoleUnknown means the lookup failed and privilege cannot be determined.
	RoleUnknown Role = iota
	RoleMember
	RoleAdministrator
	RoleOwner
)

// Privileged reports whether the role is exempt from moderation.
func (r Role) Privileged() bool {
	return r == RoleAdministrator || r == RoleOwner
}

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdministrator:
		return "administrator"
	case RoleOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// User represents a chat participant.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// DisplayName returns the username when set, otherwise the first name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// Message represents an inbound chat message, already converted from the transport's update type.
type Message struct {
	ID             int      `json:"id"`
	ChatID         int64    `json:"chat_id"`
	ChatType       ChatType `json:"chat_type"`
	From           User     `json:"from"`
	Text           string   `json:"text,omitempty"`
	Caption        string   `json:"caption,omitempty"`
	IsForward      bool     `json:"is_forward"`
	ReplyToUserID  int64    `json:"reply_to_user_id,omitempty"` // author of the replied-to message, 0 if none
	NewChatMembers []User   `json:"new_chat_members,omitempty"`
}

// Body returns the text, falling back to the caption for media messages.
func (m Message) Body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// IsCommand reports whether the message text is a slash command.
func (m Message) IsCommand() bool {
	return strings.HasPrefix(m.Text, "/")
}

// Command splits "/cmd@bot args" into its lowercased name, the addressed bot handle and the arguments.
func (m Message) Command() (name, target, args string) {
	if !m.IsCommand() {
		return "", "", ""
	}
	head, rest, _ := strings.Cut(m.Text, " ")
	head = strings.TrimPrefix(head, "/")
	name, target, _ = strings.Cut(head, "@")
	return strings.ToLower(name), target, strings.TrimSpace(rest)
}

// Callback represents an inline keyboard button press.
type Callback struct {
	ID        string   `json:"id"`
	From      User     `json:"from"`
	ChatID    int64    `json:"chat_id"`
	ChatType  ChatType `json:"chat_type"`
	MessageID int      `json:"message_id"`
	Data      string   `json:"data"`
}
