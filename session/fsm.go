// Package session holds the private-chat conversation state machine and the
// per-user login tokens.
package session

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// State is where a user is inside a multi-step conversation.
type State int

const (
	Idle State = iota
	AwaitingEmail
	AwaitingPassword
	AwaitingRegUsername
	AwaitingRegEmail
	AwaitingRegPassword
	AwaitingSupportMessage
)

func (s State) String() string {
	switch s {
	case AwaitingEmail:
		return "awaiting_email"
	case AwaitingPassword:
		return "awaiting_password"
	case AwaitingRegUsername:
		return "awaiting_reg_username"
	case AwaitingRegEmail:
		return "awaiting_reg_email"
	case AwaitingRegPassword:
		return "awaiting_reg_password"
	case AwaitingSupportMessage:
		return "awaiting_support_message"
	default:
		return "idle"
	}
}

// Form collects the values typed during a conversation.
type Form struct {
	Email    string
	Password string
	Username string
	Category string
	Message  string
}

// Conversation is one user's state and collected form.
type Conversation struct {
	State State
	Form  Form
}

// InputKind tells commands, free text and button presses apart.
type InputKind int

const (
	InputText InputKind = iota
	InputCommand
	InputCallback
)

// Input is one private-chat event. Value is the command name without the
// slash, the message text or the callback data.
type Input struct {
	Kind  InputKind
	Value string
}

func Command(name string) Input  { return Input{Kind: InputCommand, Value: name} }
func Text(text string) Input     { return Input{Kind: InputText, Value: text} }
func Callback(data string) Input { return Input{Kind: InputCallback, Value: data} }

// Action is backend work the caller must perform after a step.
type Action int

const (
	ActionNone Action = iota
	ActionLogin
	ActionRegister
	ActionSupportTicket
)

// Step is the outcome of one transition.
type Step struct {
	// Handled is false when the input does not belong to a conversation.
	Handled bool
	Next    Conversation
	Reply   string
	// EditReply asks for the reply to replace the message that carried the button.
	EditReply   bool
	Action      Action
	Form        Form
	DeleteInput bool
}

const DefaultSupportCategory = "general"

const (
	ReplyLoginPrompt      = "📧 **Login to EarnQuest**\n\nPlease enter your email address:"
	ReplyLoginButton      = "📧 Enter your email:"
	ReplyInvalidEmail     = "❌ Invalid email. Please try again:"
	ReplyPasswordPrompt   = "🔐 Now enter your password:"
	ReplyRegisterPrompt   = "📝 **Create your EarnQuest account!**\n\nChoose a username (letters, numbers, underscores):"
	ReplyRegisterButton   = "👤 Choose a username:"
	ReplyInvalidUsername  = "❌ Invalid username. Min 3 chars, letters/numbers/underscores:"
	ReplyRegEmailPrompt   = "📧 Enter your email address:"
	ReplyRegPasswordAsk   = "🔐 Create a password (min 6 characters):"
	ReplyPasswordTooShort = "❌ Password too short. Min 6 characters:"
	ReplyCancelled        = "❌ Cancelled."
)

var (
	emailPattern    = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
	usernamePattern = regexp.MustCompile(`^\w+$`)
)

// ValidEmail applies the sign-in email check.
func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

// ValidUsername requires at least 3 word characters.
func ValidUsername(s string) bool {
	return utf8.RuneCountInString(s) >= 3 && usernamePattern.MatchString(s)
}

// ValidPassword requires at least 6 characters.
func ValidPassword(s string) bool { return utf8.RuneCountInString(s) >= 6 }

// CategoryTitle capitalises each word of a support category.
func CategoryTitle(category string) string {
	words := strings.Fields(strings.ReplaceAll(category, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// SupportPrompt asks for the issue text once a category is chosen.
func SupportPrompt(category string) string {
	return "📝 **Support - " + CategoryTitle(category) + "**\n\n" +
		"Please describe your issue in detail:\n" +
		"• What were you trying to do?\n" +
		"• What happened?\n" +
		"• Any error messages?\n\n" +
		"Type /cancel to exit."
}

// Transition is the whole conversation state machine. It performs no I/O.
func Transition(cur Conversation, in Input) Step {
	// entry points win over whatever state the user was in
	switch in.Kind {
	case InputCommand:
		switch in.Value {
		case "login":
			return enter(AwaitingEmail, ReplyLoginPrompt, false)
		case "register":
			return enter(AwaitingRegUsername, ReplyRegisterPrompt, false)
		case "support":
			return Step{
				Handled: true,
				Next:    Conversation{State: AwaitingSupportMessage, Form: Form{Category: DefaultSupportCategory}},
			}
		case "cancel":
			if cur.State == Idle {
				return Step{Next: cur}
			}
			return Step{Handled: true, Next: Conversation{}, Reply: ReplyCancelled}
		}
		// other commands leave the conversation untouched
		return Step{Next: cur}

	case InputCallback:
		switch {
		case in.Value == "start_login":
			return enter(AwaitingEmail, ReplyLoginButton, false)
		case in.Value == "start_register":
			return enter(AwaitingRegUsername, ReplyRegisterButton, false)
		case strings.HasPrefix(in.Value, "support_"):
			category := strings.TrimPrefix(in.Value, "support_")
			if category == "" {
				category = DefaultSupportCategory
			}
			return Step{
				Handled:   true,
				Next:      Conversation{State: AwaitingSupportMessage, Form: Form{Category: category}},
				Reply:     SupportPrompt(category),
				EditReply: true,
			}
		}
		return Step{Next: cur}
	}

	return onText(cur, in.Value)
}

func enter(state State, reply string, edit bool) Step {
	return Step{Handled: true, Next: Conversation{State: state}, Reply: reply, EditReply: edit}
}

func onText(cur Conversation, text string) Step {
	form := cur.Form
	trimmed := strings.TrimSpace(text)

	switch cur.State {
	case AwaitingEmail:
		if !ValidEmail(trimmed) {
			return Step{Handled: true, Next: cur, Reply: ReplyInvalidEmail}
		}
		form.Email = trimmed
		return Step{Handled: true, Next: Conversation{State: AwaitingPassword, Form: form}, Reply: ReplyPasswordPrompt}

	case AwaitingPassword:
		form.Password = text
		return Step{Handled: true, Next: Conversation{}, Action: ActionLogin, Form: form, DeleteInput: true}

	case AwaitingRegUsername:
		if !ValidUsername(trimmed) {
			return Step{Handled: true, Next: cur, Reply: ReplyInvalidUsername}
		}
		form.Username = trimmed
		return Step{Handled: true, Next: Conversation{State: AwaitingRegEmail, Form: form}, Reply: ReplyRegEmailPrompt}

	case AwaitingRegEmail:
		if !ValidEmail(trimmed) {
			return Step{Handled: true, Next: cur, Reply: ReplyInvalidEmail}
		}
		form.Email = trimmed
		return Step{Handled: true, Next: Conversation{State: AwaitingRegPassword, Form: form}, Reply: ReplyRegPasswordAsk}

	case AwaitingRegPassword:
		if !ValidPassword(text) {
			return Step{Handled: true, Next: cur, Reply: ReplyPasswordTooShort, DeleteInput: true}
		}
		form.Password = text
		return Step{Handled: true, Next: Conversation{}, Action: ActionRegister, Form: form, DeleteInput: true}

	case AwaitingSupportMessage:
		if form.Category == "" {
			form.Category = DefaultSupportCategory
		}
		form.Message = text
		return Step{Handled: true, Next: Conversation{}, Action: ActionSupportTicket, Form: form}
	}

	return Step{Next: cur}
}
