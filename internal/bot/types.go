package bot

import (
	"context"
	"strings"
	"unicode"
)

// Callback data carried by inline buttons.
const (
	CallbackStartAssessment   = "start_assessment"
	CallbackDeclineAssessment = "decline_assessment"
	CallbackUnsubscribe       = "unsubscribe"
	CallbackStay              = "stay"
)

// Button is an inline choice under a message.
type Button struct {
	Text string
	Data string
}

// MessageRef identifies a sent message so it can be edited.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Reply is an outgoing message.
type Reply struct {
	ChatID int64
	Text   string

	// Markdown renders Text with the transport's Markdown dialect.
	Markdown bool

	// Buttons are shown in one row under the message.
	Buttons []Button

	// Edit, when set, replaces the text of an earlier message instead of
	// sending a new one.
	Edit *MessageRef
}

// Messenger delivers replies for one transport.
type Messenger interface {
	Send(ctx context.Context, r Reply) (MessageRef, error)
}

// Incoming is one update from a transport: a text message, a command or a
// button press.
type Incoming struct {
	UserID int64
	ChatID int64
	Name   string

	// Text is the raw message text.
	Text string

	// Command is the lowercased command name without the slash, empty for
	// plain text. Args is the rest of the message.
	Command string
	Args    string

	// Callback is the data of a pressed button. Message is the message the
	// button was attached to.
	Callback string
	Message  *MessageRef
}

// ParseCommand splits "/cmd@botname rest" into ("cmd", "rest"). Text that
// is not a command returns empty strings.
func ParseCommand(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) == 1 {
		return "", ""
	}
	head, rest := text[1:], ""
	if i := strings.IndexFunc(head, unicode.IsSpace); i >= 0 {
		head, rest = head[:i], head[i+1:]
	}
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// TextMessage builds an Incoming for a typed line, recognising commands.
func TextMessage(userID, chatID int64, name, text string) Incoming {
	cmd, args := ParseCommand(text)
	return Incoming{UserID: userID, ChatID: chatID, Name: name, Text: text, Command: cmd, Args: args}
}
