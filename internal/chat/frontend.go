// Package chat provides a transport-neutral interface for chat frontends.
package chat

import (
	"context"
	"net/http"
)

// EventKind distinguishes the inbound event shapes the core handles.
type EventKind int

const (
	// EventCommand is a command selection (slash command or menu button)
	EventCommand EventKind = iota
	// EventText is a free-text message
	EventText
	// EventCallback is an inline-button press on an existing message
	EventCallback
)

// Event is a normalized inbound user event from any frontend.
type Event struct {
	Kind         EventKind
	UserID       string
	ChatID       string
	MessageID    string // for callbacks: the message carrying the pressed button
	Text         string
	Command      string // set for EventCommand
	CallbackID   string // set for EventCallback
	CallbackData string // set for EventCallback
}

// Button is an inline action button attached to an outgoing message. Either
// URL or Data is set, never both.
type Button struct {
	Text string
	URL  string
	Data string
}

// Frontend is the unified send/edit contract the core depends on. The core
// never sees rendering markup; it hands over text and button rows.
type Frontend interface {
	// Start initializes the frontend.
	Start(ctx context.Context) error

	// Listen blocks, delivering inbound events to the handler. Delivery is
	// serialized per user.
	Listen(ctx context.Context, handler func(*Event)) error

	// SendMessage sends a new message and returns its ID. A nil buttons
	// slice lets the frontend attach its default composer affordances.
	SendMessage(ctx context.Context, chatID, text string, buttons [][]Button) (string, error)

	// EditMessage replaces an existing message's text and buttons.
	EditMessage(ctx context.Context, chatID, messageID, text string, buttons [][]Button) error

	// AnswerCallback acknowledges a button press, optionally with a toast.
	AnswerCallback(ctx context.Context, callbackID, text string) error

	// SendDirectMessage sends a direct message to a user.
	SendDirectMessage(ctx context.Context, userID, text string) (string, error)

	// WebhookHandler exposes the frontend's inbound webhook endpoint, or nil
	// when the frontend polls.
	WebhookHandler() http.Handler
}
