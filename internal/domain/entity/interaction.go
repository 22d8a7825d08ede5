package entity

import (
	"strings"
	"time"
	"unicode"
)

// EventType classifies a normalized inbound gateway event.
type EventType string

const (
	// EventInteractionCreate is an interaction (button click, command, modal).
	EventInteractionCreate EventType = "INTERACTION_CREATE"
	// EventOther is anything the bus does not care about.
	EventOther EventType = "OTHER"
)

// AckHandle carries the platform correlation tokens needed to acknowledge
// one interaction. It must be used exactly once.
type AckHandle struct {
	InteractionID string
	Token         string
}

// InteractionEvent is an inbound event normalized by a platform adapter.
type InteractionEvent struct {
	Type      EventType
	ChannelID string
	MessageID string
	UserID    string

	// CustomID is the clicked button identifier. HasCustomID is false when
	// the payload did not carry one (slash commands, modals).
	CustomID    string
	HasCustomID bool

	Ack        AckHandle
	ReceivedAt time.Time
}

// IsButtonClickOn reports whether e is a button click on the given message.
func (e InteractionEvent) IsButtonClickOn(channelID, messageID string) bool {
	return e.Type == EventInteractionCreate &&
		e.HasCustomID &&
		e.MessageID == messageID &&
		(channelID == "" || e.ChannelID == "" || e.ChannelID == channelID)
}

// WaitResult is the outcome of waiting for a click: an event or a timeout.
type WaitResult struct {
	Event    InteractionEvent
	TimedOut bool
}

// Received creates a WaitResult holding an event.
func Received(evt InteractionEvent) WaitResult {
	return WaitResult{Event: evt}
}

// TimedOutResult creates a WaitResult signalling the deadline passed.
func TimedOutResult() WaitResult {
	return WaitResult{TimedOut: true}
}

// Invocation binds a session to the conversation that started it.
type Invocation struct {
	ChannelID string
	UserID    string
}

// Validate checks both identifiers are present.
func (i Invocation) Validate() error {
	if i.ChannelID == "" || i.UserID == "" {
		return ErrInvalidTarget
	}
	return nil
}

// Command is a text command typed by a user, normalized by an adapter.
type Command struct {
	Name      string
	Args      string
	ChannelID string
	UserID    string
	UserName  string
}

// ParseCommand splits a prefixed text command into its name and arguments.
// ok is false when text does not start with prefix or names no command.
func ParseCommand(prefix, text string) (name, args string, ok bool) {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(text, prefix))
	if rest == "" {
		return "", "", false
	}
	name, args = rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], strings.TrimSpace(rest[i:])
	}
	return strings.ToLower(name), args, true
}
