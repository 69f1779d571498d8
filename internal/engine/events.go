package engine

import "github.com/set-night/cardtask/internal/domain"

// User identifies the author of an inbound event. Private chats only:
// the chat id equals the user id.
type User struct {
	ID        int64
	Username  string
	FirstName string
}

// Event is an inbound conversation event. Raw updates are turned into
// exactly one Event at the transport boundary.
type Event interface {
	isEvent()
}

// Command is a slash command, without the leading slash.
type Command struct {
	Name string
}

// ButtonPress is an inline button press, already parsed into an Intent.
type ButtonPress struct {
	Intent domain.Intent
}

// TextMessage is free-form text that matched no button label.
type TextMessage struct {
	Body string
}

// Attachment is a photo or document with an optional caption.
type Attachment struct {
	FileID  string
	Caption string
}

func (Command) isEvent()     {}
func (ButtonPress) isEvent() {}
func (TextMessage) isEvent() {}
func (Attachment) isEvent()  {}
