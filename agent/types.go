package agent

import (
	"context"
	"errors"
	"time"

	"github.com/nachoal/bolt-agent-go/annotation"
	"github.com/nachoal/bolt-agent-go/attachment"
	"github.com/nachoal/bolt-agent-go/render"
)

// Role is who authored a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	// ErrBusy is returned when a message is sent while a reply is still streaming.
	ErrBusy = errors.New("a reply is already in progress")
	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message is empty")
)

// Turn is one entry of the displayed transcript. Assistant turns hold the
// raw reply, annotation lines included.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
	// Error marks an assistant turn produced from a failed request.
	Error bool
}

// Reply is a completed assistant reply
type Reply struct {
	Raw         string
	Annotations annotation.Result
	Plan        render.Plan
}

// StreamEvent represents an event in the response stream
type StreamEvent struct {
	Type EventType
	// Content is the chunk just received.
	Content string
	// Text is everything received so far.
	Text  string
	Reply *Reply
	Error error
}

// EventType represents the type of stream event
type EventType string

const (
	EventTypeChunk    EventType = "chunk"
	EventTypeError    EventType = "error"
	EventTypeComplete EventType = "complete"
)

// Agent is the conversation contract used by the front-ends
type Agent interface {
	// Send streams the reply to one user message. The channel carries chunks
	// followed by exactly one complete or error event.
	Send(ctx context.Context, text string) (<-chan StreamEvent, error)

	// Ask sends a message and blocks until the reply is complete
	Ask(ctx context.Context, text string, onChunk func(string)) (*Reply, error)

	// Attach extracts a file into the context store
	Attach(name string, data []byte) (attachment.Attachment, error)

	// AttachFile reads and attaches a local file
	AttachFile(path string) (attachment.Attachment, error)

	// Attachment returns the current attachment, or nil
	Attachment() attachment.Attachment

	// ClearAttachment drops the current attachment
	ClearAttachment()

	// Turns returns a copy of the transcript
	Turns() []Turn

	// Restore replaces the transcript with a saved one
	Restore(turns []Turn) error

	// Reset starts a fresh conversation
	Reset() error

	// Persona returns the bot persona
	Persona() Persona
}
