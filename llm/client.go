package llm

import (
	"context"
)

// Client defines the interface for model providers
type Client interface {
	// StartDialogue opens a persistent conversation seeded with the given turns.
	// The seed is sent once; later turns are tracked by the returned Dialogue.
	StartDialogue(ctx context.Context, seed []Message) (Dialogue, error)

	// Close cleans up any resources
	Close() error
}

// Dialogue is the provider-held conversational state across turns
type Dialogue interface {
	// SendStream sends one user turn made of ordered parts and streams the reply.
	// The channel is closed after the last event. A failure is delivered as an
	// event with Err set, after which no further events are sent.
	SendStream(ctx context.Context, parts []Part) (<-chan StreamEvent, error)
}

// StreamEvent is a single incremental piece of a streamed reply
type StreamEvent struct {
	Text string
	Err  error
}
