package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nachoal/bolt-agent-go/annotation"
	"github.com/nachoal/bolt-agent-go/attachment"
	"github.com/nachoal/bolt-agent-go/extract"
	"github.com/nachoal/bolt-agent-go/llm"
	"github.com/nachoal/bolt-agent-go/prompt"
	"github.com/nachoal/bolt-agent-go/render"
)

const (
	errorReplyPrefix = "Sorry, I ran into an issue: "
	eventBufferSize  = 64
)

// Session is a single conversation with the model
type Session struct {
	client    llm.Client
	persona   Persona
	store     *attachment.Store
	extractor extract.Extractor
	planner   render.Planner
	archiver  Archiver
	logger    *zap.Logger

	mu       sync.Mutex
	turns    []Turn
	dialogue llm.Dialogue
	busy     bool
}

// Option is a functional option for configuring the session
type Option func(*Session)

// WithPersona sets the bot persona
func WithPersona(p Persona) Option {
	return func(s *Session) {
		s.persona = p
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithArchiver saves the transcript after every turn
func WithArchiver(a Archiver) Option {
	return func(s *Session) {
		s.archiver = a
	}
}

// New creates a new conversation session
func New(client llm.Client, opts ...Option) *Session {
	s := &Session{
		client:    client,
		persona:   DefaultPersona(""),
		store:     attachment.NewStore(),
		extractor: extract.New(),
		logger:    zap.NewNop(),
		turns:     []Turn{},
	}

	for _, opt := range opts {
		opt(s)
	}
	s.planner = render.NewPlanner(s.persona.Name)

	return s
}

// Persona returns the bot persona
func (s *Session) Persona() Persona {
	return s.persona
}

// Send appends the user turn and streams the assistant reply.
func (s *Session) Send(ctx context.Context, text string) (<-chan StreamEvent, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	s.turns = append(s.turns, Turn{Role: RoleUser, Content: text, Timestamp: time.Now()})
	s.mu.Unlock()

	current := s.store.Current()
	events := make(chan StreamEvent, eventBufferSize)

	go func() {
		defer close(events)
		defer func() {
			s.mu.Lock()
			s.busy = false
			s.mu.Unlock()
		}()

		reply, err := s.stream(ctx, text, current, events)
		if err != nil {
			s.fail(ctx, err, events)
			return
		}

		s.appendTurn(Turn{Role: RoleAssistant, Content: reply.Raw, Timestamp: time.Now()})
		s.logger.Info("reply complete",
			zap.Int("reply_len", len(reply.Raw)),
			zap.Int("image_urls", len(reply.Annotations.DirectImageURLs)),
			zap.Int("search_terms", len(reply.Annotations.SearchTerms)),
			zap.Int("dropped_images", reply.Plan.Dropped),
		)
		emit(ctx, events, StreamEvent{Type: EventTypeComplete, Text: reply.Raw, Reply: reply})
	}()

	return events, nil
}

// stream runs one request and returns the finished reply. The reply is
// parsed only after the last chunk has arrived.
func (s *Session) stream(ctx context.Context, text string, current attachment.Attachment, events chan<- StreamEvent) (*Reply, error) {
	dialogue, err := s.ensureDialogue(ctx)
	if err != nil {
		return nil, err
	}

	parts := prompt.Assemble(text, current)
	s.logger.Debug("sending turn",
		zap.Int("parts", len(parts)),
		zap.String("attachment", attachmentName(current)),
	)

	stream, err := dialogue.SendStream(ctx, parts)
	if err != nil {
		return nil, err
	}

	var full strings.Builder
	for ev := range stream {
		if ev.Err != nil {
			// Drain so the provider goroutine can exit.
			for range stream {
			}
			return nil, ev.Err
		}
		if ev.Text == "" {
			continue
		}
		full.WriteString(ev.Text)
		emit(ctx, events, StreamEvent{Type: EventTypeChunk, Content: ev.Text, Text: full.String()})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := full.String()
	res := annotation.Parse(raw)
	return &Reply{Raw: raw, Annotations: res, Plan: s.planner.Plan(res)}, nil
}

// fail records exactly one error turn for a failed request.
func (s *Session) fail(ctx context.Context, err error, events chan<- StreamEvent) {
	if errors.Is(err, context.Canceled) {
		s.logger.Info("reply cancelled")
	} else {
		s.logger.Error("reply failed", zap.Error(err))
	}

	s.appendTurn(Turn{
		Role:      RoleAssistant,
		Content:   errorReplyPrefix + explain(err),
		Timestamp: time.Now(),
		Error:     true,
	})
	emit(ctx, events, StreamEvent{Type: EventTypeError, Error: err})
}

func (s *Session) ensureDialogue(ctx context.Context) (llm.Dialogue, error) {
	s.mu.Lock()
	if s.dialogue != nil {
		d := s.dialogue
		s.mu.Unlock()
		return d, nil
	}
	// The user turn being sent is the last one and is not part of the seed.
	seed := append(s.persona.Seed(), replayable(s.turns[:len(s.turns)-1])...)
	s.mu.Unlock()

	d, err := s.client.StartDialogue(ctx, seed)
	if err != nil {
		return nil, err
	}
	s.logger.Info("dialogue started", zap.Int("seed_messages", len(seed)))

	s.mu.Lock()
	s.dialogue = d
	s.mu.Unlock()
	return d, nil
}

func (s *Session) appendTurn(t Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, t)
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	s.mu.Unlock()

	s.archive(turns)
}

func (s *Session) archive(turns []Turn) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(turns); err != nil {
		s.logger.Warn("failed to save conversation history", zap.Error(err))
	}
}

// Ask sends text and blocks until the reply completes. onChunk may be nil.
func (s *Session) Ask(ctx context.Context, text string, onChunk func(string)) (*Reply, error) {
	events, err := s.Send(ctx, text)
	if err != nil {
		return nil, err
	}

	var (
		reply   *Reply
		lastErr error
	)
	for ev := range events {
		switch ev.Type {
		case EventTypeChunk:
			if onChunk != nil {
				onChunk(ev.Content)
			}
		case EventTypeComplete:
			reply = ev.Reply
		case EventTypeError:
			lastErr = ev.Error
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	if reply == nil {
		// Cancelled before the final event could be delivered.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("reply stream ended unexpectedly")
	}
	return reply, nil
}

// Attach extracts name/data into the context store. On failure the store is
// left empty and the extraction error is returned.
func (s *Session) Attach(name string, data []byte) (attachment.Attachment, error) {
	content, err := s.extractor.Extract(name, data)
	if err != nil {
		s.store.Clear()
		s.logger.Warn("attachment rejected", zap.String("file", name), zap.Error(err))
		return nil, err
	}

	switch content.Kind {
	case extract.KindImage:
		s.store.SetImage(content.Name, content.MIMEType, content.Data)
	default:
		s.store.SetText(content.Name, content.Text)
	}

	current := s.store.Current()
	s.logger.Info("attachment set", zap.String("file", name), zap.String("context", attachment.Describe(current)))
	return current, nil
}

// AttachFile reads path from disk and attaches it under its base name
func (s *Session) AttachFile(path string) (attachment.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.Attach(filepath.Base(path), data)
}

// Attachment returns the current attachment, or nil
func (s *Session) Attachment() attachment.Attachment {
	return s.store.Current()
}

// ClearAttachment drops the current attachment
func (s *Session) ClearAttachment() {
	s.store.Clear()
}

// Turns returns a copy of the transcript
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// Restore replaces the transcript. Successful exchanges are replayed into
// the next dialogue; error turns are shown but never sent to the model.
func (s *Session) Restore(turns []Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	s.turns = make([]Turn, len(turns))
	copy(s.turns, turns)
	s.dialogue = nil
	return nil
}

// Reset clears the transcript, the dialogue and the attachment
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.turns = []Turn{}
	s.dialogue = nil
	s.mu.Unlock()

	s.store.Clear()
	if s.archiver != nil {
		s.archiver.Rotate()
	}
	s.logger.Info("conversation reset")
	return nil
}

// replayable returns the user/assistant pairs that completed successfully.
func replayable(turns []Turn) []llm.Message {
	var out []llm.Message
	for i := 0; i+1 < len(turns); i++ {
		user, reply := turns[i], turns[i+1]
		if user.Role != RoleUser || reply.Role != RoleAssistant {
			continue
		}
		if !reply.Error {
			out = append(out,
				llm.Message{Role: llm.RoleUser, Content: user.Content},
				llm.Message{Role: llm.RoleAssistant, Content: reply.Content},
			)
		}
		i++
	}
	return out
}

func explain(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out"
	default:
		return err.Error()
	}
}

func attachmentName(a attachment.Attachment) string {
	if a == nil {
		return ""
	}
	return a.Filename()
}

// emit delivers ev unless the consumer is gone and ctx is done.
func emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) {
	select {
	case events <- ev:
		return
	default:
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
