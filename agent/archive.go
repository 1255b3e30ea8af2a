package agent

import (
	"sync"

	"github.com/nachoal/bolt-agent-go/history"
)

// Archiver persists the transcript after each completed turn
type Archiver interface {
	Archive(turns []Turn) error
	// Rotate starts a new transcript for the next conversation
	Rotate()
}

// HistoryArchiver stores transcripts with a history.Manager
type HistoryArchiver struct {
	manager  *history.Manager
	provider string
	model    string

	mu      sync.Mutex
	session *history.Session
}

// NewHistoryArchiver creates an archiver that writes a new session
func NewHistoryArchiver(manager *history.Manager, provider, model string) *HistoryArchiver {
	return &HistoryArchiver{
		manager:  manager,
		provider: provider,
		model:    model,
		session:  manager.StartSession(provider, model),
	}
}

// Continue makes the archiver append to an existing session
func (a *HistoryArchiver) Continue(session *history.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = session
}

// Session returns the session being written
func (a *HistoryArchiver) Session() *history.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Archive replaces the stored turns and saves the session
func (a *HistoryArchiver) Archive(turns []Turn) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.session.Turns = ToHistory(turns)
	return a.manager.SaveSession(a.session)
}

// Rotate starts a fresh session
func (a *HistoryArchiver) Rotate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = a.manager.StartSession(a.provider, a.model)
}

// ToHistory converts transcript turns for persistence
func ToHistory(turns []Turn) []history.Turn {
	out := make([]history.Turn, len(turns))
	for i, t := range turns {
		out[i] = history.Turn{
			Role:      string(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp,
			Error:     t.Error,
		}
	}
	return out
}

// FromHistory converts persisted turns back into transcript turns
func FromHistory(turns []history.Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = Turn{
			Role:      Role(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp,
			Error:     t.Error,
		}
	}
	return out
}
