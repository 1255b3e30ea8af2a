package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	metaFile      = "meta.json"
	formatVersion = "1.0"
	titleLimit    = 50
)

// ErrNoSessions is returned when there is nothing to continue from
var ErrNoSessions = errors.New("no saved sessions")

// ErrInvalidSessionID is returned for IDs that are not session UUIDs
var ErrInvalidSessionID = errors.New("invalid session id")

// Manager handles conversation history persistence
type Manager struct {
	sessionsDir string
	metaPath    string
	mu          sync.RWMutex
}

// NewManager creates a history manager storing sessions under dir
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".bolt", "sessions")
	}

	m := &Manager{
		sessionsDir: dir,
		metaPath:    filepath.Join(dir, metaFile),
	}

	// Create directory
	if err := os.MkdirAll(m.sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	// Initialize meta if not exists
	if _, err := os.Stat(m.metaPath); os.IsNotExist(err) {
		if err := m.saveMeta(&MetaIndex{Version: formatVersion}); err != nil {
			return nil, fmt.Errorf("failed to initialize meta index: %w", err)
		}
	}

	return m, nil
}

// Dir returns the sessions directory
func (m *Manager) Dir() string {
	return m.sessionsDir
}

// StartSession creates a new, unsaved session
func (m *Manager) StartSession(provider, model string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Version:   formatVersion,
		CreatedAt: now,
		UpdatedAt: now,
		Provider:  provider,
		Model:     model,
		Turns:     []Turn{},
	}
}

// SaveSession saves a session to disk and marks it as the last one
func (m *Manager) SaveSession(session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.UpdatedAt = time.Now()

	// Generate title if empty
	if session.Metadata.Title == "" {
		session.Metadata.Title = generateTitle(session)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	filename := filepath.Join(m.sessionsDir, session.ID+".json")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	meta, err := m.loadMeta()
	if err != nil {
		return fmt.Errorf("failed to load meta: %w", err)
	}

	meta.LastSession = session.ID
	if err := m.saveMeta(meta); err != nil {
		return fmt.Errorf("failed to save meta: %w", err)
	}

	return nil
}

// LoadSession loads a session from disk
func (m *Manager) LoadSession(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readSession(filepath.Join(m.sessionsDir, id+".json"))
}

// LastSession returns the most recently saved session
func (m *Manager) LastSession() (*Session, error) {
	meta, err := m.loadMeta()
	if err != nil {
		return nil, fmt.Errorf("failed to load meta: %w", err)
	}
	if meta.LastSession == "" {
		return nil, ErrNoSessions
	}
	return m.LoadSession(meta.LastSession)
}

// ListSessions returns all saved sessions, most recently updated first
func (m *Manager) ListSessions() ([]SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := os.ReadDir(m.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	sessions := []SessionInfo{}
	for _, e := range entries {
		if e.IsDir() || e.Name() == metaFile || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		session, err := m.readSession(filepath.Join(m.sessionsDir, e.Name()))
		if err != nil {
			continue
		}
		sessions = append(sessions, SessionInfo{
			ID:        session.ID,
			Title:     session.Metadata.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
			Turns:     len(session.Turns),
			Provider:  session.Provider,
			Model:     session.Model,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

// Private methods

func (m *Manager) readSession(filename string) (*Session, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (m *Manager) loadMeta() (*MetaIndex, error) {
	data, err := os.ReadFile(m.metaPath)
	if err != nil {
		return nil, err
	}

	var meta MetaIndex
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (m *Manager) saveMeta(meta *MetaIndex) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(m.metaPath, data, 0644)
}

func generateTitle(session *Session) string {
	// Find first user turn
	for _, turn := range session.Turns {
		if turn.Role == "user" {
			content := turn.Content
			if idx := strings.IndexByte(content, '\n'); idx != -1 {
				content = content[:idx]
			}
			r := []rune(content)
			if len(r) > titleLimit {
				content = string(r[:titleLimit-3]) + "..."
			}
			return content
		}
	}

	// Fallback to timestamp
	return fmt.Sprintf("Session %s", session.CreatedAt.Format("Jan 02 15:04"))
}
