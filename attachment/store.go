// Package attachment holds the single uploaded artifact used as extra
// context for the next model call.
package attachment

import (
	"fmt"
	"sync"
)

// Attachment is either a TextDocument or an Image. A nil Attachment means none.
type Attachment interface {
	// Filename returns the uploaded file's name
	Filename() string
	isAttachment()
}

// TextDocument is text extracted from an uploaded document
type TextDocument struct {
	Name string
	Text string
}

func (d TextDocument) Filename() string { return d.Name }
func (TextDocument) isAttachment()      {}

// Image is an uploaded image kept as raw bytes
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

func (i Image) Filename() string { return i.Name }
func (Image) isAttachment()      {}

// Store keeps at most one attachment. Setting one kind replaces the other.
type Store struct {
	mu      sync.RWMutex
	current Attachment
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// SetText replaces the current attachment with a text document
func (s *Store) SetText(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = TextDocument{Name: name, Text: text}
}

// SetImage replaces the current attachment with an image
func (s *Store) SetImage(name, mimeType string, data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Image{Name: name, MIMEType: mimeType, Data: buf}
}

// Clear removes any attachment
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Current returns the active attachment, or nil
func (s *Store) Current() Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Describe returns a short label for display
func Describe(a Attachment) string {
	switch v := a.(type) {
	case TextDocument:
		return fmt.Sprintf("📄 %s (%d chars)", v.Name, len([]rune(v.Text)))
	case Image:
		return fmt.Sprintf("🖼️ %s (%s, %s)", v.Name, v.MIMEType, formatBytes(int64(len(v.Data))))
	default:
		return "No file or image currently in context."
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
