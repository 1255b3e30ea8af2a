package history

import (
	"time"
)

// Session represents a saved conversation transcript
type Session struct {
	ID        string    `json:"id"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Metadata  Metadata  `json:"metadata"`
	Turns     []Turn    `json:"turns"`
}

// Metadata contains session metadata
type Metadata struct {
	Title string `json:"title"`
}

// Turn is one entry of the transcript
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Error     bool      `json:"error,omitempty"`
}

// MetaIndex contains session indexing information
type MetaIndex struct {
	Version     string `json:"version"`
	LastSession string `json:"last_session_id,omitempty"`
}

// SessionInfo provides summary information for session listing
type SessionInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     int       `json:"turns"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
}
