package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nachoal/bolt-agent-go/history"
	"github.com/nachoal/bolt-agent-go/tui/styles"
)

// SessionPicker is a TUI component for selecting a saved conversation
type SessionPicker struct {
	sessions []history.SessionInfo
	selected int
	width    int
	height   int
	styles   *styles.Styles

	// SelectedSessionID is empty when the user cancelled
	SelectedSessionID string
}

// NewSessionPicker creates a new session picker
func NewSessionPicker(sessions []history.SessionInfo, st *styles.Styles) *SessionPicker {
	if st == nil {
		st = styles.NewStyles(styles.BoltTheme)
	}
	return &SessionPicker{
		sessions: sessions,
		width:    80,
		height:   24,
		styles:   st,
	}
}

func (p *SessionPicker) Init() tea.Cmd {
	return nil
}

func (p *SessionPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if p.selected > 0 {
				p.selected--
			}
		case "down", "j":
			if p.selected < len(p.sessions)-1 {
				p.selected++
			}
		case "enter":
			if len(p.sessions) > 0 {
				p.SelectedSessionID = p.sessions[p.selected].ID
			}
			return p, tea.Quit
		case "esc", "q", "ctrl+c":
			return p, tea.Quit
		}
	}
	return p, nil
}

func (p *SessionPicker) View() string {
	if len(p.sessions) == 0 {
		return "\nNo saved conversations yet.\n\nPress [Esc] to start a new one.\n"
	}

	var b strings.Builder

	b.WriteString(p.styles.Header.Render("Select a conversation to resume:"))
	b.WriteString("\n\n")

	// Calculate visible sessions based on height
	visibleHeight := p.height - 6
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	startIdx := 0
	endIdx := len(p.sessions)

	if visibleHeight < len(p.sessions) {
		if p.selected > visibleHeight/2 {
			startIdx = p.selected - visibleHeight/2
			if startIdx+visibleHeight > len(p.sessions) {
				startIdx = len(p.sessions) - visibleHeight
			}
		}
		endIdx = startIdx + visibleHeight
		if endIdx > len(p.sessions) {
			endIdx = len(p.sessions)
		}
	}

	for i := startIdx; i < endIdx; i++ {
		cursor := "  "
		style := p.styles.ModelInfo
		if i == p.selected {
			cursor = "▸ "
			style = p.styles.Context.Bold(true)
		}
		line := cursor + FormatSessionInfo(p.sessions[i])
		b.WriteString(style.Render(truncateToWidth(line, p.width-1)))
		b.WriteString("\n")
	}

	if startIdx > 0 || endIdx < len(p.sessions) {
		b.WriteString(p.styles.ModelInfo.Render(fmt.Sprintf("\n[%d-%d of %d sessions]", startIdx+1, endIdx, len(p.sessions))))
	}

	b.WriteString(p.styles.CommandMessage.Render("\n[↑/↓/j/k] Navigate  [Enter] Select  [Esc/q] Cancel"))

	return b.String()
}

// FormatSessionInfo renders one line of a session listing
func FormatSessionInfo(s history.SessionInfo) string {
	return fmt.Sprintf("%s - %s (%d turns, %s/%s)",
		s.UpdatedAt.Format("Jan 02 15:04"),
		truncateToWidth(s.Title, 40),
		s.Turns,
		s.Provider,
		s.Model)
}
