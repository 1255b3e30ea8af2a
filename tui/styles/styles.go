package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the styles for the chat screen
type Styles struct {
	Theme Theme

	// Messages
	UserMessage    lipgloss.Style
	AssistantLabel lipgloss.Style
	CommandMessage lipgloss.Style
	ErrorMessage   lipgloss.Style
	Notice         lipgloss.Style

	// UI Elements
	Header          lipgloss.Style
	ModelInfo       lipgloss.Style
	Context         lipgloss.Style
	Border          lipgloss.Style
	Spinner         lipgloss.Style
	SuggestName     lipgloss.Style
	SuggestDesc     lipgloss.Style
	SuggestSelected lipgloss.Style
}

// NewStyles creates a new styles instance with the given theme
func NewStyles(theme Theme) *Styles {
	s := &Styles{
		Theme: theme,
	}

	// Message styles
	s.UserMessage = lipgloss.NewStyle().
		Foreground(theme.Text)

	s.AssistantLabel = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	s.CommandMessage = lipgloss.NewStyle().
		Foreground(theme.TextDim)

	s.ErrorMessage = lipgloss.NewStyle().
		Foreground(theme.Error)

	s.Notice = lipgloss.NewStyle().
		Foreground(theme.Warning).
		Bold(true)

	// UI Element styles
	s.Header = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	s.ModelInfo = lipgloss.NewStyle().
		Foreground(theme.TextDim)

	s.Context = lipgloss.NewStyle().
		Foreground(theme.Accent)

	s.Border = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)

	s.Spinner = lipgloss.NewStyle().
		Foreground(theme.Accent)

	s.SuggestName = lipgloss.NewStyle().
		Foreground(theme.Accent)

	s.SuggestDesc = lipgloss.NewStyle().
		Foreground(theme.TextDim)

	s.SuggestSelected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("62"))

	return s
}
