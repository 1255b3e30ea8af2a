package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme
type Theme struct {
	Name    string
	Primary lipgloss.AdaptiveColor
	Accent  lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	TextDim lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	// Markdown is the glamour standard style used for replies
	Markdown string
}

// BoltTheme is the default theme
var BoltTheme = Theme{
	Name:     "bolt",
	Primary:  lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFD700"},
	Accent:   lipgloss.AdaptiveColor{Light: "#1F6FB2", Dark: "#5B9BD5"},
	Text:     lipgloss.AdaptiveColor{Light: "#1E1E1E", Dark: "#E0E0E0"},
	TextDim:  lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6B7280"},
	Border:   lipgloss.AdaptiveColor{Light: "#999999", Dark: "#FFFFFF"},
	Warning:  lipgloss.AdaptiveColor{Light: "#FF9800", Dark: "#FFA726"},
	Error:    lipgloss.AdaptiveColor{Light: "#D32F2F", Dark: "#EF5350"},
	Markdown: "notty",
}

// DraculaTheme is a dark purple theme
var DraculaTheme = Theme{
	Name:     "dracula",
	Primary:  lipgloss.AdaptiveColor{Light: "#BD93F9", Dark: "#BD93F9"},
	Accent:   lipgloss.AdaptiveColor{Light: "#FF79C6", Dark: "#FF79C6"},
	Text:     lipgloss.AdaptiveColor{Light: "#F8F8F2", Dark: "#F8F8F2"},
	TextDim:  lipgloss.AdaptiveColor{Light: "#6272A4", Dark: "#6272A4"},
	Border:   lipgloss.AdaptiveColor{Light: "#6272A4", Dark: "#6272A4"},
	Warning:  lipgloss.AdaptiveColor{Light: "#F1FA8C", Dark: "#F1FA8C"},
	Error:    lipgloss.AdaptiveColor{Light: "#FF5555", Dark: "#FF5555"},
	Markdown: "dracula",
}

// NordTheme is a cool blue theme
var NordTheme = Theme{
	Name:     "nord",
	Primary:  lipgloss.AdaptiveColor{Light: "#5E81AC", Dark: "#81A1C1"},
	Accent:   lipgloss.AdaptiveColor{Light: "#88C0D0", Dark: "#88C0D0"},
	Text:     lipgloss.AdaptiveColor{Light: "#2E3440", Dark: "#D8DEE9"},
	TextDim:  lipgloss.AdaptiveColor{Light: "#4C566A", Dark: "#4C566A"},
	Border:   lipgloss.AdaptiveColor{Light: "#4C566A", Dark: "#4C566A"},
	Warning:  lipgloss.AdaptiveColor{Light: "#EBCB8B", Dark: "#EBCB8B"},
	Error:    lipgloss.AdaptiveColor{Light: "#BF616A", Dark: "#BF616A"},
	Markdown: "dark",
}

var themes = map[string]Theme{
	BoltTheme.Name:    BoltTheme,
	DraculaTheme.Name: DraculaTheme,
	NordTheme.Name:    NordTheme,
}

// GetTheme returns a theme by name, falling back to the default
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return BoltTheme
}

// ThemeNames lists the available themes
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
