package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	defaultWrapWidth  = 74
	failedURLPreview  = 30
	imageCardMinWidth = 20
)

// Terminal renders plans as styled terminal text.
type Terminal struct {
	botName  string
	loader   ImageLoader
	renderer *glamour.TermRenderer
	width    int
	style    string
	plain    bool

	captionStyle lipgloss.Style
	cardStyle    lipgloss.Style
	failStyle    lipgloss.Style
	dimStyle     lipgloss.Style
}

// TerminalOption configures a Terminal
type TerminalOption func(*Terminal)

// WithWidth sets the wrap width
func WithWidth(width int) TerminalOption {
	return func(t *Terminal) {
		if width > 0 {
			t.width = width
		}
	}
}

// WithStyle selects a glamour standard style ("notty", "dark", "light", ...)
func WithStyle(style string) TerminalOption {
	return func(t *Terminal) {
		t.style = style
	}
}

// WithoutMarkdown disables glamour and prints wrapped raw text
func WithoutMarkdown() TerminalOption {
	return func(t *Terminal) {
		t.plain = true
	}
}

// NewTerminal creates a terminal presenter. loader may be nil, in which
// case image URLs are shown without probing.
func NewTerminal(botName string, loader ImageLoader, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		botName: botName,
		loader:  loader,
		width:   defaultWrapWidth,
		// Non-colored markdown keeps replies readable across terminal themes.
		style: "notty",

		captionStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
		cardStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(0, 1),
		failStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dimStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
	for _, opt := range opts {
		opt(t)
	}
	if !t.plain {
		t.renderer = newRenderer(t.style, t.width)
	}
	return t
}

func newRenderer(style string, width int) *glamour.TermRenderer {
	if width <= 0 {
		width = defaultWrapWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Render presents the plan. A failing image never hides the rest of the reply.
func (t *Terminal) Render(ctx context.Context, plan Plan) string {
	var sections []string

	if text := strings.TrimSpace(plan.DisplayText); text != "" {
		sections = append(sections, t.markdown(text))
	}

	if len(plan.Images) > 0 {
		sections = append(sections, t.renderImages(ctx, plan.Images))
	}

	if len(plan.SearchLinks) > 0 {
		sections = append(sections, t.markdown(SearchMarkdown(t.botName, plan.SearchLinks)))
	}

	return strings.Join(sections, "\n\n")
}

// SearchMarkdown formats suggested image searches as a markdown section.
func SearchMarkdown(botName string, links []SearchLink) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "**%s suggests searching for images like:**\n", botName)
	for _, l := range links {
		fmt.Fprintf(&b, "- [%s](%s)\n", linkTextEscaper.Replace(l.Term), l.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

var linkTextEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// FailedImageText is shown in place of an image that could not be loaded.
func FailedImageText(url string) string {
	r := []rune(url)
	if len(r) > failedURLPreview {
		r = r[:failedURLPreview]
	}
	return fmt.Sprintf("Could not load: %s...", string(r))
}

func (t *Terminal) markdown(md string) string {
	if t.renderer != nil {
		if out, err := t.renderer.Render(md); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	// Fallback without glamour
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		lines[i] = wordwrap.String(line, t.width)
	}
	return strings.Join(lines, "\n")
}

func (t *Terminal) renderImages(ctx context.Context, images []Image) string {
	cardWidth := t.width
	if len(images) > 1 {
		cardWidth = t.width/len(images) - 1
	}
	if cardWidth < imageCardMinWidth {
		cardWidth = imageCardMinWidth
	}

	cards := make([]string, 0, len(images))
	for _, img := range images {
		cards = append(cards, t.imageCard(ctx, img, cardWidth))
	}

	if len(cards) == 1 {
		return cards[0]
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (t *Terminal) imageCard(ctx context.Context, img Image, width int) string {
	inner := width - 4 // border + padding
	if inner < 1 {
		inner = 1
	}

	lines := []string{t.captionStyle.Render(truncate(img.Caption, inner))}

	if t.loader != nil {
		info, err := t.loader.Probe(ctx, img.URL)
		if err != nil {
			lines = append(lines, t.failStyle.Render(wordwrap.String(FailedImageText(img.URL), inner)))
			return t.cardStyle.Width(width).Render(strings.Join(lines, "\n"))
		}
		lines = append(lines, t.dimStyle.Render(fmt.Sprintf("🖼️  %s", info.MIMEType)))
	}

	lines = append(lines, truncate(img.URL, inner))
	return t.cardStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
