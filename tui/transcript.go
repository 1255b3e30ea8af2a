package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nachoal/bolt-agent-go/agent"
	"github.com/nachoal/bolt-agent-go/annotation"
	"github.com/nachoal/bolt-agent-go/render"
	"github.com/nachoal/bolt-agent-go/tui/styles"
)

// PrintHeader prints the banner before the TUI starts
func PrintHeader(w io.Writer, st *styles.Styles, botName, provider, model string, verbose bool) {
	header := fmt.Sprintf("%s | Model: %s | Provider: %s",
		st.Header.Render(fmt.Sprintf("🎉 Chat with %s!", botName)),
		st.Context.Render(model),
		st.Context.Render(provider))
	if verbose {
		header += " | " + st.ErrorMessage.Bold(true).Render("[VERBOSE]")
	}

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, st.CommandMessage.Render("Travel, tech, entertainment, documents & images | Commands: /help, /attach, /context, /clear, /reset, /exit"))
	fmt.Fprintln(w)
}

// ReplayTranscript prints a restored conversation the way it was shown live
func ReplayTranscript(ctx context.Context, w io.Writer, turns []agent.Turn, presenter *render.Terminal, st *styles.Styles, botName string) {
	planner := render.NewPlanner(botName)
	for _, t := range turns {
		switch {
		case t.Role == agent.RoleUser:
			fmt.Fprintf(w, "🧑‍💻 You: %s\n\n", st.UserMessage.Render(t.Content))
		case t.Error:
			fmt.Fprintf(w, "%s\n\n", st.ErrorMessage.Render("❌ "+t.Content))
		default:
			plan := planner.Plan(annotation.Parse(t.Content))
			fmt.Fprintf(w, "%s\n%s\n\n", st.AssistantLabel.Render(fmt.Sprintf("⚡ %s:", botName)), presenter.Render(ctx, plan))
		}
	}
}

// FormatTranscript renders a compact plain-text transcript
func FormatTranscript(turns []agent.Turn, botName string) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		stamp := t.Timestamp.Format("15:04")
		switch {
		case t.Role == agent.RoleUser:
			fmt.Fprintf(&b, "[%s] You: %s", stamp, t.Content)
		case t.Error:
			fmt.Fprintf(&b, "[%s] %s: %s", stamp, botName, t.Content)
		default:
			res := annotation.Parse(t.Content)
			text := res.DisplayText
			if n := len(res.DirectImageURLs) + len(res.SearchTerms); n > 0 {
				text += fmt.Sprintf(" (+%d visual suggestions)", n)
			}
			fmt.Fprintf(&b, "[%s] %s: %s", stamp, botName, text)
		}
	}
	return b.String()
}
