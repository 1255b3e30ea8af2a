package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nachoal/bolt-agent-go/agent"
	"github.com/nachoal/bolt-agent-go/attachment"
	"github.com/nachoal/bolt-agent-go/render"
	"github.com/nachoal/bolt-agent-go/tui/styles"
)

const (
	liveLines       = 6
	maxInputHeight  = 10
	noticeLifetime  = 4 * time.Second
	maxSuggestShown = 8
)

// Chat is the interactive chat screen. Finished messages are printed above
// the live region so they stay in the terminal's native scrollback.
type Chat struct {
	agent     agent.Agent
	presenter *render.Terminal
	styles    *styles.Styles
	logger    *zap.Logger
	botName   string
	provider  string
	model     string

	textarea   textarea.Model
	spinner    spinner.Model
	width      int
	height     int
	isThinking bool
	// typing holds the reply streamed so far
	typing string

	events          <-chan agent.StreamEvent
	activeRunCancel context.CancelFunc
	// The run stays active until the stream has closed and the reply is printed
	streamClosed  bool
	renderPending bool

	// Slash command autocomplete
	commands       []commandEntry
	suggestVisible bool
	suggestItems   []commandEntry
	suggestIndex   int

	transientNotice   string
	transientNoticeID int
}

// commandEntry represents a slash command and its short description
type commandEntry struct {
	name string
	desc string
}

// Options configures the chat screen
type Options struct {
	Provider  string
	Model     string
	Presenter *render.Terminal
	Styles    *styles.Styles
	Logger    *zap.Logger
}

// NewChat creates the chat screen for a conversation
func NewChat(a agent.Agent, opts Options) *Chat {
	ta := textarea.New()
	ta.Placeholder = ""
	ta.ShowLineNumbers = false
	ta.Prompt = "" // The prompt is drawn inside the border
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.Focus()

	// Transparent textarea so the surrounding border is the only chrome
	transparent := lipgloss.NewStyle().
		UnsetBackground().
		UnsetBorderBackground().
		UnsetBorderStyle()
	ta.FocusedStyle.Base = transparent
	ta.FocusedStyle.Text = transparent
	ta.FocusedStyle.Placeholder = transparent
	ta.FocusedStyle.Prompt = transparent
	ta.FocusedStyle.CursorLine = transparent
	ta.BlurredStyle = ta.FocusedStyle

	// Enter sends the message
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetWidth(74)

	st := opts.Styles
	if st == nil {
		st = styles.NewStyles(styles.BoltTheme)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	botName := a.Persona().Name
	presenter := opts.Presenter
	if presenter == nil {
		presenter = render.NewTerminal(botName, nil, render.WithStyle(st.Theme.Markdown))
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = st.Spinner

	return &Chat{
		agent:     a,
		presenter: presenter,
		styles:    st,
		logger:    logger,
		botName:   botName,
		provider:  opts.Provider,
		model:     opts.Model,
		textarea:  ta,
		spinner:   s,
		width:     80,
		commands: []commandEntry{
			{name: "/help", desc: "Show this help"},
			{name: "/attach", desc: "Attach a document or image: /attach <path>"},
			{name: "/context", desc: "Show the file or image in context"},
			{name: "/clear", desc: "Remove the file or image from context"},
			{name: "/reset", desc: "Start a new conversation"},
			{name: "/history", desc: "Show this conversation's transcript"},
			{name: "/exit", desc: "Exit application"},
		},
	}
}

// Init starts the cursor blink
func (m *Chat) Init() tea.Cmd {
	return textarea.Blink
}

// streamEventMsg carries one event from the agent, or the end of the stream
type streamEventMsg struct {
	event agent.StreamEvent
	ok    bool
}

// replyRenderedMsg carries a fully rendered reply ready to print
type replyRenderedMsg struct {
	content string
}

// commandResultMsg is the outcome of a slash command
type commandResultMsg struct {
	content string
	isError bool
	isQuit  bool
	isClear bool
}

type clearTransientNoticeMsg struct {
	id int
}

func (m *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.isThinking {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case clearTransientNoticeMsg:
		if msg.id == m.transientNoticeID {
			m.transientNotice = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// border (2) + padding (2) + prompt (2)
		w := m.width - 6
		if w < 1 {
			w = 1
		}
		m.textarea.SetWidth(w)
		m.adjustTextareaHeight()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.cancelActiveRun()
			return m, tea.Quit

		case tea.KeyEsc:
			if m.isThinking {
				m.cancelActiveRun()
				return m, nil
			}
			if m.suggestVisible {
				m.hideSuggestions()
				return m, nil
			}
			return m, tea.Quit

		case tea.KeyUp:
			if m.suggestVisible && len(m.suggestItems) > 0 {
				m.suggestIndex = (m.suggestIndex - 1 + len(m.suggestItems)) % len(m.suggestItems)
				return m, nil
			}

		case tea.KeyDown:
			if m.suggestVisible && len(m.suggestItems) > 0 {
				m.suggestIndex = (m.suggestIndex + 1) % len(m.suggestItems)
				return m, nil
			}

		case tea.KeyTab:
			if m.suggestVisible && len(m.suggestItems) > 0 {
				m.completeSuggestion()
				return m, nil
			}

		case tea.KeyEnter:
			if m.isThinking {
				return m, nil
			}
			return m, m.submit()
		}

	case streamEventMsg:
		return m, m.handleStreamEvent(msg)

	case replyRenderedMsg:
		m.renderPending = false
		if m.streamClosed {
			m.finishRun()
		}
		return m, printAboveBlock(msg.content)

	case commandResultMsg:
		if msg.isQuit {
			return m, tea.Quit
		}
		var out []tea.Cmd
		if msg.isClear {
			out = append(out, tea.ClearScreen)
		}
		if msg.content != "" {
			if msg.isError {
				out = append(out, printAboveBlock(m.renderError(msg.content)))
			} else {
				out = append(out, printAboveBlock(m.styles.CommandMessage.Render(msg.content)))
			}
		}
		return m, tea.Sequence(out...)
	}

	oldValue := m.textarea.Value()
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	if oldValue != m.textarea.Value() {
		m.adjustTextareaHeight()
		m.updateSuggestions()
	}

	return m, tea.Batch(cmds...)
}

// submit sends the input as a message or runs it as a command
func (m *Chat) submit() tea.Cmd {
	if m.isThinking {
		return nil
	}
	value := m.textarea.Value()
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "/") {
		if m.suggestVisible && len(m.suggestItems) > 0 && !strings.ContainsAny(trimmed, " \t") {
			trimmed = m.suggestItems[m.suggestIndex].name
		}
		m.resetInput()
		result := m.handleCommand(trimmed)
		return func() tea.Msg { return result }
	}

	m.resetInput()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := m.agent.Send(ctx, value)
	if err != nil {
		cancel()
		m.textarea.Focus()
		return printAboveBlock(m.renderError(err.Error()))
	}

	m.events = events
	m.activeRunCancel = cancel
	m.isThinking = true
	m.streamClosed = false
	m.renderPending = false
	m.typing = ""
	m.textarea.Blur()

	return tea.Batch(
		printAboveBlock(m.renderUserMessage(value)),
		m.spinner.Tick,
		listenForEvents(events),
	)
}

func (m *Chat) handleStreamEvent(msg streamEventMsg) tea.Cmd {
	if !msg.ok {
		m.streamClosed = true
		if !m.renderPending {
			m.finishRun()
		}
		return nil
	}

	ev := msg.event
	switch ev.Type {
	case agent.EventTypeChunk:
		m.typing = ev.Text
		return listenForEvents(m.events)

	case agent.EventTypeComplete:
		m.typing = ""
		m.renderPending = true
		reply := ev.Reply
		return tea.Batch(m.renderReply(reply), listenForEvents(m.events))

	case agent.EventTypeError:
		m.typing = ""
		next := listenForEvents(m.events)
		if errors.Is(ev.Error, context.Canceled) {
			return tea.Batch(m.showTransientNotice(fmt.Sprintf("Reply cancelled. What would you like %s to do instead?", m.botName)), next)
		}
		return tea.Batch(printAboveBlock(m.renderError(m.lastErrorTurn(ev.Error))), next)
	}

	return listenForEvents(m.events)
}

// renderReply renders in a command so image probes never block the UI
func (m *Chat) renderReply(reply *agent.Reply) tea.Cmd {
	presenter := m.presenter
	label := m.styles.AssistantLabel.Render(fmt.Sprintf("⚡ %s:", m.botName))
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		body := presenter.Render(ctx, reply.Plan)
		return replyRenderedMsg{content: label + "\n" + body}
	}
}

func (m *Chat) lastErrorTurn(err error) string {
	turns := m.agent.Turns()
	if n := len(turns); n > 0 && turns[n-1].Error {
		return turns[n-1].Content
	}
	return err.Error()
}

func (m *Chat) finishRun() {
	if m.activeRunCancel != nil {
		m.activeRunCancel()
	}
	m.activeRunCancel = nil
	m.events = nil
	m.streamClosed = false
	m.renderPending = false
	m.isThinking = false
	m.typing = ""
	m.textarea.Focus()
}

func (m *Chat) cancelActiveRun() {
	if m.activeRunCancel == nil {
		return
	}
	m.logger.Info("reply cancel requested")
	m.activeRunCancel()
}

func listenForEvents(events <-chan agent.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		ev, ok := <-events
		return streamEventMsg{event: ev, ok: ok}
	}
}

func (m *Chat) handleCommand(input string) commandResultMsg {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch name {
	case "/exit", "/quit":
		return commandResultMsg{isQuit: true}

	case "/help":
		var b strings.Builder
		b.WriteString("Commands:\n")
		for _, c := range m.commands {
			fmt.Fprintf(&b, "  %-9s - %s\n", c.name, c.desc)
		}
		b.WriteString("\nKeyboard shortcuts:\n")
		b.WriteString("  Esc    - Cancel the reply in progress\n")
		b.WriteString("  Ctrl+C - Quit\n")
		b.WriteString("  Enter  - Send message")
		return commandResultMsg{content: b.String()}

	case "/attach":
		if arg == "" {
			return commandResultMsg{content: "Usage: /attach <path>"}
		}
		a, err := m.agent.AttachFile(expandPath(strings.Trim(arg, "\"'")))
		if err != nil {
			return commandResultMsg{content: err.Error(), isError: true}
		}
		return commandResultMsg{content: fmt.Sprintf("✔️ %s uploaded! Ask %s about it.", attachment.Describe(a), m.botName)}

	case "/context":
		return commandResultMsg{content: attachment.Describe(m.agent.Attachment())}

	case "/clear":
		if m.agent.Attachment() == nil {
			return commandResultMsg{content: "No file or image currently in context."}
		}
		m.agent.ClearAttachment()
		return commandResultMsg{content: "Context cleared."}

	case "/reset":
		if err := m.agent.Reset(); err != nil {
			return commandResultMsg{content: err.Error(), isError: true}
		}
		return commandResultMsg{content: "Started a new conversation.", isClear: true}

	case "/history":
		turns := m.agent.Turns()
		if len(turns) == 0 {
			return commandResultMsg{content: "No messages yet."}
		}
		return commandResultMsg{content: FormatTranscript(turns, m.botName)}

	default:
		return commandResultMsg{content: fmt.Sprintf("Unknown command: %s", input)}
	}
}

func (m *Chat) View() string {
	var b strings.Builder

	if m.typing != "" {
		b.WriteString(m.styles.AssistantLabel.Render(fmt.Sprintf("⚡ %s:", m.botName)))
		b.WriteString("\n")
		b.WriteString(m.liveTail(m.typing))
		b.WriteString("\n\n")
	}

	if m.isThinking {
		fmt.Fprintf(&b, "%s %s is thinking...\n\n", m.spinner.View(), m.botName)
	} else {
		b.WriteString("\n")
	}

	boxWidth := m.width - 2
	if boxWidth < 1 {
		boxWidth = 1
	}

	info := fmt.Sprintf("Model: %s | Provider: %s", m.model, m.provider)
	if a := m.agent.Attachment(); a != nil {
		info += " | Context: " + a.Filename()
	}
	b.WriteString(m.styles.ModelInfo.Render(truncateToWidth(info, boxWidth-1)))
	b.WriteString("\n")

	if m.transientNotice != "" {
		b.WriteString(m.styles.Notice.Render(truncateToWidth(m.transientNotice, boxWidth-1)))
		b.WriteString("\n")
	}

	input := m.styles.Border.
		Width(boxWidth).
		PaddingLeft(1).
		PaddingRight(1).
		Render("> " + m.textarea.View())
	b.WriteString(input)
	b.WriteString("\n")

	if m.suggestVisible && len(m.suggestItems) > 0 {
		max := len(m.suggestItems)
		if max > maxSuggestShown {
			max = maxSuggestShown
		}
		for i := 0; i < max; i++ {
			item := m.suggestItems[i]
			line := fmt.Sprintf(" %s  %s", m.styles.SuggestName.Render(item.name), m.styles.SuggestDesc.Render(item.desc))
			if i == m.suggestIndex {
				line = m.styles.SuggestSelected.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// liveTail keeps the streaming preview short and within the terminal width.
func (m *Chat) liveTail(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > liveLines {
		lines = lines[len(lines)-liveLines:]
	}
	for i, l := range lines {
		lines[i] = truncateToWidth(l, m.width-1)
	}
	return strings.Join(lines, "\n")
}

func (m *Chat) showTransientNotice(text string) tea.Cmd {
	m.transientNotice = strings.TrimSpace(text)
	m.transientNoticeID++
	id := m.transientNoticeID
	return tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
		return clearTransientNoticeMsg{id: id}
	})
}

func (m *Chat) renderUserMessage(content string) string {
	return fmt.Sprintf("🧑‍💻 You: %s", m.styles.UserMessage.Render(content))
}

func (m *Chat) renderError(content string) string {
	return m.styles.ErrorMessage.Render(fmt.Sprintf("❌ %s", content))
}

func (m *Chat) resetInput() {
	m.textarea.Reset()
	m.textarea.SetHeight(1)
	m.hideSuggestions()
}

// adjustTextareaHeight grows the input with its wrapped content
func (m *Chat) adjustTextareaHeight() {
	content := m.textarea.Value()
	if content == "" {
		m.textarea.SetHeight(1)
		return
	}

	width := m.width - 8
	if width < 1 {
		width = 1
	}
	lines, cur := 1, 0
	for _, r := range content {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		if cur >= width {
			lines++
			cur = 0
		}
	}
	if lines > maxInputHeight {
		lines = maxInputHeight
	}
	m.textarea.SetHeight(lines)
}

// updateSuggestions filters slash commands by the first input token
func (m *Chat) updateSuggestions() {
	cur := strings.TrimSpace(m.textarea.Value())
	if !strings.HasPrefix(cur, "/") || strings.ContainsAny(cur, " \t") {
		m.hideSuggestions()
		return
	}
	lower := strings.ToLower(cur)
	var list []commandEntry
	for _, c := range m.commands {
		if strings.HasPrefix(c.name, lower) {
			list = append(list, c)
		}
	}
	m.suggestItems = list
	m.suggestVisible = len(list) > 0
	if m.suggestIndex >= len(list) {
		m.suggestIndex = 0
	}
}

func (m *Chat) completeSuggestion() {
	m.textarea.SetValue(m.suggestItems[m.suggestIndex].name + " ")
	m.textarea.CursorEnd()
	m.hideSuggestions()
	m.adjustTextareaHeight()
}

func (m *Chat) hideSuggestions() {
	m.suggestVisible = false
	m.suggestItems = nil
	m.suggestIndex = 0
}

func printAboveBlock(content string) tea.Cmd {
	return tea.Printf("%s\n\n", content)
}

func truncateToWidth(s string, max int) string {
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

func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
