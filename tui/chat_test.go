package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nachoal/bolt-agent-go/agent"
	"github.com/nachoal/bolt-agent-go/attachment"
	"github.com/nachoal/bolt-agent-go/history"
)

type stubAgent struct {
	current attachment.Attachment
	turns   []agent.Turn
	events  chan agent.StreamEvent
	resets  int
}

func (a *stubAgent) Send(context.Context, string) (<-chan agent.StreamEvent, error) {
	return a.events, nil
}

func (a *stubAgent) Ask(context.Context, string, func(string)) (*agent.Reply, error) {
	return &agent.Reply{}, nil
}

func (a *stubAgent) Attach(name string, data []byte) (attachment.Attachment, error) {
	a.current = attachment.TextDocument{Name: name, Text: string(data)}
	return a.current, nil
}

func (a *stubAgent) AttachFile(path string) (attachment.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.Attach(filepath.Base(path), data)
}

func (a *stubAgent) Attachment() attachment.Attachment { return a.current }
func (a *stubAgent) ClearAttachment()                  { a.current = nil }
func (a *stubAgent) Turns() []agent.Turn               { return a.turns }
func (a *stubAgent) Restore(turns []agent.Turn) error  { a.turns = turns; return nil }
func (a *stubAgent) Reset() error                      { a.resets++; a.turns = nil; return nil }
func (a *stubAgent) Persona() agent.Persona            { return agent.DefaultPersona("Bolt") }

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func TestViewDoesNotOverflowTerminalWidth(t *testing.T) {
	m := NewChat(&stubAgent{current: attachment.TextDocument{Name: strings.Repeat("long-name-", 10) + ".pdf"}}, Options{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
	})
	m.textarea.SetValue(strings.Repeat("x", 200))

	_, _ = m.Update(tea.WindowSizeMsg{Width: 48, Height: 20})
	m.typing = strings.Repeat("streaming reply ", 20)

	for i, line := range strings.Split(stripANSI(m.View()), "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 48, "line %d: %q", i+1, line)
	}
}

func TestTruncateToWidth(t *testing.T) {
	assert.Equal(t, "abc…", truncateToWidth("abcdef", 4))
	assert.Equal(t, "a", truncateToWidth("a", 1))
	assert.Equal(t, "", truncateToWidth("abc", 0))
}

func TestAttachAndContextCommands(t *testing.T) {
	a := &stubAgent{}
	m := NewChat(a, Options{})

	res := m.handleCommand("/context")
	assert.Equal(t, "No file or image currently in context.", res.content)

	path := filepath.Join(t.TempDir(), "plan.txt")
	require.NoError(t, os.WriteFile(path, []byte("Day 1"), 0644))

	res = m.handleCommand("/attach " + path)
	assert.False(t, res.isError)
	assert.Contains(t, res.content, "plan.txt")

	res = m.handleCommand("/context")
	assert.Contains(t, res.content, "plan.txt")

	res = m.handleCommand("/clear")
	assert.Equal(t, "Context cleared.", res.content)
	assert.Nil(t, a.current)

	res = m.handleCommand("/attach")
	assert.Equal(t, "Usage: /attach <path>", res.content)

	res = m.handleCommand("/attach /does/not/exist.txt")
	assert.True(t, res.isError)
}

func TestResetAndExitCommands(t *testing.T) {
	a := &stubAgent{}
	m := NewChat(a, Options{})

	res := m.handleCommand("/reset")
	assert.True(t, res.isClear)
	assert.Equal(t, 1, a.resets)

	assert.True(t, m.handleCommand("/exit").isQuit)
	assert.Contains(t, m.handleCommand("/nope").content, "Unknown command")
	assert.Contains(t, m.handleCommand("/help").content, "/attach")
}

func TestStreamLifecycle(t *testing.T) {
	a := &stubAgent{events: make(chan agent.StreamEvent, 4)}
	m := NewChat(a, Options{})
	m.textarea.SetValue("plan Kyoto")

	cmd := m.submit()
	require.NotNil(t, cmd)
	assert.True(t, m.isThinking)
	assert.Equal(t, "", m.textarea.Value())

	m.handleStreamEvent(streamEventMsg{ok: true, event: agent.StreamEvent{Type: agent.EventTypeChunk, Content: "Kyo", Text: "Kyo"}})
	assert.Equal(t, "Kyo", m.typing)
	assert.Contains(t, stripANSI(m.View()), "Kyo")

	next := m.handleStreamEvent(streamEventMsg{ok: true, event: agent.StreamEvent{Type: agent.EventTypeComplete, Reply: &agent.Reply{Raw: "Kyoto!"}}})
	assert.NotNil(t, next)
	assert.Equal(t, "", m.typing)

	// The stream is done but the reply is still rendering
	m.handleStreamEvent(streamEventMsg{ok: false})
	assert.True(t, m.isThinking)

	m.textarea.SetValue("next question")
	assert.Nil(t, m.submit())
	assert.Equal(t, "next question", m.textarea.Value())

	_, cmd = m.Update(replyRenderedMsg{content: "Kyoto!"})
	assert.NotNil(t, cmd)
	assert.False(t, m.isThinking)
	assert.Nil(t, m.activeRunCancel)
	assert.NotNil(t, m.submit())
}

func TestStreamErrorFinishesRun(t *testing.T) {
	a := &stubAgent{events: make(chan agent.StreamEvent, 4)}
	m := NewChat(a, Options{})
	m.textarea.SetValue("plan Kyoto")
	require.NotNil(t, m.submit())

	a.turns = []agent.Turn{{Role: agent.RoleAssistant, Content: "Sorry, I ran into an issue: boom", Error: true}}
	m.handleStreamEvent(streamEventMsg{ok: true, event: agent.StreamEvent{Type: agent.EventTypeError, Error: errors.New("boom")}})
	m.handleStreamEvent(streamEventMsg{ok: false})
	assert.False(t, m.isThinking)
}

func TestSlashSuggestions(t *testing.T) {
	m := NewChat(&stubAgent{}, Options{})
	m.textarea.SetValue("/re")
	m.updateSuggestions()

	require.True(t, m.suggestVisible)
	require.Len(t, m.suggestItems, 1)
	assert.Equal(t, "/reset", m.suggestItems[0].name)

	m.completeSuggestion()
	assert.Equal(t, "/reset ", m.textarea.Value())
	assert.False(t, m.suggestVisible)
}

func TestFormatTranscript(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	out := FormatTranscript([]agent.Turn{
		{Role: agent.RoleUser, Content: "Kyoto?", Timestamp: at},
		{Role: agent.RoleAssistant, Content: "Go!\nIMAGE_SEARCH_TERM_1: Kyoto temple", Timestamp: at},
		{Role: agent.RoleAssistant, Content: "Sorry, I ran into an issue: boom", Timestamp: at, Error: true},
	}, "Bolt")

	assert.Equal(t, "[09:30] You: Kyoto?\n[09:30] Bolt: Go! (+1 visual suggestions)\n[09:30] Bolt: Sorry, I ran into an issue: boom", out)
}

func TestSessionPickerSelects(t *testing.T) {
	p := NewSessionPicker([]history.SessionInfo{
		{ID: "a", Title: "first"},
		{ID: "b", Title: "second"},
	}, nil)

	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.NotNil(t, cmd)
	assert.Equal(t, "b", p.SelectedSessionID)
	assert.Contains(t, p.View(), "second")
}
