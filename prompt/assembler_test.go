package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nachoal/bolt-agent-go/attachment"
	"github.com/nachoal/bolt-agent-go/llm"
)

func TestAssembleWithoutAttachment(t *testing.T) {
	parts := Assemble("Plan 3 days in Kyoto", nil)

	require.Len(t, parts, 1)
	assert.Equal(t, llm.PartText, parts[0].Kind)
	assert.Equal(t, "User asks: Plan 3 days in Kyoto\n", parts[0].Text)
}

func TestAssembleWithImage(t *testing.T) {
	img := attachment.Image{Name: "tower.jpg", MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}
	parts := Assemble("What is this building?", img)

	require.Len(t, parts, 2)
	assert.Equal(t, llm.PartBinary, parts[0].Kind)
	assert.Equal(t, "image/jpeg", parts[0].MIMEType)
	assert.Equal(t, []byte{0xff, 0xd8}, parts[0].Data)

	assert.Equal(t, llm.PartText, parts[1].Kind)
	assert.Contains(t, parts[1].Text, "'tower.jpg'")
	assert.Contains(t, parts[1].Text, "User's question: 'What is this building?'")
}

func TestAssembleWithTextDocumentEmbedsFullText(t *testing.T) {
	body := strings.Repeat("lorem ipsum ", 20000)
	doc := attachment.TextDocument{Name: "report.pdf", Text: body}
	parts := Assemble("Summarize it", doc)

	require.Len(t, parts, 1)
	text := parts[0].Text
	assert.Contains(t, text, "named 'report.pdf'")
	assert.Contains(t, text, "User's question: 'Summarize it'")
	assert.Contains(t, text, "--- START OF EXTRACTED FILE CONTENT (report.pdf) ---\n"+body+"\n--- END OF EXTRACTED FILE CONTENT ---")
	assert.True(t, strings.HasSuffix(text, "prioritizing the file content if relevant."))
}
