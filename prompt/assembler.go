// Package prompt turns the user's question and the active attachment into
// the ordered parts sent to the model.
package prompt

import (
	"fmt"

	"github.com/nachoal/bolt-agent-go/attachment"
	"github.com/nachoal/bolt-agent-go/llm"
)

// Assemble builds the parts for one user turn. An image attachment wins
// over a text document; attachment content is never truncated.
func Assemble(question string, current attachment.Attachment) []llm.Part {
	switch a := current.(type) {
	case attachment.Image:
		wrapper := fmt.Sprintf(
			"The user has uploaded an image named '%s'. Please analyze this image in conjunction with their question. User's question: '%s'",
			a.Name, question)
		return []llm.Part{
			llm.BinaryPart(a.MIMEType, a.Data),
			llm.TextPart(wrapper),
		}

	case attachment.TextDocument:
		text := fmt.Sprintf(
			"The user has uploaded a text document named '%s'. Please consider the following extracted text as primary context. User's question: '%s'\n\n"+
				"--- START OF EXTRACTED FILE CONTENT (%s) ---\n%s\n--- END OF EXTRACTED FILE CONTENT ---\n\n"+
				"Now, answer the user's question based on all available information, prioritizing the file content if relevant.",
			a.Name, question, a.Name, a.Text)
		return []llm.Part{llm.TextPart(text)}

	default:
		return []llm.Part{llm.TextPart(fmt.Sprintf("User asks: %s\n", question))}
	}
}
