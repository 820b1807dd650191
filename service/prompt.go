package service

import (
	"strings"

	"github.com/tieubaoca/pdfchat-be/types"
)

const FallbackReply = "I apologize, but I couldn't generate a response."

const promptInstruction = `Use the following pieces of context (or previous conversation if needed) to answer the user's question in markdown format.
If you don't know the answer, just say that you don't know, don't try to make up an answer.`

const promptSeparator = "----------------"

// BuildPrompt renders history (oldest first), passages and the question into
// one prompt. It does no I/O and does not truncate.
func BuildPrompt(history []types.Message, passages []types.Passage, question string) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(promptInstruction)
	b.WriteString("\n\n")
	b.WriteString(promptSeparator)
	b.WriteString("\n\nPREVIOUS CONVERSATION:\n")
	for _, m := range history {
		if m.IsUserMessage {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(promptSeparator)
	b.WriteString("\n\nCONTEXT:\n")
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Content)
	}
	b.WriteString("\n\nUSER INPUT: ")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}
