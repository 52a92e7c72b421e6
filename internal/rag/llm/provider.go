package llm

import (
	"context"
	"fmt"
	"strings"
)

type Provider interface {
	Generate(ctx context.Context, query string, matches []string, messageHistory []string) (string, error)
}

// BuildUserPrompt folds the retrieved chunks and the recent exchanges into
// the prompt text every provider sends. Numbered blocks keep the model
// anchored to specific documents when it answers.
func BuildUserPrompt(query string, matches []string, messageHistory []string) string {
	var b strings.Builder

	if len(messageHistory) > 0 {
		b.WriteString("Earlier in this conversation:\n")
		b.WriteString(strings.Join(messageHistory, "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("Context:\n")
	for i, match := range matches {
		fmt.Fprintf(&b, "Document %d:\n%s\n\n", i+1, match)
	}

	fmt.Fprintf(&b, "User Question: %s", query)
	return b.String()
}
