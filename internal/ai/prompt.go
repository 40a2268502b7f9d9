package ai

import (
	"strings"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

// UserPrompt returns the prompt text with the optional JSON shape hint appended.
func UserPrompt(req models.CompletionRequest) string {
	if req.Schema == "" {
		return req.Prompt
	}
	var b strings.Builder
	b.WriteString(req.Prompt)
	b.WriteString("\n\nRespond with a single JSON value only, no prose, matching this shape:\n")
	b.WriteString(req.Schema)
	return b.String()
}
