// Package models contains shared data models used across the risk analysis service.
package models

import "context"

// AIProvider is the text-completion capability the domain core depends on.
// Never call specific AI providers directly; always inject this interface.
// Responses are untrusted: callers validate and fall back on their own.
type AIProvider interface {
	// Complete sends a prompt and returns the raw text of the model's answer.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string
}

// CompletionRequest is the input to a single completion call.
type CompletionRequest struct {
	System      string
	Prompt      string
	Schema      string // optional JSON shape hint appended to the prompt
	Temperature float32
	MaxTokens   int
}
