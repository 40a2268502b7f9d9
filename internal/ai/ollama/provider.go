// Package ollama reaches a local Ollama server through its OpenAI-compatible /v1 API.
package ollama

import (
	"strings"

	"github.com/myhousemouse/Risk-api-server/internal/ai/openai"
	"github.com/myhousemouse/Risk-api-server/internal/config"
)

func NewProvider(cfg config.OllamaConfig) *openai.Provider {
	return openai.NewCompatibleProvider("ollama", strings.TrimRight(cfg.BaseURL, "/")+"/v1", "ollama", cfg.Model)
}
