// Package vllm reaches a vLLM server through its OpenAI-compatible /v1 API.
package vllm

import (
	"strings"

	"github.com/myhousemouse/Risk-api-server/internal/ai/openai"
	"github.com/myhousemouse/Risk-api-server/internal/config"
)

func NewProvider(cfg config.VLLMConfig) *openai.Provider {
	return openai.NewCompatibleProvider("vllm", strings.TrimRight(cfg.BaseURL, "/")+"/v1", "", cfg.Model)
}
