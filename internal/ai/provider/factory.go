// Package provider builds the configured AI provider.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/myhousemouse/Risk-api-server/internal/ai"
	"github.com/myhousemouse/Risk-api-server/internal/ai/gemini"
	"github.com/myhousemouse/Risk-api-server/internal/ai/mock"
	"github.com/myhousemouse/Risk-api-server/internal/ai/ollama"
	"github.com/myhousemouse/Risk-api-server/internal/ai/openai"
	"github.com/myhousemouse/Risk-api-server/internal/ai/vllm"
	"github.com/myhousemouse/Risk-api-server/internal/config"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	retryDelay = 500 * time.Millisecond
	// RetryMaxDelay is the longest backoff between two attempts of one call.
	RetryMaxDelay = 5 * time.Second
)

// New constructs the AI provider named in cfg, wrapped with retries and a
// per-call timeout. Called once at server startup.
func New(ctx context.Context, cfg config.AIConfig) (models.AIProvider, error) {
	var p models.AIProvider
	switch cfg.Provider {
	case "ollama":
		p = ollama.NewProvider(cfg.Ollama)
	case "vllm":
		p = vllm.NewProvider(cfg.VLLM)
	case "openai":
		p = openai.NewProvider(cfg.OpenAI)
	case "gemini":
		g, err := gemini.NewProvider(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		p = g
	case "mock":
		p = mock.NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of openai, ollama, vllm, gemini, mock", cfg.Provider)
	}

	return ai.WithRetry(p, ai.RetryConfig{
		Attempts: uint(cfg.RetryAttempts),
		Delay:    retryDelay,
		MaxDelay: RetryMaxDelay,
		Timeout:  cfg.InferenceTimeout,
	}), nil
}
