// Package openai implements models.AIProvider on the OpenAI chat completions API.
// Any OpenAI-compatible server (Ollama, vLLM) can be reached through a base URL.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/myhousemouse/Risk-api-server/internal/ai"
	"github.com/myhousemouse/Risk-api-server/internal/config"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
	goopenai "github.com/sashabaranov/go-openai"
)

const defaultSystemPrompt = "You are a business risk analyst. Answer precisely and in the requested format."

// Provider implements models.AIProvider using go-openai.
type Provider struct {
	client *goopenai.Client
	model  string
	name   string
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return NewCompatibleProvider("openai", cfg.BaseURL, cfg.APIKey, cfg.Model)
}

// NewCompatibleProvider builds a provider for an OpenAI-compatible endpoint.
// An empty baseURL targets api.openai.com.
func NewCompatibleProvider(name, baseURL, apiKey, model string) *Provider {
	clientCfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Provider{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		name:   name,
	}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	system := req.System
	if system == "" {
		system = defaultSystemPrompt
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: ai.UserPrompt(req)},
		},
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", ai.WrapError(p.name, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s: %w: no choices", p.name, ai.ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ models.AIProvider = (*Provider)(nil)
