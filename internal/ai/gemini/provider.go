// Package gemini implements models.AIProvider on the Google Gen AI SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/myhousemouse/Risk-api-server/internal/ai"
	"github.com/myhousemouse/Risk-api-server/internal/config"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
	"google.golang.org/genai"
)

// Provider implements models.AIProvider using Gemini.
type Provider struct {
	client *genai.Client
	model  string
}

// NewProvider creates a Gemini provider. With an empty API key the client
// falls back to ADC and the GOOGLE_GENAI_USE_VERTEXAI / GOOGLE_CLOUD_* env.
func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	var clientCfg *genai.ClientConfig
	if cfg.APIKey != "" {
		clientCfg = &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{client: client, model: cfg.Model}, nil
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Schema != "" {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(ai.UserPrompt(req)), genCfg)
	if err != nil {
		return "", ai.WrapError("gemini", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: %w: empty text", ai.ErrInvalidResponse)
	}
	return text, nil
}

var _ models.AIProvider = (*Provider)(nil)
