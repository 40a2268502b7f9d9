package risk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/myhousemouse/Risk-api-server/internal/ai"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	validationMaxToken = 300

	// minFreeformRunes is the length above which an input without any
	// business word is still accepted by the fallback.
	minFreeformRunes = 20

	defaultRejectMessage    = "The input does not look like a business idea."
	defaultRejectSuggestion = "Describe what you sell, to whom and how, e.g. \"subscription meal-kit delivery for office workers\"."
)

// businessWords mark an input as a business idea when the model cannot decide.
var businessWords = []string{
	"business", "startup", "company", "service", "product", "platform", "app", "website",
	"customer", "market", "sales", "sell", "retail", "distribution", "manufactur", "solution",
	"revenue", "subscription", "shop", "store", "bakery", "restaurant", "cafe", "delivery",
	"사업", "창업", "서비스", "제품", "플랫폼", "앱", "웹사이트", "고객", "시장", "판매",
	"유통", "제조", "개발", "솔루션", "비즈니스", "스타트업", "기업", "회사", "매출", "수익",
}

// ValidationResult is the verdict on whether an input describes a business.
type ValidationResult struct {
	Valid      bool
	Message    string
	Suggestion string
	Fallback   bool // true when the AI answer was unusable
}

// Validator rejects inputs that are not business ideas before a session is
// spent on them.
type Validator struct {
	provider models.AIProvider
}

func NewValidator(provider models.AIProvider) *Validator {
	return &Validator{provider: provider}
}

type validationResponse struct {
	Valid      *bool  `json:"valid"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

const validationSchema = `{"valid":true|false,"message":"<one sentence>","suggestion":"<how to improve the input, empty when valid>"}`

// Validate asks the model whether input describes a business. When the answer
// is unusable it accepts inputs that mention a business word or an industry
// keyword, or that are longer than 20 characters.
func (v *Validator) Validate(ctx context.Context, input models.BusinessInput) ValidationResult {
	text, err := v.provider.Complete(ctx, models.CompletionRequest{
		System:      "You check whether a user's text describes a business idea, product or service.",
		Prompt:      v.prompt(input),
		Schema:      validationSchema,
		Temperature: 0,
		MaxTokens:   validationMaxToken,
	})
	if err == nil {
		var resp validationResponse
		resp, err = ai.DecodeJSON[validationResponse](text)
		if err == nil && resp.Valid == nil {
			err = fmt.Errorf("%w: missing valid flag", ai.ErrInvalidResponse)
		}
		if err == nil {
			result := ValidationResult{
				Valid:      *resp.Valid,
				Message:    strings.TrimSpace(resp.Message),
				Suggestion: strings.TrimSpace(resp.Suggestion),
			}
			if !result.Valid {
				if result.Message == "" {
					result.Message = defaultRejectMessage
				}
				if result.Suggestion == "" {
					result.Suggestion = defaultRejectSuggestion
				}
			}
			return result
		}
	}

	slog.Warn("validation fallback", "stage", "validate", "provider", v.provider.Name(), "error", err)
	return fallbackValidation(input)
}

func (v *Validator) prompt(input models.BusinessInput) string {
	var b strings.Builder
	b.WriteString("Decide whether the following input describes a business idea that can be risk-analyzed.\n")
	b.WriteString("Greetings, random characters and unrelated questions are not business ideas.\n\n")
	writeBusiness(&b, input)
	return b.String()
}

func fallbackValidation(input models.BusinessInput) ValidationResult {
	text := strings.TrimSpace(input.Concept + " " + input.BusinessName + " " + input.Description)
	if looksLikeBusiness(text) {
		return ValidationResult{Valid: true, Fallback: true}
	}
	return ValidationResult{
		Message:    defaultRejectMessage,
		Suggestion: defaultRejectSuggestion,
		Fallback:   true,
	}
}

func looksLikeBusiness(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range businessWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	if matches := MatchKeywords(text); matches[0].ID != DefaultCategory {
		return true
	}
	return utf8.RuneCountInString(text) > minFreeformRunes
}
