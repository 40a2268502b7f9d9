package risk_test

import (
	"context"
	"testing"

	"github.com/myhousemouse/Risk-api-server/internal/ai"
	"github.com/myhousemouse/Risk-api-server/internal/ai/mock"
	"github.com/myhousemouse/Risk-api-server/internal/risk"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestValidate_AIAccepts(t *testing.T) {
	p := mock.NewScriptedProvider(`{"valid":true,"message":"Looks like a marketplace."}`)

	got := risk.NewValidator(p).Validate(context.Background(), models.BusinessInput{Concept: "hello"})

	assert.True(t, got.Valid, "the model's verdict wins over the length rule")
	assert.False(t, got.Fallback)
	assert.Equal(t, 1, p.Calls())
}

func TestValidate_AIRejects(t *testing.T) {
	p := mock.NewScriptedProvider("Sure.\n" + `{"valid":false,"message":"This is a greeting.","suggestion":"Name the product you want to sell."}`)

	got := risk.NewValidator(p).Validate(context.Background(), models.BusinessInput{Concept: "campus used-textbook trading app"})

	assert.False(t, got.Valid)
	assert.False(t, got.Fallback)
	assert.Equal(t, "This is a greeting.", got.Message)
	assert.Equal(t, "Name the product you want to sell.", got.Suggestion)
}

func TestValidate_AIRejectsWithoutSuggestion(t *testing.T) {
	p := mock.NewScriptedProvider(`{"valid":false}`)

	got := risk.NewValidator(p).Validate(context.Background(), models.BusinessInput{Concept: "hello"})

	assert.False(t, got.Valid)
	assert.NotEmpty(t, got.Message)
	assert.NotEmpty(t, got.Suggestion)
}

func TestValidate_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		input models.BusinessInput
		valid bool
	}{
		{name: "business word", reply: "not json", input: models.BusinessInput{Concept: "neighborhood bakery"}, valid: true},
		{name: "korean business word", reply: "not json", input: models.BusinessInput{Concept: "반찬 배달 서비스"}, valid: true},
		{name: "taxonomy keyword", reply: "not json", input: models.BusinessInput{Concept: "fintech"}, valid: true},
		{name: "long freeform text", reply: "not json", input: models.BusinessInput{Concept: "weekend pottery classes near the river"}, valid: true},
		{name: "keyword in description", reply: "not json", input: models.BusinessInput{Concept: "Morning Loaf", Description: "a small shop"}, valid: true},
		{name: "missing valid flag", reply: `{"message":"unsure"}`, input: models.BusinessInput{Concept: "hello"}, valid: false},
		{name: "short junk", reply: "not json", input: models.BusinessInput{Concept: "hello"}, valid: false},
		{name: "short junk with spaces", reply: "not json", input: models.BusinessInput{Concept: "asdf qwer"}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := risk.NewValidator(mock.NewScriptedProvider(tt.reply)).Validate(context.Background(), tt.input)

			assert.True(t, got.Fallback)
			assert.Equal(t, tt.valid, got.Valid)
			if !tt.valid {
				assert.NotEmpty(t, got.Suggestion)
			}
		})
	}
}

func TestValidate_ProviderErrorFallsBack(t *testing.T) {
	v := risk.NewValidator(mock.NewFailingProvider(ai.ErrProviderUnavailable))

	assert.True(t, v.Validate(context.Background(), models.BusinessInput{Concept: "campus used-textbook trading app"}).Valid)
	assert.False(t, v.Validate(context.Background(), models.BusinessInput{Concept: "hello"}).Valid)
}

func TestInputRejectedError_IsInvalidInput(t *testing.T) {
	err := &risk.InputRejectedError{Message: "This is a greeting.", Suggestion: "Name a product."}

	assert.ErrorIs(t, err, risk.ErrInvalidInput)
	assert.Contains(t, err.Error(), "This is a greeting.")
}
