package risk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myhousemouse/Risk-api-server/internal/ai"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const questionMaxTokens = 2000

type questionTemplate struct {
	text  string
	qtype string
	hint  string
}

var methodQuestionPools = map[models.AnalysisMethod][]questionTemplate{
	MethodSWOT: {
		{"What is the biggest strength of your business?", models.QuestionTypeText, "strengths"},
		{"What are the main weaknesses of your business?", models.QuestionTypeText, "weaknesses"},
		{"Which opportunities in the market are you going after?", models.QuestionTypeText, "opportunities"},
		{"What is the biggest threat to the business?", models.QuestionTypeText, "threats"},
		{"How are you different from your competitors?", models.QuestionTypeText, "differentiation"},
	},
	MethodLeanCanvas: {
		{"What is the core customer problem you are solving?", models.QuestionTypeText, "problem"},
		{"Who is your target customer segment?", models.QuestionTypeText, "customer_segments"},
		{"What unique value do you offer?", models.QuestionTypeText, "unique_value_proposition"},
		{"What are your main revenue streams?", models.QuestionTypeText, "revenue_streams"},
		{"What does your core cost structure look like?", models.QuestionTypeText, "cost_structure"},
	},
	MethodCJM: {
		{"How do customers first discover your business?", models.QuestionTypeText, "awareness"},
		{"What has to happen for a new user to get value the first time?", models.QuestionTypeText, "onboarding"},
		{"At which step do you expect most customers to drop off?", models.QuestionTypeText, "drop_off"},
		{"What would make a customer come back a second time?", models.QuestionTypeText, "retention"},
		{"How will you collect feedback from customers?", models.QuestionTypeText, "feedback"},
	},
}

var genericQuestionPool = []questionTemplate{
	{"What is the core goal of the business?", models.QuestionTypeText, "goal"},
	{"Who are your main customers?", models.QuestionTypeText, "customers"},
	{"What are the major risks you expect?", models.QuestionTypeText, "risks"},
	{"What does the competitive landscape look like?", models.QuestionTypeText, "competition"},
	{"What are the key success factors?", models.QuestionTypeText, "success_factors"},
	{"How many months of runway does your current funding give you?", models.QuestionTypeNumber, "runway_months"},
	{"When do you expect to break even?", models.QuestionTypeText, "break_even"},
	{"Which regulations or licenses apply to the business?", models.QuestionTypeText, "regulation"},
	{"Which single supplier, partner or platform would hurt most if it failed?", models.QuestionTypeText, "dependencies"},
	{"How will you measure whether the business is on track?", models.QuestionTypeText, "metrics"},
}

// QuestionGenerator produces a fixed total of questions spread over the selected methods.
type QuestionGenerator struct {
	provider models.AIProvider
	total    int
}

func NewQuestionGenerator(provider models.AIProvider, total int) *QuestionGenerator {
	return &QuestionGenerator{provider: provider, total: total}
}

type questionResponse struct {
	Questions []struct {
		Text      string   `json:"text"`
		Type      string   `json:"type"`
		Choices   []string `json:"choices"`
		FieldHint string   `json:"field_hint"`
	} `json:"questions"`
}

const questionSchema = `{"questions":[{"text":"<question>","type":"text|number|choice","choices":["<only for choice>"],"field_hint":"<short snake_case topic>"}]}`

// Generate returns exactly the configured number of questions, at least one
// per method, ordered by method then position. The remainder of an uneven
// split goes to the first methods.
func (g *QuestionGenerator) Generate(ctx context.Context, input models.BusinessInput, category models.CategoryMatch, methods []models.AnalysisMethod) ([]models.Question, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: no analysis methods selected", ErrInvalidInput)
	}
	if g.total < len(methods) {
		return nil, fmt.Errorf("%w: %d questions cannot cover %d methods", ErrInvalidInput, g.total, len(methods))
	}

	questions := make([]models.Question, 0, g.total)
	for i, method := range methods {
		n := g.total / len(methods)
		if i < g.total%len(methods) {
			n++
		}

		prefix := fmt.Sprintf("method%d", i+1)
		generated, err := g.fromAI(ctx, input, category, method, n)
		if err != nil {
			slog.Warn("question fallback", "stage", "questions", "method", method, "provider", g.provider.Name(), "error", err)
			generated = FallbackQuestions(method, n)
		}
		for j := range generated {
			generated[j].ID = fmt.Sprintf("%s_q%d", prefix, j+1)
			generated[j].Method = method
		}
		questions = append(questions, generated...)
	}
	return questions, nil
}

func (g *QuestionGenerator) fromAI(ctx context.Context, input models.BusinessInput, category models.CategoryMatch, method models.AnalysisMethod, n int) ([]models.Question, error) {
	text, err := g.provider.Complete(ctx, models.CompletionRequest{
		System:      "You are a startup consultant who asks founders the questions that expose hidden business risks.",
		Prompt:      questionPrompt(input, category, method, n),
		Schema:      questionSchema,
		Temperature: 0.7,
		MaxTokens:   questionMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	resp, err := ai.DecodeJSON[questionResponse](text)
	if err != nil {
		return nil, err
	}

	out := make([]models.Question, 0, n)
	for _, q := range resp.Questions {
		qtext := strings.TrimSpace(q.Text)
		if qtext == "" {
			continue
		}
		question := models.Question{Text: qtext, Type: models.QuestionTypeText, FieldHint: strings.TrimSpace(q.FieldHint)}
		switch q.Type {
		case models.QuestionTypeNumber:
			question.Type = models.QuestionTypeNumber
		case models.QuestionTypeChoice:
			if choices := nonEmpty(q.Choices); len(choices) > 1 {
				question.Type = models.QuestionTypeChoice
				question.Choices = choices
			}
		}
		out = append(out, question)
		if len(out) == n {
			break
		}
	}
	if len(out) < n {
		return nil, fmt.Errorf("%w: got %d usable questions, want %d", ai.ErrInvalidResponse, len(out), n)
	}
	return out, nil
}

func questionPrompt(input models.BusinessInput, category models.CategoryMatch, method models.AnalysisMethod, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d questions that use the '%s' analysis method to uncover the risks of this business.\n\n", n, method)
	writeBusiness(&b, input)
	if category.Name != "" {
		fmt.Fprintf(&b, "Industry: %s\n", category.Name)
	}
	fmt.Fprintf(&b, "\nMethod: %s (%s)\n", method, MethodDescriptions[method])
	b.WriteString("\nQuestions must be specific and answerable. Focus on the areas where new businesses most often fail.")
	return b.String()
}

// FallbackQuestions returns n canned questions for method: its own pool first,
// then generic questions not already used.
func FallbackQuestions(method models.AnalysisMethod, n int) []models.Question {
	pool := make([]questionTemplate, 0, len(methodQuestionPools[method])+len(genericQuestionPool))
	seen := make(map[string]bool)
	for _, src := range [][]questionTemplate{methodQuestionPools[method], genericQuestionPool} {
		for _, t := range src {
			if !seen[t.text] {
				seen[t.text] = true
				pool = append(pool, t)
			}
		}
	}

	out := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		t := pool[i%len(pool)]
		out = append(out, models.Question{Method: method, Text: t.text, Type: t.qtype, FieldHint: t.hint})
	}
	return out
}

func nonEmpty(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
