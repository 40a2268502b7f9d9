package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/myhousemouse/Risk-api-server/internal/ai"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	scoringMaxTokens = 4000
	summaryMaxTokens = 800
)

// ScoreInput is everything the scorer needs from a session.
type ScoreInput struct {
	SessionID string
	Input     models.BusinessInput
	Category  models.CategoryMatch
	Methods   []models.AnalysisMethod
	Questions []models.Question
	Answers   map[string]string
}

// Scorer turns answered questions into a ranked OSD report.
type Scorer struct {
	provider models.AIProvider
	topN     int
	now      func() time.Time
}

func NewScorer(provider models.AIProvider, summaryTopN int) *Scorer {
	return &Scorer{provider: provider, topN: summaryTopN, now: time.Now}
}

type scoringResponse struct {
	Risks []struct {
		Method         string  `json:"method"`
		Description    string  `json:"description"`
		Occurrence     float64 `json:"occurrence"`
		Severity       float64 `json:"severity"`
		Detection      float64 `json:"detection"`
		Recommendation string  `json:"recommendation"`
	} `json:"risks"`
	MethodResults []struct {
		Method      string   `json:"method"`
		KeyFindings []string `json:"key_findings"`
		Insights    string   `json:"insights"`
	} `json:"method_results"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

const scoringSchema = `{"risks":[{"method":"<analysis method>","description":"<risk>","occurrence":<1-10>,"severity":<1-10>,"detection":<1-10>,"recommendation":"<concrete action>"}],` +
	`"method_results":[{"method":"<analysis method>","key_findings":["<finding>"],"insights":"<one paragraph>"}],` +
	`"recommendations":[{"category":"<area>","priority":"High|Medium|Low","action":"<concrete action>","expected_impact":"<effect>","implementation_difficulty":"Easy|Moderate|Hard"}]}`

// assessment is the usable part of a scoring answer.
type assessment struct {
	items           []models.RiskItem
	notes           map[models.AnalysisMethod]MethodNotes
	recommendations []models.Recommendation
}

// Score builds the report. Every question must have a non-blank answer.
func (s *Scorer) Score(ctx context.Context, in ScoreInput) (*models.Report, error) {
	if len(in.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions to score", ErrInvalidInput)
	}
	if missing := MissingAnswers(in.Questions, in.Answers); len(missing) > 0 {
		return nil, &MissingAnswersError{QuestionIDs: missing}
	}

	a, err := s.assess(ctx, in)
	if err != nil {
		slog.Warn("scoring fallback", "stage", "report", "session_id", in.SessionID, "provider", s.provider.Name(), "error", err)
		a = &assessment{items: FallbackRisks(in.Methods)}
	}
	items := Rank(a.items)
	recs := a.recommendations
	if len(recs) == 0 {
		recs = FallbackRecommendations()
	}

	score, level, grade := OverallRisk(items)
	report := &models.Report{
		SessionID:       in.SessionID,
		BusinessName:    businessName(in.Input),
		Category:        in.Category,
		Methods:         in.Methods,
		Items:           items,
		MethodResults:   MethodResults(in.Methods, items, a.notes),
		Recommendations: recs,
		OverallScore:    score,
		RiskLevel:       level,
		RiskGrade:       grade,
		Provider:        s.provider.Name(),
		GeneratedAt:     s.now().UTC(),
	}
	if amt := in.Input.InvestmentAmount; amt != nil && *amt > 0 {
		report.Loss = EstimateLoss(items, *amt, in.Category.ID)
	}

	summary, err := s.summarize(ctx, in, report)
	if err != nil {
		slog.Warn("summary fallback", "stage", "report", "session_id", in.SessionID, "provider", s.provider.Name(), "error", err)
		summary = TemplateSummary(report, s.topN)
	}
	report.ExecutiveSummary = summary
	return report, nil
}

// MissingAnswers lists, in question order, the ids without a non-blank answer.
func MissingAnswers(questions []models.Question, answers map[string]string) []string {
	var missing []string
	for _, q := range questions {
		if strings.TrimSpace(answers[q.ID]) == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

func (s *Scorer) assess(ctx context.Context, in ScoreInput) (*assessment, error) {
	text, err := s.provider.Complete(ctx, models.CompletionRequest{
		System:      "You are a risk analyst with long FMEA experience. Score business risks with the OSD method precisely and objectively.",
		Prompt:      scoringPrompt(in),
		Schema:      scoringSchema,
		Temperature: 0.5,
		MaxTokens:   scoringMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	resp, err := ai.DecodeJSON[scoringResponse](text)
	if err != nil {
		return nil, err
	}

	selected := make(map[models.AnalysisMethod]bool, len(in.Methods))
	for _, m := range in.Methods {
		selected[m] = true
	}

	var items []models.RiskItem
	for _, r := range resp.Risks {
		desc := strings.TrimSpace(r.Description)
		if desc == "" {
			continue
		}
		item := models.RiskItem{
			Description:    desc,
			Occurrence:     ClampScore(r.Occurrence),
			Severity:       ClampScore(r.Severity),
			Detection:      ClampScore(r.Detection),
			Recommendation: strings.TrimSpace(r.Recommendation),
		}
		if m, ok := ParseMethod(r.Method); ok && selected[m] {
			item.Method = m
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no usable risk items", ai.ErrInvalidResponse)
	}

	notes := make(map[models.AnalysisMethod]MethodNotes)
	for _, r := range resp.MethodResults {
		m, ok := ParseMethod(r.Method)
		if !ok || !selected[m] {
			continue
		}
		notes[m] = MethodNotes{KeyFindings: cleanFindings(r.KeyFindings), Insights: strings.TrimSpace(r.Insights)}
	}

	return &assessment{
		items:           Dedupe(items),
		notes:           notes,
		recommendations: NormalizeRecommendations(resp.Recommendations),
	}, nil
}

func scoringPrompt(in ScoreInput) string {
	var b strings.Builder
	b.WriteString("Identify 3 to 5 key risks per analysis method for this business and score each with OSD.\n")
	b.WriteString("Add the key findings of every method and 5 to 7 recommendations ordered by priority.\n\n")
	writeBusiness(&b, in.Input)
	if in.Category.Name != "" {
		fmt.Fprintf(&b, "Industry: %s\n", in.Category.Name)
	}

	names := make([]string, len(in.Methods))
	for i, m := range in.Methods {
		names[i] = string(m)
	}
	fmt.Fprintf(&b, "Analysis methods: %s\n\nQuestions and answers:\n", strings.Join(names, ", "))
	for _, q := range in.Questions {
		fmt.Fprintf(&b, "[%s] Q: %s\nA: %s\n", q.Method, q.Text, strings.TrimSpace(in.Answers[q.ID]))
	}

	b.WriteString("\nOSD scale:\n")
	b.WriteString("- occurrence: likelihood, 1 (rare) to 10 (almost certain)\n")
	b.WriteString("- severity: impact, 1 (negligible) to 10 (fatal)\n")
	b.WriteString("- detection: 1 (easily detected) to 10 (practically undetectable)\n")
	return b.String()
}

// Rank recomputes every RPN, orders items by descending RPN keeping input
// order on ties, and numbers them from 1.
func Rank(items []models.RiskItem) []models.RiskItem {
	out := make([]models.RiskItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].RPN = RPN(out[i].Occurrence, out[i].Severity, out[i].Detection)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RPN > out[j].RPN })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

var fallbackRiskTemplates = []struct {
	theme          string
	o, s, d        int
	recommendation string
}{
	{"market competition risk", 7, 8, 6, "Re-validate problem-solution fit through early customer interviews."},
	{"operational risk", 5, 9, 7, "Launch a minimum viable product with only the core features to get market feedback early."},
	{"financial risk", 6, 6, 5, "Track the monthly burn rate to catch cash depletion early."},
}

// FallbackRisks returns the canned risk set used when the model's assessment is unusable.
func FallbackRisks(methods []models.AnalysisMethod) []models.RiskItem {
	var items []models.RiskItem
	for _, m := range methods {
		for _, t := range fallbackRiskTemplates {
			items = append(items, models.RiskItem{
				Method:         m,
				Description:    fmt.Sprintf("%s analysis: %s", m, t.theme),
				Occurrence:     t.o,
				Severity:       t.s,
				Detection:      t.d,
				Recommendation: t.recommendation,
			})
		}
	}
	return items
}

func (s *Scorer) summarize(ctx context.Context, in ScoreInput, report *models.Report) (string, error) {
	var b strings.Builder
	b.WriteString("Write a two to three paragraph executive summary of the key risks and opportunities of this business.\n\n")
	writeBusiness(&b, in.Input)
	fmt.Fprintf(&b, "Overall risk: %s (grade %s, score %.2f/100)\n\nTop risks:\n", report.RiskLevel, report.RiskGrade, report.OverallScore)
	for _, it := range topItems(report.Items, s.topN) {
		fmt.Fprintf(&b, "%d. %s (RPN %d = O%d x S%d x D%d)\n", it.Rank, it.Description, it.RPN, it.Occurrence, it.Severity, it.Detection)
	}

	text, err := s.provider.Complete(ctx, models.CompletionRequest{
		System:      "You brief founders on business risk in plain language.",
		Prompt:      b.String(),
		Temperature: 0.5,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty summary", ai.ErrInvalidResponse)
	}
	return text, nil
}

// TemplateSummary builds the executive summary from the top items without a model.
func TemplateSummary(report *models.Report, topN int) string {
	var b strings.Builder
	name := report.BusinessName
	if name == "" {
		name = "This business"
	}
	fmt.Fprintf(&b, "%s carries a %s overall risk (grade %s, %.2f/100).", name, strings.ToLower(report.RiskLevel), report.RiskGrade, report.OverallScore)

	top := topItems(report.Items, topN)
	if len(top) > 0 {
		b.WriteString(" The highest priority risks are:")
		for _, it := range top {
			fmt.Fprintf(&b, "\n%d. %s (RPN %d)", it.Rank, it.Description, it.RPN)
		}
		b.WriteString("\n\nAddress these risks first and re-evaluate at each major milestone before committing further investment.")
	}
	return b.String()
}

func topItems(items []models.RiskItem, n int) []models.RiskItem {
	if n <= 0 || n > len(items) {
		n = len(items)
	}
	return items[:n]
}

func businessName(in models.BusinessInput) string {
	if name := strings.TrimSpace(in.BusinessName); name != "" {
		return name
	}
	return strings.TrimSpace(in.Concept)
}
