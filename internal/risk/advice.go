package risk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"

	DifficultyEasy     = "Easy"
	DifficultyModerate = "Moderate"
	DifficultyHard     = "Hard"

	maxRecommendations = 7
	maxKeyFindings     = 5
)

// MethodNotes is what the model concluded for one analysis method.
type MethodNotes struct {
	KeyFindings []string
	Insights    string
}

// MethodResults groups ranked items by method in the order of methods.
// Methods without notes get template findings built from their own risks.
func MethodResults(methods []models.AnalysisMethod, ranked []models.RiskItem, notes map[models.AnalysisMethod]MethodNotes) []models.MethodResult {
	results := make([]models.MethodResult, 0, len(methods))
	for _, m := range methods {
		risks := []models.RiskItem{}
		for _, it := range ranked {
			if it.Method == m {
				risks = append(risks, it)
			}
		}

		n := notes[m]
		if len(n.KeyFindings) == 0 {
			n.KeyFindings = fallbackFindings(m, risks)
		}
		if n.Insights == "" {
			n.Insights = fmt.Sprintf("%s analysis surfaced the structural risks of the business.", m)
		}
		results = append(results, models.MethodResult{
			Method:      m,
			Risks:       risks,
			KeyFindings: n.KeyFindings,
			Insights:    n.Insights,
		})
	}
	return results
}

func fallbackFindings(m models.AnalysisMethod, risks []models.RiskItem) []string {
	findings := []string{fmt.Sprintf("%s analysis identified the core risk areas.", m)}
	if len(risks) > 0 {
		top := risks[0]
		findings = append(findings, fmt.Sprintf("The highest risk is %s (RPN %d).", top.Description, top.RPN))
	}
	return append(findings,
		"The areas that need improvement are clearly identified.",
		"A staged risk mitigation strategy is needed.",
	)
}

var fallbackRecommendations = []models.Recommendation{
	{
		Category:       "Market validation",
		Priority:       PriorityHigh,
		Action:         "Re-validate problem-solution fit through early customer interviews.",
		ExpectedImpact: "Better product-market fit and lower pivot risk.",
		Difficulty:     DifficultyEasy,
	},
	{
		Category:       "MVP development",
		Priority:       PriorityHigh,
		Action:         "Release a minimum viable product with only the core features first.",
		ExpectedImpact: "Lower development cost and faster market feedback.",
		Difficulty:     DifficultyModerate,
	},
	{
		Category:       "Financial management",
		Priority:       PriorityMedium,
		Action:         "Set up monthly burn rate monitoring.",
		ExpectedImpact: "Early warning before cash runs out.",
		Difficulty:     DifficultyEasy,
	},
	{
		Category:       "Team capability",
		Priority:       PriorityMedium,
		Action:         "Train the team on the core technology stack.",
		ExpectedImpact: "Faster delivery and less technical debt.",
		Difficulty:     DifficultyModerate,
	},
	{
		Category:       "Customer feedback",
		Priority:       PriorityHigh,
		Action:         "Automate the collection of user feedback.",
		ExpectedImpact: "Faster product improvement and lower churn.",
		Difficulty:     DifficultyEasy,
	},
}

// FallbackRecommendations returns the canned advice, highest priority first.
func FallbackRecommendations() []models.Recommendation {
	out := make([]models.Recommendation, len(fallbackRecommendations))
	copy(out, fallbackRecommendations)
	sortByPriority(out)
	return out
}

// NormalizeRecommendations drops entries without an action, maps priority and
// difficulty onto their fixed scales and orders the rest by priority.
func NormalizeRecommendations(recs []models.Recommendation) []models.Recommendation {
	var out []models.Recommendation
	for _, r := range recs {
		r.Action = strings.TrimSpace(r.Action)
		if r.Action == "" {
			continue
		}
		r.Category = strings.TrimSpace(r.Category)
		if r.Category == "" {
			r.Category = "General"
		}
		r.ExpectedImpact = strings.TrimSpace(r.ExpectedImpact)
		r.Priority = normalizePriority(r.Priority)
		r.Difficulty = normalizeDifficulty(r.Difficulty)
		out = append(out, r)
		if len(out) == maxRecommendations {
			break
		}
	}
	sortByPriority(out)
	return out
}

func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high", "critical", "높음":
		return PriorityHigh
	case "low", "낮음":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy", "low", "쉬움":
		return DifficultyEasy
	case "hard", "difficult", "high", "어려움":
		return DifficultyHard
	default:
		return DifficultyModerate
	}
}

var priorityOrder = map[string]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}

func sortByPriority(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return priorityOrder[recs[i].Priority] < priorityOrder[recs[j].Priority]
	})
}

func cleanFindings(findings []string) []string {
	var out []string
	for _, f := range findings {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
		if len(out) == maxKeyFindings {
			break
		}
	}
	return out
}
