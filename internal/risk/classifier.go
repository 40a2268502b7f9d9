package risk

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/myhousemouse/Risk-api-server/internal/ai"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	maxCategories          = 2
	keywordConfidenceStep  = 15
	keywordConfidenceMax   = 95
	defaultCategoryScore   = 50
	classificationMaxToken = 800
)

// Classification is the outcome of classifying a business concept.
type Classification struct {
	Categories []models.CategoryMatch // non-empty, highest confidence first
	Methods    []models.AnalysisMethod
	Reasoning  string
	Fallback   bool // true when the AI answer was unusable
}

// Classifier maps a concept onto the taxonomy and picks analysis methods.
type Classifier struct {
	provider    models.AIProvider
	methodCount int
}

func NewClassifier(provider models.AIProvider, methodCount int) *Classifier {
	return &Classifier{provider: provider, methodCount: methodCount}
}

type classificationResponse struct {
	Categories []struct {
		ID         string   `json:"category_id"`
		Confidence *float64 `json:"confidence"`
	} `json:"categories"`
	Methods   []string `json:"methods"`
	Reasoning string   `json:"reasoning"`
}

const classificationSchema = `{"categories":[{"category_id":"<id from the list>","confidence":<0-100>}],"methods":["<method name from the list>"],"reasoning":"<one paragraph>"}`

// Classify returns categories and exactly the configured number of distinct
// methods. It only fails on invalid input.
func (c *Classifier) Classify(ctx context.Context, input models.BusinessInput) (*Classification, error) {
	if strings.TrimSpace(input.Concept) == "" {
		return nil, fmt.Errorf("%w: concept must not be empty", ErrInvalidInput)
	}

	text, err := c.provider.Complete(ctx, models.CompletionRequest{
		System:      "You classify business ideas into a fixed industry taxonomy and choose risk analysis methods.",
		Prompt:      c.prompt(input),
		Schema:      classificationSchema,
		Temperature: 0.2,
		MaxTokens:   classificationMaxToken,
	})
	if err == nil {
		var result *Classification
		result, err = c.parse(text)
		if err == nil {
			if result.Reasoning == "" {
				result.Reasoning = Reasoning(result.Categories, result.Methods)
			}
			return result, nil
		}
	}

	slog.Warn("classification fallback", "stage", "classify", "provider", c.provider.Name(), "error", err)
	return c.fallback(input), nil
}

func (c *Classifier) prompt(input models.BusinessInput) string {
	var b strings.Builder
	b.WriteString("Classify the following business into at most ")
	fmt.Fprintf(&b, "%d industry categories and select exactly %d distinct analysis methods.\n\n", maxCategories, c.methodCount)
	writeBusiness(&b, input)

	b.WriteString("\nCategories (category_id: name):\n")
	for _, cat := range Taxonomy {
		fmt.Fprintf(&b, "- %s: %s\n", cat.ID, cat.Name)
	}
	b.WriteString("\nAnalysis methods:\n")
	for _, m := range CandidateMethods() {
		fmt.Fprintf(&b, "- %s: %s\n", m, MethodDescriptions[m])
	}
	return b.String()
}

// parse validates the AI answer. Anything outside the taxonomy, the
// confidence range or the method count makes the whole answer unusable.
func (c *Classifier) parse(text string) (*Classification, error) {
	resp, err := ai.DecodeJSON[classificationResponse](text)
	if err != nil {
		return nil, err
	}
	if len(resp.Categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ai.ErrInvalidResponse)
	}

	seenCat := make(map[models.CategoryID]bool)
	var matches []models.CategoryMatch
	for _, rc := range resp.Categories {
		cat, ok := LookupCategory(models.CategoryID(strings.TrimSpace(rc.ID)))
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ai.ErrInvalidResponse, rc.ID)
		}
		if rc.Confidence == nil || math.IsNaN(*rc.Confidence) || *rc.Confidence < 0 || *rc.Confidence > 100 {
			return nil, fmt.Errorf("%w: confidence for %q out of range", ai.ErrInvalidResponse, rc.ID)
		}
		if seenCat[cat.ID] {
			return nil, fmt.Errorf("%w: duplicate category %q", ai.ErrInvalidResponse, rc.ID)
		}
		seenCat[cat.ID] = true
		matches = append(matches, models.CategoryMatch{ID: cat.ID, Name: cat.Name, Confidence: *rc.Confidence})
	}

	if len(resp.Methods) != c.methodCount {
		return nil, fmt.Errorf("%w: got %d methods, want %d", ai.ErrInvalidResponse, len(resp.Methods), c.methodCount)
	}
	seenMethod := make(map[models.AnalysisMethod]bool)
	methods := make([]models.AnalysisMethod, 0, c.methodCount)
	for _, name := range resp.Methods {
		m, ok := ParseMethod(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown method %q", ai.ErrInvalidResponse, name)
		}
		if seenMethod[m] {
			return nil, fmt.Errorf("%w: duplicate method %q", ai.ErrInvalidResponse, name)
		}
		seenMethod[m] = true
		methods = append(methods, m)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Confidence > matches[j].Confidence })
	if len(matches) > maxCategories {
		matches = matches[:maxCategories]
	}

	return &Classification{
		Categories: matches,
		Methods:    methods,
		Reasoning:  strings.TrimSpace(resp.Reasoning),
	}, nil
}

func (c *Classifier) fallback(input models.BusinessInput) *Classification {
	matches := MatchKeywords(input.Concept + " " + input.BusinessName + " " + input.Description)
	methods := SelectMethods(matches, c.methodCount)
	return &Classification{
		Categories: matches,
		Methods:    methods,
		Reasoning:  Reasoning(matches, methods),
		Fallback:   true,
	}
}

// MatchKeywords scores text against each category's keywords. Each hit is
// worth 15 points up to 95; the two best categories are returned. With no
// hits at all the default category is returned at 50.
func MatchKeywords(text string) []models.CategoryMatch {
	lower := strings.ToLower(text)

	var matches []models.CategoryMatch
	for _, cat := range Taxonomy {
		hits := 0
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		matches = append(matches, models.CategoryMatch{
			ID:         cat.ID,
			Name:       cat.Name,
			Confidence: float64(min(hits*keywordConfidenceStep, keywordConfidenceMax)),
		})
	}

	if len(matches) == 0 {
		return []models.CategoryMatch{{
			ID:         DefaultCategory,
			Name:       CategoryName(DefaultCategory),
			Confidence: defaultCategoryScore,
		}}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Confidence > matches[j].Confidence })
	if len(matches) > maxCategories {
		matches = matches[:maxCategories]
	}
	return matches
}

// SelectMethods deterministically picks n distinct methods for the matched
// categories: the lead method of the top category, then the first new method
// of the second category (or the top category's second method), then the rest
// of the top category, then the generic methods, then any candidate.
func SelectMethods(matches []models.CategoryMatch, n int) []models.AnalysisMethod {
	selected := make([]models.AnalysisMethod, 0, n)
	seen := make(map[models.AnalysisMethod]bool)
	add := func(m models.AnalysisMethod) bool {
		if len(selected) < n && !seen[m] {
			seen[m] = true
			selected = append(selected, m)
			return true
		}
		return false
	}

	var first []models.AnalysisMethod
	if len(matches) > 0 {
		if cat, ok := LookupCategory(matches[0].ID); ok {
			first = cat.Methods
		}
	}
	if len(first) > 0 {
		add(first[0])
	}

	if len(matches) > 1 {
		if cat, ok := LookupCategory(matches[1].ID); ok {
			for _, m := range cat.Methods {
				if add(m) {
					break
				}
			}
		}
	}

	for _, m := range first {
		add(m)
	}
	for _, m := range genericMethods {
		add(m)
	}
	for _, m := range CandidateMethods() {
		add(m)
	}
	return selected
}

// Reasoning builds the explanation shown with a classification.
func Reasoning(matches []models.CategoryMatch, methods []models.AnalysisMethod) string {
	var b strings.Builder
	switch len(matches) {
	case 0:
		b.WriteString("The business could not be matched to a specific industry.")
	case 1:
		fmt.Fprintf(&b, "The business was classified as '%s' (confidence: %.0f%%).", matches[0].Name, matches[0].Confidence)
	default:
		fmt.Fprintf(&b, "The business was classified as a blend of '%s' and '%s'.", matches[0].Name, matches[1].Name)
	}

	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	fmt.Fprintf(&b, "\n\nRisks will be analyzed with %s.\n\nSelected analysis methods:", strings.Join(names, ", "))
	for i, m := range methods {
		fmt.Fprintf(&b, "\n%d. %s: %s", i+1, m, MethodDescriptions[m])
	}
	return b.String()
}

func writeBusiness(b *strings.Builder, input models.BusinessInput) {
	fmt.Fprintf(b, "Concept: %s\n", strings.TrimSpace(input.Concept))
	if input.BusinessName != "" {
		fmt.Fprintf(b, "Business name: %s\n", input.BusinessName)
	}
	if input.Description != "" {
		fmt.Fprintf(b, "Description: %s\n", input.Description)
	}
	if input.InvestmentAmount != nil {
		fmt.Fprintf(b, "Investment amount: %d\n", *input.InvestmentAmount)
	} else {
		b.WriteString("Investment amount: undecided\n")
	}
}
