package models

// CategoryID identifies an industry category of the closed taxonomy.
type CategoryID string

// AnalysisMethod names a risk-analysis framework (e.g., "SWOT", "Lean Canvas").
type AnalysisMethod string

// CategoryMatch is one industry category inferred for a business concept.
type CategoryMatch struct {
	ID         CategoryID `json:"category_id"`
	Name       string     `json:"category_name"`
	Confidence float64    `json:"confidence_score"` // 0..100
}

const (
	QuestionTypeText   = "text"
	QuestionTypeNumber = "number"
	QuestionTypeChoice = "choice"
)

// Question is a clarifying question generated for one analysis method.
type Question struct {
	ID        string         `json:"question_id"`
	Method    AnalysisMethod `json:"method"`
	Text      string         `json:"question_text"`
	Type      string         `json:"question_type"`
	Choices   []string       `json:"choices,omitempty"`
	FieldHint string         `json:"field_hint,omitempty"`
}
