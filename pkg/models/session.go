package models

import "time"

// Stage is the position of a session in the five-step workflow.
type Stage string

const (
	StageCreated          Stage = "CREATED"
	StageClassified       Stage = "CLASSIFIED"
	StageQuestionsReady   Stage = "QUESTIONS_READY"
	StageAnswersCollected Stage = "ANSWERS_COLLECTED"
	StageReportReady      Stage = "REPORT_READY"
)

// BusinessInput is the founder's initial description of the business.
type BusinessInput struct {
	Concept          string `json:"concept"`
	BusinessName     string `json:"business_name,omitempty"`
	Description      string `json:"description,omitempty"`
	InvestmentAmount *int64 `json:"investment_amount,omitempty"`
}

// Session is the complete per-session workflow state.
// Stage is the single source of truth for which transition is legal.
type Session struct {
	ID         string            `json:"id"`
	Stage      Stage             `json:"stage"`
	Input      BusinessInput     `json:"input"`
	Categories []CategoryMatch   `json:"categories,omitempty"`
	Methods    []AnalysisMethod  `json:"methods,omitempty"`
	Reasoning  string            `json:"reasoning,omitempty"`
	Questions  []Question        `json:"questions,omitempty"`
	Answers    map[string]string `json:"answers,omitempty"`
	Report     *Report           `json:"report,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// PrimaryCategory returns the highest-confidence category, or the zero value.
func (s *Session) PrimaryCategory() CategoryMatch {
	if len(s.Categories) == 0 {
		return CategoryMatch{}
	}
	return s.Categories[0]
}
