package models

import "time"

// RiskItem is a single scored risk. RPN is always Occurrence × Severity × Detection.
type RiskItem struct {
	Rank           int            `json:"rank"`
	Method         AnalysisMethod `json:"method,omitempty"`
	Description    string         `json:"description"`
	Occurrence     int            `json:"occurrence"`
	Severity       int            `json:"severity"`
	Detection      int            `json:"detection"`
	RPN            int            `json:"rpn"`
	Recommendation string         `json:"recommendation"`
}

// Report is the final ranked risk report of a session. Items are ordered by
// descending RPN; regenerating a report replaces it as a whole.
type Report struct {
	SessionID        string           `json:"session_id"`
	BusinessName     string           `json:"business_name,omitempty"`
	Category         CategoryMatch    `json:"category"`
	Methods          []AnalysisMethod `json:"analysis_methods_used"`
	Items            []RiskItem       `json:"risk_items"`
	MethodResults    []MethodResult   `json:"method_results"`
	Recommendations  []Recommendation `json:"ai_recommendations"`
	ExecutiveSummary string           `json:"executive_summary"`
	OverallScore     float64          `json:"overall_risk_score"` // 0..100
	RiskLevel        string           `json:"overall_risk_level"`
	RiskGrade        string           `json:"risk_grade"`
	Loss             *LossEstimate    `json:"cash_loss_analysis,omitempty"`
	Provider         string           `json:"provider"`
	GeneratedAt      time.Time        `json:"created_at"`
}

// MethodResult is the view of the report through one analysis method.
// Risks keep their report-wide rank.
type MethodResult struct {
	Method      AnalysisMethod `json:"method"`
	Risks       []RiskItem     `json:"osd_risks"`
	KeyFindings []string       `json:"key_findings"`
	Insights    string         `json:"method_specific_insights"`
}

// Recommendation is one prioritized action for the business.
type Recommendation struct {
	Category       string `json:"category"`
	Priority       string `json:"priority"` // High, Medium or Low
	Action         string `json:"action"`
	ExpectedImpact string `json:"expected_impact"`
	Difficulty     string `json:"implementation_difficulty"` // Easy, Moderate or Hard
}

// LossEstimate is the probability-weighted cash loss derived from the risk items.
type LossEstimate struct {
	Investment        int64      `json:"investment_amount"`
	TotalExpectedLoss float64    `json:"total_expected_loss"`
	Capex             float64    `json:"capex"`
	Opex              float64    `json:"opex"`
	CostBreakdown     []CostLine `json:"cost_breakdown"`
	ByRisk            []RiskLoss `json:"loss_by_risk"`
}

// CostLine is one share of the investment in the category's cost structure.
type CostLine struct {
	Item   string  `json:"item"`
	Ratio  float64 `json:"ratio"`
	Amount float64 `json:"amount"`
}

// RiskLoss is the expected loss attributed to a single risk item.
type RiskLoss struct {
	Description  string  `json:"risk_description"`
	RPN          int     `json:"rpn"`
	Probability  float64 `json:"probability"`
	ExpectedLoss float64 `json:"expected_loss"`
}
