// Package risk is the domain core of the service: it classifies a business
// concept, generates clarifying questions and scores the answers into a ranked
// OSD (Occurrence × Severity × Detection) risk report.
//
// Every AI call is treated as untrusted. When a response cannot be used the
// components fall back to deterministic content, so a workflow never dead-ends
// on the model.
package risk

import (
	"strings"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	CategoryEducation         models.CategoryID = "education"
	CategoryITStartup         models.CategoryID = "it_startup"
	CategoryManufacturing     models.CategoryID = "manufacturing"
	CategoryMarketing         models.CategoryID = "marketing"
	CategoryFinance           models.CategoryID = "finance"
	CategoryService           models.CategoryID = "service"
	CategoryProjectManagement models.CategoryID = "project_management"
	CategoryGeneralBusiness   models.CategoryID = "general_business"
)

const (
	MethodLogicModel          models.AnalysisMethod = "Logic Model"
	MethodSMARTGoal           models.AnalysisMethod = "SMART Goal"
	MethodLeanCanvas          models.AnalysisMethod = "Lean Canvas"
	MethodSWOT                models.AnalysisMethod = "SWOT"
	MethodFiveWhy             models.AnalysisMethod = "5 Why"
	MethodFMEA                models.AnalysisMethod = "FMEA"
	MethodFTA                 models.AnalysisMethod = "FTA"
	MethodHAZOP               models.AnalysisMethod = "HAZOP"
	MethodSTP                 models.AnalysisMethod = "STP"
	MethodFourP               models.AnalysisMethod = "4P"
	MethodPorterFiveForces    models.AnalysisMethod = "Porter 5 Forces"
	MethodVaR                 models.AnalysisMethod = "VaR"
	MethodMonteCarlo          models.AnalysisMethod = "Monte Carlo Simulation"
	MethodSensitivityAnalysis models.AnalysisMethod = "Sensitivity Analysis"
	MethodServiceBlueprint    models.AnalysisMethod = "Service Blueprint"
	MethodSIPOC               models.AnalysisMethod = "SIPOC"
	MethodRAIDLog             models.AnalysisMethod = "RAID Log"
	MethodPERTCPM             models.AnalysisMethod = "PERT/CPM"
	MethodRBS                 models.AnalysisMethod = "RBS"
	MethodCJM                 models.AnalysisMethod = "CJM"
)

// Category is one entry of the closed industry taxonomy.
type Category struct {
	ID       models.CategoryID
	Name     string
	Methods  []models.AnalysisMethod // in order of preference
	Keywords []string
	Costs    []CostShare
}

// CostShare is a typical share of the investment for one cost item.
type CostShare struct {
	Item  string
	Ratio float64
}

// DefaultCategory is used when nothing in the concept points anywhere else.
const DefaultCategory = CategoryGeneralBusiness

// genericMethods pad any method selection that runs short.
var genericMethods = []models.AnalysisMethod{MethodSWOT, MethodLeanCanvas, MethodCJM}

// Taxonomy is the ordered, closed set of industry categories.
var Taxonomy = []Category{
	{
		ID:      CategoryEducation,
		Name:    "Education/EdTech",
		Methods: []models.AnalysisMethod{MethodLogicModel, MethodSMARTGoal, MethodCJM},
		Keywords: []string{
			"education", "edtech", "learning", "lecture", "online course", "academy", "tutoring",
			"e-learning", "student", "teacher", "curriculum", "school", "교육", "학습", "강의", "학원",
		},
		Costs: []CostShare{
			{"Content production", 0.3}, {"Instructors", 0.25}, {"Platform operations", 0.15},
			{"Marketing", 0.2}, {"Other", 0.1},
		},
	},
	{
		ID:      CategoryITStartup,
		Name:    "IT/Startup",
		Methods: []models.AnalysisMethod{MethodLeanCanvas, MethodSWOT, MethodCJM, MethodFiveWhy},
		Keywords: []string{
			"app", "application", "software", "platform", "saas", "mobile", "web", "startup",
			"digital", "online service", "앱", "소프트웨어", "플랫폼", "스타트업",
		},
		Costs: []CostShare{
			{"Development", 0.4}, {"Design", 0.1}, {"Project management", 0.1},
			{"Servers", 0.1}, {"Marketing", 0.2}, {"Other", 0.1},
		},
	},
	{
		ID:      CategoryManufacturing,
		Name:    "Manufacturing/Hardware",
		Methods: []models.AnalysisMethod{MethodFMEA, MethodFTA, MethodHAZOP},
		Keywords: []string{
			"manufactur", "production", "factory", "equipment", "hardware", "assembly line",
			"machining", "assembly", "mass production", "제조", "생산", "공장", "설비",
		},
		Costs: []CostShare{
			{"Equipment", 0.3}, {"Materials", 0.25}, {"Labor", 0.2},
			{"Maintenance", 0.15}, {"Other", 0.1},
		},
	},
	{
		ID:      CategoryMarketing,
		Name:    "Marketing/Consumer Goods",
		Methods: []models.AnalysisMethod{MethodSTP, MethodFourP, MethodPorterFiveForces, MethodSWOT},
		Keywords: []string{
			"marketing", "advertis", "brand", "promotion", "campaign", "consumer goods", "b2c",
			"customer acquisition", "마케팅", "광고", "브랜드", "홍보",
		},
		Costs: []CostShare{
			{"Advertising", 0.4}, {"Creative production", 0.2}, {"Labor", 0.2},
			{"Tool licenses", 0.1}, {"Other", 0.1},
		},
	},
	{
		ID:      CategoryFinance,
		Name:    "Finance/Investment",
		Methods: []models.AnalysisMethod{MethodVaR, MethodMonteCarlo, MethodSensitivityAnalysis},
		Keywords: []string{
			"finance", "financial", "investment", "fund", "asset management", "stock", "bond",
			"loan", "fintech", "portfolio", "금융", "투자", "재무", "핀테크",
		},
		Costs: []CostShare{
			{"System build", 0.3}, {"Labor", 0.25}, {"Regulatory compliance", 0.2},
			{"Security", 0.15}, {"Other", 0.1},
		},
	},
	{
		ID:      CategoryService,
		Name:    "Service/Hospitality",
		Methods: []models.AnalysisMethod{MethodServiceBlueprint, MethodSIPOC, MethodCJM},
		Keywords: []string{
			"restaurant", "food", "cafe", "franchise", "hotel", "guesthouse", "lodging",
			"customer service", "store", "shop", "외식", "카페", "프랜차이즈", "숙박",
		},
		Costs: []CostShare{
			{"Rent", 0.25}, {"Labor", 0.3}, {"Ingredients", 0.2},
			{"Marketing", 0.15}, {"Other", 0.1},
		},
	},
	{
		ID:      CategoryProjectManagement,
		Name:    "Project/Construction/Infrastructure",
		Methods: []models.AnalysisMethod{MethodRAIDLog, MethodPERTCPM, MethodRBS},
		Keywords: []string{
			"project", "construction", "public works", "infrastructure", "civil engineering",
			"architecture", "government contract", "public tender", "건설", "공사", "인프라",
		},
		Costs: []CostShare{
			{"Labor", 0.35}, {"Equipment rental", 0.25}, {"Materials", 0.2},
			{"Administration", 0.1}, {"Other", 0.1},
		},
	},
	{
		ID:      CategoryGeneralBusiness,
		Name:    "General Business",
		Methods: []models.AnalysisMethod{MethodSWOT, MethodLeanCanvas, MethodCJM},
		Costs: []CostShare{
			{"Labor", 0.3}, {"Operations", 0.25}, {"Marketing", 0.2},
			{"Systems", 0.15}, {"Other", 0.1},
		},
	},
}

// MethodDescriptions explains what each analysis method looks at.
var MethodDescriptions = map[models.AnalysisMethod]string{
	MethodLogicModel:          "Structures educational outcomes from input to outcome",
	MethodSMARTGoal:           "Checks whether learning goals are realistic",
	MethodLeanCanvas:          "Maps the risks of the whole business model on one page",
	MethodSWOT:                "Quick scan of internal and external factors",
	MethodFiveWhy:             "Finds the root cause of problems and defects",
	MethodFMEA:                "Quantifies failure and defect risks with O/S/D",
	MethodFTA:                 "Traces failures back to root causes as a tree",
	MethodHAZOP:               "Identifies hazards in processes and work environments",
	MethodSTP:                 "Structures segmentation, targeting and positioning",
	MethodFourP:               "Reviews product, price, place and promotion",
	MethodPorterFiveForces:    "Measures the competitive intensity of the market",
	MethodVaR:                 "Estimates loss risk probabilistically",
	MethodMonteCarlo:          "Simulates variable swings to measure risk",
	MethodSensitivityAnalysis: "Shows how sensitive profit is to changing variables",
	MethodServiceBlueprint:    "Analyzes customer experience and back-office processes together",
	MethodSIPOC:               "Visualizes the service process end to end",
	MethodRAIDLog:             "Tracks risks, assumptions, issues and dependencies",
	MethodPERTCPM:             "Computes schedule risk and the critical path",
	MethodRBS:                 "Classifies large project risks into a breakdown structure",
	MethodCJM:                 "Follows the user journey to find drop-off points",
}

var categoryIndex = func() map[models.CategoryID]int {
	m := make(map[models.CategoryID]int, len(Taxonomy))
	for i, c := range Taxonomy {
		m[c.ID] = i
	}
	return m
}()

// LookupCategory returns the taxonomy entry for id.
func LookupCategory(id models.CategoryID) (Category, bool) {
	i, ok := categoryIndex[id]
	if !ok {
		return Category{}, false
	}
	return Taxonomy[i], true
}

// CategoryName returns the display name of id, or the id itself if unknown.
func CategoryName(id models.CategoryID) string {
	if c, ok := LookupCategory(id); ok {
		return c.Name
	}
	return string(id)
}

// CandidateMethods returns every analysis method, ordered by first appearance in the taxonomy.
func CandidateMethods() []models.AnalysisMethod {
	seen := make(map[models.AnalysisMethod]bool)
	var out []models.AnalysisMethod
	for _, c := range Taxonomy {
		for _, m := range c.Methods {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// ParseMethod matches a method name case-insensitively against the candidate set.
func ParseMethod(name string) (models.AnalysisMethod, bool) {
	name = strings.TrimSpace(name)
	for _, m := range CandidateMethods() {
		if strings.EqualFold(string(m), name) {
			return m, true
		}
	}
	return "", false
}
