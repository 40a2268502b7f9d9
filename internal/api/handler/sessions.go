package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/myhousemouse/Risk-api-server/internal/api/response"
	"github.com/myhousemouse/Risk-api-server/internal/workflow"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const maxBodyBytes = 1 << 20

// Workflow is the part of the workflow controller the stage handlers depend on.
type Workflow interface {
	Start(ctx context.Context, input models.BusinessInput) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	GenerateQuestions(ctx context.Context, id string) (*models.Session, error)
	SubmitAnswers(ctx context.Context, id string, answers map[string]string) (*models.Session, error)
	GenerateReport(ctx context.Context, id string) (*models.Session, error)
}

type createSessionRequest struct {
	Concept          string `json:"concept"`
	BusinessName     string `json:"business_name"`
	Description      string `json:"description"`
	InvestmentAmount *int64 `json:"investment_amount"`
}

type classificationResponse struct {
	SessionID  string                  `json:"session_id"`
	Stage      models.Stage            `json:"stage"`
	Categories []models.CategoryMatch  `json:"matched_categories"`
	Methods    []models.AnalysisMethod `json:"selected_methods"`
	Reasoning  string                  `json:"reasoning"`
}

// NewCreateSessionHandler returns an http.HandlerFunc for POST /api/v1/sessions.
// It creates the session and classifies the concept.
func NewCreateSessionHandler(wf Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		sess, err := wf.Start(r.Context(), models.BusinessInput{
			Concept:          req.Concept,
			BusinessName:     req.BusinessName,
			Description:      req.Description,
			InvestmentAmount: req.InvestmentAmount,
		})
		if err != nil {
			writeWorkflowError(w, r, err)
			return
		}

		response.Created(w, classificationResponse{
			SessionID:  sess.ID,
			Stage:      sess.Stage,
			Categories: sess.Categories,
			Methods:    sess.Methods,
			Reasoning:  sess.Reasoning,
		})
	}
}

type sessionResponse struct {
	SessionID  string                  `json:"session_id"`
	Stage      models.Stage            `json:"stage"`
	Input      models.BusinessInput    `json:"input"`
	Categories []models.CategoryMatch  `json:"matched_categories,omitempty"`
	Methods    []models.AnalysisMethod `json:"selected_methods,omitempty"`
	Questions  []models.Question       `json:"questions,omitempty"`
	Answered   int                     `json:"answered"`
	Missing    []string                `json:"missing,omitempty"`
	HasReport  bool                    `json:"has_report"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// NewGetSessionHandler returns an http.HandlerFunc for GET /api/v1/sessions/{sessionID}.
func NewGetSessionHandler(wf Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := wf.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeWorkflowError(w, r, err)
			return
		}

		resp := sessionResponse{
			SessionID:  sess.ID,
			Stage:      sess.Stage,
			Input:      sess.Input,
			Categories: sess.Categories,
			Methods:    sess.Methods,
			Questions:  sess.Questions,
			HasReport:  sess.Report != nil,
			CreatedAt:  sess.CreatedAt,
			UpdatedAt:  sess.UpdatedAt,
		}
		if len(sess.Questions) > 0 {
			resp.Missing = workflow.MissingAnswers(sess)
			resp.Answered = len(sess.Questions) - len(resp.Missing)
		}
		response.JSON(w, resp)
	}
}

type questionsResponse struct {
	SessionID      string            `json:"session_id"`
	Questions      []models.Question `json:"questions"`
	TotalQuestions int               `json:"total_questions"`
}

// NewQuestionsHandler returns an http.HandlerFunc for POST /api/v1/sessions/{sessionID}/questions.
func NewQuestionsHandler(wf Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := wf.GenerateQuestions(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeWorkflowError(w, r, err)
			return
		}

		response.JSON(w, questionsResponse{
			SessionID:      sess.ID,
			Questions:      sess.Questions,
			TotalQuestions: len(sess.Questions),
		})
	}
}

type answersResponse struct {
	SessionID string       `json:"session_id"`
	Stage     models.Stage `json:"stage"`
	Answered  int          `json:"answered"`
	Missing   []string     `json:"missing"`
}

// NewAnswersHandler returns an http.HandlerFunc for PUT /api/v1/sessions/{sessionID}/answers.
func NewAnswersHandler(wf Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers map[string]string `json:"answers"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		sess, err := wf.SubmitAnswers(r.Context(), chi.URLParam(r, "sessionID"), req.Answers)
		if err != nil {
			writeWorkflowError(w, r, err)
			return
		}

		missing := workflow.MissingAnswers(sess)
		if missing == nil {
			missing = []string{}
		}
		response.JSON(w, answersResponse{
			SessionID: sess.ID,
			Stage:     sess.Stage,
			Answered:  len(sess.Questions) - len(missing),
			Missing:   missing,
		})
	}
}

// NewReportHandler returns an http.HandlerFunc for POST /api/v1/sessions/{sessionID}/report.
func NewReportHandler(wf Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := wf.GenerateReport(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeWorkflowError(w, r, err)
			return
		}
		response.JSON(w, sess.Report)
	}
}

// decodeBody decodes a JSON request body and writes a 400 when it is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return false
	}
	return true
}
