// Package workflow drives a session through the five analysis stages.
// The session's Stage field alone decides which transition is legal, and a
// failed transition never writes the session back.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/myhousemouse/Risk-api-server/internal/config"
	"github.com/myhousemouse/Risk-api-server/internal/risk"
	"github.com/myhousemouse/Risk-api-server/internal/session"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

// ReportArchiver persists generated reports beyond the session lifetime.
type ReportArchiver interface {
	SaveReport(ctx context.Context, sessionID string, report *models.Report) error
}

// Controller orchestrates the classifier, question generator and scorer
// against session state.
type Controller struct {
	sessions   session.Store
	validator  *risk.Validator
	classifier *risk.Classifier
	questions  *risk.QuestionGenerator
	scorer     *risk.Scorer
	archive    ReportArchiver
}

type Option func(*Controller)

// WithArchive stores every generated report in a. Archive failures are logged, not returned.
func WithArchive(a ReportArchiver) Option {
	return func(c *Controller) { c.archive = a }
}

func New(sessions session.Store, provider models.AIProvider, cfg config.WorkflowConfig, opts ...Option) *Controller {
	c := &Controller{
		sessions:   sessions,
		validator:  risk.NewValidator(provider),
		classifier: risk.NewClassifier(provider, cfg.MethodCount),
		questions:  risk.NewQuestionGenerator(provider, cfg.QuestionCount),
		scorer:     risk.NewScorer(provider, cfg.SummaryTopN),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current state of a session.
func (c *Controller) Get(ctx context.Context, id string) (*models.Session, error) {
	return c.sessions.Get(ctx, id)
}

// Create validates the business input and stores it in a new CREATED session.
// Inputs that do not describe a business are rejected with an
// *risk.InputRejectedError and no session is created.
func (c *Controller) Create(ctx context.Context, input models.BusinessInput) (*models.Session, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	verdict := c.validator.Validate(ctx, input)
	if !verdict.Valid {
		slog.Info("business input rejected", "message", verdict.Message, "fallback", verdict.Fallback)
		return nil, &risk.InputRejectedError{Message: verdict.Message, Suggestion: verdict.Suggestion}
	}

	id, err := c.sessions.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess, err := c.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load new session: %w", err)
	}
	sess.Input = input
	if err := c.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session input: %w", err)
	}
	return sess, nil
}

// Start creates a session and classifies it in one step.
func (c *Controller) Start(ctx context.Context, input models.BusinessInput) (*models.Session, error) {
	sess, err := c.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	return c.Classify(ctx, sess.ID)
}

// Classify moves a CREATED session to CLASSIFIED. Sessions past CREATED are rejected.
func (c *Controller) Classify(ctx context.Context, id string) (*models.Session, error) {
	sess, err := c.load(ctx, id, "classify", models.StageCreated)
	if err != nil {
		return nil, err
	}

	result, err := c.classifier.Classify(ctx, sess.Input)
	if err != nil {
		return nil, err
	}

	sess.Categories = result.Categories
	sess.Methods = result.Methods
	sess.Reasoning = result.Reasoning
	sess.Stage = models.StageClassified
	if err := c.save(ctx, sess); err != nil {
		return nil, err
	}

	slog.Info("session classified",
		"session_id", sess.ID,
		"category", sess.PrimaryCategory().ID,
		"methods", sess.Methods,
		"fallback", result.Fallback,
	)
	return sess, nil
}

// GenerateQuestions produces the questions for the stored methods. Calling it
// again before any answer was submitted replaces the previous questions.
func (c *Controller) GenerateQuestions(ctx context.Context, id string) (*models.Session, error) {
	sess, err := c.load(ctx, id, "generate questions", models.StageClassified, models.StageQuestionsReady)
	if err != nil {
		return nil, err
	}
	if len(sess.Methods) == 0 {
		return nil, &StageError{Op: "generate questions", Stage: sess.Stage}
	}

	questions, err := c.questions.Generate(ctx, sess.Input, sess.PrimaryCategory(), sess.Methods)
	if err != nil {
		return nil, err
	}

	sess.Questions = questions
	sess.Answers = nil
	sess.Report = nil
	sess.Stage = models.StageQuestionsReady
	if err := c.save(ctx, sess); err != nil {
		return nil, err
	}

	slog.Info("questions generated", "session_id", sess.ID, "count", len(questions))
	return sess, nil
}

// SubmitAnswers merges answers into the session. Every id must belong to one of
// the session's questions, otherwise nothing is stored. Completeness is only
// checked when the report is generated.
func (c *Controller) SubmitAnswers(ctx context.Context, id string, answers map[string]string) (*models.Session, error) {
	sess, err := c.load(ctx, id, "submit answers", models.StageQuestionsReady, models.StageAnswersCollected)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: no answers submitted", ErrInvalidInput)
	}

	known := make(map[string]bool, len(sess.Questions))
	for _, q := range sess.Questions {
		known[q.ID] = true
	}
	var unknown []string
	for qid := range answers {
		if !known[qid] {
			unknown = append(unknown, qid)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, &UnknownQuestionError{QuestionIDs: unknown}
	}

	merged := make(map[string]string, len(sess.Answers)+len(answers))
	maps.Copy(merged, sess.Answers)
	for qid, text := range answers {
		merged[qid] = strings.TrimSpace(text)
	}
	sess.Answers = merged
	sess.Stage = models.StageAnswersCollected
	if err := c.save(ctx, sess); err != nil {
		return nil, err
	}

	slog.Info("answers collected",
		"session_id", sess.ID,
		"answered", len(sess.Answers),
		"missing", len(risk.MissingAnswers(sess.Questions, sess.Answers)),
	)
	return sess, nil
}

// GenerateReport scores the answered questions. A REPORT_READY session gets
// its report replaced.
func (c *Controller) GenerateReport(ctx context.Context, id string) (*models.Session, error) {
	sess, err := c.load(ctx, id, "generate report", models.StageAnswersCollected, models.StageReportReady)
	if err != nil {
		return nil, err
	}

	report, err := c.scorer.Score(ctx, risk.ScoreInput{
		SessionID: sess.ID,
		Input:     sess.Input,
		Category:  sess.PrimaryCategory(),
		Methods:   sess.Methods,
		Questions: sess.Questions,
		Answers:   sess.Answers,
	})
	if err != nil {
		return nil, err
	}

	sess.Report = report
	sess.Stage = models.StageReportReady
	if err := c.save(ctx, sess); err != nil {
		return nil, err
	}

	slog.Info("report generated",
		"session_id", sess.ID,
		"items", len(report.Items),
		"risk_level", report.RiskLevel,
		"overall_score", report.OverallScore,
	)

	if c.archive != nil {
		if err := c.archive.SaveReport(ctx, sess.ID, report); err != nil {
			slog.Error("failed to archive report", "session_id", sess.ID, "error", err)
		}
	}
	return sess, nil
}

// MissingAnswers lists the question ids of a session still lacking an answer.
func MissingAnswers(sess *models.Session) []string {
	return risk.MissingAnswers(sess.Questions, sess.Answers)
}

func (c *Controller) load(ctx context.Context, id, op string, allowed ...models.Stage) (*models.Session, error) {
	sess, err := c.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(allowed, sess.Stage) {
		return nil, &StageError{Op: op, Stage: sess.Stage}
	}
	return sess, nil
}

func (c *Controller) save(ctx context.Context, sess *models.Session) error {
	if err := c.sessions.Put(ctx, sess); err != nil {
		return fmt.Errorf("store session %s: %w", sess.ID, err)
	}
	return nil
}

func normalizeInput(in models.BusinessInput) (models.BusinessInput, error) {
	in.Concept = strings.TrimSpace(in.Concept)
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.Description = strings.TrimSpace(in.Description)
	if in.Concept == "" {
		return in, fmt.Errorf("%w: concept must not be empty", ErrInvalidInput)
	}
	if in.InvestmentAmount != nil && *in.InvestmentAmount < 0 {
		return in, fmt.Errorf("%w: investment_amount must not be negative", ErrInvalidInput)
	}
	return in, nil
}
