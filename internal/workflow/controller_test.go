package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/myhousemouse/Risk-api-server/internal/ai/mock"
	"github.com/myhousemouse/Risk-api-server/internal/cache"
	"github.com/myhousemouse/Risk-api-server/internal/config"
	"github.com/myhousemouse/Risk-api-server/internal/risk"
	"github.com/myhousemouse/Risk-api-server/internal/session"
	"github.com/myhousemouse/Risk-api-server/internal/workflow"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultWorkflow = config.WorkflowConfig{MethodCount: 2, QuestionCount: 5, SummaryTopN: 3}

type fakeArchive struct {
	mu      sync.Mutex
	reports map[string]*models.Report
	err     error
}

func (f *fakeArchive) SaveReport(_ context.Context, sessionID string, r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.reports == nil {
		f.reports = map[string]*models.Report{}
	}
	f.reports[sessionID] = r
	return nil
}

func newController(t *testing.T, provider models.AIProvider, opts ...workflow.Option) (*workflow.Controller, session.Store) {
	t.Helper()
	store := session.NewCacheStore(cache.NewMemoryCache(time.Minute), time.Hour)
	return workflow.New(store, provider, defaultWorkflow, opts...), store
}

func snapshot(t *testing.T, store session.Store, id string) []byte {
	t.Helper()
	sess, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	b, err := json.Marshal(sess)
	require.NoError(t, err)
	return b
}

func answerAll(sess *models.Session) map[string]string {
	out := make(map[string]string, len(sess.Questions))
	for _, q := range sess.Questions {
		out[q.ID] = "Answer for " + q.ID
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }

func TestEndToEnd_TextbookTradingApp(t *testing.T) {
	archive := &fakeArchive{}
	ctrl, _ := newController(t, mock.NewMockProvider(), workflow.WithArchive(archive))
	ctx := context.Background()

	sess, err := ctrl.Start(ctx, models.BusinessInput{
		Concept:          "campus used-textbook trading app",
		InvestmentAmount: int64Ptr(50_000_000),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageClassified, sess.Stage)
	require.NotEmpty(t, sess.Categories)
	assert.Equal(t, "IT/Startup", sess.Categories[0].Name)
	assert.GreaterOrEqual(t, sess.Categories[0].Confidence, 0.0)
	require.Len(t, sess.Methods, 2)
	assert.NotEqual(t, sess.Methods[0], sess.Methods[1])
	assert.NotEmpty(t, sess.Reasoning)

	sess, err = ctrl.GenerateQuestions(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageQuestionsReady, sess.Stage)
	require.Len(t, sess.Questions, 5)
	perMethod := map[models.AnalysisMethod]int{}
	for _, q := range sess.Questions {
		perMethod[q.Method]++
	}
	assert.Len(t, perMethod, 2)

	sess, err = ctrl.SubmitAnswers(ctx, sess.ID, answerAll(sess))
	require.NoError(t, err)
	assert.Equal(t, models.StageAnswersCollected, sess.Stage)
	assert.Empty(t, workflow.MissingAnswers(sess))

	sess, err = ctrl.GenerateReport(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageReportReady, sess.Stage)

	report := sess.Report
	require.NotNil(t, report)
	require.NotEmpty(t, report.Items)
	for i, it := range report.Items {
		assert.GreaterOrEqual(t, it.RPN, 1)
		assert.LessOrEqual(t, it.RPN, 1000)
		assert.Equal(t, it.Occurrence*it.Severity*it.Detection, it.RPN)
		if i > 0 {
			assert.GreaterOrEqual(t, report.Items[i-1].RPN, it.RPN)
		}
	}
	assert.NotEmpty(t, report.ExecutiveSummary)
	require.NotNil(t, report.Loss)
	assert.InDelta(t, 30_000_000, report.Loss.Capex, 0.01)

	stored, err := ctrl.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageReportReady, stored.Stage)
	assert.Equal(t, report.Items, stored.Report.Items)

	assert.Contains(t, archive.reports, sess.ID)
}

func TestCreate_InvalidInput(t *testing.T) {
	ctrl, _ := newController(t, mock.NewMockProvider())

	for _, in := range []models.BusinessInput{
		{Concept: ""},
		{Concept: "   \n"},
		{Concept: "bakery", InvestmentAmount: int64Ptr(-1)},
	} {
		_, err := ctrl.Start(context.Background(), in)
		assert.ErrorIs(t, err, workflow.ErrInvalidInput)
	}
}

type countingStore struct {
	session.Store
	creates int
}

func (s *countingStore) Create(ctx context.Context) (string, error) {
	s.creates++
	return s.Store.Create(ctx)
}

func TestCreate_RejectsNonBusinessInput(t *testing.T) {
	tests := []struct {
		name     string
		provider *mock.MockProvider
		concept  string
		message  string
	}{
		{
			name:     "model verdict",
			provider: mock.NewScriptedProvider(`{"valid":false,"message":"This is a greeting.","suggestion":"Describe the product."}`),
			concept:  "campus used-textbook trading app",
			message:  "This is a greeting.",
		},
		{
			name:     "keyword fallback",
			provider: mock.NewMockProvider(),
			concept:  "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &countingStore{Store: session.NewCacheStore(cache.NewMemoryCache(time.Minute), time.Hour)}
			ctrl := workflow.New(store, tt.provider, defaultWorkflow)

			_, err := ctrl.Start(context.Background(), models.BusinessInput{Concept: tt.concept})
			require.ErrorIs(t, err, workflow.ErrInvalidInput)

			var rejected *risk.InputRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.NotEmpty(t, rejected.Suggestion)
			if tt.message != "" {
				assert.Equal(t, tt.message, rejected.Message)
			}
			assert.Zero(t, store.creates, "rejected input must not create a session")
			assert.Equal(t, 1, tt.provider.Calls(), "classification is not attempted")
		})
	}
}

func TestCreate_StaysInCreated(t *testing.T) {
	ctrl, _ := newController(t, mock.NewMockProvider())

	sess, err := ctrl.Create(context.Background(), models.BusinessInput{Concept: "  neighborhood bakery  "})
	require.NoError(t, err)
	assert.Equal(t, models.StageCreated, sess.Stage)
	assert.Equal(t, "neighborhood bakery", sess.Input.Concept)
	assert.NotEmpty(t, sess.ID)
}

func TestTransitions_RejectOutOfOrder(t *testing.T) {
	ctx := context.Background()
	ctrl, store := newController(t, mock.NewMockProvider())

	created, err := ctrl.Create(ctx, models.BusinessInput{Concept: "neighborhood bakery"})
	require.NoError(t, err)

	before := snapshot(t, store, created.ID)

	ops := map[string]func() error{
		"questions": func() error { _, err := ctrl.GenerateQuestions(ctx, created.ID); return err },
		"answers":   func() error { _, err := ctrl.SubmitAnswers(ctx, created.ID, map[string]string{"x": "y"}); return err },
		"report":    func() error { _, err := ctrl.GenerateReport(ctx, created.ID); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.Error(t, err)
			assert.ErrorIs(t, err, workflow.ErrInvalidStage)

			var stageErr *workflow.StageError
			require.True(t, errors.As(err, &stageErr))
			assert.Equal(t, models.StageCreated, stageErr.Stage)

			assert.Equal(t, before, snapshot(t, store, created.ID), "failed transition must not touch the session")
		})
	}
}

func TestClassify_RejectsReclassification(t *testing.T) {
	ctx := context.Background()
	ctrl, store := newController(t, mock.NewMockProvider())

	sess, err := ctrl.Start(ctx, models.BusinessInput{Concept: "neighborhood bakery"})
	require.NoError(t, err)
	before := snapshot(t, store, sess.ID)

	_, err = ctrl.Classify(ctx, sess.ID)
	assert.ErrorIs(t, err, workflow.ErrInvalidStage)
	assert.Equal(t, before, snapshot(t, store, sess.ID))
}

func TestGenerateQuestions_RegenerationOverwrites(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newController(t, mock.NewMockProvider())

	sess, err := ctrl.Start(ctx, models.BusinessInput{Concept: "neighborhood bakery"})
	require.NoError(t, err)

	first, err := ctrl.GenerateQuestions(ctx, sess.ID)
	require.NoError(t, err)
	second, err := ctrl.GenerateQuestions(ctx, sess.ID)
	require.NoError(t, err)

	assert.Len(t, second.Questions, 5)
	assert.Equal(t, first.Questions, second.Questions)

	_, err = ctrl.SubmitAnswers(ctx, sess.ID, answerAll(second))
	require.NoError(t, err)

	_, err = ctrl.GenerateQuestions(ctx, sess.ID)
	assert.ErrorIs(t, err, workflow.ErrInvalidStage, "questions cannot be regenerated once answers exist")
}

func TestSubmitAnswers_UnknownQuestionStoresNothing(t *testing.T) {
	ctx := context.Background()
	ctrl, store := newController(t, mock.NewMockProvider())

	sess, err := ctrl.Start(ctx, models.BusinessInput{Concept: "neighborhood bakery"})
	require.NoError(t, err)
	sess, err = ctrl.GenerateQuestions(ctx, sess.ID)
	require.NoError(t, err)
	before := snapshot(t, store, sess.ID)

	answers := answerAll(sess)
	answers["method9_q1"] = "stray"
	answers["bogus"] = "stray"

	_, err = ctrl.SubmitAnswers(ctx, sess.ID, answers)
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrUnknownQuestion)

	var unknown *workflow.UnknownQuestionError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"bogus", "method9_q1"}, unknown.QuestionIDs)
	assert.Equal(t, before, snapshot(t, store, sess.ID))
}

func TestSubmitAnswers_EmptyMap(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newController(t, mock.NewMockProvider())

	sess, err := ctrl.Start(ctx, models.BusinessInput{Concept: "neighborhood bakery"})
	require.NoError(t, err)
	_, err = ctrl.GenerateQuestions(ctx, sess.ID)
	require.NoError(t, err)

	_, err = ctrl.SubmitAnswers(ctx, sess.ID, map[string]string{})
	assert.ErrorIs(t, err, workflow.ErrInvalidInput)
}

func TestSubmitAnswers_PartialThenComplete(t *testing.T) {
	ctx := context.Background()
	ctrl, store := newController(t, mock.NewMockProvider())

	sess, err := ctrl.Start(ctx, models.BusinessInput{Concept: "neighborhood bakery"})
	require.NoError(t, err)
	sess, err = ctrl.GenerateQuestions(ctx, sess.ID)
	require.NoError(t, err)
	ids := make([]string, len(sess.Questions))
	for i, q := range sess.Questions {
		ids[i] = q.ID
	}

	sess, err = ctrl.SubmitAnswers(ctx, sess.ID, map[string]string{ids[0]: "first", ids[1]: "second"})
	require.NoError(t, err)
	assert.Equal(t, models.StageAnswersCollected, sess.Stage)
	assert.Equal(t, ids[2:], workflow.MissingAnswers(sess))

	before := snapshot(t, store, sess.ID)
	_, err = ctrl.GenerateReport(ctx, sess.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrIncompleteAnswers)
	var missing *risk.MissingAnswersError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, ids[2:], missing.QuestionIDs)
	assert.Equal(t, before, snapshot(t, store, sess.ID))

	rest := map[string]string{}
	for _, id := range ids[2:] {
		rest[id] = "later"
	}
	sess, err = ctrl.SubmitAnswers(ctx, sess.ID, rest)
	require.NoError(t, err)
	assert.Len(t, sess.Answers, 5)
	assert.Equal(t, "first", sess.Answers[ids[0]])

	sess, err = ctrl.GenerateReport(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageReportReady, sess.Stage)
}

func TestGenerateReport_RegenerationOverwrites(t *testing.T) {
	ctx := context.Background()
	p := mock.NewMockProvider()
	ctrl, _ := newController(t, p)

	sess, err := ctrl.Start(ctx, models.BusinessInput{Concept: "neighborhood bakery"})
	require.NoError(t, err)
	sess, err = ctrl.GenerateQuestions(ctx, sess.ID)
	require.NoError(t, err)
	_, err = ctrl.SubmitAnswers(ctx, sess.ID, answerAll(sess))
	require.NoError(t, err)

	first, err := ctrl.GenerateReport(ctx, sess.ID)
	require.NoError(t, err)
	second, err := ctrl.GenerateReport(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StageReportReady, second.Stage)
	assert.Len(t, second.Report.Items, len(first.Report.Items), "regeneration replaces, never appends")
	assert.False(t, second.Report.GeneratedAt.Before(first.Report.GeneratedAt))

	_, err = ctrl.SubmitAnswers(ctx, sess.ID, answerAll(sess))
	assert.ErrorIs(t, err, workflow.ErrInvalidStage, "stage never regresses")
}

func TestGenerateReport_ArchiveFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newController(t, mock.NewMockProvider(), workflow.WithArchive(&fakeArchive{err: errors.New("db down")}))

	sess, err := ctrl.Start(ctx, models.BusinessInput{Concept: "neighborhood bakery"})
	require.NoError(t, err)
	sess, err = ctrl.GenerateQuestions(ctx, sess.ID)
	require.NoError(t, err)
	_, err = ctrl.SubmitAnswers(ctx, sess.ID, answerAll(sess))
	require.NoError(t, err)

	sess, err = ctrl.GenerateReport(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotNil(t, sess.Report)
}

func TestUnknownSession(t *testing.T) {
	ctrl, _ := newController(t, mock.NewMockProvider())
	ctx := context.Background()

	_, err := ctrl.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
	_, err = ctrl.GenerateQuestions(ctx, "does-not-exist")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
	_, err = ctrl.GenerateReport(ctx, "does-not-exist")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestClassify_AIFailureStillCompletes(t *testing.T) {
	ctrl, _ := newController(t, mock.NewTimeoutProvider())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sess, err := ctrl.Start(ctx, models.BusinessInput{Concept: "online tutoring for high school math"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Categories)
	assert.Len(t, sess.Methods, 2)
}
