package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/myhousemouse/Risk-api-server/internal/ai/mock"
	"github.com/myhousemouse/Risk-api-server/internal/api"
	"github.com/myhousemouse/Risk-api-server/internal/api/handler"
	mw "github.com/myhousemouse/Risk-api-server/internal/api/middleware"
	"github.com/myhousemouse/Risk-api-server/internal/cache"
	"github.com/myhousemouse/Risk-api-server/internal/config"
	"github.com/myhousemouse/Risk-api-server/internal/export"
	"github.com/myhousemouse/Risk-api-server/internal/session"
	"github.com/myhousemouse/Risk-api-server/internal/store"
	"github.com/myhousemouse/Risk-api-server/internal/workflow"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

// ─── test fixtures ───────────────────────────────────────────────────────────

var (
	testRawKey     = "rk_test_contract_key_1234567890"
	testPrefix     = testRawKey[:8]
	testReaderKey  = "rk_read_contract_key_0987654321"
	textbookBody   = map[string]any{"concept": "campus used-textbook trading app", "investment_amount": 50_000_000}
	bakeryBody     = map[string]any{"concept": "neighborhood bakery", "business_name": "Morning Loaf"}
	testWorkflow   = config.WorkflowConfig{MethodCount: 2, QuestionCount: 5, SummaryTopN: 3}
	archivedReport = &models.ArchivedReport{
		ID:        uuid.MustParse("cccccccc-cccc-cccc-cccc-cccccccccccc"),
		SessionID: "expired-session",
		Report: models.Report{
			SessionID:        "expired-session",
			BusinessName:     "Old Idea",
			Items:            []models.RiskItem{{Rank: 1, Description: "Stale risk", Occurrence: 2, Severity: 3, Detection: 4, RPN: 24}},
			ExecutiveSummary: "Archived summary.",
			RiskLevel:        "Low",
			RiskGrade:        "A",
		},
		CreatedAt: time.Now().Add(-48 * time.Hour),
		UpdatedAt: time.Now().Add(-48 * time.Hour),
	}
)

func hash(raw string) string {
	h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	return string(h)
}

// ─── mock store (keys + report archive) ─────────────────────────────────────

type mockStore struct {
	mu      sync.Mutex
	keys    []*models.APIKey
	reports map[string]*models.ArchivedReport
}

func newMockStore() *mockStore {
	return &mockStore{
		keys: []*models.APIKey{
			{ID: uuid.New(), Name: "admin", KeyHash: hash(testRawKey), KeyPrefix: testPrefix, Scopes: []string{"admin"}, CreatedAt: time.Now()},
			{ID: uuid.New(), Name: "reader", KeyHash: hash(testReaderKey), KeyPrefix: testReaderKey[:8], Scopes: []string{"read"}, CreatedAt: time.Now()},
		},
		reports: map[string]*models.ArchivedReport{archivedReport.SessionID: archivedReport},
	}
}

func (s *mockStore) GetAPIKeyByPrefix(_ context.Context, prefix string) ([]*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.APIKey
	for _, k := range s.keys {
		if k.KeyPrefix == prefix && k.DeletedAt == nil {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *mockStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }

func (s *mockStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.Name == key.Name && k.DeletedAt == nil {
			return store.ErrDuplicateKey
		}
	}
	s.keys = append(s.keys, key)
	return nil
}

func (s *mockStore) ListAPIKeys(_ context.Context) ([]*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.APIKey
	for _, k := range s.keys {
		if k.DeletedAt == nil {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *mockStore) RevokeAPIKey(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.ID == id && k.DeletedAt == nil {
			now := time.Now()
			k.DeletedAt = &now
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *mockStore) SaveReport(_ context.Context, sessionID string, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.reports[sessionID] = &models.ArchivedReport{ID: uuid.New(), SessionID: sessionID, Report: *r, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (s *mockStore) GetReport(_ context.Context, sessionID string) (*models.ArchivedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (s *mockStore) ListReports(_ context.Context, f store.ReportFilter) ([]*models.ArchivedReport, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*models.ArchivedReport
	for _, r := range s.reports {
		if f.Since.IsZero() || !r.CreatedAt.Before(f.Since) {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := (f.Page - 1) * f.Limit
	if start >= len(all) {
		return nil, len(all), nil
	}
	end := min(start+f.Limit, len(all))
	return all[start:end], len(all), nil
}

// ─── test server ─────────────────────────────────────────────────────────────

type testServer struct {
	server *httptest.Server
	store  *mockStore
	auth   bool
}

func newTestServer(t *testing.T, withAuth bool) *testServer {
	t.Helper()

	ms := newMockStore()
	sessions := session.NewCacheStore(cache.NewMemoryCache(time.Minute), time.Hour)
	wf := workflow.New(sessions, mock.NewMockProvider(), testWorkflow, workflow.WithArchive(ms))
	exports := export.NewFactory("")
	md, err := exports.Create(export.FormatMarkdown)
	require.NoError(t, err)
	pdf, err := exports.Create(export.FormatPDF)
	require.NoError(t, err)

	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(cache.NewMemoryCache(time.Minute), 1000),

		CreateSession:     handler.NewCreateSessionHandler(wf),
		GetSession:        handler.NewGetSessionHandler(wf),
		GenerateQuestions: handler.NewQuestionsHandler(wf),
		SubmitAnswers:     handler.NewAnswersHandler(wf),
		GenerateReport:    handler.NewReportHandler(wf),
		ExportMarkdown:    handler.NewExportReportHandler(wf, ms, md),
		ExportPDF:         handler.NewExportReportHandler(wf, ms, pdf),
		GetArchivedReport: handler.NewGetArchivedReportHandler(ms),
		ListReports:       handler.NewListReportsHandler(ms),
		CreateKeyHandler:  handler.NewCreateKeyHandler(ms),
		ListKeysHandler:   handler.NewListKeysHandler(ms),
		RevokeKeyHandler:  handler.NewRevokeKeyHandler(ms),
	}
	if withAuth {
		deps.Auth = mw.NewAuth(ms)
	}

	srv := httptest.NewServer(api.NewRouter(deps))
	t.Cleanup(srv.Close)

	return &testServer{server: srv, store: ms, auth: withAuth}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	return ts.doWithKey(t, method, path, body, testRawKey)
}

func (ts *testServer) doWithKey(t *testing.T, method, path string, body any, key string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if ts.auth && key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func parseBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func dataOf(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	return parseBody(t, resp)["data"].(map[string]any)
}

func errorOf(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	return parseBody(t, resp)["error"].(map[string]any)
}

// startSession creates a session and returns its id.
func (ts *testServer) startSession(t *testing.T, body map[string]any) string {
	t.Helper()
	resp := ts.do(t, "POST", "/api/v1/sessions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return dataOf(t, resp)["session_id"].(string)
}

// questionIDs generates questions and returns their ids in order.
func (ts *testServer) questionIDs(t *testing.T, id string) []string {
	t.Helper()
	resp := ts.do(t, "POST", "/api/v1/sessions/"+id+"/questions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ids []string
	for _, q := range dataOf(t, resp)["questions"].([]any) {
		ids = append(ids, q.(map[string]any)["question_id"].(string))
	}
	return ids
}

func answersFor(ids []string) map[string]any {
	answers := map[string]string{}
	for _, id := range ids {
		answers[id] = "Answer to " + id
	}
	return map[string]any{"answers": answers}
}

// ─── full workflow ───────────────────────────────────────────────────────────

func TestWorkflow_EndToEnd(t *testing.T) {
	ts := newTestServer(t, true)

	resp := ts.do(t, "POST", "/api/v1/sessions", textbookBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := dataOf(t, resp)
	id := created["session_id"].(string)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "CLASSIFIED", created["stage"])
	cats := created["matched_categories"].([]any)
	require.NotEmpty(t, cats)
	assert.Equal(t, "IT/Startup", cats[0].(map[string]any)["category_name"])
	assert.Len(t, created["selected_methods"].([]any), 2)
	assert.NotEmpty(t, created["reasoning"])

	resp = ts.do(t, "POST", "/api/v1/sessions/"+id+"/questions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	qs := dataOf(t, resp)
	assert.Equal(t, float64(5), qs["total_questions"])
	var ids []string
	for _, q := range qs["questions"].([]any) {
		ids = append(ids, q.(map[string]any)["question_id"].(string))
	}
	require.Len(t, ids, 5)

	resp = ts.do(t, "PUT", "/api/v1/sessions/"+id+"/answers", answersFor(ids))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ans := dataOf(t, resp)
	assert.Equal(t, "ANSWERS_COLLECTED", ans["stage"])
	assert.Equal(t, float64(5), ans["answered"])
	assert.Empty(t, ans["missing"])

	resp = ts.do(t, "POST", "/api/v1/sessions/"+id+"/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := dataOf(t, resp)
	items := report["risk_items"].([]any)
	require.NotEmpty(t, items)
	prev := 1001.0
	for _, raw := range items {
		rpn := raw.(map[string]any)["rpn"].(float64)
		assert.GreaterOrEqual(t, rpn, 1.0)
		assert.LessOrEqual(t, rpn, prev)
		prev = rpn
	}
	assert.NotEmpty(t, report["executive_summary"])
	assert.NotNil(t, report["cash_loss_analysis"])

	methodResults := report["method_results"].([]any)
	require.Len(t, methodResults, 2)
	for _, raw := range methodResults {
		mr := raw.(map[string]any)
		assert.NotEmpty(t, mr["method"])
		assert.NotEmpty(t, mr["osd_risks"])
		assert.NotEmpty(t, mr["key_findings"])
		assert.NotEmpty(t, mr["method_specific_insights"])
	}
	recs := report["ai_recommendations"].([]any)
	require.NotEmpty(t, recs)
	first := recs[0].(map[string]any)
	assert.Equal(t, "High", first["priority"])
	for _, k := range []string{"category", "action", "expected_impact", "implementation_difficulty"} {
		assert.NotEmpty(t, first[k], k)
	}

	resp = ts.do(t, "GET", "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess := dataOf(t, resp)
	assert.Equal(t, "REPORT_READY", sess["stage"])
	assert.Equal(t, true, sess["has_report"])

	resp = ts.do(t, "GET", "/api/v1/reports/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "generated reports are archived")
}

// ─── error mapping ───────────────────────────────────────────────────────────

func TestCreateSession_400_EmptyConcept(t *testing.T) {
	ts := newTestServer(t, false)

	resp := ts.do(t, "POST", "/api/v1/sessions", map[string]any{"concept": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", errorOf(t, resp)["code"])
}

func TestCreateSession_400_NotABusiness(t *testing.T) {
	ts := newTestServer(t, false)

	resp := ts.do(t, "POST", "/api/v1/sessions", map[string]any{"concept": "hello"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errObj := errorOf(t, resp)
	assert.Equal(t, "INVALID_INPUT", errObj["code"])
	assert.NotEmpty(t, errObj["message"])
	details := errObj["details"].(map[string]any)
	assert.NotEmpty(t, details["suggestion"])
}

func TestCreateSession_400_MalformedJSON(t *testing.T) {
	ts := newTestServer(t, false)

	req, _ := http.NewRequest("POST", ts.server.URL+"/api/v1/sessions", bytes.NewBufferString("{not json"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorOf(t, resp)["code"])
}

func TestSession_404_Unknown(t *testing.T) {
	ts := newTestServer(t, false)

	for _, ep := range []struct{ method, path string }{
		{"GET", "/api/v1/sessions/nope"},
		{"POST", "/api/v1/sessions/nope/questions"},
		{"POST", "/api/v1/sessions/nope/report"},
		{"GET", "/api/v1/sessions/nope/report.md"},
	} {
		resp := ts.do(t, ep.method, ep.path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, ep.path)
		assert.Equal(t, "SESSION_NOT_FOUND", errorOf(t, resp)["code"], ep.path)
	}
}

func TestReport_409_BeforeAnswers(t *testing.T) {
	ts := newTestServer(t, false)
	id := ts.startSession(t, bakeryBody)

	resp := ts.do(t, "POST", "/api/v1/sessions/"+id+"/report", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	e := errorOf(t, resp)
	assert.Equal(t, "INVALID_STAGE", e["code"])
	assert.Equal(t, "CLASSIFIED", e["details"].(map[string]any)["stage"])
}

func TestAnswers_422_UnknownQuestion(t *testing.T) {
	ts := newTestServer(t, false)
	id := ts.startSession(t, bakeryBody)
	ids := ts.questionIDs(t, id)

	body := answersFor(ids)
	body["answers"].(map[string]string)["method7_q1"] = "stray"

	resp := ts.do(t, "PUT", "/api/v1/sessions/"+id+"/answers", body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	e := errorOf(t, resp)
	assert.Equal(t, "UNKNOWN_QUESTION", e["code"])
	assert.Equal(t, []any{"method7_q1"}, e["details"].(map[string]any)["question_ids"])

	resp = ts.do(t, "GET", "/api/v1/sessions/"+id, nil)
	sess := dataOf(t, resp)
	assert.Equal(t, "QUESTIONS_READY", sess["stage"], "nothing was stored")
	assert.Equal(t, float64(0), sess["answered"])
}

func TestReport_422_IncompleteAnswers(t *testing.T) {
	ts := newTestServer(t, false)
	id := ts.startSession(t, bakeryBody)
	ids := ts.questionIDs(t, id)

	resp := ts.do(t, "PUT", "/api/v1/sessions/"+id+"/answers", answersFor(ids[:3]))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ans := dataOf(t, resp)
	assert.Equal(t, float64(3), ans["answered"])
	assert.Len(t, ans["missing"], 2)

	resp = ts.do(t, "POST", "/api/v1/sessions/"+id+"/report", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	e := errorOf(t, resp)
	assert.Equal(t, "INCOMPLETE_ANSWERS", e["code"])
	assert.Equal(t, []any{ids[3], ids[4]}, e["details"].(map[string]any)["missing_question_ids"])
}

// ─── exports & archive ───────────────────────────────────────────────────────

func readyReport(t *testing.T, ts *testServer) string {
	t.Helper()
	id := ts.startSession(t, bakeryBody)
	ids := ts.questionIDs(t, id)
	resp := ts.do(t, "PUT", "/api/v1/sessions/"+id+"/answers", answersFor(ids))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, "POST", "/api/v1/sessions/"+id+"/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return id
}

func TestExport_Markdown(t *testing.T) {
	ts := newTestServer(t, false)
	id := readyReport(t, ts)

	resp := ts.do(t, "GET", "/api/v1/sessions/"+id+"/report.md", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "risk-report-"+id+".md")

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "# Business Risk Report: Morning Loaf")
}

func TestExport_PDF(t *testing.T) {
	ts := newTestServer(t, false)
	id := readyReport(t, ts)

	resp := ts.do(t, "GET", "/api/v1/sessions/"+id+"/report.pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
}

func TestExport_409_NoReportYet(t *testing.T) {
	ts := newTestServer(t, false)
	id := ts.startSession(t, bakeryBody)

	resp := ts.do(t, "GET", "/api/v1/sessions/"+id+"/report.md", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExport_FallsBackToArchive(t *testing.T) {
	ts := newTestServer(t, false)

	resp := ts.do(t, "GET", "/api/v1/sessions/expired-session/report.md", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Old Idea")
	assert.Contains(t, string(b), "Stale risk")
}

func TestArchivedReport_404(t *testing.T) {
	ts := newTestServer(t, false)

	resp := ts.do(t, "GET", "/api/v1/reports/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "REPORT_NOT_FOUND", errorOf(t, resp)["code"])
}

func TestListReports_Pagination(t *testing.T) {
	ts := newTestServer(t, false)
	for i := 0; i < 3; i++ {
		readyReport(t, ts)
	}

	resp := ts.do(t, "GET", "/api/v1/reports?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := parseBody(t, resp)
	assert.Len(t, body["data"].([]any), 2)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(4), meta["total"])
	assert.Equal(t, true, meta["has_next"])

	resp = ts.do(t, "GET", "/api/v1/reports?page=2&limit=2", nil)
	body = parseBody(t, resp)
	assert.Len(t, body["data"].([]any), 2)
	assert.Equal(t, false, body["meta"].(map[string]any)["has_next"])

	since := rfc3339(time.Now().Add(-time.Hour))
	resp = ts.do(t, "GET", "/api/v1/reports?since="+since, nil)
	body = parseBody(t, resp)
	assert.Equal(t, float64(3), body["meta"].(map[string]any)["total"], "the archived fixture is older")
}

func rfc3339(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func TestListReports_400_BadParams(t *testing.T) {
	ts := newTestServer(t, false)

	for _, q := range []string{"page=0", "page=x", "limit=-1", "since=yesterday"} {
		resp := ts.do(t, "GET", "/api/v1/reports?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

// ─── admin keys ──────────────────────────────────────────────────────────────

func TestCreateKey_201_WithRawKey(t *testing.T) {
	ts := newTestServer(t, true)

	resp := ts.do(t, "POST", "/api/v1/admin/keys", map[string]any{"name": "ci", "scopes": []string{"read"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := dataOf(t, resp)
	raw := data["key"].(string)
	assert.Equal(t, raw[:8], data["key_prefix"])

	// The new key authenticates.
	resp = ts.doWithKey(t, "POST", "/api/v1/sessions", bakeryBody, raw)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCreateKey_400_MissingName(t *testing.T) {
	ts := newTestServer(t, true)

	resp := ts.do(t, "POST", "/api/v1/admin/keys", map[string]any{"name": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateKey_409_Duplicate(t *testing.T) {
	ts := newTestServer(t, true)

	resp := ts.do(t, "POST", "/api/v1/admin/keys", map[string]any{"name": "admin"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_KEY", errorOf(t, resp)["code"])
}

func TestListKeys_DoesNotExposeRawKey(t *testing.T) {
	ts := newTestServer(t, true)

	resp := ts.do(t, "GET", "/api/v1/admin/keys", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := parseBody(t, resp)["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.NotEmpty(t, first["key_prefix"])
	assert.Nil(t, first["key"])
	assert.Nil(t, first["key_hash"])
}

func TestRevokeKey(t *testing.T) {
	ts := newTestServer(t, true)
	target := ts.store.keys[1].ID

	resp := ts.do(t, "DELETE", "/api/v1/admin/keys/"+target.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.doWithKey(t, "GET", "/api/v1/reports", nil, testReaderKey)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "revoked key no longer authenticates")

	resp = ts.do(t, "DELETE", "/api/v1/admin/keys/"+target.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, "DELETE", "/api/v1/admin/keys/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_403_WithoutScope(t *testing.T) {
	ts := newTestServer(t, true)

	for _, ep := range []struct{ method, path string }{
		{"GET", "/api/v1/admin/keys"},
		{"POST", "/api/v1/admin/keys"},
		{"DELETE", fmt.Sprintf("/api/v1/admin/keys/%s", uuid.New())},
	} {
		resp := ts.doWithKey(t, ep.method, ep.path, nil, testReaderKey)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, ep.path)
	}

	resp := ts.doWithKey(t, "POST", "/api/v1/sessions", bakeryBody, testReaderKey)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "read keys may run the workflow")
}
