package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/myhousemouse/Risk-api-server/internal/api/response"
	"github.com/myhousemouse/Risk-api-server/internal/export"
	"github.com/myhousemouse/Risk-api-server/internal/store"
	"github.com/myhousemouse/Risk-api-server/internal/workflow"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ReportArchive reads reports persisted beyond the session lifetime.
type ReportArchive interface {
	GetReport(ctx context.Context, sessionID string) (*models.ArchivedReport, error)
	ListReports(ctx context.Context, filter store.ReportFilter) ([]*models.ArchivedReport, int, error)
}

// NewExportReportHandler returns an http.HandlerFunc for
// GET /api/v1/sessions/{sessionID}/report.{md,pdf}. When the session has
// expired the archived report is rendered instead, if an archive is configured.
func NewExportReportHandler(wf Workflow, archive ReportArchive, renderer export.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		report, err := findReport(r.Context(), wf, archive, sessionID)
		if err != nil {
			writeWorkflowError(w, r, err)
			return
		}
		if report == nil {
			response.Error(w, http.StatusConflict, "INVALID_STAGE", "The report has not been generated yet", nil)
			return
		}

		body, err := renderer.Render(report)
		if err != nil {
			slog.Error("failed to render report", "session_id", sessionID, "format", renderer.FileExtension(), "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render report", nil)
			return
		}

		response.Attachment(w, renderer.ContentType(), "risk-report-"+sessionID+renderer.FileExtension(), body)
	}
}

func findReport(ctx context.Context, wf Workflow, archive ReportArchive, sessionID string) (*models.Report, error) {
	sess, err := wf.Get(ctx, sessionID)
	if err == nil {
		return sess.Report, nil
	}
	if !errors.Is(err, workflow.ErrNotFound) || archive == nil {
		return nil, err
	}

	archived, aerr := archive.GetReport(ctx, sessionID)
	if errors.Is(aerr, store.ErrNotFound) {
		return nil, err
	}
	if aerr != nil {
		return nil, aerr
	}
	return &archived.Report, nil
}

// NewGetArchivedReportHandler returns an http.HandlerFunc for GET /api/v1/reports/{sessionID}.
func NewGetArchivedReportHandler(archive ReportArchive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := archive.GetReport(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "REPORT_NOT_FOUND", "Report not found", nil)
				return
			}
			slog.Error("failed to load archived report", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load report", nil)
			return
		}
		response.JSON(w, rep)
	}
}

// NewListReportsHandler returns an http.HandlerFunc for GET /api/v1/reports.
// Query parameters: page (1-based), limit (max 100), since (RFC3339).
func NewListReportsHandler(archive ReportArchive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page := 1
		if v := q.Get("page"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil || p < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
				return
			}
			page = p
		}

		limit := defaultPageLimit
		if v := q.Get("limit"); v != "" {
			l, err := strconv.Atoi(v)
			if err != nil || l < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
				return
			}
			limit = min(l, maxPageLimit)
		}

		var since time.Time
		if v := q.Get("since"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "since must be a valid RFC3339 timestamp", nil)
				return
			}
			since = t
		}

		reports, total, err := archive.ListReports(r.Context(), store.ReportFilter{Since: since, Page: page, Limit: limit})
		if err != nil {
			slog.Error("failed to list archived reports", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list reports", nil)
			return
		}
		if reports == nil {
			reports = []*models.ArchivedReport{}
		}

		response.Collection(w, reports, response.NewPaginationMeta(page, limit, total))
	}
}
