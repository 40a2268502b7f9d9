package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/myhousemouse/Risk-api-server/internal/api/middleware"
	"github.com/myhousemouse/Risk-api-server/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
// A nil Auth serves every route without authentication and leaves out the
// admin routes; a nil RateLimit disables rate limiting.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	CreateSession     http.HandlerFunc
	GetSession        http.HandlerFunc
	GenerateQuestions http.HandlerFunc
	SubmitAnswers     http.HandlerFunc
	GenerateReport    http.HandlerFunc
	ExportMarkdown    http.HandlerFunc
	ExportPDF         http.HandlerFunc

	GetArchivedReport http.HandlerFunc
	ListReports       http.HandlerFunc

	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Authenticate)
		}
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/sessions", orNotImplemented(deps.CreateSession))
		r.Route("/api/v1/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", orNotImplemented(deps.GetSession))
			r.Post("/questions", orNotImplemented(deps.GenerateQuestions))
			r.Put("/answers", orNotImplemented(deps.SubmitAnswers))
			r.Post("/report", orNotImplemented(deps.GenerateReport))
			r.Get("/report.md", orNotImplemented(deps.ExportMarkdown))
			r.Get("/report.pdf", orNotImplemented(deps.ExportPDF))
		})

		r.Get("/api/v1/reports", orNotImplemented(deps.ListReports))
		r.Get("/api/v1/reports/{sessionID}", orNotImplemented(deps.GetArchivedReport))

		// Admin routes
		if deps.Auth != nil {
			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.RequireScope("admin"))

				r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
				r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
				r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
			})
		}
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
