package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/myhousemouse/Risk-api-server/internal/api/response"
	"github.com/myhousemouse/Risk-api-server/internal/risk"
	"github.com/myhousemouse/Risk-api-server/internal/workflow"
)

// writeWorkflowError maps workflow failures onto HTTP statuses and error codes.
func writeWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stageErr   *workflow.StageError
		unknownErr *workflow.UnknownQuestionError
		missingErr *risk.MissingAnswersError
		rejectErr  *risk.InputRejectedError
	)

	switch {
	case errors.As(err, &rejectErr):
		response.Error(w, http.StatusBadRequest, "INVALID_INPUT", rejectErr.Message,
			map[string]any{"suggestion": rejectErr.Suggestion})
	case errors.Is(err, workflow.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	case errors.Is(err, workflow.ErrNotFound):
		response.Error(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found or expired", nil)
	case errors.As(err, &stageErr):
		response.Error(w, http.StatusConflict, "INVALID_STAGE", err.Error(),
			map[string]any{"stage": stageErr.Stage})
	case errors.As(err, &unknownErr):
		response.Error(w, http.StatusUnprocessableEntity, "UNKNOWN_QUESTION", "Answers reference unknown questions",
			map[string]any{"question_ids": unknownErr.QuestionIDs})
	case errors.As(err, &missingErr):
		response.Error(w, http.StatusUnprocessableEntity, "INCOMPLETE_ANSWERS", "Every question must be answered before the report",
			map[string]any{"missing_question_ids": missingErr.QuestionIDs})
	default:
		slog.Error("workflow request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}
