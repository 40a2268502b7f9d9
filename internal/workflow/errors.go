package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/myhousemouse/Risk-api-server/internal/risk"
	"github.com/myhousemouse/Risk-api-server/internal/session"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

var (
	ErrInvalidStage    = errors.New("invalid stage")
	ErrUnknownQuestion = errors.New("unknown question")

	// Re-exported so callers can classify every workflow failure from one package.
	ErrNotFound          = session.ErrNotFound
	ErrInvalidInput      = risk.ErrInvalidInput
	ErrIncompleteAnswers = risk.ErrIncompleteAnswers
)

// StageError reports a transition attempted from a stage that does not allow it.
type StageError struct {
	Op    string
	Stage models.Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s is not allowed in stage %s", ErrInvalidStage, e.Op, e.Stage)
}

func (e *StageError) Unwrap() error { return ErrInvalidStage }

// UnknownQuestionError names submitted answer ids that are not questions of the session.
type UnknownQuestionError struct {
	QuestionIDs []string
}

func (e *UnknownQuestionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownQuestion, strings.Join(e.QuestionIDs, ", "))
}

func (e *UnknownQuestionError) Unwrap() error { return ErrUnknownQuestion }
