package risk

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrIncompleteAnswers = errors.New("incomplete answers")
)

// MissingAnswersError names the questions that have no (or only a blank) answer.
type MissingAnswersError struct {
	QuestionIDs []string
}

func (e *MissingAnswersError) Error() string {
	return fmt.Sprintf("%s: missing answers for %s", ErrIncompleteAnswers, strings.Join(e.QuestionIDs, ", "))
}

func (e *MissingAnswersError) Unwrap() error { return ErrIncompleteAnswers }

// InputRejectedError reports an input that does not describe a business idea.
type InputRejectedError struct {
	Message    string
	Suggestion string
}

func (e *InputRejectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Message)
}

func (e *InputRejectedError) Unwrap() error { return ErrInvalidInput }
