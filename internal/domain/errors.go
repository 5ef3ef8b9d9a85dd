package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFormNotFound is returned when a form has no editing session.
	ErrFormNotFound = errors.New("form not found")
	// ErrEditorNotFound is returned when an editor acts before joining.
	ErrEditorNotFound = errors.New("editor not found on form")
	// ErrQuestionNotFound indicates a question id is not part of the form.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrPageBreakNotFound indicates a page break id is not part of the form.
	ErrPageBreakNotFound = errors.New("page break not found")
	// ErrUnknownQuestionType indicates the catalog has no definition for a type.
	ErrUnknownQuestionType = errors.New("unknown question type")
	// ErrOrderNotContiguous indicates a question list whose orders are not 1..N.
	ErrOrderNotContiguous = errors.New("question orders are not contiguous")
)

// ValidationError is a missing or invalid setup answer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// StructuralError is a rejected list mutation (pinned position, break collision).
type StructuralError struct {
	Op     string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason)
}

// EssentialQuestionError is an attempt to delete, or make optional, a protected question type.
type EssentialQuestionError struct {
	Type QuestionType
	Op   string
}

func (e *EssentialQuestionError) Error() string {
	return fmt.Sprintf("%s is an essential question and cannot be %s", e.Type, e.Op)
}

// PersistenceError wraps a failure reported by the persistence collaborator.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Error kinds reported to clients.
const (
	KindValidation  = "validation"
	KindStructural  = "structural"
	KindEssential   = "essential"
	KindPersistence = "persistence"
	KindNotFound    = "not_found"
	KindInternal    = "internal"
)

// ErrorKind classifies err for presentation.
func ErrorKind(err error) string {
	var (
		ve *ValidationError
		se *StructuralError
		ee *EssentialQuestionError
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &se):
		return KindStructural
	case errors.As(err, &ee):
		return KindEssential
	case errors.As(err, &pe):
		return KindPersistence
	case errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrPageBreakNotFound),
		errors.Is(err, ErrFormNotFound), errors.Is(err, ErrEditorNotFound), errors.Is(err, ErrUnknownQuestionType):
		return KindNotFound
	default:
		return KindInternal
	}
}
