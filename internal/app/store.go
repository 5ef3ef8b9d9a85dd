package app

import (
	"context"

	"formbuilder-service/internal/domain"
)

// Store persists form questions and page breaks. Every call is atomic on
// its own; multi-step transitions are issued as a sequence of calls.
type Store interface {
	LoadQuestions(ctx context.Context, formID string) ([]domain.QuestionInstance, error)
	LoadPageBreaks(ctx context.Context, formID string) ([]domain.PageBreak, error)
	SaveQuestion(ctx context.Context, q domain.QuestionInstance) error
	SaveOrder(ctx context.Context, questionID string, order int) error
	DeleteQuestion(ctx context.Context, questionID string) error
	SavePageBreak(ctx context.Context, b domain.PageBreak) error
	DeletePageBreak(ctx context.Context, breakID string) error
	ReorderPageBreak(ctx context.Context, breakID string, breakIndex int) error
}

// SessionRepository abstracts how editing sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(formID string) *Session
	Get(formID string) (*Session, bool)
	DeleteIfEmpty(formID string)
}
