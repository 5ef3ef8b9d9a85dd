package memory

import (
	"context"
	"fmt"
	"sync"

	"formbuilder-service/internal/domain"
)

// Store is an in-memory implementation of app.Store, keyed by question and
// page break id.
type Store struct {
	mu        sync.RWMutex
	questions map[string]domain.QuestionInstance
	breaks    map[string]domain.PageBreak
}

func NewStore() *Store {
	return &Store{
		questions: make(map[string]domain.QuestionInstance),
		breaks:    make(map[string]domain.PageBreak),
	}
}

func (s *Store) LoadQuestions(_ context.Context, formID string) ([]domain.QuestionInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuestionInstance, 0)
	for _, q := range s.questions {
		if q.FormID == formID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) LoadPageBreaks(_ context.Context, formID string) ([]domain.PageBreak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PageBreak, 0)
	for _, b := range s.breaks {
		if b.FormID == formID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) SaveQuestion(_ context.Context, q domain.QuestionInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
	return nil
}

func (s *Store) SaveOrder(_ context.Context, questionID string, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[questionID]
	if !ok {
		return fmt.Errorf("save order %s: %w", questionID, domain.ErrQuestionNotFound)
	}
	q.Order = order
	s.questions[questionID] = q
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[questionID]; !ok {
		return fmt.Errorf("delete %s: %w", questionID, domain.ErrQuestionNotFound)
	}
	delete(s.questions, questionID)
	return nil
}

func (s *Store) SavePageBreak(_ context.Context, b domain.PageBreak) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breaks[b.ID] = b
	return nil
}

func (s *Store) DeletePageBreak(_ context.Context, breakID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.breaks[breakID]; !ok {
		return fmt.Errorf("delete page break %s: %w", breakID, domain.ErrPageBreakNotFound)
	}
	delete(s.breaks, breakID)
	return nil
}

func (s *Store) ReorderPageBreak(_ context.Context, breakID string, breakIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breaks[breakID]
	if !ok {
		return fmt.Errorf("reorder page break %s: %w", breakID, domain.ErrPageBreakNotFound)
	}
	b.BreakIndex = breakIndex
	s.breaks[breakID] = b
	return nil
}
