package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"formbuilder-service/internal/app"
	"formbuilder-service/internal/domain"
)

// maxTxRetries bounds optimistic-lock retries of a single store call.
const maxTxRetries = 5

// Store keeps each form in two hashes, questions and page breaks, holding
// JSON documents keyed by id:
//
//	HSET formbuilder:form:{formID}:questions {questionID} {json}
//	HSET formbuilder:form:{formID}:breaks    {breakID}    {json}
//
// Two index hashes map question and page break ids back to their form so
// calls that only carry an id can find the right hash.
type Store struct {
	client *redis.Client
}

var _ app.Store = (*Store)(nil)

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) LoadQuestions(ctx context.Context, formID string) ([]domain.QuestionInstance, error) {
	raw, err := s.client.HGetAll(ctx, questionsKey(formID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.QuestionInstance, 0, len(raw))
	for id, doc := range raw {
		var q domain.QuestionInstance
		if err := json.Unmarshal([]byte(doc), &q); err != nil {
			return nil, fmt.Errorf("decode question %s: %w", id, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Store) LoadPageBreaks(ctx context.Context, formID string) ([]domain.PageBreak, error) {
	raw, err := s.client.HGetAll(ctx, breaksKey(formID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.PageBreak, 0, len(raw))
	for id, doc := range raw {
		var b domain.PageBreak
		if err := json.Unmarshal([]byte(doc), &b); err != nil {
			return nil, fmt.Errorf("decode page break %s: %w", id, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) SaveQuestion(ctx context.Context, q domain.QuestionInstance) error {
	doc, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, questionsKey(q.FormID), q.ID, doc)
		pipe.HSet(ctx, questionFormIndex, q.ID, q.FormID)
		return nil
	})
	return err
}

func (s *Store) SaveOrder(ctx context.Context, questionID string, order int) error {
	formID, err := s.formOf(ctx, questionFormIndex, questionID, domain.ErrQuestionNotFound)
	if err != nil {
		return err
	}
	return s.update(ctx, questionsKey(formID), questionID, domain.ErrQuestionNotFound, func(doc []byte) ([]byte, error) {
		var q domain.QuestionInstance
		if err := json.Unmarshal(doc, &q); err != nil {
			return nil, err
		}
		q.Order = order
		return json.Marshal(q)
	})
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	formID, err := s.formOf(ctx, questionFormIndex, questionID, domain.ErrQuestionNotFound)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, questionsKey(formID), questionID)
		pipe.HDel(ctx, questionFormIndex, questionID)
		return nil
	})
	return err
}

func (s *Store) SavePageBreak(ctx context.Context, b domain.PageBreak) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, breaksKey(b.FormID), b.ID, doc)
		pipe.HSet(ctx, breakFormIndex, b.ID, b.FormID)
		return nil
	})
	return err
}

func (s *Store) DeletePageBreak(ctx context.Context, breakID string) error {
	formID, err := s.formOf(ctx, breakFormIndex, breakID, domain.ErrPageBreakNotFound)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, breaksKey(formID), breakID)
		pipe.HDel(ctx, breakFormIndex, breakID)
		return nil
	})
	return err
}

func (s *Store) ReorderPageBreak(ctx context.Context, breakID string, breakIndex int) error {
	formID, err := s.formOf(ctx, breakFormIndex, breakID, domain.ErrPageBreakNotFound)
	if err != nil {
		return err
	}
	return s.update(ctx, breaksKey(formID), breakID, domain.ErrPageBreakNotFound, func(doc []byte) ([]byte, error) {
		var b domain.PageBreak
		if err := json.Unmarshal(doc, &b); err != nil {
			return nil, err
		}
		b.BreakIndex = breakIndex
		return json.Marshal(b)
	})
}

func (s *Store) formOf(ctx context.Context, index, id string, notFound error) (string, error) {
	formID, err := s.client.HGet(ctx, index, id).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s: %w", id, notFound)
	}
	return formID, err
}

// update rewrites one hash field under WATCH so a concurrent writer of the
// same form forces a retry instead of being overwritten.
func (s *Store) update(ctx context.Context, key, field string, notFound error, fn func([]byte) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		doc, err := tx.HGet(ctx, key, field).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%s: %w", field, notFound)
		}
		if err != nil {
			return err
		}
		next, err := fn(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, next)
			return nil
		})
		return err
	}
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("update %s: %w", field, redis.TxFailedErr)
}

const (
	questionFormIndex = "formbuilder:question_form"
	breakFormIndex    = "formbuilder:break_form"
)

func questionsKey(formID string) string {
	return "formbuilder:form:" + formID + ":questions"
}

func breaksKey(formID string) string {
	return "formbuilder:form:" + formID + ":breaks"
}
