package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"formbuilder-service/internal/app"
	"formbuilder-service/internal/domain"
)

// Store keeps form questions and page breaks in Postgres, with setup and
// ui configuration as JSONB.
type Store struct {
	pool *pgxpool.Pool
}

var _ app.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) LoadQuestions(ctx context.Context, formID string) ([]domain.QuestionInstance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, form_id, type, position, required, setup_config, ui_config
		FROM form_questions WHERE form_id=$1 ORDER BY position, id`, formID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuestionInstance, 0)
	for rows.Next() {
		var (
			q         domain.QuestionInstance
			typeID    string
			setup, ui []byte
		)
		if err := rows.Scan(&q.ID, &q.FormID, &typeID, &q.Order, &q.Required, &setup, &ui); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = domain.QuestionType(typeID)
		if err := json.Unmarshal(setup, &q.SetupConfig); err != nil {
			return nil, fmt.Errorf("unmarshal setup of %s: %w", q.ID, err)
		}
		if err := json.Unmarshal(ui, &q.UIConfig); err != nil {
			return nil, fmt.Errorf("unmarshal ui of %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) LoadPageBreaks(ctx context.Context, formID string) ([]domain.PageBreak, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, form_id, break_index
		FROM form_page_breaks WHERE form_id=$1 ORDER BY break_index, id`, formID)
	if err != nil {
		return nil, fmt.Errorf("load page breaks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PageBreak, 0)
	for rows.Next() {
		var b domain.PageBreak
		if err := rows.Scan(&b.ID, &b.FormID, &b.BreakIndex); err != nil {
			return nil, fmt.Errorf("scan page break: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) SaveQuestion(ctx context.Context, q domain.QuestionInstance) error {
	setup, err := jsonObject(q.SetupConfig)
	if err != nil {
		return err
	}
	ui, err := jsonObject(q.UIConfig)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO form_questions (id, form_id, type, position, required, setup_config, ui_config)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			form_id=EXCLUDED.form_id, type=EXCLUDED.type, position=EXCLUDED.position,
			required=EXCLUDED.required, setup_config=EXCLUDED.setup_config,
			ui_config=EXCLUDED.ui_config, updated_at=now()`,
		q.ID, q.FormID, string(q.Type), q.Order, q.Required, setup, ui)
	if err != nil {
		return fmt.Errorf("save question %s: %w", q.ID, err)
	}
	return nil
}

func (s *Store) SaveOrder(ctx context.Context, questionID string, order int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE form_questions SET position=$2, updated_at=now() WHERE id=$1`, questionID, order)
	if err != nil {
		return fmt.Errorf("save order %s: %w", questionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save order %s: %w", questionID, domain.ErrQuestionNotFound)
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM form_questions WHERE id=$1`, questionID)
	if err != nil {
		return fmt.Errorf("delete question %s: %w", questionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete question %s: %w", questionID, domain.ErrQuestionNotFound)
	}
	return nil
}

func (s *Store) SavePageBreak(ctx context.Context, b domain.PageBreak) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO form_page_breaks (id, form_id, break_index)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			form_id=EXCLUDED.form_id, break_index=EXCLUDED.break_index, updated_at=now()`,
		b.ID, b.FormID, b.BreakIndex)
	if err != nil {
		return fmt.Errorf("save page break %s: %w", b.ID, err)
	}
	return nil
}

func (s *Store) DeletePageBreak(ctx context.Context, breakID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM form_page_breaks WHERE id=$1`, breakID)
	if err != nil {
		return fmt.Errorf("delete page break %s: %w", breakID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete page break %s: %w", breakID, domain.ErrPageBreakNotFound)
	}
	return nil
}

func (s *Store) ReorderPageBreak(ctx context.Context, breakID string, breakIndex int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE form_page_breaks SET break_index=$2, updated_at=now() WHERE id=$1`, breakID, breakIndex)
	if err != nil {
		return fmt.Errorf("reorder page break %s: %w", breakID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reorder page break %s: %w", breakID, domain.ErrPageBreakNotFound)
	}
	return nil
}

// jsonObject encodes a config map, storing nil as an empty object.
func jsonObject(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
