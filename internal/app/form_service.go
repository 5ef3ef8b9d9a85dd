package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/engine"
	"formbuilder-service/internal/metrics"
)

// Outcome is the result of a structural operation: the authoritative
// layout after it, and for accepted no-ops the reason nothing changed.
type Outcome struct {
	Layout   domain.Layout            `json:"layout"`
	Question *domain.QuestionInstance `json:"question,omitempty"`
	Noop     string                   `json:"noop,omitempty"`
}

// FormService contains the form editing use cases.
type FormService struct {
	store    Store
	sessions SessionRepository
	compiler *engine.Compiler
	policy   engine.Policy
	log      *zap.Logger
	newID    func() string
	loads    singleflight.Group
}

// Option configures a FormService.
type Option func(*FormService)

func WithLogger(log *zap.Logger) Option {
	return func(s *FormService) { s.log = log }
}

func WithPolicy(policy engine.Policy) Option {
	return func(s *FormService) { s.policy = policy }
}

// WithIDGenerator replaces the uuid generator for question and page break ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *FormService) { s.newID = newID }
}

func NewFormService(store Store, sessions SessionRepository, defs engine.Definitions, opts ...Option) *FormService {
	s := &FormService{
		store:    store,
		sessions: sessions,
		compiler: engine.NewCompiler(defs),
		log:      zap.NewNop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compiler exposes the setup compiler used by the service.
func (s *FormService) Compiler() *engine.Compiler {
	return s.compiler
}

// Join registers or refreshes an editor on a form and returns the current layout.
func (s *FormService) Join(ctx context.Context, formID, editorID, name string) (domain.Layout, []Editor, error) {
	layout, err := s.Layout(ctx, formID)
	if err != nil {
		return domain.Layout{}, nil, err
	}
	session := s.sessions.GetOrCreate(formID)
	editors, added := session.join(editorID, name)
	if added {
		metrics.ActiveEditors.Inc()
	}
	s.log.Info("editor joined", zap.String("form_id", formID), zap.String("editor_id", editorID), zap.Int("editors", len(editors)))
	return layout, editors, nil
}

// Leave removes an editor and drops the session once nobody is left.
func (s *FormService) Leave(_ context.Context, formID, editorID string) {
	session, ok := s.sessions.Get(formID)
	if !ok {
		return
	}
	if session.leave(editorID) {
		metrics.ActiveEditors.Dec()
	}
	if session.IsEmpty() {
		s.sessions.DeleteIfEmpty(formID)
	}
}

// Subscribe returns a channel that receives layout updates for a form.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *FormService) Subscribe(_ context.Context, formID string) (<-chan domain.Layout, func(), error) {
	session, ok := s.sessions.Get(formID)
	if !ok {
		return nil, nil, domain.ErrFormNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Layout loads the questions and page breaks of a form. Concurrent loads
// of the same form share one round trip.
func (s *FormService) Layout(ctx context.Context, formID string) (domain.Layout, error) {
	v, err, _ := s.loads.Do(formID, func() (any, error) {
		return s.fetch(ctx, formID)
	})
	if err != nil {
		return domain.Layout{}, err
	}
	return v.(domain.Layout), nil
}

func (s *FormService) fetch(ctx context.Context, formID string) (domain.Layout, error) {
	var (
		qs     []domain.QuestionInstance
		breaks []domain.PageBreak
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		qs, err = s.store.LoadQuestions(gctx, formID)
		return persistence("load questions", err)
	})
	g.Go(func() error {
		var err error
		breaks, err = s.store.LoadPageBreaks(gctx, formID)
		return persistence("load page breaks", err)
	})
	if err := g.Wait(); err != nil {
		return domain.Layout{}, err
	}
	return domain.Layout{
		FormID:     formID,
		Questions:  engine.Sorted(qs),
		PageBreaks: engine.SortedBreaks(breaks),
	}, nil
}

// AddQuestion validates and compiles setup answers and inserts the new
// question directly after the question at order after.
func (s *FormService) AddQuestion(ctx context.Context, formID, editorID string, typeID domain.QuestionType, answers domain.Answers, after int) (Outcome, error) {
	compiled, err := s.compiler.Build(typeID, answers)
	if err != nil {
		return Outcome{}, err
	}
	var added domain.QuestionInstance
	out, err := s.mutate(ctx, formID, editorID, "add_question", func(layout domain.Layout) (string, error) {
		q := domain.QuestionInstance{
			ID:          s.newID(),
			FormID:      formID,
			Type:        typeID,
			Required:    s.policy.Essential[typeID],
			SetupConfig: compiled.SetupConfig,
			UIConfig:    compiled.UIConfig,
		}
		if compiled.RequiredOverride != nil {
			q.Required = *compiled.RequiredOverride
		}
		res, err := engine.InsertAfter(layout.Questions, after, q, s.policy.Pins)
		if err != nil {
			return "", err
		}
		if err := s.saveOrders(ctx, res.Changes); err != nil {
			return "", err
		}
		added, _ = res.Find(q.ID)
		return "", persistence("save question", s.store.SaveQuestion(ctx, added))
	})
	if err != nil {
		return Outcome{}, err
	}
	out.Question = findQuestion(out.Layout, added.ID)
	return out, nil
}

// EditQuestion recompiles an existing question from new setup answers. The
// required flag only changes when the answers decide it.
func (s *FormService) EditQuestion(ctx context.Context, formID, editorID, questionID string, answers domain.Answers) (Outcome, error) {
	return s.mutate(ctx, formID, editorID, "edit_question", func(layout domain.Layout) (string, error) {
		q := findQuestion(layout, questionID)
		if q == nil {
			return "", fmt.Errorf("edit %s: %w", questionID, domain.ErrQuestionNotFound)
		}
		compiled, err := s.compiler.Build(q.Type, answers)
		if err != nil {
			return "", err
		}
		updated := *q
		updated.SetupConfig = compiled.SetupConfig
		updated.UIConfig = compiled.UIConfig
		if compiled.RequiredOverride != nil {
			if !*compiled.RequiredOverride {
				if err := s.policy.CheckMakeOptional(updated); err != nil {
					return "", err
				}
			}
			updated.Required = *compiled.RequiredOverride
		}
		return "", persistence("save question", s.store.SaveQuestion(ctx, updated))
	})
}

// MoveQuestion swaps a question with its neighbour. Pinned and boundary
// moves are accepted as no-ops.
func (s *FormService) MoveQuestion(ctx context.Context, formID, editorID, questionID string, dir domain.Direction) (Outcome, error) {
	return s.mutate(ctx, formID, editorID, "move_question", func(layout domain.Layout) (string, error) {
		res, err := engine.Move(layout.Questions, questionID, dir, s.policy.Pins)
		if err != nil {
			return "", err
		}
		if !res.Applied() {
			return res.Reason, nil
		}
		return "", s.saveOrders(ctx, res.Changes)
	})
}

// DeleteQuestion removes a question and closes the gap. Essential questions
// need authorized set.
func (s *FormService) DeleteQuestion(ctx context.Context, formID, editorID, questionID string, authorized bool) (Outcome, error) {
	return s.mutate(ctx, formID, editorID, "delete_question", func(layout domain.Layout) (string, error) {
		res, err := engine.Delete(layout.Questions, questionID, authorized, s.policy)
		if err != nil {
			return "", err
		}
		if err := s.store.DeleteQuestion(ctx, questionID); err != nil {
			return "", persistence("delete question", err)
		}
		return "", s.saveOrders(ctx, res.Changes)
	})
}

// SetRequired toggles the required flag of a question.
func (s *FormService) SetRequired(ctx context.Context, formID, editorID, questionID string, required bool) (Outcome, error) {
	return s.mutate(ctx, formID, editorID, "set_required", func(layout domain.Layout) (string, error) {
		q := findQuestion(layout, questionID)
		if q == nil {
			return "", fmt.Errorf("set required %s: %w", questionID, domain.ErrQuestionNotFound)
		}
		if !required {
			if err := s.policy.CheckMakeOptional(*q); err != nil {
				return "", err
			}
		}
		if q.Required == required {
			return "question already has this required flag", nil
		}
		updated := *q
		updated.Required = required
		return "", persistence("save question", s.store.SaveQuestion(ctx, updated))
	})
}

// AddPageBreak starts a new page after the question at afterOrder.
func (s *FormService) AddPageBreak(ctx context.Context, formID, editorID string, afterOrder int) (Outcome, error) {
	return s.mutate(ctx, formID, editorID, "add_page_break", func(layout domain.Layout) (string, error) {
		b, err := engine.AddBreak(layout.Questions, layout.PageBreaks, afterOrder, s.policy.Pins)
		if err != nil {
			return "", err
		}
		b.ID = s.newID()
		b.FormID = formID
		return "", persistence("save page break", s.store.SavePageBreak(ctx, b))
	})
}

// MovePageBreak shifts a page break by one question.
func (s *FormService) MovePageBreak(ctx context.Context, formID, editorID, breakID string, dir domain.Direction) (Outcome, error) {
	return s.mutate(ctx, formID, editorID, "move_page_break", func(layout domain.Layout) (string, error) {
		b, err := engine.MoveBreak(layout.Questions, layout.PageBreaks, breakID, dir, s.policy.Pins)
		if err != nil {
			return "", err
		}
		return "", persistence("reorder page break", s.store.ReorderPageBreak(ctx, b.ID, b.BreakIndex))
	})
}

// DeletePageBreak removes a page break.
func (s *FormService) DeletePageBreak(ctx context.Context, formID, editorID, breakID string) (Outcome, error) {
	return s.mutate(ctx, formID, editorID, "delete_page_break", func(layout domain.Layout) (string, error) {
		if _, err := engine.DeleteBreak(layout.PageBreaks, breakID); err != nil {
			return "", err
		}
		return "", persistence("delete page break", s.store.DeletePageBreak(ctx, breakID))
	})
}

// mutate runs one structural operation under the form's edit lock: load a
// repaired layout, apply op, drop page breaks the change invalidated,
// re-fetch and broadcast the authoritative layout. op returns a non-empty
// reason for accepted no-ops, which skip the re-fetch.
func (s *FormService) mutate(ctx context.Context, formID, editorID, name string, op func(domain.Layout) (string, error)) (out Outcome, err error) {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		metrics.OperationsTotal.WithLabelValues(name, outcomeLabel(out, err)).Inc()
		if err != nil {
			s.log.Warn("operation rejected", zap.String("operation", name), zap.String("form_id", formID),
				zap.String("editor_id", editorID), zap.String("kind", domain.ErrorKind(err)), zap.Error(err))
		}
	}()

	session, ok := s.sessions.Get(formID)
	if !ok {
		return Outcome{}, domain.ErrFormNotFound
	}
	if err := session.touch(editorID); err != nil {
		return Outcome{}, err
	}

	session.edit.Lock()
	defer session.edit.Unlock()

	layout, err := s.repaired(ctx, formID)
	if err != nil {
		return Outcome{}, err
	}
	noop, err := op(layout)
	if err != nil {
		return Outcome{}, err
	}
	if noop != "" {
		return Outcome{Layout: layout, Noop: noop}, nil
	}

	layout, err = s.reconcile(ctx, formID)
	if err != nil {
		return Outcome{}, err
	}
	session.publish(layout)
	s.log.Info("layout changed", zap.String("operation", name), zap.String("form_id", formID),
		zap.String("editor_id", editorID), zap.Int("questions", len(layout.Questions)))
	return Outcome{Layout: layout}, nil
}

// repaired loads the layout and rewrites orders that are not 1..N.
func (s *FormService) repaired(ctx context.Context, formID string) (domain.Layout, error) {
	layout, err := s.fetch(ctx, formID)
	if err != nil {
		return domain.Layout{}, err
	}
	if engine.CheckContiguous(layout.Questions) == nil {
		return layout, nil
	}
	res := engine.Renumber(layout.Questions)
	s.log.Warn("repairing question orders", zap.String("form_id", formID), zap.Int("changes", len(res.Changes)))
	if err := s.saveOrders(ctx, res.Changes); err != nil {
		return domain.Layout{}, err
	}
	metrics.OrdersRepaired.Add(float64(len(res.Changes)))
	layout.Questions = res.Questions
	return layout, nil
}

// reconcile re-fetches the layout and deletes page breaks that no longer
// fit the question list.
func (s *FormService) reconcile(ctx context.Context, formID string) (domain.Layout, error) {
	layout, err := s.fetch(ctx, formID)
	if err != nil {
		return domain.Layout{}, err
	}
	keep, drop := engine.ReconcileBreaks(layout.Questions, layout.PageBreaks, s.policy.Pins)
	for _, b := range drop {
		if err := s.store.DeletePageBreak(ctx, b.ID); err != nil {
			return domain.Layout{}, persistence("delete page break", err)
		}
		metrics.PageBreaksDropped.Inc()
		s.log.Info("page break dropped", zap.String("form_id", formID), zap.String("break_id", b.ID), zap.Int("break_index", b.BreakIndex))
	}
	if keep == nil {
		keep = []domain.PageBreak{}
	}
	layout.PageBreaks = keep
	return layout, nil
}

func (s *FormService) saveOrders(ctx context.Context, changes []engine.OrderChange) error {
	for _, c := range changes {
		if err := s.store.SaveOrder(ctx, c.ID, c.To); err != nil {
			return persistence("save order", err)
		}
	}
	return nil
}

func findQuestion(layout domain.Layout, id string) *domain.QuestionInstance {
	for i := range layout.Questions {
		if layout.Questions[i].ID == id {
			q := layout.Questions[i]
			return &q
		}
	}
	return nil
}

// persistence wraps an adapter error; nil stays nil.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func outcomeLabel(out Outcome, err error) string {
	switch {
	case err != nil:
		return domain.ErrorKind(err)
	case out.Noop != "":
		return "noop"
	default:
		return "applied"
	}
}
