package app

import (
	"context"
	"fmt"
	"sync"

	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/engine"
)

// Snapshot is the state of a setup draft after an action. Commit is set only
// while the answers validate; calling it adds or edits the question with
// exactly the answers of this snapshot.
type Snapshot struct {
	State      engine.SetupState                          `json:"state"`
	Plan       []domain.SetupQuestionSpec                 `json:"plan"`
	Validation engine.Result                              `json:"validation"`
	Commit     func(ctx context.Context) (Outcome, error) `json:"-"`
}

// SetupDraft collects setup answers for one question being added to, or
// edited on, a form.
type SetupDraft struct {
	svc        *FormService
	formID     string
	editorID   string
	questionID string
	after      int

	mu    sync.Mutex
	state engine.SetupState
}

// BeginAdd starts a draft for a new question of typeID that will be
// inserted after the question at order after.
func (s *FormService) BeginAdd(formID, editorID string, typeID domain.QuestionType, after int) (*SetupDraft, error) {
	if _, err := s.compiler.Definition(typeID); err != nil {
		return nil, err
	}
	return &SetupDraft{
		svc:      s,
		formID:   formID,
		editorID: editorID,
		after:    after,
		state:    engine.NewSetupState(typeID, nil),
	}, nil
}

// BeginEdit starts a draft prefilled with the stored setup of a question.
func (s *FormService) BeginEdit(ctx context.Context, formID, editorID, questionID string) (*SetupDraft, error) {
	layout, err := s.Layout(ctx, formID)
	if err != nil {
		return nil, err
	}
	q := findQuestion(layout, questionID)
	if q == nil {
		return nil, fmt.Errorf("edit %s: %w", questionID, domain.ErrQuestionNotFound)
	}
	return &SetupDraft{
		svc:        s,
		formID:     formID,
		editorID:   editorID,
		questionID: questionID,
		state:      engine.NewSetupState(q.Type, domain.Answers(q.SetupConfig)),
	}, nil
}

// Editing reports whether the draft edits an existing question.
func (d *SetupDraft) Editing() bool {
	return d.questionID != ""
}

// Dispatch applies action to the latest answers and returns the new snapshot.
func (d *SetupDraft) Dispatch(action engine.Action) Snapshot {
	d.mu.Lock()
	d.state = engine.Reduce(d.state, action)
	state := d.state
	d.mu.Unlock()
	return d.snapshot(state)
}

// Snapshot returns the current state without changing it.
func (d *SetupDraft) Snapshot() Snapshot {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()
	return d.snapshot(state)
}

func (d *SetupDraft) snapshot(state engine.SetupState) Snapshot {
	plan, res, err := d.svc.compiler.Check(state.Type, state.Answers)
	if err != nil {
		return Snapshot{State: state, Validation: engine.Result{Reason: err.Error()}}
	}
	snap := Snapshot{State: state, Plan: plan, Validation: res}
	if !res.OK {
		return snap
	}
	answers := state.Answers
	if d.Editing() {
		snap.Commit = func(ctx context.Context) (Outcome, error) {
			return d.svc.EditQuestion(ctx, d.formID, d.editorID, d.questionID, answers)
		}
	} else {
		snap.Commit = func(ctx context.Context) (Outcome, error) {
			return d.svc.AddQuestion(ctx, d.formID, d.editorID, state.Type, answers, d.after)
		}
	}
	return snap
}
