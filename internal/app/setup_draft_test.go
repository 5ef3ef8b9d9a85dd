package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/engine"
	"formbuilder-service/internal/infra/memory"
)

func TestDraftCommitIsOfferedOnlyWhenValid(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, domain.TypeName, domain.TypeEmail)
	svc := newTestService(t, store)
	ctx := context.Background()
	join(t, svc)

	draft, err := svc.BeginAdd(formID, "ed-1", domain.TypeCustomSingleChoice, 2)
	require.NoError(t, err)

	snap := draft.Dispatch(engine.Action{Kind: engine.ActionSet, ID: "label", Value: "Best time to call"})
	assert.Nil(t, snap.Commit)
	assert.Equal(t, "options", snap.Validation.Field)

	draft.Dispatch(engine.Action{Kind: engine.ActionAddEntry, ID: "options", Value: "Morning"})
	stale := draft.Dispatch(engine.Action{Kind: engine.ActionAddEntry, ID: "options", Value: "Evening"})
	require.NotNil(t, stale.Commit)

	// Later edits do not leak into a commit taken from an earlier snapshot.
	draft.Dispatch(engine.Action{Kind: engine.ActionAddEntry, ID: "options", Value: "Night"})

	out, err := stale.Commit(ctx)
	require.NoError(t, err)
	require.NotNil(t, out.Question)
	assert.Equal(t, 3, out.Question.Order)
	assert.Equal(t, []string{"Morning", "Evening"}, out.Question.UIConfig["options"])
}

func TestDraftEditPrefillsStoredSetup(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.SaveQuestion(ctx, domain.QuestionInstance{
		ID: "q1", FormID: formID, Type: domain.TypeIdentification, Order: 1, Required: true,
		SetupConfig: map[string]any{"collectIdentification": "mandatory", "idTypes": []any{"passport"}},
	}))
	svc := newTestService(t, store)
	join(t, svc)

	draft, err := svc.BeginEdit(ctx, formID, "ed-1", "q1")
	require.NoError(t, err)
	assert.True(t, draft.Editing())
	require.NotNil(t, draft.Snapshot().Commit)

	snap := draft.Dispatch(engine.Action{Kind: engine.ActionSet, ID: "collectIdentification", Value: "no"})
	require.NotNil(t, snap.Commit)
	assert.Len(t, snap.Plan, 1)

	out, err := snap.Commit(ctx)
	require.NoError(t, err)
	q := out.Layout.Questions[0]
	assert.False(t, q.Required)
	assert.Equal(t, map[string]any{"collectIdentification": "no"}, q.SetupConfig)
}

func TestBeginRejectsUnknownTargets(t *testing.T) {
	svc := newTestService(t, memory.NewStore())

	_, err := svc.BeginAdd(formID, "ed-1", "notAType", 0)
	assert.ErrorIs(t, err, domain.ErrUnknownQuestionType)

	_, err = svc.BeginEdit(context.Background(), formID, "ed-1", "missing")
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}
