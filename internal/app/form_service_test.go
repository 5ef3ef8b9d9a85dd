package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"formbuilder-service/internal/app"
	"formbuilder-service/internal/catalog"
	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/engine"
	"formbuilder-service/internal/infra/memory"
)

const formID = "form-1"

func newTestService(t *testing.T, store app.Store) *app.FormService {
	t.Helper()
	next := 0
	return app.NewFormService(store, memory.NewSessionStore(), catalog.Default(),
		app.WithLogger(zaptest.NewLogger(t)),
		app.WithPolicy(catalog.DefaultPolicy()),
		app.WithIDGenerator(func() string {
			next++
			return fmt.Sprintf("id-%d", next)
		}),
	)
}

// seed stores questions of the given types at orders 1..N with ids q1..qN.
func seed(t *testing.T, store app.Store, types ...domain.QuestionType) {
	t.Helper()
	for i, typeID := range types {
		require.NoError(t, store.SaveQuestion(context.Background(), domain.QuestionInstance{
			ID:     fmt.Sprintf("q%d", i+1),
			FormID: formID,
			Type:   typeID,
			Order:  i + 1,
		}))
	}
}

func join(t *testing.T, svc *app.FormService) {
	t.Helper()
	_, _, err := svc.Join(context.Background(), formID, "ed-1", "Alice")
	require.NoError(t, err)
}

func layoutOrders(layout domain.Layout) []string {
	out := make([]string, 0, len(layout.Questions))
	for _, q := range layout.Questions {
		out = append(out, fmt.Sprintf("%s@%d", q.ID, q.Order))
	}
	return out
}

func TestJoinReturnsSortedLayout(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, domain.TypeListingInterest, domain.TypeSubmitterRole, domain.TypeName)
	svc := newTestService(t, store)

	layout, editors, err := svc.Join(context.Background(), formID, "ed-1", "Alice")

	require.NoError(t, err)
	assert.Equal(t, []string{"q1@1", "q2@2", "q3@3"}, layoutOrders(layout))
	require.Len(t, editors, 1)
	assert.Equal(t, "Alice", editors[0].Name)
}

func TestOperationsRequireJoinedEditor(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, domain.TypeName, domain.TypeEmail)
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.MoveQuestion(ctx, formID, "ed-1", "q1", domain.DirectionDown)
	assert.ErrorIs(t, err, domain.ErrFormNotFound)

	join(t, svc)
	_, err = svc.MoveQuestion(ctx, formID, "ed-2", "q1", domain.DirectionDown)
	assert.ErrorIs(t, err, domain.ErrEditorNotFound)
}

func TestMoveQuestionPersistsAndBroadcasts(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, domain.TypeName, domain.TypeEmail, domain.TypePhone)
	svc := newTestService(t, store)
	ctx := context.Background()
	join(t, svc)

	updates, cancel, err := svc.Subscribe(ctx, formID)
	require.NoError(t, err)
	defer cancel()

	out, err := svc.MoveQuestion(ctx, formID, "ed-1", "q1", domain.DirectionDown)
	require.NoError(t, err)
	assert.Empty(t, out.Noop)
	assert.Equal(t, []string{"q2@1", "q1@2", "q3@3"}, layoutOrders(out.Layout))

	select {
	case got := <-updates:
		assert.Equal(t, out.Layout, got)
	case <-time.After(time.Second):
		t.Fatal("expected a layout update")
	}

	stored, err := svc.Layout(ctx, formID)
	require.NoError(t, err)
	assert.Equal(t, layoutOrders(out.Layout), layoutOrders(stored))
}

func TestPinnedMoveIsNoop(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, domain.TypeListingInterest, domain.TypeSubmitterRole, domain.TypeName)
	svc := newTestService(t, store)
	join(t, svc)

	out, err := svc.MoveQuestion(context.Background(), formID, "ed-1", "q3", domain.DirectionUp)

	require.NoError(t, err)
	assert.NotEmpty(t, out.Noop)
	assert.Equal(t, []string{"q1@1", "q2@2", "q3@3"}, layoutOrders(out.Layout))
}

func TestDeleteQuestionDropsDanglingPageBreak(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, domain.TypeName, domain.TypeEmail, domain.TypePhone)
	svc := newTestService(t, store)
	ctx := context.Background()
	join(t, svc)

	out, err := svc.AddPageBreak(ctx, formID, "ed-1", 2)
	require.NoError(t, err)
	require.Len(t, out.Layout.PageBreaks, 1)

	_, err = svc.DeleteQuestion(ctx, formID, "ed-1", "q1", false)
	var eerr *domain.EssentialQuestionError
	require.ErrorAs(t, err, &eerr)

	out, err = svc.DeleteQuestion(ctx, formID, "ed-1", "q3", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1@1", "q2@2"}, layoutOrders(out.Layout))
	assert.Empty(t, out.Layout.PageBreaks)

	breaks, err := store.LoadPageBreaks(ctx, formID)
	require.NoError(t, err)
	assert.Empty(t, breaks)
}

func TestPageBreakLifecycle(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, domain.TypeName, domain.TypeEmail, domain.TypePhone, domain.TypeCustomText, domain.TypeMessageToAgent)
	svc := newTestService(t, store)
	ctx := context.Background()
	join(t, svc)

	_, err := svc.AddPageBreak(ctx, formID, "ed-1", 2)
	require.NoError(t, err)
	out, err := svc.AddPageBreak(ctx, formID, "ed-1", 4)
	require.NoError(t, err)
	first := out.Layout.PageBreaks[0].ID

	out, err = svc.MovePageBreak(ctx, formID, "ed-1", first, domain.DirectionDown)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Layout.PageBreaks[0].BreakIndex)

	_, err = svc.MovePageBreak(ctx, formID, "ed-1", first, domain.DirectionDown)
	assert.Equal(t, domain.KindStructural, domain.ErrorKind(err))

	out, err = svc.DeletePageBreak(ctx, formID, "ed-1", first)
	require.NoError(t, err)
	require.Len(t, out.Layout.PageBreaks, 1)
	assert.Equal(t, 4, out.Layout.PageBreaks[0].BreakIndex)
}

func TestOrdersAreRepairedBeforeOperations(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	for id, order := range map[string]int{"a": 2, "b": 5, "c": 5} {
		require.NoError(t, store.SaveQuestion(ctx, domain.QuestionInstance{ID: id, FormID: formID, Type: domain.TypeCustomText, Order: order}))
	}
	svc := newTestService(t, store)
	join(t, svc)

	out, err := svc.MoveQuestion(ctx, formID, "ed-1", "a", domain.DirectionUp)

	require.NoError(t, err)
	assert.Equal(t, "question is already first", out.Noop)
	assert.Equal(t, []string{"a@1", "b@2", "c@3"}, layoutOrders(out.Layout))
	qs, _ := store.LoadQuestions(ctx, formID)
	assert.NoError(t, engine.CheckContiguous(qs))
}

func TestSetRequired(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, domain.TypeEmail, domain.TypePhone)
	svc := newTestService(t, store)
	ctx := context.Background()
	join(t, svc)

	_, err := svc.SetRequired(ctx, formID, "ed-1", "q1", false)
	assert.Equal(t, domain.KindEssential, domain.ErrorKind(err))

	out, err := svc.SetRequired(ctx, formID, "ed-1", "q2", true)
	require.NoError(t, err)
	assert.True(t, out.Layout.Questions[1].Required)

	out, err = svc.SetRequired(ctx, formID, "ed-1", "q2", true)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Noop)
}

func TestAddQuestionCompilesAndInserts(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, domain.TypeListingInterest, domain.TypeSubmitterRole, domain.TypeName)
	svc := newTestService(t, store)
	ctx := context.Background()
	join(t, svc)

	_, err := svc.AddQuestion(ctx, formID, "ed-1", domain.TypeIdentification, domain.Answers{"collectIdentification": "mandatory"}, 2)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.AddQuestion(ctx, formID, "ed-1", domain.TypeName, domain.Answers{"nameFormat": "full_name"}, 1)
	assert.Equal(t, domain.KindStructural, domain.ErrorKind(err))

	out, err := svc.AddQuestion(ctx, formID, "ed-1", domain.TypeIdentification,
		domain.Answers{"collectIdentification": "mandatory", "idTypes": []any{"passport"}}, 2)
	require.NoError(t, err)
	require.NotNil(t, out.Question)
	// the rejected insert above already drew id-1
	assert.Equal(t, "id-2", out.Question.ID)
	assert.Equal(t, 3, out.Question.Order)
	assert.True(t, out.Question.Required)
	assert.Equal(t, []string{"q1@1", "q2@2", "id-2@3", "q3@4"}, layoutOrders(out.Layout))
}

func TestEditQuestionAppliesRequiredOverride(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.SaveQuestion(ctx, domain.QuestionInstance{
		ID: "q1", FormID: formID, Type: domain.TypePhone, Order: 1, Required: true,
		SetupConfig: map[string]any{"requirement": "mandatory"},
	}))
	svc := newTestService(t, store)
	join(t, svc)

	out, err := svc.EditQuestion(ctx, formID, "ed-1", "q1", domain.Answers{"requirement": "optional", "countryCode": "+61"})

	require.NoError(t, err)
	q := out.Layout.Questions[0]
	assert.False(t, q.Required)
	assert.Equal(t, "+61", q.UIConfig["defaultCountryCode"])
}

type failingStore struct {
	*memory.Store
	err error
}

func (f failingStore) SaveOrder(context.Context, string, int) error { return f.err }

func TestPersistenceErrorsAreWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	store := failingStore{Store: memory.NewStore(), err: cause}
	seed(t, store, domain.TypeName, domain.TypeEmail)
	svc := newTestService(t, store)
	join(t, svc)

	_, err := svc.MoveQuestion(context.Background(), formID, "ed-1", "q1", domain.DirectionDown)

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "save order", perr.Op)
	assert.ErrorIs(t, err, cause)
}

func TestLeaveDropsEmptySession(t *testing.T) {
	svc := newTestService(t, memory.NewStore())
	ctx := context.Background()
	join(t, svc)

	svc.Leave(ctx, formID, "ed-1")

	_, _, err := svc.Subscribe(ctx, formID)
	assert.ErrorIs(t, err, domain.ErrFormNotFound)
}
