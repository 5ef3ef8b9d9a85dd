package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"formbuilder-service/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestStoreRoundTripsQuestions(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	q := domain.QuestionInstance{
		ID:          "q1",
		FormID:      "form-1",
		Type:        domain.TypeIdentification,
		Order:       1,
		Required:    true,
		SetupConfig: map[string]any{"collectIdentification": "mandatory", "idTypes": []any{"passport"}},
		UIConfig:    map[string]any{"label": "Identification"},
	}
	if err := store.SaveQuestion(ctx, q); err != nil {
		t.Fatalf("save question: %v", err)
	}
	if !mr.Exists(questionsKey("form-1")) {
		t.Fatalf("expected questions hash")
	}

	if err := store.SaveOrder(ctx, "q1", 4); err != nil {
		t.Fatalf("save order: %v", err)
	}
	got, err := store.LoadQuestions(ctx, "form-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Order != 4 || !got[0].Required || got[0].SetupConfig["collectIdentification"] != "mandatory" {
		t.Fatalf("unexpected questions %+v", got)
	}

	if err := store.DeleteQuestion(ctx, "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := store.LoadQuestions(ctx, "form-1"); len(got) != 0 {
		t.Fatalf("expected no questions, got %+v", got)
	}
	if err := store.SaveOrder(ctx, "q1", 1); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStorePageBreaks(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.SavePageBreak(ctx, domain.PageBreak{ID: "b1", FormID: "form-1", BreakIndex: 2}); err != nil {
		t.Fatalf("save break: %v", err)
	}
	if err := store.ReorderPageBreak(ctx, "b1", 3); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	breaks, err := store.LoadPageBreaks(ctx, "form-1")
	if err != nil || len(breaks) != 1 || breaks[0].BreakIndex != 3 {
		t.Fatalf("unexpected breaks %+v (%v)", breaks, err)
	}

	if err := store.DeletePageBreak(ctx, "b1"); err != nil {
		t.Fatalf("delete break: %v", err)
	}
	if err := store.DeletePageBreak(ctx, "b1"); !errors.Is(err, domain.ErrPageBreakNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreKeepsFormsApart(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_ = store.SaveQuestion(ctx, domain.QuestionInstance{ID: "q1", FormID: "form-1", Order: 1})
	_ = store.SaveQuestion(ctx, domain.QuestionInstance{ID: "q2", FormID: "form-2", Order: 1})
	if err := store.SaveOrder(ctx, "q2", 2); err != nil {
		t.Fatalf("save order: %v", err)
	}

	first, _ := store.LoadQuestions(ctx, "form-1")
	if len(first) != 1 || first[0].ID != "q1" || first[0].Order != 1 {
		t.Fatalf("form-1 changed: %+v", first)
	}
}
