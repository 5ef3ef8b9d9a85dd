package memory

import (
	"context"
	"errors"
	"testing"

	"formbuilder-service/internal/domain"
)

func TestStoreScopesByForm(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_ = store.SaveQuestion(ctx, domain.QuestionInstance{ID: "q1", FormID: "form-1", Order: 1})
	_ = store.SaveQuestion(ctx, domain.QuestionInstance{ID: "q2", FormID: "form-2", Order: 1})
	_ = store.SavePageBreak(ctx, domain.PageBreak{ID: "b1", FormID: "form-1", BreakIndex: 1})

	qs, err := store.LoadQuestions(ctx, "form-1")
	if err != nil || len(qs) != 1 || qs[0].ID != "q1" {
		t.Fatalf("expected only q1, got %+v (%v)", qs, err)
	}
	breaks, _ := store.LoadPageBreaks(ctx, "form-2")
	if len(breaks) != 0 {
		t.Fatalf("expected no breaks on form-2, got %+v", breaks)
	}
}

func TestStoreUpdatesAndDeletes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.SaveQuestion(ctx, domain.QuestionInstance{ID: "q1", FormID: "form-1", Order: 1})
	_ = store.SavePageBreak(ctx, domain.PageBreak{ID: "b1", FormID: "form-1", BreakIndex: 1})

	if err := store.SaveOrder(ctx, "q1", 3); err != nil {
		t.Fatalf("save order: %v", err)
	}
	if err := store.ReorderPageBreak(ctx, "b1", 2); err != nil {
		t.Fatalf("reorder break: %v", err)
	}
	qs, _ := store.LoadQuestions(ctx, "form-1")
	breaks, _ := store.LoadPageBreaks(ctx, "form-1")
	if qs[0].Order != 3 || breaks[0].BreakIndex != 2 {
		t.Fatalf("unexpected state %+v %+v", qs, breaks)
	}

	if err := store.DeleteQuestion(ctx, "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.SaveOrder(ctx, "q1", 1); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.DeletePageBreak(ctx, "missing"); !errors.Is(err, domain.ErrPageBreakNotFound) {
		t.Fatalf("expected break not found, got %v", err)
	}
}
