package engine

import (
	"fmt"
	"sort"

	"formbuilder-service/internal/domain"
)

// SortedBreaks returns a copy of breaks ordered by index.
func SortedBreaks(breaks []domain.PageBreak) []domain.PageBreak {
	out := make([]domain.PageBreak, len(breaks))
	copy(out, breaks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BreakIndex != out[j].BreakIndex {
			return out[i].BreakIndex < out[j].BreakIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AddBreak validates a new page break after the question at afterOrder.
// The returned break has no id; the caller assigns one.
func AddBreak(qs []domain.QuestionInstance, breaks []domain.PageBreak, afterOrder int, pins Pins) (domain.PageBreak, error) {
	const op = "add page break"
	list := Sorted(qs)
	if afterOrder < 1 || afterOrder >= len(list) {
		return domain.PageBreak{}, &domain.StructuralError{Op: op, Reason: fmt.Sprintf("no question follows position %d", afterOrder)}
	}
	if splitsPinned(list, afterOrder, pins) {
		return domain.PageBreak{}, &domain.StructuralError{Op: op, Reason: fmt.Sprintf("cannot separate the pinned questions at %d and %d", afterOrder, afterOrder+1)}
	}
	for _, b := range breaks {
		if b.BreakIndex == afterOrder {
			return domain.PageBreak{}, &domain.StructuralError{Op: op, Reason: fmt.Sprintf("a page break already follows question %d", afterOrder)}
		}
	}
	return domain.PageBreak{BreakIndex: afterOrder}, nil
}

// MoveBreak shifts a page break by one question. Other breaks are never
// renumbered; a move onto an occupied index is rejected instead.
func MoveBreak(qs []domain.QuestionInstance, breaks []domain.PageBreak, id string, dir domain.Direction, pins Pins) (domain.PageBreak, error) {
	const op = "move page break"
	idx := -1
	for i, b := range breaks {
		if b.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.PageBreak{}, fmt.Errorf("move page break %s: %w", id, domain.ErrPageBreakNotFound)
	}
	moved := breaks[idx]

	next := moved.BreakIndex
	switch dir {
	case domain.DirectionUp:
		next--
	case domain.DirectionDown:
		next++
	default:
		return domain.PageBreak{}, &domain.StructuralError{Op: op, Reason: fmt.Sprintf("unknown direction %q", dir)}
	}

	list := Sorted(qs)
	if next < 1 || next >= len(list) {
		return domain.PageBreak{}, &domain.StructuralError{Op: op, Reason: "page break cannot move past the first or last question"}
	}
	for i, b := range breaks {
		if i != idx && b.BreakIndex == next {
			return domain.PageBreak{}, &domain.StructuralError{Op: op, Reason: fmt.Sprintf("a page break already follows question %d", next)}
		}
	}
	if splitsPinned(list, next, pins) {
		return domain.PageBreak{}, &domain.StructuralError{Op: op, Reason: fmt.Sprintf("cannot separate the pinned questions at %d and %d", next, next+1)}
	}
	moved.BreakIndex = next
	return moved, nil
}

// DeleteBreak removes a page break unconditionally.
func DeleteBreak(breaks []domain.PageBreak, id string) ([]domain.PageBreak, error) {
	out := make([]domain.PageBreak, 0, len(breaks))
	found := false
	for _, b := range breaks {
		if b.ID == id {
			found = true
			continue
		}
		out = append(out, b)
	}
	if !found {
		return nil, fmt.Errorf("delete page break %s: %w", id, domain.ErrPageBreakNotFound)
	}
	return out, nil
}

// ReconcileBreaks re-validates page breaks against a changed question list.
// Breaks that no longer have a question on both sides, that duplicate an
// earlier index, or that now split two pinned questions are returned in drop.
func ReconcileBreaks(qs []domain.QuestionInstance, breaks []domain.PageBreak, pins Pins) (keep, drop []domain.PageBreak) {
	list := Sorted(qs)
	seen := make(map[int]bool, len(breaks))
	for _, b := range SortedBreaks(breaks) {
		if b.BreakIndex < 1 || b.BreakIndex >= len(list) || seen[b.BreakIndex] || splitsPinned(list, b.BreakIndex, pins) {
			drop = append(drop, b)
			continue
		}
		seen[b.BreakIndex] = true
		keep = append(keep, b)
	}
	return keep, drop
}
