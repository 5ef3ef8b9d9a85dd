package engine

import (
	"fmt"
	"sort"

	"formbuilder-service/internal/domain"
)

// Pins maps a question type to the order it is pinned to.
type Pins map[domain.QuestionType]int

// Pinned reports whether q currently occupies the position its type is pinned to.
func (p Pins) Pinned(q domain.QuestionInstance) bool {
	pos, ok := p[q.Type]
	return ok && pos == q.Order
}

// Policy is the structural rule set of a form.
type Policy struct {
	Pins Pins
	// Essential types cannot be deleted without authorization nor made optional.
	Essential map[domain.QuestionType]bool
	// DeleteExempt essential types may be deleted without authorization.
	DeleteExempt map[domain.QuestionType]bool
}

// CheckDelete rejects unauthorized deletion of an essential question.
func (p Policy) CheckDelete(q domain.QuestionInstance, authorized bool) error {
	if !p.Essential[q.Type] || authorized || p.DeleteExempt[q.Type] {
		return nil
	}
	return &domain.EssentialQuestionError{Type: q.Type, Op: "deleted"}
}

// CheckMakeOptional rejects turning an essential question optional.
func (p Policy) CheckMakeOptional(q domain.QuestionInstance) error {
	if !p.Essential[q.Type] {
		return nil
	}
	return &domain.EssentialQuestionError{Type: q.Type, Op: "made optional"}
}

// OrderChange is one saveOrder call needed to persist a transition.
type OrderChange struct {
	ID   string `json:"id"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// Reorder is the outcome of a list transition. Questions is a new slice
// sorted by order; Changes is empty when the transition was a no-op, in
// which case Reason says why.
type Reorder struct {
	Questions []domain.QuestionInstance
	Changes   []OrderChange
	Reason    string
}

// Applied reports whether the transition changed any order.
func (r Reorder) Applied() bool {
	return len(r.Changes) > 0
}

// Find returns the question with id from the resulting list.
func (r Reorder) Find(id string) (domain.QuestionInstance, bool) {
	for _, q := range r.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.QuestionInstance{}, false
}

// Sorted returns a copy of qs ordered by position.
func Sorted(qs []domain.QuestionInstance) []domain.QuestionInstance {
	out := make([]domain.QuestionInstance, len(qs))
	copy(out, qs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func indexOf(list []domain.QuestionInstance, id string) int {
	for i, q := range list {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// MoveUp swaps a question with the one above it.
func MoveUp(qs []domain.QuestionInstance, id string, pins Pins) (Reorder, error) {
	return move(qs, id, -1, pins)
}

// MoveDown swaps a question with the one below it.
func MoveDown(qs []domain.QuestionInstance, id string, pins Pins) (Reorder, error) {
	return move(qs, id, 1, pins)
}

// Move dispatches on direction.
func Move(qs []domain.QuestionInstance, id string, dir domain.Direction, pins Pins) (Reorder, error) {
	switch dir {
	case domain.DirectionUp:
		return MoveUp(qs, id, pins)
	case domain.DirectionDown:
		return MoveDown(qs, id, pins)
	default:
		return Reorder{}, &domain.StructuralError{Op: "move question", Reason: fmt.Sprintf("unknown direction %q", dir)}
	}
}

func move(qs []domain.QuestionInstance, id string, step int, pins Pins) (Reorder, error) {
	list := Sorted(qs)
	i := indexOf(list, id)
	if i < 0 {
		return Reorder{}, fmt.Errorf("move %s: %w", id, domain.ErrQuestionNotFound)
	}
	j := i + step
	switch {
	case j < 0:
		return Reorder{Questions: list, Reason: "question is already first"}, nil
	case j >= len(list):
		return Reorder{Questions: list, Reason: "question is already last"}, nil
	case pins.Pinned(list[i]):
		return Reorder{Questions: list, Reason: fmt.Sprintf("question is pinned to position %d", list[i].Order)}, nil
	case pins.Pinned(list[j]):
		return Reorder{Questions: list, Reason: fmt.Sprintf("position %d is pinned", list[j].Order)}, nil
	}

	a, b := list[i].Order, list[j].Order
	changes := []OrderChange{
		{ID: list[i].ID, From: a, To: b},
		{ID: list[j].ID, From: b, To: a},
	}
	list[i].Order, list[j].Order = b, a
	list[i], list[j] = list[j], list[i]
	return Reorder{Questions: list, Changes: changes}, nil
}

// InsertAfter places q directly after the question at order after (0 puts
// it first) and shifts every later question down by one. It is rejected
// when it would separate two adjacent pinned questions or push any pinned
// question out of its position.
func InsertAfter(qs []domain.QuestionInstance, after int, q domain.QuestionInstance, pins Pins) (Reorder, error) {
	list := Sorted(qs)
	n := len(list)
	if after < 0 || after > n {
		return Reorder{}, &domain.StructuralError{Op: "insert question", Reason: fmt.Sprintf("position %d is outside 0..%d", after, n)}
	}
	if splitsPinned(list, after, pins) {
		return Reorder{}, &domain.StructuralError{Op: "insert question", Reason: fmt.Sprintf("cannot separate the pinned questions at %d and %d", after, after+1)}
	}
	for _, existing := range list[after:] {
		if pins.Pinned(existing) {
			return Reorder{}, &domain.StructuralError{Op: "insert question", Reason: fmt.Sprintf("%s is pinned to position %d", existing.Type, existing.Order)}
		}
	}

	changes := make([]OrderChange, 0, n-after)
	for k := n - 1; k >= after; k-- {
		changes = append(changes, OrderChange{ID: list[k].ID, From: list[k].Order, To: list[k].Order + 1})
		list[k].Order++
	}
	q.Order = after + 1

	out := make([]domain.QuestionInstance, 0, n+1)
	out = append(out, list[:after]...)
	out = append(out, q)
	out = append(out, list[after:]...)
	return Reorder{Questions: out, Changes: changes}, nil
}

// Delete removes a question and closes the gap it leaves.
func Delete(qs []domain.QuestionInstance, id string, authorized bool, policy Policy) (Reorder, error) {
	list := Sorted(qs)
	i := indexOf(list, id)
	if i < 0 {
		return Reorder{}, fmt.Errorf("delete %s: %w", id, domain.ErrQuestionNotFound)
	}
	if err := policy.CheckDelete(list[i], authorized); err != nil {
		return Reorder{}, err
	}

	out := make([]domain.QuestionInstance, 0, len(list)-1)
	out = append(out, list[:i]...)
	changes := make([]OrderChange, 0, len(list)-i-1)
	for _, q := range list[i+1:] {
		changes = append(changes, OrderChange{ID: q.ID, From: q.Order, To: q.Order - 1})
		q.Order--
		out = append(out, q)
	}
	return Reorder{Questions: out, Changes: changes}, nil
}

// CheckContiguous verifies that orders are exactly 1..N.
func CheckContiguous(qs []domain.QuestionInstance) error {
	for i, q := range Sorted(qs) {
		if q.Order != i+1 {
			return fmt.Errorf("%w: position %d holds order %d", domain.ErrOrderNotContiguous, i+1, q.Order)
		}
	}
	return nil
}

// Renumber closes gaps and resolves duplicate orders, keeping relative order.
func Renumber(qs []domain.QuestionInstance) Reorder {
	list := Sorted(qs)
	var changes []OrderChange
	for i := range list {
		if list[i].Order != i+1 {
			changes = append(changes, OrderChange{ID: list[i].ID, From: list[i].Order, To: i + 1})
			list[i].Order = i + 1
		}
	}
	return Reorder{Questions: list, Changes: changes}
}

// splitsPinned reports whether a cut after order `after` falls between two
// pinned questions. list must be contiguous.
func splitsPinned(list []domain.QuestionInstance, after int, pins Pins) bool {
	if after < 1 || after >= len(list) {
		return false
	}
	return pins.Pinned(list[after-1]) && pins.Pinned(list[after])
}
