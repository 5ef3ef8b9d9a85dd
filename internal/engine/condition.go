package engine

import "formbuilder-service/internal/domain"

// IsVisible evaluates a dependency condition against an answer snapshot.
// A nil condition is always visible; a missing answer never matches.
func IsVisible(cond *domain.Condition, answers domain.Answers) bool {
	if cond == nil {
		return true
	}
	value, ok := answers[cond.QuestionID]
	if !ok || isEmpty(value) {
		return false
	}
	for _, got := range asStrings(value) {
		for _, want := range cond.MatchValues {
			if got == want {
				return true
			}
		}
	}
	return false
}
