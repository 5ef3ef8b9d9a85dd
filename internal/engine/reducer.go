package engine

import "formbuilder-service/internal/domain"

// SetupState is the answer state of one setup being edited.
type SetupState struct {
	Type    domain.QuestionType `json:"type"`
	Answers domain.Answers      `json:"answers"`
	// Version counts applied actions.
	Version int `json:"version"`
}

// ActionKind names a setup answer mutation.
type ActionKind string

const (
	ActionSet         ActionKind = "set"
	ActionClear       ActionKind = "clear"
	ActionToggle      ActionKind = "toggle"
	ActionAddEntry    ActionKind = "addEntry"
	ActionUpdateEntry ActionKind = "updateEntry"
	ActionRemoveEntry ActionKind = "removeEntry"
	ActionReset       ActionKind = "reset"
)

// Action is one answer mutation.
type Action struct {
	Kind    ActionKind     `json:"action"`
	ID      string         `json:"id,omitempty"`
	Value   any            `json:"value,omitempty"`
	Index   int            `json:"index,omitempty"`
	Answers domain.Answers `json:"answers,omitempty"`
}

// NewSetupState starts an empty, or prefilled, setup for typeID.
func NewSetupState(typeID domain.QuestionType, answers domain.Answers) SetupState {
	return SetupState{Type: typeID, Answers: cloneAnswers(answers)}
}

// Reduce applies action to state and returns the next state. state is
// never modified; unknown actions return it unchanged.
func Reduce(state SetupState, action Action) SetupState {
	next := SetupState{Type: state.Type, Answers: cloneAnswers(state.Answers), Version: state.Version + 1}
	switch action.Kind {
	case ActionSet:
		next.Answers[action.ID] = action.Value
	case ActionClear:
		delete(next.Answers, action.ID)
	case ActionToggle:
		value := asString(action.Value)
		current := asStrings(next.Answers[action.ID])
		values := make([]string, 0, len(current)+1)
		found := false
		for _, v := range current {
			if v == value {
				found = true
				continue
			}
			values = append(values, v)
		}
		if !found {
			values = append(values, value)
		}
		setList(next.Answers, action.ID, values)
	case ActionAddEntry:
		current := asStrings(next.Answers[action.ID])
		values := make([]string, 0, len(current)+1)
		values = append(values, current...)
		next.Answers[action.ID] = append(values, asString(action.Value))
	case ActionUpdateEntry:
		current := asStrings(next.Answers[action.ID])
		if action.Index < 0 || action.Index >= len(current) {
			return state
		}
		values := append([]string(nil), current...)
		values[action.Index] = asString(action.Value)
		next.Answers[action.ID] = values
	case ActionRemoveEntry:
		current := asStrings(next.Answers[action.ID])
		if action.Index < 0 || action.Index >= len(current) {
			return state
		}
		values := make([]string, 0, len(current)-1)
		values = append(values, current[:action.Index]...)
		values = append(values, current[action.Index+1:]...)
		setList(next.Answers, action.ID, values)
	case ActionReset:
		next.Answers = cloneAnswers(action.Answers)
	default:
		return state
	}
	return next
}

func setList(answers domain.Answers, id string, values []string) {
	if len(values) == 0 {
		delete(answers, id)
		return
	}
	answers[id] = values
}

func cloneAnswers(in domain.Answers) domain.Answers {
	out := make(domain.Answers, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
