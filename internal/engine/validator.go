package engine

import (
	"fmt"
	"strings"

	"formbuilder-service/internal/domain"
)

// Result is the outcome of validating setup answers against a plan.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Field  string `json:"field,omitempty"`
}

// Err converts a failed result into a *domain.ValidationError.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &domain.ValidationError{Field: r.Field, Reason: r.Reason}
}

var valid = Result{OK: true}

func invalid(field, reason string) Result {
	return Result{Field: field, Reason: reason}
}

type rule func(plan []domain.SetupQuestionSpec, answers domain.Answers) Result

// rules run in precedence order; the first failure wins.
var rules = []rule{
	requiredAnswered,
	currencyCount,
	customDueDate,
	conditionBlocks,
	optionLists,
}

// Validate checks answers against the visible plan of a question type.
func Validate(plan []domain.SetupQuestionSpec, answers domain.Answers, typeID domain.QuestionType) Result {
	for _, check := range rules {
		if res := check(plan, answers); !res.OK {
			return res
		}
	}
	for _, check := range handlers[typeID].checks {
		if res := check(plan, answers); !res.OK {
			return res
		}
	}
	return valid
}

func requiredAnswered(plan []domain.SetupQuestionSpec, answers domain.Answers) Result {
	for _, spec := range plan {
		if spec.Required() && isEmpty(answers[spec.ID]) {
			return invalid(spec.ID, fmt.Sprintf("%s is required", displayName(spec)))
		}
	}
	return valid
}

func currencyCount(plan []domain.SetupQuestionSpec, answers domain.Answers) Result {
	for _, spec := range plan {
		if spec.Role != domain.RoleCurrencyStipulation {
			continue
		}
		if asString(answers[spec.ID]) != domain.CurrencyStipulationOptions {
			continue
		}
		if len(currencySelections(plan, spec.ID, answers)) < 2 {
			return invalid(spec.ID, "at least 2 currencies must be selected")
		}
	}
	return valid
}

func customDueDate(plan []domain.SetupQuestionSpec, answers domain.Answers) Result {
	for _, spec := range plan {
		if spec.Role != domain.RoleDueDate || asString(answers[spec.ID]) != domain.DueDateCustom {
			continue
		}
		key := spec.ID + "Config"
		for _, other := range plan {
			if other.Role == domain.RoleDueDateConfig && ownerID(other) == spec.ID {
				key = other.ID
				break
			}
		}
		cfg, ok := asDueDateConfig(answers[key])
		if !ok || !cfg.HasSelection() {
			return invalid(key, "a custom due date needs at least one selection")
		}
	}
	return valid
}

func conditionBlocks(plan []domain.SetupQuestionSpec, answers domain.Answers) Result {
	type blockKey struct {
		group string
		n     int
	}
	var order []blockKey
	filled := make(map[blockKey]bool)
	gates := make(map[blockKey]domain.SetupQuestionSpec)
	for _, spec := range plan {
		if spec.Repeat == nil || spec.Block == 0 {
			continue
		}
		k := blockKey{group: spec.Repeat.Group, n: spec.Block}
		if _, ok := filled[k]; !ok {
			order = append(order, k)
			filled[k] = false
		}
		if !isEmpty(answers[spec.ID]) {
			filled[k] = true
		}
		if spec.Repeat.Gate {
			gates[k] = spec
		}
	}
	for _, k := range order {
		gate, ok := gates[k]
		if !ok || !(k.n == 1 || filled[k]) {
			continue
		}
		if isEmpty(answers[gate.ID]) {
			field := strings.TrimPrefix(gate.ID, domain.RepeatID(k.group, k.n, ""))
			return invalid(gate.ID, fmt.Sprintf("%s %d needs a %s", k.group, k.n, field))
		}
	}
	return valid
}

func optionLists(plan []domain.SetupQuestionSpec, answers domain.Answers) Result {
	for _, spec := range plan {
		if spec.Role != domain.RoleOptionList {
			continue
		}
		if len(nonBlank(asStrings(answers[spec.ID]))) < 2 {
			return invalid(spec.ID, "at least 2 options are required")
		}
	}
	return valid
}

func displayName(spec domain.SetupQuestionSpec) string {
	if spec.Label != "" {
		return spec.Label
	}
	return spec.ID
}
