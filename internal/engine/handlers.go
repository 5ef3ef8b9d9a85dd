package engine

import (
	"fmt"
	"sort"

	"formbuilder-service/internal/domain"
)

// RequiredRule derives a question's required flag from one setup answer.
// Values lists every documented answer value; any other value leaves the
// flag untouched.
type RequiredRule struct {
	Key    string
	Values map[string]bool
}

// handler colocates the per-type behaviour of the planner and compiler.
type handler struct {
	// arrange rewrites the visible plan; nil keeps declaration order.
	arrange func(plan []domain.SetupQuestionSpec, answers domain.Answers) []domain.SetupQuestionSpec
	// checks run after the shared validation rules.
	checks   []rule
	required []RequiredRule
}

var mandatoryOrOptional = map[string]bool{"mandatory": true, "optional": false}

var handlers = map[domain.QuestionType]handler{
	domain.TypeDeposit: {
		arrange: arrangeInstalments(domain.InstalmentsKey, domain.InstalmentsAlwaysTwo),
		checks:  []rule{depositPercentages},
	},
	domain.TypeIdentification: {
		required: []RequiredRule{{
			Key:    "collectIdentification",
			Values: map[string]bool{"mandatory": true, "optional": false, "no": false},
		}},
	},
	domain.TypePhone: {
		required: []RequiredRule{{Key: "requirement", Values: mandatoryOrOptional}},
	},
	domain.TypeMessageToAgent: {
		required: []RequiredRule{{Key: "requirement", Values: mandatoryOrOptional}},
	},
	domain.TypePurchaseAgreement: {
		required: []RequiredRule{{
			Key:    "contractRequirement",
			Values: map[string]bool{"required": true, "optional": false},
		}},
	},
}

// RequiredRules returns the required-flag derivation table of a type.
func RequiredRules(typeID domain.QuestionType) []RequiredRule {
	return handlers[typeID].required
}

// arrangeInstalments groups the plan by instalment and reveals it one
// unanswered question at a time once the mode answer selects two instalments.
func arrangeInstalments(modeKey, dualValue string) func([]domain.SetupQuestionSpec, domain.Answers) []domain.SetupQuestionSpec {
	return func(plan []domain.SetupQuestionSpec, answers domain.Answers) []domain.SetupQuestionSpec {
		if asString(answers[modeKey]) != dualValue {
			return plan
		}
		grouped := make([]domain.SetupQuestionSpec, len(plan))
		copy(grouped, plan)
		sort.SliceStable(grouped, func(i, j int) bool {
			return grouped[i].Instalment < grouped[j].Instalment
		})

		out := make([]domain.SetupQuestionSpec, 0, len(grouped))
		for _, spec := range grouped {
			out = append(out, spec)
			if !gateSatisfied(spec, grouped, answers) {
				break
			}
		}
		return out
	}
}

// gateSatisfied reports whether progressive reveal may continue past spec.
func gateSatisfied(spec domain.SetupQuestionSpec, plan []domain.SetupQuestionSpec, answers domain.Answers) bool {
	if !isEmpty(answers[spec.ID]) {
		return true
	}
	if spec.Role == domain.RoleCurrencyOption {
		return len(currencySelections(plan, ownerID(spec), answers)) >= 2
	}
	return spec.Optional
}

// ownerID is the id of the question a spec hangs off, used to pair
// currency options with their stipulation and due-date configs with their due date.
func ownerID(spec domain.SetupQuestionSpec) string {
	if spec.DependsOn == nil {
		return ""
	}
	return spec.DependsOn.QuestionID
}

// currencySelections returns the distinct currency codes chosen across the
// currency option specs of one stipulation.
func currencySelections(plan []domain.SetupQuestionSpec, stipulationID string, answers domain.Answers) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, spec := range plan {
		if spec.Role != domain.RoleCurrencyOption || ownerID(spec) != stipulationID {
			continue
		}
		for _, code := range nonBlank(asStrings(answers[spec.ID])) {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out
}

// depositPercentages bounds percentage deposit amounts to (0, 100].
func depositPercentages(plan []domain.SetupQuestionSpec, answers domain.Answers) Result {
	for _, spec := range plan {
		if spec.Instalment == 0 || spec.ID != fmt.Sprintf("deposit%d_amount", spec.Instalment) {
			continue
		}
		if asString(answers[fmt.Sprintf("deposit%d_amountType", spec.Instalment)]) != "percentage" {
			continue
		}
		pct, ok := asNumber(answers[spec.ID])
		if !ok || pct <= 0 || pct > 100 {
			return invalid(spec.ID, "deposit percentage must be between 0 and 100")
		}
	}
	return valid
}
