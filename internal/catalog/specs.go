package catalog

import (
	"strings"

	"formbuilder-service/internal/domain"
)

var currencies = []string{"AUD", "USD", "EUR", "GBP", "NZD", "CAD"}

var (
	bothForms = []domain.FormKind{domain.FormKindLead, domain.FormKindOffer}
	leadOnly  = []domain.FormKind{domain.FormKindLead}
	offerOnly = []domain.FormKind{domain.FormKindOffer}
)

// options builds options from values, labelling each by its words.
func options(values ...string) []domain.Option {
	out := make([]domain.Option, 0, len(values))
	for _, v := range values {
		label := strings.ReplaceAll(v, "_", " ")
		if label != "" {
			label = strings.ToUpper(label[:1]) + label[1:]
		}
		out = append(out, domain.Option{Value: v, Label: label})
	}
	return out
}

func radio(id, label string, values ...string) domain.SetupQuestionSpec {
	return domain.SetupQuestionSpec{ID: id, Kind: domain.KindRadio, Label: label, Options: options(values...)}
}

func selectOne(id, label string, values ...string) domain.SetupQuestionSpec {
	return domain.SetupQuestionSpec{ID: id, Kind: domain.KindSelect, Label: label, Options: options(values...)}
}

func multi(id, label string, values ...string) domain.SetupQuestionSpec {
	return domain.SetupQuestionSpec{ID: id, Kind: domain.KindMultiChoiceSelect, Label: label, Options: options(values...)}
}

func text(id, label string) domain.SetupQuestionSpec {
	return domain.SetupQuestionSpec{ID: id, Kind: domain.KindText, Label: label}
}

func number(id, label string) domain.SetupQuestionSpec {
	return domain.SetupQuestionSpec{ID: id, Kind: domain.KindNumber, Label: label}
}

func optional(spec domain.SetupQuestionSpec) domain.SetupQuestionSpec {
	spec.Optional = true
	return spec
}

func when(spec domain.SetupQuestionSpec, questionID string, values ...string) domain.SetupQuestionSpec {
	spec.DependsOn = domain.When(questionID, values...)
	return spec
}

func role(spec domain.SetupQuestionSpec, r domain.SetupRole) domain.SetupQuestionSpec {
	spec.Role = r
	return spec
}

func dueDateConfig(id, dueDateID string) domain.SetupQuestionSpec {
	return domain.SetupQuestionSpec{
		ID:        id,
		Kind:      domain.KindDueDateConfig,
		Label:     "Custom due date",
		Role:      domain.RoleDueDateConfig,
		DependsOn: domain.When(dueDateID, domain.DueDateCustom),
	}
}

// currencyStipulation declares the currency mode question and its
// dependants: a single fixed currency, or optionSlots currency options.
func currencyStipulation(prefix string, optionSlots int) []domain.SetupQuestionSpec {
	stip := prefix + "currencyStipulation"
	out := []domain.SetupQuestionSpec{
		role(radio(stip, "Currency", "any", "fixed", domain.CurrencyStipulationOptions), domain.RoleCurrencyStipulation),
		when(selectOne(prefix+"currency", "Required currency", currencies...), stip, "fixed"),
	}
	if optionSlots == 0 {
		spec := domain.SetupQuestionSpec{
			ID:      prefix + "currencyOptions",
			Kind:    domain.KindCurrencyOptions,
			Label:   "Accepted currencies",
			Options: options(currencies...),
			Role:    domain.RoleCurrencyOption,
		}
		return append(out, when(spec, stip, domain.CurrencyStipulationOptions))
	}
	for i := 1; i <= optionSlots; i++ {
		slot := optional(selectOne(prefix+"currencyOption"+string(rune('0'+i)), "Currency option", currencies...))
		out = append(out, when(role(slot, domain.RoleCurrencyOption), stip, domain.CurrencyStipulationOptions))
	}
	return out
}

// answerString reads a scalar setup answer.
func answerString(answers domain.Answers, id string) string {
	s, _ := domain.ScalarString(answers[id])
	return s
}

// answerList reads a list setup answer.
func answerList(answers domain.Answers, id string) []string {
	switch v := answers[id].(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := domain.ScalarString(item); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// currencyProperties renders the ui block of a currency stipulation.
func currencyProperties(answers domain.Answers, prefix string, optionSlots int) map[string]any {
	mode := answerString(answers, prefix+"currencyStipulation")
	props := map[string]any{"mode": mode}
	switch mode {
	case "fixed":
		props["currencies"] = []string{answerString(answers, prefix+"currency")}
	case domain.CurrencyStipulationOptions:
		var chosen []string
		if optionSlots == 0 {
			chosen = answerList(answers, prefix+"currencyOptions")
		} else {
			for i := 1; i <= optionSlots; i++ {
				if c := answerString(answers, prefix+"currencyOption"+string(rune('0'+i))); c != "" {
					chosen = append(chosen, c)
				}
			}
		}
		props["currencies"] = dedupe(chosen)
	default:
		props["currencies"] = currencies
	}
	return props
}

// dueDateProperties renders the ui block of a due-date question.
func dueDateProperties(answers domain.Answers, dueID, daysID, configID string) map[string]any {
	kind := answerString(answers, dueID)
	props := map[string]any{"type": kind}
	switch kind {
	case "within_days":
		props["days"] = answers[daysID]
	case domain.DueDateCustom:
		props["config"] = answers[configID]
	}
	return props
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
