package engine

import (
	"strconv"
	"strings"

	"formbuilder-service/internal/domain"
)

// isEmpty reports whether an answer value counts as unanswered.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case []domain.Attachment:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case domain.DueDateConfig:
		return false
	case *domain.DueDateConfig:
		return t == nil
	default:
		return false
	}
}

// asStrings flattens scalar and array answers into their string values.
func asStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := domain.ScalarString(item); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := domain.ScalarString(t); ok {
			return []string{s}
		}
		return nil
	}
}

// asString returns the scalar string form of v, or "" for non-scalars.
func asString(v any) string {
	s, _ := domain.ScalarString(v)
	return s
}

// nonBlank drops blank entries after trimming.
func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// asDueDateConfig accepts the typed config or its decoded JSON object form.
func asDueDateConfig(v any) (domain.DueDateConfig, bool) {
	switch t := v.(type) {
	case domain.DueDateConfig:
		return t, true
	case *domain.DueDateConfig:
		if t == nil {
			return domain.DueDateConfig{}, false
		}
		return *t, true
	case map[string]any:
		return domain.DueDateConfig{
			TimeConstraint: asStrings(t["timeConstraint"]),
			Number:         asStrings(t["number"]),
			TimeUnit:       asStrings(t["timeUnit"]),
			Preposition:    asStrings(t["preposition"]),
			TriggerEvent:   asStrings(t["triggerEvent"]),
		}, true
	default:
		return domain.DueDateConfig{}, false
	}
}

// asNumber reads numeric answers, including numbers typed as text.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
