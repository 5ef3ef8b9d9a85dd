package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Condition makes a setup question visible when the answer to QuestionID
// equals, or for array answers contains, one of MatchValues.
type Condition struct {
	QuestionID  string   `json:"questionId"`
	MatchValues []string `json:"matchValues"`
}

// When builds a condition on questionID matching any of values.
func When(questionID string, values ...string) *Condition {
	return &Condition{QuestionID: questionID, MatchValues: values}
}

// ParseCondition normalizes the condition shapes found in stored setup
// definitions into a Condition:
//
//	{"dependsOn": {"questionId": "a", "matchValues": ["x", "y"]}}
//	{"dependsOn": {"questionId": "a", "value": "x"}}
//	{"dependsOn": "a", "showWhen": "x"}
//
// dependsOn and showWhen are the decoded JSON values of the two keys.
func ParseCondition(dependsOn, showWhen any) (*Condition, error) {
	switch v := dependsOn.(type) {
	case nil:
		return nil, nil
	case *Condition:
		return v, nil
	case Condition:
		return &v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		values, err := matchValues(showWhen)
		if err != nil {
			return nil, fmt.Errorf("condition on %q: %w", v, err)
		}
		return &Condition{QuestionID: v, MatchValues: values}, nil
	case map[string]any:
		id, _ := v["questionId"].(string)
		if id == "" {
			return nil, errors.New("condition: missing questionId")
		}
		raw, ok := v["matchValues"]
		if !ok {
			raw = v["value"]
		}
		values, err := matchValues(raw)
		if err != nil {
			return nil, fmt.Errorf("condition on %q: %w", id, err)
		}
		return &Condition{QuestionID: id, MatchValues: values}, nil
	default:
		return nil, fmt.Errorf("condition: unsupported dependsOn %T", dependsOn)
	}
}

func matchValues(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, errors.New("missing match value")
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := ScalarString(item)
			if !ok {
				return nil, fmt.Errorf("unsupported match value %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, ok := ScalarString(v)
		if !ok {
			return nil, fmt.Errorf("unsupported match value %T", raw)
		}
		return []string{s}, nil
	}
}

// ScalarString renders string, bool and numeric values in canonical form.
func ScalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

// UnmarshalJSON accepts every condition shape understood by ParseCondition
// plus the legacy "required": false flag.
func (s *SetupQuestionSpec) UnmarshalJSON(data []byte) error {
	type plain SetupQuestionSpec
	var raw struct {
		plain
		DependsOn any   `json:"dependsOn"`
		ShowWhen  any   `json:"showWhen"`
		Required  *bool `json:"required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cond, err := ParseCondition(raw.DependsOn, raw.ShowWhen)
	if err != nil {
		return fmt.Errorf("setup question %q: %w", raw.ID, err)
	}
	*s = SetupQuestionSpec(raw.plain)
	s.DependsOn = cond
	if raw.Required != nil && !*raw.Required {
		s.Optional = true
	}
	return nil
}
