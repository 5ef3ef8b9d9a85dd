package engine

import "formbuilder-service/internal/domain"

// Plan returns the setup questions to display for the given answers, in
// display order and without duplicates. A question whose condition refers
// to another question of the same definition is only visible while that
// question is visible itself, so parents must be declared before children.
func Plan(specs []domain.SetupQuestionSpec, answers domain.Answers, typeID domain.QuestionType) []domain.SetupQuestionSpec {
	declared := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if spec.Repeat == nil {
			declared[spec.ID] = struct{}{}
		}
	}

	visible := make(map[string]bool, len(specs))
	plan := make([]domain.SetupQuestionSpec, 0, len(specs))
	emit := func(spec domain.SetupQuestionSpec) {
		if visible[spec.ID] {
			return
		}
		visible[spec.ID] = true
		plan = append(plan, spec)
	}
	met := func(cond *domain.Condition) bool {
		if cond == nil {
			return true
		}
		if _, ok := declared[cond.QuestionID]; ok && !visible[cond.QuestionID] {
			return false
		}
		return IsVisible(cond, answers)
	}

	for i := 0; i < len(specs); {
		spec := specs[i]
		if spec.Repeat == nil {
			if met(spec.DependsOn) {
				emit(spec)
			}
			i++
			continue
		}

		end := i + 1
		for end < len(specs) && specs[end].Repeat != nil && specs[end].Repeat.Group == spec.Repeat.Group {
			end++
		}
		templates := make([]domain.SetupQuestionSpec, 0, end-i)
		for _, t := range specs[i:end] {
			if met(t.DependsOn) {
				templates = append(templates, t)
			}
		}
		for _, inst := range expandBlocks(templates, answers) {
			emit(inst)
		}
		i = end
	}

	if h, ok := handlers[typeID]; ok && h.arrange != nil {
		plan = h.arrange(plan, answers)
	}
	return plan
}

// expandBlocks reveals block n of a repeating group only once the gate
// field of block n-1 is filled.
func expandBlocks(templates []domain.SetupQuestionSpec, answers domain.Answers) []domain.SetupQuestionSpec {
	if len(templates) == 0 {
		return nil
	}
	group := templates[0].Repeat.Group
	limit := templates[0].Repeat.Max
	if limit < 1 {
		limit = 1
	}
	gate := ""
	for _, t := range templates {
		if t.Repeat.Gate {
			gate = t.ID
			break
		}
	}

	out := make([]domain.SetupQuestionSpec, 0, len(templates))
	for n := 1; n <= limit; n++ {
		if n > 1 && (gate == "" || isEmpty(answers[domain.RepeatID(group, n-1, gate)])) {
			break
		}
		for _, t := range templates {
			inst := t
			inst.ID = domain.RepeatID(group, n, t.ID)
			inst.Block = n
			if n > 1 {
				inst.Optional = true
			}
			out = append(out, inst)
		}
	}
	return out
}

// VisibleAnswers restricts answers to the questions of a plan.
func VisibleAnswers(plan []domain.SetupQuestionSpec, answers domain.Answers) domain.Answers {
	out := make(domain.Answers, len(plan))
	for _, spec := range plan {
		if v, ok := answers[spec.ID]; ok && !isEmpty(v) {
			out[spec.ID] = v
		}
	}
	return out
}
