package engine

import (
	"fmt"

	"formbuilder-service/internal/domain"
)

// Definitions looks up question definitions by type.
type Definitions interface {
	Get(typeID domain.QuestionType) (domain.QuestionDefinition, bool)
}

// Compiled is the immutable configuration produced from a completed setup.
type Compiled struct {
	Type        domain.QuestionType `json:"type"`
	SetupConfig map[string]any      `json:"setupConfig"`
	UIConfig    map[string]any      `json:"uiConfig"`
	// RequiredOverride is nil when the setup does not decide the required flag.
	RequiredOverride *bool `json:"requiredOverride,omitempty"`
}

// Compiler turns validated setup answers into question configuration.
type Compiler struct {
	defs Definitions
}

func NewCompiler(defs Definitions) *Compiler {
	return &Compiler{defs: defs}
}

// Definition returns the catalog entry for typeID.
func (c *Compiler) Definition(typeID domain.QuestionType) (domain.QuestionDefinition, error) {
	def, ok := c.defs.Get(typeID)
	if !ok {
		return domain.QuestionDefinition{}, fmt.Errorf("%s: %w", typeID, domain.ErrUnknownQuestionType)
	}
	return def, nil
}

// Check plans and validates answers for typeID.
func (c *Compiler) Check(typeID domain.QuestionType, answers domain.Answers) ([]domain.SetupQuestionSpec, Result, error) {
	def, err := c.Definition(typeID)
	if err != nil {
		return nil, Result{}, err
	}
	plan := Plan(def.SetupQuestions, answers, typeID)
	return plan, Validate(plan, answers, typeID), nil
}

// Compile maps answers that already passed Validate to a configuration.
// Answers to questions outside the visible plan are dropped.
func (c *Compiler) Compile(typeID domain.QuestionType, answers domain.Answers) (Compiled, error) {
	def, err := c.Definition(typeID)
	if err != nil {
		return Compiled{}, err
	}
	setup := VisibleAnswers(Plan(def.SetupQuestions, answers, typeID), answers)

	ui := map[string]any{}
	if def.GenerateProperties != nil {
		for k, v := range def.GenerateProperties(setup) {
			ui[k] = v
		}
	}
	return Compiled{
		Type:             typeID,
		SetupConfig:      map[string]any(setup),
		UIConfig:         ui,
		RequiredOverride: DeriveRequired(typeID, setup),
	}, nil
}

// Build runs plan, validate and compile in one step.
func (c *Compiler) Build(typeID domain.QuestionType, answers domain.Answers) (Compiled, error) {
	_, res, err := c.Check(typeID, answers)
	if err != nil {
		return Compiled{}, err
	}
	if !res.OK {
		return Compiled{}, res.Err()
	}
	return c.Compile(typeID, answers)
}

// DeriveRequired applies the required-flag table of typeID; the first rule
// whose key is answered with a documented value decides.
func DeriveRequired(typeID domain.QuestionType, answers domain.Answers) *bool {
	for _, r := range handlers[typeID].required {
		v, ok := answers[r.Key]
		if !ok {
			continue
		}
		if required, known := r.Values[asString(v)]; known {
			return &required
		}
	}
	return nil
}
