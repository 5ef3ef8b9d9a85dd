package domain

import (
	"strconv"
	"strings"
)

// FormKind distinguishes the two form families a question can belong to.
type FormKind string

const (
	FormKindLead  FormKind = "lead"
	FormKindOffer FormKind = "offer"
)

// QuestionType identifies a reusable question kind in the catalog.
type QuestionType string

// SetupKind is the input control used for a setup question.
type SetupKind string

const (
	KindRadio             SetupKind = "radio"
	KindSelect            SetupKind = "select"
	KindText              SetupKind = "text"
	KindNumber            SetupKind = "number"
	KindMultiChoiceSelect SetupKind = "multiChoiceSelect"
	KindCurrencyOptions   SetupKind = "currencyOptions"
	KindFileUpload        SetupKind = "fileUpload"
	KindOptionList        SetupKind = "optionList"
	KindTextArea          SetupKind = "textArea"
	KindDueDateConfig     SetupKind = "dueDateConfig"
)

// SetupRole tags a setup question for cross-field validation.
type SetupRole string

const (
	RoleNone                SetupRole = ""
	RoleCurrencyStipulation SetupRole = "currencyStipulation"
	RoleCurrencyOption      SetupRole = "currencyOption"
	RoleDueDate             SetupRole = "dueDate"
	RoleDueDateConfig       SetupRole = "dueDateConfig"
	RoleOptionList          SetupRole = "optionList"
)

// Answer keys and values with a meaning shared across question types.
const (
	CurrencyStipulationOptions = "options"
	DueDateCustom              = "custom"

	InstalmentsKey         = "instalments"
	InstalmentsSingle      = "single"
	InstalmentsBuyerChoice = "buyer_choice"
	InstalmentsAlwaysTwo   = "two_always"
)

// Answers maps a setup question id to its current value.
type Answers map[string]any

// Option is a selectable value of a radio/select setup question.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Repeat marks a setup question as a template inside a repeating block.
type Repeat struct {
	Group string `json:"group"`
	Max   int    `json:"max"`
	// Gate marks the field that must be filled before the next block is revealed.
	Gate bool `json:"gate,omitempty"`
}

// SetupQuestionSpec describes one configuration-time field of a question type.
type SetupQuestionSpec struct {
	ID         string     `json:"id"`
	Kind       SetupKind  `json:"kind"`
	Label      string     `json:"label,omitempty"`
	Options    []Option   `json:"options,omitempty"`
	Optional   bool       `json:"optional,omitempty"`
	DependsOn  *Condition `json:"dependsOn,omitempty"`
	Role       SetupRole  `json:"role,omitempty"`
	Instalment int        `json:"instalment,omitempty"`
	Repeat     *Repeat    `json:"repeat,omitempty"`
	// Block is set on planner-expanded instances of a Repeat template.
	Block int `json:"block,omitempty"`
}

// RepeatID is the id of a field instance inside block n of a repeating group.
func RepeatID(group string, block int, field string) string {
	return group + "_" + strconv.Itoa(block) + "_" + field
}

// Required reports whether the spec must be answered when visible.
func (s SetupQuestionSpec) Required() bool {
	return !s.Optional
}

// QuestionDefinition is the static catalog entry for a question type.
type QuestionDefinition struct {
	Type               QuestionType
	Label              string
	Forms              []FormKind
	SetupQuestions     []SetupQuestionSpec
	GenerateProperties func(Answers) map[string]any
}

// AvailableIn reports whether the definition can be added to a form of the given kind.
func (d QuestionDefinition) AvailableIn(kind FormKind) bool {
	for _, k := range d.Forms {
		if k == kind {
			return true
		}
	}
	return false
}

// QuestionInstance is a persisted question on a form.
type QuestionInstance struct {
	ID          string         `json:"id"`
	FormID      string         `json:"formId"`
	Type        QuestionType   `json:"type"`
	Order       int            `json:"order"`
	Required    bool           `json:"required"`
	SetupConfig map[string]any `json:"setupConfig,omitempty"`
	UIConfig    map[string]any `json:"uiConfig,omitempty"`
}

// Direction is the way a question or page break moves along the form.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// PageBreak splits the form after the question whose order equals BreakIndex.
type PageBreak struct {
	ID         string `json:"id"`
	FormID     string `json:"formId"`
	BreakIndex int    `json:"breakIndex"`
}

// Layout is a snapshot of a form's questions and page breaks, both sorted.
type Layout struct {
	FormID     string             `json:"formId"`
	Questions  []QuestionInstance `json:"questions"`
	PageBreaks []PageBreak        `json:"pageBreaks"`
}

// Pages splits the layout questions into submission pages.
func (l Layout) Pages() [][]QuestionInstance {
	pages := make([][]QuestionInstance, 0, len(l.PageBreaks)+1)
	current := make([]QuestionInstance, 0)
	next := 0
	for _, q := range l.Questions {
		current = append(current, q)
		if next < len(l.PageBreaks) && l.PageBreaks[next].BreakIndex == q.Order {
			pages = append(pages, current)
			current = make([]QuestionInstance, 0)
			next++
		}
	}
	if len(current) > 0 || len(pages) == 0 {
		pages = append(pages, current)
	}
	return pages
}

// Attachment is an opaque reference to an uploaded file.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// DueDateConfig is the structured answer of a custom due-date builder.
type DueDateConfig struct {
	TimeConstraint []string `json:"timeConstraint,omitempty"`
	Number         []string `json:"number,omitempty"`
	TimeUnit       []string `json:"timeUnit,omitempty"`
	Preposition    []string `json:"preposition,omitempty"`
	TriggerEvent   []string `json:"triggerEvent,omitempty"`
}

// HasSelection reports whether any of the five dimensions holds a non-blank value.
func (c DueDateConfig) HasSelection() bool {
	for _, dim := range [][]string{c.TimeConstraint, c.Number, c.TimeUnit, c.Preposition, c.TriggerEvent} {
		for _, v := range dim {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
	}
	return false
}
