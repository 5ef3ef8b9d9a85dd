package catalog

import (
	"fmt"

	"formbuilder-service/internal/domain"
)

// Condition blocks of the special conditions question.
const (
	ConditionGroup     = "condition"
	MaxConditionBlocks = 10
)

// depositCurrencySlots is the number of currency option selects per instalment.
const depositCurrencySlots = 3

var dueDateChoices = []string{"immediately", "within_days", "on_settlement", domain.DueDateCustom}

func offerDefinitions() []domain.QuestionDefinition {
	return []domain.QuestionDefinition{
		{
			Type:  domain.TypeSpecifyListing,
			Label: "Specify listing",
			Forms: offerOnly,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("listingSource", "Listings offered", "all_listings", "selected_listings"),
				when(multi("listings", "Selected listings"), "listingSource", "selected_listings"),
			},
			GenerateProperties: listingProperties("Which listing is this offer for?"),
		},
		{
			Type:  domain.TypePurchasePrice,
			Label: "Purchase price",
			Forms: offerOnly,
			SetupQuestions: append(currencyStipulation("", 0),
				optional(number("minimumPrice", "Minimum price"))),
			GenerateProperties: func(a domain.Answers) map[string]any {
				props := map[string]any{"label": "Purchase price", "currency": currencyProperties(a, "", 0)}
				if v, ok := a["minimumPrice"]; ok {
					props["minimum"] = v
				}
				return props
			},
		},
		{
			Type:               domain.TypeDeposit,
			Label:              "Deposit",
			Forms:              offerOnly,
			SetupQuestions:     depositSpecs(),
			GenerateProperties: depositProperties,
		},
		{
			Type:  domain.TypeSubjectToLoan,
			Label: "Subject to loan",
			Forms: offerOnly,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("allowLoanCondition", "Allow a subject to loan condition", "yes", "no"),
				when(role(radio("loanDueDate", "Loan approval due", dueDateChoices...), domain.RoleDueDate),
					"allowLoanCondition", "yes"),
				when(number("loanDueDays", "Days until loan approval"), "loanDueDate", "within_days"),
				dueDateConfig("loanDueDateConfig", "loanDueDate"),
				when(radio("lenderDetails", "Lender details", "required", "optional", "hidden"),
					"allowLoanCondition", "yes"),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				allowed := answerString(a, "allowLoanCondition") == "yes"
				props := map[string]any{"label": "Is your offer subject to loan?", "allowed": allowed}
				if allowed {
					props["due"] = dueDateProperties(a, "loanDueDate", "loanDueDays", "loanDueDateConfig")
					props["lenderDetails"] = answerString(a, "lenderDetails")
				}
				return props
			},
		},
		{
			Type:  domain.TypeSettlementDate,
			Label: "Settlement date",
			Forms: offerOnly,
			SetupQuestions: []domain.SetupQuestionSpec{
				role(radio("settlementType", "Settlement date", "submitter_chooses", "within_days", domain.DueDateCustom), domain.RoleDueDate),
				when(number("settlementDays", "Days until settlement"), "settlementType", "within_days"),
				dueDateConfig("settlementConfig", "settlementType"),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				return map[string]any{
					"label":      "Settlement date",
					"settlement": dueDateProperties(a, "settlementType", "settlementDays", "settlementConfig"),
				}
			},
		},
		{
			Type:  domain.TypeSpecialConditions,
			Label: "Special conditions",
			Forms: offerOnly,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("allowCustomConditions", "Let submitters add their own conditions", "yes", "no"),
				conditionField(text("name", "Condition name"), true),
				conditionField(domain.SetupQuestionSpec{ID: "details", Kind: domain.KindTextArea, Label: "Details"}, false),
				conditionField(domain.SetupQuestionSpec{ID: "attachments", Kind: domain.KindFileUpload, Label: "Attachments"}, false),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				conditions := make([]map[string]any, 0)
				for n := 1; n <= MaxConditionBlocks; n++ {
					name := answerString(a, domain.RepeatID(ConditionGroup, n, "name"))
					if name == "" {
						break
					}
					c := map[string]any{"name": name}
					if details := answerString(a, domain.RepeatID(ConditionGroup, n, "details")); details != "" {
						c["details"] = details
					}
					if files, ok := a[domain.RepeatID(ConditionGroup, n, "attachments")]; ok {
						c["attachments"] = files
					}
					conditions = append(conditions, c)
				}
				return map[string]any{
					"label":       "Special conditions",
					"conditions":  conditions,
					"allowCustom": answerString(a, "allowCustomConditions") == "yes",
				}
			},
		},
		{
			Type:  domain.TypePurchaseAgreement,
			Label: "Purchase agreement",
			Forms: offerOnly,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("contractRequirement", "Signed purchase agreement is", "required", "optional"),
				optional(domain.SetupQuestionSpec{ID: "template", Kind: domain.KindFileUpload, Label: "Agreement template"}),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				props := map[string]any{"label": "Attach the purchase agreement"}
				if tpl, ok := a["template"]; ok {
					props["template"] = tpl
				}
				return props
			},
		},
	}
}

// conditionField makes spec a field of the repeating condition block. The
// name field is enforced by the block rule rather than as a plain required field.
func conditionField(spec domain.SetupQuestionSpec, gate bool) domain.SetupQuestionSpec {
	spec.Optional = true
	spec.Repeat = &domain.Repeat{Group: ConditionGroup, Max: MaxConditionBlocks, Gate: gate}
	return spec
}

// depositSpecs declares every deposit field once per instalment, with the
// two instalments interleaved field by field.
func depositSpecs() []domain.SetupQuestionSpec {
	first, second := depositInstalment(1), depositInstalment(2)
	out := make([]domain.SetupQuestionSpec, 0, 1+len(first)+len(second))
	out = append(out, radio(domain.InstalmentsKey, "Deposit instalments",
		domain.InstalmentsSingle, domain.InstalmentsBuyerChoice, domain.InstalmentsAlwaysTwo))
	for i := range first {
		out = append(out, first[i], second[i])
	}
	return out
}

func depositInstalment(n int) []domain.SetupQuestionSpec {
	prefix := fmt.Sprintf("deposit%d_", n)
	due := prefix + "dueDate"
	specs := []domain.SetupQuestionSpec{
		radio(prefix+"amountType", "Deposit amount", "fixed", "percentage", "submitter"),
		when(number(prefix+"amount", "Amount"), prefix+"amountType", "fixed", "percentage"),
	}
	specs = append(specs, currencyStipulation(prefix, depositCurrencySlots)...)
	specs = append(specs,
		role(radio(due, "Deposit due", dueDateChoices...), domain.RoleDueDate),
		when(number(prefix+"dueDays", "Days until due"), due, "within_days"),
		dueDateConfig(prefix+"dueDateConfig", due),
	)
	for i := range specs {
		specs[i].Instalment = n
		if n > 1 && specs[i].DependsOn == nil {
			specs[i].DependsOn = domain.When(domain.InstalmentsKey, domain.InstalmentsBuyerChoice, domain.InstalmentsAlwaysTwo)
		}
	}
	return specs
}

func depositProperties(a domain.Answers) map[string]any {
	mode := answerString(a, domain.InstalmentsKey)
	count := 2
	if mode == domain.InstalmentsSingle {
		count = 1
	}
	deposits := make([]map[string]any, 0, count)
	for n := 1; n <= count; n++ {
		prefix := fmt.Sprintf("deposit%d_", n)
		d := map[string]any{
			"amountType": answerString(a, prefix+"amountType"),
			"currency":   currencyProperties(a, prefix, depositCurrencySlots),
			"due":        dueDateProperties(a, prefix+"dueDate", prefix+"dueDays", prefix+"dueDateConfig"),
		}
		if v, ok := a[prefix+"amount"]; ok {
			d["amount"] = v
		}
		deposits = append(deposits, d)
	}
	return map[string]any{
		"label":        "Deposit",
		"instalments":  count,
		"buyerChooses": mode == domain.InstalmentsBuyerChoice,
		"deposits":     deposits,
	}
}
