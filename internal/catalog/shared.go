package catalog

import "formbuilder-service/internal/domain"

// sharedDefinitions are the contact and custom questions of both form kinds.
func sharedDefinitions() []domain.QuestionDefinition {
	return []domain.QuestionDefinition{
		{
			Type:  domain.TypeSubmitterRole,
			Label: "Submitter role",
			Forms: bothForms,
			SetupQuestions: []domain.SetupQuestionSpec{
				multi("roles", "Roles offered", "buyer", "buyer_agent", "lawyer", "other"),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				return map[string]any{"label": "I am the", "options": answerList(a, "roles")}
			},
		},
		{
			Type:  domain.TypeName,
			Label: "Name",
			Forms: bothForms,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("nameFormat", "Name format", "full_name", "first_and_last"),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				fields := []string{"fullName"}
				if answerString(a, "nameFormat") == "first_and_last" {
					fields = []string{"firstName", "lastName"}
				}
				return map[string]any{"label": "Name", "fields": fields}
			},
		},
		{
			Type:  domain.TypeEmail,
			Label: "Email",
			Forms: bothForms,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("confirmEmail", "Ask to confirm the email", "yes", "no"),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				return map[string]any{"label": "Email", "confirm": answerString(a, "confirmEmail") == "yes"}
			},
		},
		{
			Type:  domain.TypePhone,
			Label: "Phone",
			Forms: bothForms,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("requirement", "Phone number is", "mandatory", "optional"),
				optional(selectOne("countryCode", "Default country code", "+61", "+1", "+44", "+64")),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				props := map[string]any{"label": "Phone"}
				if code := answerString(a, "countryCode"); code != "" {
					props["defaultCountryCode"] = code
				}
				return props
			},
		},
		{
			Type:  domain.TypeIdentification,
			Label: "Identification",
			Forms: bothForms,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("collectIdentification", "Collect identification", "mandatory", "optional", "no"),
				when(multi("idTypes", "Accepted documents", "passport", "drivers_licence", "national_id"),
					"collectIdentification", "mandatory", "optional"),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				collect := answerString(a, "collectIdentification")
				props := map[string]any{"label": "Identification", "collect": collect != "no"}
				if collect != "no" {
					props["idTypes"] = answerList(a, "idTypes")
				}
				return props
			},
		},
		{
			Type:  domain.TypeMessageToAgent,
			Label: "Message to agent",
			Forms: bothForms,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("requirement", "Message is", "mandatory", "optional"),
				optional(text("prompt", "Prompt shown to the submitter")),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				label := answerString(a, "prompt")
				if label == "" {
					label = "Message to agent"
				}
				return map[string]any{"label": label, "multiline": true}
			},
		},
		{
			Type:  domain.TypeCustomText,
			Label: "Custom text question",
			Forms: bothForms,
			SetupQuestions: []domain.SetupQuestionSpec{
				text("label", "Question"),
				radio("multiline", "Answer length", "short", "long"),
			},
			GenerateProperties: func(a domain.Answers) map[string]any {
				return map[string]any{
					"label":     answerString(a, "label"),
					"multiline": answerString(a, "multiline") == "long",
				}
			},
		},
		{
			Type:  domain.TypeCustomSingleChoice,
			Label: "Custom single choice",
			Forms: bothForms,
			SetupQuestions: []domain.SetupQuestionSpec{
				text("label", "Question"),
				optionList("options"),
			},
			GenerateProperties: choiceProperties(false),
		},
		{
			Type:  domain.TypeCustomMultiChoice,
			Label: "Custom multiple choice",
			Forms: bothForms,
			SetupQuestions: []domain.SetupQuestionSpec{
				text("label", "Question"),
				optionList("options"),
				optional(number("maxSelections", "Maximum selections")),
			},
			GenerateProperties: choiceProperties(true),
		},
	}
}

func optionList(id string) domain.SetupQuestionSpec {
	return domain.SetupQuestionSpec{ID: id, Kind: domain.KindOptionList, Label: "Options", Role: domain.RoleOptionList}
}

func choiceProperties(multiple bool) func(domain.Answers) map[string]any {
	return func(a domain.Answers) map[string]any {
		props := map[string]any{
			"label":    answerString(a, "label"),
			"options":  dedupe(answerList(a, "options")),
			"multiple": multiple,
		}
		if v, ok := a["maxSelections"]; ok && multiple {
			props["maxSelections"] = v
		}
		return props
	}
}
