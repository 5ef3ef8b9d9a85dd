package catalog

import "formbuilder-service/internal/domain"

func leadDefinitions() []domain.QuestionDefinition {
	return []domain.QuestionDefinition{
		{
			Type:  domain.TypeListingInterest,
			Label: "Listing interest",
			Forms: leadOnly,
			SetupQuestions: []domain.SetupQuestionSpec{
				radio("listingSource", "Listings offered", "all_listings", "selected_listings"),
				when(multi("listings", "Selected listings"), "listingSource", "selected_listings"),
			},
			GenerateProperties: listingProperties("Which listing are you interested in?"),
		},
	}
}

func listingProperties(label string) func(domain.Answers) map[string]any {
	return func(a domain.Answers) map[string]any {
		props := map[string]any{"label": label, "source": answerString(a, "listingSource")}
		if ids := answerList(a, "listings"); len(ids) > 0 {
			props["listings"] = ids
		}
		return props
	}
}
