package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder-service/internal/catalog"
	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/engine"
)

func TestDeriveRequiredIdentification(t *testing.T) {
	cases := []struct {
		answer string
		want   *bool
	}{
		{answer: "mandatory", want: boolPtr(true)},
		{answer: "optional", want: boolPtr(false)},
		{answer: "no", want: boolPtr(false)},
		{answer: "undocumented", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.answer, func(t *testing.T) {
			got := engine.DeriveRequired(domain.TypeIdentification, domain.Answers{"collectIdentification": tc.answer})
			assert.Equal(t, tc.want, got)
		})
	}

	assert.Nil(t, engine.DeriveRequired(domain.TypeIdentification, domain.Answers{}))
	assert.Nil(t, engine.DeriveRequired(domain.TypeName, domain.Answers{"requirement": "mandatory"}))
}

func boolPtr(v bool) *bool { return &v }

func TestRequiredRulesCoverEveryDocumentedValue(t *testing.T) {
	reg := catalog.Default()
	for _, typeID := range []domain.QuestionType{
		domain.TypeIdentification, domain.TypePhone, domain.TypeMessageToAgent, domain.TypePurchaseAgreement,
	} {
		def, ok := reg.Get(typeID)
		require.True(t, ok)
		for _, r := range engine.RequiredRules(typeID) {
			var options []domain.Option
			for _, spec := range def.SetupQuestions {
				if spec.ID == r.Key {
					options = spec.Options
				}
			}
			require.NotEmpty(t, options, "%s has no setup question %s", typeID, r.Key)
			for _, opt := range options {
				_, known := r.Values[opt.Value]
				assert.True(t, known, "%s.%s=%s has no required mapping", typeID, r.Key, opt.Value)
			}
		}
	}
}

func TestCompileDropsHiddenAnswers(t *testing.T) {
	c := engine.NewCompiler(catalog.Default())

	got, err := c.Build(domain.TypeIdentification, domain.Answers{
		"collectIdentification": "no",
		"idTypes":               []any{"passport"},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"collectIdentification": "no"}, got.SetupConfig)
	assert.Equal(t, false, got.UIConfig["collect"])
	require.NotNil(t, got.RequiredOverride)
	assert.False(t, *got.RequiredOverride)
}

func TestBuildReturnsValidationError(t *testing.T) {
	c := engine.NewCompiler(catalog.Default())

	_, err := c.Build(domain.TypeCustomSingleChoice, domain.Answers{"label": "Pick", "options": []string{"One"}})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "options", verr.Field)
	assert.Equal(t, domain.KindValidation, domain.ErrorKind(err))
}

func TestBuildUnknownType(t *testing.T) {
	c := engine.NewCompiler(catalog.Default())

	_, err := c.Build("doesNotExist", domain.Answers{})

	assert.ErrorIs(t, err, domain.ErrUnknownQuestionType)
}

func TestCompileDepositProperties(t *testing.T) {
	c := engine.NewCompiler(catalog.Default())

	got, err := c.Build(domain.TypeDeposit, fullDeposit())

	require.NoError(t, err)
	assert.Nil(t, got.RequiredOverride)
	assert.Equal(t, 2, got.UIConfig["instalments"])
	deposits, ok := got.UIConfig["deposits"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, deposits, 2)
	assert.Equal(t, map[string]any{"mode": "options", "currencies": []string{"AUD", "USD"}}, deposits[0]["currency"])
	assert.Equal(t, map[string]any{"mode": "fixed", "currencies": []string{"AUD"}}, deposits[1]["currency"])
}

func TestCompileIsDeterministic(t *testing.T) {
	c := engine.NewCompiler(catalog.Default())
	answers := domain.Answers{"allowCustomConditions": "yes", "condition_1_name": "Finance", "condition_1_details": "21 days"}

	first, err := c.Build(domain.TypeSpecialConditions, answers)
	require.NoError(t, err)
	second, err := c.Build(domain.TypeSpecialConditions, answers)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []map[string]any{{"name": "Finance", "details": "21 days"}}, first.UIConfig["conditions"])
}
