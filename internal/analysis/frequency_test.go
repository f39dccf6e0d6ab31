package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

// sampleForm: category 1 holds a radio question directly and a subcategory
// with a written and a checkbox question; category 2 holds one written
// question.
func sampleForm() Form {
	infra := Ref{ID: 1, Name: "Infraestrutura"}
	benches := &Ref{ID: 10, Name: "Bancos"}
	return Form{
		Questions: []Question{
			{ID: 100, Name: "Iluminação", Kind: KindOptionsRadio, Category: infra, Options: []Option{
				{ID: 1000, Text: "Boa"}, {ID: 1001, Text: "Ruim"},
			}},
			{ID: 101, Name: "Quantidade de bancos", Kind: KindWritten, Category: infra, Subcategory: benches},
			{ID: 102, Name: "Materiais", Kind: KindOptionsCheckbox, Category: infra, Subcategory: benches, Options: []Option{
				{ID: 1020, Text: "Madeira"}, {ID: 1021, Text: "Concreto"}, {ID: 1022, Text: "Metal"},
			}},
			{ID: 200, Name: "Observações", Kind: KindWritten, Category: Ref{ID: 2, Name: "Geral"}},
		},
	}
}

func TestAggregateTreeShape(t *testing.T) {
	report := Aggregate(sampleForm(), Submission{})

	require.Len(t, report.Categories, 2)
	infra := report.Categories[0]
	assert.Equal(t, "Infraestrutura", infra.Name)
	require.Len(t, infra.Questions, 1)
	assert.Equal(t, uint(100), infra.Questions[0].ID)
	require.Len(t, infra.Subcategories, 1)
	assert.Equal(t, "Bancos", infra.Subcategories[0].Name)
	require.Len(t, infra.Subcategories[0].Questions, 2)
	assert.Equal(t, "Geral", report.Categories[1].Name)
}

func TestAggregateSeedsOptions(t *testing.T) {
	report := Aggregate(sampleForm(), Submission{})

	radio := report.Categories[0].Questions[0]
	assert.Equal(t, []Frequency{{Text: "Boa"}, {Text: "Ruim"}}, radio.Responses)
	assert.False(t, radio.Answered())

	written := report.Categories[1].Questions[0]
	assert.Empty(t, written.Responses)
	assert.False(t, written.Answered())
}

func TestAggregateCounts(t *testing.T) {
	sub := Submission{
		Responses: []Response{
			{QuestionID: 101, Text: "4"},
			{QuestionID: 101, Text: "9"},
			{QuestionID: 200, Text: ""},
			{QuestionID: 999, Text: "orphan"},
		},
		ResponseOptions: []ResponseOption{
			{QuestionID: 100, OptionID: uintPtr(1001)},
			{QuestionID: 102, OptionID: uintPtr(1020)},
			{QuestionID: 102, OptionID: uintPtr(1022)},
			{QuestionID: 102, OptionID: nil},
			{QuestionID: 102, OptionID: uintPtr(5555)},
			{QuestionID: 100, OptionID: uintPtr(1021)},
		},
	}
	report := Aggregate(sampleForm(), sub)
	infra := report.Categories[0]

	assert.Equal(t, []Frequency{{Text: "Boa"}, {Text: "Ruim", Frequency: 1}}, infra.Questions[0].Responses)

	benches := infra.Subcategories[0]
	assert.Equal(t, []Frequency{{Text: "4", Frequency: 1}}, benches.Questions[0].Responses)
	assert.Equal(t, []Frequency{
		{Text: "Madeira", Frequency: 1},
		{Text: "Concreto"},
		{Text: "Metal", Frequency: 1},
	}, benches.Questions[1].Responses)

	assert.Empty(t, report.Categories[1].Questions[0].Responses)
}

func TestAggregateDuplicateOptionTexts(t *testing.T) {
	form := Form{Questions: []Question{{
		ID: 1, Name: "q", Kind: KindOptionsCheckbox, Category: Ref{ID: 1},
		Options: []Option{{ID: 1, Text: "Sim"}, {ID: 2, Text: "Sim"}, {ID: 3, Text: "Não"}},
	}}}
	sub := Submission{ResponseOptions: []ResponseOption{
		{QuestionID: 1, OptionID: uintPtr(1)},
		{QuestionID: 1, OptionID: uintPtr(2)},
	}}

	report := Aggregate(form, sub)
	assert.Equal(t, []Frequency{{Text: "Sim", Frequency: 2}, {Text: "Não"}}, report.Categories[0].Questions[0].Responses)
}

func TestAggregateDeduplicatesQuestions(t *testing.T) {
	form := sampleForm()
	form.Questions = append(form.Questions, form.Questions[0])

	report := Aggregate(form, Submission{})
	assert.Len(t, report.Categories[0].Questions, 1)
}

func TestAggregateAttachesCalculations(t *testing.T) {
	form := sampleForm()
	form.Calculations = []Calculation{
		{ID: 1, Name: "Total", Kind: CalcSum, CategoryID: 1, QuestionIDs: []uint{100}},
		{ID: 2, Name: "Bancos", Kind: CalcSum, CategoryID: 1, SubcategoryID: uintPtr(10), QuestionIDs: []uint{101}},
		{ID: 3, Name: "Sem escopo", Kind: CalcSum, CategoryID: 77, QuestionIDs: []uint{101}},
	}
	sub := Submission{Responses: []Response{{QuestionID: 101, Text: "12"}}}

	report := Aggregate(form, sub)
	infra := report.Categories[0]
	require.Len(t, infra.Calculations, 1)
	assert.Equal(t, "Total", infra.Calculations[0].Name)

	require.Len(t, infra.Subcategories[0].Calculations, 1)
	calc := infra.Subcategories[0].Calculations[0]
	require.NotNil(t, calc.Value)
	assert.Equal(t, 12.0, *calc.Value)

	assert.Empty(t, report.Categories[1].Calculations)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		qType, optType string
		want           QuestionKind
		wantErr        bool
	}{
		{"WRITTEN", "", KindWritten, false},
		{"OPTIONS", "RADIO", KindOptionsRadio, false},
		{"OPTIONS", "CHECKBOX", KindOptionsCheckbox, false},
		{"OPTIONS", "", 0, true},
		{"MAP", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.qType+"/"+tt.optType, func(t *testing.T) {
			got, err := KindOf(tt.qType, tt.optType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
