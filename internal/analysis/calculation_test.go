package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numericForm() Form {
	cat := Ref{ID: 1, Name: "Usuários"}
	return Form{Questions: []Question{
		{ID: 1, Name: "Adultos", Kind: KindWritten, Category: cat},
		{ID: 2, Name: "Crianças", Kind: KindWritten, Category: cat},
		{ID: 3, Name: "Faixa", Kind: KindOptionsCheckbox, Category: cat, Options: []Option{
			{ID: 30, Text: "5"}, {ID: 31, Text: "10"}, {ID: 32, Text: "muitos"},
		}},
		{ID: 4, Name: "Adultos", Kind: KindWritten, Category: cat},
	}}
}

func evaluate(calc Calculation, sub Submission) CalculationResult {
	form := numericForm()
	return Evaluate(calc, questionsByID(form), CollectAnswers(form, sub))
}

func TestEvaluateSum(t *testing.T) {
	sub := Submission{
		Responses: []Response{{QuestionID: 1, Text: " 30 "}, {QuestionID: 2, Text: "abc"}},
		ResponseOptions: []ResponseOption{
			{QuestionID: 3, OptionID: uintPtr(30)},
			{QuestionID: 3, OptionID: uintPtr(31)},
			{QuestionID: 3, OptionID: uintPtr(32)},
		},
	}
	got := evaluate(Calculation{Kind: CalcSum, QuestionIDs: []uint{1, 2, 3, 99}}, sub)

	require.NotNil(t, got.Value)
	assert.Equal(t, 45.0, *got.Value)
	assert.Equal(t, "45", got.Display())
}

func TestEvaluateAverage(t *testing.T) {
	tests := []struct {
		name string
		sub  Submission
		want float64
	}{
		{"no answers", Submission{}, 0},
		{"only junk", Submission{Responses: []Response{{QuestionID: 1, Text: "NaN"}, {QuestionID: 2, Text: "Inf"}}}, 0},
		{"mixed", Submission{
			Responses:       []Response{{QuestionID: 1, Text: "7"}},
			ResponseOptions: []ResponseOption{{QuestionID: 3, OptionID: uintPtr(30)}, {QuestionID: 3, OptionID: nil}},
		}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluate(Calculation{Kind: CalcAverage, QuestionIDs: []uint{1, 2, 3}}, tt.sub)
			require.NotNil(t, got.Value)
			assert.Equal(t, tt.want, *got.Value)
		})
	}
}

func TestEvaluatePercentage(t *testing.T) {
	sub := Submission{Responses: []Response{{QuestionID: 1, Text: "30"}, {QuestionID: 2, Text: "70"}}}
	got := evaluate(Calculation{Kind: CalcPercentage, QuestionIDs: []uint{1, 2}}, sub)

	require.Len(t, got.Percentages, 2)
	assert.Equal(t, "30.00%", got.Percentages[0].Display)
	assert.Equal(t, 30.0, got.Percentages[0].Percentage)
	assert.Equal(t, "70.00%", got.Percentages[1].Display)
	assert.Equal(t, "Adultos: 30.00%; Crianças: 70.00%", got.Display())
	assert.Nil(t, got.Value)
}

func TestEvaluatePercentageZeroTotal(t *testing.T) {
	sub := Submission{Responses: []Response{{QuestionID: 1, Text: "0"}, {QuestionID: 2, Text: "0"}}}
	got := evaluate(Calculation{Kind: CalcPercentage, QuestionIDs: []uint{1, 2}}, sub)

	require.Len(t, got.Percentages, 2)
	for _, line := range got.Percentages {
		assert.Equal(t, "0%", line.Display)
		assert.Zero(t, line.Percentage)
	}
}

func TestEvaluatePercentageKeysByQuestion(t *testing.T) {
	sub := Submission{
		Responses: []Response{{QuestionID: 1, Text: "25"}, {QuestionID: 4, Text: "25"}},
		ResponseOptions: []ResponseOption{
			{QuestionID: 3, OptionID: uintPtr(30)},
			{QuestionID: 3, OptionID: uintPtr(31)},
		},
	}
	got := evaluate(Calculation{Kind: CalcPercentage, QuestionIDs: []uint{1, 4, 3}}, sub)

	require.Len(t, got.Percentages, 3)
	assert.Equal(t, uint(1), got.Percentages[0].QuestionID)
	assert.Equal(t, uint(4), got.Percentages[1].QuestionID)
	assert.Equal(t, "Adultos", got.Percentages[1].QuestionName)

	// checkbox keeps its last value, the denominator keeps every value
	assert.Equal(t, 10.0, got.Percentages[2].Value)
	assert.Equal(t, "15.38%", got.Percentages[2].Display)
}

func TestEvaluatePercentageEmpty(t *testing.T) {
	got := evaluate(Calculation{Kind: CalcPercentage, QuestionIDs: []uint{1}}, Submission{})
	assert.NotNil(t, got.Percentages)
	assert.Empty(t, got.Percentages)
}

func TestCollectAnswersIgnoresForeignOptions(t *testing.T) {
	form := numericForm()
	form.Questions = append(form.Questions, Question{
		ID: 5, Kind: KindOptionsRadio, Category: Ref{ID: 1}, Options: []Option{{ID: 50, Text: "1"}},
	})
	sub := Submission{ResponseOptions: []ResponseOption{{QuestionID: 3, OptionID: uintPtr(50)}}}

	assert.Empty(t, CollectAnswers(form, sub)[3])
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10", 10, true},
		{" 2.5\n", 2.5, true},
		{"-3", -3, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
		{"1e400", 0, false},
		{"1_000", 0, false},
		{"0x1p3", 0, false},
		{"-0X10", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
