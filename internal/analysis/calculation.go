package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Answers holds the raw answer texts of each question, in row order.
type Answers map[uint][]string

// CollectAnswers resolves a submission into answer texts. WRITTEN questions
// keep their first non-empty response; OPTIONS questions keep the texts of the
// selected options that belong to the question.
func CollectAnswers(form Form, sub Submission) Answers {
	questions := questionsByID(form)
	answers := make(Answers)

	seen := make(map[uint]bool)
	for _, r := range sub.Responses {
		q, ok := questions[r.QuestionID]
		if !ok || q.Kind != KindWritten || seen[r.QuestionID] {
			continue
		}
		seen[r.QuestionID] = true
		if r.Text != "" {
			answers[q.ID] = append(answers[q.ID], r.Text)
		}
	}

	for _, ro := range sub.ResponseOptions {
		q, ok := questions[ro.QuestionID]
		if !ok || !q.Kind.IsOptions() || ro.OptionID == nil {
			continue
		}
		for _, opt := range q.Options {
			if opt.ID == *ro.OptionID {
				answers[q.ID] = append(answers[q.ID], opt.Text)
				break
			}
		}
	}
	return answers
}

type PercentageLine struct {
	QuestionID   uint    `json:"questionId"`
	QuestionName string  `json:"questionName"`
	Value        float64 `json:"value"`
	Percentage   float64 `json:"percentage"`
	Display      string  `json:"display"`
}

type CalculationResult struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	Kind        CalculationKind  `json:"type"`
	Value       *float64         `json:"value,omitempty"`
	Percentages []PercentageLine `json:"percentages,omitempty"`
}

// Display renders the result the way the report shows it.
func (r CalculationResult) Display() string {
	if r.Kind == CalcPercentage {
		parts := make([]string, len(r.Percentages))
		for i, p := range r.Percentages {
			parts[i] = p.QuestionName + ": " + p.Display
		}
		return strings.Join(parts, "; ")
	}
	if r.Value == nil {
		return ""
	}
	return FormatNumber(*r.Value)
}

// Evaluate computes one calculation. Target questions missing from questions
// and answers that are not finite numbers are skipped.
func Evaluate(calc Calculation, questions map[uint]Question, answers Answers) CalculationResult {
	result := CalculationResult{ID: calc.ID, Name: calc.Name, Kind: calc.Kind}

	var (
		sum   float64
		count int
		lines []PercentageLine
		line  = make(map[uint]int)
	)
	for _, qid := range calc.QuestionIDs {
		q, ok := questions[qid]
		if !ok {
			continue
		}
		for _, text := range answers[qid] {
			v, ok := ParseNumber(text)
			if !ok {
				continue
			}
			sum += v
			count++
			if i, ok := line[qid]; ok {
				lines[i].Value = v
				continue
			}
			line[qid] = len(lines)
			lines = append(lines, PercentageLine{QuestionID: qid, QuestionName: q.Name, Value: v})
		}
	}

	switch calc.Kind {
	case CalcSum:
		result.Value = &sum
	case CalcAverage:
		avg := 0.0
		if count > 0 {
			avg = sum / float64(count)
		}
		result.Value = &avg
	case CalcPercentage:
		for i := range lines {
			if sum == 0 {
				lines[i].Display = "0%"
				continue
			}
			pct := lines[i].Value / sum * 100
			lines[i].Percentage = math.Round(pct*100) / 100
			lines[i].Display = fmt.Sprintf("%.2f%%", pct)
		}
		result.Percentages = lines
		if result.Percentages == nil {
			result.Percentages = []PercentageLine{}
		}
	}
	return result
}

// ParseNumber parses an answer as a finite decimal number. Surrounding
// whitespace is ignored; empty text, digit separators and hex literals are
// not numbers.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "_xX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// FormatNumber renders v in its shortest decimal form ("10", "10.5").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
