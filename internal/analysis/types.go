// Package analysis builds per-assessment frequency tables and evaluates
// form calculations. It works on already-loaded, already-authorized data and
// performs no I/O.
package analysis

import "fmt"

// QuestionKind is the closed set of answer shapes a question can take.
type QuestionKind int

const (
	KindWritten QuestionKind = iota + 1
	KindOptionsRadio
	KindOptionsCheckbox
)

func (k QuestionKind) IsOptions() bool {
	return k == KindOptionsRadio || k == KindOptionsCheckbox
}

func (k QuestionKind) String() string {
	switch k {
	case KindWritten:
		return "WRITTEN"
	case KindOptionsRadio:
		return "RADIO"
	case KindOptionsCheckbox:
		return "CHECKBOX"
	}
	return "UNKNOWN"
}

func (k QuestionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindOf maps the stored (type, optionType) pair to a QuestionKind.
func KindOf(questionType, optionType string) (QuestionKind, error) {
	switch questionType {
	case "WRITTEN":
		return KindWritten, nil
	case "OPTIONS":
		switch optionType {
		case "RADIO":
			return KindOptionsRadio, nil
		case "CHECKBOX":
			return KindOptionsCheckbox, nil
		}
		return 0, fmt.Errorf("options question with option type %q", optionType)
	}
	return 0, fmt.Errorf("unknown question type %q", questionType)
}

type CalculationKind int

const (
	CalcSum CalculationKind = iota + 1
	CalcAverage
	CalcPercentage
)

func (k CalculationKind) String() string {
	switch k {
	case CalcSum:
		return "SUM"
	case CalcAverage:
		return "AVERAGE"
	case CalcPercentage:
		return "PERCENTAGE"
	}
	return "UNKNOWN"
}

func (k CalculationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func CalculationKindOf(s string) (CalculationKind, error) {
	switch s {
	case "SUM":
		return CalcSum, nil
	case "AVERAGE":
		return CalcAverage, nil
	case "PERCENTAGE":
		return CalcPercentage, nil
	}
	return 0, fmt.Errorf("unknown calculation type %q", s)
}

type Ref struct {
	ID   uint
	Name string
}

type Option struct {
	ID   uint
	Text string
}

type Question struct {
	ID          uint
	Name        string
	Kind        QuestionKind
	Category    Ref
	Subcategory *Ref
	Options     []Option
}

// Calculation is scoped to a subcategory when SubcategoryID is set, otherwise
// to CategoryID.
type Calculation struct {
	ID            uint
	Name          string
	Kind          CalculationKind
	CategoryID    uint
	SubcategoryID *uint
	QuestionIDs   []uint
}

// Form is the schema graph of one form, questions in form order.
type Form struct {
	Questions    []Question
	Calculations []Calculation
}

type Response struct {
	QuestionID uint
	Text       string
}

// ResponseOption with a nil OptionID records an explicit empty selection.
type ResponseOption struct {
	QuestionID uint
	OptionID   *uint
}

// Submission holds the raw rows of one assessment.
type Submission struct {
	Responses       []Response
	ResponseOptions []ResponseOption
}
