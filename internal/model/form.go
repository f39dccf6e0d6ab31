package model

import (
	"pracas_backend/internal/analysis"
)

type QuestionType string

const (
	QuestionWritten QuestionType = "WRITTEN"
	QuestionOptions QuestionType = "OPTIONS"
)

type CharacterType string

const (
	CharacterText   CharacterType = "TEXT"
	CharacterNumber CharacterType = "NUMBER"
)

type OptionType string

const (
	OptionRadio    OptionType = "RADIO"
	OptionCheckbox OptionType = "CHECKBOX"
)

type GeometryType string

const (
	GeometryPoint   GeometryType = "POINT"
	GeometryPolygon GeometryType = "POLYGON"
)

type CalculationType string

const (
	CalculationSum        CalculationType = "SUM"
	CalculationAverage    CalculationType = "AVERAGE"
	CalculationPercentage CalculationType = "PERCENTAGE"
)

// swagger:model Category
type Category struct {
	BaseModel
	Name          string        `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

// swagger:model Subcategory
type Subcategory struct {
	BaseModel
	Name       string    `gorm:"size:255;not null" json:"name"`
	CategoryID uint      `gorm:"index;not null" json:"categoryId"`
	Category   *Category `json:"category,omitempty"`
}

func (Subcategory) TableName() string {
	return "subcategories"
}

// swagger:model Question
type Question struct {
	BaseModel
	Name              string         `gorm:"size:255;not null" json:"name"`
	Notes             *string        `gorm:"size:255" json:"notes"`
	Optional          bool           `json:"optional"`
	Active            bool           `gorm:"not null;default:true" json:"active"`
	Type              QuestionType   `gorm:"size:16;not null" json:"type"`
	CharacterType     CharacterType  `gorm:"size:16;not null" json:"characterType"`
	OptionType        *OptionType    `gorm:"size:16" json:"optionType"`
	MaximumSelections *int           `json:"maximumSelections"`
	GeometryTypes     []GeometryType `gorm:"type:text;serializer:json" json:"geometryTypes"`

	CategoryID    uint         `gorm:"index;not null" json:"categoryId"`
	Category      *Category    `json:"category,omitempty"`
	SubcategoryID *uint        `gorm:"index" json:"subcategoryId"`
	Subcategory   *Subcategory `json:"subcategory,omitempty"`
	Options       []Option     `json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// Kind maps the stored type columns to the closed analysis variant.
func (q *Question) Kind() (analysis.QuestionKind, error) {
	opt := ""
	if q.OptionType != nil {
		opt = string(*q.OptionType)
	}
	return analysis.KindOf(string(q.Type), opt)
}

func (q *Question) AllowsGeometry(t GeometryType) bool {
	for _, g := range q.GeometryTypes {
		if g == t {
			return true
		}
	}
	return false
}

// swagger:model Option
type Option struct {
	BaseModel
	Text       string `gorm:"size:255;not null" json:"text"`
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
}

func (Option) TableName() string {
	return "options"
}

// swagger:model Form
type Form struct {
	BaseModel
	Name         string         `gorm:"size:255;not null;uniqueIndex:idx_form_name_version" json:"name"`
	Version      int            `gorm:"not null;default:1;uniqueIndex:idx_form_name_version" json:"version"`
	Questions    []FormQuestion `json:"questions,omitempty"`
	Calculations []Calculation  `json:"calculations,omitempty"`
}

func (Form) TableName() string {
	return "forms"
}

// FormQuestion places a question in a form.
type FormQuestion struct {
	FormID     uint      `gorm:"primaryKey" json:"formId"`
	QuestionID uint      `gorm:"primaryKey" json:"questionId"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	Question   *Question `json:"question,omitempty"`
}

func (FormQuestion) TableName() string {
	return "form_questions"
}

// swagger:model Calculation
type Calculation struct {
	BaseModel
	Name          string          `gorm:"size:255;not null" json:"name"`
	Type          CalculationType `gorm:"size:16;not null" json:"type"`
	FormID        uint            `gorm:"index;not null" json:"formId"`
	CategoryID    uint            `gorm:"index;not null" json:"categoryId"`
	SubcategoryID *uint           `gorm:"index" json:"subcategoryId"`
	Questions     []Question      `gorm:"many2many:calculation_questions" json:"questions,omitempty"`
}

func (Calculation) TableName() string {
	return "calculations"
}
