package model

import (
	"time"
)

// swagger:model Assessment
type Assessment struct {
	BaseModel
	LocationID uint       `gorm:"index;not null" json:"locationId"`
	Location   *Location  `json:"location,omitempty"`
	FormID     uint       `gorm:"index;not null" json:"formId"`
	Form       *Form      `json:"form,omitempty"`
	UserID     uint       `gorm:"index;not null" json:"userId"`
	User       *User      `json:"user,omitempty"`
	StartDate  time.Time  `gorm:"not null" json:"startDate"`
	EndDate    *time.Time `json:"endDate"`

	Responses       []Response       `json:"responses,omitempty"`
	ResponseOptions []ResponseOption `json:"responseOptions,omitempty"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (a *Assessment) Finalized() bool {
	return a.EndDate != nil
}

// Response holds the answer to a WRITTEN question. There is at most one row
// per (assessment, question).
type Response struct {
	BaseModel
	AssessmentID uint         `gorm:"not null;uniqueIndex:idx_response_assessment_question" json:"assessmentId"`
	QuestionID   uint         `gorm:"not null;uniqueIndex:idx_response_assessment_question" json:"questionId"`
	Type         QuestionType `gorm:"size:16;not null" json:"type"`
	Response     *string      `gorm:"type:text" json:"response"`
}

func (Response) TableName() string {
	return "responses"
}

// ResponseOption is one selected option of an OPTIONS question. A nil
// OptionID records an explicit empty selection.
type ResponseOption struct {
	BaseModel
	AssessmentID uint  `gorm:"not null;index:idx_response_option_assessment_question" json:"assessmentId"`
	QuestionID   uint  `gorm:"not null;index:idx_response_option_assessment_question" json:"questionId"`
	OptionID     *uint `gorm:"index" json:"optionId"`
}

func (ResponseOption) TableName() string {
	return "response_options"
}

// QuestionGeometry keys the per-question geometry of an assessment. The
// geometry column itself is added and written with spatial SQL.
type QuestionGeometry struct {
	AssessmentID uint `gorm:"primaryKey;autoIncrement:false" json:"assessmentId"`
	QuestionID   uint `gorm:"primaryKey;autoIncrement:false" json:"questionId"`
}

func (QuestionGeometry) TableName() string {
	return "question_geometry"
}
