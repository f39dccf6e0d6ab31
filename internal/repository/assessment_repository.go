package repository

import (
	"time"

	"pracas_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssessmentFilter struct {
	LocationID uint
	FormID     uint
	UserID     uint
	Finalized  *bool
	Page       int
	Limit      int
}

// WrittenAnswer sets the text of a WRITTEN question. A nil Text keeps the
// stored text of an existing answer.
type WrittenAnswer struct {
	QuestionID uint
	Text       *string
}

// OptionAnswer replaces the selection of an OPTIONS question. An empty
// OptionIDs records an explicit empty selection.
type OptionAnswer struct {
	QuestionID uint
	OptionIDs  []uint
}

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Create(a *model.Assessment) error {
	return r.DB.Omit(clause.Associations).Create(a).Error
}

func (r *AssessmentRepository) FindByID(id uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.Preload("Location").Preload("Form").Preload("User").First(&a, id).Error
	return &a, err
}

func (r *AssessmentRepository) FindByIDs(ids []uint) ([]model.Assessment, error) {
	var list []model.Assessment
	err := r.DB.Preload("Location").Preload("Form").Preload("User").
		Where("id IN ?", ids).Order("id").Find(&list).Error
	return list, err
}

func (r *AssessmentRepository) List(f AssessmentFilter) ([]model.Assessment, int64, error) {
	q := r.DB.Model(&model.Assessment{})
	if f.LocationID != 0 {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.FormID != 0 {
		q = q.Where("form_id = ?", f.FormID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Finalized != nil {
		if *f.Finalized {
			q = q.Where("end_date IS NOT NULL")
		} else {
			q = q.Where("end_date IS NULL")
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Assessment
	err := q.Preload("Location").Preload("Form").Preload("User").
		Order("start_date DESC").Order("id DESC").
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).
		Find(&list).Error
	return list, total, err
}

// Submission loads every response row stored for the assessment.
func (r *AssessmentRepository) Submission(id uint) ([]model.Response, []model.ResponseOption, error) {
	var responses []model.Response
	if err := r.DB.Where("assessment_id = ?", id).Order("id").Find(&responses).Error; err != nil {
		return nil, nil, err
	}
	var options []model.ResponseOption
	if err := r.DB.Where("assessment_id = ?", id).Order("id").Find(&options).Error; err != nil {
		return nil, nil, err
	}
	return responses, options, nil
}

// SaveAnswers writes answers and the end date in one transaction. Option rows
// of a question are reused in id order; surplus rows are nulled rather than
// deleted.
func (r *AssessmentRepository) SaveAnswers(assessmentID uint, written []WrittenAnswer, options []OptionAnswer, endDate *time.Time) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Assessment{}).Where("id = ?", assessmentID).
			Updates(map[string]interface{}{"end_date": endDate, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		for _, w := range written {
			row := model.Response{
				AssessmentID: assessmentID,
				QuestionID:   w.QuestionID,
				Type:         model.QuestionWritten,
				Response:     w.Text,
			}
			conflict := clause.OnConflict{
				Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "question_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"response", "updated_at"}),
			}
			if w.Text == nil {
				conflict = clause.OnConflict{
					Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "question_id"}},
					DoNothing: true,
				}
			}
			if err := tx.Clauses(conflict).Create(&row).Error; err != nil {
				return err
			}
		}

		if len(options) == 0 {
			return nil
		}
		var existing []model.ResponseOption
		if err := tx.Where("assessment_id = ?", assessmentID).Order("id").Find(&existing).Error; err != nil {
			return err
		}
		byQuestion := make(map[uint][]model.ResponseOption)
		for _, row := range existing {
			byQuestion[row.QuestionID] = append(byQuestion[row.QuestionID], row)
		}

		for _, answer := range options {
			if err := saveSelection(tx, assessmentID, answer, byQuestion[answer.QuestionID]); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveSelection(tx *gorm.DB, assessmentID uint, answer OptionAnswer, rows []model.ResponseOption) error {
	if len(answer.OptionIDs) == 0 {
		if len(rows) == 0 {
			return tx.Create(&model.ResponseOption{AssessmentID: assessmentID, QuestionID: answer.QuestionID}).Error
		}
		return nullOptions(tx, rows)
	}

	for i, optionID := range answer.OptionIDs {
		id := optionID
		if i < len(rows) {
			err := tx.Model(&model.ResponseOption{}).Where("id = ?", rows[i].ID).
				Updates(map[string]interface{}{"option_id": id, "updated_at": time.Now()}).Error
			if err != nil {
				return err
			}
			continue
		}
		row := model.ResponseOption{AssessmentID: assessmentID, QuestionID: answer.QuestionID, OptionID: &id}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	if len(rows) > len(answer.OptionIDs) {
		return nullOptions(tx, rows[len(answer.OptionIDs):])
	}
	return nil
}

func nullOptions(tx *gorm.DB, rows []model.ResponseOption) error {
	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return tx.Model(&model.ResponseOption{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{"option_id": nil, "updated_at": time.Now()}).Error
}

// Delete removes the assessment with its responses and geometries.
func (r *AssessmentRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assessment_id = ?", id).Delete(&model.ResponseOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assessment_id = ?", id).Delete(&model.Response{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assessment_id = ?", id).Delete(&model.QuestionGeometry{}).Error; err != nil {
			return err
		}
		return deleteOne(tx, &model.Assessment{}, id)
	})
}
