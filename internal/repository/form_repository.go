package repository

import (
	"database/sql"

	"pracas_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionFilter struct {
	CategoryID    uint
	SubcategoryID uint
	ActiveOnly    bool
}

type FormRepository struct {
	DB *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{DB: db}
}

// Categories

func (r *FormRepository) CreateCategory(category *model.Category) error {
	return r.DB.Omit(clause.Associations).Create(category).Error
}

func (r *FormRepository) FindCategory(id uint) (*model.Category, error) {
	var category model.Category
	err := r.DB.Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
		return db.Order("name")
	}).First(&category, id).Error
	return &category, err
}

func (r *FormRepository) ListCategories() ([]model.Category, error) {
	var categories []model.Category
	err := r.DB.Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
		return db.Order("name")
	}).Order("name").Find(&categories).Error
	return categories, err
}

func (r *FormRepository) CategoryNameExists(name string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Category{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *FormRepository) CreateSubcategory(sub *model.Subcategory) error {
	return r.DB.Omit(clause.Associations).Create(sub).Error
}

func (r *FormRepository) FindSubcategory(id uint) (*model.Subcategory, error) {
	var sub model.Subcategory
	err := r.DB.First(&sub, id).Error
	return &sub, err
}

// CategoryInUse reports whether questions or calculations still point to the
// category.
func (r *FormRepository) CategoryInUse(id uint) (bool, error) {
	var count int64
	if err := r.DB.Model(&model.Question{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	err := r.DB.Model(&model.Calculation{}).Where("category_id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *FormRepository) DeleteCategory(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&model.Subcategory{}).Error; err != nil {
			return err
		}
		return deleteOne(tx, &model.Category{}, id)
	})
}

// Questions

// CreateQuestion stores the question together with its options.
func (r *FormRepository) CreateQuestion(q *model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		options := q.Options
		q.Options = nil
		if err := tx.Omit(clause.Associations).Create(q).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].QuestionID = q.ID
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return err
			}
		}
		q.Options = options
		return nil
	})
}

func (r *FormRepository) FindQuestions(ids []uint) ([]model.Question, error) {
	var questions []model.Question
	if len(ids) == 0 {
		return questions, nil
	}
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *FormRepository) ListQuestions(f QuestionFilter) ([]model.Question, error) {
	q := r.DB.Model(&model.Question{}).Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.SubcategoryID != 0 {
		q = q.Where("subcategory_id = ?", f.SubcategoryID)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	var questions []model.Question
	err := q.Order("category_id").Order("id").Find(&questions).Error
	return questions, err
}

func (r *FormRepository) SetQuestionActive(id uint, active bool) error {
	res := r.DB.Model(&model.Question{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Forms

// CreateForm stores the form and attaches questionIDs in the given order.
func (r *FormRepository) CreateForm(form *model.Form, questionIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		form.Questions, form.Calculations = nil, nil
		if err := tx.Omit(clause.Associations).Create(form).Error; err != nil {
			return err
		}
		return attachQuestions(tx, form.ID, questionIDs)
	})
}

// SetFormQuestions replaces the questions of a form.
func (r *FormRepository) SetFormQuestions(formID uint, questionIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", formID).Delete(&model.FormQuestion{}).Error; err != nil {
			return err
		}
		return attachQuestions(tx, formID, questionIDs)
	})
}

func attachQuestions(tx *gorm.DB, formID uint, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}
	rows := make([]model.FormQuestion, len(questionIDs))
	for i, id := range questionIDs {
		rows[i] = model.FormQuestion{FormID: formID, QuestionID: id, Position: i}
	}
	return tx.Create(&rows).Error
}

// LatestVersion returns the highest version stored under name, or 0.
func (r *FormRepository) LatestVersion(name string) (int, error) {
	var version sql.NullInt64
	err := r.DB.Model(&model.Form{}).Select("MAX(version)").Where("name = ?", name).Row().Scan(&version)
	return int(version.Int64), err
}

func (r *FormRepository) FindForm(id uint) (*model.Form, error) {
	var form model.Form
	err := r.DB.First(&form, id).Error
	return &form, err
}

func (r *FormRepository) ListForms() ([]model.Form, error) {
	var forms []model.Form
	err := r.DB.Order("name").Order("version DESC").Find(&forms).Error
	return forms, err
}

func (r *FormRepository) FormHasAssessments(formID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Assessment{}).Where("form_id = ?", formID).Count(&count).Error
	return count > 0, err
}

// LoadSchema loads a form with its questions in position order, their
// options, categories and subcategories, and its calculations.
func (r *FormRepository) LoadSchema(formID uint) (*model.Form, error) {
	var form model.Form
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position").Order("question_id")
		}).
		Preload("Questions.Question").
		Preload("Questions.Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Preload("Questions.Question.Category").
		Preload("Questions.Question.Subcategory").
		Preload("Calculations", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Preload("Calculations.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id")
		}).
		First(&form, formID).Error
	return &form, err
}

// Calculations

func (r *FormRepository) CreateCalculation(calc *model.Calculation, questionIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		calc.Questions = nil
		if err := tx.Omit(clause.Associations).Create(calc).Error; err != nil {
			return err
		}
		if len(questionIDs) == 0 {
			return nil
		}
		rows := make([]map[string]interface{}, len(questionIDs))
		for i, id := range questionIDs {
			rows[i] = map[string]interface{}{"calculation_id": calc.ID, "question_id": id}
		}
		return tx.Table("calculation_questions").Create(&rows).Error
	})
}

func (r *FormRepository) ListCalculations(formID uint) ([]model.Calculation, error) {
	var calcs []model.Calculation
	err := r.DB.Preload("Questions").Where("form_id = ?", formID).Order("id").Find(&calcs).Error
	return calcs, err
}

func (r *FormRepository) DeleteCalculation(formID, id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		calc := model.Calculation{BaseModel: model.BaseModel{ID: id}}
		if err := tx.Where("form_id = ?", formID).First(&calc).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM calculation_questions WHERE calculation_id = ?", calc.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&calc).Error
	})
}

func deleteOne(tx *gorm.DB, value interface{}, id uint) error {
	res := tx.Delete(value, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
