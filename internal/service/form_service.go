package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"pracas_backend/internal/access"
	"pracas_backend/internal/analysis"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"

	"gorm.io/gorm"
)

// swagger:model QuestionInput
type QuestionInput struct {
	Name              string   `json:"name" binding:"required"`
	Notes             *string  `json:"notes"`
	Optional          bool     `json:"optional"`
	Type              string   `json:"type" binding:"required"`
	CharacterType     string   `json:"characterType" binding:"required"`
	OptionType        *string  `json:"optionType"`
	MaximumSelections *int     `json:"maximumSelections"`
	GeometryTypes     []string `json:"geometryTypes"`
	CategoryID        uint     `json:"categoryId" binding:"required"`
	SubcategoryID     *uint    `json:"subcategoryId"`
	Options           []string `json:"options"`
}

// swagger:model FormInput
type FormInput struct {
	Name        string `json:"name" binding:"required"`
	QuestionIDs []uint `json:"questionIds"`
}

// swagger:model CalculationInput
type CalculationInput struct {
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type" binding:"required"`
	CategoryID    uint   `json:"categoryId" binding:"required"`
	SubcategoryID *uint  `json:"subcategoryId"`
	QuestionIDs   []uint `json:"questionIds" binding:"required"`
}

type FormService struct {
	FormRepo *repository.FormRepository
}

func NewFormService(formRepo *repository.FormRepository) *FormService {
	return &FormService{FormRepo: formRepo}
}

func (s *FormService) canRead(p access.Principal) error {
	return authorize(p, access.Requirement{Groups: []access.RoleGroup{access.GroupForm, access.GroupAssessment}})
}

func (s *FormService) canWrite(p access.Principal) error {
	return authorize(p, roles(access.FormManager))
}

// Categories

func (s *FormService) CreateCategory(p access.Principal, name string) (*model.Category, error) {
	if err := s.canWrite(p); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return nil, util.Invalid("name", "name is required and must have at most 255 characters")
	}
	exists, err := s.FormRepo.CategoryNameExists(name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("category %q: %w", name, util.ErrConflict)
	}
	category := &model.Category{Name: name}
	return category, s.FormRepo.CreateCategory(category)
}

func (s *FormService) CreateSubcategory(p access.Principal, categoryID uint, name string) (*model.Subcategory, error) {
	if err := s.canWrite(p); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return nil, util.Invalid("name", "name is required and must have at most 255 characters")
	}
	if _, err := s.FormRepo.FindCategory(categoryID); err != nil {
		return nil, lookup("category", err)
	}
	sub := &model.Subcategory{Name: name, CategoryID: categoryID}
	return sub, s.FormRepo.CreateSubcategory(sub)
}

func (s *FormService) Categories(p access.Principal) ([]model.Category, error) {
	if err := s.canRead(p); err != nil {
		return nil, err
	}
	return s.FormRepo.ListCategories()
}

func (s *FormService) DeleteCategory(p access.Principal, id uint) error {
	if err := s.canWrite(p); err != nil {
		return err
	}
	inUse, err := s.FormRepo.CategoryInUse(id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("category %d has questions: %w", id, util.ErrConflict)
	}
	return lookup("category", s.FormRepo.DeleteCategory(id))
}

// Questions

func parseQuestion(in QuestionInput) (*model.Question, error) {
	verr := util.NewValidationError()
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		verr.Add("name", "name is required and must have at most 255 characters")
	}
	if in.Notes != nil && len(*in.Notes) > 255 {
		verr.Add("notes", "must have at most 255 characters")
	}

	q := &model.Question{
		Name:          name,
		Notes:         in.Notes,
		Optional:      in.Optional,
		Active:        true,
		Type:          model.QuestionType(in.Type),
		CharacterType: model.CharacterType(in.CharacterType),
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
	}
	if in.OptionType != nil {
		ot := model.OptionType(*in.OptionType)
		q.OptionType = &ot
	}

	if q.CharacterType != model.CharacterText && q.CharacterType != model.CharacterNumber {
		verr.Add("characterType", "must be TEXT or NUMBER")
	}
	kind, err := q.Kind()
	if err != nil {
		verr.Add("type", err.Error())
	}

	switch {
	case err != nil:
	case kind == analysis.KindWritten:
		if len(in.Options) > 0 {
			verr.Add("options", "written questions have no options")
		}
		if in.MaximumSelections != nil {
			verr.Add("maximumSelections", "only checkbox questions have a maximum")
		}
	default:
		texts := make([]string, 0, len(in.Options))
		for _, text := range in.Options {
			text = strings.TrimSpace(text)
			if text == "" || len(text) > 255 {
				verr.Add("options", "option texts must be non-empty with at most 255 characters")
				break
			}
			texts = append(texts, text)
		}
		if len(in.Options) == 0 {
			verr.Add("options", "at least one option is required")
		}
		if kind == analysis.KindOptionsCheckbox {
			if in.MaximumSelections == nil || *in.MaximumSelections < 1 {
				verr.Add("maximumSelections", "checkbox questions need a maximum of at least 1")
			} else if *in.MaximumSelections > len(texts) && len(texts) > 0 {
				verr.Add("maximumSelections", "must not exceed the number of options")
			}
			q.MaximumSelections = in.MaximumSelections
		} else if in.MaximumSelections != nil {
			verr.Add("maximumSelections", "only checkbox questions have a maximum")
		}
		for _, text := range texts {
			q.Options = append(q.Options, model.Option{Text: text})
		}
	}

	for _, g := range in.GeometryTypes {
		gt := model.GeometryType(g)
		if gt != model.GeometryPoint && gt != model.GeometryPolygon {
			verr.Add("geometryTypes", "must be POINT or POLYGON")
			break
		}
		if !slices.Contains(q.GeometryTypes, gt) {
			q.GeometryTypes = append(q.GeometryTypes, gt)
		}
	}
	return q, verr.Err()
}

func (s *FormService) CreateQuestion(p access.Principal, in QuestionInput) (*model.Question, error) {
	if err := s.canWrite(p); err != nil {
		return nil, err
	}
	q, err := parseQuestion(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.FormRepo.FindCategory(q.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.Invalid("categoryId", "unknown category")
		}
		return nil, err
	}
	if q.SubcategoryID != nil {
		sub, err := s.FormRepo.FindSubcategory(*q.SubcategoryID)
		if err != nil || sub.CategoryID != q.CategoryID {
			return nil, util.Invalid("subcategoryId", "subcategory does not belong to the category")
		}
	}
	if err := s.FormRepo.CreateQuestion(q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *FormService) Questions(p access.Principal, f repository.QuestionFilter) ([]model.Question, error) {
	if err := s.canRead(p); err != nil {
		return nil, err
	}
	return s.FormRepo.ListQuestions(f)
}

func (s *FormService) SetQuestionActive(p access.Principal, id uint, active bool) error {
	if err := s.canWrite(p); err != nil {
		return err
	}
	return lookup("question", s.FormRepo.SetQuestionActive(id, active))
}

// Forms

func (s *FormService) checkQuestionIDs(ids []uint) error {
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return util.Invalid("questionIds", "question %d is listed twice", id)
		}
		seen[id] = true
	}
	found, err := s.FormRepo.FindQuestions(ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return util.Invalid("questionIds", "unknown question")
	}
	return nil
}

// CreateForm creates version 1 of a new form.
func (s *FormService) CreateForm(p access.Principal, in FormInput) (*model.Form, error) {
	if err := s.canWrite(p); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return nil, util.Invalid("name", "name is required and must have at most 255 characters")
	}
	latest, err := s.FormRepo.LatestVersion(name)
	if err != nil {
		return nil, err
	}
	if latest > 0 {
		return nil, fmt.Errorf("form %q: %w", name, util.ErrConflict)
	}
	if err := s.checkQuestionIDs(in.QuestionIDs); err != nil {
		return nil, err
	}
	form := &model.Form{Name: name, Version: 1}
	if err := s.FormRepo.CreateForm(form, in.QuestionIDs); err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	return form, nil
}

// NewVersion creates the next version of a form. Nil questionIDs keeps the
// questions of the base version.
func (s *FormService) NewVersion(p access.Principal, formID uint, questionIDs []uint) (*model.Form, error) {
	if err := s.canWrite(p); err != nil {
		return nil, err
	}
	base, err := s.FormRepo.LoadSchema(formID)
	if err != nil {
		return nil, lookup("form", err)
	}
	if questionIDs == nil {
		for _, fq := range base.Questions {
			questionIDs = append(questionIDs, fq.QuestionID)
		}
	} else if err := s.checkQuestionIDs(questionIDs); err != nil {
		return nil, err
	}
	latest, err := s.FormRepo.LatestVersion(base.Name)
	if err != nil {
		return nil, err
	}
	form := &model.Form{Name: base.Name, Version: latest + 1}
	if err := s.FormRepo.CreateForm(form, questionIDs); err != nil {
		return nil, fmt.Errorf("create form version: %w", err)
	}
	return form, nil
}

// SetQuestions replaces the questions of a form that has no assessments yet.
func (s *FormService) SetQuestions(p access.Principal, formID uint, questionIDs []uint) error {
	if err := s.canWrite(p); err != nil {
		return err
	}
	if _, err := s.FormRepo.FindForm(formID); err != nil {
		return lookup("form", err)
	}
	used, err := s.FormRepo.FormHasAssessments(formID)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("form %d has assessments, create a new version: %w", formID, util.ErrConflict)
	}
	if err := s.checkQuestionIDs(questionIDs); err != nil {
		return err
	}
	return s.FormRepo.SetFormQuestions(formID, questionIDs)
}

func (s *FormService) Forms(p access.Principal) ([]model.Form, error) {
	if err := s.canRead(p); err != nil {
		return nil, err
	}
	return s.FormRepo.ListForms()
}

func (s *FormService) Schema(p access.Principal, formID uint) (*model.Form, error) {
	if err := s.canRead(p); err != nil {
		return nil, err
	}
	form, err := s.FormRepo.LoadSchema(formID)
	return form, lookup("form", err)
}

// Calculations

// CreateCalculation checks that every question is part of the form and lies
// in the calculation's scope.
func (s *FormService) CreateCalculation(p access.Principal, formID uint, in CalculationInput) (*model.Calculation, error) {
	if err := s.canWrite(p); err != nil {
		return nil, err
	}
	verr := util.NewValidationError()
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		verr.Add("name", "name is required and must have at most 255 characters")
	}
	if _, err := analysis.CalculationKindOf(in.Type); err != nil {
		verr.Add("type", err.Error())
	}
	if len(in.QuestionIDs) == 0 {
		verr.Add("questionIds", "at least one question is required")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	form, err := s.FormRepo.LoadSchema(formID)
	if err != nil {
		return nil, lookup("form", err)
	}
	if in.SubcategoryID != nil {
		sub, err := s.FormRepo.FindSubcategory(*in.SubcategoryID)
		if err != nil || sub.CategoryID != in.CategoryID {
			return nil, util.Invalid("subcategoryId", "subcategory does not belong to the category")
		}
	}

	inForm := make(map[uint]*model.Question, len(form.Questions))
	for _, fq := range form.Questions {
		inForm[fq.QuestionID] = fq.Question
	}
	for _, id := range in.QuestionIDs {
		q := inForm[id]
		if q == nil {
			return nil, util.Invalid("questionIds", "question %d is not part of the form", id)
		}
		if q.CategoryID != in.CategoryID {
			return nil, util.Invalid("questionIds", "question %d is outside the category", id)
		}
		if in.SubcategoryID != nil && (q.SubcategoryID == nil || *q.SubcategoryID != *in.SubcategoryID) {
			return nil, util.Invalid("questionIds", "question %d is outside the subcategory", id)
		}
	}

	calc := &model.Calculation{
		Name:          name,
		Type:          model.CalculationType(in.Type),
		FormID:        formID,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
	}
	if err := s.FormRepo.CreateCalculation(calc, in.QuestionIDs); err != nil {
		return nil, fmt.Errorf("create calculation: %w", err)
	}
	return calc, nil
}

func (s *FormService) DeleteCalculation(p access.Principal, formID, id uint) error {
	if err := s.canWrite(p); err != nil {
		return err
	}
	return lookup("calculation", s.FormRepo.DeleteCalculation(formID, id))
}
