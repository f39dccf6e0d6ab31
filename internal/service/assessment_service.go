package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/analysis"
	"pracas_backend/internal/geometry"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"
	"pracas_backend/pkg/logger"
	"pracas_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// swagger:model AssessmentInput
type AssessmentInput struct {
	LocationID uint       `json:"locationId" binding:"required"`
	FormID     uint       `json:"formId" binding:"required"`
	StartDate  *time.Time `json:"startDate"`
}

// AnswerInput is the answer to one question. Written is used by WRITTEN
// questions and OptionIDs by OPTIONS questions, where an empty list records
// an explicit empty selection. Geometries holds GeoJSON; when absent the
// stored geometry is left alone, null or an empty list clears it.
type AnswerInput struct {
	QuestionID uint            `json:"questionId" binding:"required"`
	Written    *string         `json:"written"`
	OptionIDs  []uint          `json:"optionIds"`
	Geometries json.RawMessage `json:"geometries" swaggertype:"object"`
}

// swagger:model ResponsesInput
type ResponsesInput struct {
	Answers  []AnswerInput `json:"answers"`
	Finalize bool          `json:"finalize"`
}

type AssessmentService struct {
	AssessmentRepo *repository.AssessmentRepository
	FormRepo       *repository.FormRepository
	LocationRepo   *repository.LocationRepository
	GeometryRepo   *repository.GeometryRepository
	now            func() time.Time
}

func NewAssessmentService(
	assessmentRepo *repository.AssessmentRepository,
	formRepo *repository.FormRepository,
	locationRepo *repository.LocationRepository,
	geometryRepo *repository.GeometryRepository,
) *AssessmentService {
	return &AssessmentService{
		AssessmentRepo: assessmentRepo,
		FormRepo:       formRepo,
		LocationRepo:   locationRepo,
		GeometryRepo:   geometryRepo,
		now:            time.Now,
	}
}

func (s *AssessmentService) Create(p access.Principal, in AssessmentInput) (*model.Assessment, error) {
	if err := authorize(p, roles(access.AssessmentEditor, access.AssessmentManager)); err != nil {
		return nil, err
	}
	exists, err := s.LocationRepo.Exists(in.LocationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.Invalid("locationId", "unknown location")
	}
	if _, err := s.FormRepo.FindForm(in.FormID); err != nil {
		return nil, util.Invalid("formId", "unknown form")
	}

	start := s.now()
	if in.StartDate != nil {
		start = *in.StartDate
	}
	a := &model.Assessment{LocationID: in.LocationID, FormID: in.FormID, UserID: p.UserID, StartDate: start}
	if err := s.AssessmentRepo.Create(a); err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	return a, nil
}

func (s *AssessmentService) Get(p access.Principal, id uint) (*model.Assessment, error) {
	if err := authorize(p, groups(access.GroupAssessment)); err != nil {
		return nil, err
	}
	a, err := s.AssessmentRepo.FindByID(id)
	if err != nil {
		return nil, lookup("assessment", err)
	}
	responses, options, err := s.AssessmentRepo.Submission(id)
	if err != nil {
		return nil, err
	}
	a.Responses, a.ResponseOptions = responses, options
	return a, nil
}

func (s *AssessmentService) List(p access.Principal, f repository.AssessmentFilter) ([]model.Assessment, int64, error) {
	if err := authorize(p, groups(access.GroupAssessment)); err != nil {
		return nil, 0, err
	}
	f.Page, f.Limit = util.Page(f.Page, f.Limit)
	return s.AssessmentRepo.List(f)
}

// checkOwner lets the owner with an editing role through; everybody else
// needs ASSESSMENT_MANAGER.
func checkOwner(p access.Principal, a *model.Assessment) error {
	if err := authorize(p, roles(access.AssessmentEditor, access.AssessmentManager)); err != nil {
		return err
	}
	if a.UserID != p.UserID {
		return authorize(p, roles(access.AssessmentManager))
	}
	return nil
}

func (s *AssessmentService) Delete(p access.Principal, id uint) error {
	if err := authorize(p, roles(access.AssessmentEditor, access.AssessmentManager)); err != nil {
		return err
	}
	a, err := s.AssessmentRepo.FindByID(id)
	if err != nil {
		return lookup("assessment", err)
	}
	if err := checkOwner(p, a); err != nil {
		return err
	}
	return lookup("assessment", s.AssessmentRepo.Delete(id))
}

type plannedGeometry struct {
	questionID uint
	wkt        string
}

// SaveResponses stores the answers, then one geometry per answered question,
// and sets or clears the end date. Validation happens before anything is
// written.
func (s *AssessmentService) SaveResponses(ctx context.Context, p access.Principal, id uint, in ResponsesInput) error {
	if err := authorize(p, roles(access.AssessmentEditor, access.AssessmentManager)); err != nil {
		return err
	}
	a, err := s.AssessmentRepo.FindByID(id)
	if err != nil {
		return lookup("assessment", err)
	}
	if err := checkOwner(p, a); err != nil {
		return err
	}
	form, err := s.FormRepo.LoadSchema(a.FormID)
	if err != nil {
		return lookup("form", err)
	}
	questions := make(map[uint]*model.Question, len(form.Questions))
	for _, fq := range form.Questions {
		if fq.Question != nil {
			questions[fq.QuestionID] = fq.Question
		}
	}

	var (
		written    []repository.WrittenAnswer
		selections []repository.OptionAnswer
		geometries []plannedGeometry
	)
	seen := make(map[uint]bool, len(in.Answers))
	for _, answer := range in.Answers {
		q := questions[answer.QuestionID]
		if q == nil {
			return util.Invalid("answers", "question %d is not part of the form", answer.QuestionID)
		}
		if seen[q.ID] {
			return util.Invalid("answers", "question %d is answered twice", q.ID)
		}
		seen[q.ID] = true

		kind, err := q.Kind()
		if err != nil {
			return util.Invalid("answers", "question %d: %v", q.ID, err)
		}
		if kind == analysis.KindWritten {
			if err := checkWritten(q, answer); err != nil {
				return err
			}
			written = append(written, repository.WrittenAnswer{QuestionID: q.ID, Text: answer.Written})
		} else {
			if err := checkSelection(q, kind, answer); err != nil {
				return err
			}
			selections = append(selections, repository.OptionAnswer{QuestionID: q.ID, OptionIDs: answer.OptionIDs})
		}

		if answer.Geometries != nil {
			wkt, err := questionGeometry(q, answer.Geometries)
			if err != nil {
				return err
			}
			geometries = append(geometries, plannedGeometry{questionID: q.ID, wkt: wkt})
		}
	}

	var endDate *time.Time
	if in.Finalize {
		now := s.now()
		endDate = &now
	}
	if err := s.AssessmentRepo.SaveAnswers(id, written, selections, endDate); err != nil {
		return fmt.Errorf("save responses of assessment %d: %w", id, err)
	}

	for _, g := range geometries {
		if err := s.GeometryRepo.Upsert(ctx, id, g.questionID, g.wkt); err != nil {
			monitoring.GeometryWrites.WithLabelValues("error").Inc()
			logger.Log.Error("Failed to store question geometry",
				zap.Uint("assessment", id), zap.Uint("question", g.questionID), zap.Error(err))
			return fmt.Errorf("save geometry of question %d: %w", g.questionID, err)
		}
		monitoring.GeometryWrites.WithLabelValues("ok").Inc()
	}

	if in.Finalize {
		monitoring.AssessmentsFinalized.Inc()
	}
	return nil
}

func checkWritten(q *model.Question, answer AnswerInput) error {
	if len(answer.OptionIDs) > 0 {
		return util.Invalid("answers", "question %d takes a written answer", q.ID)
	}
	if answer.Written == nil || *answer.Written == "" {
		return nil
	}
	if q.CharacterType == model.CharacterNumber {
		if _, ok := analysis.ParseNumber(*answer.Written); !ok {
			return util.Invalid("answers", "question %d takes a number", q.ID)
		}
	}
	return nil
}

func checkSelection(q *model.Question, kind analysis.QuestionKind, answer AnswerInput) error {
	if answer.Written != nil {
		return util.Invalid("answers", "question %d takes options", q.ID)
	}
	limit := 1
	if kind == analysis.KindOptionsCheckbox && q.MaximumSelections != nil {
		limit = *q.MaximumSelections
	}
	if len(answer.OptionIDs) > limit {
		return util.Invalid("answers", "question %d accepts at most %d options", q.ID, limit)
	}

	valid := make(map[uint]bool, len(q.Options))
	for _, opt := range q.Options {
		valid[opt.ID] = true
	}
	picked := make(map[uint]bool, len(answer.OptionIDs))
	for _, optionID := range answer.OptionIDs {
		if !valid[optionID] {
			return util.Invalid("answers", "option %d does not belong to question %d", optionID, q.ID)
		}
		if picked[optionID] {
			return util.Invalid("answers", "option %d is selected twice", optionID)
		}
		picked[optionID] = true
	}
	return nil
}

func questionGeometry(q *model.Question, raw json.RawMessage) (string, error) {
	geoms, err := geometry.FromGeoJSON(raw)
	if err != nil {
		return "", util.Invalid("geometries", "question %d: %v", q.ID, err)
	}
	for _, g := range geoms {
		if !q.AllowsGeometry(model.GeometryType(geometry.TypeName(g))) {
			return "", util.Invalid("geometries", "question %d does not accept %s", q.ID, geometry.TypeName(g))
		}
	}
	return geometry.CollectionWKT(geoms), nil
}

func (s *AssessmentService) Geometries(ctx context.Context, p access.Principal, id uint) ([]repository.StoredGeometry, error) {
	if err := authorize(p, groups(access.GroupAssessment)); err != nil {
		return nil, err
	}
	if _, err := s.AssessmentRepo.FindByID(id); err != nil {
		return nil, lookup("assessment", err)
	}
	return s.GeometryRepo.ListByAssessment(ctx, id)
}
