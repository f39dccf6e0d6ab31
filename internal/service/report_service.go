package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/analysis"
	"pracas_backend/internal/i18n"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"
	"pracas_backend/pkg/monitoring"
	"pracas_backend/pkg/tracing"

	"github.com/jung-kurt/gofpdf"
	"go.opentelemetry.io/otel/attribute"
)

// swagger:model AssessmentReport
type AssessmentReport struct {
	AssessmentID uint       `json:"assessmentId"`
	LocationID   uint       `json:"locationId"`
	LocationName string     `json:"locationName"`
	FormID       uint       `json:"formId"`
	FormName     string     `json:"formName"`
	FormVersion  int        `json:"formVersion"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	*analysis.Report
}

type ReportService struct {
	AssessmentRepo *repository.AssessmentRepository
	FormRepo       *repository.FormRepository
}

func NewReportService(assessmentRepo *repository.AssessmentRepository, formRepo *repository.FormRepository) *ReportService {
	return &ReportService{AssessmentRepo: assessmentRepo, FormRepo: formRepo}
}

func (s *ReportService) Report(ctx context.Context, p access.Principal, id uint) (*AssessmentReport, error) {
	if err := authorize(p, groups(access.GroupAssessment)); err != nil {
		return nil, err
	}
	a, err := s.AssessmentRepo.FindByID(id)
	if err != nil {
		return nil, lookup("assessment", err)
	}
	return s.build(ctx, a)
}

// Reports builds one report per assessment, in the order of ids.
func (s *ReportService) Reports(ctx context.Context, p access.Principal, ids []uint) ([]*AssessmentReport, error) {
	if err := authorize(p, groups(access.GroupAssessment)); err != nil {
		return nil, err
	}
	list, err := s.AssessmentRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Assessment, len(list))
	for i := range list {
		byID[list[i].ID] = &list[i]
	}

	schemas := make(map[uint]*model.Form)
	reports := make([]*AssessmentReport, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("assessment %d: %w", id, util.ErrNotFound)
		}
		form, ok := schemas[a.FormID]
		if !ok {
			if form, err = s.FormRepo.LoadSchema(a.FormID); err != nil {
				return nil, lookup("form", err)
			}
			schemas[a.FormID] = form
		}
		r, err := s.aggregate(ctx, a, form)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (s *ReportService) build(ctx context.Context, a *model.Assessment) (*AssessmentReport, error) {
	form, err := s.FormRepo.LoadSchema(a.FormID)
	if err != nil {
		return nil, lookup("form", err)
	}
	return s.aggregate(ctx, a, form)
}

func (s *ReportService) aggregate(ctx context.Context, a *model.Assessment, form *model.Form) (*AssessmentReport, error) {
	ctx, span := tracing.Start(ctx, "report.aggregate")
	defer span.End()
	span.SetAttributes(attribute.Int64("assessment.id", int64(a.ID)))

	start := time.Now()
	defer func() { monitoring.ReportBuildSeconds.Observe(time.Since(start).Seconds()) }()

	schema, err := toAnalysisForm(form)
	if err != nil {
		return nil, err
	}
	_, load := tracing.Start(ctx, "report.load_responses")
	responses, options, err := s.AssessmentRepo.Submission(a.ID)
	load.End()
	if err != nil {
		return nil, fmt.Errorf("load responses of assessment %d: %w", a.ID, err)
	}

	r := &AssessmentReport{
		AssessmentID: a.ID,
		LocationID:   a.LocationID,
		FormID:       a.FormID,
		FormName:     form.Name,
		FormVersion:  form.Version,
		StartDate:    a.StartDate,
		EndDate:      a.EndDate,
		Report:       analysis.Aggregate(schema, toSubmission(responses, options)),
	}
	if a.Location != nil {
		r.LocationName = a.Location.Name
	}
	return r, nil
}

// toAnalysisForm flattens a loaded schema graph. Questions without a loaded
// category are reported under an empty category.
func toAnalysisForm(f *model.Form) (analysis.Form, error) {
	out := analysis.Form{
		Questions:    make([]analysis.Question, 0, len(f.Questions)),
		Calculations: make([]analysis.Calculation, 0, len(f.Calculations)),
	}
	for _, fq := range f.Questions {
		q := fq.Question
		if q == nil {
			continue
		}
		kind, err := q.Kind()
		if err != nil {
			return out, fmt.Errorf("question %d: %w", q.ID, err)
		}
		aq := analysis.Question{
			ID:       q.ID,
			Name:     q.Name,
			Kind:     kind,
			Category: analysis.Ref{ID: q.CategoryID},
		}
		if q.Category != nil {
			aq.Category.Name = q.Category.Name
		}
		if q.SubcategoryID != nil {
			aq.Subcategory = &analysis.Ref{ID: *q.SubcategoryID}
			if q.Subcategory != nil {
				aq.Subcategory.Name = q.Subcategory.Name
			}
		}
		for _, opt := range q.Options {
			aq.Options = append(aq.Options, analysis.Option{ID: opt.ID, Text: opt.Text})
		}
		out.Questions = append(out.Questions, aq)
	}

	for _, c := range f.Calculations {
		kind, err := analysis.CalculationKindOf(string(c.Type))
		if err != nil {
			return out, fmt.Errorf("calculation %d: %w", c.ID, err)
		}
		ac := analysis.Calculation{
			ID:            c.ID,
			Name:          c.Name,
			Kind:          kind,
			CategoryID:    c.CategoryID,
			SubcategoryID: c.SubcategoryID,
		}
		for _, q := range c.Questions {
			ac.QuestionIDs = append(ac.QuestionIDs, q.ID)
		}
		out.Calculations = append(out.Calculations, ac)
	}
	return out, nil
}

func toSubmission(responses []model.Response, options []model.ResponseOption) analysis.Submission {
	sub := analysis.Submission{
		Responses:       make([]analysis.Response, 0, len(responses)),
		ResponseOptions: make([]analysis.ResponseOption, 0, len(options)),
	}
	for _, r := range responses {
		text := ""
		if r.Response != nil {
			text = *r.Response
		}
		sub.Responses = append(sub.Responses, analysis.Response{QuestionID: r.QuestionID, Text: text})
	}
	for _, ro := range options {
		sub.ResponseOptions = append(sub.ResponseOptions, analysis.ResponseOption{QuestionID: ro.QuestionID, OptionID: ro.OptionID})
	}
	return sub
}

// PDF renders the report of one assessment. Labels follow the language of ctx.
func (s *ReportService) PDF(ctx context.Context, p access.Principal, id uint) ([]byte, error) {
	r, err := s.Report(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return RenderPDF(ctx, r)
}

func RenderPDF(ctx context.Context, r *AssessmentReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(i18n.T(ctx, "ReportTitle")), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("%s #%d", i18n.T(ctx, "ReportTitle"), r.AssessmentID)))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	period := r.StartDate.Format(util.TimeFormat) + " - "
	if r.EndDate != nil {
		period += r.EndDate.Format(util.TimeFormat)
	} else {
		period += i18n.T(ctx, "ReportInProgress")
	}
	header := [][2]string{
		{i18n.T(ctx, "ReportLocation"), r.LocationName},
		{i18n.T(ctx, "ReportForm"), fmt.Sprintf("%s (v%d)", r.FormName, r.FormVersion)},
		{i18n.T(ctx, "ReportPeriod"), period},
	}
	for _, line := range header {
		pdf.Cell(0, 7, tr(line[0]+": "+line[1]))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	noAnswer := tr(i18n.T(ctx, "NoAnswer"))
	for _, cat := range r.Categories {
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 9, tr(cat.Name))
		pdf.Ln(10)
		writeQuestions(pdf, tr, cat.Questions, noAnswer)
		writeCalculations(ctx, pdf, tr, cat.Calculations)

		for _, sub := range cat.Subcategories {
			pdf.SetFont("Arial", "B", 12)
			pdf.Cell(0, 8, tr(sub.Name))
			pdf.Ln(9)
			writeQuestions(pdf, tr, sub.Questions, noAnswer)
			writeCalculations(ctx, pdf, tr, sub.Calculations)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeQuestions(pdf *gofpdf.Fpdf, tr func(string) string, questions []*analysis.QuestionNode, noAnswer string) {
	for _, q := range questions {
		pdf.SetFont("Arial", "B", 10)
		pdf.MultiCell(0, 6, tr(q.Name), "", "L", false)
		pdf.SetFont("Arial", "", 10)
		if !q.Answered() {
			pdf.CellFormat(0, 6, "    "+noAnswer, "", 1, "L", false, 0, "")
			continue
		}
		for _, f := range q.Responses {
			if q.Kind.IsOptions() && f.Frequency == 0 {
				continue
			}
			line := "    " + f.Text
			if q.Kind.IsOptions() {
				line += " (" + strconv.Itoa(f.Frequency) + ")"
			}
			pdf.MultiCell(0, 6, tr(line), "", "L", false)
		}
	}
}

func writeCalculations(ctx context.Context, pdf *gofpdf.Fpdf, tr func(string) string, calcs []analysis.CalculationResult) {
	if len(calcs) == 0 {
		return
	}
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 6, tr(i18n.T(ctx, "Calculations")), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, c := range calcs {
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("    %s (%s): %s", c.Name, c.Kind, c.Display())), "", "L", false)
	}
}
