package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/analysis"
	"pracas_backend/internal/i18n"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"
)

type ExportLocation struct {
	ID               uint   `json:"id" binding:"required"`
	AssessmentIDs    []uint `json:"assessmentIds"`
	TallyIDs         []uint `json:"tallyIds"`
	RegistrationInfo bool   `json:"registrationInfo"`
}

// swagger:model ExportInput
type ExportInput struct {
	Locations []ExportLocation `json:"locations" binding:"required"`
}

type ExportService struct {
	LocationRepo   *repository.LocationRepository
	AssessmentRepo *repository.AssessmentRepository
	FormRepo       *repository.FormRepository
	TallyRepo      *repository.TallyRepository
}

func NewExportService(
	locationRepo *repository.LocationRepository,
	assessmentRepo *repository.AssessmentRepository,
	formRepo *repository.FormRepository,
	tallyRepo *repository.TallyRepository,
) *ExportService {
	return &ExportService{
		LocationRepo:   locationRepo,
		AssessmentRepo: assessmentRepo,
		FormRepo:       formRepo,
		TallyRepo:      tallyRepo,
	}
}

func (in ExportInput) requirements() []access.Requirement {
	reqs := []access.Requirement{groups(access.GroupPark)}
	var withAssessments, withTallies bool
	for _, l := range in.Locations {
		withAssessments = withAssessments || len(l.AssessmentIDs) > 0
		withTallies = withTallies || len(l.TallyIDs) > 0
	}
	if withAssessments {
		reqs = append(reqs, groups(access.GroupAssessment))
	}
	if withTallies {
		reqs = append(reqs, groups(access.GroupTally))
	}
	return reqs
}

// CSV writes one block per location: its registration info, its assessments
// grouped by form with one column per question, and its tally totals.
// Everything is loaded and checked before the first row is written.
func (s *ExportService) CSV(ctx context.Context, p access.Principal, in ExportInput, w io.Writer) error {
	for _, req := range in.requirements() {
		if err := authorize(p, req); err != nil {
			return err
		}
	}
	if len(in.Locations) == 0 {
		return util.Invalid("locations", "at least one location is required")
	}

	blocks := make([][][]string, 0, len(in.Locations))
	for _, l := range in.Locations {
		rows, err := s.locationRows(ctx, l)
		if err != nil {
			return err
		}
		blocks = append(blocks, rows)
	}

	cw := csv.NewWriter(w)
	for i, rows := range blocks {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *ExportService) locationRows(ctx context.Context, l ExportLocation) ([][]string, error) {
	loc, err := s.LocationRepo.FindByID(l.ID)
	if err != nil {
		return nil, lookup("location", err)
	}

	var rows [][]string
	if l.RegistrationInfo {
		rows = append(rows, registrationRows(ctx, loc)...)
	}
	if len(l.AssessmentIDs) > 0 {
		assessmentRows, err := s.assessmentRows(ctx, loc, l.AssessmentIDs)
		if err != nil {
			return nil, err
		}
		rows = append(rows, assessmentRows...)
	}
	if len(l.TallyIDs) > 0 {
		tallyRows, err := s.tallyRows(ctx, loc, l.TallyIDs)
		if err != nil {
			return nil, err
		}
		rows = append(rows, tallyRows...)
	}
	return rows, nil
}

func registrationRows(ctx context.Context, loc *model.Location) [][]string {
	header := []string{
		i18n.T(ctx, "ExportLocation"), "name", "popularName", "firstStreet", "secondStreet",
		"city", "state", "narrowUnit", "intermediateUnit", "broadUnit", "type", "category",
		"isPark", "inactiveNotFound", "creationYear", "lastMaintenanceYear", "overseeingMayor",
		"legislation", "usableArea", "legalArea", "incline", "polygonArea",
	}
	row := []string{
		strconv.FormatUint(uint64(loc.ID), 10), loc.Name, str(loc.PopularName), loc.FirstStreet, str(loc.SecondStreet),
		"", "", unitName(loc.NarrowAdministrativeUnit), unitName(loc.IntermediateAdministrativeUnit),
		unitName(loc.BroadAdministrativeUnit), "", "",
		strconv.FormatBool(loc.IsPark), strconv.FormatBool(loc.InactiveNotFound),
		integer(loc.CreationYear), integer(loc.LastMaintenanceYear), str(loc.OverseeingMayor),
		str(loc.Legislation), number(loc.UsableArea), number(loc.LegalArea), number(loc.Incline), number(loc.PolygonArea),
	}
	if loc.City != nil {
		row[5], row[6] = loc.City.Name, loc.City.State
	}
	if loc.Type != nil {
		row[10] = loc.Type.Name
	}
	if loc.Category != nil {
		row[11] = loc.Category.Name
	}
	return [][]string{header, row}
}

func (s *ExportService) assessmentRows(ctx context.Context, loc *model.Location, ids []uint) ([][]string, error) {
	list, err := s.AssessmentRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(list) != len(ids) {
		return nil, fmt.Errorf("assessments of location %d: %w", loc.ID, util.ErrNotFound)
	}

	// group by form
	var formOrder []uint
	byForm := make(map[uint][]model.Assessment)
	for _, a := range list {
		if a.LocationID != loc.ID {
			return nil, util.Invalid("assessmentIds", "assessment %d does not belong to location %d", a.ID, loc.ID)
		}
		if _, ok := byForm[a.FormID]; !ok {
			formOrder = append(formOrder, a.FormID)
		}
		byForm[a.FormID] = append(byForm[a.FormID], a)
	}

	var rows [][]string
	for _, formID := range formOrder {
		form, err := s.FormRepo.LoadSchema(formID)
		if err != nil {
			return nil, lookup("form", err)
		}
		schema, err := toAnalysisForm(form)
		if err != nil {
			return nil, err
		}

		header := []string{i18n.T(ctx, "ExportAssessment"), "form", "startDate", "endDate", "user"}
		for _, q := range schema.Questions {
			header = append(header, q.Name)
		}
		rows = append(rows, header)

		for _, a := range byForm[formID] {
			responses, options, err := s.AssessmentRepo.Submission(a.ID)
			if err != nil {
				return nil, fmt.Errorf("load responses of assessment %d: %w", a.ID, err)
			}
			answers := analysis.CollectAnswers(schema, toSubmission(responses, options))

			row := []string{
				strconv.FormatUint(uint64(a.ID), 10),
				fmt.Sprintf("%s v%d", form.Name, form.Version),
				a.StartDate.Format(util.TimeFormat),
				date(a.EndDate),
				"",
			}
			if a.User != nil {
				row[4] = a.User.Name
			}
			for _, q := range schema.Questions {
				row = append(row, strings.Join(answers[q.ID], " | "))
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

var (
	exportGenders    = []model.Gender{model.GenderMale, model.GenderFemale}
	exportAgeGroups  = []model.AgeGroup{model.AgeChild, model.AgeTeen, model.AgeAdult, model.AgeElderly}
	exportActivities = []model.Activity{model.ActivitySedentary, model.ActivityWalking, model.ActivityStrenuous}
)

func (s *ExportService) tallyRows(ctx context.Context, loc *model.Location, ids []uint) ([][]string, error) {
	list, err := s.TallyRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(list) != len(ids) {
		return nil, fmt.Errorf("tallies of location %d: %w", loc.ID, util.ErrNotFound)
	}

	header := []string{
		i18n.T(ctx, "ExportTally"), "observer", "startDate", "endDate", "weatherCondition",
		"temperature", "animalsAmount", i18n.T(ctx, "ExportTotal"),
	}
	for _, g := range exportGenders {
		header = append(header, string(g))
	}
	for _, a := range exportAgeGroups {
		header = append(header, string(a))
	}
	for _, a := range exportActivities {
		header = append(header, string(a))
	}
	header = append(header, "traversing", "withImpairment", "inIllicitActivity", "withoutHousing")
	rows := [][]string{header}

	for i := range list {
		t := &list[i]
		if t.LocationID != loc.ID {
			return nil, util.Invalid("tallyIds", "tally %d does not belong to location %d", t.ID, loc.ID)
		}
		sum := Summarize(t)
		row := []string{
			strconv.FormatUint(uint64(t.ID), 10), t.Observer, t.StartDate.Format(util.TimeFormat), date(t.EndDate),
			string(t.WeatherCondition), number(t.Temperature), integer(t.AnimalsAmount), strconv.Itoa(sum.Total),
		}
		for _, g := range exportGenders {
			row = append(row, strconv.Itoa(sum.ByGender[g]))
		}
		for _, a := range exportAgeGroups {
			row = append(row, strconv.Itoa(sum.ByAgeGroup[a]))
		}
		for _, a := range exportActivities {
			row = append(row, strconv.Itoa(sum.ByActivity[a]))
		}
		row = append(row,
			strconv.Itoa(sum.Traversing), strconv.Itoa(sum.WithImpairment),
			strconv.Itoa(sum.InIllicitActivity), strconv.Itoa(sum.WithoutHousing))
		rows = append(rows, row)
	}
	return rows, nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func integer(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return analysis.FormatNumber(*v)
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(util.TimeFormat)
}

func unitName(u *model.AdministrativeUnit) string {
	if u == nil {
		return ""
	}
	return u.Name
}
