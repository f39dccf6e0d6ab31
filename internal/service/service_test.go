package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/config"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"
	"pracas_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db          *gorm.DB
	forms       *FormService
	assessments *AssessmentService
	reports     *ReportService
	tallies     *TallyService
	exports     *ExportService

	admin    access.Principal
	editor   access.Principal
	viewer   access.Principal
	location model.Location
	number   *model.Question
	checkbox *model.Question
	form     *model.Form
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	spatial, err := database.NewSpatial("sqlite", 4326)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, spatial))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	locations := repository.NewLocationRepository(db, spatial)
	formRepo := repository.NewFormRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	tallyRepo := repository.NewTallyRepository(db)

	e := &env{
		db:          db,
		forms:       NewFormService(formRepo),
		assessments: NewAssessmentService(assessmentRepo, formRepo, locations, repository.NewGeometryRepository(db, spatial)),
		reports:     NewReportService(assessmentRepo, formRepo),
		tallies:     NewTallyService(tallyRepo, locations),
		exports:     NewExportService(locations, assessmentRepo, formRepo, tallyRepo),
	}

	principal := func(email string, rs ...access.Role) access.Principal {
		u := model.User{Email: email, Name: strings.Split(email, "@")[0], Password: "x", Roles: rs, Active: true}
		require.NoError(t, users.Create(&u))
		return u.Principal()
	}
	e.admin = principal("admin@example.com", access.AllRoles()...)
	e.editor = principal("editor@example.com", access.AssessmentEditor, access.TallyEditor, access.ParkViewer)
	e.viewer = principal("viewer@example.com", access.AssessmentViewer, access.ParkViewer)

	e.location = model.Location{Name: "Praça da Liberdade", FirstStreet: "Rua B"}
	require.NoError(t, locations.Save(&e.location, repository.LocationRefs{}))

	category, err := e.forms.CreateCategory(e.admin, "Equipamentos")
	require.NoError(t, err)
	e.number, err = e.forms.CreateQuestion(e.admin, QuestionInput{
		Name: "Bancos", Type: "WRITTEN", CharacterType: "NUMBER", CategoryID: category.ID,
		GeometryTypes: []string{"POINT"},
	})
	require.NoError(t, err)
	checkbox, max := "CHECKBOX", 2
	e.checkbox, err = e.forms.CreateQuestion(e.admin, QuestionInput{
		Name: "Atividades", Type: "OPTIONS", CharacterType: "TEXT", OptionType: &checkbox,
		MaximumSelections: &max, CategoryID: category.ID, Options: []string{"Futebol", "Skate", "Xadrez"},
	})
	require.NoError(t, err)
	e.form, err = e.forms.CreateForm(e.admin, FormInput{Name: "Avaliação", QuestionIDs: []uint{e.number.ID, e.checkbox.ID}})
	require.NoError(t, err)
	_, err = e.forms.CreateCalculation(e.admin, e.form.ID, CalculationInput{
		Name: "Total de bancos", Type: "SUM", CategoryID: category.ID, QuestionIDs: []uint{e.number.ID},
	})
	require.NoError(t, err)
	return e
}

func (e *env) newAssessment(t *testing.T, p access.Principal) *model.Assessment {
	t.Helper()
	a, err := e.assessments.Create(p, AssessmentInput{LocationID: e.location.ID, FormID: e.form.ID})
	require.NoError(t, err)
	return a
}

func written(s string) *string { return &s }

func TestCreateQuestionValidation(t *testing.T) {
	e := newEnv(t)
	radio := "RADIO"
	max := 1
	tests := []struct {
		name  string
		in    QuestionInput
		field string
	}{
		{"written with options", QuestionInput{Name: "a", Type: "WRITTEN", CharacterType: "TEXT", Options: []string{"x"}}, "options"},
		{"options without options", QuestionInput{Name: "a", Type: "OPTIONS", CharacterType: "TEXT", OptionType: &radio}, "options"},
		{"radio with maximum", QuestionInput{Name: "a", Type: "OPTIONS", CharacterType: "TEXT", OptionType: &radio, MaximumSelections: &max, Options: []string{"x"}}, "maximumSelections"},
		{"unknown geometry", QuestionInput{Name: "a", Type: "WRITTEN", CharacterType: "TEXT", GeometryTypes: []string{"LINE"}}, "geometryTypes"},
		{"unknown type", QuestionInput{Name: "a", Type: "DRAWING", CharacterType: "TEXT"}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.CategoryID = e.number.CategoryID
			_, err := e.forms.CreateQuestion(e.admin, tt.in)
			var verr *util.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	_, err := e.forms.CreateQuestion(e.viewer, QuestionInput{Name: "a", Type: "WRITTEN", CharacterType: "TEXT", CategoryID: e.number.CategoryID})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestCreateCalculationScope(t *testing.T) {
	e := newEnv(t)
	categoryID := e.number.CategoryID

	benches, err := e.forms.CreateSubcategory(e.admin, categoryID, "Bancos")
	require.NoError(t, err)
	lights, err := e.forms.CreateSubcategory(e.admin, categoryID, "Iluminação")
	require.NoError(t, err)
	shaded, err := e.forms.CreateQuestion(e.admin, QuestionInput{
		Name: "Bancos à sombra", Type: "WRITTEN", CharacterType: "NUMBER", CategoryID: categoryID, SubcategoryID: &benches.ID,
	})
	require.NoError(t, err)

	other, err := e.forms.CreateCategory(e.admin, "Segurança")
	require.NoError(t, err)
	guards, err := e.forms.CreateSubcategory(e.admin, other.ID, "Vigilância")
	require.NoError(t, err)
	cameras, err := e.forms.CreateQuestion(e.admin, QuestionInput{
		Name: "Câmeras", Type: "WRITTEN", CharacterType: "NUMBER", CategoryID: other.ID,
	})
	require.NoError(t, err)

	form, err := e.forms.CreateForm(e.admin, FormInput{Name: "Completa", QuestionIDs: []uint{e.number.ID, shaded.ID, cameras.ID}})
	require.NoError(t, err)

	tests := []struct {
		name          string
		subcategoryID *uint
		questionIDs   []uint
		field         string
	}{
		{"question from another category", nil, []uint{e.number.ID, cameras.ID}, "questionIds"},
		{"subcategory of another category", &guards.ID, []uint{shaded.ID}, "subcategoryId"},
		{"question without subcategory", &benches.ID, []uint{e.number.ID}, "questionIds"},
		{"question in another subcategory", &lights.ID, []uint{shaded.ID}, "questionIds"},
		{"question outside the form", nil, []uint{e.checkbox.ID}, "questionIds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.forms.CreateCalculation(e.admin, form.ID, CalculationInput{
				Name: "Soma", Type: "SUM", CategoryID: categoryID, SubcategoryID: tt.subcategoryID, QuestionIDs: tt.questionIDs,
			})
			var verr *util.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	calc, err := e.forms.CreateCalculation(e.admin, form.ID, CalculationInput{
		Name: "Bancos à sombra", Type: "AVERAGE", CategoryID: categoryID, SubcategoryID: &benches.ID, QuestionIDs: []uint{shaded.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, benches.ID, *calc.SubcategoryID)
}

func TestSaveResponsesRejectsInvalidAnswers(t *testing.T) {
	e := newEnv(t)
	a := e.newAssessment(t, e.editor)
	opts := e.checkbox.Options

	tests := []struct {
		name   string
		answer AnswerInput
	}{
		{"question outside form", AnswerInput{QuestionID: 9999, Written: written("1")}},
		{"number that does not parse", AnswerInput{QuestionID: e.number.ID, Written: written("muitos")}},
		{"options on written question", AnswerInput{QuestionID: e.number.ID, OptionIDs: []uint{opts[0].ID}}},
		{"too many options", AnswerInput{QuestionID: e.checkbox.ID, OptionIDs: []uint{opts[0].ID, opts[1].ID, opts[2].ID}}},
		{"duplicate option", AnswerInput{QuestionID: e.checkbox.ID, OptionIDs: []uint{opts[0].ID, opts[0].ID}}},
		{"foreign option", AnswerInput{QuestionID: e.checkbox.ID, OptionIDs: []uint{9999}}},
		{"geometry type not allowed", AnswerInput{QuestionID: e.checkbox.ID, OptionIDs: []uint{opts[0].ID},
			Geometries: json.RawMessage(`{"type":"Point","coordinates":[1,2]}`)}},
		{"polygon on point question", AnswerInput{QuestionID: e.number.ID, Written: written("3"),
			Geometries: json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.assessments.SaveResponses(context.Background(), e.editor, a.ID, ResponsesInput{Answers: []AnswerInput{tt.answer}})
			assert.ErrorIs(t, err, util.ErrValidation)
		})
	}

	got, err := e.assessments.Get(e.viewer, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Responses)
	assert.Empty(t, got.ResponseOptions)
}

func TestSaveResponsesOwnership(t *testing.T) {
	e := newEnv(t)
	a := e.newAssessment(t, e.admin)
	in := ResponsesInput{Answers: []AnswerInput{{QuestionID: e.number.ID, Written: written("2")}}}

	assert.ErrorIs(t, e.assessments.SaveResponses(context.Background(), e.editor, a.ID, in), util.ErrPermissionDenied)
	assert.ErrorIs(t, e.assessments.SaveResponses(context.Background(), e.viewer, a.ID, in), util.ErrPermissionDenied)
	assert.NoError(t, e.assessments.SaveResponses(context.Background(), e.admin, a.ID, in))
	assert.ErrorIs(t, e.assessments.SaveResponses(context.Background(), e.admin, 9999, in), util.ErrNotFound)
}

func TestSaveResponsesFinalizeAndGeometry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newAssessment(t, e.editor)

	err := e.assessments.SaveResponses(ctx, e.editor, a.ID, ResponsesInput{
		Answers: []AnswerInput{{
			QuestionID: e.number.ID,
			Written:    written("4"),
			Geometries: json.RawMessage(`[{"type":"Point","coordinates":[-46.6,-23.5]},{"type":"Point","coordinates":[-46.7,-23.6]}]`),
		}},
		Finalize: true,
	})
	require.NoError(t, err)

	got, err := e.assessments.Get(e.viewer, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalized())

	geoms, err := e.assessments.Geometries(ctx, e.viewer, a.ID)
	require.NoError(t, err)
	require.Len(t, geoms, 1)
	require.NotNil(t, geoms[0].WKT)
	assert.Equal(t, "GEOMETRYCOLLECTION(POINT(-46.6 -23.5), POINT(-46.7 -23.6))", *geoms[0].WKT)

	// saving without finalize reopens it; an absent geometry is left alone
	require.NoError(t, e.assessments.SaveResponses(ctx, e.editor, a.ID, ResponsesInput{
		Answers: []AnswerInput{{QuestionID: e.number.ID, Written: written("5")}},
	}))
	got, err = e.assessments.Get(e.viewer, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Finalized())
	geoms, err = e.assessments.Geometries(ctx, e.viewer, a.ID)
	require.NoError(t, err)
	require.Len(t, geoms, 1)
	assert.NotNil(t, geoms[0].WKT)

	// null clears it
	require.NoError(t, e.assessments.SaveResponses(ctx, e.editor, a.ID, ResponsesInput{
		Answers: []AnswerInput{{QuestionID: e.number.ID, Written: written("5"), Geometries: json.RawMessage(`null`)}},
	}))
	geoms, err = e.assessments.Geometries(ctx, e.viewer, a.ID)
	require.NoError(t, err)
	require.Len(t, geoms, 1)
	assert.Nil(t, geoms[0].WKT)
}

func TestReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newAssessment(t, e.editor)
	opts := e.checkbox.Options

	require.NoError(t, e.assessments.SaveResponses(ctx, e.editor, a.ID, ResponsesInput{Answers: []AnswerInput{
		{QuestionID: e.number.ID, Written: written("7")},
		{QuestionID: e.checkbox.ID, OptionIDs: []uint{opts[0].ID, opts[2].ID}},
	}}))

	r, err := e.reports.Report(ctx, e.viewer, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Praça da Liberdade", r.LocationName)
	assert.Equal(t, 1, r.FormVersion)
	require.Len(t, r.Categories, 1)

	cat := r.Categories[0]
	assert.Equal(t, "Equipamentos", cat.Name)
	require.Len(t, cat.Questions, 2)
	assert.Equal(t, e.number.ID, cat.Questions[0].ID)
	require.Len(t, cat.Questions[0].Responses, 1)
	assert.Equal(t, "7", cat.Questions[0].Responses[0].Text)

	frequencies := map[string]int{}
	for _, f := range cat.Questions[1].Responses {
		frequencies[f.Text] = f.Frequency
	}
	assert.Equal(t, map[string]int{"Futebol": 1, "Skate": 0, "Xadrez": 1}, frequencies)

	require.Len(t, cat.Calculations, 1)
	assert.Equal(t, "7", cat.Calculations[0].Display())

	reports, err := e.reports.Reports(ctx, e.viewer, []uint{a.ID})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	_, err = e.reports.Reports(ctx, e.viewer, []uint{a.ID, 9999})
	assert.ErrorIs(t, err, util.ErrNotFound)

	pdf, err := RenderPDF(ctx, r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestTallyAddPeople(t *testing.T) {
	e := newEnv(t)
	tally, err := e.tallies.Create(e.editor, e.location.ID, TallyInput{
		Observer: "Joana", StartDate: time.Now(), WeatherCondition: "SUNNY",
	})
	require.NoError(t, err)

	person := PersonInput{AgeGroup: "ADULT", Gender: "FEMALE", Activity: "WALKING", Quantity: 2}
	_, err = e.tallies.AddPeople(e.editor, e.location.ID, tally.ID, person)
	require.NoError(t, err)
	person.IsTraversing = true
	person.Quantity = 0
	sum, err := e.tallies.AddPeople(e.editor, e.location.ID, tally.ID, person)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 3, sum.ByGender[model.GenderFemale])
	assert.Equal(t, 3, sum.ByActivity[model.ActivityWalking])
	assert.Equal(t, 1, sum.Traversing)

	_, err = e.tallies.AddPeople(e.editor, e.location.ID+1, tally.ID, person)
	assert.ErrorIs(t, err, util.ErrTallyNotInLocation)

	person.Gender = "OTHER"
	_, err = e.tallies.AddPeople(e.editor, e.location.ID, tally.ID, person)
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = e.tallies.Create(e.editor, e.location.ID, TallyInput{Observer: "Joana", StartDate: time.Now(), WeatherCondition: "RAINY"})
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestExportCSV(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newAssessment(t, e.editor)
	opts := e.checkbox.Options
	require.NoError(t, e.assessments.SaveResponses(ctx, e.editor, a.ID, ResponsesInput{Answers: []AnswerInput{
		{QuestionID: e.number.ID, Written: written("3")},
		{QuestionID: e.checkbox.ID, OptionIDs: []uint{opts[0].ID, opts[1].ID}},
	}}))
	tally, err := e.tallies.Create(e.editor, e.location.ID, TallyInput{Observer: "Joana", StartDate: time.Now(), WeatherCondition: "CLOUDY"})
	require.NoError(t, err)
	_, err = e.tallies.AddPeople(e.editor, e.location.ID, tally.ID, PersonInput{AgeGroup: "CHILD", Gender: "MALE", Activity: "STRENUOUS", Quantity: 4})
	require.NoError(t, err)

	in := ExportInput{Locations: []ExportLocation{{
		ID: e.location.ID, AssessmentIDs: []uint{a.ID}, TallyIDs: []uint{tally.ID}, RegistrationInfo: true,
	}}}
	assert.ErrorIs(t, e.exports.CSV(ctx, e.viewer, in, &bytes.Buffer{}), util.ErrPermissionDenied)

	var buf bytes.Buffer
	require.NoError(t, e.exports.CSV(ctx, e.admin, in, &buf))
	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, "Praça da Liberdade", rows[1][1])
	assert.Equal(t, []string{"Bancos", "Atividades"}, rows[2][5:])
	assert.Equal(t, []string{"3", "Futebol | Skate"}, rows[3][5:])
	assert.Equal(t, "Joana", rows[5][1])
	assert.Equal(t, "4", rows[5][7])

	other := model.Location{Name: "Outra", FirstStreet: "Rua C"}
	require.NoError(t, e.exports.LocationRepo.Save(&other, repository.LocationRefs{}))
	in.Locations[0].ID = other.ID
	assert.ErrorIs(t, e.exports.CSV(ctx, e.admin, in, &bytes.Buffer{}), util.ErrValidation)
}
