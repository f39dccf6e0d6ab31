package repository

import (
	"context"
	"testing"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/config"
	"pracas_backend/internal/model"
	"pracas_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) (*gorm.DB, database.Spatial) {
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
	return db, spatial
}

func strPtr(s string) *string { return &s }

type fixture struct {
	user       model.User
	location   model.Location
	form       model.Form
	written    model.Question
	checkbox   model.Question
	assessment model.Assessment
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	var f fixture

	f.user = model.User{Email: "ana@example.com", Name: "Ana", Password: "x", Roles: []access.Role{access.AssessmentEditor}}
	require.NoError(t, NewUserRepository(db).Create(&f.user))

	f.location = model.Location{Name: "Praça da Sé", FirstStreet: "Rua A"}
	require.NoError(t, NewLocationRepository(db, nil).Save(&f.location, LocationRefs{}))

	forms := NewFormRepository(db)
	category := model.Category{Name: "Estrutura"}
	require.NoError(t, forms.CreateCategory(&category))

	f.written = model.Question{Name: "Bancos", Type: model.QuestionWritten, CharacterType: model.CharacterNumber, CategoryID: category.ID}
	require.NoError(t, forms.CreateQuestion(&f.written))

	checkbox := model.OptionCheckbox
	max := 3
	f.checkbox = model.Question{
		Name:              "Equipamentos",
		Type:              model.QuestionOptions,
		CharacterType:     model.CharacterText,
		OptionType:        &checkbox,
		MaximumSelections: &max,
		CategoryID:        category.ID,
		Options:           []model.Option{{Text: "Quadra"}, {Text: "Parquinho"}, {Text: "Academia"}},
	}
	require.NoError(t, forms.CreateQuestion(&f.checkbox))

	f.form = model.Form{Name: "Avaliação", Version: 1}
	require.NoError(t, forms.CreateForm(&f.form, []uint{f.checkbox.ID, f.written.ID}))

	f.assessment = model.Assessment{LocationID: f.location.ID, FormID: f.form.ID, UserID: f.user.ID, StartDate: time.Now()}
	require.NoError(t, NewAssessmentRepository(db).Create(&f.assessment))
	return f
}

func optionIDs(rows []model.ResponseOption) []*uint {
	ids := make([]*uint, len(rows))
	for i, row := range rows {
		ids[i] = row.OptionID
	}
	return ids
}

func TestSaveAnswersWritten(t *testing.T) {
	db, _ := newTestDB(t)
	f := seed(t, db)
	repo := NewAssessmentRepository(db)

	require.NoError(t, repo.SaveAnswers(f.assessment.ID, []WrittenAnswer{{QuestionID: f.written.ID, Text: strPtr("10")}}, nil, nil))
	require.NoError(t, repo.SaveAnswers(f.assessment.ID, []WrittenAnswer{{QuestionID: f.written.ID, Text: strPtr("12")}}, nil, nil))
	// a missing text keeps the stored answer
	require.NoError(t, repo.SaveAnswers(f.assessment.ID, []WrittenAnswer{{QuestionID: f.written.ID}}, nil, nil))

	responses, _, err := repo.Submission(f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Response)
	assert.Equal(t, "12", *responses[0].Response)
}

func TestSaveAnswersOptionRowsAreReused(t *testing.T) {
	db, _ := newTestDB(t)
	f := seed(t, db)
	repo := NewAssessmentRepository(db)
	opts := f.checkbox.Options

	save := func(ids ...uint) []model.ResponseOption {
		t.Helper()
		require.NoError(t, repo.SaveAnswers(f.assessment.ID, nil, []OptionAnswer{{QuestionID: f.checkbox.ID, OptionIDs: ids}}, nil))
		_, rows, err := repo.Submission(f.assessment.ID)
		require.NoError(t, err)
		return rows
	}

	rows := save(opts[0].ID, opts[1].ID)
	require.Len(t, rows, 2)
	assert.Equal(t, []*uint{&opts[0].ID, &opts[1].ID}, optionIDs(rows))

	rows = save(opts[2].ID)
	require.Len(t, rows, 2)
	assert.Equal(t, []*uint{&opts[2].ID, nil}, optionIDs(rows))

	rows = save()
	require.Len(t, rows, 2)
	assert.Equal(t, []*uint{nil, nil}, optionIDs(rows))

	rows = save(opts[0].ID, opts[1].ID, opts[2].ID)
	require.Len(t, rows, 3)
	assert.Equal(t, []*uint{&opts[0].ID, &opts[1].ID, &opts[2].ID}, optionIDs(rows))
}

func TestSaveAnswersEmptySelectionWritesNullRow(t *testing.T) {
	db, _ := newTestDB(t)
	f := seed(t, db)
	repo := NewAssessmentRepository(db)

	require.NoError(t, repo.SaveAnswers(f.assessment.ID, nil, []OptionAnswer{{QuestionID: f.checkbox.ID}}, nil))
	_, rows, err := repo.Submission(f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].OptionID)
}

func TestSaveAnswersEndDate(t *testing.T) {
	db, _ := newTestDB(t)
	f := seed(t, db)
	repo := NewAssessmentRepository(db)

	end := time.Now()
	require.NoError(t, repo.SaveAnswers(f.assessment.ID, nil, nil, &end))
	a, err := repo.FindByID(f.assessment.ID)
	require.NoError(t, err)
	assert.True(t, a.Finalized())

	require.NoError(t, repo.SaveAnswers(f.assessment.ID, nil, nil, nil))
	a, err = repo.FindByID(f.assessment.ID)
	require.NoError(t, err)
	assert.False(t, a.Finalized())

	assert.ErrorIs(t, repo.SaveAnswers(9999, nil, nil, nil), gorm.ErrRecordNotFound)
}

func TestGeometryUpsert(t *testing.T) {
	db, spatial := newTestDB(t)
	f := seed(t, db)
	repo := NewGeometryRepository(db, spatial)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, f.assessment.ID, f.written.ID, "GEOMETRYCOLLECTION(POINT(1 2))"))
	require.NoError(t, repo.Upsert(ctx, f.assessment.ID, f.written.ID, "GEOMETRYCOLLECTION(POINT(3 4))"))

	list, err := repo.ListByAssessment(ctx, f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].WKT)
	assert.Equal(t, "GEOMETRYCOLLECTION(POINT(3 4))", *list[0].WKT)

	require.NoError(t, repo.Upsert(ctx, f.assessment.ID, f.written.ID, ""))
	list, err = repo.ListByAssessment(ctx, f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].WKT)
}

func TestAssessmentDeleteCascades(t *testing.T) {
	db, spatial := newTestDB(t)
	f := seed(t, db)
	repo := NewAssessmentRepository(db)

	require.NoError(t, repo.SaveAnswers(f.assessment.ID,
		[]WrittenAnswer{{QuestionID: f.written.ID, Text: strPtr("4")}},
		[]OptionAnswer{{QuestionID: f.checkbox.ID, OptionIDs: []uint{f.checkbox.Options[0].ID}}},
		nil))
	require.NoError(t, NewGeometryRepository(db, spatial).Upsert(context.Background(), f.assessment.ID, f.written.ID, "POINT(1 2)"))

	require.NoError(t, repo.Delete(f.assessment.ID))

	for _, m := range []interface{}{&model.Response{}, &model.ResponseOption{}, &model.QuestionGeometry{}, &model.Assessment{}} {
		var count int64
		require.NoError(t, db.Model(m).Count(&count).Error)
		assert.Zero(t, count)
	}
	assert.ErrorIs(t, repo.Delete(f.assessment.ID), gorm.ErrRecordNotFound)
}

func TestLoadSchemaKeepsQuestionOrder(t *testing.T) {
	db, _ := newTestDB(t)
	f := seed(t, db)
	forms := NewFormRepository(db)

	calc := model.Calculation{Name: "Total", Type: model.CalculationSum, FormID: f.form.ID, CategoryID: f.written.CategoryID}
	require.NoError(t, forms.CreateCalculation(&calc, []uint{f.written.ID}))

	form, err := forms.LoadSchema(f.form.ID)
	require.NoError(t, err)
	require.Len(t, form.Questions, 2)
	assert.Equal(t, f.checkbox.ID, form.Questions[0].QuestionID)
	assert.Equal(t, f.written.ID, form.Questions[1].QuestionID)
	require.NotNil(t, form.Questions[0].Question)
	assert.Len(t, form.Questions[0].Question.Options, 3)
	require.NotNil(t, form.Questions[0].Question.Category)
	assert.Equal(t, "Estrutura", form.Questions[0].Question.Category.Name)

	require.Len(t, form.Calculations, 1)
	require.Len(t, form.Calculations[0].Questions, 1)
	assert.Equal(t, f.written.ID, form.Calculations[0].Questions[0].ID)

	version, err := forms.LatestVersion("Avaliação")
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	version, err = forms.LatestVersion("Outro")
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, forms.DeleteCalculation(f.form.ID, calc.ID))
	calcs, err := forms.ListCalculations(f.form.ID)
	require.NoError(t, err)
	assert.Empty(t, calcs)
}

func TestLocationSaveReusesLookupRows(t *testing.T) {
	db, spatial := newTestDB(t)
	repo := NewLocationRepository(db, spatial)
	refs := LocationRefs{CityName: "Campinas", State: "São Paulo", NarrowUnit: "Centro", TypeName: "Praça"}

	a := model.Location{Name: "A", FirstStreet: "Rua 1"}
	b := model.Location{Name: "B", FirstStreet: "Rua 2"}
	require.NoError(t, repo.Save(&a, refs))
	require.NoError(t, repo.Save(&b, refs))

	var cities, units, types int64
	db.Model(&model.City{}).Count(&cities)
	db.Model(&model.AdministrativeUnit{}).Count(&units)
	db.Model(&model.LocationType{}).Count(&types)
	assert.EqualValues(t, 1, cities)
	assert.EqualValues(t, 1, units)
	assert.EqualValues(t, 1, types)

	loaded, err := repo.FindByID(b.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.City)
	assert.Equal(t, "Campinas", loaded.City.Name)
	require.NotNil(t, loaded.NarrowAdministrativeUnit)
	assert.Equal(t, model.NarrowUnit, loaded.NarrowAdministrativeUnit.Level)
	assert.Nil(t, loaded.BroadAdministrativeUnitID)

	// updating without refs detaches the lookups
	loaded.Name = "B2"
	require.NoError(t, repo.Save(loaded, LocationRefs{}))
	loaded, err = repo.FindByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B2", loaded.Name)
	assert.Nil(t, loaded.CityID)

	list, err := repo.List(LocationFilter{Query: "b2"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestLocationPolygon(t *testing.T) {
	db, spatial := newTestDB(t)
	repo := NewLocationRepository(db, spatial)
	loc := model.Location{Name: "A", FirstStreet: "Rua 1"}
	require.NoError(t, repo.Save(&loc, LocationRefs{}))

	wkt, err := repo.PolygonWKT(loc.ID)
	require.NoError(t, err)
	assert.Empty(t, wkt)

	poly := "MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0)))"
	require.NoError(t, repo.SetPolygon(loc.ID, poly, 42.5, nil))
	wkt, err = repo.PolygonWKT(loc.ID)
	require.NoError(t, err)
	assert.Equal(t, poly, wkt)

	loaded, err := repo.FindByID(loc.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.PolygonArea)
	assert.InDelta(t, 42.5, *loaded.PolygonArea, 1e-9)

	require.NoError(t, repo.ClearPolygon(loc.ID))
	wkt, err = repo.PolygonWKT(loc.ID)
	require.NoError(t, err)
	assert.Empty(t, wkt)

	assert.ErrorIs(t, repo.SetPolygon(9999, poly, 1, nil), gorm.ErrRecordNotFound)
	_, err = repo.PolygonWKT(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLocationUsageAndDelete(t *testing.T) {
	db, _ := newTestDB(t)
	f := seed(t, db)
	repo := NewLocationRepository(db, nil)

	tally := model.Tally{LocationID: f.location.ID, UserID: f.user.ID, Observer: "Ana", StartDate: time.Now(), WeatherCondition: model.WeatherSunny}
	require.NoError(t, NewTallyRepository(db).Create(&tally))

	usage, err := repo.Usage(f.location.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, usage.Assessments)
	assert.EqualValues(t, 1, usage.Tallies)
	assert.Equal(t, map[string][]int{"Avaliação": {1}}, usage.Forms)

	require.NoError(t, NewAssessmentRepository(db).Delete(f.assessment.ID))
	require.NoError(t, repo.Delete(f.location.ID))

	var tallies int64
	db.Model(&model.Tally{}).Count(&tallies)
	assert.Zero(t, tallies)
	_, err = repo.FindByID(f.location.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTallyAddPeopleIncrements(t *testing.T) {
	db, _ := newTestDB(t)
	f := seed(t, db)
	repo := NewTallyRepository(db)

	tally := model.Tally{LocationID: f.location.ID, UserID: f.user.ID, Observer: "Ana", StartDate: time.Now(), WeatherCondition: model.WeatherCloudy}
	require.NoError(t, repo.Create(&tally))

	profile := func(qty int) *model.TallyPerson {
		return &model.TallyPerson{TallyID: tally.ID, AgeGroup: model.AgeAdult, Gender: model.GenderFemale, Activity: model.ActivityWalking, Quantity: qty}
	}
	require.NoError(t, repo.AddPeople(profile(2)))
	require.NoError(t, repo.AddPeople(profile(3)))
	other := profile(1)
	other.IsTraversing = true
	require.NoError(t, repo.AddPeople(other))

	loaded, err := repo.FindByID(tally.ID)
	require.NoError(t, err)
	require.Len(t, loaded.People, 2)
	assert.Equal(t, 5, loaded.People[0].Quantity)
	assert.Equal(t, 1, loaded.People[1].Quantity)

	_, err = repo.FindInLocation(f.location.ID+1, tally.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindInLocation(f.location.ID, tally.ID)
	assert.NoError(t, err)
}

func TestUserSearchAndInviteAccept(t *testing.T) {
	db, _ := newTestDB(t)
	users := NewUserRepository(db)
	invites := NewInviteRepository(db)

	for _, u := range []model.User{
		{Email: "carla@example.com", Name: "Carla", Password: "x"},
		{Email: "bruno@example.com", Name: "Bruno", Password: "x"},
		{Email: "alice@example.com", Name: "Alice", Password: "x"},
	} {
		u := u
		require.NoError(t, users.Create(&u))
	}

	list, total, err := users.Search(UserFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)

	list, total, err = users.Search(UserFilter{Query: "BRU", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Bruno", list[0].Name)

	invite := model.Invite{Email: "dora@example.com", Token: "abc", Roles: []access.Role{access.ParkViewer}, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, invites.Create(&invite))
	user := model.User{Email: invite.Email, Name: "Dora", Password: "x", Roles: invite.Roles}
	require.NoError(t, invites.Accept(&invite, &user))

	_, err = invites.FindByToken("abc")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	stored, err := users.FindByEmail("dora@example.com")
	require.NoError(t, err)
	assert.Equal(t, []access.Role{access.ParkViewer}, stored.Roles)

	active, err := users.IsActive(stored.ID)
	require.NoError(t, err)
	assert.True(t, active)
	require.NoError(t, users.SetActive(stored.ID, false))
	active, err = users.IsActive(stored.ID)
	require.NoError(t, err)
	assert.False(t, active)
}
