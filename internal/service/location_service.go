package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"pracas_backend/internal/access"
	"pracas_backend/internal/geometry"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"
	"pracas_backend/pkg/logger"

	"go.uber.org/zap"
)

const locationCacheTag = "location"

// swagger:model LocationInput
type LocationInput struct {
	Name                string   `json:"name" binding:"required"`
	PopularName         *string  `json:"popularName"`
	FirstStreet         string   `json:"firstStreet" binding:"required"`
	SecondStreet        *string  `json:"secondStreet"`
	IsPark              bool     `json:"isPark"`
	Notes               *string  `json:"notes"`
	CreationYear        *int     `json:"creationYear"`
	LastMaintenanceYear *int     `json:"lastMaintenanceYear"`
	OverseeingMayor     *string  `json:"overseeingMayor"`
	Legislation         *string  `json:"legislation"`
	UsableArea          *float64 `json:"usableArea"`
	LegalArea           *float64 `json:"legalArea"`
	Incline             *float64 `json:"incline"`
	InactiveNotFound    bool     `json:"inactiveNotFound"`

	City             string `json:"city"`
	State            string `json:"state"`
	NarrowUnit       string `json:"narrowAdministrativeUnit"`
	IntermediateUnit string `json:"intermediateAdministrativeUnit"`
	BroadUnit        string `json:"broadAdministrativeUnit"`
	Type             string `json:"type"`
	Category         string `json:"category"`
}

func checkLength(verr *util.ValidationError, field string, value *string, required bool) {
	if value == nil || strings.TrimSpace(*value) == "" {
		if required {
			verr.Add(field, "is required")
		}
		return
	}
	if utf8.RuneCountInString(*value) > 255 {
		verr.Add(field, "must have at most 255 characters")
	}
}

func checkNonNegative[T int | float64](verr *util.ValidationError, field string, value *T) {
	if value != nil && *value < 0 {
		verr.Add(field, "must not be negative")
	}
}

// Validate applies the location field rules.
func (in *LocationInput) Validate() error {
	verr := util.NewValidationError()
	checkLength(verr, "name", &in.Name, true)
	checkLength(verr, "firstStreet", &in.FirstStreet, true)
	checkLength(verr, "popularName", in.PopularName, false)
	checkLength(verr, "secondStreet", in.SecondStreet, false)
	checkLength(verr, "overseeingMayor", in.OverseeingMayor, false)
	checkLength(verr, "legislation", in.Legislation, false)
	checkNonNegative(verr, "creationYear", in.CreationYear)
	checkNonNegative(verr, "lastMaintenanceYear", in.LastMaintenanceYear)
	checkNonNegative(verr, "usableArea", in.UsableArea)
	checkNonNegative(verr, "legalArea", in.LegalArea)
	checkNonNegative(verr, "incline", in.Incline)
	if in.CreationYear != nil && in.LastMaintenanceYear != nil && *in.LastMaintenanceYear < *in.CreationYear {
		verr.Add("lastMaintenanceYear", "must not be before creationYear")
	}

	hasUnit := in.NarrowUnit != "" || in.IntermediateUnit != "" || in.BroadUnit != ""
	switch {
	case in.City != "" && in.State == "":
		verr.Add("state", "is required with a city")
	case in.City != "" && !slices.Contains(model.BrazilianStates, in.State):
		verr.Add("state", "unknown state")
	case in.City != "" && !hasUnit:
		verr.Add("administrativeUnits", "at least one administrative unit is required with a city")
	case in.City == "" && hasUnit:
		verr.Add("city", "is required with administrative units")
	}
	return verr.Err()
}

func (in *LocationInput) apply(loc *model.Location) repository.LocationRefs {
	loc.Name = strings.TrimSpace(in.Name)
	loc.PopularName = in.PopularName
	loc.FirstStreet = strings.TrimSpace(in.FirstStreet)
	loc.SecondStreet = in.SecondStreet
	loc.IsPark = in.IsPark
	loc.Notes = in.Notes
	loc.CreationYear = in.CreationYear
	loc.LastMaintenanceYear = in.LastMaintenanceYear
	loc.OverseeingMayor = in.OverseeingMayor
	loc.Legislation = in.Legislation
	loc.UsableArea = in.UsableArea
	loc.LegalArea = in.LegalArea
	loc.Incline = in.Incline
	loc.InactiveNotFound = in.InactiveNotFound
	return repository.LocationRefs{
		CityName:         strings.TrimSpace(in.City),
		State:            in.State,
		NarrowUnit:       strings.TrimSpace(in.NarrowUnit),
		IntermediateUnit: strings.TrimSpace(in.IntermediateUnit),
		BroadUnit:        strings.TrimSpace(in.BroadUnit),
		TypeName:         strings.TrimSpace(in.Type),
		CategoryName:     strings.TrimSpace(in.Category),
	}
}

// LocationPolygon is the stored boundary of a location.
type LocationPolygon struct {
	LocationID uint     `json:"locationId"`
	WKT        string   `json:"wkt"`
	Area       *float64 `json:"area"`
}

type LocationService struct {
	LocationRepo *repository.LocationRepository
	Storage      *StorageService
	Cache        *repository.Cache
}

func NewLocationService(locationRepo *repository.LocationRepository, storage *StorageService, cache *repository.Cache) *LocationService {
	return &LocationService{
		LocationRepo: locationRepo,
		Storage:      storage,
		Cache:        cache,
	}
}

func (s *LocationService) Create(ctx context.Context, p access.Principal, in LocationInput) (*model.Location, error) {
	if err := authorize(p, roles(access.ParkManager)); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	loc := &model.Location{}
	refs := in.apply(loc)
	if err := s.LocationRepo.Save(loc, refs); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	s.Cache.Invalidate(ctx, locationCacheTag)
	return s.LocationRepo.FindByID(loc.ID)
}

func (s *LocationService) Update(ctx context.Context, p access.Principal, id uint, in LocationInput) (*model.Location, error) {
	if err := authorize(p, roles(access.ParkManager)); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	loc, err := s.LocationRepo.FindByID(id)
	if err != nil {
		return nil, lookup("location", err)
	}
	refs := in.apply(loc)
	if err := s.LocationRepo.Save(loc, refs); err != nil {
		return nil, fmt.Errorf("update location %d: %w", id, err)
	}
	s.Cache.Invalidate(ctx, locationCacheTag)
	return s.LocationRepo.FindByID(id)
}

func (s *LocationService) Get(p access.Principal, id uint) (*model.Location, error) {
	if err := authorize(p, groups(access.GroupPark)); err != nil {
		return nil, err
	}
	loc, err := s.LocationRepo.FindByID(id)
	return loc, lookup("location", err)
}

func (s *LocationService) List(ctx context.Context, p access.Principal, f repository.LocationFilter) ([]model.Location, error) {
	if err := authorize(p, groups(access.GroupPark)); err != nil {
		return nil, err
	}
	park := "any"
	if f.IsPark != nil {
		park = fmt.Sprint(*f.IsPark)
	}
	key := fmt.Sprintf("locations:%s:%d:%d:%d:%s", strings.ToLower(strings.TrimSpace(f.Query)), f.CityID, f.TypeID, f.CategoryID, park)

	var locations []model.Location
	if s.Cache.Get(ctx, key, &locations) {
		return locations, nil
	}
	locations, err := s.LocationRepo.List(f)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, locationCacheTag, key, locations)
	return locations, nil
}

func (s *LocationService) Cities(ctx context.Context, p access.Principal) ([]model.City, error) {
	if err := authorize(p, groups(access.GroupPark)); err != nil {
		return nil, err
	}
	var cities []model.City
	if s.Cache.Get(ctx, "cities", &cities) {
		return cities, nil
	}
	cities, err := s.LocationRepo.Cities()
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, locationCacheTag, "cities", cities)
	return cities, nil
}

func (s *LocationService) AdministrativeUnits(p access.Principal, cityID uint) ([]model.AdministrativeUnit, error) {
	if err := authorize(p, groups(access.GroupPark)); err != nil {
		return nil, err
	}
	return s.LocationRepo.AdministrativeUnits(cityID)
}

// Delete refuses while assessments exist and reports what uses the location.
func (s *LocationService) Delete(ctx context.Context, p access.Principal, id uint) error {
	if err := authorize(p, roles(access.ParkManager)); err != nil {
		return err
	}
	if _, err := s.LocationRepo.FindByID(id); err != nil {
		return lookup("location", err)
	}
	usage, err := s.LocationRepo.Usage(id)
	if err != nil {
		return err
	}
	if usage.Assessments > 0 {
		return &util.DetailedError{Err: util.ErrLocationInUse, Data: usage}
	}
	if err := s.LocationRepo.Delete(id); err != nil {
		return lookup("location", err)
	}
	s.Cache.Invalidate(ctx, locationCacheTag)
	return nil
}

// SetPolygonFromShapefile reads the zipped shapefile at zipPath, stores its
// polygons and keeps the archive in object storage.
func (s *LocationService) SetPolygonFromShapefile(ctx context.Context, p access.Principal, id uint, zipPath string) (*LocationPolygon, error) {
	if err := authorize(p, roles(access.ParkManager)); err != nil {
		return nil, err
	}
	if _, err := s.LocationRepo.FindByID(id); err != nil {
		return nil, lookup("location", err)
	}
	boundary, err := geometry.ReadShapefileZip(zipPath)
	if err != nil {
		return nil, util.Invalid("file", "%v", err)
	}

	var url *string
	if s.Storage != nil {
		stored, err := s.Storage.UploadFile(ctx, ShapefileName(id), zipPath, util.MimeZip)
		if err != nil {
			// the polygon is still usable without the archive
			logger.Log.Warn("Failed to store shapefile", zap.Uint("location", id), zap.Error(err))
		} else {
			url = &stored
		}
	}
	return s.storePolygon(ctx, id, boundary, url)
}

func (s *LocationService) SetPolygonFromWKT(ctx context.Context, p access.Principal, id uint, wkt string) (*LocationPolygon, error) {
	if err := authorize(p, roles(access.ParkManager)); err != nil {
		return nil, err
	}
	boundary, err := geometry.ParsePolygonWKT(wkt)
	if err != nil {
		return nil, util.Invalid("wkt", "%v", err)
	}
	return s.storePolygon(ctx, id, boundary, nil)
}

func (s *LocationService) storePolygon(ctx context.Context, id uint, b *geometry.Boundary, url *string) (*LocationPolygon, error) {
	if err := s.LocationRepo.SetPolygon(id, b.WKT, b.Area, url); err != nil {
		return nil, lookup("location", err)
	}
	s.Cache.Invalidate(ctx, locationCacheTag)
	area := b.Area
	return &LocationPolygon{LocationID: id, WKT: b.WKT, Area: &area}, nil
}

func (s *LocationService) Polygon(p access.Principal, id uint) (*LocationPolygon, error) {
	if err := authorize(p, groups(access.GroupPark)); err != nil {
		return nil, err
	}
	loc, err := s.LocationRepo.FindByID(id)
	if err != nil {
		return nil, lookup("location", err)
	}
	wkt, err := s.LocationRepo.PolygonWKT(id)
	if err != nil {
		return nil, lookup("location", err)
	}
	if wkt == "" {
		return nil, fmt.Errorf("polygon of location %d: %w", id, util.ErrNotFound)
	}
	return &LocationPolygon{LocationID: id, WKT: wkt, Area: loc.PolygonArea}, nil
}

func (s *LocationService) ClearPolygon(ctx context.Context, p access.Principal, id uint) error {
	if err := authorize(p, roles(access.ParkManager)); err != nil {
		return err
	}
	if err := s.LocationRepo.ClearPolygon(id); err != nil {
		return lookup("location", err)
	}
	s.Cache.Invalidate(ctx, locationCacheTag)
	return nil
}
