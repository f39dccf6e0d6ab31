package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pracas_backend/internal/model"
	"pracas_backend/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocationRefs names the lookup rows a location points to. Empty names leave
// the reference unset.
type LocationRefs struct {
	CityName         string
	State            string
	NarrowUnit       string
	IntermediateUnit string
	BroadUnit        string
	TypeName         string
	CategoryName     string
}

type LocationFilter struct {
	Query      string
	CityID     uint
	TypeID     uint
	CategoryID uint
	IsPark     *bool
}

// LocationUsage describes what still points to a location.
type LocationUsage struct {
	Assessments int64            `json:"assessments"`
	Tallies     int64            `json:"tallies"`
	Forms       map[string][]int `json:"forms"`
}

type LocationRepository struct {
	DB      *gorm.DB
	Spatial database.Spatial
}

func NewLocationRepository(db *gorm.DB, spatial database.Spatial) *LocationRepository {
	return &LocationRepository{DB: db, Spatial: spatial}
}

// Save creates or updates loc and upserts its city, administrative units,
// type and category in one transaction.
func (r *LocationRepository) Save(loc *model.Location, refs LocationRefs) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := resolveRefs(tx, loc, refs); err != nil {
			return err
		}
		if loc.ID == 0 {
			return tx.Omit(clause.Associations).Create(loc).Error
		}
		return tx.Omit(clause.Associations).Save(loc).Error
	})
}

func resolveRefs(tx *gorm.DB, loc *model.Location, refs LocationRefs) error {
	loc.City, loc.Type, loc.Category = nil, nil, nil
	loc.NarrowAdministrativeUnit, loc.IntermediateAdministrativeUnit, loc.BroadAdministrativeUnit = nil, nil, nil
	loc.CityID, loc.TypeID, loc.CategoryID = nil, nil, nil
	loc.NarrowAdministrativeUnitID, loc.IntermediateAdministrativeUnitID, loc.BroadAdministrativeUnitID = nil, nil, nil

	if refs.CityName != "" {
		city := model.City{Name: refs.CityName, State: refs.State}
		if err := tx.Where(&city).FirstOrCreate(&city).Error; err != nil {
			return fmt.Errorf("upsert city: %w", err)
		}
		loc.CityID = &city.ID

		units := []struct {
			level model.AdministrativeLevel
			name  string
			dst   **uint
		}{
			{model.NarrowUnit, refs.NarrowUnit, &loc.NarrowAdministrativeUnitID},
			{model.IntermediateUnit, refs.IntermediateUnit, &loc.IntermediateAdministrativeUnitID},
			{model.BroadUnit, refs.BroadUnit, &loc.BroadAdministrativeUnitID},
		}
		for _, u := range units {
			if u.name == "" {
				continue
			}
			unit := model.AdministrativeUnit{CityID: city.ID, Level: u.level, Name: u.name}
			if err := tx.Where(&unit).FirstOrCreate(&unit).Error; err != nil {
				return fmt.Errorf("upsert %s administrative unit: %w", strings.ToLower(string(u.level)), err)
			}
			id := unit.ID
			*u.dst = &id
		}
	}

	if refs.TypeName != "" {
		t := model.LocationType{Name: refs.TypeName}
		if err := tx.Where(&t).FirstOrCreate(&t).Error; err != nil {
			return fmt.Errorf("upsert location type: %w", err)
		}
		loc.TypeID = &t.ID
	}
	if refs.CategoryName != "" {
		c := model.LocationCategory{Name: refs.CategoryName}
		if err := tx.Where(&c).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("upsert location category: %w", err)
		}
		loc.CategoryID = &c.ID
	}
	return nil
}

func (r *LocationRepository) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("City").
		Preload("NarrowAdministrativeUnit").
		Preload("IntermediateAdministrativeUnit").
		Preload("BroadAdministrativeUnit").
		Preload("Type").
		Preload("Category")
}

func (r *LocationRepository) FindByID(id uint) (*model.Location, error) {
	var loc model.Location
	err := r.preload(r.DB).First(&loc, id).Error
	return &loc, err
}

func (r *LocationRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Location{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *LocationRepository) List(f LocationFilter) ([]model.Location, error) {
	q := r.preload(r.DB.Model(&model.Location{}))
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(popular_name) LIKE ?", like, like)
	}
	if f.CityID != 0 {
		q = q.Where("city_id = ?", f.CityID)
	}
	if f.TypeID != 0 {
		q = q.Where("type_id = ?", f.TypeID)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.IsPark != nil {
		q = q.Where("is_park = ?", *f.IsPark)
	}

	var locations []model.Location
	err := q.Order("name").Order("id").Find(&locations).Error
	return locations, err
}

func (r *LocationRepository) Cities() ([]model.City, error) {
	var cities []model.City
	err := r.DB.Order("state").Order("name").Find(&cities).Error
	return cities, err
}

func (r *LocationRepository) AdministrativeUnits(cityID uint) ([]model.AdministrativeUnit, error) {
	var units []model.AdministrativeUnit
	err := r.DB.Where("city_id = ?", cityID).Order("level").Order("name").Find(&units).Error
	return units, err
}

// SetPolygon stores a polygon given as WKT together with its area.
func (r *LocationRepository) SetPolygon(id uint, wkt string, area float64, shapefileURL *string) error {
	stmt := fmt.Sprintf("UPDATE locations SET polygon = %s, polygon_area = ?, shapefile_url = ?, updated_at = ? WHERE id = ?", r.Spatial.FromText())
	res := r.DB.Exec(stmt, wkt, area, shapefileURL, time.Now(), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *LocationRepository) ClearPolygon(id uint) error {
	res := r.DB.Exec("UPDATE locations SET polygon = NULL, polygon_area = NULL, shapefile_url = NULL, updated_at = ? WHERE id = ?", time.Now(), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PolygonWKT returns the stored polygon, or "" when the location has none.
func (r *LocationRepository) PolygonWKT(id uint) (string, error) {
	var wkt sql.NullString
	row := r.DB.Raw(fmt.Sprintf("SELECT %s FROM locations WHERE id = ?", r.Spatial.AsText("polygon")), id).Row()
	if err := row.Scan(&wkt); err != nil {
		if err == sql.ErrNoRows {
			return "", gorm.ErrRecordNotFound
		}
		return "", err
	}
	return wkt.String, nil
}

func (r *LocationRepository) Usage(id uint) (*LocationUsage, error) {
	usage := &LocationUsage{Forms: map[string][]int{}}
	if err := r.DB.Model(&model.Assessment{}).Where("location_id = ?", id).Count(&usage.Assessments).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.Tally{}).Where("location_id = ?", id).Count(&usage.Tallies).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Name    string
		Version int
	}
	err := r.DB.Model(&model.Assessment{}).
		Select("DISTINCT forms.name, forms.version").
		Joins("JOIN forms ON forms.id = assessments.form_id").
		Where("assessments.location_id = ?", id).
		Order("forms.name").Order("forms.version").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		usage.Forms[row.Name] = append(usage.Forms[row.Name], row.Version)
	}
	return usage, nil
}

// Delete removes the location and its tallies. Callers check Usage first.
func (r *LocationRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		tallyIDs := tx.Model(&model.Tally{}).Select("id").Where("location_id = ?", id)
		if err := tx.Where("tally_id IN (?)", tallyIDs).Delete(&model.TallyPerson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("location_id = ?", id).Delete(&model.Tally{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Location{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
