package repository

import (
	"time"

	"pracas_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TallyRepository struct {
	DB *gorm.DB
}

func NewTallyRepository(db *gorm.DB) *TallyRepository {
	return &TallyRepository{DB: db}
}

func (r *TallyRepository) Create(t *model.Tally) error {
	return r.DB.Omit(clause.Associations).Create(t).Error
}

func (r *TallyRepository) FindByID(id uint) (*model.Tally, error) {
	var t model.Tally
	err := r.DB.Preload("People", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(&t, id).Error
	return &t, err
}

func (r *TallyRepository) FindByIDs(ids []uint) ([]model.Tally, error) {
	var list []model.Tally
	err := r.DB.Preload("People").Where("id IN ?", ids).Order("id").Find(&list).Error
	return list, err
}

// FindInLocation returns gorm.ErrRecordNotFound when the tally does not
// belong to the location.
func (r *TallyRepository) FindInLocation(locationID, id uint) (*model.Tally, error) {
	var t model.Tally
	err := r.DB.Where("location_id = ?", locationID).First(&t, id).Error
	return &t, err
}

func (r *TallyRepository) ListByLocation(locationID uint) ([]model.Tally, error) {
	var list []model.Tally
	err := r.DB.Preload("People").Where("location_id = ?", locationID).
		Order("start_date DESC").Order("id DESC").Find(&list).Error
	return list, err
}

// AddPeople adds person.Quantity to the counter of the person's profile,
// creating the counter on first use.
func (r *TallyRepository) AddPeople(person *model.TallyPerson) error {
	columns := make([]clause.Column, len(model.ProfileColumns))
	for i, name := range model.ProfileColumns {
		columns[i] = clause.Column{Name: name}
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns: columns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("tally_people.quantity + ?", person.Quantity),
			"updated_at": time.Now(),
		}),
	}).Create(person).Error
}

func (r *TallyRepository) SetEndDate(t *model.Tally) error {
	return r.DB.Model(t).Select("end_date").Updates(t).Error
}

func (r *TallyRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tally_id = ?", id).Delete(&model.TallyPerson{}).Error; err != nil {
			return err
		}
		return deleteOne(tx, &model.Tally{}, id)
	})
}
