package repository

import (
	"pracas_backend/internal/access"
	"pracas_backend/internal/model"

	"gorm.io/gorm"
)

type InviteRepository struct {
	DB *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{DB: db}
}

func (r *InviteRepository) Create(invite *model.Invite) error {
	return r.DB.Create(invite).Error
}

func (r *InviteRepository) FindByID(id uint) (*model.Invite, error) {
	var invite model.Invite
	err := r.DB.First(&invite, id).Error
	return &invite, err
}

func (r *InviteRepository) FindByToken(token string) (*model.Invite, error) {
	var invite model.Invite
	err := r.DB.Where("token = ?", token).First(&invite).Error
	return &invite, err
}

func (r *InviteRepository) FindByEmail(email string) (*model.Invite, error) {
	var invite model.Invite
	err := r.DB.Where("email = ?", email).First(&invite).Error
	return &invite, err
}

func (r *InviteRepository) List() ([]model.Invite, error) {
	var invites []model.Invite
	err := r.DB.Order("created_at DESC").Find(&invites).Error
	return invites, err
}

func (r *InviteRepository) UpdateRoles(id uint, roles []access.Role) error {
	return r.DB.Model(&model.Invite{BaseModel: model.BaseModel{ID: id}}).
		Select("roles").
		Updates(&model.Invite{Roles: roles}).Error
}

func (r *InviteRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Invite{}, id).Error
}

// Accept creates the user and consumes the invite in one transaction.
func (r *InviteRepository) Accept(invite *model.Invite, user *model.User) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Invite{}, invite.ID).Error
	})
}
