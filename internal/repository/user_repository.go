package repository

import (
	"errors"
	"strings"

	"pracas_backend/internal/access"
	"pracas_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) IsActive(userID uint) (bool, error) {
	var user model.User
	err := r.DB.Select("id", "active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return user.Active, err
}

func (r *UserRepository) UpdateRoles(userID uint, roles []access.Role) error {
	return r.DB.Model(&model.User{BaseModel: model.BaseModel{ID: userID}}).
		Select("roles").
		Updates(&model.User{Roles: roles}).Error
}

func (r *UserRepository) SetActive(userID uint, active bool) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Update("active", active).Error
}

func (r *UserRepository) UpdateUsername(userID uint, username string) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Update("username", username).Error
}

type UserFilter struct {
	Query string
	// Sort is one of name, email, username or createdAt.
	Sort  string
	Desc  bool
	Page  int
	Limit int
}

var userSortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"username":  "username",
	"createdAt": "created_at",
}

func (r *UserRepository) Search(f UserFilter) ([]model.User, int64, error) {
	q := r.DB.Model(&model.User{})
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(username) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := userSortColumns[f.Sort]
	if !ok {
		col = "name"
	}
	if f.Desc {
		col += " DESC"
	}

	var users []model.User
	err := q.Order(col).Order("id").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&users).Error
	return users, total, err
}
