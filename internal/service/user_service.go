package service

import (
	"errors"
	"strings"

	"pracas_backend/internal/access"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"

	"gorm.io/gorm"
)

// UserService manages accounts and their roles.
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) Search(p access.Principal, f repository.UserFilter) ([]model.User, int64, error) {
	if err := authorize(p, groups(access.GroupUser)); err != nil {
		return nil, 0, err
	}
	f.Page, f.Limit = util.Page(f.Page, f.Limit)
	return s.UserRepo.Search(f)
}

func (s *UserService) Get(p access.Principal, id uint) (*model.User, error) {
	if p.UserID != id {
		if err := authorize(p, groups(access.GroupUser)); err != nil {
			return nil, err
		}
	}
	user, err := s.UserRepo.FindByID(id)
	return user, lookup("user", err)
}

// ParseRoles validates role names.
func ParseRoles(names []string) ([]access.Role, error) {
	parsed := make([]access.Role, 0, len(names))
	for _, name := range names {
		r, err := access.ParseRole(name)
		if err != nil {
			return nil, util.Invalid("roles", "%v", err)
		}
		parsed = append(parsed, r)
	}
	return parsed, nil
}

func (s *UserService) UpdateRoles(p access.Principal, id uint, names []string) (*model.User, error) {
	if err := authorize(p, roles(access.UserManager)); err != nil {
		return nil, err
	}
	parsed, err := ParseRoles(names)
	if err != nil {
		return nil, err
	}
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		return nil, lookup("user", err)
	}
	if err := s.UserRepo.UpdateRoles(id, parsed); err != nil {
		return nil, err
	}
	user.Roles = parsed
	return user, nil
}

func (s *UserService) SetActive(p access.Principal, id uint, active bool) error {
	if err := authorize(p, roles(access.UserManager)); err != nil {
		return err
	}
	if p.UserID == id && !active {
		return util.Invalid("active", "users cannot deactivate themselves")
	}
	if _, err := s.UserRepo.FindByID(id); err != nil {
		return lookup("user", err)
	}
	return s.UserRepo.SetActive(id, active)
}

// UpdateUsername changes the caller's own username.
func (s *UserService) UpdateUsername(p access.Principal, username string) error {
	if p.IsZero() {
		return util.ErrPermissionDenied
	}
	username = strings.TrimSpace(username)
	if !util.ValidUsername(username) {
		return util.Invalid("username", "use lowercase letters, digits and '.'")
	}
	other, err := s.UserRepo.FindByUsername(username)
	switch {
	case err == nil && other.ID != p.UserID:
		return util.ErrUsernameTaken
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return s.UserRepo.UpdateUsername(p.UserID, username)
}
