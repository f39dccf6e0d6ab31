package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/config"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// swagger:model RegisterInput
type RegisterInput struct {
	Token           string `json:"token" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Name            string `json:"name" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type AuthService struct {
	UserRepo   *repository.UserRepository
	InviteRepo *repository.InviteRepository
	Cfg        *config.Config
	now        func() time.Time
}

func NewAuthService(userRepo *repository.UserRepository, inviteRepo *repository.InviteRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:   userRepo,
		InviteRepo: inviteRepo,
		Cfg:        cfg,
		now:        time.Now,
	}
}

// Login checks the credentials and returns a signed token for the user.
func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(util.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}
	if !user.Active {
		return "", nil, util.ErrInactiveUser
	}

	token, err := util.GenerateJWT(user.Principal(), s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Register creates a user from an invite and consumes the invite.
func (s *AuthService) Register(in RegisterInput) (*model.User, error) {
	invite, err := s.InviteRepo.FindByToken(in.Token)
	if err != nil {
		return nil, lookup("invite", err)
	}
	if invite.Expired(s.now()) {
		return nil, util.ErrInviteExpired
	}
	email := util.NormalizeEmail(in.Email)
	if email != util.NormalizeEmail(invite.Email) {
		return nil, util.ErrInviteEmail
	}

	verr := util.NewValidationError()
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "name is required")
	}
	if msg := util.ValidatePassword(in.Password); msg != "" {
		verr.Add("password", msg)
	}
	if in.Password != in.ConfirmPassword {
		verr.Add("confirmPassword", "passwords do not match")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	exists, err := s.UserRepo.EmailExists(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrEmailInUse
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:    email,
		Name:     strings.TrimSpace(in.Name),
		Password: hashed,
		Roles:    invite.Roles,
		Active:   true,
	}
	if err := s.InviteRepo.Accept(invite, user); err != nil {
		return nil, fmt.Errorf("accept invite: %w", err)
	}
	return user, nil
}

// CreateAdmin creates an active user holding every role. Used by the CLI.
func (s *AuthService) CreateAdmin(email, name, password string) (*model.User, error) {
	email = util.NormalizeEmail(email)
	if msg := util.ValidatePassword(password); msg != "" {
		return nil, util.Invalid("password", "%s", msg)
	}
	exists, err := s.UserRepo.EmailExists(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrEmailInUse
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: email, Name: name, Password: hashed, Roles: access.AllRoles(), Active: true}
	return user, s.UserRepo.Create(user)
}

func (s *AuthService) CurrentUser(p access.Principal) (*model.User, error) {
	user, err := s.UserRepo.FindByID(p.UserID)
	return user, lookup("user", err)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashed), err
}
