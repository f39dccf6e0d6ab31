package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/config"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"

	"gorm.io/gorm"
)

// InviteLink is an invite together with the registration link sent to the
// invitee.
type InviteLink struct {
	*model.Invite
	Link string `json:"link"`
}

type InviteService struct {
	InviteRepo *repository.InviteRepository
	UserRepo   *repository.UserRepository
	Cfg        *config.InviteConfig
	now        func() time.Time
}

func NewInviteService(inviteRepo *repository.InviteRepository, userRepo *repository.UserRepository, cfg *config.InviteConfig) *InviteService {
	return &InviteService{
		InviteRepo: inviteRepo,
		UserRepo:   userRepo,
		Cfg:        cfg,
		now:        time.Now,
	}
}

// checkInviteRoles requires a park role whenever any role is granted.
func checkInviteRoles(rs []access.Role) error {
	if len(rs) == 0 {
		return nil
	}
	if !access.ContainsAny(rs, groups(access.GroupPark)) {
		return util.Invalid("roles", "a park role is required")
	}
	return nil
}

func newInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *InviteService) link(invite *model.Invite) InviteLink {
	return InviteLink{Invite: invite, Link: s.Cfg.BaseURL + "?token=" + url.QueryEscape(invite.Token)}
}

func (s *InviteService) Create(p access.Principal, email string, names []string) (*InviteLink, error) {
	if err := authorize(p, roles(access.UserManager)); err != nil {
		return nil, err
	}
	email = util.NormalizeEmail(email)
	if email == "" {
		return nil, util.Invalid("email", "email is required")
	}
	rs, err := ParseRoles(names)
	if err != nil {
		return nil, err
	}
	if err := checkInviteRoles(rs); err != nil {
		return nil, err
	}

	exists, err := s.UserRepo.EmailExists(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrEmailInUse
	}
	if _, err := s.InviteRepo.FindByEmail(email); err == nil {
		return nil, fmt.Errorf("invite for %s: %w", email, util.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}
	invite := &model.Invite{
		Email:     email,
		Token:     token,
		Roles:     rs,
		ExpiresAt: s.now().AddDate(0, 0, s.Cfg.ExpireDays),
	}
	if err := s.InviteRepo.Create(invite); err != nil {
		return nil, err
	}
	l := s.link(invite)
	return &l, nil
}

func (s *InviteService) UpdateRoles(p access.Principal, id uint, names []string) (*model.Invite, error) {
	if err := authorize(p, roles(access.UserManager)); err != nil {
		return nil, err
	}
	rs, err := ParseRoles(names)
	if err != nil {
		return nil, err
	}
	if err := checkInviteRoles(rs); err != nil {
		return nil, err
	}
	invite, err := s.InviteRepo.FindByID(id)
	if err != nil {
		return nil, lookup("invite", err)
	}
	if err := s.InviteRepo.UpdateRoles(id, rs); err != nil {
		return nil, err
	}
	invite.Roles = rs
	return invite, nil
}

func (s *InviteService) List(p access.Principal) ([]InviteLink, error) {
	if err := authorize(p, roles(access.UserManager)); err != nil {
		return nil, err
	}
	invites, err := s.InviteRepo.List()
	if err != nil {
		return nil, err
	}
	links := make([]InviteLink, len(invites))
	for i := range invites {
		links[i] = s.link(&invites[i])
	}
	return links, nil
}

func (s *InviteService) Delete(p access.Principal, id uint) error {
	if err := authorize(p, roles(access.UserManager)); err != nil {
		return err
	}
	if _, err := s.InviteRepo.FindByID(id); err != nil {
		return lookup("invite", err)
	}
	return s.InviteRepo.Delete(id)
}
