package model

import (
	"time"

	"pracas_backend/internal/access"
)

// swagger:model User
type User struct {
	BaseModel
	Email    string        `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name     string        `gorm:"size:255;not null" json:"name"`
	Username *string       `gorm:"size:255;uniqueIndex" json:"username"`
	Password string        `gorm:"size:100;not null" json:"-"`
	Roles    []access.Role `gorm:"type:text;serializer:json" json:"roles"`
	Active   bool          `gorm:"not null;default:true" json:"active"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Principal() access.Principal {
	return access.Principal{UserID: u.ID, Email: u.Email, Roles: u.Roles}
}

// swagger:model Invite
type Invite struct {
	BaseModel
	Email     string        `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Token     string        `gorm:"size:64;uniqueIndex;not null" json:"token"`
	Roles     []access.Role `gorm:"type:text;serializer:json" json:"roles"`
	ExpiresAt time.Time     `gorm:"not null" json:"expiresAt"`
}

func (Invite) TableName() string {
	return "invites"
}

func (i *Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
