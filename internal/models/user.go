package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the principal's global role. Exactly three values exist; every
// switch over Role should handle all three explicitly.
type Role string

const (
	RoleStudent    Role = "student"
	RoleClubAdmin  Role = "club_admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleClubAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts a string to a Role, rejecting unknown values.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// User represents a platform principal.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Email            string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName         string         `gorm:"size:200;not null" json:"full_name"`
	Password         string         `gorm:"size:255" json:"-"` // bcrypt hash; placeholder for federated users
	Role             Role           `gorm:"size:50;default:student;index" json:"role"`
	AuthType         string         `gorm:"size:20;default:local" json:"auth_type"` // local, google, ldap
	WhatsAppNumber   string         `gorm:"column:whatsapp_number;size:32;index" json:"whatsapp_number"`
	WhatsAppVerified bool           `gorm:"column:whatsapp_verified;default:false" json:"whatsapp_verified"`
	WhatsAppConsent  bool           `gorm:"column:whatsapp_consent;default:false" json:"whatsapp_consent"`
	LastLogin        *time.Time     `json:"last_login"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// Public returns the projection safe to embed in API responses.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}
