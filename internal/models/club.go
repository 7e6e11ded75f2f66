package models

import (
	"time"

	"gorm.io/gorm"
)

// Club is owned by exactly one admin principal. Coordinator and
// sub-coordinator are optional secondary delegates; all three fields are
// independent of each other and of the members list.
type Club struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Description      string         `gorm:"type:text" json:"description"`
	AdminID          uint           `gorm:"index;not null" json:"admin_id"`
	Admin            *User          `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	CoordinatorID    *uint          `gorm:"index" json:"coordinator_id"`
	SubCoordinatorID *uint          `gorm:"index" json:"sub_coordinator_id"`
	CoverImageURL    string         `gorm:"size:500" json:"cover_image_url"`
	Category         string         `gorm:"size:100;default:General;index" json:"category"`
	ContactEmail     string         `gorm:"size:255" json:"contact_email"`
	WebsiteURL       string         `gorm:"size:500" json:"website_url"`
	FoundedDate      *time.Time     `json:"founded_date"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Club) TableName() string { return "clubs" }

// Membership joins a principal to a club. The composite primary key makes the
// one-membership-per-(user, club) invariant a storage-level guarantee.
type Membership struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ClubID    uint      `gorm:"primaryKey;autoIncrement:false" json:"club_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Membership) TableName() string { return "memberships" }

// Announcement is a club-scoped notice.
type Announcement struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:300;not null" json:"title"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	ClubID    uint           `gorm:"index;not null" json:"club_id"`
	Club      *Club          `gorm:"foreignKey:ClubID" json:"club,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Announcement) TableName() string { return "announcements" }
