package models

import (
	"time"

	"gorm.io/gorm"
)

// EventPhoto is an image attached to a specific event. PublicID is the opaque
// deletion handle returned by the blob store.
type EventPhoto struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ImageURL  string         `gorm:"size:500;not null" json:"image_url"`
	PublicID  string         `gorm:"size:255;not null" json:"-"`
	EventID   uint           `gorm:"index;not null" json:"event_id"`
	Event     *Event         `gorm:"foreignKey:EventID" json:"event,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (EventPhoto) TableName() string { return "event_photos" }

// GalleryPhoto lives in the shared campus-wide gallery.
type GalleryPhoto struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ImageURL     string         `gorm:"size:500;not null" json:"image_url"`
	PublicID     string         `gorm:"size:255;not null" json:"-"`
	Caption      string         `gorm:"size:500" json:"caption"`
	UploadedByID uint           `gorm:"index;not null" json:"uploaded_by_id"`
	Uploader     *User          `gorm:"foreignKey:UploadedByID" json:"uploader,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GalleryPhoto) TableName() string { return "gallery_photos" }
