package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is owned by exactly one club. Date classifies "upcoming" vs "past".
type Event struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;index;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Date        time.Time      `gorm:"index;not null" json:"date"`
	Location    string         `gorm:"size:300" json:"location"`
	ClubID      uint           `gorm:"index;not null" json:"club_id"`
	Club        *Club          `gorm:"foreignKey:ClubID" json:"club,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string { return "events" }

// Upcoming reports whether the event is in the future relative to now.
func (e *Event) Upcoming(now time.Time) bool {
	return e.Date.After(now)
}

// EventRegistration joins an attendee to an event. The composite primary key
// rejects duplicate registrations at the storage layer.
type EventRegistration struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	EventID   uint      `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (EventRegistration) TableName() string { return "event_registrations" }

// AttendanceRecord is a check-in for an event.
type AttendanceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_attendance_user_event;not null" json:"user_id"`
	EventID   uint      `gorm:"uniqueIndex:idx_attendance_user_event;not null" json:"event_id"`
	Notes     string    `gorm:"size:500" json:"notes"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AttendanceRecord) TableName() string { return "attendance_records" }
