package models

import (
	"time"

	"gorm.io/gorm"
)

// RoleRequestStatus is the lifecycle state of a role upgrade request.
// Approved and rejected are terminal; there is no transition out of either.
type RoleRequestStatus string

const (
	RoleRequestPending  RoleRequestStatus = "pending"
	RoleRequestApproved RoleRequestStatus = "approved"
	RoleRequestRejected RoleRequestStatus = "rejected"
)

// Terminal reports whether no further transition is permitted.
func (s RoleRequestStatus) Terminal() bool {
	return s == RoleRequestApproved || s == RoleRequestRejected
}

// RoleRequest records a student's request to become a club admin.
//
// Invariants enforced by RoleRequestService:
//   - at most one pending request per requester at any time
//   - requested_role is always club_admin
//   - reviewer fields are set exactly when status leaves pending
type RoleRequest struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UserID        uint              `gorm:"index;not null" json:"user_id"`
	User          *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RequestedRole Role              `gorm:"size:50;index;not null" json:"requested_role"`
	CurrentRole   Role              `gorm:"size:50;not null" json:"current_role"` // snapshot at submission
	Reason        string            `gorm:"size:1000;not null" json:"reason"`
	Status        RoleRequestStatus `gorm:"size:20;default:pending;index" json:"status"`
	ReviewedAt    *time.Time        `json:"reviewed_at"`
	ReviewedByID  *uint             `gorm:"index" json:"reviewed_by_id"`
	ReviewedBy    *User             `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
	AdminNotes    string            `gorm:"size:1000" json:"admin_notes"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (RoleRequest) TableName() string { return "role_requests" }
