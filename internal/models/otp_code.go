package models

import "time"

// OTPCode is a short-lived one-time code keyed by phone number. Codes are
// persisted rather than held in process memory so verification survives
// restarts and works across instances; expired rows are swept by a cron job.
type OTPCode struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	PhoneNumber string     `gorm:"index;size:32;not null" json:"phone_number"`
	Code        string     `gorm:"size:12;not null" json:"-"`
	DeliveryID  string     `gorm:"size:64" json:"delivery_id"` // gateway message id for tracing
	ExpiresAt   time.Time  `gorm:"index;not null" json:"expires_at"`
	ConsumedAt  *time.Time `json:"consumed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (OTPCode) TableName() string { return "otp_codes" }

// Usable reports whether the code can still be redeemed at the given time.
func (o *OTPCode) Usable(now time.Time) bool {
	return o.ConsumedAt == nil && now.Before(o.ExpiresAt)
}
