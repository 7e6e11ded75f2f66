package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/logger"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

const (
	otpLength       = 6
	otpTTL          = 5 * time.Minute
	otpResendWindow = 60 * time.Second
)

var phonePattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// OTPService verifies WhatsApp numbers with one-time codes. Codes live in
// the otp_codes table; issuing a new code invalidates the previous one for
// the same number.
type OTPService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewOTPService(db *gorm.DB, notifier *NotificationService) *OTPService {
	return &OTPService{db: db, notifier: notifier}
}

type RequestOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Code        string `json:"code" binding:"required,len=6"`
}

// Request issues a code and sends it to the number over WhatsApp. The send
// is synchronous here: if the gateway is down the caller must know, since
// no code will ever arrive.
func (s *OTPService) Request(caller *models.User, req *RequestOTPRequest) error {
	if !phonePattern.MatchString(req.PhoneNumber) {
		return response.NewBadRequest("phone number must be in international format, e.g. +919876543210")
	}

	// Per-number resend throttle, independent of the IP rate limiter.
	var recent int64
	cutoff := time.Now().Add(-otpResendWindow)
	if err := s.db.Model(&models.OTPCode{}).
		Where("phone_number = ? AND created_at > ?", req.PhoneNumber, cutoff).
		Count(&recent).Error; err != nil {
		return err
	}
	if recent > 0 {
		return response.NewConflict("a code was sent recently, wait a minute before retrying")
	}

	code, err := generateOTP(otpLength)
	if err != nil {
		return err
	}

	deliveryID, err := s.notifier.Send(req.PhoneNumber,
		fmt.Sprintf("Your SAMVAD verification code is %s. It expires in 5 minutes.", code))
	if err != nil {
		logger.Error().Err(err).Msg("otp delivery failed")
		return response.NewServiceUnavailable("could not deliver the verification code")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Any earlier unused codes for this number die with the new issue.
		now := time.Now()
		if err := tx.Model(&models.OTPCode{}).
			Where("phone_number = ? AND consumed_at IS NULL", req.PhoneNumber).
			Update("expires_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.OTPCode{
			PhoneNumber: req.PhoneNumber,
			Code:        code,
			DeliveryID:  deliveryID,
			ExpiresAt:   now.Add(otpTTL),
		}).Error
	})
}

// Verify redeems a code, marking the caller's number verified on success.
func (s *OTPService) Verify(caller *models.User, req *VerifyOTPRequest) error {
	var otp models.OTPCode
	err := s.db.Where("phone_number = ? AND code = ?", req.PhoneNumber, req.Code).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NewBadRequest("invalid verification code")
		}
		return err
	}

	now := time.Now()
	if !otp.Usable(now) {
		return response.NewBadRequest("this code has expired, request a new one")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&otp).Update("consumed_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", caller.ID).
			Updates(map[string]interface{}{
				"whatsapp_number":   req.PhoneNumber,
				"whatsapp_verified": true,
			}).Error
	})
}

// SetConsent records whether the caller wants WhatsApp notifications.
func (s *OTPService) SetConsent(caller *models.User, consent bool) error {
	if !caller.WhatsAppVerified && consent {
		return response.NewConflict("verify your number before enabling notifications")
	}
	return s.db.Model(&models.User{}).
		Where("id = ?", caller.ID).
		Update("whatsapp_consent", consent).Error
}

// SweepExpired hard-deletes codes past their expiry. Run from cron.
func (s *OTPService) SweepExpired() (int64, error) {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&models.OTPCode{})
	return result.RowsAffected, result.Error
}

// generateOTP returns a zero-padded numeric code using crypto randomness.
func generateOTP(length int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
