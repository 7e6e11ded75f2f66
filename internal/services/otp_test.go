package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/internal/models"
	"gorm.io/gorm"
)

func newTestOTPService(t *testing.T) (*OTPService, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	// Gateway disabled, so Send is a no-op and nothing leaves the process.
	notifier := NewNotificationService(db, config.WhatsAppConfig{Enabled: false})
	return NewOTPService(db, notifier), db
}

func TestOTPRequestAndVerify(t *testing.T) {
	svc, db := newTestOTPService(t)
	user := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	phone := "+919876543210"

	if err := svc.Request(user, &RequestOTPRequest{PhoneNumber: phone}); err != nil {
		t.Fatalf("Request: %v", err)
	}

	var otp models.OTPCode
	if err := db.Where("phone_number = ?", phone).First(&otp).Error; err != nil {
		t.Fatalf("issued code must be persisted: %v", err)
	}
	if len(otp.Code) != otpLength {
		t.Errorf("code length = %d, want %d", len(otp.Code), otpLength)
	}

	err := svc.Verify(user, &VerifyOTPRequest{PhoneNumber: phone, Code: "000000"})
	if otp.Code != "000000" {
		if got := appErrStatus(t, err); got != http.StatusBadRequest {
			t.Errorf("wrong code status = %d, want 400", got)
		}
	}

	if err := svc.Verify(user, &VerifyOTPRequest{PhoneNumber: phone, Code: otp.Code}); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	var verified models.User
	db.First(&verified, user.ID)
	if !verified.WhatsAppVerified || verified.WhatsAppNumber != phone {
		t.Errorf("user = %+v, want verified number %s", verified, phone)
	}

	// Consumed codes cannot be replayed.
	err = svc.Verify(user, &VerifyOTPRequest{PhoneNumber: phone, Code: otp.Code})
	if got := appErrStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("replay status = %d, want 400", got)
	}
}

func TestOTPRequest_Validation(t *testing.T) {
	svc, db := newTestOTPService(t)
	user := createTestUser(t, db, "s@campus.edu", models.RoleStudent)

	for _, phone := range []string{"9876543210", "+0123", "not-a-number", ""} {
		err := svc.Request(user, &RequestOTPRequest{PhoneNumber: phone})
		if got := appErrStatus(t, err); got != http.StatusBadRequest {
			t.Errorf("Request(%q) status = %d, want 400", phone, got)
		}
	}
}

func TestOTPRequest_ResendThrottle(t *testing.T) {
	svc, db := newTestOTPService(t)
	user := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	phone := "+919876543210"

	if err := svc.Request(user, &RequestOTPRequest{PhoneNumber: phone}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	err := svc.Request(user, &RequestOTPRequest{PhoneNumber: phone})
	if got := appErrStatus(t, err); got != http.StatusConflict {
		t.Errorf("immediate resend status = %d, want 409", got)
	}

	// A different number is not throttled by the first one.
	if err := svc.Request(user, &RequestOTPRequest{PhoneNumber: "+919876543211"}); err != nil {
		t.Errorf("unrelated number Request: %v", err)
	}
}

func TestOTPExpiry(t *testing.T) {
	svc, db := newTestOTPService(t)
	user := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	phone := "+919876543210"

	expired := models.OTPCode{
		PhoneNumber: phone,
		Code:        "123456",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired code: %v", err)
	}

	err := svc.Verify(user, &VerifyOTPRequest{PhoneNumber: phone, Code: "123456"})
	if got := appErrStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("expired code status = %d, want 400", got)
	}

	swept, err := svc.SweepExpired()
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}
	var remaining int64
	db.Model(&models.OTPCode{}).Count(&remaining)
	if remaining != 0 {
		t.Errorf("rows remaining = %d, want 0", remaining)
	}
}

func TestSetConsent(t *testing.T) {
	svc, db := newTestOTPService(t)
	user := createTestUser(t, db, "s@campus.edu", models.RoleStudent)

	err := svc.SetConsent(user, true)
	if got := appErrStatus(t, err); got != http.StatusConflict {
		t.Errorf("consent before verification status = %d, want 409", got)
	}

	user.WhatsAppVerified = true
	if err := svc.SetConsent(user, true); err != nil {
		t.Fatalf("SetConsent: %v", err)
	}

	var updated models.User
	db.First(&updated, user.ID)
	if !updated.WhatsAppConsent {
		t.Error("consent flag must be persisted")
	}
}
