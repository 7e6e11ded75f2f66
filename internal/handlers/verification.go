package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/services"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

// VerificationHandler covers WhatsApp number verification and notification
// consent.
type VerificationHandler struct {
	db      *gorm.DB
	service *services.OTPService
}

func NewVerificationHandler(db *gorm.DB, otp *services.OTPService) *VerificationHandler {
	return &VerificationHandler{db: db, service: otp}
}

// RequestOTP sends a verification code to a phone number
// POST /api/verification/request
func (h *VerificationHandler) RequestOTP(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	var req services.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Request(user, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "verification code sent"})
}

// VerifyOTP redeems a code and marks the number verified
// POST /api/verification/verify
func (h *VerificationHandler) VerifyOTP(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	var req services.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Verify(user, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "number verified"})
}

// SetConsent records the caller's notification preference
// PUT /api/verification/consent
func (h *VerificationHandler) SetConsent(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	var req struct {
		Consent *bool `json:"consent" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.SetConsent(user, *req.Consent); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"consent": *req.Consent})
}
