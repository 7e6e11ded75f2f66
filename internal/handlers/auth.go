package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/internal/services"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db          *gorm.DB
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:          db,
		authService: services.NewAuthService(db, cfg),
	}
}

// Signup registers a local account
// POST /api/users/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.authService.Signup(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"user": user.Public(), "token": token})
}

// Login authenticates with email and password
// POST /api/users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.authService.Login(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, token)
}

// GoogleLogin authenticates with a Google access token
// POST /api/users/google-login
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req services.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.authService.GoogleLogin(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, token)
}

// LDAPLogin authenticates against the campus directory
// POST /api/users/ldap-login
func (h *AuthHandler) LDAPLogin(c *gin.Context) {
	var req services.LDAPLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.authService.LDAPLogin(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, token)
}

// Me returns the authenticated principal's profile
// GET /api/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	response.Success(c, user)
}

// UpdateProfile edits the caller's own account
// PUT /api/users/me
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.authService.UpdateProfile(user, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, updated)
}

// ChangePassword rotates the caller's password
// PUT /api/users/me/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ChangePassword(user, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "password updated"})
}
