package services

import (
	"errors"
	"strings"
	"time"

	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/internal/utils"
	"github.com/samvad/campus/backend/pkg/logger"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

// AuthService handles signup, credential login and the two federated login
// paths (Google, campus LDAP). All three creation paths assign the initial
// role through RoleForEmail.
type AuthService struct {
	db          *gorm.DB
	jwtConfig   *config.JWTConfig
	superAdmins map[string]struct{}
	google      *GoogleService
	ldap        *LDAPService
	ldapEnabled bool
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	admins := make(map[string]struct{}, len(cfg.SuperAdmins))
	for _, email := range cfg.SuperAdmins {
		admins[strings.ToLower(email)] = struct{}{}
	}
	return &AuthService{
		db:          db,
		jwtConfig:   &cfg.JWT,
		superAdmins: admins,
		google:      NewGoogleService(&cfg.Google),
		ldap:        NewLDAPService(&cfg.LDAP),
		ldapEnabled: cfg.LDAP.Enabled,
	}
}

// RoleForEmail maps an email to its initial role: whitelisted addresses
// become super_admin, everyone else a student. Pure; club_admin is never
// assigned at signup.
func (s *AuthService) RoleForEmail(email string) models.Role {
	if _, ok := s.superAdmins[strings.ToLower(email)]; ok {
		return models.RoleSuperAdmin
	}
	return models.RoleStudent
}

type SignupRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	FullName        string `json:"full_name" binding:"required"`
	WhatsAppNumber  string `json:"whatsapp_number"`
	WhatsAppConsent bool   `json:"whatsapp_consent"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

type LDAPLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpireAt    time.Time `json:"expire_at"`
}

// Signup creates a new local principal and logs it in.
func (s *AuthService) Signup(req *SignupRequest) (*models.User, *TokenResponse, error) {
	var existing models.User
	err := s.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, nil, response.NewConflict("user with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	role := s.RoleForEmail(req.Email)
	if role == models.RoleSuperAdmin {
		logger.Warn().Str("email", req.Email).Msg("super admin granted by signup whitelist")
	}

	user := models.User{
		Email:           req.Email,
		FullName:        req.FullName,
		Password:        hash,
		Role:            role,
		AuthType:        "local",
		WhatsAppNumber:  req.WhatsAppNumber,
		WhatsAppConsent: req.WhatsAppConsent,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, nil, err
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return nil, nil, err
	}
	return &user, token, nil
}

// Login authenticates against the local credential store and issues a token.
func (s *AuthService) Login(req *LoginRequest) (*TokenResponse, error) {
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("incorrect email or password")
		}
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, response.NewUnauthorized("incorrect email or password")
	}

	return s.issueToken(&user)
}

// GoogleLogin verifies a Google access token, creating the principal on
// first login with the whitelist-derived role.
func (s *AuthService) GoogleLogin(req *GoogleLoginRequest) (*TokenResponse, error) {
	profile, err := s.google.VerifyAccessToken(req.Token)
	if err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error().Err(err).Msg("google userinfo lookup failed")
		return nil, response.NewServiceUnavailable("failed to verify Google token")
	}

	user, err := s.findOrCreateFederated(profile.Email, profile.Name, "google")
	if err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

// LDAPLogin authenticates against the campus directory, creating the
// principal on first login with the whitelist-derived role.
func (s *AuthService) LDAPLogin(req *LDAPLoginRequest) (*TokenResponse, error) {
	if !s.ldapEnabled {
		return nil, response.NewBadRequest("directory login is not enabled")
	}

	entry, err := s.ldap.Authenticate(req.Username, req.Password)
	if err != nil {
		return nil, response.NewUnauthorized("invalid directory credentials")
	}
	if entry.Email == "" {
		return nil, response.NewBadRequest("directory account has no email address")
	}

	user, err := s.findOrCreateFederated(entry.Email, entry.DisplayName, "ldap")
	if err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

func (s *AuthService) findOrCreateFederated(email, name, authType string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		// Federated accounts get an unusable placeholder credential.
		placeholder, hashErr := utils.HashPassword("federated:" + email + ":" + time.Now().String())
		if hashErr != nil {
			return nil, hashErr
		}
		role := s.RoleForEmail(email)
		if role == models.RoleSuperAdmin {
			logger.Warn().Str("email", email).Str("auth_type", authType).Msg("super admin granted by signup whitelist")
		}
		user = models.User{
			Email:    email,
			FullName: name,
			Password: placeholder,
			Role:     role,
			AuthType: authType,
		}
		if createErr := s.db.Create(&user).Error; createErr != nil {
			return nil, createErr
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) issueToken(user *models.User) (*TokenResponse, error) {
	token, err := utils.GenerateToken(user.ID, user.Email, string(user.Role), s.jwtConfig.ExpireHour)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.Model(user).Update("last_login", now)

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpireAt:    now.Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour),
	}, nil
}

type UpdateProfileRequest struct {
	FullName        *string `json:"full_name" binding:"omitempty,max=200"`
	WhatsAppConsent *bool   `json:"whatsapp_consent"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// UpdateProfile edits the caller's own account fields.
func (s *AuthService) UpdateProfile(caller *models.User, req *UpdateProfileRequest) (*models.User, error) {
	if req.FullName != nil {
		caller.FullName = *req.FullName
	}
	if req.WhatsAppConsent != nil {
		caller.WhatsAppConsent = *req.WhatsAppConsent
	}
	if err := s.db.Save(caller).Error; err != nil {
		return nil, err
	}
	return caller, nil
}

// ChangePassword rotates the caller's local credential. Federated accounts
// have no usable password to verify against.
func (s *AuthService) ChangePassword(caller *models.User, req *ChangePasswordRequest) error {
	if caller.AuthType != "local" {
		return response.NewBadRequest("password login is not enabled for this account")
	}
	if !utils.CheckPassword(req.OldPassword, caller.Password) {
		return response.NewUnauthorized("incorrect password")
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.Model(caller).Update("password", hash).Error
}

// GetUserByID retrieves a user by ID.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}
