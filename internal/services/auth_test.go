package services

import (
	"net/http"
	"testing"

	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/internal/models"
)

func newTestAuthService(t *testing.T, superAdmins ...string) *AuthService {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SuperAdmins = superAdmins
	return NewAuthService(openTestDB(t), cfg)
}

func TestRoleForEmail(t *testing.T) {
	svc := newTestAuthService(t, "dean@campus.edu", "Registrar@Campus.edu")

	tests := []struct {
		email string
		want  models.Role
	}{
		{"dean@campus.edu", models.RoleSuperAdmin},
		{"DEAN@CAMPUS.EDU", models.RoleSuperAdmin},
		{"registrar@campus.edu", models.RoleSuperAdmin},
		{"student@campus.edu", models.RoleStudent},
		{"dean@other.edu", models.RoleStudent},
		{"", models.RoleStudent},
	}

	for _, tt := range tests {
		if got := svc.RoleForEmail(tt.email); got != tt.want {
			t.Errorf("RoleForEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}

	// The mapping is stable across calls.
	if svc.RoleForEmail("dean@campus.edu") != models.RoleSuperAdmin {
		t.Error("repeated lookup must return the same role")
	}
}

func TestSignup_AssignsWhitelistRole(t *testing.T) {
	svc := newTestAuthService(t, "dean@campus.edu")

	admin, adminToken, err := svc.Signup(&SignupRequest{
		Email:    "dean@campus.edu",
		Password: "sufficiently-long",
		FullName: "Dean of Students",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if admin.Role != models.RoleSuperAdmin {
		t.Errorf("whitelisted signup role = %q, want super_admin", admin.Role)
	}
	if adminToken == nil || adminToken.AccessToken == "" {
		t.Error("signup must return a usable token")
	}

	student, _, err := svc.Signup(&SignupRequest{
		Email:    "arjun@campus.edu",
		Password: "sufficiently-long",
		FullName: "Arjun",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if student.Role != models.RoleStudent {
		t.Errorf("regular signup role = %q, want student", student.Role)
	}
	if student.Password == "sufficiently-long" {
		t.Error("password must be stored hashed")
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)

	req := &SignupRequest{
		Email:    "arjun@campus.edu",
		Password: "sufficiently-long",
		FullName: "Arjun",
	}
	if _, _, err := svc.Signup(req); err != nil {
		t.Fatalf("first Signup: %v", err)
	}

	_, _, err := svc.Signup(req)
	if got := appErrStatus(t, err); got != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", got)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	if _, _, err := svc.Signup(&SignupRequest{
		Email:    "arjun@campus.edu",
		Password: "sufficiently-long",
		FullName: "Arjun",
	}); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	token, err := svc.Login(&LoginRequest{
		Email:    "arjun@campus.edu",
		Password: "sufficiently-long",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token.AccessToken == "" || token.TokenType != "bearer" {
		t.Errorf("unexpected token response: %+v", token)
	}

	_, err = svc.Login(&LoginRequest{Email: "arjun@campus.edu", Password: "wrong-password"})
	if got := appErrStatus(t, err); got != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", got)
	}

	_, err = svc.Login(&LoginRequest{Email: "ghost@campus.edu", Password: "whatever1"})
	if got := appErrStatus(t, err); got != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want 401", got)
	}
}

func TestFederatedFirstLogin_UsesWhitelist(t *testing.T) {
	svc := newTestAuthService(t, "dean@campus.edu")

	user, err := svc.findOrCreateFederated("dean@campus.edu", "Dean", "google")
	if err != nil {
		t.Fatalf("findOrCreateFederated: %v", err)
	}
	if user.Role != models.RoleSuperAdmin {
		t.Errorf("federated whitelisted role = %q, want super_admin", user.Role)
	}
	if user.AuthType != "google" {
		t.Errorf("auth_type = %q, want google", user.AuthType)
	}

	// Second login finds the same account instead of creating another.
	again, err := svc.findOrCreateFederated("dean@campus.edu", "", "google")
	if err != nil {
		t.Fatalf("second findOrCreateFederated: %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("second login created a new account: %d vs %d", again.ID, user.ID)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newTestAuthService(t)
	user, _, err := svc.Signup(&SignupRequest{
		Email:    "arjun@campus.edu",
		Password: "original-pass",
		FullName: "Arjun",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	err = svc.ChangePassword(user, &ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "replacement-pass",
	})
	if got := appErrStatus(t, err); got != http.StatusUnauthorized {
		t.Errorf("wrong old password status = %d, want 401", got)
	}

	if err := svc.ChangePassword(user, &ChangePasswordRequest{
		OldPassword: "original-pass",
		NewPassword: "replacement-pass",
	}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := svc.Login(&LoginRequest{
		Email:    "arjun@campus.edu",
		Password: "replacement-pass",
	}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}
