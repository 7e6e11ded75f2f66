package services

import (
	"errors"
	"net/http"
	"testing"

	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

// renamedDialector masquerades as another driver so the lock selection can
// be checked without a live server connection.
type renamedDialector struct {
	gorm.Dialector
	name string
}

func (d renamedDialector) Name() string { return d.name }

func TestForUpdate_DialectAware(t *testing.T) {
	db := openTestDB(t)

	plain := forUpdate(db.Session(&gorm.Session{NewDB: true}))
	if _, ok := plain.Statement.Clauses["FOR"]; ok {
		t.Error("sqlite must not receive a FOR UPDATE clause")
	}

	for _, name := range []string{"mysql", "postgres"} {
		tx := db.Session(&gorm.Session{NewDB: true})
		cfg := *tx.Config
		cfg.Dialector = renamedDialector{Dialector: cfg.Dialector, name: name}
		tx.Config = &cfg

		locked := forUpdate(tx)
		if _, ok := locked.Statement.Clauses["FOR"]; !ok {
			t.Errorf("%s must receive a FOR UPDATE clause", name)
		}
	}
}

func appErrStatus(t *testing.T, err error) int {
	t.Helper()
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *response.AppError, got %T: %v", err, err)
	}
	return appErr.HTTPStatus
}

func TestSubmit_CreatesPendingRequest(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	student := createTestUser(t, db, "priya@campus.edu", models.RoleStudent)

	req, err := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "I coordinate the robotics club",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if req.Status != models.RoleRequestPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if req.CurrentRole != models.RoleStudent {
		t.Errorf("current_role = %q, want student", req.CurrentRole)
	}
	if req.ReviewedAt != nil || req.ReviewedByID != nil {
		t.Error("reviewer fields must be unset on a pending request")
	}
}

func TestSubmit_Guards(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)

	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	clubAdmin := createTestUser(t, db, "ca@campus.edu", models.RoleClubAdmin)
	superAdmin := createTestUser(t, db, "sa@campus.edu", models.RoleSuperAdmin)

	tests := []struct {
		name       string
		caller     *models.User
		requested  models.Role
		wantStatus int
	}{
		{"club admin cannot submit", clubAdmin, models.RoleClubAdmin, http.StatusForbidden},
		{"super admin cannot submit", superAdmin, models.RoleClubAdmin, http.StatusForbidden},
		{"requesting student is rejected", student, models.RoleStudent, http.StatusBadRequest},
		{"requesting super admin is forbidden", student, models.RoleSuperAdmin, http.StatusForbidden},
		{"unknown role is rejected", student, models.Role("janitor"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(tt.caller, &SubmitRoleRequest{
				RequestedRole: tt.requested,
				Reason:        "please",
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := appErrStatus(t, err); got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
		})
	}

	var count int64
	db.Model(&models.RoleRequest{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected submissions must not persist, found %d rows", count)
	}
}

func TestSubmit_SinglePendingPerUser(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)

	if _, err := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "first",
	}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	_, err := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "second",
	})
	if err == nil {
		t.Fatal("second submission must be rejected while one is pending")
	}
	if got := appErrStatus(t, err); got != http.StatusConflict {
		t.Errorf("status = %d, want 409", got)
	}

	// A second user is not blocked by the first user's pending request.
	other := createTestUser(t, db, "o@campus.edu", models.RoleStudent)
	if _, err := svc.Submit(other, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "unrelated",
	}); err != nil {
		t.Fatalf("unrelated user's Submit: %v", err)
	}
}

func TestReview_ApprovePromotesRequester(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	reviewer := createTestUser(t, db, "sa@campus.edu", models.RoleSuperAdmin)

	req, err := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "running the chess club",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	reviewed, err := svc.Review(reviewer, req.ID, &ReviewRoleRequest{
		Status:     models.RoleRequestApproved,
		AdminNotes: "verified with the club",
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}

	if reviewed.Status != models.RoleRequestApproved {
		t.Errorf("status = %q, want approved", reviewed.Status)
	}
	if reviewed.ReviewedAt == nil {
		t.Error("reviewed_at must be set")
	}
	if reviewed.ReviewedByID == nil || *reviewed.ReviewedByID != reviewer.ID {
		t.Errorf("reviewed_by_id = %v, want %d", reviewed.ReviewedByID, reviewer.ID)
	}

	var promoted models.User
	if err := db.First(&promoted, student.ID).Error; err != nil {
		t.Fatalf("reload requester: %v", err)
	}
	if promoted.Role != models.RoleClubAdmin {
		t.Errorf("requester role = %q, want club_admin after approval", promoted.Role)
	}
}

func TestReview_RejectLeavesRoleUnchanged(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	reviewer := createTestUser(t, db, "sa@campus.edu", models.RoleSuperAdmin)

	req, _ := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "x",
	})

	if _, err := svc.Review(reviewer, req.ID, &ReviewRoleRequest{
		Status:     models.RoleRequestRejected,
		AdminNotes: "no active club found",
	}); err != nil {
		t.Fatalf("Review: %v", err)
	}

	var unchanged models.User
	db.First(&unchanged, student.ID)
	if unchanged.Role != models.RoleStudent {
		t.Errorf("requester role = %q, want student after rejection", unchanged.Role)
	}
}

func TestReview_Errors(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	clubAdmin := createTestUser(t, db, "ca@campus.edu", models.RoleClubAdmin)
	reviewer := createTestUser(t, db, "sa@campus.edu", models.RoleSuperAdmin)

	req, _ := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "x",
	})

	// Non super-admin callers are rejected regardless of request state.
	_, err := svc.Review(clubAdmin, req.ID, &ReviewRoleRequest{Status: models.RoleRequestApproved})
	if got := appErrStatus(t, err); got != http.StatusForbidden {
		t.Errorf("club admin review status = %d, want 403", got)
	}

	// Status outside the terminal pair is a validation error.
	_, err = svc.Review(reviewer, req.ID, &ReviewRoleRequest{Status: models.RoleRequestPending})
	if got := appErrStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("pending review status = %d, want 400", got)
	}

	// Missing request is 404, checked before any state validation.
	_, err = svc.Review(reviewer, 9999, &ReviewRoleRequest{Status: models.RoleRequestApproved})
	if got := appErrStatus(t, err); got != http.StatusNotFound {
		t.Errorf("missing request status = %d, want 404", got)
	}
}

func TestReview_TerminalRequestIsImmutable(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	reviewer := createTestUser(t, db, "sa@campus.edu", models.RoleSuperAdmin)

	req, _ := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "x",
	})
	if _, err := svc.Review(reviewer, req.ID, &ReviewRoleRequest{
		Status: models.RoleRequestRejected,
	}); err != nil {
		t.Fatalf("first Review: %v", err)
	}

	// Re-reviewing, even with a different outcome, must conflict and must
	// not promote the requester.
	_, err := svc.Review(reviewer, req.ID, &ReviewRoleRequest{
		Status: models.RoleRequestApproved,
	})
	if err == nil {
		t.Fatal("second review must fail")
	}
	if got := appErrStatus(t, err); got != http.StatusConflict {
		t.Errorf("status = %d, want 409", got)
	}

	var user models.User
	db.First(&user, student.ID)
	if user.Role != models.RoleStudent {
		t.Errorf("role = %q, want student after failed re-review", user.Role)
	}
}

func TestSubmit_AllowedAgainAfterTerminalReview(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	reviewer := createTestUser(t, db, "sa@campus.edu", models.RoleSuperAdmin)

	req, _ := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "first attempt",
	})
	if _, err := svc.Review(reviewer, req.ID, &ReviewRoleRequest{
		Status:     models.RoleRequestRejected,
		AdminNotes: "come back next semester",
	}); err != nil {
		t.Fatalf("Review: %v", err)
	}

	if _, err := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "second attempt",
	}); err != nil {
		t.Fatalf("resubmission after rejection must succeed: %v", err)
	}
}

func TestCancel(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	other := createTestUser(t, db, "o@campus.edu", models.RoleStudent)
	reviewer := createTestUser(t, db, "sa@campus.edu", models.RoleSuperAdmin)

	req, _ := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "x",
	})

	if err := svc.Cancel(other, req.ID); appErrStatus(t, err) != http.StatusForbidden {
		t.Error("cancelling someone else's request must be forbidden")
	}
	if err := svc.Cancel(student, 9999); appErrStatus(t, err) != http.StatusNotFound {
		t.Error("cancelling a missing request must be 404")
	}

	if err := svc.Cancel(student, req.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// Cancelling frees the single-pending slot.
	req2, err := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "again",
	})
	if err != nil {
		t.Fatalf("resubmission after cancel: %v", err)
	}

	// A reviewed request can no longer be cancelled.
	if _, err := svc.Review(reviewer, req2.ID, &ReviewRoleRequest{
		Status: models.RoleRequestApproved,
	}); err != nil {
		t.Fatalf("Review: %v", err)
	}
	if err := svc.Cancel(student, req2.ID); appErrStatus(t, err) != http.StatusConflict {
		t.Error("cancelling a reviewed request must conflict")
	}
}

func TestListMine_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	other := createTestUser(t, db, "o@campus.edu", models.RoleStudent)
	reviewer := createTestUser(t, db, "sa@campus.edu", models.RoleSuperAdmin)

	first, _ := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "first",
	})
	svc.Review(reviewer, first.ID, &ReviewRoleRequest{Status: models.RoleRequestRejected})
	second, _ := svc.Submit(student, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "second",
	})
	svc.Submit(other, &SubmitRoleRequest{
		RequestedRole: models.RoleClubAdmin,
		Reason:        "other user",
	})

	mine, err := svc.ListMine(student)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("len = %d, want 2", len(mine))
	}
	if mine[0].ID != second.ID {
		t.Errorf("first entry = request %d, want newest %d", mine[0].ID, second.ID)
	}
	if mine[1].ReviewedByName != reviewer.FullName {
		t.Errorf("reviewed_by_name = %q, want %q", mine[1].ReviewedByName, reviewer.FullName)
	}
}

func TestListAllAndPending(t *testing.T) {
	db := openTestDB(t)
	svc := NewRoleRequestService(db)
	s1 := createTestUser(t, db, "s1@campus.edu", models.RoleStudent)
	s2 := createTestUser(t, db, "s2@campus.edu", models.RoleStudent)
	reviewer := createTestUser(t, db, "sa@campus.edu", models.RoleSuperAdmin)

	r1, _ := svc.Submit(s1, &SubmitRoleRequest{RequestedRole: models.RoleClubAdmin, Reason: "a"})
	svc.Submit(s2, &SubmitRoleRequest{RequestedRole: models.RoleClubAdmin, Reason: "b"})
	svc.Review(reviewer, r1.ID, &ReviewRoleRequest{Status: models.RoleRequestApproved})

	if _, err := svc.ListAll(s2); appErrStatus(t, err) != http.StatusForbidden {
		t.Error("ListAll must be super admin only")
	}
	if _, err := svc.ListPending(s2); appErrStatus(t, err) != http.StatusForbidden {
		t.Error("ListPending must be super admin only")
	}

	all, err := svc.ListAll(reviewer)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAll len = %d, want 2", len(all))
	}

	pending, err := svc.ListPending(reviewer)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("ListPending len = %d, want 1", len(pending))
	}
	if pending[0].UserEmail != s2.Email {
		t.Errorf("pending requester = %q, want %q", pending[0].UserEmail, s2.Email)
	}
}
