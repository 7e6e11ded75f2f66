package services

import (
	"errors"
	"time"

	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/logger"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a row lock on drivers that support it. The sqlite driver
// rejects FOR UPDATE; its writes are serialized by the single-writer model,
// so the plain transaction is already sufficient there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// RoleRequestService owns the role upgrade workflow: pending → approved or
// rejected, with requester-only cancellation while pending.
type RoleRequestService struct {
	db *gorm.DB
}

func NewRoleRequestService(db *gorm.DB) *RoleRequestService {
	return &RoleRequestService{db: db}
}

type SubmitRoleRequest struct {
	RequestedRole models.Role `json:"requested_role" binding:"required"`
	Reason        string      `json:"reason" binding:"required,max=1000"`
}

type ReviewRoleRequest struct {
	Status     models.RoleRequestStatus `json:"status" binding:"required"`
	AdminNotes string                   `json:"admin_notes" binding:"max=1000"`
}

// RoleRequestView flattens a request with its requester and reviewer names.
type RoleRequestView struct {
	ID             uint                     `json:"id"`
	UserID         uint                     `json:"user_id"`
	UserName       string                   `json:"user_name"`
	UserEmail      string                   `json:"user_email"`
	RequestedRole  models.Role              `json:"requested_role"`
	CurrentRole    models.Role              `json:"current_role"`
	Reason         string                   `json:"reason"`
	Status         models.RoleRequestStatus `json:"status"`
	CreatedAt      time.Time                `json:"created_at"`
	ReviewedAt     *time.Time               `json:"reviewed_at"`
	ReviewedByName string                   `json:"reviewed_by_name,omitempty"`
	AdminNotes     string                   `json:"admin_notes,omitempty"`
}

// Submit creates a pending request for the caller.
//
// Guards, in order: caller must be a student; the requested role must be
// exactly club_admin; the caller must have no other pending request. The
// existence check and insert run in one transaction holding a lock on the
// requester's row, so concurrent submissions cannot both pass the guard
// under READ COMMITTED isolation.
func (s *RoleRequestService) Submit(caller *models.User, req *SubmitRoleRequest) (*models.RoleRequest, error) {
	if caller.Role != models.RoleStudent {
		return nil, response.NewForbidden("only students can request role upgrades")
	}

	switch req.RequestedRole {
	case models.RoleStudent:
		return nil, response.NewBadRequest("you are already a student")
	case models.RoleSuperAdmin:
		return nil, response.NewForbidden("super admin role cannot be requested")
	case models.RoleClubAdmin:
		// allowed
	default:
		return nil, response.NewBadRequest("unknown role requested")
	}

	request := models.RoleRequest{
		UserID:        caller.ID,
		RequestedRole: req.RequestedRole,
		CurrentRole:   caller.Role,
		Reason:        req.Reason,
		Status:        models.RoleRequestPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// The requester's row acts as the mutex for the single-pending
		// invariant: two submissions for the same user serialize here.
		var requester models.User
		if err := forUpdate(tx).First(&requester, caller.ID).Error; err != nil {
			return err
		}

		var pending int64
		if err := tx.Model(&models.RoleRequest{}).
			Where("user_id = ? AND status = ?", caller.ID, models.RoleRequestPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return response.NewConflict("you already have a pending role request")
		}
		return tx.Create(&request).Error
	})
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// Review moves a pending request to approved or rejected. Approval also
// promotes the requester; both writes happen in one transaction so a crash
// can never leave an approved request beside an unpromoted user.
func (s *RoleRequestService) Review(reviewer *models.User, requestID uint, req *ReviewRoleRequest) (*models.RoleRequest, error) {
	if reviewer.Role != models.RoleSuperAdmin {
		return nil, response.NewForbidden("only super admins can review role requests")
	}

	if req.Status != models.RoleRequestApproved && req.Status != models.RoleRequestRejected {
		return nil, response.NewBadRequest("status must be either 'approved' or 'rejected'")
	}

	var request models.RoleRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Locked so two reviewers cannot both see the request pending.
		if err := forUpdate(tx).First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("role request not found")
			}
			return err
		}

		if request.Status != models.RoleRequestPending {
			return response.NewConflict("this request has already been reviewed")
		}

		now := time.Now()
		request.Status = req.Status
		request.ReviewedAt = &now
		request.ReviewedByID = &reviewer.ID
		request.AdminNotes = req.AdminNotes

		if err := tx.Save(&request).Error; err != nil {
			return err
		}

		if req.Status == models.RoleRequestApproved {
			if err := tx.Model(&models.User{}).
				Where("id = ?", request.UserID).
				Update("role", request.RequestedRole).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Uint("request_id", request.ID).
		Uint("reviewer_id", reviewer.ID).
		Str("status", string(request.Status)).
		Msg("role request reviewed")

	return &request, nil
}

// Cancel deletes a pending request. Only the requester may cancel, and only
// while the request is still pending.
func (s *RoleRequestService) Cancel(caller *models.User, requestID uint) error {
	var request models.RoleRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("role request not found")
		}
		return err
	}

	if request.UserID != caller.ID {
		return response.NewForbidden("you can only cancel your own role requests")
	}
	if request.Status != models.RoleRequestPending {
		return response.NewConflict("only pending requests can be cancelled")
	}

	return s.db.Delete(&request).Error
}

// ListMine returns the caller's requests, newest first.
func (s *RoleRequestService) ListMine(caller *models.User) ([]RoleRequestView, error) {
	var requests []models.RoleRequest
	if err := s.db.Preload("ReviewedBy").
		Where("user_id = ?", caller.ID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}

	views := make([]RoleRequestView, 0, len(requests))
	for i := range requests {
		views = append(views, buildView(&requests[i], caller))
	}
	return views, nil
}

// ListAll returns every request, newest first. Super admin only.
func (s *RoleRequestService) ListAll(caller *models.User) ([]RoleRequestView, error) {
	if caller.Role != models.RoleSuperAdmin {
		return nil, response.NewForbidden("only super admins can view all role requests")
	}
	return s.listViews(s.db.Preload("User").Preload("ReviewedBy").Order("created_at DESC"))
}

// ListPending returns pending requests, newest first. Super admin only.
func (s *RoleRequestService) ListPending(caller *models.User) ([]RoleRequestView, error) {
	if caller.Role != models.RoleSuperAdmin {
		return nil, response.NewForbidden("only super admins can view pending role requests")
	}
	return s.listViews(s.db.Preload("User").
		Where("status = ?", models.RoleRequestPending).
		Order("created_at DESC"))
}

func (s *RoleRequestService) listViews(query *gorm.DB) ([]RoleRequestView, error) {
	var requests []models.RoleRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}

	views := make([]RoleRequestView, 0, len(requests))
	for i := range requests {
		views = append(views, buildView(&requests[i], requests[i].User))
	}
	return views, nil
}

func buildView(r *models.RoleRequest, requester *models.User) RoleRequestView {
	v := RoleRequestView{
		ID:            r.ID,
		UserID:        r.UserID,
		RequestedRole: r.RequestedRole,
		CurrentRole:   r.CurrentRole,
		Reason:        r.Reason,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		ReviewedAt:    r.ReviewedAt,
		AdminNotes:    r.AdminNotes,
	}
	if requester != nil {
		v.UserName = requester.FullName
		v.UserEmail = requester.Email
	}
	if r.ReviewedBy != nil {
		v.ReviewedByName = r.ReviewedBy.FullName
	}
	return v
}
