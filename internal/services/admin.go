package services

import (
	"errors"
	"time"

	"github.com/samvad/campus/backend/internal/authz"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/logger"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

// AdminService backs the super admin console: platform stats, user listing
// and direct role management.
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// DashboardStats is the super admin landing payload.
type DashboardStats struct {
	TotalUsers          int64               `json:"total_users"`
	TotalStudents       int64               `json:"total_students"`
	TotalClubAdmins     int64               `json:"total_club_admins"`
	TotalSuperAdmins    int64               `json:"total_super_admins"`
	TotalClubs          int64               `json:"total_clubs"`
	TotalEvents         int64               `json:"total_events"`
	ActiveEvents        int64               `json:"active_events"`
	PendingRoleRequests int64               `json:"pending_role_requests"`
	TotalForumPosts     int64               `json:"total_forum_posts"`
	PopularClubs        []PopularClub       `json:"popular_clubs"`
	UpcomingEvents      []UpcomingEventStat `json:"upcoming_events"`
}

// PopularClub ranks a club by member count.
type PopularClub struct {
	Name    string `json:"name"`
	Members int64  `json:"members"`
}

// UpcomingEventStat is a future event with its registration count.
type UpcomingEventStat struct {
	Name          string    `json:"name"`
	Date          time.Time `json:"date"`
	Registrations int64     `json:"registrations"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// Dashboard aggregates platform counts.
func (s *AdminService) Dashboard() (*DashboardStats, error) {
	stats := &DashboardStats{}

	type countQuery struct {
		dest  *int64
		model interface{}
		where []interface{}
	}
	queries := []countQuery{
		{&stats.TotalUsers, &models.User{}, nil},
		{&stats.TotalStudents, &models.User{}, []interface{}{"role = ?", models.RoleStudent}},
		{&stats.TotalClubAdmins, &models.User{}, []interface{}{"role = ?", models.RoleClubAdmin}},
		{&stats.TotalSuperAdmins, &models.User{}, []interface{}{"role = ?", models.RoleSuperAdmin}},
		{&stats.TotalClubs, &models.Club{}, nil},
		{&stats.TotalEvents, &models.Event{}, nil},
		{&stats.ActiveEvents, &models.Event{}, []interface{}{"date > ?", time.Now()}},
		{&stats.PendingRoleRequests, &models.RoleRequest{}, []interface{}{"status = ?", models.RoleRequestPending}},
		{&stats.TotalForumPosts, &models.ForumPost{}, nil},
	}

	for _, q := range queries {
		query := s.db.Model(q.model)
		if q.where != nil {
			query = query.Where(q.where[0], q.where[1:]...)
		}
		if err := query.Count(q.dest).Error; err != nil {
			return nil, err
		}
	}

	// Top five clubs by membership, ties broken by name.
	err := s.db.Model(&models.Club{}).
		Select("clubs.name AS name, COUNT(memberships.user_id) AS members").
		Joins("LEFT JOIN memberships ON memberships.club_id = clubs.id").
		Group("clubs.id, clubs.name").
		Order("members DESC, clubs.name ASC").
		Limit(5).
		Scan(&stats.PopularClubs).Error
	if err != nil {
		return nil, err
	}

	// Next five events with how many people have signed up.
	err = s.db.Model(&models.Event{}).
		Select("events.name AS name, events.date AS date, COUNT(event_registrations.user_id) AS registrations").
		Joins("LEFT JOIN event_registrations ON event_registrations.event_id = events.id").
		Where("events.date > ?", time.Now()).
		Group("events.id, events.name, events.date").
		Order("events.date ASC").
		Limit(5).
		Scan(&stats.UpcomingEvents).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// ListUsers returns users newest first, optionally filtered by role or a
// search term over name and email.
func (s *AdminService) ListUsers(role, search string) ([]models.User, error) {
	query := s.db.Order("created_at DESC")
	if role != "" {
		parsed, ok := models.ParseRole(role)
		if !ok {
			return nil, response.NewBadRequest("unknown role filter")
		}
		query = query.Where("role = ?", parsed)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("full_name LIKE ? OR email LIKE ?", like, like)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserRole sets a user's global role directly, bypassing the request
// workflow. Super admin console only; the route guard has already checked
// the caller's role, this validates the target and the value.
func (s *AdminService) UpdateUserRole(actor *models.User, userID uint, req *UpdateUserRoleRequest) (*models.User, error) {
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, response.NewBadRequest("role must be one of student, club_admin, super_admin")
	}

	var target models.User
	if err := s.db.First(&target, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}

	if target.ID == actor.ID && role != models.RoleSuperAdmin {
		return nil, response.NewConflict("you cannot demote your own account")
	}

	target.Role = role
	if err := s.db.Save(&target).Error; err != nil {
		return nil, err
	}

	logger.Info().Uint("actor_id", actor.ID).Uint("user_id", target.ID).
		Str("role", string(role)).Msg("user role updated")
	return &target, nil
}

// DeleteUser removes an account. Self-deletion is refused so the platform
// can never lose its last super admin to a misclick, and deletion is refused
// while the user is still a club's primary admin. Coordinator slots are
// cleared as part of the cascade.
func (s *AdminService) DeleteUser(actor *models.User, userID uint) error {
	var target models.User
	if err := s.db.First(&target, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("user not found")
		}
		return err
	}

	if !authz.CanDeleteUser(actor, &target) {
		return response.NewConflict("you cannot delete your own account")
	}

	// A club must always have a primary admin; ownership moves first.
	var owned int64
	if err := s.db.Model(&models.Club{}).Where("admin_id = ?", userID).Count(&owned).Error; err != nil {
		return err
	}
	if owned > 0 {
		return response.NewConflict("user still owns clubs; reassign them first")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Club{}).Where("coordinator_id = ?", userID).
			Update("coordinator_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Club{}).Where("sub_coordinator_id = ?", userID).
			Update("sub_coordinator_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.EventRegistration{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND status = ?", userID, models.RoleRequestPending).
			Delete(&models.RoleRequest{}).Error; err != nil {
			return err
		}
		return tx.Delete(&target).Error
	})
}
