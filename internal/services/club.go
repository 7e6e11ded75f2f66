package services

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/samvad/campus/backend/internal/authz"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/logger"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

// ClubService handles club CRUD, membership and announcements. All mutations
// go through authz.CanManageClub; the service never re-derives authority.
type ClubService struct {
	db    *gorm.DB
	blobs *BlobStore
	queue TaskQueue
}

func NewClubService(db *gorm.DB, blobs *BlobStore, queue TaskQueue) *ClubService {
	return &ClubService{db: db, blobs: blobs, queue: queue}
}

type CreateClubRequest struct {
	Name         string     `json:"name" binding:"required,max=200"`
	Description  string     `json:"description" binding:"max=5000"`
	Category     string     `json:"category" binding:"max=100"`
	ContactEmail string     `json:"contact_email" binding:"omitempty,email"`
	WebsiteURL   string     `json:"website_url" binding:"omitempty,url,max=500"`
	FoundedDate  *time.Time `json:"founded_date"`
	AdminID      *uint      `json:"admin_id"` // super admin only, defaults to caller
}

type UpdateClubRequest struct {
	Name             *string    `json:"name" binding:"omitempty,max=200"`
	Description      *string    `json:"description" binding:"omitempty,max=5000"`
	Category         *string    `json:"category" binding:"omitempty,max=100"`
	ContactEmail     *string    `json:"contact_email" binding:"omitempty,email"`
	WebsiteURL       *string    `json:"website_url" binding:"omitempty,url,max=500"`
	FoundedDate      *time.Time `json:"founded_date"`
	CoordinatorID    *uint      `json:"coordinator_id"`
	SubCoordinatorID *uint      `json:"sub_coordinator_id"`
}

type CreateAnnouncementRequest struct {
	Title   string `json:"title" binding:"required,max=300"`
	Content string `json:"content" binding:"required"`
	Notify  bool   `json:"notify"` // also push to members over WhatsApp
}

// ClubView augments a club with its aggregate counts.
type ClubView struct {
	models.Club
	MemberCount int64 `json:"member_count"`
	EventCount  int64 `json:"event_count"`
}

// List returns all clubs with member and event counts, name order.
func (s *ClubService) List() ([]ClubView, error) {
	var clubs []models.Club
	if err := s.db.Preload("Admin").Order("name ASC").Find(&clubs).Error; err != nil {
		return nil, err
	}

	views := make([]ClubView, 0, len(clubs))
	for _, club := range clubs {
		view := ClubView{Club: club}
		s.db.Model(&models.Membership{}).Where("club_id = ?", club.ID).Count(&view.MemberCount)
		s.db.Model(&models.Event{}).Where("club_id = ?", club.ID).Count(&view.EventCount)
		views = append(views, view)
	}
	return views, nil
}

// AdministeredBy returns the clubs where the user holds a delegate slot
// (owner, coordinator or sub-coordinator), name order.
func (s *ClubService) AdministeredBy(userID uint) ([]ClubView, error) {
	var clubs []models.Club
	err := s.db.Preload("Admin").
		Where("admin_id = ? OR coordinator_id = ? OR sub_coordinator_id = ?", userID, userID, userID).
		Order("name ASC").
		Find(&clubs).Error
	if err != nil {
		return nil, err
	}

	views := make([]ClubView, 0, len(clubs))
	for _, club := range clubs {
		view := ClubView{Club: club}
		s.db.Model(&models.Membership{}).Where("club_id = ?", club.ID).Count(&view.MemberCount)
		s.db.Model(&models.Event{}).Where("club_id = ?", club.ID).Count(&view.EventCount)
		views = append(views, view)
	}
	return views, nil
}

// Get returns one club or 404.
func (s *ClubService) Get(clubID uint) (*ClubView, error) {
	var club models.Club
	if err := s.db.Preload("Admin").First(&club, clubID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("club not found")
		}
		return nil, err
	}

	view := ClubView{Club: club}
	s.db.Model(&models.Membership{}).Where("club_id = ?", club.ID).Count(&view.MemberCount)
	s.db.Model(&models.Event{}).Where("club_id = ?", club.ID).Count(&view.EventCount)
	return &view, nil
}

// Create makes a new club owned by the caller. A super admin may assign
// ownership to someone else via AdminID.
func (s *ClubService) Create(caller *models.User, req *CreateClubRequest) (*models.Club, error) {
	if !authz.CanCreateClub(caller) {
		return nil, response.NewForbidden("only club admins can create clubs")
	}

	adminID := caller.ID
	if req.AdminID != nil && *req.AdminID != caller.ID {
		if !authz.IsSuperAdmin(caller) {
			return nil, response.NewForbidden("only super admins can assign another owner")
		}
		var owner models.User
		if err := s.db.First(&owner, *req.AdminID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, response.NewNotFound("assigned owner not found")
			}
			return nil, err
		}
		adminID = owner.ID
	}

	club := models.Club{
		Name:         req.Name,
		Description:  req.Description,
		AdminID:      adminID,
		Category:     req.Category,
		ContactEmail: req.ContactEmail,
		WebsiteURL:   req.WebsiteURL,
		FoundedDate:  req.FoundedDate,
	}
	if club.Category == "" {
		club.Category = "General"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Club{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return response.NewConflict("a club with this name already exists")
		}
		if err := tx.Create(&club).Error; err != nil {
			return err
		}
		// The owner is always a member of their own club.
		return tx.Create(&models.Membership{UserID: adminID, ClubID: club.ID}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Uint("club_id", club.ID).Uint("admin_id", adminID).Str("name", club.Name).
		Msg("club created")
	return &club, nil
}

// Update mutates club fields. Missing club is 404 before any authority check.
func (s *ClubService) Update(caller *models.User, clubID uint, req *UpdateClubRequest) (*models.Club, error) {
	club, err := s.requireManageable(caller, clubID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != club.Name {
		var count int64
		if err := s.db.Model(&models.Club{}).
			Where("name = ? AND id <> ?", *req.Name, clubID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, response.NewConflict("a club with this name already exists")
		}
		club.Name = *req.Name
	}
	if req.Description != nil {
		club.Description = *req.Description
	}
	if req.Category != nil {
		club.Category = *req.Category
	}
	if req.ContactEmail != nil {
		club.ContactEmail = *req.ContactEmail
	}
	if req.WebsiteURL != nil {
		club.WebsiteURL = *req.WebsiteURL
	}
	if req.FoundedDate != nil {
		club.FoundedDate = req.FoundedDate
	}
	if req.CoordinatorID != nil {
		if err := s.setDelegate(club, req.CoordinatorID, &club.CoordinatorID); err != nil {
			return nil, err
		}
	}
	if req.SubCoordinatorID != nil {
		if err := s.setDelegate(club, req.SubCoordinatorID, &club.SubCoordinatorID); err != nil {
			return nil, err
		}
	}

	if err := s.db.Save(club).Error; err != nil {
		return nil, err
	}
	return club, nil
}

// setDelegate validates and assigns a coordinator slot. An ID of 0 clears
// the slot.
func (s *ClubService) setDelegate(club *models.Club, requested *uint, slot **uint) error {
	if *requested == 0 {
		*slot = nil
		return nil
	}
	var delegate models.User
	if err := s.db.First(&delegate, *requested).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("delegate user not found")
		}
		return err
	}
	id := delegate.ID
	*slot = &id
	return nil
}

// UploadCover replaces the club's cover image.
func (s *ClubService) UploadCover(caller *models.User, clubID uint, filename string, data io.Reader) (*models.Club, error) {
	club, err := s.requireManageable(caller, clubID)
	if err != nil {
		return nil, err
	}

	blob, err := s.blobs.Upload(filename, data)
	if err != nil {
		return nil, err
	}

	club.CoverImageURL = blob.URL
	if err := s.db.Save(club).Error; err != nil {
		return nil, err
	}
	return club, nil
}

// Delete removes a club along with its memberships, events and announcements.
func (s *ClubService) Delete(caller *models.User, clubID uint) error {
	club, err := s.requireManageable(caller, clubID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("club_id = ?", clubID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("club_id = ?", clubID).Delete(&models.Announcement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("club_id = ?", clubID).Delete(&models.Event{}).Error; err != nil {
			return err
		}
		return tx.Delete(club).Error
	})
}

// Join adds the caller to the club's member list.
func (s *ClubService) Join(caller *models.User, clubID uint) error {
	if _, err := s.requireClub(clubID); err != nil {
		return err
	}

	var existing int64
	if err := s.db.Model(&models.Membership{}).
		Where("user_id = ? AND club_id = ?", caller.ID, clubID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return response.NewConflict("you are already a member of this club")
	}

	return s.db.Create(&models.Membership{UserID: caller.ID, ClubID: clubID}).Error
}

// Leave removes the caller from the club's member list.
func (s *ClubService) Leave(caller *models.User, clubID uint) error {
	if _, err := s.requireClub(clubID); err != nil {
		return err
	}

	result := s.db.Where("user_id = ? AND club_id = ?", caller.ID, clubID).
		Delete(&models.Membership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewConflict("you are not a member of this club")
	}
	return nil
}

// Members lists a club's members as public profiles.
func (s *ClubService) Members(clubID uint) ([]models.PublicUser, error) {
	if _, err := s.requireClub(clubID); err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.club_id = ?", clubID).
		Order("users.full_name ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}

	members := make([]models.PublicUser, 0, len(users))
	for i := range users {
		members = append(members, users[i].Public())
	}
	return members, nil
}

// CreateAnnouncement posts an announcement and, when requested, fans it out
// to members over WhatsApp. Notification failures never fail the post.
func (s *ClubService) CreateAnnouncement(caller *models.User, clubID uint, req *CreateAnnouncementRequest) (*models.Announcement, error) {
	club, err := s.requireManageable(caller, clubID)
	if err != nil {
		return nil, err
	}

	announcement := models.Announcement{
		Title:   req.Title,
		Content: req.Content,
		ClubID:  clubID,
	}
	if err := s.db.Create(&announcement).Error; err != nil {
		return nil, err
	}

	if req.Notify && s.queue != nil {
		body := fmt.Sprintf("[%s] %s\n\n%s", club.Name, req.Title, req.Content)
		if err := s.queue.Enqueue(&NotificationTask{
			Kind:   NotifyClubBroadcast,
			ClubID: clubID,
			Body:   body,
		}); err != nil {
			logger.Warn().Err(err).Uint("club_id", clubID).Msg("announcement broadcast enqueue failed")
		}
	}

	return &announcement, nil
}

// ListAnnouncements returns a club's announcements, newest first.
func (s *ClubService) ListAnnouncements(clubID uint) ([]models.Announcement, error) {
	if _, err := s.requireClub(clubID); err != nil {
		return nil, err
	}

	var announcements []models.Announcement
	if err := s.db.Where("club_id = ?", clubID).
		Order("created_at DESC").
		Find(&announcements).Error; err != nil {
		return nil, err
	}
	return announcements, nil
}

// requireClub loads a club or returns 404.
func (s *ClubService) requireClub(clubID uint) (*models.Club, error) {
	var club models.Club
	if err := s.db.First(&club, clubID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("club not found")
		}
		return nil, err
	}
	return &club, nil
}

// requireManageable loads a club and checks the caller's authority over it.
// Existence is checked first so a non-delegate probing a dead ID still sees
// 404, not 403.
func (s *ClubService) requireManageable(caller *models.User, clubID uint) (*models.Club, error) {
	club, err := s.requireClub(clubID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageClub(caller, club) {
		return nil, response.NewForbidden("you do not have authority over this club")
	}
	return club, nil
}
