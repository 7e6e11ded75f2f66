package services

import (
	"errors"
	"io"

	"github.com/samvad/campus/backend/internal/authz"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

// PhotoService handles event photos and the campus-wide gallery. Event photo
// mutations require authority over the event's club; gallery uploads require
// a club_admin or super_admin role, and only the uploader or a super admin
// may remove one.
type PhotoService struct {
	db    *gorm.DB
	blobs *BlobStore
}

func NewPhotoService(db *gorm.DB, blobs *BlobStore) *PhotoService {
	return &PhotoService{db: db, blobs: blobs}
}

// EventPhotos lists an event's photos, newest first.
func (s *PhotoService) EventPhotos(eventID uint) ([]models.EventPhoto, error) {
	if _, err := s.requireEvent(eventID); err != nil {
		return nil, err
	}

	var photos []models.EventPhoto
	if err := s.db.Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

// AddEventPhoto uploads an image and attaches it to an event.
func (s *PhotoService) AddEventPhoto(caller *models.User, eventID uint, filename string, data io.Reader) (*models.EventPhoto, error) {
	event, err := s.requireEvent(eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireClubAuthority(caller, event.ClubID); err != nil {
		return nil, err
	}

	blob, err := s.blobs.Upload(filename, data)
	if err != nil {
		return nil, err
	}

	photo := models.EventPhoto{
		ImageURL: blob.URL,
		PublicID: blob.PublicID,
		EventID:  eventID,
	}
	if err := s.db.Create(&photo).Error; err != nil {
		s.blobs.Delete(blob.PublicID)
		return nil, err
	}
	return &photo, nil
}

// DeleteEventPhoto removes a photo record and its stored blob.
func (s *PhotoService) DeleteEventPhoto(caller *models.User, photoID uint) error {
	var photo models.EventPhoto
	if err := s.db.Preload("Event").First(&photo, photoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("photo not found")
		}
		return err
	}
	if photo.Event == nil {
		return response.NewNotFound("photo's event not found")
	}
	if err := s.requireClubAuthority(caller, photo.Event.ClubID); err != nil {
		return err
	}

	if err := s.db.Delete(&photo).Error; err != nil {
		return err
	}
	s.blobs.Delete(photo.PublicID)
	return nil
}

// Gallery lists gallery photos, newest first.
func (s *PhotoService) Gallery() ([]models.GalleryPhoto, error) {
	var photos []models.GalleryPhoto
	if err := s.db.Preload("Uploader").
		Order("created_at DESC").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

// AddGalleryPhoto uploads an image into the shared gallery. Restricted to
// club and super admins.
func (s *PhotoService) AddGalleryPhoto(caller *models.User, caption, filename string, data io.Reader) (*models.GalleryPhoto, error) {
	if authz.Level(caller.Role) < authz.Level(models.RoleClubAdmin) {
		return nil, response.NewForbidden("you do not have permission to upload to the gallery")
	}

	blob, err := s.blobs.Upload(filename, data)
	if err != nil {
		return nil, err
	}

	photo := models.GalleryPhoto{
		ImageURL:     blob.URL,
		PublicID:     blob.PublicID,
		Caption:      caption,
		UploadedByID: caller.ID,
	}
	if err := s.db.Create(&photo).Error; err != nil {
		s.blobs.Delete(blob.PublicID)
		return nil, err
	}
	return &photo, nil
}

// DeleteGalleryPhoto removes a gallery photo. Allowed for the uploader and
// for super admins only; another club's admin has no claim on it.
func (s *PhotoService) DeleteGalleryPhoto(caller *models.User, photoID uint) error {
	var photo models.GalleryPhoto
	if err := s.db.First(&photo, photoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("photo not found")
		}
		return err
	}

	if photo.UploadedByID != caller.ID && !authz.IsSuperAdmin(caller) {
		return response.NewForbidden("you can only delete your own gallery photos")
	}

	if err := s.db.Delete(&photo).Error; err != nil {
		return err
	}
	s.blobs.Delete(photo.PublicID)
	return nil
}

func (s *PhotoService) requireEvent(eventID uint) (*models.Event, error) {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("event not found")
		}
		return nil, err
	}
	return &event, nil
}

func (s *PhotoService) requireClubAuthority(caller *models.User, clubID uint) error {
	var club models.Club
	if err := s.db.First(&club, clubID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("club not found")
		}
		return err
	}
	if !authz.CanManageClub(caller, &club) {
		return response.NewForbidden("you do not have authority over this club")
	}
	return nil
}
