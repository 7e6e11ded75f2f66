package services

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/internal/models"
	"gorm.io/gorm"
)

func newTestPhotoService(t *testing.T, db *gorm.DB) *PhotoService {
	t.Helper()
	return NewPhotoService(db, NewBlobStore(config.BlobStoreConfig{UploadDir: t.TempDir()}))
}

func TestAddGalleryPhoto_RequiresAdminRole(t *testing.T) {
	db := openTestDB(t)
	svc := newTestPhotoService(t, db)

	student := createTestUser(t, db, "student@campus.edu", models.RoleStudent)
	_, err := svc.AddGalleryPhoto(student, "sunset", "sunset.jpg", strings.NewReader("img"))
	if got := appErrStatus(t, err); got != http.StatusForbidden {
		t.Errorf("student gallery upload status = %d, want 403", got)
	}
	var count int64
	db.Model(&models.GalleryPhoto{}).Count(&count)
	if count != 0 {
		t.Errorf("gallery photo count after denied upload = %d, want 0", count)
	}

	for _, role := range []models.Role{models.RoleClubAdmin, models.RoleSuperAdmin} {
		uploader := createTestUser(t, db, string(role)+"@campus.edu", role)
		photo, err := svc.AddGalleryPhoto(uploader, "fest", "fest.jpg", strings.NewReader("img"))
		if err != nil {
			t.Fatalf("%s gallery upload: %v", role, err)
		}
		if photo.UploadedByID != uploader.ID {
			t.Errorf("uploader id = %d, want %d", photo.UploadedByID, uploader.ID)
		}
	}
}

func TestDeleteGalleryPhoto_UploaderOrSuperAdminOnly(t *testing.T) {
	db := openTestDB(t)
	svc := newTestPhotoService(t, db)

	uploader := createTestUser(t, db, "uploader@campus.edu", models.RoleClubAdmin)
	photo, err := svc.AddGalleryPhoto(uploader, "fest", "fest.jpg", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("AddGalleryPhoto: %v", err)
	}

	otherAdmin := createTestUser(t, db, "other-admin@campus.edu", models.RoleClubAdmin)
	err = svc.DeleteGalleryPhoto(otherAdmin, photo.ID)
	if got := appErrStatus(t, err); got != http.StatusForbidden {
		t.Errorf("unrelated club admin delete status = %d, want 403", got)
	}
	var count int64
	db.Model(&models.GalleryPhoto{}).Count(&count)
	if count != 1 {
		t.Fatalf("gallery photo count after denied delete = %d, want 1", count)
	}

	if err := svc.DeleteGalleryPhoto(uploader, photo.ID); err != nil {
		t.Fatalf("uploader delete: %v", err)
	}

	photo, err = svc.AddGalleryPhoto(uploader, "fest again", "fest2.jpg", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("AddGalleryPhoto: %v", err)
	}
	super := createTestUser(t, db, "root@campus.edu", models.RoleSuperAdmin)
	if err := svc.DeleteGalleryPhoto(super, photo.ID); err != nil {
		t.Fatalf("super admin delete: %v", err)
	}

	err = svc.DeleteGalleryPhoto(super, photo.ID)
	if got := appErrStatus(t, err); got != http.StatusNotFound {
		t.Errorf("deleting a missing photo status = %d, want 404", got)
	}
}

func TestEventPhoto_ClubAuthority(t *testing.T) {
	db := openTestDB(t)
	svc := newTestPhotoService(t, db)

	owner := createTestUser(t, db, "owner@campus.edu", models.RoleClubAdmin)
	club := models.Club{Name: "Drama Society", AdminID: owner.ID}
	if err := db.Create(&club).Error; err != nil {
		t.Fatalf("create club: %v", err)
	}
	event := models.Event{Name: "Auditions", ClubID: club.ID, Date: time.Now().Add(24 * time.Hour)}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}

	outsider := createTestUser(t, db, "outsider@campus.edu", models.RoleClubAdmin)
	_, err := svc.AddEventPhoto(outsider, event.ID, "stage.jpg", strings.NewReader("img"))
	if got := appErrStatus(t, err); got != http.StatusForbidden {
		t.Errorf("outsider event photo upload status = %d, want 403", got)
	}

	photo, err := svc.AddEventPhoto(owner, event.ID, "stage.jpg", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("owner event photo upload: %v", err)
	}

	err = svc.DeleteEventPhoto(outsider, photo.ID)
	if got := appErrStatus(t, err); got != http.StatusForbidden {
		t.Errorf("outsider event photo delete status = %d, want 403", got)
	}
	if err := svc.DeleteEventPhoto(owner, photo.ID); err != nil {
		t.Fatalf("owner event photo delete: %v", err)
	}

	_, err = svc.AddEventPhoto(owner, 9999, "stage.jpg", strings.NewReader("img"))
	if got := appErrStatus(t, err); got != http.StatusNotFound {
		t.Errorf("missing event status = %d, want 404", got)
	}
}
