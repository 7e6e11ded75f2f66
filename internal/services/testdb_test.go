package services

import (
	"fmt"
	"testing"

	"github.com/samvad/campus/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq int

// openTestDB returns a fresh in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBSeq++
	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Club{},
		&models.Membership{},
		&models.Announcement{},
		&models.Event{},
		&models.EventRegistration{},
		&models.AttendanceRecord{},
		&models.EventPhoto{},
		&models.GalleryPhoto{},
		&models.RoleRequest{},
		&models.ForumPost{},
		&models.ForumReply{},
		&models.PostLike{},
		&models.ReplyLike{},
		&models.OTPCode{},
		&models.SystemLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

// createTestUser inserts a user with a throwaway password hash.
func createTestUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		FullName: "Test " + string(role),
		Password: "$2a$10$abcdefghijklmnopqrstuvwxyz012345678901234567890123456",
		Role:     role,
		AuthType: "local",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}
