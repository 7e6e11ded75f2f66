package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/internal/models"
	"gorm.io/gorm"
)

func newTestEventService(t *testing.T) (*EventService, *ClubService, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	queue := &testQueue{}
	blobs := NewBlobStore(config.BlobStoreConfig{UploadDir: t.TempDir()})
	return NewEventService(db, queue), NewClubService(db, blobs, queue), db
}

func TestCreateEvent_AuthorityThroughClub(t *testing.T) {
	events, clubs, db := newTestEventService(t)
	owner := createTestUser(t, db, "owner@campus.edu", models.RoleClubAdmin)
	outsider := createTestUser(t, db, "other@campus.edu", models.RoleClubAdmin)
	club, _ := clubs.Create(owner, &CreateClubRequest{Name: "Astronomy"})

	req := &CreateEventRequest{
		Name:   "Star Party",
		Date:   time.Now().Add(48 * time.Hour),
		ClubID: club.ID,
	}

	_, err := events.Create(outsider, req)
	if got := appErrStatus(t, err); got != http.StatusForbidden {
		t.Errorf("outsider create status = %d, want 403", got)
	}

	event, err := events.Create(owner, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if event.ClubID != club.ID {
		t.Errorf("club_id = %d, want %d", event.ClubID, club.ID)
	}

	req.ClubID = 9999
	_, err = events.Create(owner, req)
	if got := appErrStatus(t, err); got != http.StatusNotFound {
		t.Errorf("missing club status = %d, want 404", got)
	}
}

func TestEventRegistration(t *testing.T) {
	events, clubs, db := newTestEventService(t)
	owner := createTestUser(t, db, "owner@campus.edu", models.RoleClubAdmin)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	club, _ := clubs.Create(owner, &CreateClubRequest{Name: "Film"})

	future, _ := events.Create(owner, &CreateEventRequest{
		Name: "Screening", Date: time.Now().Add(24 * time.Hour), ClubID: club.ID,
	})
	past, _ := events.Create(owner, &CreateEventRequest{
		Name: "Old Screening", Date: time.Now().Add(-24 * time.Hour), ClubID: club.ID,
	})

	if err := events.Register(student, future.ID); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := events.Register(student, future.ID); appErrStatus(t, err) != http.StatusConflict {
		t.Error("double registration must conflict")
	}
	if err := events.Register(student, past.ID); appErrStatus(t, err) != http.StatusConflict {
		t.Error("registering for a past event must conflict")
	}
	if err := events.Register(student, 9999); appErrStatus(t, err) != http.StatusNotFound {
		t.Error("registering for a missing event must be 404")
	}

	view, err := events.Get(future.ID, student.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.RegistrationCount != 1 || !view.Registered {
		t.Errorf("view = count %d registered %v, want 1/true", view.RegistrationCount, view.Registered)
	}

	if err := events.Unregister(student, future.ID); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if err := events.Unregister(student, future.ID); appErrStatus(t, err) != http.StatusConflict {
		t.Error("unregistering twice must conflict")
	}
}

func TestRecordAttendance(t *testing.T) {
	events, clubs, db := newTestEventService(t)
	owner := createTestUser(t, db, "owner@campus.edu", models.RoleClubAdmin)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	club, _ := clubs.Create(owner, &CreateClubRequest{Name: "Coding"})
	event, _ := events.Create(owner, &CreateEventRequest{
		Name: "Hack Night", Date: time.Now().Add(time.Hour), ClubID: club.ID,
	})

	req := &RecordAttendanceRequest{UserID: student.ID, Notes: "walk-in"}

	_, err := events.RecordAttendance(student, event.ID, req)
	if got := appErrStatus(t, err); got != http.StatusForbidden {
		t.Errorf("attendee self check-in status = %d, want 403", got)
	}

	record, err := events.RecordAttendance(owner, event.ID, req)
	if err != nil {
		t.Fatalf("RecordAttendance: %v", err)
	}
	if record.UserID != student.ID {
		t.Errorf("user_id = %d, want %d", record.UserID, student.ID)
	}

	_, err = events.RecordAttendance(owner, event.ID, req)
	if got := appErrStatus(t, err); got != http.StatusConflict {
		t.Errorf("duplicate check-in status = %d, want 409", got)
	}

	_, err = events.RecordAttendance(owner, event.ID, &RecordAttendanceRequest{UserID: 9999})
	if got := appErrStatus(t, err); got != http.StatusNotFound {
		t.Errorf("missing attendee status = %d, want 404", got)
	}

	records, err := events.Attendance(owner, event.ID)
	if err != nil {
		t.Fatalf("Attendance: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("attendance count = %d, want 1", len(records))
	}
}

func TestRecommend(t *testing.T) {
	events, clubs, db := newTestEventService(t)
	owner := createTestUser(t, db, "owner@campus.edu", models.RoleClubAdmin)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)

	myClub, _ := clubs.Create(owner, &CreateClubRequest{Name: "My Club", Category: "Tech"})
	otherClub, _ := clubs.Create(owner, &CreateClubRequest{Name: "Other Club", Category: "Arts"})
	clubs.Join(student, myClub.ID)

	mine, _ := events.Create(owner, &CreateEventRequest{
		Name: "Member Event", Date: time.Now().Add(72 * time.Hour), ClubID: myClub.ID,
	})
	other, _ := events.Create(owner, &CreateEventRequest{
		Name: "Other Event", Date: time.Now().Add(24 * time.Hour), ClubID: otherClub.ID,
	})
	joined, _ := events.Create(owner, &CreateEventRequest{
		Name: "Already In", Date: time.Now().Add(48 * time.Hour), ClubID: myClub.ID,
	})
	events.Register(student, joined.ID)

	recs, err := events.Recommend(student)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recommendation count = %d, want 2", len(recs))
	}
	// The member club's event outranks the sooner but unrelated one, and
	// already-registered events never appear.
	if recs[0].ID != mine.ID {
		t.Errorf("top recommendation = %d, want member club event %d", recs[0].ID, mine.ID)
	}
	for _, r := range recs {
		if r.ID == joined.ID {
			t.Error("registered events must be excluded")
		}
		if r.ID == other.ID {
			return
		}
	}
	t.Error("unrelated upcoming event should still be recommended")
}

func TestDeleteEvent(t *testing.T) {
	events, clubs, db := newTestEventService(t)
	owner := createTestUser(t, db, "owner@campus.edu", models.RoleClubAdmin)
	student := createTestUser(t, db, "s@campus.edu", models.RoleStudent)
	club, _ := clubs.Create(owner, &CreateClubRequest{Name: "Dance"})
	event, _ := events.Create(owner, &CreateEventRequest{
		Name: "Recital", Date: time.Now().Add(time.Hour), ClubID: club.ID,
	})
	events.Register(student, event.ID)

	if err := events.Delete(student, event.ID); appErrStatus(t, err) != http.StatusForbidden {
		t.Error("non-delegate delete must be forbidden")
	}
	if err := events.Delete(owner, event.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var regs int64
	db.Model(&models.EventRegistration{}).Where("event_id = ?", event.ID).Count(&regs)
	if regs != 0 {
		t.Errorf("registrations remaining = %d, want 0", regs)
	}
}
