package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samvad/campus/backend/internal/authz"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/logger"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

// EventService handles event CRUD, registration, attendance and the
// recommendation feed. Mutations resolve authority through the owning club.
type EventService struct {
	db    *gorm.DB
	queue TaskQueue
}

func NewEventService(db *gorm.DB, queue TaskQueue) *EventService {
	return &EventService{db: db, queue: queue}
}

type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=5000"`
	Date        time.Time `json:"date" binding:"required"`
	Location    string    `json:"location" binding:"max=300"`
	ClubID      uint      `json:"club_id" binding:"required"`
	Notify      bool      `json:"notify"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name" binding:"omitempty,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location" binding:"omitempty,max=300"`
}

type RecordAttendanceRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Notes  string `json:"notes" binding:"max=500"`
}

// EventView augments an event with its registration count and, when a caller
// is known, whether that caller is registered.
type EventView struct {
	models.Event
	RegistrationCount int64 `json:"registration_count"`
	Registered        bool  `json:"registered"`
}

// List returns events, optionally limited to one club. "upcoming" keeps only
// future events, "past" only elapsed ones; anything else returns all. Ordered
// soonest first.
func (s *EventService) List(clubID uint, window string, callerID uint) ([]EventView, error) {
	query := s.db.Preload("Club").Order("date ASC")
	if clubID != 0 {
		query = query.Where("club_id = ?", clubID)
	}
	now := time.Now()
	switch window {
	case "upcoming":
		query = query.Where("date > ?", now)
	case "past":
		query = query.Where("date <= ?", now).Order("date DESC")
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return s.buildViews(events, callerID), nil
}

// Get returns one event or 404.
func (s *EventService) Get(eventID, callerID uint) (*EventView, error) {
	event, err := s.requireEvent(eventID)
	if err != nil {
		return nil, err
	}
	views := s.buildViews([]models.Event{*event}, callerID)
	return &views[0], nil
}

// Create adds an event under a club the caller has authority over.
func (s *EventService) Create(caller *models.User, req *CreateEventRequest) (*models.Event, error) {
	club, err := s.requireManageableClub(caller, req.ClubID)
	if err != nil {
		return nil, err
	}

	event := models.Event{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		ClubID:      req.ClubID,
	}
	if err := s.db.Create(&event).Error; err != nil {
		return nil, err
	}

	if req.Notify && s.queue != nil {
		body := fmt.Sprintf("[%s] New event: %s\n%s\nWhen: %s",
			club.Name, event.Name, event.Location, event.Date.Format("Mon, 02 Jan 2006 15:04"))
		if err := s.queue.Enqueue(&NotificationTask{
			Kind:   NotifyClubBroadcast,
			ClubID: club.ID,
			Body:   body,
		}); err != nil {
			logger.Warn().Err(err).Uint("event_id", event.ID).Msg("event broadcast enqueue failed")
		}
	}

	logger.Info().Uint("event_id", event.ID).Uint("club_id", club.ID).Msg("event created")
	return &event, nil
}

// Update mutates event fields. Authority comes from the owning club.
func (s *EventService) Update(caller *models.User, eventID uint, req *UpdateEventRequest) (*models.Event, error) {
	event, err := s.requireEvent(eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireManageableClub(caller, event.ClubID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.Location != nil {
		event.Location = *req.Location
	}

	if err := s.db.Save(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes an event and its registrations.
func (s *EventService) Delete(caller *models.User, eventID uint) error {
	event, err := s.requireEvent(eventID)
	if err != nil {
		return err
	}
	if _, err := s.requireManageableClub(caller, event.ClubID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.EventRegistration{}).Error; err != nil {
			return err
		}
		return tx.Delete(event).Error
	})
}

// Register signs the caller up for an event. Past events cannot be joined.
func (s *EventService) Register(caller *models.User, eventID uint) error {
	event, err := s.requireEvent(eventID)
	if err != nil {
		return err
	}
	if !event.Upcoming(time.Now()) {
		return response.NewConflict("this event has already taken place")
	}

	var existing int64
	if err := s.db.Model(&models.EventRegistration{}).
		Where("user_id = ? AND event_id = ?", caller.ID, eventID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return response.NewConflict("you are already registered for this event")
	}

	return s.db.Create(&models.EventRegistration{UserID: caller.ID, EventID: eventID}).Error
}

// Unregister removes the caller's registration.
func (s *EventService) Unregister(caller *models.User, eventID uint) error {
	if _, err := s.requireEvent(eventID); err != nil {
		return err
	}

	result := s.db.Where("user_id = ? AND event_id = ?", caller.ID, eventID).
		Delete(&models.EventRegistration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewConflict("you are not registered for this event")
	}
	return nil
}

// Registrations lists an event's attendees for its organizers.
func (s *EventService) Registrations(caller *models.User, eventID uint) ([]models.PublicUser, error) {
	event, err := s.requireEvent(eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireManageableClub(caller, event.ClubID); err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.
		Joins("JOIN event_registrations ON event_registrations.user_id = users.id").
		Where("event_registrations.event_id = ?", eventID).
		Order("users.full_name ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}

	attendees := make([]models.PublicUser, 0, len(users))
	for i := range users {
		attendees = append(attendees, users[i].Public())
	}
	return attendees, nil
}

// RecordAttendance checks a user in at an event. Organizer only; duplicate
// check-ins conflict via the storage-level unique index.
func (s *EventService) RecordAttendance(caller *models.User, eventID uint, req *RecordAttendanceRequest) (*models.AttendanceRecord, error) {
	event, err := s.requireEvent(eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireManageableClub(caller, event.ClubID); err != nil {
		return nil, err
	}

	var attendee models.User
	if err := s.db.First(&attendee, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("attendee not found")
		}
		return nil, err
	}

	var existing int64
	if err := s.db.Model(&models.AttendanceRecord{}).
		Where("user_id = ? AND event_id = ?", req.UserID, eventID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, response.NewConflict("attendance already recorded for this user")
	}

	record := models.AttendanceRecord{
		UserID:  req.UserID,
		EventID: eventID,
		Notes:   req.Notes,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Attendance lists an event's check-ins for its organizers.
func (s *EventService) Attendance(caller *models.User, eventID uint) ([]models.AttendanceRecord, error) {
	event, err := s.requireEvent(eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireManageableClub(caller, event.ClubID); err != nil {
		return nil, err
	}

	var records []models.AttendanceRecord
	if err := s.db.Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Recommend scores upcoming events for the caller and returns the top five.
// The score favors events from clubs the caller belongs to, then categories
// the caller has registered for before, then proximity in time.
func (s *EventService) Recommend(caller *models.User) ([]EventView, error) {
	now := time.Now()

	var upcoming []models.Event
	if err := s.db.Preload("Club").
		Where("date > ?", now).
		Find(&upcoming).Error; err != nil {
		return nil, err
	}

	var memberships []models.Membership
	if err := s.db.Where("user_id = ?", caller.ID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	memberOf := make(map[uint]bool, len(memberships))
	for _, m := range memberships {
		memberOf[m.ClubID] = true
	}

	// Categories of events the caller registered for in the past.
	var pastCategories []string
	s.db.Model(&models.Event{}).
		Distinct("clubs.category").
		Joins("JOIN event_registrations ON event_registrations.event_id = events.id").
		Joins("JOIN clubs ON clubs.id = events.club_id").
		Where("event_registrations.user_id = ?", caller.ID).
		Pluck("clubs.category", &pastCategories)
	likedCategory := make(map[string]bool, len(pastCategories))
	for _, c := range pastCategories {
		likedCategory[strings.ToLower(c)] = true
	}

	var registered []models.EventRegistration
	s.db.Where("user_id = ?", caller.ID).Find(&registered)
	alreadyIn := make(map[uint]bool, len(registered))
	for _, r := range registered {
		alreadyIn[r.EventID] = true
	}

	type scored struct {
		event models.Event
		score float64
	}
	candidates := make([]scored, 0, len(upcoming))
	for _, e := range upcoming {
		if alreadyIn[e.ID] {
			continue
		}
		score := 0.0
		if memberOf[e.ClubID] {
			score += 10
		}
		if e.Club != nil && likedCategory[strings.ToLower(e.Club.Category)] {
			score += 5
		}
		// Sooner events rank higher, decaying over a month.
		daysAway := e.Date.Sub(now).Hours() / 24
		if daysAway < 30 {
			score += (30 - daysAway) / 30
		}
		candidates = append(candidates, scored{event: e, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}

	events := make([]models.Event, 0, len(candidates))
	for _, c := range candidates {
		events = append(events, c.event)
	}
	return s.buildViews(events, caller.ID), nil
}

func (s *EventService) buildViews(events []models.Event, callerID uint) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		view := EventView{Event: e}
		s.db.Model(&models.EventRegistration{}).
			Where("event_id = ?", e.ID).Count(&view.RegistrationCount)
		if callerID != 0 {
			var mine int64
			s.db.Model(&models.EventRegistration{}).
				Where("event_id = ? AND user_id = ?", e.ID, callerID).Count(&mine)
			view.Registered = mine > 0
		}
		views = append(views, view)
	}
	return views
}

func (s *EventService) requireEvent(eventID uint) (*models.Event, error) {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("event not found")
		}
		return nil, err
	}
	return &event, nil
}

// requireManageableClub loads the owning club and checks authority, 404
// before 403.
func (s *EventService) requireManageableClub(caller *models.User, clubID uint) (*models.Club, error) {
	var club models.Club
	if err := s.db.First(&club, clubID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("club not found")
		}
		return nil, err
	}
	if !authz.CanManageClub(caller, &club) {
		return nil, response.NewForbidden("you do not have authority over this club")
	}
	return &club, nil
}
