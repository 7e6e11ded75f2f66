package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/middleware"
	"github.com/samvad/campus/backend/internal/services"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

type EventHandler struct {
	db      *gorm.DB
	service *services.EventService
}

func NewEventHandler(db *gorm.DB, queue services.TaskQueue) *EventHandler {
	return &EventHandler{
		db:      db,
		service: services.NewEventService(db, queue),
	}
}

// List returns events, filterable by club and time window
// GET /api/events?club_id=&window=upcoming|past
func (h *EventHandler) List(c *gin.Context) {
	var clubID uint
	if raw := c.Query("club_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid club_id")
			return
		}
		clubID = uint(parsed)
	}

	events, err := h.service.List(clubID, c.Query("window"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, events)
}

// Get returns one event
// GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	event, err := h.service.Get(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, event)
}

// Create adds an event under a club
// POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	event, err := h.service.Create(user, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update edits an event
// PUT /api/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	event, err := h.service.Update(user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, event)
}

// Delete removes an event
// DELETE /api/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Register signs the caller up for an event
// POST /api/events/:id/register
func (h *EventHandler) Register(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Register(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "registered"})
}

// Unregister withdraws the caller's registration
// DELETE /api/events/:id/register
func (h *EventHandler) Unregister(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Unregister(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Registrations lists an event's attendees for organizers
// GET /api/events/:id/registrations
func (h *EventHandler) Registrations(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	attendees, err := h.service.Registrations(user, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, attendees)
}

// RecordAttendance checks an attendee in
// POST /api/events/:id/attendance
func (h *EventHandler) RecordAttendance(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	record, err := h.service.RecordAttendance(user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Attendance lists an event's check-ins
// GET /api/events/:id/attendance
func (h *EventHandler) Attendance(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	records, err := h.service.Attendance(user, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

// Recommendations returns the caller's top upcoming events
// GET /api/events/recommendations
func (h *EventHandler) Recommendations(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	events, err := h.service.Recommend(user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, events)
}
