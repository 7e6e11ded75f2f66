package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/services"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

const maxUploadSize = 10 << 20 // 10 MiB

type ClubHandler struct {
	db      *gorm.DB
	service *services.ClubService
}

func NewClubHandler(db *gorm.DB, blobs *services.BlobStore, queue services.TaskQueue) *ClubHandler {
	return &ClubHandler{
		db:      db,
		service: services.NewClubService(db, blobs, queue),
	}
}

// List returns all clubs
// GET /api/clubs
func (h *ClubHandler) List(c *gin.Context) {
	clubs, err := h.service.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, clubs)
}

// Get returns one club
// GET /api/clubs/:id
func (h *ClubHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	club, err := h.service.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, club)
}

// Administered returns the clubs the caller holds a delegate slot in
// GET /api/users/me/administered-clubs
func (h *ClubHandler) Administered(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	clubs, err := h.service.AdministeredBy(user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, clubs)
}

// Create makes a new club
// POST /api/clubs
func (h *ClubHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	var req services.CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	club, err := h.service.Create(user, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, club)
}

// Update edits a club
// PUT /api/clubs/:id
func (h *ClubHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	club, err := h.service.Update(user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, club)
}

// UploadCover replaces a club's cover image
// POST /api/clubs/:id/cover
func (h *ClubHandler) UploadCover(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file required")
		return
	}
	defer file.Close()
	if header.Size > maxUploadSize {
		response.BadRequest(c, "image exceeds the 10 MiB limit")
		return
	}

	club, err := h.service.UploadCover(user, id, header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, club)
}

// Delete removes a club
// DELETE /api/clubs/:id
func (h *ClubHandler) Delete(c *gin.Context) {
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

// Join adds the caller to a club
// POST /api/clubs/:id/join
func (h *ClubHandler) Join(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Join(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "joined"})
}

// Leave removes the caller from a club
// POST /api/clubs/:id/leave
func (h *ClubHandler) Leave(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Leave(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "left"})
}

// Members lists a club's members
// GET /api/clubs/:id/members
func (h *ClubHandler) Members(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := h.service.Members(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// CreateAnnouncement posts a club announcement
// POST /api/clubs/:id/announcements
func (h *ClubHandler) CreateAnnouncement(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	announcement, err := h.service.CreateAnnouncement(user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Announcements lists a club's announcements
// GET /api/clubs/:id/announcements
func (h *ClubHandler) Announcements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	announcements, err := h.service.ListAnnouncements(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, announcements)
}
