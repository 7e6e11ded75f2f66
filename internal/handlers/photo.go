package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/services"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

type PhotoHandler struct {
	db      *gorm.DB
	service *services.PhotoService
}

func NewPhotoHandler(db *gorm.DB, blobs *services.BlobStore) *PhotoHandler {
	return &PhotoHandler{
		db:      db,
		service: services.NewPhotoService(db, blobs),
	}
}

// EventPhotos lists an event's photos
// GET /api/events/:id/photos
func (h *PhotoHandler) EventPhotos(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	photos, err := h.service.EventPhotos(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, photos)
}

// AddEventPhoto uploads a photo onto an event
// POST /api/events/:id/photos
func (h *PhotoHandler) AddEventPhoto(c *gin.Context) {
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

	photo, err := h.service.AddEventPhoto(user, id, header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, photo)
}

// DeleteEventPhoto removes an event photo
// DELETE /api/photos/:id
func (h *PhotoHandler) DeleteEventPhoto(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteEventPhoto(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Gallery lists the shared gallery
// GET /api/gallery
func (h *PhotoHandler) Gallery(c *gin.Context) {
	photos, err := h.service.Gallery()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, photos)
}

// AddGalleryPhoto uploads into the shared gallery
// POST /api/gallery
func (h *PhotoHandler) AddGalleryPhoto(c *gin.Context) {
	user, ok := currentUser(c, h.db)
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

	photo, err := h.service.AddGalleryPhoto(user, c.PostForm("caption"), header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, photo)
}

// DeleteGalleryPhoto removes a gallery photo
// DELETE /api/gallery/:id
func (h *PhotoHandler) DeleteGalleryPhoto(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteGalleryPhoto(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
