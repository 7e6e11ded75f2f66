package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/middleware"
	"github.com/samvad/campus/backend/internal/services"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

type ForumHandler struct {
	db      *gorm.DB
	service *services.ForumService
}

func NewForumHandler(db *gorm.DB) *ForumHandler {
	return &ForumHandler{
		db:      db,
		service: services.NewForumService(db),
	}
}

// ListPosts returns forum threads
// GET /api/forum/posts?category=&club_id=
func (h *ForumHandler) ListPosts(c *gin.Context) {
	var clubID uint
	if raw := c.Query("club_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid club_id")
			return
		}
		clubID = uint(parsed)
	}

	posts, err := h.service.ListPosts(c.Query("category"), clubID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

// GetPost returns one thread with its replies
// GET /api/forum/posts/:id
func (h *ForumHandler) GetPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	post, replies, err := h.service.GetPost(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"post": post, "replies": replies})
}

// CreatePost starts a thread
// POST /api/forum/posts
func (h *ForumHandler) CreatePost(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.service.CreatePost(user, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// UpdatePost edits a thread
// PUT /api/forum/posts/:id
func (h *ForumHandler) UpdatePost(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.service.UpdatePost(user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

// DeletePost removes a thread
// DELETE /api/forum/posts/:id
func (h *ForumHandler) DeletePost(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePost(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateReply answers a thread
// POST /api/forum/posts/:id/replies
func (h *ForumHandler) CreateReply(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	reply, err := h.service.CreateReply(user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reply)
}

// DeleteReply removes one reply
// DELETE /api/forum/replies/:id
func (h *ForumHandler) DeleteReply(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteReply(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// LikePost toggles a like on a post
// POST /api/forum/posts/:id/like
func (h *ForumHandler) LikePost(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	liked, err := h.service.LikePost(user, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}

// LikeReply toggles a like on a reply
// POST /api/forum/replies/:id/like
func (h *ForumHandler) LikeReply(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	liked, err := h.service.LikeReply(user, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}
