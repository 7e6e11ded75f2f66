package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/services"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

type RoleRequestHandler struct {
	db      *gorm.DB
	service *services.RoleRequestService
}

func NewRoleRequestHandler(db *gorm.DB) *RoleRequestHandler {
	return &RoleRequestHandler{
		db:      db,
		service: services.NewRoleRequestService(db),
	}
}

// Submit files a role upgrade request
// POST /api/role-requests/request-role
func (h *RoleRequestHandler) Submit(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	var req services.SubmitRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	request, err := h.service.Submit(user, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Mine lists the caller's requests
// GET /api/role-requests/my-requests
func (h *RoleRequestHandler) Mine(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	requests, err := h.service.ListMine(user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, requests)
}

// All lists every request for the admin console
// GET /api/role-requests/all-requests
func (h *RoleRequestHandler) All(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	requests, err := h.service.ListAll(user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, requests)
}

// Pending lists requests awaiting review
// GET /api/role-requests/pending-requests
func (h *RoleRequestHandler) Pending(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	requests, err := h.service.ListPending(user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, requests)
}

// Review approves or rejects a pending request
// POST /api/role-requests/review-request/:id
func (h *RoleRequestHandler) Review(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.ReviewRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	request, err := h.service.Review(user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, request)
}

// Cancel withdraws the caller's pending request
// DELETE /api/role-requests/cancel-request/:id
func (h *RoleRequestHandler) Cancel(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
