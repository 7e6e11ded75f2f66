package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/services"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db         *gorm.DB
	service    *services.AdminService
	logService *services.SystemLogService
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{
		db:         db,
		service:    services.NewAdminService(db),
		logService: services.NewSystemLogService(db),
	}
}

// Dashboard returns platform-wide counts
// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.service.Dashboard()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// ListUsers returns users for the admin console
// GET /api/admin/users?role=&search=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Query("role"), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// UpdateUserRole sets a user's role directly
// PUT /api/admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.service.UpdateUserRole(actor, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user.Public())
}

// DeleteUser removes an account
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SystemLogs returns the paginated audit trail
// GET /api/admin/logs
func (h *AdminHandler) SystemLogs(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	logs, err := h.logService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, logs)
}
