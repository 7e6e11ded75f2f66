package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/internal/services"
)

// HealthHandler reports subsystem status.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var pendingRequests int64
	models.GetDB().Model(&models.RoleRequest{}).
		Where("status = ?", models.RoleRequestPending).
		Count(&pendingRequests)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "samvad",
		"components": gin.H{
			"database":              dbStatus,
			"queue_mode":            queueMode,
			"pending_role_requests": pendingRequests,
		},
	})
}
