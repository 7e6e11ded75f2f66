package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/middleware"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

// currentUser loads the authenticated principal's row. Role checks are done
// against this row rather than the token, so a demotion takes effect without
// waiting for the token to expire.
func currentUser(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	var user models.User
	if err := db.First(&user, middleware.GetUserID(c)).Error; err != nil {
		response.Unauthorized(c, "account no longer exists")
		return nil, false
	}
	return &user, true
}

// pathID parses the named numeric path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
