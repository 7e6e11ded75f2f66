package main

import (
	"github.com/gin-gonic/gin"
	"github.com/samvad/campus/backend/internal/handlers"
	"github.com/samvad/campus/backend/internal/middleware"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	db := models.GetDB()

	authHandler := handlers.NewAuthHandler(db, svc.cfg)
	roleRequestHandler := handlers.NewRoleRequestHandler(db)
	clubHandler := handlers.NewClubHandler(db, svc.blobs, svc.taskQueue)
	eventHandler := handlers.NewEventHandler(db, svc.taskQueue)
	photoHandler := handlers.NewPhotoHandler(db, svc.blobs)
	forumHandler := handlers.NewForumHandler(db)
	adminHandler := handlers.NewAdminHandler(db)
	verificationHandler := handlers.NewVerificationHandler(db, svc.otp)
	healthHandler := handlers.NewHealthHandler()

	// Brute-force protection on the credential and OTP endpoints.
	loginLimiter := middleware.NewRateLimiter(5, 10)

	r.GET("/health", healthHandler.CheckHealth)

	// Local uploads when the CDN is disabled.
	if !svc.cfg.BlobStore.Enabled {
		r.Static("/uploads", svc.cfg.BlobStore.UploadDir)
	}

	api := r.Group("/api")
	{
		users := api.Group("/users", loginLimiter.Middleware())
		{
			users.POST("/signup", authHandler.Signup)
			users.POST("/login", authHandler.Login)
			users.POST("/google-login", authHandler.GoogleLogin)
			users.POST("/ldap-login", authHandler.LDAPLogin)
		}

		// Public reads
		api.GET("/clubs", clubHandler.List)
		api.GET("/clubs/:id", clubHandler.Get)
		api.GET("/clubs/:id/announcements", clubHandler.Announcements)
		api.GET("/events", eventHandler.List)
		api.GET("/events/:id", eventHandler.Get)
		api.GET("/events/:id/photos", photoHandler.EventPhotos)
		api.GET("/gallery", photoHandler.Gallery)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Profile
			protected.GET("/users/me", authHandler.Me)
			protected.PUT("/users/me", authHandler.UpdateProfile)
			protected.PUT("/users/me/password", authHandler.ChangePassword)
			protected.GET("/users/me/administered-clubs", clubHandler.Administered)

			// Role requests
			protected.POST("/role-requests/request-role", roleRequestHandler.Submit)
			protected.GET("/role-requests/my-requests", roleRequestHandler.Mine)
			protected.DELETE("/role-requests/cancel-request/:id", roleRequestHandler.Cancel)

			// Clubs
			protected.POST("/clubs", clubHandler.Create)
			protected.PUT("/clubs/:id", clubHandler.Update)
			protected.DELETE("/clubs/:id", clubHandler.Delete)
			protected.POST("/clubs/:id/cover", clubHandler.UploadCover)
			protected.POST("/clubs/:id/join", clubHandler.Join)
			protected.POST("/clubs/:id/leave", clubHandler.Leave)
			protected.GET("/clubs/:id/members", clubHandler.Members)
			protected.POST("/clubs/:id/announcements", clubHandler.CreateAnnouncement)

			// Events
			protected.POST("/events", eventHandler.Create)
			protected.PUT("/events/:id", eventHandler.Update)
			protected.DELETE("/events/:id", eventHandler.Delete)
			protected.POST("/events/:id/register", eventHandler.Register)
			protected.DELETE("/events/:id/register", eventHandler.Unregister)
			protected.GET("/events/:id/registrations", eventHandler.Registrations)
			protected.POST("/events/:id/attendance", eventHandler.RecordAttendance)
			protected.GET("/events/:id/attendance", eventHandler.Attendance)
			protected.GET("/events/recommendations", eventHandler.Recommendations)

			// Photos
			protected.POST("/events/:id/photos", photoHandler.AddEventPhoto)
			protected.DELETE("/photos/:id", photoHandler.DeleteEventPhoto)
			protected.POST("/gallery", photoHandler.AddGalleryPhoto)
			protected.DELETE("/gallery/:id", photoHandler.DeleteGalleryPhoto)

			// Forum
			protected.GET("/forum/posts", forumHandler.ListPosts)
			protected.GET("/forum/posts/:id", forumHandler.GetPost)
			protected.POST("/forum/posts", forumHandler.CreatePost)
			protected.PUT("/forum/posts/:id", forumHandler.UpdatePost)
			protected.DELETE("/forum/posts/:id", forumHandler.DeletePost)
			protected.POST("/forum/posts/:id/replies", forumHandler.CreateReply)
			protected.DELETE("/forum/replies/:id", forumHandler.DeleteReply)
			protected.POST("/forum/posts/:id/like", forumHandler.LikePost)
			protected.POST("/forum/replies/:id/like", forumHandler.LikeReply)

			// WhatsApp verification, throttled per IP on top of the
			// per-number resend window.
			verification := protected.Group("/verification", loginLimiter.Middleware())
			{
				verification.POST("/request", verificationHandler.RequestOTP)
				verification.POST("/verify", verificationHandler.VerifyOTP)
				verification.PUT("/consent", verificationHandler.SetConsent)
			}
		}

		// Super admin console; every write lands in the audit trail.
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.SuperAdminRequired(), middleware.AuditLog())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.GET("/logs", adminHandler.SystemLogs)
		}

		// Role request review also requires the console role and auditing.
		review := api.Group("/role-requests")
		review.Use(middleware.AuthRequired(), middleware.SuperAdminRequired(), middleware.AuditLog())
		{
			review.GET("/all-requests", roleRequestHandler.All)
			review.GET("/pending-requests", roleRequestHandler.Pending)
			review.POST("/review-request/:id", roleRequestHandler.Review)
		}
	}
}
