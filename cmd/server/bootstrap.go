package main

import (
	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/internal/services"
	"github.com/samvad/campus/backend/internal/utils"
	"github.com/samvad/campus/backend/pkg/logger"
)

// appServices holds the initialized shared services the routes need.
type appServices struct {
	cfg       *config.Config
	blobs     *services.BlobStore
	otp       *services.OTPService
	taskQueue services.TaskQueue
	worker    *services.Worker
	scheduler *services.Scheduler
}

// bootstrap initializes database, queue, worker and schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	services.InitSystemLogger(models.GetDB())

	blobs := services.NewBlobStore(cfg.BlobStore)
	notifier := services.NewNotificationService(models.GetDB(), cfg.WhatsApp)
	otp := services.NewOTPService(models.GetDB(), notifier)

	// Notification queue: asynq over Redis when available, in-process otherwise.
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notifier.Process)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notifier.Process)
			worker.Start()
		}
	}

	scheduler := services.NewScheduler(otp, services.NewSystemLogService(models.GetDB()), cfg.Log)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start maintenance scheduler: %v", err)
	}

	return &appServices{
		cfg:       cfg,
		blobs:     blobs,
		otp:       otp,
		taskQueue: taskQueue,
		worker:    worker,
		scheduler: scheduler,
	}
}

// shutdown gracefully stops background services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("background services stopped")
}
