package services

import (
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/pkg/logger"
)

// Scheduler owns the background maintenance jobs: sweeping expired OTP codes
// and trimming the system log table to its retention window.
type Scheduler struct {
	cron   *cron.Cron
	otp    *OTPService
	logs   *SystemLogService
	logCfg config.LogConfig

	mu      sync.Mutex
	running bool
}

func NewScheduler(otp *OTPService, logs *SystemLogService, logCfg config.LogConfig) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		otp:    otp,
		logs:   logs,
		logCfg: logCfg,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	// Expired OTP rows every 10 minutes.
	if _, err := s.cron.AddFunc("*/10 * * * *", func() {
		swept, err := s.otp.SweepExpired()
		if err != nil {
			logger.Error().Err(err).Msg("otp sweep failed")
			return
		}
		if swept > 0 {
			logger.Debug().Int64("swept", swept).Msg("expired otp codes removed")
		}
	}); err != nil {
		return err
	}

	// System log retention nightly at 03:30.
	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		removed, err := s.logs.Cleanup(s.logCfg.RetentionDays)
		if err != nil {
			logger.Error().Err(err).Msg("system log cleanup failed")
			return
		}
		logger.Info().Int64("removed", removed).Int("retention_days", s.logCfg.RetentionDays).
			Msg("system log retention applied")
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true
	logger.Info().Msg("maintenance scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	logger.Info().Msg("maintenance scheduler stopped")
}
