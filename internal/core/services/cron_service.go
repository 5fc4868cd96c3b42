package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invite-portal/internal/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService schedules storage cleanup, session expiry checks and idle tab
// sweeping
type CronService struct {
	cron     *cron.Cron
	database *DatabaseService
	tabs     *TabManager
	cfg      *config.Config
	now      Clock
	log      logrus.FieldLogger

	mu      sync.Mutex
	startup *time.Timer
}

// NewCronService creates a new cron service
func NewCronService(database *DatabaseService, tabs *TabManager, cfg *config.Config, now Clock, log logrus.FieldLogger) *CronService {
	cronLog := cron.PrintfLogger(log)
	return &CronService{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		database: database,
		tabs:     tabs,
		cfg:      cfg,
		now:      now,
		log:      log,
	}
}

// Start registers all jobs, starts the scheduler and arms the delayed
// startup cleanup
func (s *CronService) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"cleanup", s.cfg.Cleanup.Schedule, s.RunCleanup},
		{"session-expiry", s.cfg.Session.ExpiryCheckSchedule, s.RunExpiryCheck},
		{"tab-sweep", s.cfg.Session.TabSweepSchedule, s.RunTabSweep},
	}

	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", job.spec, job.name, err)
		}
	}

	s.cron.Start()

	s.mu.Lock()
	s.startup = time.AfterFunc(s.cfg.Cleanup.StartupDelay, s.RunCleanup)
	s.mu.Unlock()

	s.log.Info("🚀 CronService started")
	return nil
}

// Stop cancels the startup cleanup and waits for running jobs
func (s *CronService) Stop() {
	s.mu.Lock()
	if s.startup != nil {
		s.startup.Stop()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.log.Info("🛑 CronService stopped")
}

// RunCleanup runs one storage cleanup
func (s *CronService) RunCleanup() {
	if _, err := s.database.CleanupOldData(context.Background(), s.now()); err != nil {
		s.log.WithError(err).Error("❌ Storage cleanup failed")
	}
}

// RunExpiryCheck logs out every tab whose session expired
func (s *CronService) RunExpiryCheck() {
	if n := s.tabs.CheckExpiry(context.Background()); n > 0 {
		s.log.WithField("tabs", n).Info("⏰ Expired sessions logged out")
	}
}

// RunTabSweep forgets tabs idle beyond their TTL
func (s *CronService) RunTabSweep() {
	if n := s.tabs.SweepIdle(context.Background()); n > 0 {
		s.log.WithField("tabs", n).Info("🧹 Idle tabs closed")
	}
}
