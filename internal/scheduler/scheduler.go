package scheduler

import (
	"arriendo-cajas-backend/internal/jobs"
	"arriendo-cajas-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler with seconds precision.
// Specs are read in the business timezone so "0 0 9 * * *" means 9 AM local.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	cfg := jobRunner.Config()
	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}
	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.SendReturnReminders, func() { _ = s.jobs.SendReturnReminders() }); err != nil {
		logger.Error("Failed to register job", "job", jobs.JobSendReturnReminders, "spec", cfg.SendReturnReminders, "error", err)
		return err
	}
	if _, err := s.cron.AddFunc(cfg.DrainOutbox, func() { _ = s.jobs.DrainOutbox() }); err != nil {
		logger.Error("Failed to register job", "job", jobs.JobDrainOutbox, "spec", cfg.DrainOutbox, "error", err)
		return err
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
