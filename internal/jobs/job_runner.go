package jobs

import (
	"context"
	"fmt"
	"time"

	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/metrics"
	"arriendo-cajas-backend/internal/service"
)

const (
	JobSendReturnReminders = "send-return-reminders"
	JobDrainOutbox         = "drain-outbox"
)

// Locker keeps a job from running on two processes at once
type Locker interface {
	// TryLock returns ok=false when another holder owns name
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	locker   Locker
	timeout  time.Duration
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Reminders     service.ReminderService
	Notifications service.NotificationService
}

// NewJobRunner creates a new job runner. locker may be nil when only one runner is deployed.
func NewJobRunner(services *Services, cfg *config.Config, locker Locker) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		locker:   locker,
		timeout:  10 * time.Minute,
		now:      time.Now,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery, locking and metrics
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	outcome := "success"
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			outcome = "panic"
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		metrics.JobRuns.WithLabelValues(jobName, outcome).Inc()
	}()

	if jr.locker != nil {
		release, ok, lockErr := jr.locker.TryLock(ctx, "job:"+jobName, jr.timeout)
		if lockErr != nil {
			logger.Warn("Job lock unavailable, running unlocked", "job", jobName, "error", lockErr)
		} else if !ok {
			logger.Info("Job already running elsewhere, skipping", "job", jobName)
			outcome = "skipped"
			return nil
		} else {
			defer release()
		}
	}

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	if err = jobFunc(ctx); err != nil {
		outcome = "error"
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// SendReturnReminders runs the return reminder sweep for today
func (jr *JobRunner) SendReturnReminders() error {
	return jr.runWithRecovery(JobSendReturnReminders, func(ctx context.Context) error {
		res, err := jr.services.Reminders.Sweep(ctx, jr.now())
		if err != nil {
			return err
		}
		logger.Info("Return reminders processed", "sent", res.Sent, "skipped", res.Skipped, "failed", res.Failed)
		return nil
	})
}

// DrainOutbox delivers notification intents left pending by request handlers
func (jr *JobRunner) DrainOutbox() error {
	return jr.runWithRecovery(JobDrainOutbox, func(ctx context.Context) error {
		res, err := jr.services.Notifications.DrainOutbox(ctx)
		if err != nil {
			return err
		}
		if res.Claimed > 0 {
			logger.Info("Outbox drained", "claimed", res.Claimed, "sent", res.Sent, "failed", res.Failed)
		}
		return nil
	})
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() error {
	drainErr := jr.DrainOutbox()
	remindErr := jr.SendReturnReminders()
	if drainErr != nil {
		return drainErr
	}
	return remindErr
}

// Run executes a job by name
func (jr *JobRunner) Run(name string) error {
	switch name {
	case JobSendReturnReminders:
		return jr.SendReturnReminders()
	case JobDrainOutbox:
		return jr.DrainOutbox()
	case "all":
		return jr.RunAll()
	default:
		return fmt.Errorf("unknown job %q", name)
	}
}

// Names lists the jobs accepted by Run
func Names() []string {
	return []string{JobSendReturnReminders, JobDrainOutbox, "all"}
}
