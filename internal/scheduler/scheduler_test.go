package scheduler

import (
	"testing"

	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{}
	cfg.Reminders.Timezone = "UTC"
	cfg.Scheduler.SendReturnReminders = "0 0 9 * * *"
	cfg.Scheduler.DrainOutbox = "0 */1 * * * *"

	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())

	s.Start()
	s.Stop()
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.SendReturnReminders = "every morning"
	cfg.Scheduler.DrainOutbox = "0 */1 * * * *"

	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg, nil))
	assert.Error(t, err)
}
