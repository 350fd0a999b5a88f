package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) Sweep(ctx context.Context, now time.Time) (*service.SweepResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SweepResult), args.Error(1)
}

func (m *MockReminderService) Preview(ctx context.Context, now time.Time, days int) ([]service.ReminderPreview, error) {
	args := m.Called(ctx, now, days)
	return args.Get(0).([]service.ReminderPreview), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
	service.NotificationService
}

func (m *MockNotificationService) DrainOutbox(ctx context.Context) (*service.DrainResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DrainResult), args.Error(1)
}

type fakeLocker struct {
	held     map[string]bool
	err      error
	released int
}

func (l *fakeLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[name] {
		return nil, false, nil
	}
	return func() { l.released++ }, true, nil
}

func newTestRunner(locker Locker) (*JobRunner, *MockReminderService, *MockNotificationService) {
	reminders := new(MockReminderService)
	notifications := new(MockNotificationService)
	jr := NewJobRunner(&Services{Reminders: reminders, Notifications: notifications}, &config.Config{}, locker)
	jr.now = func() time.Time { return time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC) }
	return jr, reminders, notifications
}

func TestSendReturnReminders(t *testing.T) {
	jr, reminders, _ := newTestRunner(nil)
	reminders.On("Sweep", mock.Anything, time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC)).
		Return(&service.SweepResult{Checked: 4, Matched: 1, Sent: 1}, nil)

	require.NoError(t, jr.Run(JobSendReturnReminders))
	reminders.AssertExpectations(t)
}

func TestDrainOutbox_ErrorIsReturned(t *testing.T) {
	jr, _, notifications := newTestRunner(nil)
	notifications.On("DrainOutbox", mock.Anything).Return(nil, errors.New("connection reset"))

	assert.Error(t, jr.DrainOutbox())
}

func TestRunWithRecovery_Panic(t *testing.T) {
	jr, _, _ := newTestRunner(nil)

	err := jr.runWithRecovery("boom", func(ctx context.Context) error {
		panic("nil map")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestRunWithRecovery_Locking(t *testing.T) {
	t.Run("Held elsewhere skips", func(t *testing.T) {
		locker := &fakeLocker{held: map[string]bool{"job:" + JobDrainOutbox: true}}
		jr, _, notifications := newTestRunner(locker)

		require.NoError(t, jr.DrainOutbox())
		notifications.AssertNotCalled(t, "DrainOutbox", mock.Anything)
	})

	t.Run("Acquired is released", func(t *testing.T) {
		locker := &fakeLocker{}
		jr, _, notifications := newTestRunner(locker)
		notifications.On("DrainOutbox", mock.Anything).Return(&service.DrainResult{Claimed: 2, Sent: 2}, nil)

		require.NoError(t, jr.DrainOutbox())
		assert.Equal(t, 1, locker.released)
	})

	t.Run("Lock backend down still runs", func(t *testing.T) {
		locker := &fakeLocker{err: errors.New("redis: connection refused")}
		jr, _, notifications := newTestRunner(locker)
		notifications.On("DrainOutbox", mock.Anything).Return(&service.DrainResult{}, nil)

		require.NoError(t, jr.DrainOutbox())
		notifications.AssertExpectations(t)
	})
}

func TestRun_UnknownJob(t *testing.T) {
	jr, _, _ := newTestRunner(nil)
	assert.Error(t, jr.Run("mark-overdue-rentals"))
}

func TestNames_ListsEachJobOnce(t *testing.T) {
	names := Names()
	seen := map[string]int{}
	for _, n := range names {
		seen[n]++
	}
	for n, c := range seen {
		assert.Equal(t, 1, c, n)
	}
	assert.Contains(t, names, "all")
	assert.Contains(t, names, JobSendReturnReminders)
}
