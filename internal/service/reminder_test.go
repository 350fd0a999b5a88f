package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/notification"
	"arriendo-cajas-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memReminders behaves like the sent_reminders unique key
type memReminders struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memReminders) MarkSent(ctx context.Context, rentalID int64, kind string, windowDate time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	key := fmt.Sprintf("%s/%d/%s", kind, rentalID, windowDate.Format("2006-01-02"))
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

var santiago = time.FixedZone("CLT", -3*60*60)

func deliveredRental(id int64, pickup time.Time) domain.Rental {
	r := *testRental(domain.RentalStatusDelivered)
	r.ID = id
	r.PickupDate = &pickup
	return r
}

func newReminderHarness(t *testing.T, dedupe bool, rentals []domain.Rental) (service.ReminderService, *memEmailLogs) {
	t.Helper()
	rentalRepo := new(MockRentalRepo)
	customers := new(MockCustomerRepo)
	logs := &memEmailLogs{}

	rentalRepo.On("ListByStatus", mock.Anything, domain.RentalStatusDelivered).Return(rentals, nil)
	for i := range rentals {
		rentalRepo.On("GetByID", mock.Anything, rentals[i].ID).Return(&rentals[i], nil)
	}
	customers.On("GetByID", mock.Anything, int64(3)).Return(testCustomer(), nil)

	dispatcher := notification.NewDispatcher(notification.MustRenderer(), &fakeSender{}, logs)
	notifier := service.NewNotificationService(rentalRepo, customers, new(MockDriverRepo), &memOutbox{}, dispatcher,
		service.NotificationOptions{Location: santiago})
	return service.NewReminderService(rentalRepo, &memReminders{}, notifier, service.ReminderOptions{
		DaysBefore: 3,
		Dedupe:     dedupe,
		Location:   santiago,
	}), logs
}

func TestSweep_Dedupe(t *testing.T) {
	now := time.Date(2025, 1, 14, 10, 0, 0, 0, santiago)
	rentals := []domain.Rental{deliveredRental(1, time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC))}

	t.Run("Enabled sends once per window", func(t *testing.T) {
		svc, logs := newReminderHarness(t, true, rentals)

		first, err := svc.Sweep(context.Background(), now)
		require.NoError(t, err)
		second, err := svc.Sweep(context.Background(), now.Add(2*time.Hour))
		require.NoError(t, err)

		assert.Equal(t, 1, first.Sent)
		assert.Equal(t, 0, second.Sent)
		assert.Equal(t, 1, second.Skipped)
		assert.Len(t, logs.all(), 1)
	})

	t.Run("Disabled sends on every run", func(t *testing.T) {
		svc, logs := newReminderHarness(t, false, rentals)

		_, err := svc.Sweep(context.Background(), now)
		require.NoError(t, err)
		_, err = svc.Sweep(context.Background(), now)
		require.NoError(t, err)

		got := logs.all()
		require.Len(t, got, 2)
		assert.Equal(t, domain.EventReturnReminder, got[0].EmailType)
	})
}

func TestSweep_MatchesBusinessCalendarDay(t *testing.T) {
	// 23:30 in Santiago is already the next day in UTC
	now := time.Date(2025, 1, 14, 23, 30, 0, 0, santiago)
	rentals := []domain.Rental{
		deliveredRental(1, time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)),
		deliveredRental(2, time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)),
		deliveredRental(3, time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)),
	}
	svc, logs := newReminderHarness(t, true, rentals)

	res, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Checked)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.Sent)

	got := logs.all()
	require.Len(t, got, 1)
	require.NotNil(t, got[0].RentalID)
	assert.Equal(t, int64(1), *got[0].RentalID)
}

func TestSweep_ContinuesAfterFailures(t *testing.T) {
	now := time.Date(2025, 1, 14, 10, 0, 0, 0, santiago)
	pickup := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	rentals := []domain.Rental{deliveredRental(1, pickup), deliveredRental(2, pickup)}

	rentalRepo := new(MockRentalRepo)
	reminders := new(MockReminderRepo)
	notifier := new(MockNotificationService)
	rentalRepo.On("ListByStatus", mock.Anything, domain.RentalStatusDelivered).Return(rentals, nil)
	reminders.On("MarkSent", mock.Anything, mock.Anything, domain.ReminderKindReturn, mock.MatchedBy(func(w time.Time) bool {
		return w.Equal(time.Date(2025, 1, 17, 0, 0, 0, 0, santiago))
	})).Return(true, nil)
	notifier.On("NotifyRental", mock.Anything, int64(1), domain.EventReturnReminder).Return(nil, errors.New("customer 3 not found"))
	notifier.On("NotifyRental", mock.Anything, int64(2), domain.EventReturnReminder).Return(&domain.EmailLog{ID: 5, Status: domain.EmailStatusSent}, nil)

	svc := service.NewReminderService(rentalRepo, reminders, notifier, service.ReminderOptions{DaysBefore: 3, Dedupe: true, Location: santiago})
	res, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Sent)
	notifier.AssertExpectations(t)
}

func TestSweep_ListFailure(t *testing.T) {
	rentalRepo := new(MockRentalRepo)
	rentalRepo.On("ListByStatus", mock.Anything, domain.RentalStatusDelivered).Return([]domain.Rental(nil), errors.New("connection reset"))

	svc := service.NewReminderService(rentalRepo, new(MockReminderRepo), new(MockNotificationService), service.ReminderOptions{DaysBefore: 3})
	_, err := svc.Sweep(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	now := time.Date(2025, 1, 14, 10, 0, 0, 0, santiago)
	rentals := []domain.Rental{
		deliveredRental(1, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)),
		deliveredRental(2, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)),
		deliveredRental(3, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
		deliveredRental(4, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)),
	}
	svc, _ := newReminderHarness(t, true, rentals)

	out, err := svc.Preview(context.Background(), now, 7)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].Rental.ID)
	assert.Equal(t, 1, out[0].DaysRemaining)
	assert.Equal(t, int64(1), out[1].Rental.ID)
	assert.Equal(t, 6, out[1].DaysRemaining)

	_, err = svc.Preview(context.Background(), now, -1)
	assert.True(t, domain.IsValidation(err))
}
