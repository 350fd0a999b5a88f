package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/metrics"
	"arriendo-cajas-backend/internal/notification"
	"arriendo-cajas-backend/internal/repository"
	"arriendo-cajas-backend/internal/utils"
)

type notificationService struct {
	rentals      repository.RentalRepository
	customers    repository.CustomerRepository
	drivers      repository.DriverRepository
	outbox       repository.OutboxRepository
	dispatcher   notification.Dispatcher
	baseURL      string
	loc          *time.Location
	batchSize    int
	claimTimeout time.Duration
	now          func() time.Time
}

// NotificationOptions configures payload building and outbox draining
type NotificationOptions struct {
	PublicBaseURL string
	Location      *time.Location
	BatchSize     int
	ClaimTimeout  time.Duration
}

func NewNotificationService(
	rentals repository.RentalRepository,
	customers repository.CustomerRepository,
	drivers repository.DriverRepository,
	outbox repository.OutboxRepository,
	dispatcher notification.Dispatcher,
	opts NotificationOptions,
) NotificationService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	return &notificationService{
		rentals:      rentals,
		customers:    customers,
		drivers:      drivers,
		outbox:       outbox,
		dispatcher:   dispatcher,
		baseURL:      opts.PublicBaseURL,
		loc:          opts.Location,
		batchSize:    opts.BatchSize,
		claimTimeout: opts.ClaimTimeout,
		now:          time.Now,
	}
}

func (s *notificationService) NotifyRental(ctx context.Context, rentalID int64, ev domain.EventType) (*domain.EmailLog, error) {
	ctx = logger.WithRentalID(ctx, rentalID)
	if !s.dispatcher.Supports(ev) {
		logger.InfoContext(ctx, "No template for event, nothing to send", "event", ev)
		return nil, domain.ErrNoTemplate
	}

	r, err := s.rentals.GetByID(ctx, rentalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rental %d: %w", rentalID, err)
	}
	return s.dispatchFor(ctx, r, ev)
}

func (s *notificationService) dispatchFor(ctx context.Context, r *domain.Rental, ev domain.EventType) (*domain.EmailLog, error) {
	c, err := s.customers.GetByID(ctx, r.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %d: %w", r.CustomerID, err)
	}

	var d *domain.Driver
	if r.DriverID != nil {
		d, err = s.drivers.GetByID(ctx, *r.DriverID)
		if err != nil {
			logger.WarnContext(ctx, "Driver not found for notification, sending without driver details", "driverID", *r.DriverID, "error", err)
			d = nil
		}
	}

	today := utils.StartOfDay(s.now(), s.loc)
	return s.dispatcher.Dispatch(ctx, ev, notification.BuildPayload(r, c, d, s.baseURL, today))
}

func (s *notificationService) DeliverOutboxEntry(ctx context.Context, entryID int64) error {
	entry, err := s.outbox.Claim(ctx, entryID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.DebugContext(ctx, "Outbox entry already claimed", "entryID", entryID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to claim outbox entry %d: %w", entryID, err)
	}
	_, err = s.deliver(ctx, entry)
	return err
}

// deliver dispatches a claimed entry and records the outcome on it
func (s *notificationService) deliver(ctx context.Context, entry *domain.OutboxEntry) (domain.OutboxStatus, error) {
	ctx = logger.WithRentalID(ctx, entry.RentalID)

	status := domain.OutboxStatusFailed
	var (
		logID   *int64
		lastErr string
	)

	log, err := s.NotifyRental(ctx, entry.RentalID, entry.EventType)
	switch {
	case err != nil:
		lastErr = err.Error()
		logger.ErrorContext(ctx, "Outbox delivery failed", "entryID", entry.ID, "event", entry.EventType, "error", err)
	default:
		logID = &log.ID
		lastErr = log.ErrorMessage
		if log.Status == domain.EmailStatusSent {
			status = domain.OutboxStatusSent
		}
	}

	if err := s.outbox.MarkProcessed(ctx, entry.ID, status, logID, lastErr); err != nil {
		return status, fmt.Errorf("failed to mark outbox entry %d: %w", entry.ID, err)
	}
	metrics.OutboxProcessed.WithLabelValues(string(status)).Inc()
	return status, nil
}

func (s *notificationService) DrainOutbox(ctx context.Context) (*DrainResult, error) {
	logger.EnterMethod("notificationService.DrainOutbox", "batchSize", s.batchSize)
	res := &DrainResult{}
	staleBefore := s.now().Add(-s.claimTimeout)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		entries, err := s.outbox.ClaimBatch(ctx, s.batchSize, staleBefore)
		if err != nil {
			logger.ExitMethodWithError("notificationService.DrainOutbox", err)
			return res, fmt.Errorf("failed to claim outbox batch: %w", err)
		}
		res.Claimed += len(entries)

		for i := range entries {
			status, err := s.deliver(ctx, &entries[i])
			if err != nil {
				logger.ErrorContext(ctx, "Failed to record outbox outcome", "entryID", entries[i].ID, "error", err)
			}
			if status == domain.OutboxStatusSent {
				res.Sent++
			} else {
				res.Failed++
			}
		}

		if len(entries) < s.batchSize {
			break
		}
	}

	logger.ExitMethod("notificationService.DrainOutbox", "claimed", res.Claimed, "sent", res.Sent, "failed", res.Failed)
	return res, nil
}
