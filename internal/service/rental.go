package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"arriendo-cajas-backend/internal/cache"
	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/metrics"
	"arriendo-cajas-backend/internal/push"
	"arriendo-cajas-backend/internal/repository"
	"arriendo-cajas-backend/internal/utils"

	"github.com/google/uuid"
)

const (
	trackingCodePrefix   = "ARR-"
	trackingCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	trackingCodeLength   = 6
	createAttempts       = 3
)

// RentalOptions holds the rental settings from configuration
type RentalOptions struct {
	EnforceTransitions bool
	DefaultPricePerDay int64
	DefaultRentalDays  int
}

type rentalService struct {
	tx        repository.TxManager
	rentals   repository.RentalRepository
	customers repository.CustomerRepository
	drivers   repository.DriverRepository
	inventory repository.InventoryRepository
	outbox    repository.OutboxRepository
	emailLogs repository.EmailLogRepository
	notifier  NotificationService
	cache     cache.TrackingCache
	push      push.Notifier
	opts      RentalOptions
	now       func() time.Time
}

func NewRentalService(
	tx repository.TxManager,
	rentals repository.RentalRepository,
	customers repository.CustomerRepository,
	drivers repository.DriverRepository,
	inventory repository.InventoryRepository,
	outbox repository.OutboxRepository,
	emailLogs repository.EmailLogRepository,
	notifier NotificationService,
	trackingCache cache.TrackingCache,
	pushNotifier push.Notifier,
	opts RentalOptions,
) RentalService {
	if trackingCache == nil {
		trackingCache = cache.NoopTrackingCache{}
	}
	if pushNotifier == nil {
		pushNotifier = push.NoopNotifier{}
	}
	if opts.DefaultRentalDays <= 0 {
		opts.DefaultRentalDays = domain.DefaultRentalDays
	}
	return &rentalService{
		tx:        tx,
		rentals:   rentals,
		customers: customers,
		drivers:   drivers,
		inventory: inventory,
		outbox:    outbox,
		emailLogs: emailLogs,
		notifier:  notifier,
		cache:     trackingCache,
		push:      pushNotifier,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *rentalService) CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.CreateRental", "customerID", in.CustomerID, "boxes", in.BoxQuantity)

	if in.CustomerID <= 0 {
		return nil, domain.NewValidationError("customer_id", "is required")
	}
	if in.BoxQuantity <= 0 {
		return nil, domain.NewValidationError("box_quantity", "must be positive")
	}
	if in.DeliveryDate.IsZero() {
		return nil, domain.NewValidationError("delivery_date", "is required")
	}
	if _, err := s.customers.GetByID(ctx, in.CustomerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("customer_id", "customer does not exist")
		}
		return nil, err
	}

	r := &domain.Rental{
		CustomerID:         in.CustomerID,
		Status:             domain.RentalStatusPending,
		BoxQuantity:        in.BoxQuantity,
		PricePerDay:        in.PricePerDay,
		GuaranteeAmount:    in.GuaranteeAmount,
		DeliveryDate:       in.DeliveryDate,
		PickupDate:         in.PickupDate,
		DeliveryAddress:    strings.TrimSpace(in.DeliveryAddress),
		PickupAddress:      strings.TrimSpace(in.PickupAddress),
		Notes:              in.Notes,
		AdditionalProducts: in.AdditionalProducts,
	}
	if r.PricePerDay == 0 {
		r.PricePerDay = s.opts.DefaultPricePerDay
	}
	if r.PickupDate == nil {
		days := in.RentalDays
		if days <= 0 {
			days = s.opts.DefaultRentalDays
		}
		pickup := in.DeliveryDate.AddDate(0, 0, days)
		r.PickupDate = &pickup
	}
	if in.DriverID != nil {
		if err := s.requireActiveDriver(ctx, *in.DriverID); err != nil {
			return nil, err
		}
		r.DriverID = in.DriverID
	}
	if err := s.applyTotal(r, in.TotalAmount); err != nil {
		return nil, err
	}

	var entry *domain.OutboxEntry
	var err error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		code, codeErr := newTrackingCode()
		if codeErr != nil {
			return nil, codeErr
		}
		r.TrackingCode = code
		r.TrackingToken = newTrackingToken()

		err = s.tx.WithTx(ctx, func(ctx context.Context) error {
			if err := s.rentals.Create(ctx, r); err != nil {
				return err
			}
			entry = &domain.OutboxEntry{RentalID: r.ID, EventType: domain.EventPending}
			return s.outbox.Enqueue(ctx, entry)
		})
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
		logger.Warn("Tracking code collision, retrying", "code", code, "attempt", attempt)
	}
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err)
		return nil, err
	}

	ctx = logger.WithRentalID(ctx, r.ID)
	s.refreshCustomer(ctx, r.CustomerID)
	s.deliver(ctx, entry)

	logger.ExitMethod("rentalService.CreateRental", "rentalID", r.ID, "code", r.TrackingCode)
	return r, nil
}

// applyTotal sets an explicit total or computes it from the rental fields
func (s *rentalService) applyTotal(r *domain.Rental, explicit *int64) error {
	if explicit != nil {
		if *explicit < 0 {
			return domain.NewValidationError("total_amount", "must not be negative")
		}
		r.TotalAmount = *explicit
		return nil
	}
	total, err := utils.CalculateRentalTotal(r)
	if err != nil {
		return domain.NewValidationError("rental", err.Error())
	}
	r.TotalAmount = total
	return nil
}

func (s *rentalService) GetRental(ctx context.Context, id int64) (*domain.Rental, error) {
	return s.rentals.GetByID(ctx, id)
}

func (s *rentalService) ListRentals(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, int32, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	return s.rentals.List(ctx, filter)
}

func (s *rentalService) UpdateRental(ctx context.Context, id int64, in UpdateRentalInput) (*domain.Rental, error) {
	ctx = logger.WithRentalID(ctx, id)
	r, err := s.rentals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Version > 0 && in.Version != r.Version {
		return nil, domain.ErrStaleVersion
	}
	if r.Status.IsTerminal() {
		return nil, domain.NewValidationError("status", "closed rentals cannot be edited")
	}

	if in.BoxQuantity != nil {
		if *in.BoxQuantity <= 0 {
			return nil, domain.NewValidationError("box_quantity", "must be positive")
		}
		r.BoxQuantity = *in.BoxQuantity
	}
	if in.PricePerDay != nil {
		r.PricePerDay = *in.PricePerDay
	}
	if in.GuaranteeAmount != nil {
		r.GuaranteeAmount = *in.GuaranteeAmount
	}
	if in.DeliveryDate != nil {
		r.DeliveryDate = *in.DeliveryDate
	}
	if in.PickupDate != nil {
		r.PickupDate = in.PickupDate
	}
	if in.DeliveryAddress != nil {
		r.DeliveryAddress = strings.TrimSpace(*in.DeliveryAddress)
	}
	if in.PickupAddress != nil {
		r.PickupAddress = strings.TrimSpace(*in.PickupAddress)
	}
	if in.Notes != nil {
		r.Notes = *in.Notes
	}
	if in.AdditionalProducts != nil {
		r.AdditionalProducts = *in.AdditionalProducts
	}
	if in.TotalAmount != nil || in.repricing() {
		if err := s.applyTotal(r, in.TotalAmount); err != nil {
			return nil, err
		}
	}
	if r.TotalAmount < r.PaidAmount {
		return nil, domain.NewValidationError("total_amount", "must not be below the amount already paid")
	}

	if err := s.rentals.Update(ctx, r); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, r.TrackingCode)
	s.refreshCustomer(ctx, r.CustomerID)
	return r, nil
}

func (s *rentalService) DeleteRental(ctx context.Context, id int64) error {
	ctx = logger.WithRentalID(ctx, id)
	r, err := s.rentals.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.inventory.ReleaseReservations(ctx, id, s.now()); err != nil {
			return err
		}
		return s.rentals.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Rental deleted", "code", r.TrackingCode)
	s.cache.Invalidate(ctx, r.TrackingCode)
	s.refreshCustomer(ctx, r.CustomerID)
	return nil
}

func (s *rentalService) ChangeStatus(ctx context.Context, id int64, target domain.RentalStatus, expectedVersion int) (*domain.Rental, error) {
	ctx = logger.WithRentalID(ctx, id)
	logger.EnterMethod("rentalService.ChangeStatus", "rentalID", id, "target", target)

	r, err := s.rentals.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rentalService.ChangeStatus", err)
		return nil, err
	}
	if expectedVersion > 0 && expectedVersion != r.Version {
		s.countTransition(target, "stale")
		return nil, domain.ErrStaleVersion
	}

	from := r.Status
	if s.opts.EnforceTransitions {
		if err := domain.ValidateTransition(from, target); err != nil {
			s.countTransition(target, "rejected")
			logger.ExitMethodWithError("rentalService.ChangeStatus", err)
			return nil, err
		}
	} else if !target.IsKnown() {
		logger.WarnContext(ctx, "Persisting unknown rental status", "from", from, "to", target)
	}

	var assigned *domain.Driver
	if target == domain.RentalStatusScheduled && r.DriverID == nil {
		d, err := s.drivers.LeastLoaded(ctx)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.WarnContext(ctx, "No active driver available, scheduling without driver")
		case err != nil:
			return nil, fmt.Errorf("failed to pick driver: %w", err)
		default:
			r.DriverID = &d.ID
			assigned = d
		}
	}

	r.Status = target
	ev, hasEvent := domain.EventForStatus(target)

	var entry *domain.OutboxEntry
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.rentals.Update(ctx, r); err != nil {
			return err
		}
		if !hasEvent {
			return nil
		}
		entry = &domain.OutboxEntry{RentalID: r.ID, EventType: ev}
		return s.outbox.Enqueue(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, domain.ErrStaleVersion) {
			s.countTransition(target, "stale")
		}
		logger.ExitMethodWithError("rentalService.ChangeStatus", err)
		return nil, err
	}
	s.countTransition(target, "applied")
	logger.InfoContext(ctx, "Rental status changed", "from", from, "to", target, "version", r.Version)

	s.cache.Invalidate(ctx, r.TrackingCode)
	s.refreshCustomer(ctx, r.CustomerID)
	if r.Status.IsTerminal() {
		s.releaseReservations(ctx, r.ID)
	}
	if assigned != nil {
		s.notifyDriver(ctx, assigned, r)
	}
	s.deliver(ctx, entry)

	logger.ExitMethod("rentalService.ChangeStatus", "status", r.Status)
	return r, nil
}

func (s *rentalService) countTransition(target domain.RentalStatus, outcome string) {
	label := string(target)
	if !target.IsKnown() {
		label = "unknown"
	}
	metrics.StatusTransitions.WithLabelValues(label, outcome).Inc()
}

func (s *rentalService) AssignDriver(ctx context.Context, id, driverID int64, expectedVersion int) (*domain.Rental, error) {
	ctx = logger.WithRentalID(ctx, id)
	r, err := s.rentals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && expectedVersion != r.Version {
		return nil, domain.ErrStaleVersion
	}
	if r.Status.IsTerminal() {
		return nil, domain.NewValidationError("status", "closed rentals cannot be reassigned")
	}

	d, err := s.drivers.GetByID(ctx, driverID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewValidationError("driver_id", "driver does not exist")
	}
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, domain.NewValidationError("driver_id", "driver is not active")
	}

	r.DriverID = &d.ID
	if err := s.rentals.Update(ctx, r); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Driver assigned", "driverID", d.ID)
	s.cache.Invalidate(ctx, r.TrackingCode)
	s.notifyDriver(ctx, d, r)
	return r, nil
}

func (s *rentalService) Reserve(ctx context.Context, id int64, itemIDs []int64) ([]domain.Reservation, error) {
	ctx = logger.WithRentalID(ctx, id)
	if len(itemIDs) == 0 {
		return nil, domain.NewValidationError("item_ids", "at least one item is required")
	}

	r, err := s.rentals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status.IsTerminal() {
		return nil, domain.NewValidationError("status", "closed rentals cannot reserve items")
	}

	from := r.DeliveryDate
	to := r.ReturnDate()
	if !to.After(from) {
		to = from.AddDate(0, 0, 1)
	}

	reservations := make([]domain.Reservation, 0, len(itemIDs))
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, itemID := range itemIDs {
			item, err := s.inventory.GetByID(ctx, itemID)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewValidationError("item_ids", fmt.Sprintf("item %d does not exist", itemID))
			}
			if err != nil {
				return err
			}
			if item.Status != domain.ItemStatusAvailable {
				return domain.NewValidationError("item_ids", fmt.Sprintf("item %s is %s", item.Code, item.Status))
			}

			res := domain.Reservation{ItemID: itemID, RentalID: id, From: from, To: to}
			if err := s.inventory.Reserve(ctx, &res); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					return fmt.Errorf("item %s is already reserved for an overlapping period: %w", item.Code, domain.ErrConflict)
				}
				return err
			}
			reservations = append(reservations, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (s *rentalService) ListReservations(ctx context.Context, id int64) ([]domain.Reservation, error) {
	if _, err := s.rentals.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.inventory.ListReservations(ctx, id)
}

func (s *rentalService) SendPaymentReminder(ctx context.Context, id int64) (*domain.EmailLog, error) {
	ctx = logger.WithRentalID(ctx, id)
	r, err := s.rentals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == domain.RentalStatusCancelled {
		return nil, domain.NewValidationError("status", "rental is cancelled")
	}
	if r.PendingAmount() == 0 {
		return nil, domain.NewValidationError("pending_amount", "rental has no pending balance")
	}
	return s.notifier.NotifyRental(ctx, id, domain.EventPendingReminder)
}

func (s *rentalService) ListEmails(ctx context.Context, id int64) ([]domain.EmailLog, error) {
	if _, err := s.rentals.GetByID(ctx, id); err != nil {
		return nil, err
	}
	logs, _, err := s.emailLogs.List(ctx, domain.EmailLogFilter{RentalID: id, Limit: 200})
	return logs, err
}

func (s *rentalService) ListDriverTasks(ctx context.Context, driverID int64) ([]domain.Rental, error) {
	rentals, _, err := s.rentals.List(ctx, domain.RentalFilter{DriverID: driverID, Statuses: domain.AssignmentStatuses})
	return rentals, err
}

func (s *rentalService) CompleteDriverTask(ctx context.Context, driverID, rentalID int64) (*domain.Rental, error) {
	r, err := s.rentals.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if r.DriverID == nil || *r.DriverID != driverID {
		return nil, domain.ErrForbidden
	}

	var target domain.RentalStatus
	switch r.Status {
	case domain.RentalStatusOnRoute:
		target = domain.RentalStatusDelivered
	case domain.RentalStatusPickupScheduled:
		target = domain.RentalStatusPickedUp
	default:
		return nil, &domain.TransitionError{From: r.Status, To: r.Status, Reason: "no delivery or pickup task pending"}
	}
	return s.ChangeStatus(ctx, rentalID, target, r.Version)
}

func (s *rentalService) requireActiveDriver(ctx context.Context, driverID int64) error {
	d, err := s.drivers.GetByID(ctx, driverID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError("driver_id", "driver does not exist")
	}
	if err != nil {
		return err
	}
	if !d.IsActive {
		return domain.NewValidationError("driver_id", "driver is not active")
	}
	return nil
}

func (s *rentalService) refreshCustomer(ctx context.Context, customerID int64) {
	if err := s.customers.RefreshCounters(ctx, customerID); err != nil {
		logger.WarnContext(ctx, "Failed to refresh customer counters", "customerID", customerID, "error", err)
	}
}

func (s *rentalService) releaseReservations(ctx context.Context, rentalID int64) {
	n, err := s.inventory.ReleaseReservations(ctx, rentalID, s.now())
	if err != nil {
		logger.WarnContext(ctx, "Failed to release reservations", "error", err)
		return
	}
	if n > 0 {
		logger.InfoContext(ctx, "Reservations released", "count", n)
	}
}

func (s *rentalService) notifyDriver(ctx context.Context, d *domain.Driver, r *domain.Rental) {
	err := s.push.NotifyAssignment(ctx, d, r)
	if err != nil && !errors.Is(err, push.ErrNoPushToken) {
		logger.WarnContext(ctx, "Failed to push assignment to driver", "driverID", d.ID, "error", err)
	}
}

// deliver sends a committed outbox entry now. Entries left pending are picked up by the drainer.
func (s *rentalService) deliver(ctx context.Context, entry *domain.OutboxEntry) {
	if entry == nil || s.notifier == nil {
		return
	}
	if err := s.notifier.DeliverOutboxEntry(ctx, entry.ID); err != nil {
		logger.WarnContext(ctx, "Immediate notification delivery failed", "entryID", entry.ID, "event", entry.EventType, "error", err)
	}
}

func newTrackingCode() (string, error) {
	buf := make([]byte, trackingCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate tracking code: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(trackingCodePrefix)
	for _, b := range buf {
		sb.WriteByte(trackingCodeAlphabet[int(b)%len(trackingCodeAlphabet)])
	}
	return sb.String(), nil
}

func newTrackingToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
