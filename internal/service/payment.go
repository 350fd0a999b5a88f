package service

import (
	"context"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/metrics"
	"arriendo-cajas-backend/internal/repository"
)

type paymentService struct {
	tx        repository.TxManager
	payments  repository.PaymentRepository
	rentals   repository.RentalRepository
	customers repository.CustomerRepository
	outbox    repository.OutboxRepository
	notifier  NotificationService
	now       func() time.Time
}

func NewPaymentService(
	tx repository.TxManager,
	payments repository.PaymentRepository,
	rentals repository.RentalRepository,
	customers repository.CustomerRepository,
	outbox repository.OutboxRepository,
	notifier NotificationService,
) PaymentService {
	return &paymentService{
		tx:        tx,
		payments:  payments,
		rentals:   rentals,
		customers: customers,
		outbox:    outbox,
		notifier:  notifier,
		now:       time.Now,
	}
}

// RecordPayment stores a payment and increments the rental's paid amount atomically.
// The payment that settles the total enqueues a paid notification in the same transaction.
func (s *paymentService) RecordPayment(ctx context.Context, in RecordPaymentInput) (*domain.Payment, *domain.Rental, error) {
	ctx = logger.WithRentalID(ctx, in.RentalID)
	logger.EnterMethod("paymentService.RecordPayment", "rentalID", in.RentalID, "amount", in.Amount)

	if in.Amount <= 0 {
		return nil, nil, domain.NewValidationError("amount", "must be positive")
	}
	if in.Method == "" {
		in.Method = domain.PaymentMethodTransfer
	}
	if !in.Method.IsValid() {
		return nil, nil, domain.NewValidationError("method", "unknown payment method")
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = s.now()
	}

	r, err := s.rentals.GetByID(ctx, in.RentalID)
	if err != nil {
		return nil, nil, err
	}
	if r.Status == domain.RentalStatusCancelled {
		return nil, nil, domain.NewValidationError("rental_id", "rental is cancelled")
	}

	p := &domain.Payment{
		RentalID:  in.RentalID,
		Amount:    in.Amount,
		Method:    in.Method,
		Reference: in.Reference,
		PaidAt:    in.PaidAt,
	}

	var (
		updated *domain.Rental
		entry   *domain.OutboxEntry
	)
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.rentals.AddPaidAmount(ctx, in.RentalID, in.Amount)
		if err != nil {
			return err
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return err
		}
		settled := updated.PaidAmount >= updated.TotalAmount && updated.PaidAmount-in.Amount < updated.TotalAmount
		if !settled {
			return nil
		}
		entry = &domain.OutboxEntry{RentalID: in.RentalID, EventType: domain.EventPaid}
		return s.outbox.Enqueue(ctx, entry)
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.RecordPayment", err)
		return nil, nil, err
	}
	metrics.PaymentsRecorded.Inc()

	if err := s.customers.RefreshCounters(ctx, updated.CustomerID); err != nil {
		logger.WarnContext(ctx, "Failed to refresh customer counters", "customerID", updated.CustomerID, "error", err)
	}
	if entry != nil {
		if err := s.notifier.DeliverOutboxEntry(ctx, entry.ID); err != nil {
			logger.WarnContext(ctx, "Immediate paid notification failed", "entryID", entry.ID, "error", err)
		}
	}

	logger.ExitMethod("paymentService.RecordPayment", "paymentID", p.ID, "paid", updated.PaidAmount, "total", updated.TotalAmount)
	return p, updated, nil
}

func (s *paymentService) ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error) {
	if _, err := s.rentals.GetByID(ctx, rentalID); err != nil {
		return nil, err
	}
	return s.payments.ListByRental(ctx, rentalID)
}

func (s *paymentService) ListByRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	if !to.After(from) {
		return nil, domain.NewValidationError("to", "must be after from")
	}
	return s.payments.ListByRange(ctx, from, to)
}
