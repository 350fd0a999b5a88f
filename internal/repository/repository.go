package repository

import (
	"context"
	"time"

	"arriendo-cajas-backend/internal/domain"
)

// TxManager runs fn inside a database transaction carried by ctx.
// Repository calls made with the derived context join that transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, search string, page, pageSize int32) ([]domain.Customer, int32, error)
	// RefreshCounters recomputes total/active rentals and current debt from the rentals table
	RefreshCounters(ctx context.Context, id int64) error
}

type DriverRepository interface {
	Create(ctx context.Context, d *domain.Driver) error
	GetByID(ctx context.Context, id int64) (*domain.Driver, error)
	Update(ctx context.Context, d *domain.Driver) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, activeOnly bool) ([]domain.Driver, error)
	// LeastLoaded returns the active driver with the fewest current assignments, lowest id first on ties
	LeastLoaded(ctx context.Context) (*domain.Driver, error)
}

type RentalRepository interface {
	Create(ctx context.Context, r *domain.Rental) error
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	GetByTrackingCode(ctx context.Context, code string) (*domain.Rental, error)
	List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, int32, error)
	ListByStatus(ctx context.Context, status domain.RentalStatus) ([]domain.Rental, error)
	// Update writes the mutable fields when r.Version matches the stored version and bumps it.
	// A mismatch returns domain.ErrStaleVersion.
	Update(ctx context.Context, r *domain.Rental) error
	// AddPaidAmount increments paid_amount unless it would exceed the total; returns the new rental state
	AddPaidAmount(ctx context.Context, id int64, amount int64) (*domain.Rental, error)
	Delete(ctx context.Context, id int64) error
}

type InventoryRepository interface {
	Create(ctx context.Context, item *domain.InventoryItem) error
	GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error)
	Update(ctx context.Context, item *domain.InventoryItem) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, itemType domain.ItemType, status domain.ItemStatus) ([]domain.InventoryItem, error)
	// Available lists available items of itemType without an unreleased reservation overlapping [from, to)
	Available(ctx context.Context, itemType domain.ItemType, from, to time.Time) ([]domain.InventoryItem, error)
	// Reserve returns domain.ErrConflict when the item is already held over an overlapping period
	Reserve(ctx context.Context, res *domain.Reservation) error
	ListReservations(ctx context.Context, rentalID int64) ([]domain.Reservation, error)
	ReleaseReservations(ctx context.Context, rentalID int64, at time.Time) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error)
	ListByRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error)
}

type EmailLogRepository interface {
	Create(ctx context.Context, log *domain.EmailLog) error
	GetByID(ctx context.Context, id int64) (*domain.EmailLog, error)
	List(ctx context.Context, filter domain.EmailLogFilter) ([]domain.EmailLog, int32, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, entry *domain.OutboxEntry) error
	// Claim moves a pending entry to processing. domain.ErrNotFound when another worker already owns it.
	Claim(ctx context.Context, id int64) (*domain.OutboxEntry, error)
	// ClaimBatch claims up to limit pending entries plus processing entries claimed before staleBefore
	ClaimBatch(ctx context.Context, limit int, staleBefore time.Time) ([]domain.OutboxEntry, error)
	MarkProcessed(ctx context.Context, id int64, status domain.OutboxStatus, emailLogID *int64, lastError string) error
}

type ReminderRepository interface {
	// MarkSent records a reminder for the window and reports false when it was already recorded
	MarkSent(ctx context.Context, rentalID int64, kind string, windowDate time.Time) (bool, error)
}

type ReportRepository interface {
	Summary(ctx context.Context, from, to time.Time) (*domain.ReportSummary, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
