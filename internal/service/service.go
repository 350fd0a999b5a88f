package service

import (
	"context"
	"time"

	"arriendo-cajas-backend/internal/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.User, *domain.Principal, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, c *domain.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
	ListCustomers(ctx context.Context, search string, page, pageSize int32) ([]domain.Customer, int32, error)
}

type DriverService interface {
	CreateDriver(ctx context.Context, d *domain.Driver) error
	GetDriver(ctx context.Context, id int64) (*domain.Driver, error)
	UpdateDriver(ctx context.Context, d *domain.Driver) error
	SetActive(ctx context.Context, id int64, active bool) (*domain.Driver, error)
	DeleteDriver(ctx context.Context, id int64) error
	ListDrivers(ctx context.Context, activeOnly bool) ([]domain.Driver, error)
}

type InventoryService interface {
	CreateItem(ctx context.Context, item *domain.InventoryItem) error
	GetItem(ctx context.Context, id int64) (*domain.InventoryItem, error)
	UpdateItem(ctx context.Context, item *domain.InventoryItem) error
	SetStatus(ctx context.Context, id int64, status domain.ItemStatus) (*domain.InventoryItem, error)
	DeleteItem(ctx context.Context, id int64) error
	ListItems(ctx context.Context, itemType domain.ItemType, status domain.ItemStatus) ([]domain.InventoryItem, error)
	Availability(ctx context.Context, itemType domain.ItemType, from, to time.Time) ([]domain.InventoryItem, error)
}

type RentalService interface {
	CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error)
	GetRental(ctx context.Context, id int64) (*domain.Rental, error)
	ListRentals(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, int32, error)
	UpdateRental(ctx context.Context, id int64, in UpdateRentalInput) (*domain.Rental, error)
	DeleteRental(ctx context.Context, id int64) error
	// ChangeStatus moves a rental through its lifecycle. expectedVersion 0 skips the version precheck.
	ChangeStatus(ctx context.Context, id int64, target domain.RentalStatus, expectedVersion int) (*domain.Rental, error)
	AssignDriver(ctx context.Context, id, driverID int64, expectedVersion int) (*domain.Rental, error)
	Reserve(ctx context.Context, id int64, itemIDs []int64) ([]domain.Reservation, error)
	ListReservations(ctx context.Context, id int64) ([]domain.Reservation, error)
	SendPaymentReminder(ctx context.Context, id int64) (*domain.EmailLog, error)
	ListEmails(ctx context.Context, id int64) ([]domain.EmailLog, error)
	ListDriverTasks(ctx context.Context, driverID int64) ([]domain.Rental, error)
	CompleteDriverTask(ctx context.Context, driverID, rentalID int64) (*domain.Rental, error)
}

type PaymentService interface {
	RecordPayment(ctx context.Context, in RecordPaymentInput) (*domain.Payment, *domain.Rental, error)
	ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error)
	ListByRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error)
}

type NotificationService interface {
	// NotifyRental dispatches ev for a rental right away. Unknown events return domain.ErrNoTemplate.
	NotifyRental(ctx context.Context, rentalID int64, ev domain.EventType) (*domain.EmailLog, error)
	// DeliverOutboxEntry claims and delivers one pending entry. An entry owned by another worker is skipped.
	DeliverOutboxEntry(ctx context.Context, entryID int64) error
	DrainOutbox(ctx context.Context) (*DrainResult, error)
}

type ReminderService interface {
	Sweep(ctx context.Context, now time.Time) (*SweepResult, error)
	Preview(ctx context.Context, now time.Time, days int) ([]ReminderPreview, error)
}

type EmailLogService interface {
	ListEmailLogs(ctx context.Context, filter domain.EmailLogFilter) ([]domain.EmailLog, int32, error)
	GetEmailLog(ctx context.Context, id int64) (*domain.EmailLog, error)
}

type ReportService interface {
	Summary(ctx context.Context, from, to time.Time) (*domain.ReportSummary, error)
	ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, error)
	ExportPDF(ctx context.Context, from, to time.Time) ([]byte, error)
}

type TrackingService interface {
	// Lookup returns domain.ErrNotFound for unknown codes and wrong tokens alike
	Lookup(ctx context.Context, code, token string) (*domain.TrackingView, error)
}

// CreateRentalInput carries the fields an operator provides for a new rental.
// Zero PricePerDay uses the configured default; nil PickupDate is derived from RentalDays.
type CreateRentalInput struct {
	CustomerID         int64
	DriverID           *int64
	BoxQuantity        int
	PricePerDay        int64
	GuaranteeAmount    int64
	TotalAmount        *int64
	DeliveryDate       time.Time
	PickupDate         *time.Time
	RentalDays         int
	DeliveryAddress    string
	PickupAddress      string
	Notes              string
	AdditionalProducts []domain.LineItem
}

// UpdateRentalInput patches a rental; nil fields are left unchanged
type UpdateRentalInput struct {
	BoxQuantity        *int
	PricePerDay        *int64
	GuaranteeAmount    *int64
	TotalAmount        *int64
	DeliveryDate       *time.Time
	PickupDate         *time.Time
	DeliveryAddress    *string
	PickupAddress      *string
	Notes              *string
	AdditionalProducts *[]domain.LineItem
	Version            int
}

// repricing reports whether the patch touches a field the computed total depends on
func (in UpdateRentalInput) repricing() bool {
	return in.BoxQuantity != nil || in.PricePerDay != nil || in.GuaranteeAmount != nil ||
		in.DeliveryDate != nil || in.PickupDate != nil || in.AdditionalProducts != nil
}

type RecordPaymentInput struct {
	RentalID  int64
	Amount    int64
	Method    domain.PaymentMethod
	Reference string
	PaidAt    time.Time
}

type CreateUserInput struct {
	Email      string
	Password   string
	Name       string
	Role       domain.Role
	DriverID   *int64
	CustomerID *int64
}

// DrainResult counts the outcome of one outbox drain
type DrainResult struct {
	Claimed int `json:"claimed"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// SweepResult counts the outcome of one reminder sweep
type SweepResult struct {
	Checked int `json:"checked"`
	Matched int `json:"matched"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type ReminderPreview struct {
	Rental        domain.Rental `json:"rental"`
	ReturnDate    time.Time     `json:"return_date"`
	DaysRemaining int           `json:"days_remaining"`
}
