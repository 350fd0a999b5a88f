package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"arriendo-cajas-backend/internal/cache"
	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/mail"
	"arriendo-cajas-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

// passthroughTx runs fn without a database
type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, r *domain.Rental) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) GetByTrackingCode(ctx context.Context, code string) (*domain.Rental, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}
func (m *MockRentalRepo) ListByStatus(ctx context.Context, status domain.RentalStatus) ([]domain.Rental, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Update(ctx context.Context, r *domain.Rental) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRentalRepo) AddPaidAmount(ctx context.Context, id int64, amount int64) (*domain.Rental, error) {
	args := m.Called(ctx, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCustomerRepo
type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}
func (m *MockCustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCustomerRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockCustomerRepo) List(ctx context.Context, search string, page, pageSize int32) ([]domain.Customer, int32, error) {
	args := m.Called(ctx, search, page, pageSize)
	return args.Get(0).([]domain.Customer), args.Get(1).(int32), args.Error(2)
}
func (m *MockCustomerRepo) RefreshCounters(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDriverRepo
type MockDriverRepo struct {
	mock.Mock
}

func (m *MockDriverRepo) Create(ctx context.Context, d *domain.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
func (m *MockDriverRepo) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Driver), args.Error(1)
}
func (m *MockDriverRepo) Update(ctx context.Context, d *domain.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
func (m *MockDriverRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockDriverRepo) List(ctx context.Context, activeOnly bool) ([]domain.Driver, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]domain.Driver), args.Error(1)
}
func (m *MockDriverRepo) LeastLoaded(ctx context.Context) (*domain.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Driver), args.Error(1)
}

// MockInventoryRepo
type MockInventoryRepo struct {
	mock.Mock
}

func (m *MockInventoryRepo) Create(ctx context.Context, item *domain.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockInventoryRepo) GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryItem), args.Error(1)
}
func (m *MockInventoryRepo) Update(ctx context.Context, item *domain.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockInventoryRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockInventoryRepo) List(ctx context.Context, itemType domain.ItemType, status domain.ItemStatus) ([]domain.InventoryItem, error) {
	args := m.Called(ctx, itemType, status)
	return args.Get(0).([]domain.InventoryItem), args.Error(1)
}
func (m *MockInventoryRepo) Available(ctx context.Context, itemType domain.ItemType, from, to time.Time) ([]domain.InventoryItem, error) {
	args := m.Called(ctx, itemType, from, to)
	return args.Get(0).([]domain.InventoryItem), args.Error(1)
}
func (m *MockInventoryRepo) Reserve(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}
func (m *MockInventoryRepo) ListReservations(ctx context.Context, rentalID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockInventoryRepo) ReleaseReservations(ctx context.Context, rentalID int64, at time.Time) (int64, error) {
	args := m.Called(ctx, rentalID, at)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPaymentRepo) ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) ListByRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockReminderRepo
type MockReminderRepo struct {
	mock.Mock
}

func (m *MockReminderRepo) MarkSent(ctx context.Context, rentalID int64, kind string, windowDate time.Time) (bool, error) {
	args := m.Called(ctx, rentalID, kind, windowDate)
	return args.Bool(0), args.Error(1)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockReportRepo
type MockReportRepo struct {
	mock.Mock
}

func (m *MockReportRepo) Summary(ctx context.Context, from, to time.Time) (*domain.ReportSummary, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReportSummary), args.Error(1)
}

// MockNotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) NotifyRental(ctx context.Context, rentalID int64, ev domain.EventType) (*domain.EmailLog, error) {
	args := m.Called(ctx, rentalID, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailLog), args.Error(1)
}
func (m *MockNotificationService) DeliverOutboxEntry(ctx context.Context, entryID int64) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}
func (m *MockNotificationService) DrainOutbox(ctx context.Context) (*service.DrainResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DrainResult), args.Error(1)
}

// MockTrackingCache
type MockTrackingCache struct {
	mock.Mock
}

func (m *MockTrackingCache) Get(ctx context.Context, code string) (*cache.TrackingEntry, bool) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*cache.TrackingEntry), args.Bool(1)
}
func (m *MockTrackingCache) Set(ctx context.Context, code string, entry *cache.TrackingEntry) {
	m.Called(ctx, code, entry)
}
func (m *MockTrackingCache) Invalidate(ctx context.Context, code string) {
	m.Called(ctx, code)
}

// MockPushNotifier
type MockPushNotifier struct {
	mock.Mock
}

func (m *MockPushNotifier) NotifyAssignment(ctx context.Context, d *domain.Driver, r *domain.Rental) error {
	args := m.Called(ctx, d, r)
	return args.Error(0)
}

// memOutbox is an in-memory outbox with the same claim semantics as the postgres one
type memOutbox struct {
	mu      sync.Mutex
	entries []*domain.OutboxEntry
}

func (o *memOutbox) Enqueue(ctx context.Context, e *domain.OutboxEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e.Status == "" {
		e.Status = domain.OutboxStatusPending
	}
	e.ID = int64(len(o.entries) + 1)
	e.CreatedAt = time.Now()
	cp := *e
	o.entries = append(o.entries, &cp)
	return nil
}

func (o *memOutbox) Claim(ctx context.Context, id int64) (*domain.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.ID == id && e.Status == domain.OutboxStatusPending {
			now := time.Now()
			e.Status = domain.OutboxStatusProcessing
			e.Attempts++
			e.ClaimedAt = &now
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (o *memOutbox) ClaimBatch(ctx context.Context, limit int, staleBefore time.Time) ([]domain.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []domain.OutboxEntry
	for _, e := range o.entries {
		if len(out) == limit {
			break
		}
		stale := e.Status == domain.OutboxStatusProcessing && e.ClaimedAt != nil && e.ClaimedAt.Before(staleBefore)
		if e.Status == domain.OutboxStatusPending || stale {
			now := time.Now()
			e.Status = domain.OutboxStatusProcessing
			e.Attempts++
			e.ClaimedAt = &now
			out = append(out, *e)
		}
	}
	return out, nil
}

func (o *memOutbox) MarkProcessed(ctx context.Context, id int64, status domain.OutboxStatus, emailLogID *int64, lastError string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.ID == id {
			now := time.Now()
			e.Status = status
			e.EmailLogID = emailLogID
			e.LastError = lastError
			e.ProcessedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

func (o *memOutbox) all() []domain.OutboxEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.OutboxEntry, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, *e)
	}
	return out
}

// memEmailLogs is an append-only in-memory EmailLog table
type memEmailLogs struct {
	mu   sync.Mutex
	rows []domain.EmailLog
	fail error
}

func (l *memEmailLogs) Create(ctx context.Context, e *domain.EmailLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return l.fail
	}
	e.ID = int64(len(l.rows) + 1)
	e.CreatedAt = time.Now()
	l.rows = append(l.rows, *e)
	return nil
}

func (l *memEmailLogs) GetByID(ctx context.Context, id int64) (*domain.EmailLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rows {
		if l.rows[i].ID == id {
			e := l.rows[i]
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (l *memEmailLogs) List(ctx context.Context, f domain.EmailLogFilter) ([]domain.EmailLog, int32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.EmailLog
	for _, e := range l.rows {
		if f.RentalID != 0 && (e.RentalID == nil || *e.RentalID != f.RentalID) {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, e)
	}
	return out, int32(len(out)), nil
}

func (l *memEmailLogs) all() []domain.EmailLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.EmailLog(nil), l.rows...)
}

// fakeSender records messages, failing every send when err is set
type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []mail.Message
}

func (s *fakeSender) Name() string { return "fake" }

func (s *fakeSender) Send(ctx context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

var errSMTPDown = errors.New("dial tcp 10.0.0.1:587: connection refused")
