package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type ctxKey int

const txKey ctxKey = iota

// executor is satisfied by both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn resolves the ambient transaction from ctx, falling back to the pool
type conn struct {
	db *sql.DB
}

func (c conn) exec(ctx context.Context) executor {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return c.db
}

type txManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) repository.TxManager {
	return &txManager{db: db}
}

// WithTx runs fn in a transaction. A nested call joins the outer transaction.
func (m *txManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin tx: %w", err)
	}

	defer func() {
		p := recover()
		switch {
		case p != nil:
			_ = tx.Rollback()
			panic(p)

		case err != nil:
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("Transaction rollback failed", "error", rbErr)
				err = fmt.Errorf("can't rollback tx: %w. original error: %w", rbErr, err)
			}

		default:
			if err = tx.Commit(); err != nil {
				err = fmt.Errorf("can't commit tx: %w", err)
			}
		}
	}()

	err = fn(context.WithValue(ctx, txKey, tx))
	return
}

const (
	codeUniqueViolation     = "23505"
	codeExclusionViolation  = "23P01"
	codeForeignKeyViolation = "23503"
)

// mapError translates driver errors from lib/pq or pgx into domain errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	code := ""
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	}

	switch code {
	case codeUniqueViolation, codeExclusionViolation:
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case codeForeignKeyViolation:
		return domain.NewValidationError("reference", "referenced record does not exist")
	}
	return err
}

// Store bundles every repository over one connection pool
type Store struct {
	db *sql.DB
	repository.TxManager
	Customers repository.CustomerRepository
	Drivers   repository.DriverRepository
	Rentals   repository.RentalRepository
	Inventory repository.InventoryRepository
	Payments  repository.PaymentRepository
	EmailLogs repository.EmailLogRepository
	Outbox    repository.OutboxRepository
	Reminders repository.ReminderRepository
	Reports   repository.ReportRepository
	Users     repository.UserRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		TxManager: NewTxManager(db),
		Customers: NewCustomerRepository(db),
		Drivers:   NewDriverRepository(db),
		Rentals:   NewRentalRepository(db),
		Inventory: NewInventoryRepository(db),
		Payments:  NewPaymentRepository(db),
		EmailLogs: NewEmailLogRepository(db),
		Outbox:    NewOutboxRepository(db),
		Reminders: NewReminderRepository(db),
		Reports:   NewReportRepository(db),
		Users:     NewUserRepository(db),
	}
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// nullInt64 converts an optional id into a driver value
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// placeholders renders "$start, $start+1, ..." for n arguments
func placeholders(start, n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("$%d", start+i)
	}
	return s
}
