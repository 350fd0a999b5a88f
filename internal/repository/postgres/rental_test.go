package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"arriendo-cajas-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rentalRowColumns = []string{"id", "customer_id", "driver_id", "status", "box_quantity", "price_per_day",
	"guarantee_amount", "total_amount", "paid_amount", "delivery_date", "pickup_date", "delivery_address",
	"pickup_address", "tracking_code", "tracking_token", "notes", "additional_products", "version", "created_at", "updated_at"}

func rentalRows(id int64, status domain.RentalStatus, version int) *sqlmock.Rows {
	delivery := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	pickup := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(rentalRowColumns).AddRow(id, int64(3), nil, string(status), 15, int64(1000), int64(20000),
		int64(125000), int64(0), delivery, pickup, "Av. Siempre Viva 742", "", "ARR-ABC123", "tok", "",
		[]byte(`[{"name":"Carro","quantity":1,"price":5000}]`), version, time.Now(), time.Now())
}

func TestRentalRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRentalRepository(db)
	delivery := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	rental := &domain.Rental{
		CustomerID:   3,
		Status:       domain.RentalStatusPending,
		BoxQuantity:  15,
		DeliveryDate: delivery,
		TrackingCode: "ARR-ABC123",
	}

	mock.ExpectQuery("INSERT INTO rentals").
		WithArgs(int64(3), sqlmock.AnyArg(), domain.RentalStatusPending, 15, int64(0), int64(0), int64(0), int64(0),
			delivery, sqlmock.AnyArg(), "", "", "ARR-ABC123", "", "", "[]").
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at", "updated_at"}).AddRow(9, 1, time.Now(), time.Now()))

	require.NoError(t, repo.Create(context.Background(), rental))
	assert.Equal(t, int64(9), rental.ID)
	assert.Equal(t, 1, rental.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_Create_DuplicateTrackingCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO rentals").WillReturnError(&pq.Error{Code: "23505"})

	err = NewRentalRepository(db).Create(context.Background(), &domain.Rental{CustomerID: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRentalRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRentalRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(rentalRows(1, domain.RentalStatusDelivered, 4))

		rt, err := repo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusDelivered, rt.Status)
		assert.Nil(t, rt.DriverID)
		require.NotNil(t, rt.PickupDate)
		assert.Equal(t, 17, rt.PickupDate.Day())
		require.Len(t, rt.AdditionalProducts, 1)
		assert.Equal(t, "Carro", rt.AdditionalProducts[0].Name)
		assert.Equal(t, 4, rt.Version)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(rentalRowColumns))

		_, err := repo.GetByID(context.Background(), 2)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRentalRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRentalRepository(db)
	driverID := int64(5)

	t.Run("Bumps version", func(t *testing.T) {
		rt := &domain.Rental{ID: 1, Status: domain.RentalStatusScheduled, DriverID: &driverID, Version: 2}
		mock.ExpectQuery("UPDATE rentals SET driver_id = \\$1, status = \\$2").
			WithArgs(sqlmock.AnyArg(), domain.RentalStatusScheduled, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				"[]", int64(1), 2).
			WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}).AddRow(3, time.Now()))

		require.NoError(t, repo.Update(context.Background(), rt))
		assert.Equal(t, 3, rt.Version)
	})

	t.Run("Stale version", func(t *testing.T) {
		rt := &domain.Rental{ID: 1, Status: domain.RentalStatusOnRoute, Version: 2}
		mock.ExpectQuery("UPDATE rentals SET driver_id").
			WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}))

		err := repo.Update(context.Background(), rt)
		assert.ErrorIs(t, err, domain.ErrStaleVersion)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_AddPaidAmount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRentalRepository(db)

	mock.ExpectQuery("UPDATE rentals SET paid_amount = paid_amount \\+ \\$1").
		WithArgs(int64(500000), int64(1)).
		WillReturnRows(sqlmock.NewRows(rentalRowColumns))

	_, err = repo.AddPaidAmount(context.Background(), 1, 500000)
	assert.True(t, domain.IsValidation(err), "overpayment must be a validation error, got %v", err)
}

func TestRentalRepository_List_BuildsFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRentalRepository(db)
	filter := domain.RentalFilter{
		Statuses: domain.AssignmentStatuses,
		DriverID: 5,
		Page:     2,
		PageSize: 10,
	}

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM rentals WHERE status IN \\(\\$1, \\$2, \\$3\\) AND driver_id = \\$4").
		WithArgs(domain.RentalStatusScheduled, domain.RentalStatusOnRoute, domain.RentalStatusPickupScheduled, int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("SELECT (.+) FROM rentals WHERE (.+) LIMIT \\$5 OFFSET \\$6").
		WithArgs(domain.RentalStatusScheduled, domain.RentalStatusOnRoute, domain.RentalStatusPickupScheduled, int64(5), int32(10), int32(10)).
		WillReturnRows(rentalRows(7, domain.RentalStatusOnRoute, 1))

	rentals, count, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int32(11), count)
	require.Len(t, rentals, 1)
	assert.Equal(t, int64(7), rentals[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_List_DateRangeIsHalfOpen(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	repo := NewRentalRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM rentals WHERE delivery_date >= \\$1 AND delivery_date < \\$2$").
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM rentals WHERE delivery_date >= \\$1 AND delivery_date < \\$2 ORDER BY").
		WithArgs(from, to).
		WillReturnRows(rentalRows(7, domain.RentalStatusPending, 1))

	rentals, count, err := repo.List(context.Background(), domain.RentalFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, int32(1), count)
	require.Len(t, rentals, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_WithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tm := NewTxManager(db)
	outbox := NewOutboxRepository(db)

	t.Run("Commit joins repositories to the transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO outbox").
			WithArgs(int64(1), domain.EventDelivered, domain.OutboxStatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
		mock.ExpectCommit()

		err := tm.WithTx(context.Background(), func(ctx context.Context) error {
			return tm.WithTx(ctx, func(ctx context.Context) error {
				return outbox.Enqueue(ctx, &domain.OutboxEntry{RentalID: 1, EventType: domain.EventDelivered})
			})
		})
		assert.NoError(t, err)
	})

	t.Run("Rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tm.WithTx(context.Background(), func(ctx context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505"}), domain.ErrConflict)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23P01"}), domain.ErrConflict)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23P01"}), domain.ErrConflict)
	assert.True(t, domain.IsValidation(mapError(&pgconn.PgError{Code: "23503"})))

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other))
}
