package postgres

import (
	"context"
	"testing"
	"time"

	"arriendo-cajas-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryRepository_Reserve_Overlap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	mock.ExpectQuery("INSERT INTO reservations").
		WithArgs(int64(1), int64(4), from, to).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "reservations_no_overlap"})

	err = NewInventoryRepository(db).Reserve(context.Background(), &domain.Reservation{ItemID: 1, RentalID: 4, From: from, To: to})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestInventoryRepository_Available(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	mock.ExpectQuery("NOT EXISTS").
		WithArgs("box", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "type", "status", "notes", "updated_at"}).
			AddRow(1, "CJ-001", "box", "available", "", time.Now()))

	items, err := NewInventoryRepository(db).Available(context.Background(), domain.ItemTypeBox, from, to)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "CJ-001", items[0].Code)
}
