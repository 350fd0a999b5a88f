package postgres

import (
	"context"
	"testing"
	"time"

	"arriendo-cajas-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepository_Summary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	repo := NewReportRepository(db)

	mock.ExpectQuery("SELECT status, count\\(\\*\\) FROM rentals WHERE delivery_date >= \\$1 AND delivery_date < \\$2 GROUP BY status").
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("entregada", 2).
			AddRow("finalizada", 5))
	mock.ExpectQuery("FROM rentals$").
		WillReturnRows(sqlmock.NewRows([]string{"boxes", "debt"}).AddRow(30, int64(75000)))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM payments WHERE paid_at >= \\$1 AND paid_at < \\$2").
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(250000)))
	mock.ExpectQuery("SELECT status, count\\(\\*\\) FROM email_logs WHERE created_at >= \\$1 AND created_at < \\$2 GROUP BY status").
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("sent", 4))

	s, err := repo.Summary(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, s.RentalsByStatus[domain.RentalStatusDelivered])
	assert.Equal(t, 5, s.RentalsByStatus[domain.RentalStatusCompleted])
	assert.Equal(t, 30, s.BoxesOut)
	assert.Equal(t, int64(75000), s.OutstandingDebt)
	assert.Equal(t, int64(250000), s.RevenueCollected)
	assert.Equal(t, 4, s.EmailsByStatus[domain.EmailStatusSent])
	assert.NoError(t, mock.ExpectationsWereMet())
}
