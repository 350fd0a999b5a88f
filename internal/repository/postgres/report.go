package postgres

import (
	"context"
	"database/sql"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/repository"
)

type reportRepository struct {
	conn
}

func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &reportRepository{conn{db: db}}
}

// Summary aggregates rentals delivered in [from, to), payments and emails in the same half-open range.
// Boxes out and outstanding debt are point-in-time values and ignore the range.
func (r *reportRepository) Summary(ctx context.Context, from, to time.Time) (*domain.ReportSummary, error) {
	logger.EnterMethod("reportRepository.Summary", "from", from, "to", to)
	ex := r.exec(ctx)

	s := &domain.ReportSummary{
		From:            from,
		To:              to,
		RentalsByStatus: map[domain.RentalStatus]int{},
		EmailsByStatus:  map[domain.EmailStatus]int{},
	}

	rows, err := ex.QueryContext(ctx,
		`SELECT status, count(*) FROM rentals WHERE delivery_date >= $1 AND delivery_date < $2 GROUP BY status`, from, to)
	if err != nil {
		return nil, mapError(err)
	}
	for rows.Next() {
		var (
			status domain.RentalStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, err
		}
		s.RentalsByStatus[status] = n
	}
	rows.Close()

	err = ex.QueryRowContext(ctx, `SELECT
	          COALESCE(SUM(box_quantity) FILTER (WHERE status IN ('en_ruta', 'entregada', 'retiro_programado')), 0),
	          COALESCE(SUM(GREATEST(total_amount - paid_amount, 0)) FILTER (WHERE status <> 'cancelada'), 0)
	          FROM rentals`).Scan(&s.BoxesOut, &s.OutstandingDebt)
	if err != nil {
		return nil, mapError(err)
	}

	err = ex.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE paid_at >= $1 AND paid_at < $2`, from, to).
		Scan(&s.RevenueCollected)
	if err != nil {
		return nil, mapError(err)
	}

	rows, err = ex.QueryContext(ctx,
		`SELECT status, count(*) FROM email_logs WHERE created_at >= $1 AND created_at < $2 GROUP BY status`, from, to)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status domain.EmailStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		s.EmailsByStatus[status] = n
	}

	logger.ExitMethod("reportRepository.Summary", "boxesOut", s.BoxesOut)
	return s, rows.Err()
}
