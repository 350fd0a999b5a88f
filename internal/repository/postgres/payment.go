package postgres

import (
	"context"
	"database/sql"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/repository"
)

const paymentColumns = `id, rental_id, amount, method, reference, paid_at, created_at`

type paymentRepository struct {
	conn
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{conn{db: db}}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (rental_id, amount, method, reference, paid_at) VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`
	err := r.exec(ctx).QueryRowContext(ctx, query, p.RentalID, p.Amount, p.Method, p.Reference, p.PaidAt).
		Scan(&p.ID, &p.CreatedAt)
	return mapError(err)
}

func (r *paymentRepository) ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error) {
	return r.query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE rental_id = $1 ORDER BY paid_at, id`, rentalID)
}

func (r *paymentRepository) ListByRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	return r.query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE paid_at >= $1 AND paid_at < $2 ORDER BY paid_at, id`, from, to)
}

func (r *paymentRepository) query(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.RentalID, &p.Amount, &p.Method, &p.Reference, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
