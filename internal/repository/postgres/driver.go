package postgres

import (
	"context"
	"database/sql"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/repository"
)

const driverColumns = `id, name, email, phone, is_active, push_token, created_at`

type driverRepository struct {
	conn
}

func NewDriverRepository(db *sql.DB) repository.DriverRepository {
	return &driverRepository{conn{db: db}}
}

func scanDriver(s scanner) (*domain.Driver, error) {
	var (
		d     domain.Driver
		token sql.NullString
	)
	if err := s.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.IsActive, &token, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.PushToken = token.String
	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *driverRepository) Create(ctx context.Context, d *domain.Driver) error {
	query := `INSERT INTO drivers (name, email, phone, is_active, push_token) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.exec(ctx).QueryRowContext(ctx, query, d.Name, d.Email, d.Phone, d.IsActive, nullString(d.PushToken)).
		Scan(&d.ID, &d.CreatedAt)
	return mapError(err)
}

func (r *driverRepository) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	d, err := scanDriver(r.exec(ctx).QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (r *driverRepository) Update(ctx context.Context, d *domain.Driver) error {
	query := `UPDATE drivers SET name = $1, email = $2, phone = $3, is_active = $4, push_token = $5 WHERE id = $6`
	res, err := r.exec(ctx).ExecContext(ctx, query, d.Name, d.Email, d.Phone, d.IsActive, nullString(d.PushToken), d.ID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *driverRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.exec(ctx).ExecContext(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *driverRepository) List(ctx context.Context, activeOnly bool) ([]domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name, id`

	rows, err := r.exec(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, *d)
	}
	return drivers, rows.Err()
}

func (r *driverRepository) LeastLoaded(ctx context.Context) (*domain.Driver, error) {
	query := `SELECT d.id, d.name, d.email, d.phone, d.is_active, d.push_token, d.created_at
	          FROM drivers d
	          LEFT JOIN rentals r ON r.driver_id = d.id AND r.status IN ('programada', 'en_ruta', 'retiro_programado')
	          WHERE d.is_active
	          GROUP BY d.id
	          ORDER BY count(r.id) ASC, d.id ASC
	          LIMIT 1`
	d, err := scanDriver(r.exec(ctx).QueryRowContext(ctx, query))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}
