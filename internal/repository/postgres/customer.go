package postgres

import (
	"context"
	"database/sql"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/repository"
)

const customerColumns = `id, name, tax_id, email, phone, address, secondary_address, notes, total_rentals, active_rentals,
	current_debt, created_at, updated_at`

type customerRepository struct {
	conn
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{conn{db: db}}
}

func scanCustomer(s scanner) (*domain.Customer, error) {
	var c domain.Customer
	err := s.Scan(&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Address, &c.SecondaryAddress, &c.Notes,
		&c.TotalRentals, &c.ActiveRentals, &c.CurrentDebt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (name, tax_id, email, phone, address, secondary_address, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	logger.DatabaseCall("INSERT", "customers", "email", c.Email)
	err := r.exec(ctx).QueryRowContext(ctx, query, c.Name, c.TaxID, c.Email, c.Phone, c.Address, c.SecondaryAddress, c.Notes).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "customerID", c.ID)
	return mapError(err)
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers SET name = $1, tax_id = $2, email = $3, phone = $4, address = $5, secondary_address = $6,
	          notes = $7, updated_at = NOW() WHERE id = $8 RETURNING updated_at`
	err := r.exec(ctx).QueryRowContext(ctx, query, c.Name, c.TaxID, c.Email, c.Phone, c.Address, c.SecondaryAddress,
		c.Notes, c.ID).Scan(&c.UpdatedAt)
	return mapError(err)
}

func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.exec(ctx).ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *customerRepository) List(ctx context.Context, search string, page, pageSize int32) ([]domain.Customer, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	where := ""
	args := []any{}
	if search != "" {
		where = ` WHERE name ILIKE $1 OR email ILIKE $1 OR tax_id ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var count int32
	if err := r.exec(ctx).QueryRowContext(ctx, `SELECT count(*) FROM customers`+where, args...).Scan(&count); err != nil {
		return nil, 0, mapError(err)
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where +
		` ORDER BY name, id LIMIT ` + placeholders(len(args)+1, 1) + ` OFFSET ` + placeholders(len(args)+2, 1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}
	return customers, count, rows.Err()
}

func (r *customerRepository) RefreshCounters(ctx context.Context, id int64) error {
	query := `UPDATE customers c SET
	              total_rentals = s.total,
	              active_rentals = s.active,
	              current_debt = s.debt,
	              updated_at = NOW()
	          FROM (
	              SELECT count(*) AS total,
	                     count(*) FILTER (WHERE status IN ('programada', 'en_ruta', 'entregada', 'retiro_programado')) AS active,
	                     COALESCE(SUM(GREATEST(total_amount - paid_amount, 0)) FILTER (WHERE status <> 'cancelada'), 0) AS debt
	              FROM rentals WHERE customer_id = $1
	          ) s
	          WHERE c.id = $1`
	logger.DatabaseCall("UPDATE", "customers", "customerID", id, "op", "refresh_counters")
	res, err := r.exec(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return mapError(err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
