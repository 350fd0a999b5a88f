package postgres

import (
	"context"
	"database/sql"
	"strings"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/repository"
)

const userColumns = `id, email, password_hash, name, role, driver_id, customer_id, is_active, created_at`

type userRepository struct {
	conn
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{conn{db: db}}
}

func scanUser(s scanner) (*domain.User, error) {
	var (
		u          domain.User
		driverID   sql.NullInt64
		customerID sql.NullInt64
	)
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &driverID, &customerID, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.DriverID = int64Ptr(driverID)
	u.CustomerID = int64Ptr(customerID)
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (email, password_hash, name, role, driver_id, customer_id, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	err := r.exec(ctx).QueryRowContext(ctx, query, strings.ToLower(u.Email), u.PasswordHash, u.Name, u.Role,
		nullInt64(u.DriverID), nullInt64(u.CustomerID), u.IsActive).Scan(&u.ID, &u.CreatedAt)
	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.exec(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.exec(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}
