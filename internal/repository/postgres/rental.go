package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/repository"
)

const rentalColumns = `id, customer_id, driver_id, status, box_quantity, price_per_day, guarantee_amount, total_amount, paid_amount,
	delivery_date, pickup_date, delivery_address, pickup_address, tracking_code, tracking_token, notes, additional_products,
	version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

type rentalRepository struct {
	conn
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{conn{db: db}}
}

func scanRental(s scanner) (*domain.Rental, error) {
	var (
		rt       domain.Rental
		driverID sql.NullInt64
		pickup   sql.NullTime
		products []byte
	)
	err := s.Scan(&rt.ID, &rt.CustomerID, &driverID, &rt.Status, &rt.BoxQuantity, &rt.PricePerDay, &rt.GuaranteeAmount,
		&rt.TotalAmount, &rt.PaidAmount, &rt.DeliveryDate, &pickup, &rt.DeliveryAddress, &rt.PickupAddress,
		&rt.TrackingCode, &rt.TrackingToken, &rt.Notes, &products, &rt.Version, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rt.DriverID = int64Ptr(driverID)
	rt.PickupDate = timePtr(pickup)
	if len(products) > 0 {
		if err := json.Unmarshal(products, &rt.AdditionalProducts); err != nil {
			return nil, fmt.Errorf("failed to decode additional products: %w", err)
		}
	}
	return &rt, nil
}

func encodeProducts(items []domain.LineItem) (string, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode additional products: %w", err)
	}
	return string(b), nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.Create", "customerID", rt.CustomerID, "boxes", rt.BoxQuantity)

	products, err := encodeProducts(rt.AdditionalProducts)
	if err != nil {
		return err
	}

	query := `INSERT INTO rentals (customer_id, driver_id, status, box_quantity, price_per_day, guarantee_amount, total_amount,
	          paid_amount, delivery_date, pickup_date, delivery_address, pickup_address, tracking_code, tracking_token, notes,
	          additional_products)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING id, version, created_at, updated_at`
	logger.DatabaseCall("INSERT", "rentals", "trackingCode", rt.TrackingCode)

	err = r.exec(ctx).QueryRowContext(ctx, query, rt.CustomerID, nullInt64(rt.DriverID), rt.Status, rt.BoxQuantity,
		rt.PricePerDay, rt.GuaranteeAmount, rt.TotalAmount, rt.PaidAmount, rt.DeliveryDate, rt.PickupDate,
		rt.DeliveryAddress, rt.PickupAddress, rt.TrackingCode, rt.TrackingToken, rt.Notes, products,
	).Scan(&rt.ID, &rt.Version, &rt.CreatedAt, &rt.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "rentalID", rt.ID)

	if err != nil {
		logger.ExitMethodWithError("rentalRepository.Create", err)
		return mapError(err)
	}
	logger.ExitMethod("rentalRepository.Create", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	rt, err := scanRental(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return rt, nil
}

func (r *rentalRepository) GetByTrackingCode(ctx context.Context, code string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE tracking_code = $1`
	rt, err := scanRental(r.exec(ctx).QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, mapError(err)
	}
	return rt, nil
}

func (r *rentalRepository) List(ctx context.Context, f domain.RentalFilter) ([]domain.Rental, int32, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if len(f.Statuses) > 0 {
		start := len(args) + 1
		for _, s := range f.Statuses {
			args = append(args, s)
		}
		where = append(where, "status IN ("+placeholders(start, len(f.Statuses))+")")
	}
	if f.CustomerID != 0 {
		where = append(where, "customer_id = "+arg(f.CustomerID))
	}
	if f.DriverID != 0 {
		where = append(where, "driver_id = "+arg(f.DriverID))
	}
	if f.From != nil {
		where = append(where, "delivery_date >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "delivery_date < "+arg(*f.To))
	}

	base := ` FROM rentals`
	if len(where) > 0 {
		base += ` WHERE ` + strings.Join(where, " AND ")
	}

	var count int32
	if err := r.exec(ctx).QueryRowContext(ctx, `SELECT count(*)`+base, args...).Scan(&count); err != nil {
		return nil, 0, mapError(err)
	}

	query := `SELECT ` + rentalColumns + base + ` ORDER BY delivery_date DESC, id DESC`
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += ` LIMIT ` + arg(f.PageSize) + ` OFFSET ` + arg((page-1)*f.PageSize)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	rentals, err := collectRentals(rows)
	if err != nil {
		return nil, 0, err
	}
	return rentals, count, nil
}

func (r *rentalRepository) ListByStatus(ctx context.Context, status domain.RentalStatus) ([]domain.Rental, error) {
	logger.DatabaseCall("SELECT", "rentals", "status", status)
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = $1 ORDER BY id`
	rows, err := r.exec(ctx).QueryContext(ctx, query, status)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectRentals(rows)
}

func collectRentals(rows *sql.Rows) ([]domain.Rental, error) {
	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.Update", "rentalID", rt.ID, "version", rt.Version, "status", rt.Status)

	products, err := encodeProducts(rt.AdditionalProducts)
	if err != nil {
		return err
	}

	query := `UPDATE rentals SET driver_id = $1, status = $2, box_quantity = $3, price_per_day = $4, guarantee_amount = $5,
	          total_amount = $6, delivery_date = $7, pickup_date = $8, delivery_address = $9, pickup_address = $10,
	          notes = $11, additional_products = $12, version = version + 1, updated_at = NOW()
	          WHERE id = $13 AND version = $14
	          RETURNING version, updated_at`
	logger.DatabaseCall("UPDATE", "rentals", "rentalID", rt.ID)

	err = r.exec(ctx).QueryRowContext(ctx, query, nullInt64(rt.DriverID), rt.Status, rt.BoxQuantity, rt.PricePerDay,
		rt.GuaranteeAmount, rt.TotalAmount, rt.DeliveryDate, rt.PickupDate, rt.DeliveryAddress, rt.PickupAddress,
		rt.Notes, products, rt.ID, rt.Version,
	).Scan(&rt.Version, &rt.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethodWithError("rentalRepository.Update", domain.ErrStaleVersion, "rentalID", rt.ID)
		return domain.ErrStaleVersion
	}
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.Update", err, "rentalID", rt.ID)
		return mapError(err)
	}
	logger.ExitMethod("rentalRepository.Update", "rentalID", rt.ID, "version", rt.Version)
	return nil
}

func (r *rentalRepository) AddPaidAmount(ctx context.Context, id int64, amount int64) (*domain.Rental, error) {
	query := `UPDATE rentals SET paid_amount = paid_amount + $1, version = version + 1, updated_at = NOW()
	          WHERE id = $2 AND paid_amount + $1 <= total_amount
	          RETURNING ` + rentalColumns
	rt, err := scanRental(r.exec(ctx).QueryRowContext(ctx, query, amount, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewValidationError("amount", "payment exceeds the pending amount")
	}
	if err != nil {
		return nil, mapError(err)
	}
	return rt, nil
}

func (r *rentalRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.exec(ctx).ExecContext(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
