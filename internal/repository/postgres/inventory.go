package postgres

import (
	"context"
	"database/sql"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/repository"
)

const inventoryColumns = `id, code, type, status, notes, updated_at`

type inventoryRepository struct {
	conn
}

func NewInventoryRepository(db *sql.DB) repository.InventoryRepository {
	return &inventoryRepository{conn{db: db}}
}

func scanItem(s scanner) (*domain.InventoryItem, error) {
	var it domain.InventoryItem
	if err := s.Scan(&it.ID, &it.Code, &it.Type, &it.Status, &it.Notes, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func collectItems(rows *sql.Rows) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *inventoryRepository) Create(ctx context.Context, it *domain.InventoryItem) error {
	query := `INSERT INTO inventory_items (code, type, status, notes) VALUES ($1, $2, $3, $4) RETURNING id, updated_at`
	err := r.exec(ctx).QueryRowContext(ctx, query, it.Code, it.Type, it.Status, it.Notes).Scan(&it.ID, &it.UpdatedAt)
	return mapError(err)
}

func (r *inventoryRepository) GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	it, err := scanItem(r.exec(ctx).QueryRowContext(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return it, nil
}

func (r *inventoryRepository) Update(ctx context.Context, it *domain.InventoryItem) error {
	query := `UPDATE inventory_items SET code = $1, type = $2, status = $3, notes = $4, updated_at = NOW()
	          WHERE id = $5 RETURNING updated_at`
	err := r.exec(ctx).QueryRowContext(ctx, query, it.Code, it.Type, it.Status, it.Notes, it.ID).Scan(&it.UpdatedAt)
	return mapError(err)
}

func (r *inventoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.exec(ctx).ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) List(ctx context.Context, itemType domain.ItemType, status domain.ItemStatus) ([]domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items
	          WHERE ($1 = '' OR type = $1) AND ($2 = '' OR status = $2)
	          ORDER BY code`
	rows, err := r.exec(ctx).QueryContext(ctx, query, string(itemType), string(status))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *inventoryRepository) Available(ctx context.Context, itemType domain.ItemType, from, to time.Time) ([]domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items i
	          WHERE i.status = 'available' AND ($1 = '' OR i.type = $1)
	            AND NOT EXISTS (
	                SELECT 1 FROM reservations r
	                WHERE r.item_id = i.id AND r.released_at IS NULL
	                  AND r.period && daterange($2::date, $3::date, '[)')
	            )
	          ORDER BY i.code`
	logger.DatabaseCall("SELECT", "inventory_items", "op", "available", "from", from, "to", to)
	rows, err := r.exec(ctx).QueryContext(ctx, query, string(itemType), from, to)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *inventoryRepository) Reserve(ctx context.Context, res *domain.Reservation) error {
	query := `INSERT INTO reservations (item_id, rental_id, period)
	          VALUES ($1, $2, daterange($3::date, $4::date, '[)'))
	          RETURNING id, created_at`
	logger.DatabaseCall("INSERT", "reservations", "itemID", res.ItemID, "rentalID", res.RentalID)
	err := r.exec(ctx).QueryRowContext(ctx, query, res.ItemID, res.RentalID, res.From, res.To).Scan(&res.ID, &res.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "reservationID", res.ID)
	return mapError(err)
}

func (r *inventoryRepository) ListReservations(ctx context.Context, rentalID int64) ([]domain.Reservation, error) {
	query := `SELECT id, item_id, rental_id, lower(period), upper(period), released_at, created_at
	          FROM reservations WHERE rental_id = $1 ORDER BY id`
	rows, err := r.exec(ctx).QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var (
			res      domain.Reservation
			released sql.NullTime
		)
		if err := rows.Scan(&res.ID, &res.ItemID, &res.RentalID, &res.From, &res.To, &released, &res.CreatedAt); err != nil {
			return nil, err
		}
		res.ReleasedAt = timePtr(released)
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *inventoryRepository) ReleaseReservations(ctx context.Context, rentalID int64, at time.Time) (int64, error) {
	res, err := r.exec(ctx).ExecContext(ctx,
		`UPDATE reservations SET released_at = $1 WHERE rental_id = $2 AND released_at IS NULL`, at, rentalID)
	if err != nil {
		return 0, mapError(err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
