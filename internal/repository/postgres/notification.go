package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/repository"
)

const emailLogColumns = `id, email_type, to_email, subject, html_body, rental_id, customer_id, status, error_message, sent_at, created_at`

type emailLogRepository struct {
	conn
}

func NewEmailLogRepository(db *sql.DB) repository.EmailLogRepository {
	return &emailLogRepository{conn{db: db}}
}

func scanEmailLog(s scanner) (*domain.EmailLog, error) {
	var (
		l          domain.EmailLog
		rentalID   sql.NullInt64
		customerID sql.NullInt64
		sentAt     sql.NullTime
	)
	err := s.Scan(&l.ID, &l.EmailType, &l.ToEmail, &l.Subject, &l.HTMLBody, &rentalID, &customerID, &l.Status,
		&l.ErrorMessage, &sentAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.RentalID = int64Ptr(rentalID)
	l.CustomerID = int64Ptr(customerID)
	l.SentAt = timePtr(sentAt)
	return &l, nil
}

func (r *emailLogRepository) Create(ctx context.Context, l *domain.EmailLog) error {
	logger.EnterMethod("emailLogRepository.Create", "type", l.EmailType, "status", l.Status)

	query := `INSERT INTO email_logs (email_type, to_email, subject, html_body, rental_id, customer_id, status, error_message, sent_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`
	logger.DatabaseCall("INSERT", "email_logs", "rentalID", l.RentalID)

	err := r.exec(ctx).QueryRowContext(ctx, query, l.EmailType, l.ToEmail, l.Subject, l.HTMLBody, nullInt64(l.RentalID),
		nullInt64(l.CustomerID), l.Status, l.ErrorMessage, l.SentAt).Scan(&l.ID, &l.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "emailLogID", l.ID)

	if err != nil {
		logger.ExitMethodWithError("emailLogRepository.Create", err)
		return mapError(err)
	}
	logger.ExitMethod("emailLogRepository.Create", "emailLogID", l.ID)
	return nil
}

func (r *emailLogRepository) GetByID(ctx context.Context, id int64) (*domain.EmailLog, error) {
	l, err := scanEmailLog(r.exec(ctx).QueryRowContext(ctx, `SELECT `+emailLogColumns+` FROM email_logs WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

func (r *emailLogRepository) List(ctx context.Context, f domain.EmailLogFilter) ([]domain.EmailLog, int32, error) {
	var (
		where []string
		args  []any
	)
	if f.RentalID != 0 {
		args = append(args, f.RentalID)
		where = append(where, fmt.Sprintf("rental_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.EmailType != "" {
		args = append(args, f.EmailType)
		where = append(where, fmt.Sprintf("email_type = $%d", len(args)))
	}

	base := ` FROM email_logs`
	if len(where) > 0 {
		base += ` WHERE ` + strings.Join(where, " AND ")
	}

	var count int32
	if err := r.exec(ctx).QueryRowContext(ctx, `SELECT count(*)`+base, args...).Scan(&count); err != nil {
		return nil, 0, mapError(err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + emailLogColumns + base + fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, f.Offset)

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var logs []domain.EmailLog
	for rows.Next() {
		l, err := scanEmailLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, *l)
	}
	return logs, count, rows.Err()
}

const outboxColumns = `id, rental_id, event_type, status, attempts, email_log_id, last_error, claimed_at, created_at, processed_at`

type outboxRepository struct {
	conn
}

func NewOutboxRepository(db *sql.DB) repository.OutboxRepository {
	return &outboxRepository{conn{db: db}}
}

func scanOutbox(s scanner) (*domain.OutboxEntry, error) {
	var (
		e          domain.OutboxEntry
		emailLogID sql.NullInt64
		claimedAt  sql.NullTime
		processed  sql.NullTime
	)
	err := s.Scan(&e.ID, &e.RentalID, &e.EventType, &e.Status, &e.Attempts, &emailLogID, &e.LastError, &claimedAt,
		&e.CreatedAt, &processed)
	if err != nil {
		return nil, err
	}
	e.EmailLogID = int64Ptr(emailLogID)
	e.ClaimedAt = timePtr(claimedAt)
	e.ProcessedAt = timePtr(processed)
	return &e, nil
}

func (r *outboxRepository) Enqueue(ctx context.Context, e *domain.OutboxEntry) error {
	if e.Status == "" {
		e.Status = domain.OutboxStatusPending
	}
	query := `INSERT INTO outbox (rental_id, event_type, status) VALUES ($1, $2, $3) RETURNING id, created_at`
	logger.DatabaseCall("INSERT", "outbox", "rentalID", e.RentalID, "event", e.EventType)
	err := r.exec(ctx).QueryRowContext(ctx, query, e.RentalID, e.EventType, e.Status).Scan(&e.ID, &e.CreatedAt)
	return mapError(err)
}

func (r *outboxRepository) Claim(ctx context.Context, id int64) (*domain.OutboxEntry, error) {
	query := `UPDATE outbox SET status = 'processing', attempts = attempts + 1, claimed_at = NOW()
	          WHERE id = $1 AND status = 'pending'
	          RETURNING ` + outboxColumns
	e, err := scanOutbox(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func (r *outboxRepository) ClaimBatch(ctx context.Context, limit int, staleBefore time.Time) ([]domain.OutboxEntry, error) {
	query := `UPDATE outbox SET status = 'processing', attempts = attempts + 1, claimed_at = NOW()
	          WHERE id IN (
	              SELECT id FROM outbox
	              WHERE status = 'pending' OR (status = 'processing' AND claimed_at < $2)
	              ORDER BY created_at, id
	              LIMIT $1
	              FOR UPDATE SKIP LOCKED
	          )
	          RETURNING ` + outboxColumns
	logger.DatabaseCall("UPDATE", "outbox", "op", "claim_batch", "limit", limit)
	rows, err := r.exec(ctx).QueryContext(ctx, query, limit, staleBefore)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []domain.OutboxEntry
	for rows.Next() {
		e, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	logger.DatabaseResult("UPDATE", int64(len(entries)), rows.Err())
	return entries, rows.Err()
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id int64, status domain.OutboxStatus, emailLogID *int64, lastError string) error {
	query := `UPDATE outbox SET status = $1, email_log_id = $2, last_error = $3, processed_at = NOW() WHERE id = $4`
	res, err := r.exec(ctx).ExecContext(ctx, query, status, nullInt64(emailLogID), lastError, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type reminderRepository struct {
	conn
}

func NewReminderRepository(db *sql.DB) repository.ReminderRepository {
	return &reminderRepository{conn{db: db}}
}

func (r *reminderRepository) MarkSent(ctx context.Context, rentalID int64, kind string, windowDate time.Time) (bool, error) {
	query := `INSERT INTO sent_reminders (rental_id, reminder_kind, window_date) VALUES ($1, $2, $3::date)
	          ON CONFLICT DO NOTHING`
	res, err := r.exec(ctx).ExecContext(ctx, query, rentalID, kind, windowDate.Format("2006-01-02"))
	if err != nil {
		return false, mapError(err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
