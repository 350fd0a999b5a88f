package notification

import (
	"context"
	"fmt"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/mail"
	"arriendo-cajas-backend/internal/metrics"
	"arriendo-cajas-backend/internal/repository"
)

// Dispatcher renders, sends and audits one notification
type Dispatcher interface {
	// Dispatch returns domain.ErrNoTemplate without writing anything for unknown event types.
	// Otherwise exactly one EmailLog is appended; delivery failures are recorded on it, not returned.
	Dispatch(ctx context.Context, ev domain.EventType, p Payload) (*domain.EmailLog, error)
	// Supports reports whether ev has a template
	Supports(ev domain.EventType) bool
}

type dispatcher struct {
	renderer *Renderer
	sender   mail.Sender
	logs     repository.EmailLogRepository
	now      func() time.Time
}

// NewDispatcher builds a dispatcher. sender may be nil when no transport is configured.
func NewDispatcher(renderer *Renderer, sender mail.Sender, logs repository.EmailLogRepository) Dispatcher {
	return &dispatcher{
		renderer: renderer,
		sender:   sender,
		logs:     logs,
		now:      time.Now,
	}
}

func (d *dispatcher) Supports(ev domain.EventType) bool {
	return d.renderer.Has(ev)
}

func (d *dispatcher) Dispatch(ctx context.Context, ev domain.EventType, p Payload) (*domain.EmailLog, error) {
	logger.EnterMethod("dispatcher.Dispatch", "event", ev, "rentalID", p.RentalID)

	if !d.renderer.Has(ev) {
		logger.InfoContext(ctx, "No template for event, skipping notification", "event", ev)
		logger.ExitMethod("dispatcher.Dispatch", "result", "no_template")
		return nil, domain.ErrNoTemplate
	}

	entry := &domain.EmailLog{
		EmailType:  ev,
		ToEmail:    p.CustomerEmail,
		RentalID:   p.RentalID,
		CustomerID: p.CustomerID,
		Status:     domain.EmailStatusFailed,
	}

	subject, body, err := d.renderer.Render(ev, p)
	entry.Subject = subject
	entry.HTMLBody = body

	switch {
	case err != nil:
		entry.ErrorMessage = err.Error()
	case p.CustomerEmail == "":
		entry.ErrorMessage = "recipient has no email address"
	case d.sender == nil:
		entry.ErrorMessage = mail.ErrNotConfigured.Error()
	default:
		sendErr := d.sender.Send(ctx, mail.Message{
			To:      p.CustomerEmail,
			ToName:  p.CustomerName,
			Subject: subject,
			HTML:    body,
		})
		if sendErr != nil {
			entry.ErrorMessage = sendErr.Error()
		} else {
			sentAt := d.now()
			entry.Status = domain.EmailStatusSent
			entry.SentAt = &sentAt
		}
	}

	if entry.Status == domain.EmailStatusFailed {
		logger.WarnContext(ctx, "Notification not delivered", "event", ev, "to", entry.ToEmail, "error", entry.ErrorMessage)
	}

	if err := d.logs.Create(ctx, entry); err != nil {
		logger.ExitMethodWithError("dispatcher.Dispatch", err)
		return entry, fmt.Errorf("failed to append email log: %w", err)
	}
	metrics.EmailsTotal.WithLabelValues(string(ev), string(entry.Status)).Inc()

	logger.ExitMethod("dispatcher.Dispatch", "emailLogID", entry.ID, "status", entry.Status)
	return entry, nil
}
