package domain

import "time"

// EventType identifies which email template a notification uses.
type EventType string

const (
	EventPending         EventType = "pending"
	EventPendingReminder EventType = "pending_reminder"
	EventScheduled       EventType = "scheduled"
	EventPaid            EventType = "paid"
	EventOnRoute         EventType = "on_route"
	EventDelivered       EventType = "delivered"
	EventReturnReminder  EventType = "return_reminder"
	EventPickedUp        EventType = "picked_up"
	EventCompleted       EventType = "completed"
)

var statusEvents = map[RentalStatus]EventType{
	RentalStatusPending:   EventPending,
	RentalStatusScheduled: EventScheduled,
	RentalStatusOnRoute:   EventOnRoute,
	RentalStatusDelivered: EventDelivered,
	RentalStatusPickedUp:  EventPickedUp,
	RentalStatusCompleted: EventCompleted,
}

// EventForStatus returns the notification event sent when a rental enters s.
// Statuses without a template (retiro_programado, cancelada, unknown values) return false.
func EventForStatus(s RentalStatus) (EventType, bool) {
	ev, ok := statusEvents[s]
	return ev, ok
}

type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

// EmailLog is the append-only audit record of one notification attempt.
type EmailLog struct {
	ID           int64       `json:"id"`
	EmailType    EventType   `json:"email_type"`
	ToEmail      string      `json:"to_email"`
	Subject      string      `json:"subject"`
	HTMLBody     string      `json:"html_body,omitempty"`
	RentalID     *int64      `json:"rental_id,omitempty"`
	CustomerID   *int64      `json:"customer_id,omitempty"`
	Status       EmailStatus `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	SentAt       *time.Time  `json:"sent_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type EmailLogFilter struct {
	RentalID  int64
	Status    EmailStatus
	EmailType EventType
	Limit     int32
	Offset    int32
}

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusSent       OutboxStatus = "sent"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// OutboxEntry is a notification intent persisted in the same transaction as the state change that caused it.
type OutboxEntry struct {
	ID          int64        `json:"id"`
	RentalID    int64        `json:"rental_id"`
	EventType   EventType    `json:"event_type"`
	Status      OutboxStatus `json:"status"`
	Attempts    int          `json:"attempts"`
	EmailLogID  *int64       `json:"email_log_id,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
	ClaimedAt   *time.Time   `json:"claimed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}

// ReminderKindReturn marks return-date reminders in the sent reminders ledger.
const ReminderKindReturn = "return_reminder"
