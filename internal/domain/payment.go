package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodOther    PaymentMethod = "other"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

type Payment struct {
	ID        int64         `json:"id"`
	RentalID  int64         `json:"rental_id"`
	Amount    int64         `json:"amount"`
	Method    PaymentMethod `json:"method"`
	Reference string        `json:"reference"`
	PaidAt    time.Time     `json:"paid_at"`
	CreatedAt time.Time     `json:"created_at"`
}

// ReportSummary aggregates activity over a date range.
type ReportSummary struct {
	From             time.Time            `json:"from"`
	To               time.Time            `json:"to"`
	RentalsByStatus  map[RentalStatus]int `json:"rentals_by_status"`
	BoxesOut         int                  `json:"boxes_out"`
	RevenueCollected int64                `json:"revenue_collected"`
	OutstandingDebt  int64                `json:"outstanding_debt"`
	EmailsByStatus   map[EmailStatus]int  `json:"emails_by_status"`
}
