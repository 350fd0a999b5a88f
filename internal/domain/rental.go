package domain

import "time"

type RentalStatus string

const (
	RentalStatusPending         RentalStatus = "pendiente"
	RentalStatusScheduled       RentalStatus = "programada"
	RentalStatusOnRoute         RentalStatus = "en_ruta"
	RentalStatusDelivered       RentalStatus = "entregada"
	RentalStatusPickupScheduled RentalStatus = "retiro_programado"
	RentalStatusPickedUp        RentalStatus = "retirada"
	RentalStatusCompleted       RentalStatus = "finalizada"
	RentalStatusCancelled       RentalStatus = "cancelada"
)

// DefaultRentalDays is used when a rental has no explicit pickup date.
const DefaultRentalDays = 7

var rentalStatusLabels = map[RentalStatus]string{
	RentalStatusPending:         "Pendiente",
	RentalStatusScheduled:       "Programada",
	RentalStatusOnRoute:         "En ruta",
	RentalStatusDelivered:       "Entregada",
	RentalStatusPickupScheduled: "Retiro programado",
	RentalStatusPickedUp:        "Retirada",
	RentalStatusCompleted:       "Finalizada",
	RentalStatusCancelled:       "Cancelada",
}

// IsKnown reports whether s is one of the enumerated rental statuses.
func (s RentalStatus) IsKnown() bool {
	_, ok := rentalStatusLabels[s]
	return ok
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusCompleted || s == RentalStatusCancelled
}

// Label returns the human readable name shown to customers.
func (s RentalStatus) Label() string {
	if l, ok := rentalStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// AssignmentStatuses are the statuses in which a rental counts as a current driver assignment.
var AssignmentStatuses = []RentalStatus{
	RentalStatusScheduled,
	RentalStatusOnRoute,
	RentalStatusPickupScheduled,
}

// OpenStatuses are the statuses in which boxes are committed to a customer.
var OpenStatuses = []RentalStatus{
	RentalStatusScheduled,
	RentalStatusOnRoute,
	RentalStatusDelivered,
	RentalStatusPickupScheduled,
}

// LineItem is an additional product sold or rented together with the boxes.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// Subtotal returns quantity times unit price.
func (li LineItem) Subtotal() int64 {
	return int64(li.Quantity) * li.Price
}

type Rental struct {
	ID                 int64        `json:"id"`
	CustomerID         int64        `json:"customer_id"`
	DriverID           *int64       `json:"driver_id,omitempty"`
	Status             RentalStatus `json:"status"`
	BoxQuantity        int          `json:"box_quantity"`
	PricePerDay        int64        `json:"price_per_day"`
	GuaranteeAmount    int64        `json:"guarantee_amount"`
	TotalAmount        int64        `json:"total_amount"`
	PaidAmount         int64        `json:"paid_amount"`
	DeliveryDate       time.Time    `json:"delivery_date"`
	PickupDate         *time.Time   `json:"pickup_date,omitempty"`
	DeliveryAddress    string       `json:"delivery_address"`
	PickupAddress      string       `json:"pickup_address"`
	TrackingCode       string       `json:"tracking_code"`
	TrackingToken      string       `json:"-"`
	Notes              string       `json:"notes"`
	AdditionalProducts []LineItem   `json:"additional_products"`
	Version            int          `json:"version"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// ReturnDate is the explicit pickup date, falling back to the delivery date plus DefaultRentalDays.
func (r *Rental) ReturnDate() time.Time {
	if r.PickupDate != nil && !r.PickupDate.IsZero() {
		return *r.PickupDate
	}
	return r.DeliveryDate.AddDate(0, 0, DefaultRentalDays)
}

// PendingAmount is what the customer still owes. Never negative.
func (r *Rental) PendingAmount() int64 {
	if r.PaidAmount >= r.TotalAmount {
		return 0
	}
	return r.TotalAmount - r.PaidAmount
}

// RentalFilter narrows rental listings. Zero values mean "any".
type RentalFilter struct {
	Status     RentalStatus
	Statuses   []RentalStatus
	CustomerID int64
	DriverID   int64
	From       *time.Time
	To         *time.Time
	Page       int32
	PageSize   int32
}
