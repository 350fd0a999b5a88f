package report

import (
	"time"

	"arriendo-cajas-backend/internal/domain"
)

// Row is one rental line of an export, with the names already resolved.
type Row struct {
	Rental       domain.Rental
	CustomerName string
	DriverName   string
}

// Data is everything an export renders for a date range
type Data struct {
	From        time.Time
	To          time.Time
	GeneratedAt time.Time
	Summary     *domain.ReportSummary
	Rows        []Row
}

// LastDay is the last calendar day covered by the exclusive To bound.
func (d Data) LastDay() time.Time {
	return d.To.AddDate(0, 0, -1)
}

var statusOrder = []domain.RentalStatus{
	domain.RentalStatusPending,
	domain.RentalStatusScheduled,
	domain.RentalStatusOnRoute,
	domain.RentalStatusDelivered,
	domain.RentalStatusPickupScheduled,
	domain.RentalStatusPickedUp,
	domain.RentalStatusCompleted,
	domain.RentalStatusCancelled,
}

var rowHeaders = []string{
	"Código",
	"Cliente",
	"Estado",
	"Cajas",
	"Entrega",
	"Retiro",
	"Chofer",
	"Total",
	"Pagado",
	"Pendiente",
}

func safeValue(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
