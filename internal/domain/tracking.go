package domain

import "time"

// TrackingView is the read-only rental summary shown on the public tracking page.
type TrackingView struct {
	TrackingCode    string       `json:"tracking_code"`
	Status          RentalStatus `json:"status"`
	StatusLabel     string       `json:"status_label"`
	DeliveryDate    time.Time    `json:"delivery_date"`
	PickupDate      time.Time    `json:"pickup_date"`
	BoxQuantity     int          `json:"box_quantity"`
	DriverFirstName string       `json:"driver_first_name,omitempty"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// NewTrackingView projects a rental onto its public view. driver may be nil.
func NewTrackingView(r *Rental, driver *Driver) *TrackingView {
	v := &TrackingView{
		TrackingCode: r.TrackingCode,
		Status:       r.Status,
		StatusLabel:  r.Status.Label(),
		DeliveryDate: r.DeliveryDate,
		PickupDate:   r.ReturnDate(),
		BoxQuantity:  r.BoxQuantity,
		UpdatedAt:    r.UpdatedAt,
	}
	if driver != nil {
		v.DriverFirstName = driver.FirstName()
	}
	return v
}
