package domain

import "time"

type Customer struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	TaxID            string    `json:"tax_id"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	SecondaryAddress string    `json:"secondary_address"`
	Notes            string    `json:"notes"`
	TotalRentals     int       `json:"total_rentals"`
	ActiveRentals    int       `json:"active_rentals"`
	CurrentDebt      int64     `json:"current_debt"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Driver struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	PushToken string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// FirstName is what the public tracking page shows for the driver.
func (d *Driver) FirstName() string {
	for i, r := range d.Name {
		if r == ' ' {
			return d.Name[:i]
		}
	}
	return d.Name
}
