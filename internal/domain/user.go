package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDriver   Role = "driver"
	RoleCustomer Role = "customer"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleDriver || r == RoleCustomer
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	DriverID     *int64    `json:"driver_id,omitempty"`
	CustomerID   *int64    `json:"customer_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	UserID     int64
	Email      string
	Role       Role
	DriverID   *int64
	CustomerID *int64
}
