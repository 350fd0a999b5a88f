// config/security_config.go
package config

import "arriendo-cajas-backend/internal/domain"

type AccessLevel int

const (
	AccessPublic   AccessLevel = iota // No authentication
	AccessAny                         // Any authenticated role
	AccessCustomer                    // Customer or admin
	AccessDriver                      // Driver or admin
	AccessAdmin                       // Admin only
)

// RouteAccessConfig maps named HTTP routes to their required access level
var RouteAccessConfig = map[string]AccessLevel{
	// Public
	"health":        AccessPublic,
	"metrics":       AccessPublic,
	"auth.login":    AccessPublic,
	"tracking.view": AccessPublic,

	// Any session
	"auth.logout": AccessAny,
	"auth.me":     AccessAny,

	// Customer
	"me.rentals": AccessCustomer,

	// Driver
	"drivers.tasks":         AccessDriver,
	"drivers.task.complete": AccessDriver,

	// Admin
	"customers.list":   AccessAdmin,
	"customers.create": AccessAdmin,
	"customers.get":    AccessAdmin,
	"customers.update": AccessAdmin,
	"customers.delete": AccessAdmin,

	"drivers.list":   AccessAdmin,
	"drivers.create": AccessAdmin,
	"drivers.get":    AccessAdmin,
	"drivers.update": AccessAdmin,
	"drivers.delete": AccessAdmin,
	"drivers.active": AccessAdmin,

	"inventory.list":         AccessAdmin,
	"inventory.create":       AccessAdmin,
	"inventory.get":          AccessAdmin,
	"inventory.update":       AccessAdmin,
	"inventory.status":       AccessAdmin,
	"inventory.delete":       AccessAdmin,
	"inventory.availability": AccessAdmin,

	"rentals.list":                AccessAdmin,
	"rentals.create":              AccessAdmin,
	"rentals.get":                 AccessAdmin,
	"rentals.update":              AccessAdmin,
	"rentals.delete":              AccessAdmin,
	"rentals.status":              AccessAdmin,
	"rentals.driver":              AccessAdmin,
	"rentals.reservations.list":   AccessAdmin,
	"rentals.reservations.create": AccessAdmin,
	"rentals.emails":              AccessAdmin,
	"rentals.payment_reminder":    AccessAdmin,
	"rentals.payments.list":       AccessAdmin,
	"rentals.payments.create":     AccessAdmin,

	"users.create":      AccessAdmin,
	"payments.list":     AccessAdmin,
	"reminders.preview": AccessAdmin,
	"reminders.sweep":   AccessAdmin,
	"outbox.drain":      AccessAdmin,
	"email_logs.list":   AccessAdmin,
	"email_logs.get":    AccessAdmin,
	"reports.summary":   AccessAdmin,
	"reports.xlsx":      AccessAdmin,
	"reports.pdf":       AccessAdmin,
}

// GetAccessLevel returns the access level for a named route
func GetAccessLevel(route string) AccessLevel {
	if level, exists := RouteAccessConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return AccessAdmin
}

// Allows reports whether a role satisfies the access level
func (l AccessLevel) Allows(role domain.Role) bool {
	switch l {
	case AccessPublic, AccessAny:
		return role.IsValid()
	case AccessCustomer:
		return role == domain.RoleCustomer || role == domain.RoleAdmin
	case AccessDriver:
		return role == domain.RoleDriver || role == domain.RoleAdmin
	case AccessAdmin:
		return role == domain.RoleAdmin
	}
	return false
}
