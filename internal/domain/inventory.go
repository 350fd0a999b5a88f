package domain

import "time"

type ItemType string

const (
	ItemTypeBox   ItemType = "box"
	ItemTypeCart  ItemType = "cart"
	ItemTypeStrap ItemType = "strap"
	ItemTypeBase  ItemType = "base"
)

type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "available"
	ItemStatusUnavailable ItemStatus = "unavailable"
	ItemStatusMaintenance ItemStatus = "maintenance"
	ItemStatusDamaged     ItemStatus = "damaged"
)

func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeBox, ItemTypeCart, ItemTypeStrap, ItemTypeBase:
		return true
	}
	return false
}

func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusAvailable, ItemStatusUnavailable, ItemStatusMaintenance, ItemStatusDamaged:
		return true
	}
	return false
}

type InventoryItem struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Type      ItemType   `json:"type"`
	Status    ItemStatus `json:"status"`
	Notes     string     `json:"notes"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Reservation holds an item for a rental over the half-open period [From, To).
type Reservation struct {
	ID         int64      `json:"id"`
	ItemID     int64      `json:"item_id"`
	RentalID   int64      `json:"rental_id"`
	From       time.Time  `json:"from"`
	To         time.Time  `json:"to"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Overlaps reports whether two half-open periods intersect.
func Overlaps(aFrom, aTo, bFrom, bTo time.Time) bool {
	return aFrom.Before(bTo) && bFrom.Before(aTo)
}
