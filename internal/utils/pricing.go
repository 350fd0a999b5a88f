package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"arriendo-cajas-backend/internal/domain"
)

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// Time returns the date at midnight in loc
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

// RentalCostBreakdown provides detailed cost breakdown
type RentalCostBreakdown struct {
	Days          int
	BoxesCost     int64
	ProductsCost  int64
	GuaranteeCost int64
	TotalCost     int64
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year: %v", err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid month: %v", err)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		// Check for leap year
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	// Months with 30 days: April, June, September, November
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// StartOfDay truncates t to midnight in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CalendarDate keeps the calendar day of t as written and places it at midnight in loc.
// Use it for DATE columns, which carry no timezone.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween counts calendar days from a to b using each value's own calendar fields
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// RentalDays counts billable days between delivery and pickup, never less than one.
// A missing pickup date bills the default rental period.
func RentalDays(delivery time.Time, pickup *time.Time) int {
	if pickup == nil || pickup.IsZero() {
		return domain.DefaultRentalDays
	}
	days := DaysBetween(delivery, *pickup)
	if days < 1 {
		return 1
	}
	return days
}

// CalculateRentalCostWithBreakdown prices a rental: boxes per day, extra products, plus the guarantee
func CalculateRentalCostWithBreakdown(r *domain.Rental) (RentalCostBreakdown, error) {
	if r.BoxQuantity < 0 {
		return RentalCostBreakdown{}, fmt.Errorf("box quantity must not be negative")
	}
	if r.PricePerDay < 0 || r.GuaranteeAmount < 0 {
		return RentalCostBreakdown{}, fmt.Errorf("prices must not be negative")
	}
	if r.PickupDate != nil && r.PickupDate.Before(r.DeliveryDate) {
		return RentalCostBreakdown{}, fmt.Errorf("pickup date must be >= delivery date")
	}

	days := RentalDays(r.DeliveryDate, r.PickupDate)
	boxes := int64(r.BoxQuantity) * r.PricePerDay * int64(days)

	var products int64
	for _, item := range r.AdditionalProducts {
		if item.Quantity < 0 || item.Price < 0 {
			return RentalCostBreakdown{}, fmt.Errorf("invalid additional product %q", item.Name)
		}
		products += item.Subtotal()
	}

	return RentalCostBreakdown{
		Days:          days,
		BoxesCost:     boxes,
		ProductsCost:  products,
		GuaranteeCost: r.GuaranteeAmount,
		TotalCost:     boxes + products + r.GuaranteeAmount,
	}, nil
}

// CalculateRentalTotal returns only the total of CalculateRentalCostWithBreakdown
func CalculateRentalTotal(r *domain.Rental) (int64, error) {
	b, err := CalculateRentalCostWithBreakdown(r)
	if err != nil {
		return 0, err
	}
	return b.TotalCost, nil
}

// FormatCLP renders an amount in Chilean pesos, e.g. 15000 -> "$15.000"
func FormatCLP(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String()
}

// FormatDate renders a date as dd-mm-yyyy
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02-01-2006")
}
