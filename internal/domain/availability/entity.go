package availability

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotAvailable      = errors.New("not available")
	ErrNegativePrice     = errors.New("price cannot be negative")
	ErrNegativeRemaining = errors.New("remaining cannot be negative")
	ErrDuplicateDay      = errors.New("duplicate day in calendar update")
)

// Day is one calendar bucket of a property: price in minor units and capacity left.
type Day struct {
	PropertyID uuid.UUID
	Date       time.Time
	Price      int64
	Remaining  int
	Blocked    bool
}

func NewDay(propertyID uuid.UUID, date time.Time, price int64, remaining int, blocked bool) (Day, error) {
	if price < 0 {
		return Day{}, ErrNegativePrice
	}
	if remaining < 0 {
		return Day{}, ErrNegativeRemaining
	}
	return Day{
		PropertyID: propertyID,
		Date:       date.UTC(),
		Price:      price,
		Remaining:  remaining,
		Blocked:    blocked,
	}, nil
}

// Bookable is false for blocked days regardless of remaining capacity.
func (d Day) Bookable() bool {
	return !d.Blocked && d.Remaining > 0
}

// CheckWindow verifies that every night of the stay has a bookable row.
func CheckWindow(days []Day, nights int) error {
	if len(days) != nights {
		return ErrNotAvailable
	}
	for _, d := range days {
		if !d.Bookable() {
			return ErrNotAvailable
		}
	}
	return nil
}

func TotalPrice(days []Day) int64 {
	var total int64
	for _, d := range days {
		total += d.Price
	}
	return total
}

// EnsureUniqueDates rejects calendar batches that touch the same day twice.
func EnsureUniqueDates(days []Day) error {
	seen := make(map[int64]struct{}, len(days))
	for _, d := range days {
		k := d.Date.Unix()
		if _, ok := seen[k]; ok {
			return ErrDuplicateDay
		}
		seen[k] = struct{}{}
	}
	return nil
}
