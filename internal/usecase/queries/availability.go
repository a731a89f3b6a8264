package queries

import (
	"context"
	"time"

	"staybook/internal/domain/booking"
	"staybook/internal/pkg/config"
	"staybook/internal/pkg/errs"

	"github.com/google/uuid"
)

const maxCalendarDays = 366

var ErrInvalidRange = errs.New("invalid date range")

type AvailabilityQueries interface {
	Range(ctx context.Context, propertyID uuid.UUID, from, to string) ([]*AvailabilityDayView, error)
}

type AvailabilityReadStore interface {
	FindRange(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*AvailabilityDayView, error)
}

type availabilityQueriesImpl struct {
	store AvailabilityReadStore
	loc   *time.Location
}

func NewAvailabilityQueries(store AvailabilityReadStore, cfg config.Config) (AvailabilityQueries, error) {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, err
	}
	return &availabilityQueriesImpl{store: store, loc: loc}, nil
}

// Range lists the stored days in [from, to), both read as business dates.
// Missing days are simply absent.
func (q *availabilityQueriesImpl) Range(ctx context.Context, propertyID uuid.UUID, from, to string) ([]*AvailabilityDayView, error) {
	start, err := booking.NormalizeDay(from, q.loc)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "from"), ErrInvalidRange)
	}
	end, err := booking.NormalizeDay(to, q.loc)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "to"), ErrInvalidRange)
	}
	// an hour of slack covers a DST shift inside the window
	if !end.After(start) || end.Sub(start) > maxCalendarDays*24*time.Hour+time.Hour {
		return nil, ErrInvalidRange
	}
	return q.store.FindRange(ctx, propertyID, start, end)
}
