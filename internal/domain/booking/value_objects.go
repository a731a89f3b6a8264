package booking

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRange  = errors.New("check-out must be after check-in")
	ErrTooManyNights = errors.New("too many nights")
)

const dateLayout = "2006-01-02"

// NormalizeDay collapses a bare date or an RFC3339 timestamp to midnight of loc,
// expressed in UTC. This is the bucket key of an availability day.
func NormalizeDay(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}

	if len(raw) == len(dateLayout) {
		t, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return time.Time{}, ErrInvalidDate
		}
		return t.UTC(), nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC(), nil
}

// Stay is the half-open night range [checkIn, checkOut).
type Stay struct {
	checkIn  time.Time
	checkOut time.Time
	nights   int
	loc      *time.Location
}

func NewStay(checkInRaw, checkOutRaw string, loc *time.Location, maxNights int) (Stay, error) {
	in, err := NormalizeDay(checkInRaw, loc)
	if err != nil {
		return Stay{}, err
	}
	out, err := NormalizeDay(checkOutRaw, loc)
	if err != nil {
		return Stay{}, err
	}

	nights := calendarDaysBetween(in.In(loc), out.In(loc))
	if nights <= 0 {
		return Stay{}, ErrInvalidRange
	}
	if maxNights > 0 && nights > maxNights {
		return Stay{}, ErrTooManyNights
	}

	return Stay{checkIn: in, checkOut: out, nights: nights, loc: loc}, nil
}

// ReconstructStay rebuilds a stay from stored UTC buckets.
func ReconstructStay(checkIn, checkOut time.Time, nights int) Stay {
	return Stay{checkIn: checkIn.UTC(), checkOut: checkOut.UTC(), nights: nights}
}

// Days lists the UTC bucket of every night in the stay.
func (s Stay) Days() []time.Time {
	loc := s.loc
	if loc == nil {
		loc = time.UTC
	}
	start := s.checkIn.In(loc)
	days := make([]time.Time, 0, s.nights)
	for i := 0; i < s.nights; i++ {
		days = append(days, start.AddDate(0, 0, i).UTC())
	}
	return days
}

func (s Stay) CheckIn() time.Time  { return s.checkIn }
func (s Stay) CheckOut() time.Time { return s.checkOut }
func (s Stay) Nights() int         { return s.nights }

// calendar arithmetic keeps DST days at exactly one night
func calendarDaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
