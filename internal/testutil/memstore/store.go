//go:build unit || e2e

// Package memstore is an in-memory stand-in for the Postgres stores. One
// transaction runs at a time and its writes land only if fn returns nil, which
// is enough to exercise the guarded updates the real schema relies on.
package memstore

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/fraud"
	"staybook/internal/infra"
	"staybook/internal/usecase/queries"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
)

type dayKey struct {
	propertyID uuid.UUID
	day        int64
}

type bookingRow struct {
	ID               uuid.UUID
	PropertyID       uuid.UUID
	CustomerID       uuid.UUID
	CheckIn          time.Time
	CheckOut         time.Time
	Nights           int
	Status           booking.Status
	HoldExpiresAt    *time.Time
	ReviewDeadlineAt *time.Time
	TotalPrice       int64
	PromotionCode    *string
	CancelPolicy     string
	CancelReason     *string
	PaymentRef       *string
	PaidAt           *time.Time
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type state struct {
	days        map[dayKey]availability.Day
	bookings    map[uuid.UUID]bookingRow
	assessments map[uuid.UUID]*fraud.Assessment
	outbox      []shared.OutboxEvent
	nextEventID int64
}

func (s *state) clone() *state {
	c := &state{
		days:        make(map[dayKey]availability.Day, len(s.days)),
		bookings:    make(map[uuid.UUID]bookingRow, len(s.bookings)),
		assessments: make(map[uuid.UUID]*fraud.Assessment, len(s.assessments)),
		outbox:      slices.Clone(s.outbox),
		nextEventID: s.nextEventID,
	}
	for k, v := range s.days {
		c.days[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.assessments {
		cp := *v
		c.assessments[k] = &cp
	}
	return c
}

type Store struct {
	mu  sync.Mutex
	cur *state
}

func New() *Store {
	return &Store{cur: &state{
		days:        map[dayKey]availability.Day{},
		bookings:    map[uuid.UUID]bookingRow{},
		assessments: map[uuid.UUID]*fraud.Assessment{},
	}}
}

// Within implements shared.UnitOfWork.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.cur.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	s.cur = work
	return nil
}

// SeedDays writes availability rows directly, outside any transaction.
func (s *Store) SeedDays(days ...availability.Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range days {
		s.cur.days[keyOf(d.PropertyID, d.Date)] = d
	}
}

// Remaining lists remaining counts for the given days, -1 for a missing row.
func (s *Store) Remaining(propertyID uuid.UUID, days ...time.Time) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(days))
	for i, d := range days {
		row, ok := s.cur.days[keyOf(propertyID, d)]
		if !ok {
			out[i] = -1
			continue
		}
		out[i] = row.Remaining
	}
	return out
}

func (s *Store) Booking(id uuid.UUID) (*booking.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.cur.bookings[id]
	if !ok {
		return nil, false
	}
	return row.toDomain(), true
}

func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cur.bookings)
}

func (s *Store) Assessment(bookingID uuid.UUID) (*fraud.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.cur.assessments[bookingID]
	if !ok {
		return nil, false
	}
	cp := *a
	return &cp, true
}

// Topics returns the pending outbox topics in insertion order.
func (s *Store) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.cur.outbox))
	for i, e := range s.cur.outbox {
		out[i] = e.Topic
	}
	return out
}

func (s *Store) Events() []shared.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cur.outbox)
}

// ForceExpiry rewrites hold_expires_at, the way a test would age a hold.
func (s *Store) ForceExpiry(id uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.cur.bookings[id]
	row.HoldExpiresAt = &at
	s.cur.bookings[id] = row
}

// FindByID implements queries.BookingReadStore.
func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*queries.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.cur.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	v := &queries.BookingView{
		ID:               row.ID,
		PropertyID:       row.PropertyID,
		CustomerID:       row.CustomerID,
		CheckIn:          row.CheckIn,
		CheckOut:         row.CheckOut,
		Nights:           row.Nights,
		Status:           row.Status.String(),
		HoldExpiresAt:    row.HoldExpiresAt,
		ReviewDeadlineAt: row.ReviewDeadlineAt,
		TotalPrice:       row.TotalPrice,
		PromotionCode:    row.PromotionCode,
		CancelPolicy:     row.CancelPolicy,
		CancelReason:     row.CancelReason,
		CancelledAt:      row.CancelledAt,
		PaymentRef:       row.PaymentRef,
		PaidAt:           row.PaidAt,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if a, ok := s.cur.assessments[id]; ok {
		v.Fraud = &queries.FraudView{
			Score:      a.Score(),
			Level:      string(a.Level()),
			Decision:   string(a.Decision()),
			Reasons:    a.Reasons(),
			ReviewerID: a.ReviewerID(),
			Note:       a.Note(),
			DecidedAt:  a.DecidedAt(),
		}
	}
	return v, nil
}

// FindByCustomer implements queries.BookingReadStore.
func (s *Store) FindByCustomer(_ context.Context, customerID uuid.UUID, afterCreatedAt *time.Time, afterID uuid.UUID, limit int) ([]*queries.BookingListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]bookingRow, 0)
	for _, r := range s.cur.bookings {
		if r.CustomerID == customerID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID.String() > rows[j].ID.String()
	})

	out := make([]*queries.BookingListItem, 0, limit)
	for _, r := range rows {
		if afterCreatedAt != nil && !before(r, *afterCreatedAt, afterID) {
			continue
		}
		out = append(out, &queries.BookingListItem{
			ID:            r.ID,
			PropertyID:    r.PropertyID,
			CheckIn:       r.CheckIn,
			CheckOut:      r.CheckOut,
			Nights:        r.Nights,
			Status:        r.Status.String(),
			HoldExpiresAt: r.HoldExpiresAt,
			TotalPrice:    r.TotalPrice,
			CreatedAt:     r.CreatedAt,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// before mirrors (created_at, id) < ($1, $2).
func before(r bookingRow, t time.Time, id uuid.UUID) bool {
	if !r.CreatedAt.Equal(t) {
		return r.CreatedAt.Before(t)
	}
	return r.ID.String() < id.String()
}

func keyOf(propertyID uuid.UUID, day time.Time) dayKey {
	return dayKey{propertyID: propertyID, day: day.UTC().Unix()}
}

func rowFromDomain(b *booking.Booking) bookingRow {
	return bookingRow{
		ID:               b.ID(),
		PropertyID:       b.PropertyID(),
		CustomerID:       b.CustomerID(),
		CheckIn:          b.Stay().CheckIn(),
		CheckOut:         b.Stay().CheckOut(),
		Nights:           b.Stay().Nights(),
		Status:           b.Status(),
		HoldExpiresAt:    b.HoldExpiresAt(),
		ReviewDeadlineAt: b.ReviewDeadlineAt(),
		TotalPrice:       b.TotalPrice(),
		PromotionCode:    b.PromotionCode(),
		CancelPolicy:     b.CancelPolicy(),
		CancelReason:     b.CancelReason(),
		PaymentRef:       b.PaymentRef(),
		PaidAt:           b.PaidAt(),
		CancelledAt:      b.CancelledAt(),
		CreatedAt:        b.CreatedAt(),
		UpdatedAt:        b.UpdatedAt(),
	}
}

func (r bookingRow) toDomain() *booking.Booking {
	return booking.ReconstructBooking(
		r.ID, r.PropertyID, r.CustomerID,
		booking.ReconstructStay(r.CheckIn, r.CheckOut, r.Nights),
		r.Status,
		r.HoldExpiresAt, r.ReviewDeadlineAt,
		r.TotalPrice,
		r.PromotionCode,
		r.CancelPolicy,
		r.CancelReason, r.PaymentRef,
		r.PaidAt, r.CancelledAt,
		r.CreatedAt, r.UpdatedAt,
	)
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
