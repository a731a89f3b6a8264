//go:build unit || e2e

package memstore

import (
	"context"
	"slices"
	"sort"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/fraud"
	"staybook/internal/infra"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
)

type tx struct {
	st *state
}

func (t *tx) Availability() shared.AvailabilityRepository { return availabilityRepo{t.st} }
func (t *tx) Bookings() shared.BookingRepository          { return bookingRepo{t.st} }
func (t *tx) Assessments() shared.AssessmentRepository    { return assessmentRepo{t.st} }
func (t *tx) Outbox() shared.OutboxRepository             { return outboxRepo{t.st} }

type availabilityRepo struct{ st *state }

func (r availabilityRepo) LockRange(_ context.Context, propertyID uuid.UUID, from, to time.Time) ([]availability.Day, error) {
	out := make([]availability.Day, 0)
	for _, d := range r.st.days {
		if d.PropertyID == propertyID && !d.Date.Before(from) && d.Date.Before(to) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r availabilityRepo) DecrementDay(_ context.Context, propertyID uuid.UUID, day time.Time) (int64, error) {
	k := keyOf(propertyID, day)
	d, ok := r.st.days[k]
	if !ok || d.Remaining <= 0 || d.Blocked {
		return 0, nil
	}
	d.Remaining--
	r.st.days[k] = d
	return 1, nil
}

func (r availabilityRepo) IncrementRange(_ context.Context, propertyID uuid.UUID, from, to time.Time) (int64, error) {
	var n int64
	for k, d := range r.st.days {
		if d.PropertyID == propertyID && !d.Date.Before(from) && d.Date.Before(to) {
			d.Remaining++
			r.st.days[k] = d
			n++
		}
	}
	return n, nil
}

func (r availabilityRepo) Upsert(_ context.Context, days []availability.Day) error {
	for _, d := range days {
		r.st.days[keyOf(d.PropertyID, d.Date)] = d
	}
	return nil
}

type bookingRepo struct{ st *state }

func (r bookingRepo) Create(_ context.Context, b *booking.Booking) error {
	if _, ok := r.st.bookings[b.ID()]; ok {
		return infra.WrapRepoErr("booking exists", nil, infra.KindDuplicateKey)
	}
	r.st.bookings[b.ID()] = rowFromDomain(b)
	return nil
}

func (r bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	row, ok := r.st.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return row.toDomain(), nil
}

func (r bookingRepo) Release(_ context.Context, id uuid.UUID, guard shared.ReleaseGuard) (*shared.ReleasedBooking, error) {
	row, ok := r.st.bookings[id]
	if !ok || !slices.Contains(guard.From, row.Status) {
		return nil, nil
	}
	if guard.ExpiredBefore != nil && (row.HoldExpiresAt == nil || !row.HoldExpiresAt.Before(*guard.ExpiredBefore)) {
		return nil, nil
	}

	at, reason := guard.At, guard.Reason
	row.Status = booking.StatusCancelled
	row.CancelledAt = &at
	row.CancelReason = &reason
	row.UpdatedAt = at
	r.st.bookings[id] = row

	return &shared.ReleasedBooking{
		ID:         row.ID,
		PropertyID: row.PropertyID,
		CustomerID: row.CustomerID,
		Stay:       booking.ReconstructStay(row.CheckIn, row.CheckOut, row.Nights),
	}, nil
}

func (r bookingRepo) ApproveReview(_ context.Context, id uuid.UUID, holdExpiresAt, now time.Time) (bool, error) {
	row, ok := r.st.bookings[id]
	if !ok || row.Status != booking.StatusReview {
		return false, nil
	}
	row.Status = booking.StatusHold
	row.HoldExpiresAt = &holdExpiresAt
	row.ReviewDeadlineAt = nil
	row.UpdatedAt = now
	r.st.bookings[id] = row
	return true, nil
}

func (r bookingRepo) MarkPaid(_ context.Context, id uuid.UUID, paymentRef string, now time.Time) (bool, error) {
	row, ok := r.st.bookings[id]
	if !ok || row.Status != booking.StatusHold || row.HoldExpiresAt == nil || row.HoldExpiresAt.Before(now) {
		return false, nil
	}
	row.Status = booking.StatusPaid
	row.PaymentRef = &paymentRef
	row.PaidAt = &now
	row.UpdatedAt = now
	r.st.bookings[id] = row
	return true, nil
}

func (r bookingRepo) ListExpiredCandidates(_ context.Context, now time.Time, exclude []uuid.UUID, limit int) ([]uuid.UUID, error) {
	rows := make([]bookingRow, 0)
	for _, row := range r.st.bookings {
		if !row.Status.IsReleasable() || row.HoldExpiresAt == nil || !row.HoldExpiresAt.Before(now) {
			continue
		}
		if slices.Contains(exclude, row.ID) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].HoldExpiresAt.Before(*rows[j].HoldExpiresAt) })

	ids := make([]uuid.UUID, 0, limit)
	for _, row := range rows {
		if len(ids) == limit {
			break
		}
		ids = append(ids, row.ID)
	}
	return ids, nil
}

type assessmentRepo struct{ st *state }

func (r assessmentRepo) Upsert(_ context.Context, a *fraud.Assessment) error {
	cp := *a
	r.st.assessments[a.BookingID()] = &cp
	return nil
}

func (r assessmentRepo) FindForUpdate(_ context.Context, bookingID uuid.UUID) (*fraud.Assessment, error) {
	a, ok := r.st.assessments[bookingID]
	if !ok {
		return nil, infra.WrapRepoErr("fraud assessment not found", nil, infra.KindNotFound)
	}
	cp := *a
	return &cp, nil
}

func (r assessmentRepo) SaveDecision(_ context.Context, a *fraud.Assessment) error {
	if _, ok := r.st.assessments[a.BookingID()]; !ok {
		return infra.WrapRepoErr("fraud assessment not found", nil, infra.KindNotFound)
	}
	cp := *a
	r.st.assessments[a.BookingID()] = &cp
	return nil
}

type outboxRepo struct{ st *state }

func (r outboxRepo) Append(_ context.Context, topic string, key string, payload any) error {
	r.st.nextEventID++
	ev := shared.OutboxEvent{
		ID:        r.st.nextEventID,
		Topic:     topic,
		Payload:   mustJSON(payload),
		CreatedAt: time.Now().UTC(),
	}
	if key != "" {
		k := key
		ev.Key = &k
	}
	r.st.outbox = append(r.st.outbox, ev)
	return nil
}

func (r outboxRepo) ClaimBatch(_ context.Context, limit int) ([]shared.OutboxEvent, error) {
	n := min(limit, len(r.st.outbox))
	return slices.Clone(r.st.outbox[:n]), nil
}

func (r outboxRepo) Delete(_ context.Context, ids []int64) (int64, error) {
	before := len(r.st.outbox)
	r.st.outbox = slices.DeleteFunc(r.st.outbox, func(e shared.OutboxEvent) bool {
		return slices.Contains(ids, e.ID)
	})
	return int64(before - len(r.st.outbox)), nil
}
