package shared

import (
	"context"
	"encoding/json"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/fraud"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes repositories bound to one open transaction.
type Tx interface {
	Availability() AvailabilityRepository
	Bookings() BookingRepository
	Assessments() AssessmentRepository
	Outbox() OutboxRepository
}

type AvailabilityRepository interface {
	// LockRange row-locks the days in [from, to) ordered by day.
	LockRange(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]availability.Day, error)
	// DecrementDay returns the number of rows the guarded decrement touched (0 or 1).
	DecrementDay(ctx context.Context, propertyID uuid.UUID, day time.Time) (int64, error)
	IncrementRange(ctx context.Context, propertyID uuid.UUID, from, to time.Time) (int64, error)
	Upsert(ctx context.Context, days []availability.Day) error
}

// ReleaseGuard narrows a status flip to CANCELLED.
type ReleaseGuard struct {
	From          []booking.Status
	ExpiredBefore *time.Time
	Reason        string
	At            time.Time
}

// ReleasedBooking is what a successful release needs to return inventory.
type ReleasedBooking struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	CustomerID uuid.UUID
	Stay       booking.Stay
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// Release returns nil when the guard matched no row.
	Release(ctx context.Context, id uuid.UUID, guard ReleaseGuard) (*ReleasedBooking, error)
	ApproveReview(ctx context.Context, id uuid.UUID, holdExpiresAt, now time.Time) (bool, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paymentRef string, now time.Time) (bool, error)
	ListExpiredCandidates(ctx context.Context, now time.Time, exclude []uuid.UUID, limit int) ([]uuid.UUID, error)
}

type AssessmentRepository interface {
	Upsert(ctx context.Context, a *fraud.Assessment) error
	FindForUpdate(ctx context.Context, bookingID uuid.UUID) (*fraud.Assessment, error)
	SaveDecision(ctx context.Context, a *fraud.Assessment) error
}

type OutboxEvent struct {
	ID        int64
	Topic     string
	Key       *string
	Payload   json.RawMessage
	CreatedAt time.Time
}

type OutboxRepository interface {
	Append(ctx context.Context, topic string, key string, payload any) error
	// ClaimBatch locks up to limit rows, skipping rows held by another relay.
	ClaimBatch(ctx context.Context, limit int) ([]OutboxEvent, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
}
