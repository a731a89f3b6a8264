package repository

import (
	"context"
	"time"

	"staybook/internal/domain/booking"
	"staybook/internal/infra"
	"staybook/internal/infra/db"
	"staybook/internal/pkg/pgconv"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingColumns = `id, property_id, customer_id, check_in, check_out, nights, status,
hold_expires_at, review_deadline_at, total_price, promotion_code, cancel_policy,
cancel_reason, payment_ref, paid_at, cancelled_at, created_at, updated_at`

const (
	insertBookingSQL = `
INSERT INTO bookings (` + bookingColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	findBookingSQL = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	releaseBookingSQL = `
UPDATE bookings
SET status = 'CANCELLED', cancelled_at = $3, cancel_reason = $4, updated_at = $3
WHERE id = $1
  AND status = ANY($2::text[])
  AND ($5::timestamptz IS NULL OR hold_expires_at < $5)
RETURNING property_id, customer_id, check_in, check_out, nights`

	approveReviewSQL = `
UPDATE bookings
SET status = 'HOLD', hold_expires_at = $2, review_deadline_at = NULL, updated_at = $3
WHERE id = $1 AND status = 'REVIEW'`

	markPaidSQL = `
UPDATE bookings
SET status = 'PAID', payment_ref = $2, paid_at = $3, updated_at = $3
WHERE id = $1 AND status = 'HOLD' AND hold_expires_at >= $3`

	expiredCandidatesSQL = `
SELECT id
FROM bookings
WHERE status IN ('HOLD', 'REVIEW')
  AND hold_expires_at < $1
  AND NOT (id = ANY($2::uuid[]))
ORDER BY hold_expires_at
LIMIT $3`
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(db db.DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	stay := b.Stay()
	_, err := r.db.Exec(ctx, insertBookingSQL,
		b.ID(),
		b.PropertyID(),
		b.CustomerID(),
		stay.CheckIn(),
		stay.CheckOut(),
		stay.Nights(),
		b.Status().String(),
		pgconv.TimePtrToPgtype(b.HoldExpiresAt()),
		pgconv.TimePtrToPgtype(b.ReviewDeadlineAt()),
		b.TotalPrice(),
		pgconv.StringPtrToPgtype(b.PromotionCode()),
		b.CancelPolicy(),
		pgconv.StringPtrToPgtype(b.CancelReason()),
		pgconv.StringPtrToPgtype(b.PaymentRef()),
		pgconv.TimePtrToPgtype(b.PaidAt()),
		pgconv.TimePtrToPgtype(b.CancelledAt()),
		b.CreatedAt(),
		b.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := ScanBooking(r.db.QueryRow(ctx, findBookingSQL, id))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return b, nil
}

func (r *BookingRepository) Release(ctx context.Context, id uuid.UUID, guard shared.ReleaseGuard) (*shared.ReleasedBooking, error) {
	var (
		propertyID, customerID uuid.UUID
		checkIn, checkOut      time.Time
		nights                 int
	)
	err := r.db.QueryRow(ctx, releaseBookingSQL,
		id,
		booking.StatusStrings(guard.From),
		guard.At,
		guard.Reason,
		pgconv.TimePtrToPgtype(guard.ExpiredBefore),
	).Scan(&propertyID, &customerID, &checkIn, &checkOut, &nights)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to release booking", err)
	}

	return &shared.ReleasedBooking{
		ID:         id,
		PropertyID: propertyID,
		CustomerID: customerID,
		Stay:       booking.ReconstructStay(checkIn, checkOut, nights),
	}, nil
}

func (r *BookingRepository) ApproveReview(ctx context.Context, id uuid.UUID, holdExpiresAt, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, approveReviewSQL, id, holdExpiresAt, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to approve booking review", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *BookingRepository) MarkPaid(ctx context.Context, id uuid.UUID, paymentRef string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, markPaidSQL, id, paymentRef, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark booking paid", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *BookingRepository) ListExpiredCandidates(ctx context.Context, now time.Time, exclude []uuid.UUID, limit int) ([]uuid.UUID, error) {
	if exclude == nil {
		exclude = []uuid.UUID{}
	}
	rows, err := r.db.Query(ctx, expiredCandidatesSQL, now, exclude, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list expired holds", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan expired holds", err)
	}
	return ids, nil
}

// ScanBooking reads one row selected with bookingColumns.
func ScanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, propertyID, customerID uuid.UUID
		checkIn, checkOut          time.Time
		nights                     int
		status                     string
		holdExpiresAt, reviewDue   pgtype.Timestamptz
		totalPrice                 int64
		promotionCode              pgtype.Text
		cancelPolicy               string
		cancelReason, paymentRef   pgtype.Text
		paidAt, cancelledAt        pgtype.Timestamptz
		createdAt, updatedAt       time.Time
	)
	err := row.Scan(
		&id, &propertyID, &customerID, &checkIn, &checkOut, &nights, &status,
		&holdExpiresAt, &reviewDue, &totalPrice, &promotionCode, &cancelPolicy,
		&cancelReason, &paymentRef, &paidAt, &cancelledAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructBooking(
		id, propertyID, customerID,
		booking.ReconstructStay(checkIn, checkOut, nights),
		booking.Status(status),
		pgconv.TimePtrFromPgtype(holdExpiresAt),
		pgconv.TimePtrFromPgtype(reviewDue),
		totalPrice,
		pgconv.StringPtrFromPgtype(promotionCode),
		cancelPolicy,
		pgconv.StringPtrFromPgtype(cancelReason),
		pgconv.StringPtrFromPgtype(paymentRef),
		pgconv.TimePtrFromPgtype(paidAt),
		pgconv.TimePtrFromPgtype(cancelledAt),
		createdAt.UTC(),
		updatedAt.UTC(),
	), nil
}
