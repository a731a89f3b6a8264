package readstore

import (
	"context"
	"time"

	"staybook/internal/infra"
	"staybook/internal/infra/db"
	"staybook/internal/pkg/pgconv"
	"staybook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	bookingViewSQL = `
SELECT b.id, b.property_id, b.customer_id, b.check_in, b.check_out, b.nights, b.status,
       b.hold_expires_at, b.review_deadline_at, b.total_price, b.promotion_code, b.cancel_policy,
       b.cancel_reason, b.cancelled_at, b.payment_ref, b.paid_at, b.created_at, b.updated_at,
       f.score, f.level, f.decision, f.reasons, f.reviewer_id, f.review_note, f.decided_at
FROM bookings b
LEFT JOIN fraud_assessments f ON f.booking_id = b.id
WHERE b.id = $1`

	bookingsFirstPageSQL = `
SELECT id, property_id, check_in, check_out, nights, status, hold_expires_at, total_price, created_at
FROM bookings
WHERE customer_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

	bookingsKeysetSQL = `
SELECT id, property_id, check_in, check_out, nights, status, hold_expires_at, total_price, created_at
FROM bookings
WHERE customer_id = $1 AND (created_at, id) < ($2, $3)
ORDER BY created_at DESC, id DESC
LIMIT $4`
)

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(db db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: db}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var (
		v                              queries.BookingView
		holdExpiresAt, reviewDue       pgtype.Timestamptz
		promotionCode, cancelReason    pgtype.Text
		cancelledAt, paidAt, decidedAt pgtype.Timestamptz
		paymentRef, level, decision    pgtype.Text
		note                           pgtype.Text
		score                          pgtype.Float8
		reasons                        []string
		reviewerID                     pgtype.UUID
	)
	err := r.db.QueryRow(ctx, bookingViewSQL, id).Scan(
		&v.ID, &v.PropertyID, &v.CustomerID, &v.CheckIn, &v.CheckOut, &v.Nights, &v.Status,
		&holdExpiresAt, &reviewDue, &v.TotalPrice, &promotionCode, &v.CancelPolicy,
		&cancelReason, &cancelledAt, &paymentRef, &paidAt, &v.CreatedAt, &v.UpdatedAt,
		&score, &level, &decision, &reasons, &reviewerID, &note, &decidedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}

	v.CheckIn = v.CheckIn.UTC()
	v.CheckOut = v.CheckOut.UTC()
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	v.HoldExpiresAt = pgconv.TimePtrFromPgtype(holdExpiresAt)
	v.ReviewDeadlineAt = pgconv.TimePtrFromPgtype(reviewDue)
	v.PromotionCode = pgconv.StringPtrFromPgtype(promotionCode)
	v.CancelReason = pgconv.StringPtrFromPgtype(cancelReason)
	v.CancelledAt = pgconv.TimePtrFromPgtype(cancelledAt)
	v.PaymentRef = pgconv.StringPtrFromPgtype(paymentRef)
	v.PaidAt = pgconv.TimePtrFromPgtype(paidAt)

	if level.Valid {
		if reasons == nil {
			reasons = []string{}
		}
		v.Fraud = &queries.FraudView{
			Score:      score.Float64,
			Level:      level.String,
			Decision:   decision.String,
			Reasons:    reasons,
			ReviewerID: pgconv.UUIDPtrFromPgtype(reviewerID),
			Note:       pgconv.StringPtrFromPgtype(note),
			DecidedAt:  pgconv.TimePtrFromPgtype(decidedAt),
		}
	}

	return &v, nil
}

func (r *BookingReadStore) FindByCustomer(ctx context.Context, customerID uuid.UUID, afterCreatedAt *time.Time, afterID uuid.UUID, limit int) ([]*queries.BookingListItem, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if afterCreatedAt == nil {
		rows, err = r.db.Query(ctx, bookingsFirstPageSQL, customerID, limit)
	} else {
		rows, err = r.db.Query(ctx, bookingsKeysetSQL, customerID, *afterCreatedAt, afterID, limit)
	}
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*queries.BookingListItem, error) {
		var (
			it            queries.BookingListItem
			holdExpiresAt pgtype.Timestamptz
		)
		err := row.Scan(&it.ID, &it.PropertyID, &it.CheckIn, &it.CheckOut, &it.Nights, &it.Status, &holdExpiresAt, &it.TotalPrice, &it.CreatedAt)
		it.CheckIn = it.CheckIn.UTC()
		it.CheckOut = it.CheckOut.UTC()
		it.CreatedAt = it.CreatedAt.UTC()
		it.HoldExpiresAt = pgconv.TimePtrFromPgtype(holdExpiresAt)
		return &it, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan bookings", err)
	}
	return items, nil
}
