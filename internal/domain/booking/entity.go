package booking

import (
	"time"

	"staybook/internal/domain/fraud"

	"github.com/google/uuid"
)

// Policy is the hold timing configuration applied when a booking is created.
type Policy struct {
	HoldDuration    time.Duration
	ReviewDuration  time.Duration
	AutoDeclineHigh bool
}

// HoldPlan is the outcome of combining a fraud result with the policy.
type HoldPlan struct {
	Status            Status
	HoldExpiresAt     *time.Time
	ReviewDeadlineAt  *time.Time
	ReservesInventory bool
	NeedsReview       bool
	AutoDeclined      bool
}

func PlanHold(res fraud.Result, policy Policy, now time.Time) HoldPlan {
	if res.IsHigh() && policy.AutoDeclineHigh {
		return HoldPlan{Status: StatusCancelled, AutoDeclined: true}
	}

	if res.NeedsReview() {
		deadline := now.Add(policy.ReviewDuration)
		return HoldPlan{
			Status:            StatusReview,
			HoldExpiresAt:     &deadline,
			ReviewDeadlineAt:  &deadline,
			ReservesInventory: true,
			NeedsReview:       true,
		}
	}

	expires := now.Add(policy.HoldDuration)
	return HoldPlan{
		Status:            StatusHold,
		HoldExpiresAt:     &expires,
		ReservesInventory: true,
	}
}

type Booking struct {
	id               uuid.UUID
	propertyID       uuid.UUID
	customerID       uuid.UUID
	stay             Stay
	status           Status
	holdExpiresAt    *time.Time
	reviewDeadlineAt *time.Time
	totalPrice       int64
	promotionCode    *string
	cancelPolicy     string
	cancelReason     *string
	paymentRef       *string
	paidAt           *time.Time
	cancelledAt      *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

func NewBooking(propertyID, customerID uuid.UUID, stay Stay, totalPrice int64, plan HoldPlan, now time.Time) *Booking {
	b := &Booking{
		id:               uuid.New(),
		propertyID:       propertyID,
		customerID:       customerID,
		stay:             stay,
		status:           plan.Status,
		holdExpiresAt:    plan.HoldExpiresAt,
		reviewDeadlineAt: plan.ReviewDeadlineAt,
		totalPrice:       totalPrice,
		cancelPolicy:     DefaultCancelPolicy,
		createdAt:        now,
		updatedAt:        now,
	}
	if plan.AutoDeclined {
		reason := CancelReasonAutoDeclined
		b.cancelReason = &reason
		b.cancelledAt = &now
	}
	return b
}

func ReconstructBooking(
	id, propertyID, customerID uuid.UUID,
	stay Stay,
	status Status,
	holdExpiresAt, reviewDeadlineAt *time.Time,
	totalPrice int64,
	promotionCode *string,
	cancelPolicy string,
	cancelReason, paymentRef *string,
	paidAt, cancelledAt *time.Time,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:               id,
		propertyID:       propertyID,
		customerID:       customerID,
		stay:             stay,
		status:           status,
		holdExpiresAt:    holdExpiresAt,
		reviewDeadlineAt: reviewDeadlineAt,
		totalPrice:       totalPrice,
		promotionCode:    promotionCode,
		cancelPolicy:     cancelPolicy,
		cancelReason:     cancelReason,
		paymentRef:       paymentRef,
		paidAt:           paidAt,
		cancelledAt:      cancelledAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.customerID == userID
}

func (b *Booking) IsHoldExpired(now time.Time) bool {
	return b.status.IsReleasable() && b.holdExpiresAt != nil && b.holdExpiresAt.Before(now)
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) PropertyID() uuid.UUID        { return b.propertyID }
func (b *Booking) CustomerID() uuid.UUID        { return b.customerID }
func (b *Booking) Stay() Stay                   { return b.stay }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) HoldExpiresAt() *time.Time    { return b.holdExpiresAt }
func (b *Booking) ReviewDeadlineAt() *time.Time { return b.reviewDeadlineAt }
func (b *Booking) TotalPrice() int64            { return b.totalPrice }
func (b *Booking) PromotionCode() *string       { return b.promotionCode }
func (b *Booking) CancelPolicy() string         { return b.cancelPolicy }
func (b *Booking) CancelReason() *string        { return b.cancelReason }
func (b *Booking) PaymentRef() *string          { return b.paymentRef }
func (b *Booking) PaidAt() *time.Time           { return b.paidAt }
func (b *Booking) CancelledAt() *time.Time      { return b.cancelledAt }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
