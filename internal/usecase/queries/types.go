package queries

import (
	"time"

	"github.com/google/uuid"
)

type FraudView struct {
	Score      float64    `json:"score"`
	Level      string     `json:"level"`
	Decision   string     `json:"decision"`
	Reasons    []string   `json:"reasons"`
	ReviewerID *uuid.UUID `json:"reviewer_id,omitempty"`
	Note       *string    `json:"note,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

// BookingView is the read-side shape of a booking, with its fraud assessment when one exists.
type BookingView struct {
	ID               uuid.UUID  `json:"id"`
	PropertyID       uuid.UUID  `json:"property_id"`
	CustomerID       uuid.UUID  `json:"customer_id"`
	CheckIn          time.Time  `json:"check_in"`
	CheckOut         time.Time  `json:"check_out"`
	Nights           int        `json:"nights"`
	Status           string     `json:"status"`
	HoldExpiresAt    *time.Time `json:"hold_expires_at,omitempty"`
	ReviewDeadlineAt *time.Time `json:"review_deadline_at,omitempty"`
	TotalPrice       int64      `json:"total_price"`
	PromotionCode    *string    `json:"promotion_code,omitempty"`
	CancelPolicy     string     `json:"cancel_policy"`
	CancelReason     *string    `json:"cancel_reason,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	PaymentRef       *string    `json:"payment_ref,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	Fraud            *FraudView `json:"fraud,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type BookingListItem struct {
	ID            uuid.UUID  `json:"id"`
	PropertyID    uuid.UUID  `json:"property_id"`
	CheckIn       time.Time  `json:"check_in"`
	CheckOut      time.Time  `json:"check_out"`
	Nights        int        `json:"nights"`
	Status        string     `json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	TotalPrice    int64      `json:"total_price"`
	CreatedAt     time.Time  `json:"created_at"`
}

type AvailabilityDayView struct {
	Day       time.Time `json:"day"`
	Price     int64     `json:"price"`
	Remaining int       `json:"remaining"`
	Blocked   bool      `json:"blocked"`
}

type AssessmentView struct {
	BookingID  uuid.UUID  `json:"booking_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Score      float64    `json:"score"`
	Level      string     `json:"level"`
	Decision   string     `json:"decision"`
	Reasons    []string   `json:"reasons"`
	ReviewerID *uuid.UUID `json:"reviewer_id,omitempty"`
	Note       *string    `json:"note,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
