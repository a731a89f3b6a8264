package commands

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicBookingHeld          = "booking.held"
	TopicBookingReviewPending = "booking.review_pending"
	TopicReviewApproved       = "booking.review_approved"
	TopicReviewRejected       = "booking.review_rejected"
	TopicBookingAutoDeclined  = "booking.auto_declined"
	TopicBookingCancelled     = "booking.cancelled"
	TopicBookingExpired       = "booking.expired"
	TopicBookingPaid          = "booking.paid"
	TopicAvailabilityUpdated  = "availability.updated"
)

type BookingHeldEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	PropertyID    uuid.UUID  `json:"property_id"`
	UserID        uuid.UUID  `json:"user_id"`
	CheckIn       time.Time  `json:"check_in"`
	CheckOut      time.Time  `json:"check_out"`
	Nights        int        `json:"nights"`
	Status        string     `json:"status"`
	TotalPrice    int64      `json:"total_price"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

type ReviewPendingEvent struct {
	BookingID        uuid.UUID  `json:"booking_id"`
	UserID           uuid.UUID  `json:"user_id"`
	Level            string     `json:"level"`
	Score            float64    `json:"score"`
	Reasons          []string   `json:"reasons"`
	ReviewDeadlineAt *time.Time `json:"review_deadline_at,omitempty"`
}

type AutoDeclinedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID uuid.UUID `json:"property_id"`
	UserID     uuid.UUID `json:"user_id"`
	Level      string    `json:"level"`
	Score      float64   `json:"score"`
	Reasons    []string  `json:"reasons"`
}

// ReleasedEvent announces that a booking gave its nights back to inventory.
type ReleasedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID uuid.UUID `json:"property_id"`
	UserID     uuid.UUID `json:"user_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Nights     int       `json:"nights"`
	Reason     string    `json:"reason"`
	At         time.Time `json:"at"`
}

type ReviewApprovedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	ReviewerID    uuid.UUID `json:"reviewer_id"`
	HoldExpiresAt time.Time `json:"hold_expires_at"`
}

type BookingPaidEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PaymentRef string    `json:"payment_ref"`
	PaidAt     time.Time `json:"paid_at"`
}

type AvailabilityUpdatedEvent struct {
	PropertyID uuid.UUID `json:"property_id"`
	Days       int       `json:"days"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
}
