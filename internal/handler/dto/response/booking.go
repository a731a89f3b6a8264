package response

import (
	"staybook/internal/domain/fraud"
	"staybook/internal/usecase/commands"
	"staybook/internal/usecase/queries"

	"github.com/google/uuid"
)

type FraudResponse struct {
	Score      float64    `json:"score"`
	Level      string     `json:"level"`
	Decision   string     `json:"decision,omitempty"`
	Reasons    []string   `json:"reasons"`
	ReviewerID *uuid.UUID `json:"reviewer_id,omitempty"`
	Note       *string    `json:"note,omitempty"`
	DecidedAt  *int64     `json:"decided_at,omitempty"`
}

type HoldResponse struct {
	ID            uuid.UUID     `json:"id"`
	Status        string        `json:"status"`
	TotalPrice    int64         `json:"total_price"`
	HoldExpiresAt *int64        `json:"hold_expires_at"`
	Fraud         FraudResponse `json:"fraud" copier:"-"`
}

type BookingResponse struct {
	ID               uuid.UUID      `json:"id"`
	PropertyID       uuid.UUID      `json:"property_id"`
	CustomerID       uuid.UUID      `json:"customer_id"`
	CheckIn          int64          `json:"check_in"`
	CheckOut         int64          `json:"check_out"`
	Nights           int            `json:"nights"`
	Status           string         `json:"status"`
	HoldExpiresAt    *int64         `json:"hold_expires_at,omitempty"`
	ReviewDeadlineAt *int64         `json:"review_deadline_at,omitempty"`
	TotalPrice       int64          `json:"total_price"`
	PromotionCode    *string        `json:"promotion_code,omitempty"`
	CancelPolicy     string         `json:"cancel_policy"`
	CancelReason     *string        `json:"cancel_reason,omitempty"`
	CancelledAt      *int64         `json:"cancelled_at,omitempty"`
	PaymentRef       *string        `json:"payment_ref,omitempty"`
	PaidAt           *int64         `json:"paid_at,omitempty"`
	Fraud            *FraudResponse `json:"fraud,omitempty" copier:"-"`
	CreatedAt        int64          `json:"created_at"`
	UpdatedAt        int64          `json:"updated_at"`
}

type BookingListItemResponse struct {
	ID            uuid.UUID `json:"id"`
	PropertyID    uuid.UUID `json:"property_id"`
	CheckIn       int64     `json:"check_in"`
	CheckOut      int64     `json:"check_out"`
	Nights        int       `json:"nights"`
	Status        string    `json:"status"`
	HoldExpiresAt *int64    `json:"hold_expires_at,omitempty"`
	TotalPrice    int64     `json:"total_price"`
	CreatedAt     int64     `json:"created_at"`
}

type BookingListResponse struct {
	Items      []*BookingListItemResponse `json:"items"`
	NextCursor *string                    `json:"next_cursor"`
}

func FromHoldSnapshot(s commands.HoldSnapshot) (*HoldResponse, error) {
	res := &HoldResponse{}
	if err := copyInto(res, &s); err != nil {
		return nil, err
	}
	res.Fraud = fromResult(s.Fraud)
	return res, nil
}

func fromResult(r fraud.Result) FraudResponse {
	reasons := r.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return FraudResponse{
		Score:   r.Score,
		Level:   string(r.Level),
		Reasons: reasons,
	}
}

func FromBookingView(v *queries.BookingView) (*BookingResponse, error) {
	res := &BookingResponse{}
	if err := copyInto(res, v); err != nil {
		return nil, err
	}
	if v.Fraud != nil {
		fr := &FraudResponse{}
		if err := copyInto(fr, v.Fraud); err != nil {
			return nil, err
		}
		res.Fraud = fr
	}
	return res, nil
}

func FromBookingList(items []*queries.BookingListItem, next *queries.Cursor) (*BookingListResponse, error) {
	out := make([]*BookingListItemResponse, 0, len(items))
	if err := copyInto(&out, &items); err != nil {
		return nil, err
	}
	res := &BookingListResponse{Items: out}
	if next != nil {
		res.NextCursor = &next.After
	}
	return res, nil
}
