package response

import (
	"staybook/internal/usecase/queries"

	"github.com/google/uuid"
)

type AssessmentResponse struct {
	BookingID  uuid.UUID  `json:"booking_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Score      float64    `json:"score"`
	Level      string     `json:"level"`
	Decision   string     `json:"decision"`
	Reasons    []string   `json:"reasons"`
	ReviewerID *uuid.UUID `json:"reviewer_id,omitempty"`
	Note       *string    `json:"note,omitempty"`
	DecidedAt  *int64     `json:"decided_at,omitempty"`
	CreatedAt  int64      `json:"created_at"`
}

func FromAssessmentView(v *queries.AssessmentView) (*AssessmentResponse, error) {
	res := &AssessmentResponse{}
	if err := copyInto(res, v); err != nil {
		return nil, err
	}
	return res, nil
}
