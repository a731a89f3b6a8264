package request

import (
	"strings"

	"staybook/internal/usecase/commands"

	"github.com/google/uuid"
)

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
	Note     string `json:"note" binding:"max=1000"`
}

func (r DecisionRequest) ToInput(bookingID, reviewerID uuid.UUID) commands.DecideInput {
	return commands.DecideInput{
		BookingID:  bookingID,
		ReviewerID: reviewerID,
		Decision:   r.Decision,
		Note:       strings.TrimSpace(r.Note),
	}
}
