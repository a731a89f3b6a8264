package request

import (
	"strings"

	"staybook/internal/usecase/commands"

	"github.com/google/uuid"
)

type PaymentWebhookRequest struct {
	BookingID  uuid.UUID `json:"booking_id" binding:"required"`
	PaymentRef string    `json:"payment_ref" binding:"required,max=255"`
}

func (r PaymentWebhookRequest) ToInput() commands.PaymentInput {
	return commands.PaymentInput{
		BookingID:  r.BookingID,
		PaymentRef: strings.TrimSpace(r.PaymentRef),
	}
}
