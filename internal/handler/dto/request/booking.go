package request

import (
	"staybook/internal/usecase/commands"

	"github.com/google/uuid"
)

type HoldRequest struct {
	PropertyID uuid.UUID `json:"property_id" binding:"required"`
	CheckIn    string    `json:"check_in" binding:"required,bizdate"`
	CheckOut   string    `json:"check_out" binding:"required,bizdate"`
}

func (r HoldRequest) ToInput(userID uuid.UUID, idempotencyKey string) commands.HoldInput {
	return commands.HoldInput{
		UserID:         userID,
		PropertyID:     r.PropertyID,
		CheckIn:        r.CheckIn,
		CheckOut:       r.CheckOut,
		IdempotencyKey: idempotencyKey,
	}
}

type ListBookingsQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
}
