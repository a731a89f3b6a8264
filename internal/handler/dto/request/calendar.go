package request

import (
	"staybook/internal/usecase/commands"

	"github.com/google/uuid"
)

type AvailabilityQuery struct {
	From string `form:"from" binding:"required,bizdate"`
	To   string `form:"to" binding:"required,bizdate"`
}

type CalendarDayRequest struct {
	Date      string `json:"date" binding:"required,bizdate"`
	Price     int64  `json:"price" binding:"min=0"`
	Remaining int    `json:"remaining" binding:"min=0"`
	Blocked   bool   `json:"blocked"`
}

type UpsertCalendarRequest struct {
	Days []CalendarDayRequest `json:"days" binding:"required,min=1,max=366,dive"`
}

func (r UpsertCalendarRequest) ToInput(propertyID uuid.UUID) commands.CalendarInput {
	days := make([]commands.DayInput, len(r.Days))
	for i, d := range r.Days {
		days[i] = commands.DayInput{
			Date:      d.Date,
			Price:     d.Price,
			Remaining: d.Remaining,
			Blocked:   d.Blocked,
		}
	}
	return commands.CalendarInput{PropertyID: propertyID, Days: days}
}
