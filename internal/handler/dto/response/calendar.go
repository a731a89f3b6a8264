package response

import (
	"staybook/internal/usecase/queries"

	"github.com/google/uuid"
)

type AvailabilityDayResponse struct {
	Day       int64 `json:"day"`
	Price     int64 `json:"price"`
	Remaining int   `json:"remaining"`
	Blocked   bool  `json:"blocked"`
}

type AvailabilityResponse struct {
	PropertyID uuid.UUID                  `json:"property_id"`
	Days       []*AvailabilityDayResponse `json:"days"`
}

type CalendarUpsertResponse struct {
	PropertyID uuid.UUID `json:"property_id"`
	Updated    int       `json:"updated"`
}

func FromAvailabilityDays(propertyID uuid.UUID, days []*queries.AvailabilityDayView) (*AvailabilityResponse, error) {
	out := make([]*AvailabilityDayResponse, 0, len(days))
	if err := copyInto(&out, &days); err != nil {
		return nil, err
	}
	return &AvailabilityResponse{PropertyID: propertyID, Days: out}, nil
}
