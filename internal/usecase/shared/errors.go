package shared

import "staybook/internal/pkg/errs"

// Errors shared by the command and query sides.
var (
	ErrBookingNotFound = errs.New("booking not found")
	ErrForbidden       = errs.New("forbidden")
)
