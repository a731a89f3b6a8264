package commands

//go:generate mockgen -destination=../../testutil/mock/commands/commands.go -package=commandsmock staybook/internal/usecase/commands BookingCommands,FraudCommands,PaymentCommands,CalendarCommands,FraudScorer

import (
	"context"
	"time"

	"staybook/internal/domain/fraud"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/idempotency"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput       = errs.New("invalid input")
	ErrNotAvailable       = errs.New("not available")
	ErrInventoryRace      = errs.New("inventory changed concurrently")
	ErrAlreadyProcessed   = errs.New("booking already processed")
	// ErrNotUnderReview means expiry or a cancel settled the booking before the reviewer did.
	ErrNotUnderReview     = errs.Mark(errs.New("booking is not under review"), ErrAlreadyProcessed)
	ErrAssessmentNotFound = errs.New("fraud assessment not found")

	ErrBookingNotFound = shared.ErrBookingNotFound
	ErrForbidden       = shared.ErrForbidden
)

// FraudScorer grades a prospective hold. Implementations honour their own on/off switch.
type FraudScorer interface {
	Assess(ctx context.Context, userID uuid.UUID, amount int64) (fraud.Result, error)
}

type IdempotencyGuard interface {
	Guard(ctx context.Context, scope idempotency.Scope, payload any, ttl time.Duration, fn idempotency.GuardedFunc) (idempotency.Result, error)
}
