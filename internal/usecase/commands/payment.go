package commands

import (
	"context"
	"log/slog"
	"strings"

	"staybook/internal/domain/booking"
	"staybook/internal/infra"
	"staybook/internal/pkg/clock"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
)

type PaymentInput struct {
	BookingID  uuid.UUID
	PaymentRef string
}

type PaymentCommands interface {
	MarkPaid(ctx context.Context, in PaymentInput) error
}

type paymentCommandsImpl struct {
	uow    shared.UnitOfWork
	clock  clock.Clock
	logger *slog.Logger
}

func NewPaymentCommands(uow shared.UnitOfWork, clock clock.Clock, logger *slog.Logger) PaymentCommands {
	return &paymentCommandsImpl{
		uow:    uow,
		clock:  clock,
		logger: logger,
	}
}

// MarkPaid confirms a live hold. A redelivery of the same payment for an already paid
// booking succeeds without a second event.
func (u *paymentCommandsImpl) MarkPaid(ctx context.Context, in PaymentInput) error {
	ref := strings.TrimSpace(in.PaymentRef)
	if in.BookingID == uuid.Nil || ref == "" {
		return errs.Mark(errs.New("booking and payment reference are required"), ErrInvalidInput)
	}

	var redelivered bool
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		redelivered = false
		now := u.clock.Now()

		ok, err := tx.Bookings().MarkPaid(ctx, in.BookingID, ref, now)
		if err != nil {
			return err
		}
		if !ok {
			b, err := tx.Bookings().FindByID(ctx, in.BookingID)
			if err != nil {
				if infra.IsKind(err, infra.KindNotFound) {
					return ErrBookingNotFound
				}
				return err
			}
			if b.Status() == booking.StatusPaid && b.PaymentRef() != nil && *b.PaymentRef() == ref {
				redelivered = true
				return nil
			}
			return ErrAlreadyProcessed
		}

		return tx.Outbox().Append(ctx, TopicBookingPaid, in.BookingID.String(), BookingPaidEvent{
			BookingID:  in.BookingID,
			PaymentRef: ref,
			PaidAt:     now,
		})
	})
	if err != nil {
		return err
	}

	u.logger.Info("booking paid",
		"booking_id", in.BookingID.String(),
		"payment_ref", ref,
		"redelivered", redelivered)
	return nil
}
