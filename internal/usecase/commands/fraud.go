package commands

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/fraud"
	"staybook/internal/infra"
	"staybook/internal/pkg/clock"
	"staybook/internal/pkg/config"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/queries"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type DecideInput struct {
	BookingID  uuid.UUID
	ReviewerID uuid.UUID
	Decision   string
	Note       string
}

type FraudCommands interface {
	Decide(ctx context.Context, in DecideInput) (*queries.AssessmentView, error)
}

type fraudCommandsImpl struct {
	uow          shared.UnitOfWork
	clock        clock.Clock
	holdDuration time.Duration
	logger       *slog.Logger
}

func NewFraudCommands(uow shared.UnitOfWork, clock clock.Clock, cfg config.Config, logger *slog.Logger) FraudCommands {
	return &fraudCommandsImpl{
		uow:          uow,
		clock:        clock,
		holdDuration: cfg.Booking.HoldDuration(),
		logger:       logger,
	}
}

// Decide is a no-op returning the stored assessment when it was already decided.
func (u *fraudCommandsImpl) Decide(ctx context.Context, in DecideInput) (view *queries.AssessmentView, err error) {
	ctx, span := tracer.Start(ctx, "fraud.Decide", trace.WithAttributes(
		attribute.String("booking.id", in.BookingID.String()),
		attribute.String("fraud.decision", in.Decision),
	))
	defer func() { endSpan(span, err) }()

	verdict, err := fraud.ParseVerdict(in.Decision)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidInput)
	}
	if in.BookingID == uuid.Nil || in.ReviewerID == uuid.Nil {
		return nil, errs.Mark(errs.New("booking and reviewer are required"), ErrInvalidInput)
	}

	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		a, err := tx.Assessments().FindForUpdate(ctx, in.BookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrAssessmentNotFound
			}
			return err
		}
		if !a.IsPending() {
			view = toAssessmentView(a)
			return nil
		}

		b, err := tx.Bookings().FindByID(ctx, in.BookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if b.Status() != booking.StatusReview {
			return ErrNotUnderReview
		}

		now := u.clock.Now()
		if err := a.Decide(verdict, in.ReviewerID, in.Note, now); err != nil {
			return errs.Mark(err, ErrInvalidInput)
		}
		if err := tx.Assessments().SaveDecision(ctx, a); err != nil {
			return err
		}

		switch verdict {
		case fraud.DecisionApproved:
			err = u.approve(ctx, tx, in, now)
		case fraud.DecisionRejected:
			err = u.reject(ctx, tx, in.BookingID, now)
		}
		if err != nil {
			return err
		}

		view = toAssessmentView(a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("fraud review decided",
		"booking_id", in.BookingID.String(),
		"reviewer_id", in.ReviewerID.String(),
		"decision", view.Decision)
	return view, nil
}

func (u *fraudCommandsImpl) approve(ctx context.Context, tx shared.Tx, in DecideInput, now time.Time) error {
	holdExpiresAt := now.Add(u.holdDuration)
	ok, err := tx.Bookings().ApproveReview(ctx, in.BookingID, holdExpiresAt, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyProcessed
	}

	return tx.Outbox().Append(ctx, TopicReviewApproved, in.BookingID.String(), ReviewApprovedEvent{
		BookingID:     in.BookingID,
		ReviewerID:    in.ReviewerID,
		HoldExpiresAt: holdExpiresAt,
	})
}

func (u *fraudCommandsImpl) reject(ctx context.Context, tx shared.Tx, bookingID uuid.UUID, now time.Time) error {
	released, err := tx.Bookings().Release(ctx, bookingID, shared.ReleaseGuard{
		From:   []booking.Status{booking.StatusReview},
		Reason: booking.CancelReasonReview,
		At:     now,
	})
	if err != nil {
		return err
	}
	if released == nil {
		return ErrAlreadyProcessed
	}
	return releaseNights(ctx, tx, u.logger, released, booking.CancelReasonReview, TopicReviewRejected, now)
}

func toAssessmentView(a *fraud.Assessment) *queries.AssessmentView {
	return &queries.AssessmentView{
		BookingID:  a.BookingID(),
		UserID:     a.UserID(),
		Score:      a.Score(),
		Level:      string(a.Level()),
		Decision:   string(a.Decision()),
		Reasons:    a.Reasons(),
		ReviewerID: a.ReviewerID(),
		Note:       a.Note(),
		DecidedAt:  a.DecidedAt(),
		CreatedAt:  a.CreatedAt(),
	}
}
