package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/fraud"
	"staybook/internal/infra"
	"staybook/internal/pkg/clock"
	"staybook/internal/pkg/config"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/idempotency"
	"staybook/internal/usecase/queries"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const HoldEndpoint = "POST /bookings/hold"

var tracer = otel.Tracer("staybook/usecase/commands")

type HoldInput struct {
	UserID         uuid.UUID
	PropertyID     uuid.UUID
	CheckIn        string
	CheckOut       string
	IdempotencyKey string
}

// HoldSnapshot is the response stored for idempotent replay.
type HoldSnapshot struct {
	ID            uuid.UUID    `json:"id"`
	Status        string       `json:"status"`
	TotalPrice    int64        `json:"total_price"`
	HoldExpiresAt *time.Time   `json:"hold_expires_at"`
	Fraud         fraud.Result `json:"fraud"`
}

type HoldResult struct {
	Snapshot   HoldSnapshot
	IsReplayed bool
}

type ExpireResult struct {
	Scanned int
	Expired int
	Failed  int
}

type BookingCommands interface {
	Hold(ctx context.Context, in HoldInput) (*HoldResult, error)
	CancelHold(ctx context.Context, userID, bookingID uuid.UUID) (*queries.BookingView, error)
	ExpireHolds(ctx context.Context, now time.Time) (ExpireResult, error)
}

// holdPayload is what makes two hold requests "the same request".
type holdPayload struct {
	UserID     string `json:"userId"`
	PropertyID string `json:"propertyId"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
}

type bookingCommandsImpl struct {
	uow         shared.UnitOfWork
	idempotency IdempotencyGuard
	scorer      FraudScorer
	reads       queries.BookingQueries
	clock       clock.Clock
	logger      *slog.Logger

	loc            *time.Location
	policy         booking.Policy
	maxNights      int
	idemBuffer     time.Duration
	expirePageSize int
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	idempotency IdempotencyGuard,
	scorer FraudScorer,
	reads queries.BookingQueries,
	clock clock.Clock,
	cfg config.Config,
	logger *slog.Logger,
) (BookingCommands, error) {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, err
	}

	pageSize := cfg.Booking.ExpirePageSize
	if pageSize <= 0 {
		pageSize = 200
	}

	return &bookingCommandsImpl{
		uow:         uow,
		idempotency: idempotency,
		scorer:      scorer,
		reads:       reads,
		clock:       clock,
		logger:      logger,
		loc:         loc,
		policy: booking.Policy{
			HoldDuration:    cfg.Booking.HoldDuration(),
			ReviewDuration:  cfg.Booking.ReviewHoldDuration(),
			AutoDeclineHigh: cfg.Booking.AutoDeclineHigh,
		},
		maxNights:      cfg.Booking.MaxNights,
		idemBuffer:     cfg.Booking.IdempotencyBuffer,
		expirePageSize: pageSize,
	}, nil
}

func (u *bookingCommandsImpl) Hold(ctx context.Context, in HoldInput) (result *HoldResult, err error) {
	ctx, span := tracer.Start(ctx, "booking.Hold", trace.WithAttributes(
		attribute.String("property.id", in.PropertyID.String()),
	))
	defer func() { endSpan(span, err) }()

	if in.UserID == uuid.Nil || in.PropertyID == uuid.Nil {
		return nil, errs.Mark(errs.New("user and property are required"), ErrInvalidInput)
	}

	stay, err := booking.NewStay(in.CheckIn, in.CheckOut, u.loc, u.maxNights)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidInput)
	}

	scope := idempotency.Scope{
		UserID:   &in.UserID,
		Endpoint: HoldEndpoint,
		Key:      in.IdempotencyKey,
	}
	payload := holdPayload{
		UserID:     in.UserID.String(),
		PropertyID: in.PropertyID.String(),
		CheckIn:    stay.CheckIn().Format(time.RFC3339),
		CheckOut:   stay.CheckOut().Format(time.RFC3339),
	}
	ttl := u.policy.HoldDuration + u.idemBuffer

	res, err := u.idempotency.Guard(ctx, scope, payload, ttl, func(ctx context.Context) (any, *uuid.UUID, error) {
		snap, err := u.holdInTx(ctx, in.UserID, in.PropertyID, stay)
		if err != nil {
			return nil, nil, err
		}
		return snap, &snap.ID, nil
	})
	if err != nil {
		return nil, err
	}

	var snap HoldSnapshot
	if err := json.Unmarshal(res.Response, &snap); err != nil {
		return nil, errs.Wrap(err, "failed to decode hold snapshot")
	}

	span.SetAttributes(
		attribute.String("booking.id", snap.ID.String()),
		attribute.String("booking.status", snap.Status),
		attribute.Bool("idempotent.replayed", res.Replayed),
	)
	return &HoldResult{Snapshot: snap, IsReplayed: res.Replayed}, nil
}

func (u *bookingCommandsImpl) holdInTx(ctx context.Context, userID, propertyID uuid.UUID, stay booking.Stay) (*HoldSnapshot, error) {
	var snap *HoldSnapshot

	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		days, err := tx.Availability().LockRange(ctx, propertyID, stay.CheckIn(), stay.CheckOut())
		if err != nil {
			return err
		}
		if err := availability.CheckWindow(days, stay.Nights()); err != nil {
			return ErrNotAvailable
		}

		total := availability.TotalPrice(days)

		assessed, err := u.scorer.Assess(ctx, userID, total)
		if err != nil {
			return errs.Wrap(err, "fraud assessment failed")
		}

		now := u.clock.Now()
		plan := booking.PlanHold(assessed, u.policy, now)

		if plan.ReservesInventory {
			for _, d := range days {
				n, err := tx.Availability().DecrementDay(ctx, propertyID, d.Date)
				if err != nil {
					return err
				}
				if n != 1 {
					return ErrInventoryRace
				}
			}
		}

		b := booking.NewBooking(propertyID, userID, stay, total, plan, now)
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}

		if err := u.recordHoldOutcome(ctx, tx, b, plan, assessed, now); err != nil {
			return err
		}

		snap = &HoldSnapshot{
			ID:            b.ID(),
			Status:        b.Status().String(),
			TotalPrice:    b.TotalPrice(),
			HoldExpiresAt: b.HoldExpiresAt(),
			Fraud:         assessed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("booking hold placed",
		"booking_id", snap.ID.String(),
		"status", snap.Status,
		"total_price", snap.TotalPrice)
	return snap, nil
}

func (u *bookingCommandsImpl) recordHoldOutcome(ctx context.Context, tx shared.Tx, b *booking.Booking, plan booking.HoldPlan, assessed fraud.Result, now time.Time) error {
	key := b.ID().String()

	if plan.AutoDeclined {
		if err := tx.Assessments().Upsert(ctx, fraud.NewDeclinedAssessment(b.ID(), b.CustomerID(), assessed, now)); err != nil {
			return err
		}
		return tx.Outbox().Append(ctx, TopicBookingAutoDeclined, key, AutoDeclinedEvent{
			BookingID:  b.ID(),
			PropertyID: b.PropertyID(),
			UserID:     b.CustomerID(),
			Level:      string(assessed.Level),
			Score:      assessed.Score,
			Reasons:    assessed.Reasons,
		})
	}

	if plan.NeedsReview {
		if err := tx.Assessments().Upsert(ctx, fraud.NewPendingAssessment(b.ID(), b.CustomerID(), assessed, now)); err != nil {
			return err
		}
	}

	stay := b.Stay()
	err := tx.Outbox().Append(ctx, TopicBookingHeld, key, BookingHeldEvent{
		BookingID:     b.ID(),
		PropertyID:    b.PropertyID(),
		UserID:        b.CustomerID(),
		CheckIn:       stay.CheckIn(),
		CheckOut:      stay.CheckOut(),
		Nights:        stay.Nights(),
		Status:        b.Status().String(),
		TotalPrice:    b.TotalPrice(),
		HoldExpiresAt: b.HoldExpiresAt(),
	})
	if err != nil {
		return err
	}

	if !plan.NeedsReview {
		return nil
	}
	return tx.Outbox().Append(ctx, TopicBookingReviewPending, key, ReviewPendingEvent{
		BookingID:        b.ID(),
		UserID:           b.CustomerID(),
		Level:            string(assessed.Level),
		Score:            assessed.Score,
		Reasons:          assessed.Reasons,
		ReviewDeadlineAt: b.ReviewDeadlineAt(),
	})
}

func (u *bookingCommandsImpl) CancelHold(ctx context.Context, userID, bookingID uuid.UUID) (view *queries.BookingView, err error) {
	ctx, span := tracer.Start(ctx, "booking.CancelHold", trace.WithAttributes(
		attribute.String("booking.id", bookingID.String()),
	))
	defer func() { endSpan(span, err) }()

	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if !b.IsOwnedBy(userID) {
			return ErrForbidden
		}

		now := u.clock.Now()
		released, err := tx.Bookings().Release(ctx, bookingID, shared.ReleaseGuard{
			From:   booking.ReleasableStatuses,
			Reason: booking.CancelReasonUser,
			At:     now,
		})
		if err != nil {
			return err
		}
		if released == nil {
			return ErrAlreadyProcessed
		}

		return releaseNights(ctx, tx, u.logger, released, booking.CancelReasonUser, TopicBookingCancelled, now)
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("booking hold cancelled", "booking_id", bookingID.String(), "user_id", userID.String())

	// Read-after-write: the view carries the committed state
	return u.reads.GetByID(ctx, queries.Actor{ID: userID}, bookingID)
}

// ExpireHolds pages through overdue holds and releases each in its own transaction,
// so one slow or failing row never holds locks for the rest.
func (u *bookingCommandsImpl) ExpireHolds(ctx context.Context, now time.Time) (result ExpireResult, err error) {
	ctx, span := tracer.Start(ctx, "booking.ExpireHolds")
	defer func() {
		span.SetAttributes(
			attribute.Int("expire.scanned", result.Scanned),
			attribute.Int("expire.expired", result.Expired),
			attribute.Int("expire.failed", result.Failed),
		)
		endSpan(span, err)
	}()

	// released rows leave the candidate set by themselves; only the rest are skipped
	var skipped []uuid.UUID

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var page []uuid.UUID
		err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			var err error
			page, err = tx.Bookings().ListExpiredCandidates(ctx, now, skipped, u.expirePageSize)
			return err
		})
		if err != nil {
			return result, errs.Wrap(err, "failed to list expired holds")
		}
		if len(page) == 0 {
			return result, nil
		}

		for _, id := range page {
			result.Scanned++

			expired, err := u.expireOne(ctx, id, now)
			switch {
			case err != nil:
				result.Failed++
				skipped = append(skipped, id)
				u.logger.Error("failed to expire hold", "booking_id", id.String(), "error", err.Error())
			case expired:
				result.Expired++
			default:
				skipped = append(skipped, id)
			}
		}
	}
}

func (u *bookingCommandsImpl) expireOne(ctx context.Context, bookingID uuid.UUID, now time.Time) (bool, error) {
	var expired bool
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		expired = false
		released, err := tx.Bookings().Release(ctx, bookingID, shared.ReleaseGuard{
			From:          booking.ReleasableStatuses,
			ExpiredBefore: &now,
			Reason:        booking.CancelReasonExpired,
			At:            now,
		})
		if err != nil {
			return err
		}
		if released == nil {
			// someone else released or paid it first
			return nil
		}
		expired = true
		return releaseNights(ctx, tx, u.logger, released, booking.CancelReasonExpired, TopicBookingExpired, now)
	})
	return expired, err
}

// releaseNights gives one unit back per night and announces the release.
func releaseNights(ctx context.Context, tx shared.Tx, logger *slog.Logger, released *shared.ReleasedBooking, reason, topic string, now time.Time) error {
	stay := released.Stay
	n, err := tx.Availability().IncrementRange(ctx, released.PropertyID, stay.CheckIn(), stay.CheckOut())
	if err != nil {
		return err
	}
	if n != int64(stay.Nights()) {
		logger.Warn("released nights do not match availability rows",
			"booking_id", released.ID.String(),
			"nights", stay.Nights(),
			"rows", n)
	}

	return tx.Outbox().Append(ctx, topic, released.ID.String(), ReleasedEvent{
		BookingID:  released.ID,
		PropertyID: released.PropertyID,
		UserID:     released.CustomerID,
		CheckIn:    stay.CheckIn(),
		CheckOut:   stay.CheckOut(),
		Nights:     stay.Nights(),
		Reason:     reason,
		At:         now,
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
