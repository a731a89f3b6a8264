package commands

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
	"staybook/internal/pkg/config"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
)

const MaxCalendarDays = 366

type DayInput struct {
	Date      string
	Price     int64
	Remaining int
	Blocked   bool
}

type CalendarInput struct {
	PropertyID uuid.UUID
	Days       []DayInput
}

type CalendarCommands interface {
	UpsertAvailability(ctx context.Context, in CalendarInput) (int, error)
}

type calendarCommandsImpl struct {
	uow    shared.UnitOfWork
	loc    *time.Location
	logger *slog.Logger
}

func NewCalendarCommands(uow shared.UnitOfWork, cfg config.Config, logger *slog.Logger) (CalendarCommands, error) {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, err
	}
	return &calendarCommandsImpl{
		uow:    uow,
		loc:    loc,
		logger: logger,
	}, nil
}

// UpsertAvailability overwrites price, capacity and block flag for each given day.
// Overwriting remaining while holds exist is the host's call; holds are never touched.
func (u *calendarCommandsImpl) UpsertAvailability(ctx context.Context, in CalendarInput) (int, error) {
	if in.PropertyID == uuid.Nil {
		return 0, errs.Mark(errs.New("property is required"), ErrInvalidInput)
	}
	if len(in.Days) == 0 || len(in.Days) > MaxCalendarDays {
		return 0, errs.Mark(errs.Newf("between 1 and %d days required", MaxCalendarDays), ErrInvalidInput)
	}

	days := make([]availability.Day, 0, len(in.Days))
	for _, d := range in.Days {
		date, err := booking.NormalizeDay(d.Date, u.loc)
		if err != nil {
			return 0, errs.Mark(errs.Wrapf(err, "day %q", d.Date), ErrInvalidInput)
		}
		day, err := availability.NewDay(in.PropertyID, date, d.Price, d.Remaining, d.Blocked)
		if err != nil {
			return 0, errs.Mark(err, ErrInvalidInput)
		}
		days = append(days, day)
	}
	if err := availability.EnsureUniqueDates(days); err != nil {
		return 0, errs.Mark(err, ErrInvalidInput)
	}

	from, to := days[0].Date, days[0].Date
	for _, d := range days[1:] {
		if d.Date.Before(from) {
			from = d.Date
		}
		if d.Date.After(to) {
			to = d.Date
		}
	}

	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Availability().Upsert(ctx, days); err != nil {
			return err
		}
		return tx.Outbox().Append(ctx, TopicAvailabilityUpdated, in.PropertyID.String(), AvailabilityUpdatedEvent{
			PropertyID: in.PropertyID,
			Days:       len(days),
			From:       from,
			To:         to,
		})
	})
	if err != nil {
		return 0, err
	}

	u.logger.Info("availability updated", "property_id", in.PropertyID.String(), "days", len(days))
	return len(days), nil
}
