package repository

import (
	"context"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/infra"
	"staybook/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	lockDaysSQL = `
SELECT property_id, day, price, remaining, is_blocked
FROM availability_days
WHERE property_id = $1 AND day >= $2 AND day < $3
ORDER BY day
FOR UPDATE`

	decrementDaySQL = `
UPDATE availability_days
SET remaining = remaining - 1, updated_at = now()
WHERE property_id = $1 AND day = $2 AND remaining > 0 AND NOT is_blocked`

	incrementRangeSQL = `
UPDATE availability_days
SET remaining = remaining + 1, updated_at = now()
WHERE property_id = $1 AND day >= $2 AND day < $3`

	upsertDaySQL = `
INSERT INTO availability_days (property_id, day, price, remaining, is_blocked)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (property_id, day) DO UPDATE
SET price = EXCLUDED.price,
    remaining = EXCLUDED.remaining,
    is_blocked = EXCLUDED.is_blocked,
    updated_at = now()`
)

type AvailabilityRepository struct {
	db db.DBTX
}

func NewAvailabilityRepository(db db.DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) LockRange(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]availability.Day, error) {
	rows, err := r.db.Query(ctx, lockDaysSQL, propertyID, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock availability days", err)
	}

	days, err := pgx.CollectRows(rows, scanDay)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan availability days", err)
	}
	return days, nil
}

func (r *AvailabilityRepository) DecrementDay(ctx context.Context, propertyID uuid.UUID, day time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, decrementDaySQL, propertyID, day)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to decrement availability", err)
	}
	return tag.RowsAffected(), nil
}

func (r *AvailabilityRepository) IncrementRange(ctx context.Context, propertyID uuid.UUID, from, to time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, incrementRangeSQL, propertyID, from, to)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to release availability", err)
	}
	return tag.RowsAffected(), nil
}

func (r *AvailabilityRepository) Upsert(ctx context.Context, days []availability.Day) error {
	if len(days) == 0 {
		return nil
	}

	for _, d := range days {
		if _, err := r.db.Exec(ctx, upsertDaySQL, d.PropertyID, d.Date, d.Price, d.Remaining, d.Blocked); err != nil {
			return infra.WrapRepoErr("failed to upsert availability day", err)
		}
	}
	return nil
}

func scanDay(row pgx.CollectableRow) (availability.Day, error) {
	var d availability.Day
	err := row.Scan(&d.PropertyID, &d.Date, &d.Price, &d.Remaining, &d.Blocked)
	d.Date = d.Date.UTC()
	return d, err
}
