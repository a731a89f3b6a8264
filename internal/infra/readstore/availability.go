package readstore

import (
	"context"
	"time"

	"staybook/internal/infra"
	"staybook/internal/infra/db"
	"staybook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const availabilityRangeSQL = `
SELECT day, price, remaining, is_blocked
FROM availability_days
WHERE property_id = $1 AND day >= $2 AND day < $3
ORDER BY day`

type AvailabilityReadStore struct {
	db db.DBTX
}

func NewAvailabilityReadStore(db db.DBTX) *AvailabilityReadStore {
	return &AvailabilityReadStore{db: db}
}

func (r *AvailabilityReadStore) FindRange(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*queries.AvailabilityDayView, error) {
	rows, err := r.db.Query(ctx, availabilityRangeSQL, propertyID, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to read availability", err)
	}

	days, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*queries.AvailabilityDayView, error) {
		var d queries.AvailabilityDayView
		err := row.Scan(&d.Day, &d.Price, &d.Remaining, &d.Blocked)
		d.Day = d.Day.UTC()
		return &d, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan availability", err)
	}
	return days, nil
}
