package repository

import (
	"context"
	"encoding/json"

	"staybook/internal/infra"
	"staybook/internal/infra/db"
	"staybook/internal/pkg/pgconv"
	"staybook/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	appendOutboxSQL = `
INSERT INTO outbox_events (topic, event_key, payload)
VALUES ($1, $2, $3)`

	claimOutboxSQL = `
SELECT id, topic, event_key, payload, created_at
FROM outbox_events
ORDER BY id
LIMIT $1
FOR UPDATE SKIP LOCKED`

	deleteOutboxSQL = `DELETE FROM outbox_events WHERE id = ANY($1::bigint[])`
)

type OutboxRepository struct {
	db db.DBTX
}

func NewOutboxRepository(db db.DBTX) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Append writes the event inside the caller's transaction, so it commits or rolls back with the state change.
func (r *OutboxRepository) Append(ctx context.Context, topic string, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return infra.WrapRepoErr("failed to encode outbox payload", err)
	}

	var eventKey *string
	if key != "" {
		eventKey = &key
	}

	if _, err := r.db.Exec(ctx, appendOutboxSQL, topic, pgconv.StringPtrToPgtype(eventKey), body); err != nil {
		return infra.WrapRepoErr("failed to append outbox event", err)
	}
	return nil
}

func (r *OutboxRepository) ClaimBatch(ctx context.Context, limit int) ([]shared.OutboxEvent, error) {
	rows, err := r.db.Query(ctx, claimOutboxSQL, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim outbox events", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shared.OutboxEvent, error) {
		var (
			ev  shared.OutboxEvent
			key pgtype.Text
		)
		err := row.Scan(&ev.ID, &ev.Topic, &key, &ev.Payload, &ev.CreatedAt)
		ev.Key = pgconv.StringPtrFromPgtype(key)
		return ev, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan outbox events", err)
	}
	return events, nil
}

func (r *OutboxRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, deleteOutboxSQL, ids)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete outbox events", err)
	}
	return tag.RowsAffected(), nil
}
