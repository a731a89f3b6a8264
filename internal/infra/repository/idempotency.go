package repository

import (
	"context"
	"encoding/json"
	"time"

	"staybook/internal/infra"
	"staybook/internal/infra/db"
	"staybook/internal/pkg/pgconv"
	"staybook/internal/usecase/idempotency"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	tryInsertIdempotencySQL = `
INSERT INTO idempotency_keys (id, user_id, endpoint, idem_key, request_hash, status, expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT ON CONSTRAINT idempotency_keys_scope_key DO NOTHING`

	getIdempotencySQL = `
SELECT id, user_id, endpoint, idem_key, request_hash, status, response, resource_id, error_message, expires_at, created_at, updated_at
FROM idempotency_keys
WHERE user_id IS NOT DISTINCT FROM $1 AND endpoint = $2 AND idem_key = $3`

	reclaimIdempotencySQL = `
UPDATE idempotency_keys
SET id = $4, request_hash = $5, status = 'IN_PROGRESS', response = NULL, resource_id = NULL,
    error_message = NULL, expires_at = $6, created_at = $7, updated_at = $7
WHERE user_id IS NOT DISTINCT FROM $1 AND endpoint = $2 AND idem_key = $3 AND expires_at < $7`

	completeIdempotencySQL = `
UPDATE idempotency_keys
SET status = 'COMPLETED', response = $2, resource_id = $3, updated_at = $4
WHERE id = $1 AND status = 'IN_PROGRESS'`

	failIdempotencySQL = `
UPDATE idempotency_keys
SET status = 'FAILED', error_message = $2, updated_at = $3
WHERE id = $1 AND status = 'IN_PROGRESS'`

	deleteExpiredIdempotencySQL = `
DELETE FROM idempotency_keys
WHERE id IN (
    SELECT id FROM idempotency_keys
    WHERE expires_at < $1
    ORDER BY expires_at
    LIMIT $2
    FOR UPDATE SKIP LOCKED
)`
)

// IdempotencyRepository backs the registry directly on the pool, outside business transactions.
type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(db db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) TryInsert(ctx context.Context, rec idempotency.Record) (bool, error) {
	tag, err := r.db.Exec(ctx, tryInsertIdempotencySQL,
		rec.ID,
		pgconv.UUIDPtrToPgtype(rec.Scope.UserID),
		rec.Scope.Endpoint,
		rec.Scope.Key,
		rec.RequestHash,
		string(rec.Status),
		rec.ExpiresAt,
		rec.CreatedAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to try insert idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, scope idempotency.Scope) (*idempotency.Record, error) {
	var (
		rec          idempotency.Record
		userID       pgtype.UUID
		status       string
		response     []byte
		resourceID   pgtype.UUID
		errorMessage pgtype.Text
	)
	err := r.db.QueryRow(ctx, getIdempotencySQL,
		pgconv.UUIDPtrToPgtype(scope.UserID), scope.Endpoint, scope.Key,
	).Scan(
		&rec.ID, &userID, &rec.Scope.Endpoint, &rec.Scope.Key, &rec.RequestHash, &status,
		&response, &resourceID, &errorMessage, &rec.ExpiresAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}

	rec.Scope.UserID = pgconv.UUIDPtrFromPgtype(userID)
	rec.Status = idempotency.Status(status)
	if response != nil {
		rec.Response = json.RawMessage(response)
	}
	rec.ResourceID = pgconv.UUIDPtrFromPgtype(resourceID)
	rec.ErrorMessage = pgconv.StringPtrFromPgtype(errorMessage)
	return &rec, nil
}

func (r *IdempotencyRepository) Reclaim(ctx context.Context, scope idempotency.Scope, newID uuid.UUID, requestHash string, expiresAt, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, reclaimIdempotencySQL,
		pgconv.UUIDPtrToPgtype(scope.UserID), scope.Endpoint, scope.Key,
		newID, requestHash, expiresAt, now,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to reclaim idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, id uuid.UUID, response json.RawMessage, resourceID *uuid.UUID, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, completeIdempotencySQL, id, []byte(response), pgconv.UUIDPtrToPgtype(resourceID), now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to update idempotency key status", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Fail(ctx context.Context, id uuid.UUID, message string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, failIdempotencySQL, id, message, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark idempotency key failed", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredIdempotencySQL, now, limit)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
