package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"staybook/internal/pkg/clock"
	"staybook/internal/pkg/errs"

	"github.com/google/uuid"
)

// a row can vanish (GC) or be reclaimed by someone else between insert and read
const maxBeginAttempts = 3

type Registry struct {
	store  Store
	clock  clock.Clock
	logger *slog.Logger
}

func NewRegistry(store Store, clock clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

func NormalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrKeyRequired
	}
	if len(key) < MinKeyLength {
		return "", ErrKeyTooShort
	}
	return key, nil
}

func (r *Registry) BeginOrReuse(ctx context.Context, scope Scope, payload any, ttl time.Duration) (Outcome, error) {
	key, err := NormalizeKey(scope.Key)
	if err != nil {
		return Outcome{}, err
	}
	scope.Key = key

	hash, err := RequestHash(payload)
	if err != nil {
		return Outcome{}, err
	}

	for attempt := 0; attempt < maxBeginAttempts; attempt++ {
		now := r.clock.Now()
		rec := Record{
			ID:          uuid.New(),
			Scope:       scope,
			RequestHash: hash,
			Status:      StatusInProgress,
			ExpiresAt:   now.Add(ttl),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		inserted, err := r.store.TryInsert(ctx, rec)
		if err != nil {
			return Outcome{}, errs.Wrap(err, "failed to register idempotency key")
		}
		if inserted {
			return Outcome{Kind: Proceed, Token: rec.ID}, nil
		}

		existing, err := r.store.Get(ctx, scope)
		if err != nil {
			return Outcome{}, errs.Wrap(err, "failed to read idempotency key")
		}
		if existing == nil {
			continue
		}

		if existing.ExpiresAt.Before(now) {
			newID := uuid.New()
			won, err := r.store.Reclaim(ctx, scope, newID, hash, now.Add(ttl), now)
			if err != nil {
				return Outcome{}, errs.Wrap(err, "failed to reclaim idempotency key")
			}
			if won {
				r.logger.Info("reclaimed expired idempotency key",
					"endpoint", scope.Endpoint,
					"previous_status", string(existing.Status))
				return Outcome{Kind: Proceed, Token: newID}, nil
			}
			continue
		}

		if existing.RequestHash != hash {
			return Outcome{}, ErrPayloadMismatch
		}

		switch existing.Status {
		case StatusCompleted:
			return Outcome{Kind: Reuse, Response: existing.Response, ResourceID: existing.ResourceID}, nil
		case StatusFailed:
			return Outcome{}, ErrPreviousAttemptFailed
		case StatusInProgress:
			return Outcome{Kind: InProgress}, nil
		default:
			return Outcome{}, errs.Newf("unknown idempotency status %q", existing.Status)
		}
	}

	return Outcome{Kind: InProgress}, nil
}

func (r *Registry) CompleteOK(ctx context.Context, token uuid.UUID, response json.RawMessage, resourceID *uuid.UUID) error {
	ok, err := r.store.Complete(ctx, token, response, resourceID, r.clock.Now())
	if err != nil {
		return errs.Wrap(err, "failed to complete idempotency key")
	}
	if !ok {
		return ErrNotActive
	}
	return nil
}

func (r *Registry) CompleteFailed(ctx context.Context, token uuid.UUID, message string) error {
	ok, err := r.store.Fail(ctx, token, message, r.clock.Now())
	if err != nil {
		return errs.Wrap(err, "failed to mark idempotency key failed")
	}
	if !ok {
		return ErrNotActive
	}
	return nil
}

// Result is what Guard hands back: the stored snapshot on replay, the fresh one otherwise.
type Result struct {
	Response   json.RawMessage
	ResourceID *uuid.UUID
	Replayed   bool
}

// GuardedFunc runs the business operation once per key. Its response is stored as the replay snapshot.
type GuardedFunc func(ctx context.Context) (response any, resourceID *uuid.UUID, err error)

// Guard wraps fn with BeginOrReuse and makes sure exactly one terminal state is recorded,
// including when fn panics.
func (r *Registry) Guard(ctx context.Context, scope Scope, payload any, ttl time.Duration, fn GuardedFunc) (res Result, err error) {
	out, err := r.BeginOrReuse(ctx, scope, payload, ttl)
	if err != nil {
		return Result{}, err
	}

	switch out.Kind {
	case Reuse:
		return Result{Response: out.Response, ResourceID: out.ResourceID, Replayed: true}, nil
	case InProgress:
		return Result{}, ErrInProgress
	}

	// the request context may already be cancelled by the time we record the outcome
	bg := context.WithoutCancel(ctx)

	defer func() {
		if p := recover(); p != nil {
			r.markFailed(bg, out.Token, fmt.Sprintf("panic: %v", p))
			panic(p)
		}
	}()

	response, resourceID, err := fn(ctx)
	if err != nil {
		r.markFailed(bg, out.Token, err.Error())
		return Result{}, err
	}

	body, err := json.Marshal(response)
	if err != nil {
		r.markFailed(bg, out.Token, err.Error())
		return Result{}, errs.Wrap(err, "failed to encode idempotent response")
	}

	if err := r.CompleteOK(bg, out.Token, body, resourceID); err != nil {
		// the business effect is committed; the key stays IN_PROGRESS until it expires
		r.logger.Error("failed to complete idempotency key",
			"endpoint", scope.Endpoint,
			"token", out.Token.String(),
			"error", err.Error())
	}

	return Result{Response: body, ResourceID: resourceID}, nil
}

func (r *Registry) markFailed(ctx context.Context, token uuid.UUID, message string) {
	if err := r.CompleteFailed(ctx, token, message); err != nil {
		r.logger.Error("failed to mark idempotency key failed",
			"token", token.String(),
			"error", err.Error())
	}
}

// Sweep deletes expired rows in batches of at most batch and returns the total removed.
func (r *Registry) Sweep(ctx context.Context, batch int) (int64, error) {
	if batch <= 0 {
		batch = 1000
	}

	var total int64
	for {
		n, err := r.store.DeleteExpired(ctx, r.clock.Now(), batch)
		if err != nil {
			return total, errs.Wrap(err, "failed to delete expired idempotency keys")
		}
		total += n
		if n < int64(batch) {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}
