package idempotency

import (
	"context"
	"encoding/json"
	"time"

	"staybook/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrKeyRequired           = errs.New("idempotency key is required")
	ErrKeyTooShort           = errs.New("idempotency key is too short")
	ErrPayloadMismatch       = errs.New("idempotency key reused with a different payload")
	ErrPreviousAttemptFailed = errs.New("previous attempt with this idempotency key failed, use a new key")
	ErrInProgress            = errs.New("a request with this idempotency key is in progress")
	ErrNotActive             = errs.New("idempotency token is not in progress")
)

const MinKeyLength = 8

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Scope identifies one logical request. A nil UserID is a distinct anonymous scope.
type Scope struct {
	UserID   *uuid.UUID
	Endpoint string
	Key      string
}

type Record struct {
	ID           uuid.UUID
	Scope        Scope
	RequestHash  string
	Status       Status
	Response     json.RawMessage
	ResourceID   *uuid.UUID
	ErrorMessage *string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store persists registry rows. It runs outside business transactions so a
// failure mark survives the rollback it describes.
type Store interface {
	// TryInsert reports false when a row already exists for the scope.
	TryInsert(ctx context.Context, rec Record) (bool, error)
	Get(ctx context.Context, scope Scope) (*Record, error)
	// Reclaim takes over an expired row under a new id. False means another caller won.
	Reclaim(ctx context.Context, scope Scope, newID uuid.UUID, requestHash string, expiresAt, now time.Time) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, response json.RawMessage, resourceID *uuid.UUID, now time.Time) (bool, error)
	Fail(ctx context.Context, id uuid.UUID, message string, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

type OutcomeKind int

const (
	Proceed OutcomeKind = iota + 1
	Reuse
	InProgress
)

func (k OutcomeKind) String() string {
	switch k {
	case Proceed:
		return "proceed"
	case Reuse:
		return "reuse"
	case InProgress:
		return "in_progress"
	default:
		return "unknown"
	}
}

type Outcome struct {
	Kind       OutcomeKind
	Token      uuid.UUID
	Response   json.RawMessage
	ResourceID *uuid.UUID
}
