//go:build unit || e2e

package memstore

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"staybook/internal/usecase/idempotency"

	"github.com/google/uuid"
)

type scopeKey struct {
	user     uuid.UUID
	anon     bool
	endpoint string
	key      string
}

func keyOfScope(s idempotency.Scope) scopeKey {
	k := scopeKey{endpoint: s.Endpoint, key: s.Key, anon: s.UserID == nil}
	if s.UserID != nil {
		k.user = *s.UserID
	}
	return k
}

// IdempotencyStore implements idempotency.Store with the same guards as the SQL version.
type IdempotencyStore struct {
	mu   sync.Mutex
	rows map[scopeKey]*idempotency.Record
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{rows: map[scopeKey]*idempotency.Record{}}
}

func (s *IdempotencyStore) TryInsert(_ context.Context, rec idempotency.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOfScope(rec.Scope)
	if _, ok := s.rows[k]; ok {
		return false, nil
	}
	cp := rec
	s.rows[k] = &cp
	return true, nil
}

func (s *IdempotencyStore) Get(_ context.Context, scope idempotency.Scope) (*idempotency.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[keyOfScope(scope)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	cp.Response = slices.Clone(rec.Response)
	return &cp, nil
}

func (s *IdempotencyStore) Reclaim(_ context.Context, scope idempotency.Scope, newID uuid.UUID, requestHash string, expiresAt, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[keyOfScope(scope)]
	if !ok || !rec.ExpiresAt.Before(now) {
		return false, nil
	}
	rec.ID = newID
	rec.RequestHash = requestHash
	rec.Status = idempotency.StatusInProgress
	rec.Response = nil
	rec.ResourceID = nil
	rec.ErrorMessage = nil
	rec.ExpiresAt = expiresAt
	rec.UpdatedAt = now
	return true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, id uuid.UUID, response json.RawMessage, resourceID *uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.byID(id)
	if rec == nil || rec.Status != idempotency.StatusInProgress {
		return false, nil
	}
	rec.Status = idempotency.StatusCompleted
	rec.Response = slices.Clone(response)
	rec.ResourceID = resourceID
	rec.UpdatedAt = now
	return true, nil
}

func (s *IdempotencyStore) Fail(_ context.Context, id uuid.UUID, message string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.byID(id)
	if rec == nil || rec.Status != idempotency.StatusInProgress {
		return false, nil
	}
	rec.Status = idempotency.StatusFailed
	rec.ErrorMessage = &message
	rec.UpdatedAt = now
	return true, nil
}

func (s *IdempotencyStore) DeleteExpired(_ context.Context, now time.Time, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, rec := range s.rows {
		if int(n) == limit {
			break
		}
		if rec.ExpiresAt.Before(now) {
			delete(s.rows, k)
			n++
		}
	}
	return n, nil
}

// Len counts stored rows.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Expire backdates every row so the next call treats them as expired.
func (s *IdempotencyStore) Expire(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.rows {
		rec.ExpiresAt = at
	}
}

func (s *IdempotencyStore) byID(id uuid.UUID) *idempotency.Record {
	for _, rec := range s.rows {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}
