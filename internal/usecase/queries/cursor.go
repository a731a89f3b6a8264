package queries

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"staybook/internal/pkg/errs"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// Cursor is opaque to clients. It carries the position of the last row of a page
// in the (created_at DESC, id DESC) ordering.
type Cursor struct {
	After string `json:"after,omitempty"`
}

type pageKey struct {
	Version   int       `json:"v"`
	CreatedAt int64     `json:"t"` // unix micros, the precision Postgres keeps
	ID        uuid.UUID `json:"id"`
}

const pageKeyVersion = 1

func EncodeAfterCursor(createdAt time.Time, id uuid.UUID) string {
	b, _ := json.Marshal(pageKey{Version: pageKeyVersion, CreatedAt: createdAt.UnixMicro(), ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeAfterCursor(cursor string) (time.Time, uuid.UUID, error) {
	if cursor == "" {
		return time.Time{}, uuid.Nil, errs.New("empty cursor")
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, errs.Wrap(err, "cursor encoding")
	}

	var key pageKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return time.Time{}, uuid.Nil, errs.Wrap(err, "cursor payload")
	}
	if key.Version != pageKeyVersion {
		return time.Time{}, uuid.Nil, errs.Newf("unsupported cursor version %d", key.Version)
	}
	if key.ID == uuid.Nil || key.CreatedAt <= 0 {
		return time.Time{}, uuid.Nil, errs.New("incomplete cursor")
	}
	return time.UnixMicro(key.CreatedAt).UTC(), key.ID, nil
}

func ValidateLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
