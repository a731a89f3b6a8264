// Package pgconv maps nullable columns to Go pointers and back.
// Timestamps always come out in UTC so callers never compare across zones.
package pgconv

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func ptrIf[T any](valid bool, v T) *T {
	if !valid {
		return nil
	}
	return &v
}

func UUIDPtrFromPgtype(pu pgtype.UUID) *uuid.UUID {
	return ptrIf(pu.Valid, uuid.UUID(pu.Bytes))
}

func StringPtrFromPgtype(pt pgtype.Text) *string {
	return ptrIf(pt.Valid, pt.String)
}

func TimePtrFromPgtype(pt pgtype.Timestamptz) *time.Time {
	return ptrIf(pt.Valid, pt.Time.UTC())
}

func UUIDPtrToPgtype(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func StringPtrToPgtype(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func TimePtrToPgtype(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
