package queries

//go:generate mockgen -destination=../../testutil/mock/queries/queries.go -package=queriesmock staybook/internal/usecase/queries BookingQueries,AvailabilityQueries,BookingReadStore

import (
	"context"
	"time"

	"staybook/internal/domain/user"
	"staybook/internal/infra"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrInvalidCursor = errs.New("invalid cursor")

// Actor is the caller a read is made for.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

// canRead lets the owner and admins see a booking.
func (a Actor) canRead(view *BookingView) bool {
	return view.CustomerID == a.ID || a.Role == user.RoleAdmin
}

type BookingQueries interface {
	GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*BookingView, error)
	ListByUser(ctx context.Context, userID uuid.UUID, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error)
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	// FindByCustomer lists newest first; afterCreatedAt/afterID continue past a previous page.
	FindByCustomer(ctx context.Context, customerID uuid.UUID, afterCreatedAt *time.Time, afterID uuid.UUID, limit int) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*BookingView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, shared.ErrBookingNotFound
		}
		return nil, err
	}
	if !actor.canRead(view) {
		return nil, shared.ErrForbidden
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error) {
	limit = ValidateLimit(limit)

	var (
		afterCreatedAt *time.Time
		afterID        uuid.UUID
	)
	if after != nil && after.After != "" {
		t, id, err := DecodeAfterCursor(after.After)
		if err != nil {
			return nil, nil, errs.Mark(err, ErrInvalidCursor)
		}
		afterCreatedAt, afterID = &t, id
	}

	// one extra row tells us whether another page exists
	items, err := q.store.FindByCustomer(ctx, userID, afterCreatedAt, afterID, limit+1)
	if err != nil {
		return nil, nil, err
	}

	if len(items) <= limit {
		return items, nil, nil
	}

	items = items[:limit]
	last := items[len(items)-1]
	return items, &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}, nil
}
