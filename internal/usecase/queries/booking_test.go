//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"staybook/internal/domain/user"
	"staybook/internal/infra"
	"staybook/internal/pkg/errs"
	queriesmock "staybook/internal/testutil/mock/queries"
	"staybook/internal/usecase/queries"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingQueriesTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockStore *queriesmock.MockBookingReadStore
	q         queries.BookingQueries
	owner     uuid.UUID
}

func (s *BookingQueriesTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockStore = queriesmock.NewMockBookingReadStore(s.mockCtrl)
	s.q = queries.NewBookingQueries(s.mockStore)
	s.owner = uuid.New()
}

func (s *BookingQueriesTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingQueriesSuite(t *testing.T) {
	suite.Run(t, new(BookingQueriesTestSuite))
}

func (s *BookingQueriesTestSuite) TestGetByID() {
	ctx := context.Background()
	id := uuid.New()

	s.Run("owner sees the booking", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), id).Return(&queries.BookingView{ID: id, CustomerID: s.owner}, nil)
		view, err := s.q.GetByID(ctx, queries.Actor{ID: s.owner, Role: user.RoleGuest}, id)
		s.Require().NoError(err)
		s.Equal(id, view.ID)
	})

	s.Run("admin sees any booking", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), id).Return(&queries.BookingView{ID: id, CustomerID: s.owner}, nil)
		view, err := s.q.GetByID(ctx, queries.Actor{ID: uuid.New(), Role: user.RoleAdmin}, id)
		s.Require().NoError(err)
		s.Equal(s.owner, view.CustomerID)
	})

	for _, role := range []user.Role{user.RoleGuest, user.RoleHost, user.RoleReviewer} {
		s.Run("someone else is forbidden as "+string(role), func() {
			s.mockStore.EXPECT().FindByID(gomock.Any(), id).Return(&queries.BookingView{ID: id, CustomerID: s.owner}, nil)
			_, err := s.q.GetByID(ctx, queries.Actor{ID: uuid.New(), Role: role}, id)
			s.True(errs.Is(err, shared.ErrForbidden))
		})
	}

	s.Run("missing row maps to not found", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), id).
			Return(nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound))
		_, err := s.q.GetByID(ctx, queries.Actor{ID: uuid.New(), Role: user.RoleAdmin}, id)
		s.True(errs.Is(err, shared.ErrBookingNotFound))
	})
}

func (s *BookingQueriesTestSuite) TestListByUser() {
	ctx := context.Background()
	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]*queries.BookingListItem, 3)
	for i := range rows {
		rows[i] = &queries.BookingListItem{ID: uuid.New(), CreatedAt: base.Add(-time.Duration(i) * time.Minute)}
	}

	s.Run("full page hands out a cursor for the last item", func() {
		s.mockStore.EXPECT().FindByCustomer(gomock.Any(), s.owner, (*time.Time)(nil), uuid.Nil, 3).Return(rows, nil)

		items, next, err := s.q.ListByUser(ctx, s.owner, nil, 2)
		s.Require().NoError(err)
		s.Len(items, 2)
		s.Require().NotNil(next)

		ts, id, err := queries.DecodeAfterCursor(next.After)
		s.Require().NoError(err)
		s.Equal(rows[1].ID, id)
		s.True(ts.Equal(rows[1].CreatedAt))
	})

	s.Run("cursor is decoded for the store", func() {
		cursor := queries.EncodeAfterCursor(rows[1].CreatedAt, rows[1].ID)
		s.mockStore.EXPECT().FindByCustomer(gomock.Any(), s.owner, gomock.Any(), rows[1].ID, 21).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, after *time.Time, _ uuid.UUID, _ int) ([]*queries.BookingListItem, error) {
				s.Require().NotNil(after)
				s.True(after.Equal(rows[1].CreatedAt))
				return rows[2:], nil
			})

		items, next, err := s.q.ListByUser(ctx, s.owner, &queries.Cursor{After: cursor}, 0)
		s.Require().NoError(err)
		s.Len(items, 1)
		s.Nil(next)
	})

	s.Run("bad cursor is rejected", func() {
		_, _, err := s.q.ListByUser(ctx, s.owner, &queries.Cursor{After: "garbage"}, 10)
		s.True(errs.Is(err, queries.ErrInvalidCursor))
	})
}
