//go:build e2e

package repository_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/infra/readstore"
	"staybook/internal/infra/repository"
	"staybook/internal/infra/uow"
	"staybook/internal/pkg/clock"
	"staybook/internal/pkg/config"
	"staybook/internal/pkg/errs"
	"staybook/internal/testutil/pgtest"
	"staybook/internal/usecase/commands"
	"staybook/internal/usecase/idempotency"
	"staybook/internal/usecase/queries"
	"staybook/internal/usecase/scoring"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
)

type BookingFlowSuite struct {
	suite.Suite
	pool       *pgxpool.Pool
	cfg        config.Config
	clock      *clock.MockClock
	bookings   commands.BookingCommands
	payments   commands.PaymentCommands
	propertyID uuid.UUID
	nights     []time.Time
}

func TestBookingFlowSuite(t *testing.T) {
	suite.Run(t, new(BookingFlowSuite))
}

func (s *BookingFlowSuite) SetupSuite() {
	s.pool, s.cfg.DB = pgtest.NewDatabase(s.T())

	cfg := config.NewTestConfig()
	cfg.DB = s.cfg.DB
	s.cfg = cfg

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.clock = clock.NewMockClock(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))
	unit := uow.NewPostgresUoW(s.pool, logger)
	registry := idempotency.NewRegistry(repository.NewIdempotencyRepository(s.pool), s.clock, logger)
	reads := queries.NewBookingQueries(readstore.NewBookingReadStore(s.pool))

	var err error
	s.bookings, err = commands.NewBookingCommands(unit, registry, scoring.NewThresholdScorer(cfg), reads, s.clock, cfg, logger)
	s.Require().NoError(err)
	s.payments = commands.NewPaymentCommands(unit, s.clock, logger)

	first := time.Date(2025, 11, 30, 15, 0, 0, 0, time.UTC)
	s.nights = []time.Time{first, first.AddDate(0, 0, 1), first.AddDate(0, 0, 2)}
}

func (s *BookingFlowSuite) SetupSubTest() {
	pgtest.Reset(s.T(), s.pool)
	s.propertyID = uuid.New()
}

func (s *BookingFlowSuite) seed(remaining int) {
	days := make([]availability.Day, len(s.nights))
	for i, night := range s.nights {
		d, err := availability.NewDay(s.propertyID, night, 3_000_000, remaining, false)
		s.Require().NoError(err)
		days[i] = d
	}
	s.Require().NoError(repository.NewAvailabilityRepository(s.pool).Upsert(context.Background(), days))
}

func (s *BookingFlowSuite) remaining() []int {
	views, err := readstore.NewAvailabilityReadStore(s.pool).FindRange(context.Background(), s.propertyID, s.nights[0], s.nights[2].AddDate(0, 0, 1))
	s.Require().NoError(err)
	out := make([]int, len(views))
	for i, v := range views {
		out[i] = v.Remaining
	}
	return out
}

func (s *BookingFlowSuite) count(sql string, args ...any) int {
	var n int
	s.Require().NoError(s.pool.QueryRow(context.Background(), sql, args...).Scan(&n))
	return n
}

func (s *BookingFlowSuite) hold(user uuid.UUID, key string) (*commands.HoldResult, error) {
	return s.bookings.Hold(context.Background(), commands.HoldInput{
		UserID:         user,
		PropertyID:     s.propertyID,
		CheckIn:        "2025-12-01",
		CheckOut:       "2025-12-04",
		IdempotencyKey: key,
	})
}

// =============================================================================
// Concurrency
// =============================================================================

func (s *BookingFlowSuite) TestConcurrentHolds() {
	s.Run("parallel holds never oversell", func() {
		s.seed(5)

		const attempts = 16
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			held     int
			rejected int
			other    []error
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.hold(uuid.New(), fmt.Sprintf("parallel-hold-%02d", i))

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					held++
				case errs.HasAny(err, commands.ErrNotAvailable, commands.ErrInventoryRace):
					rejected++
				default:
					other = append(other, err)
				}
			}(i)
		}
		wg.Wait()

		s.Empty(other)
		s.Equal(5, held)
		s.Equal(attempts-5, rejected)
		s.Equal([]int{0, 0, 0}, s.remaining())
		s.Equal(5, s.count(`SELECT count(*) FROM bookings WHERE property_id = $1`, s.propertyID))
		s.Equal(5, s.count(`SELECT count(*) FROM outbox_events WHERE topic = $1`, commands.TopicBookingHeld))
	})

	s.Run("duplicate submissions create one booking", func() {
		s.seed(5)
		user := uuid.New()

		var wg sync.WaitGroup
		results := make([]error, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = s.hold(user, "duplicate-submit")
			}(i)
		}
		wg.Wait()

		for _, err := range results {
			if err != nil {
				s.ErrorIs(err, idempotency.ErrInProgress)
			}
		}
		s.Equal(1, s.count(`SELECT count(*) FROM bookings WHERE property_id = $1`, s.propertyID))
		s.Equal([]int{4, 4, 4}, s.remaining())

		again, err := s.hold(user, "duplicate-submit")
		s.Require().NoError(err)
		s.True(again.IsReplayed)
	})

	s.Run("parallel sweeps release each hold once", func() {
		s.seed(3)
		for i := 0; i < 3; i++ {
			_, err := s.hold(uuid.New(), fmt.Sprintf("sweep-hold-%02d", i))
			s.Require().NoError(err)
		}
		s.Require().Equal([]int{0, 0, 0}, s.remaining())

		now := s.clock.Now().Add(time.Hour)
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			expired int
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := s.bookings.ExpireHolds(context.Background(), now)
				s.NoError(err)
				mu.Lock()
				expired += res.Expired
				mu.Unlock()
			}()
		}
		wg.Wait()

		s.Equal(3, expired)
		s.Equal([]int{3, 3, 3}, s.remaining())
		s.Equal(3, s.count(`SELECT count(*) FROM outbox_events WHERE topic = $1`, commands.TopicBookingExpired))
	})

	s.Run("payment and expiry race has one winner", func() {
		s.seed(1)
		res, err := s.hold(uuid.New(), "race-hold-001")
		s.Require().NoError(err)

		// the hold window is still open for the payment but the sweep sees it as overdue
		sweepAt := s.clock.Now().Add(16 * time.Minute)

		var wg sync.WaitGroup
		var payErr error
		var swept commands.ExpireResult
		wg.Add(2)
		go func() {
			defer wg.Done()
			payErr = s.payments.MarkPaid(context.Background(), commands.PaymentInput{BookingID: res.Snapshot.ID, PaymentRef: "pay_race"})
		}()
		go func() {
			defer wg.Done()
			swept, _ = s.bookings.ExpireHolds(context.Background(), sweepAt)
		}()
		wg.Wait()

		status := ""
		s.Require().NoError(s.pool.QueryRow(context.Background(),
			`SELECT status FROM bookings WHERE id = $1`, res.Snapshot.ID).Scan(&status))
		if payErr == nil {
			s.Equal("PAID", status)
			s.Equal(0, swept.Expired)
			s.Equal([]int{0, 0, 0}, s.remaining())
		} else {
			s.ErrorIs(payErr, commands.ErrAlreadyProcessed)
			s.Equal("CANCELLED", status)
			s.Equal(1, swept.Expired)
			s.Equal([]int{1, 1, 1}, s.remaining())
		}
	})
}
