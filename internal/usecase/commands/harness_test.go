//go:build unit

package commands_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/pkg/clock"
	"staybook/internal/pkg/config"
	"staybook/internal/testutil/memstore"
	commandsmock "staybook/internal/testutil/mock/commands"
	"staybook/internal/usecase/commands"
	"staybook/internal/usecase/idempotency"
	"staybook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	stayCheckIn  = "2025-12-01"
	stayCheckOut = "2025-12-04"
	nightPrice   = int64(3_000_000)
)

var startOfTest = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

// harness wires the real use cases onto the in-memory store.
type harness struct {
	cfg        config.Config
	store      *memstore.Store
	idem       *memstore.IdempotencyStore
	clock      *clock.MockClock
	scorer     *commandsmock.MockFraudScorer
	registry   *idempotency.Registry
	reads      queries.BookingQueries
	bookings   commands.BookingCommands
	fraud      commands.FraudCommands
	payments   commands.PaymentCommands
	calendar   commands.CalendarCommands
	propertyID uuid.UUID
	userID     uuid.UUID
	nights     []time.Time
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()

	cfg := config.NewTestConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	h := &harness{
		cfg:        cfg,
		store:      memstore.New(),
		idem:       memstore.NewIdempotencyStore(),
		clock:      clock.NewMockClock(startOfTest),
		scorer:     commandsmock.NewMockFraudScorer(gomock.NewController(t)),
		propertyID: uuid.New(),
		userID:     uuid.New(),
	}
	logger := discardLogger()
	h.registry = idempotency.NewRegistry(h.idem, h.clock, logger)
	h.reads = queries.NewBookingQueries(h.store)

	var err error
	h.bookings, err = commands.NewBookingCommands(h.store, h.registry, h.scorer, h.reads, h.clock, cfg, logger)
	require.NoError(t, err)
	h.fraud = commands.NewFraudCommands(h.store, h.clock, cfg, logger)
	h.payments = commands.NewPaymentCommands(h.store, h.clock, logger)
	h.calendar, err = commands.NewCalendarCommands(h.store, cfg, logger)
	require.NoError(t, err)

	// 2025-12-01..03 in Asia/Tokyo
	first := time.Date(2025, 11, 30, 15, 0, 0, 0, time.UTC)
	h.nights = []time.Time{first, first.AddDate(0, 0, 1), first.AddDate(0, 0, 2)}
	return h
}

func (h *harness) seed(t *testing.T, remaining int) {
	t.Helper()
	for _, night := range h.nights {
		d, err := availability.NewDay(h.propertyID, night, nightPrice, remaining, false)
		require.NoError(t, err)
		h.store.SeedDays(d)
	}
}

func (h *harness) remaining() []int {
	return h.store.Remaining(h.propertyID, h.nights...)
}

func (h *harness) holdInput(key string) commands.HoldInput {
	return commands.HoldInput{
		UserID:         h.userID,
		PropertyID:     h.propertyID,
		CheckIn:        stayCheckIn,
		CheckOut:       stayCheckOut,
		IdempotencyKey: key,
	}
}
