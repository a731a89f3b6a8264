//go:build unit

package commands_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/fraud"
	"staybook/internal/pkg/config"
	"staybook/internal/testutil/memstore"
	"staybook/internal/usecase/commands"
	"staybook/internal/usecase/idempotency"
	"staybook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func low() fraud.Result {
	return fraud.Result{Level: fraud.LevelLow, Score: 10, Reasons: []string{}}
}

func medium() fraud.Result {
	return fraud.Result{Level: fraud.LevelMedium, Score: 45, Reasons: []string{"amount_over_medium_threshold"}}
}

func high() fraud.Result {
	return fraud.Result{Level: fraud.LevelHigh, Score: 95, Reasons: []string{"amount_over_high_threshold"}}
}

// =============================================================================
// Hold
// =============================================================================

func TestBookingCommands_Hold_SellsOutWithoutOversell(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, 2)

	gomock.InOrder(
		h.scorer.EXPECT().Assess(gomock.Any(), h.userID, int64(9_000_000)).Return(low(), nil),
		h.scorer.EXPECT().Assess(gomock.Any(), h.userID, int64(9_000_000)).Return(medium(), nil),
	)

	first, err := h.bookings.Hold(ctx, h.holdInput("hold-key-k1"))
	require.NoError(t, err)
	assert.Equal(t, "HOLD", first.Snapshot.Status)
	assert.Equal(t, int64(9_000_000), first.Snapshot.TotalPrice)
	assert.False(t, first.IsReplayed)
	assert.Equal(t, []int{1, 1, 1}, h.remaining())

	second, err := h.bookings.Hold(ctx, h.holdInput("hold-key-k2"))
	require.NoError(t, err)
	assert.Equal(t, "REVIEW", second.Snapshot.Status)
	assert.Equal(t, []int{0, 0, 0}, h.remaining())

	_, err = h.bookings.Hold(ctx, h.holdInput("hold-key-k3"))
	assert.ErrorIs(t, err, commands.ErrNotAvailable)
	assert.Equal(t, []int{0, 0, 0}, h.remaining())
	assert.Equal(t, 2, h.store.BookingCount())

	a, ok := h.store.Assessment(second.Snapshot.ID)
	require.True(t, ok)
	assert.Equal(t, fraud.DecisionPending, a.Decision())
	assert.Equal(t, []string{
		commands.TopicBookingHeld,
		commands.TopicBookingHeld,
		commands.TopicBookingReviewPending,
	}, h.store.Topics())
}

func TestBookingCommands_Hold_FraudBranching(t *testing.T) {
	testCases := []struct {
		name        string
		result      fraud.Result
		autoDecline bool
		wantStatus  booking.Status
		wantExpiry  time.Duration
		wantRemain  []int
		wantTopics  []string
		wantAssess  *fraud.Decision
	}{
		{
			name:       "low holds for the hold window",
			result:     low(),
			wantStatus: booking.StatusHold,
			wantExpiry: 15 * time.Minute,
			wantRemain: []int{1, 1, 1},
			wantTopics: []string{commands.TopicBookingHeld},
		},
		{
			name:       "skipped scoring holds",
			result:     fraud.SkippedResult(),
			wantStatus: booking.StatusHold,
			wantExpiry: 15 * time.Minute,
			wantRemain: []int{1, 1, 1},
			wantTopics: []string{commands.TopicBookingHeld},
		},
		{
			name:       "medium goes to review",
			result:     medium(),
			wantStatus: booking.StatusReview,
			wantExpiry: 48 * time.Hour,
			wantRemain: []int{1, 1, 1},
			wantTopics: []string{commands.TopicBookingHeld, commands.TopicBookingReviewPending},
			wantAssess: ptr(fraud.DecisionPending),
		},
		{
			name:       "high goes to review without auto decline",
			result:     high(),
			wantStatus: booking.StatusReview,
			wantExpiry: 48 * time.Hour,
			wantRemain: []int{1, 1, 1},
			wantTopics: []string{commands.TopicBookingHeld, commands.TopicBookingReviewPending},
			wantAssess: ptr(fraud.DecisionPending),
		},
		{
			name:        "high is declined with auto decline",
			result:      high(),
			autoDecline: true,
			wantStatus:  booking.StatusCancelled,
			wantRemain:  []int{2, 2, 2},
			wantTopics:  []string{commands.TopicBookingAutoDeclined},
			wantAssess:  ptr(fraud.DecisionRejected),
		},
		{
			name:        "medium is still reviewed with auto decline",
			result:      medium(),
			autoDecline: true,
			wantStatus:  booking.StatusReview,
			wantExpiry:  48 * time.Hour,
			wantRemain:  []int{1, 1, 1},
			wantTopics:  []string{commands.TopicBookingHeld, commands.TopicBookingReviewPending},
			wantAssess:  ptr(fraud.DecisionPending),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, func(c *config.Config) { c.Booking.AutoDeclineHigh = tc.autoDecline })
			h.seed(t, 2)
			h.scorer.EXPECT().Assess(gomock.Any(), h.userID, int64(9_000_000)).Return(tc.result, nil)

			res, err := h.bookings.Hold(context.Background(), h.holdInput("branch-key-1"))
			require.NoError(t, err)

			snap := res.Snapshot
			assert.Equal(t, tc.wantStatus.String(), snap.Status)
			assert.Equal(t, tc.result.Level, snap.Fraud.Level)
			if tc.wantExpiry == 0 {
				assert.Nil(t, snap.HoldExpiresAt)
			} else {
				require.NotNil(t, snap.HoldExpiresAt)
				assert.True(t, startOfTest.Add(tc.wantExpiry).Equal(*snap.HoldExpiresAt))
			}
			assert.Equal(t, tc.wantRemain, h.remaining())
			assert.Equal(t, tc.wantTopics, h.store.Topics())

			a, ok := h.store.Assessment(snap.ID)
			if tc.wantAssess == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, *tc.wantAssess, a.Decision())
		})
	}
}

func TestBookingCommands_Hold_Idempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("retry with the same key replays without a second hold", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(low(), nil).Times(1)

		first, err := h.bookings.Hold(ctx, h.holdInput("retry-key-1"))
		require.NoError(t, err)

		again, err := h.bookings.Hold(ctx, h.holdInput("retry-key-1"))
		require.NoError(t, err)
		assert.True(t, again.IsReplayed)
		assert.Equal(t, first.Snapshot.ID, again.Snapshot.ID)
		assert.Equal(t, first.Snapshot.TotalPrice, again.Snapshot.TotalPrice)
		assert.Equal(t, []int{1, 1, 1}, h.remaining())
		assert.Equal(t, 1, h.store.BookingCount())
	})

	t.Run("equivalent dates are the same request", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(low(), nil).Times(1)

		_, err := h.bookings.Hold(ctx, h.holdInput("retry-key-2"))
		require.NoError(t, err)

		in := h.holdInput("retry-key-2")
		in.CheckIn = "2025-11-30T16:00:00Z"
		again, err := h.bookings.Hold(ctx, in)
		require.NoError(t, err)
		assert.True(t, again.IsReplayed)
	})

	t.Run("same key with another range is rejected", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(low(), nil).Times(1)

		_, err := h.bookings.Hold(ctx, h.holdInput("retry-key-3"))
		require.NoError(t, err)

		in := h.holdInput("retry-key-3")
		in.CheckOut = "2025-12-03"
		_, err = h.bookings.Hold(ctx, in)
		assert.ErrorIs(t, err, idempotency.ErrPayloadMismatch)
		assert.Equal(t, []int{1, 1, 1}, h.remaining())
	})

	t.Run("a failed key stays failed", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.Hold(ctx, h.holdInput("retry-key-4"))
		require.ErrorIs(t, err, commands.ErrNotAvailable)

		h.seed(t, 2)
		_, err = h.bookings.Hold(ctx, h.holdInput("retry-key-4"))
		assert.ErrorIs(t, err, idempotency.ErrPreviousAttemptFailed)
		assert.Equal(t, []int{2, 2, 2}, h.remaining())
	})

	t.Run("missing key", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.Hold(ctx, h.holdInput(""))
		assert.ErrorIs(t, err, idempotency.ErrKeyRequired)
	})
}

func TestBookingCommands_Hold_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testCases := []struct {
		name   string
		mutate func(*commands.HoldInput)
	}{
		{name: "missing property", mutate: func(in *commands.HoldInput) { in.PropertyID = uuid.Nil }},
		{name: "bad check-in", mutate: func(in *commands.HoldInput) { in.CheckIn = "tomorrow" }},
		{name: "empty range", mutate: func(in *commands.HoldInput) { in.CheckOut = in.CheckIn }},
		{name: "inverted range", mutate: func(in *commands.HoldInput) { in.CheckIn, in.CheckOut = in.CheckOut, in.CheckIn }},
		{name: "too many nights", mutate: func(in *commands.HoldInput) { in.CheckOut = "2026-01-15" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := h.holdInput("validation-key")
			tc.mutate(&in)
			_, err := h.bookings.Hold(ctx, in)
			assert.ErrorIs(t, err, commands.ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, h.idem.Len(), "invalid input never reaches the registry")
}

func TestBookingCommands_Hold_BlockedNight(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 2)
	blocked, err := availability.NewDay(h.propertyID, h.nights[1], nightPrice, 2, true)
	require.NoError(t, err)
	h.store.SeedDays(blocked)

	_, err = h.bookings.Hold(context.Background(), h.holdInput("blocked-key"))
	assert.ErrorIs(t, err, commands.ErrNotAvailable)
	assert.Equal(t, []int{2, 2, 2}, h.remaining())
}

func TestBookingCommands_Hold_ConcurrentHoldsNeverOversell(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 5)
	h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(low(), nil).AnyTimes()

	const attempts = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		held     int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := h.holdInput(fmt.Sprintf("concurrent-%02d", i))
			in.UserID = uuid.New()
			_, err := h.bookings.Hold(context.Background(), in)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				held++
			case assert.ErrorIs(t, err, commands.ErrNotAvailable):
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, held)
	assert.Equal(t, attempts-5, rejected)
	assert.Equal(t, []int{0, 0, 0}, h.remaining())
}

// stolenNightUoW runs on the store but makes the nth guarded decrement of a
// transaction match no row, as when another writer took the last unit.
type stolenNightUoW struct {
	store *memstore.Store
	steal int
}

func (u stolenNightUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return fn(ctx, &stolenNightTx{Tx: tx, steal: u.steal})
	})
}

type stolenNightTx struct {
	shared.Tx
	steal int
	calls int
}

func (t *stolenNightTx) Availability() shared.AvailabilityRepository {
	return stolenNightRepo{AvailabilityRepository: t.Tx.Availability(), tx: t}
}

type stolenNightRepo struct {
	shared.AvailabilityRepository
	tx *stolenNightTx
}

func (r stolenNightRepo) DecrementDay(ctx context.Context, propertyID uuid.UUID, day time.Time) (int64, error) {
	r.tx.calls++
	if r.tx.calls == r.tx.steal {
		return 0, nil
	}
	return r.AvailabilityRepository.DecrementDay(ctx, propertyID, day)
}

func TestBookingCommands_Hold_InventoryRaceRollsBack(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, 2)
	h.scorer.EXPECT().Assess(gomock.Any(), h.userID, int64(9_000_000)).Return(low(), nil).Times(1)

	racing, err := commands.NewBookingCommands(stolenNightUoW{store: h.store, steal: 2},
		h.registry, h.scorer, h.reads, h.clock, h.cfg, discardLogger())
	require.NoError(t, err)

	_, err = racing.Hold(ctx, h.holdInput("race-key-01"))
	require.ErrorIs(t, err, commands.ErrInventoryRace)

	// the first night's decrement went down with the transaction
	assert.Equal(t, []int{2, 2, 2}, h.remaining())
	assert.Equal(t, 0, h.store.BookingCount())
	assert.Empty(t, h.store.Topics())

	_, err = racing.Hold(ctx, h.holdInput("race-key-01"))
	assert.ErrorIs(t, err, idempotency.ErrPreviousAttemptFailed)
	assert.Equal(t, []int{2, 2, 2}, h.remaining())
	assert.Equal(t, 0, h.store.BookingCount())
}

// =============================================================================
// CancelHold
// =============================================================================

func TestBookingCommands_CancelHold(t *testing.T) {
	ctx := context.Background()

	place := func(t *testing.T, h *harness) uuid.UUID {
		t.Helper()
		h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(low(), nil)
		res, err := h.bookings.Hold(ctx, h.holdInput("cancel-key-1"))
		require.NoError(t, err)
		return res.Snapshot.ID
	}

	t.Run("owner cancels and nights come back", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		id := place(t, h)

		view, err := h.bookings.CancelHold(ctx, h.userID, id)
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", view.Status)
		require.NotNil(t, view.CancelReason)
		assert.Equal(t, booking.CancelReasonUser, *view.CancelReason)
		assert.Equal(t, []int{2, 2, 2}, h.remaining())
		assert.Equal(t, commands.TopicBookingCancelled, lastTopic(h))

		_, err = h.bookings.CancelHold(ctx, h.userID, id)
		assert.ErrorIs(t, err, commands.ErrAlreadyProcessed)
		assert.Equal(t, []int{2, 2, 2}, h.remaining())
	})

	t.Run("someone else cannot cancel", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		id := place(t, h)

		_, err := h.bookings.CancelHold(ctx, uuid.New(), id)
		assert.ErrorIs(t, err, commands.ErrForbidden)
		assert.Equal(t, []int{1, 1, 1}, h.remaining())
	})

	t.Run("unknown booking", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.CancelHold(ctx, h.userID, uuid.New())
		assert.ErrorIs(t, err, commands.ErrBookingNotFound)
	})
}

// =============================================================================
// ExpireHolds
// =============================================================================

func TestBookingCommands_ExpireHolds(t *testing.T) {
	ctx := context.Background()

	t.Run("only overdue holds are released", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		gomock.InOrder(
			h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(low(), nil),
			h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(medium(), nil),
		)
		hold, err := h.bookings.Hold(ctx, h.holdInput("expire-key-1"))
		require.NoError(t, err)
		review, err := h.bookings.Hold(ctx, h.holdInput("expire-key-2"))
		require.NoError(t, err)

		// exactly at the deadline nothing is overdue yet
		res, err := h.bookings.ExpireHolds(ctx, startOfTest.Add(15*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, commands.ExpireResult{}, res)

		res, err = h.bookings.ExpireHolds(ctx, startOfTest.Add(16*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, commands.ExpireResult{Scanned: 1, Expired: 1}, res)
		assert.Equal(t, []int{1, 1, 1}, h.remaining())

		b, _ := h.store.Booking(hold.Snapshot.ID)
		assert.Equal(t, booking.StatusCancelled, b.Status())
		require.NotNil(t, b.CancelReason())
		assert.Equal(t, booking.CancelReasonExpired, *b.CancelReason())

		b, _ = h.store.Booking(review.Snapshot.ID)
		assert.Equal(t, booking.StatusReview, b.Status())

		res, err = h.bookings.ExpireHolds(ctx, startOfTest.Add(49*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Expired)
		assert.Equal(t, []int{2, 2, 2}, h.remaining())
		assert.Equal(t, 2, countTopic(h, commands.TopicBookingExpired))
	})

	t.Run("paid bookings are never expired", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(low(), nil)
		hold, err := h.bookings.Hold(ctx, h.holdInput("expire-key-3"))
		require.NoError(t, err)
		require.NoError(t, h.payments.MarkPaid(ctx, commands.PaymentInput{BookingID: hold.Snapshot.ID, PaymentRef: "pay_1"}))

		res, err := h.bookings.ExpireHolds(ctx, startOfTest.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Expired)
		assert.Equal(t, []int{1, 1, 1}, h.remaining())
	})

	t.Run("concurrent sweeps release each hold exactly once", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 4)
		h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(low(), nil).Times(4)
		for i := 0; i < 4; i++ {
			_, err := h.bookings.Hold(ctx, h.holdInput(fmt.Sprintf("sweep-key-%d", i)))
			require.NoError(t, err)
		}
		require.Equal(t, []int{0, 0, 0}, h.remaining())

		now := startOfTest.Add(time.Hour)
		results := make([]commands.ExpireResult, 5)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := h.bookings.ExpireHolds(ctx, now)
				assert.NoError(t, err)
				results[i] = res
			}(i)
		}
		wg.Wait()

		expired := 0
		for _, r := range results {
			expired += r.Expired
			assert.Zero(t, r.Failed)
		}
		assert.Equal(t, 4, expired)
		assert.Equal(t, []int{4, 4, 4}, h.remaining())
		assert.Equal(t, 4, countTopic(h, commands.TopicBookingExpired))
	})

	t.Run("a failing row is skipped and released rows are not sent back", func(t *testing.T) {
		h := newHarness(t, func(c *config.Config) { c.Booking.ExpirePageSize = 2 })
		h.seed(t, 4)
		h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(low(), nil).Times(4)
		ids := make([]uuid.UUID, 4)
		for i := range ids {
			res, err := h.bookings.Hold(ctx, h.holdInput(fmt.Sprintf("page-key-%d", i)))
			require.NoError(t, err)
			ids[i] = res.Snapshot.ID
		}

		uow := &sweepWatchUoW{store: h.store, failing: ids[1]}
		sweeper, err := commands.NewBookingCommands(uow, h.registry, h.scorer, h.reads, h.clock, h.cfg, discardLogger())
		require.NoError(t, err)

		res, err := sweeper.ExpireHolds(ctx, startOfTest.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, commands.ExpireResult{Scanned: 4, Expired: 3, Failed: 1}, res)
		assert.Equal(t, []int{3, 3, 3}, h.remaining())

		require.NotEmpty(t, uow.excludes)
		for _, exclude := range uow.excludes {
			assert.Subset(t, []uuid.UUID{ids[1]}, exclude)
		}
		assert.Equal(t, []uuid.UUID{ids[1]}, uow.excludes[len(uow.excludes)-1])

		b, _ := h.store.Booking(ids[1])
		assert.Equal(t, booking.StatusHold, b.Status())
	})

	t.Run("cancelled context stops the sweep", func(t *testing.T) {
		h := newHarness(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := h.bookings.ExpireHolds(cctx, startOfTest)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// sweepWatchUoW records the exclusion list of every candidate page and fails
// the release of one booking.
type sweepWatchUoW struct {
	store    *memstore.Store
	failing  uuid.UUID
	excludes [][]uuid.UUID
}

var errReleaseFailed = errors.New("release failed")

func (u *sweepWatchUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return fn(ctx, sweepWatchTx{Tx: tx, uow: u})
	})
}

type sweepWatchTx struct {
	shared.Tx
	uow *sweepWatchUoW
}

func (t sweepWatchTx) Bookings() shared.BookingRepository {
	return sweepWatchRepo{BookingRepository: t.Tx.Bookings(), uow: t.uow}
}

type sweepWatchRepo struct {
	shared.BookingRepository
	uow *sweepWatchUoW
}

func (r sweepWatchRepo) ListExpiredCandidates(ctx context.Context, now time.Time, exclude []uuid.UUID, limit int) ([]uuid.UUID, error) {
	r.uow.excludes = append(r.uow.excludes, slices.Clone(exclude))
	return r.BookingRepository.ListExpiredCandidates(ctx, now, exclude, limit)
}

func (r sweepWatchRepo) Release(ctx context.Context, id uuid.UUID, guard shared.ReleaseGuard) (*shared.ReleasedBooking, error) {
	if id == r.uow.failing {
		return nil, errReleaseFailed
	}
	return r.BookingRepository.Release(ctx, id, guard)
}

func lastTopic(h *harness) string {
	topics := h.store.Topics()
	if len(topics) == 0 {
		return ""
	}
	return topics[len(topics)-1]
}

func countTopic(h *harness, topic string) int {
	n := 0
	for _, t := range h.store.Topics() {
		if t == topic {
			n++
		}
	}
	return n
}

func hasTopic(h *harness, topic string) bool {
	return slices.Contains(h.store.Topics(), topic)
}

func ptr[T any](v T) *T { return &v }
