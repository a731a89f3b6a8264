//go:build unit

package booking

import (
	"testing"
	"time"

	"staybook/internal/domain/fraud"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanHold(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := Policy{HoldDuration: 15 * time.Minute, ReviewDuration: 48 * time.Hour}
	autoDecline := policy
	autoDecline.AutoDeclineHigh = true

	tests := []struct {
		name         string
		result       fraud.Result
		policy       Policy
		wantStatus   Status
		wantExpiry   time.Duration
		wantReserves bool
		wantReview   bool
	}{
		{name: "low risk holds", result: fraud.Result{Level: fraud.LevelLow}, policy: policy, wantStatus: StatusHold, wantExpiry: 15 * time.Minute, wantReserves: true},
		{name: "skipped scoring holds", result: fraud.SkippedResult(), policy: policy, wantStatus: StatusHold, wantExpiry: 15 * time.Minute, wantReserves: true},
		{name: "medium goes to review", result: fraud.Result{Level: fraud.LevelMedium}, policy: policy, wantStatus: StatusReview, wantExpiry: 48 * time.Hour, wantReserves: true, wantReview: true},
		{name: "high goes to review without auto decline", result: fraud.Result{Level: fraud.LevelHigh}, policy: policy, wantStatus: StatusReview, wantExpiry: 48 * time.Hour, wantReserves: true, wantReview: true},
		{name: "high is declined with auto decline", result: fraud.Result{Level: fraud.LevelHigh}, policy: autoDecline, wantStatus: StatusCancelled},
		{name: "medium still reviewed with auto decline", result: fraud.Result{Level: fraud.LevelMedium}, policy: autoDecline, wantStatus: StatusReview, wantExpiry: 48 * time.Hour, wantReserves: true, wantReview: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanHold(tt.result, tt.policy, now)

			assert.Equal(t, tt.wantStatus, plan.Status)
			assert.Equal(t, tt.wantReserves, plan.ReservesInventory)
			assert.Equal(t, tt.wantReview, plan.NeedsReview)

			if tt.wantExpiry == 0 {
				assert.Nil(t, plan.HoldExpiresAt)
				assert.True(t, plan.AutoDeclined)
				return
			}
			require.NotNil(t, plan.HoldExpiresAt)
			assert.Equal(t, now.Add(tt.wantExpiry), *plan.HoldExpiresAt)
			if tt.wantReview {
				require.NotNil(t, plan.ReviewDeadlineAt)
				assert.Equal(t, *plan.HoldExpiresAt, *plan.ReviewDeadlineAt)
			}
		})
	}
}

func TestBooking(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	owner := uuid.New()
	stay := ReconstructStay(now, now.Add(48*time.Hour), 2)

	t.Run("auto declined booking carries its reason", func(t *testing.T) {
		b := NewBooking(uuid.New(), owner, stay, 100, HoldPlan{Status: StatusCancelled, AutoDeclined: true}, now)

		require.NotNil(t, b.CancelReason())
		assert.Equal(t, CancelReasonAutoDeclined, *b.CancelReason())
		assert.Equal(t, &now, b.CancelledAt())
		assert.False(t, b.IsHoldExpired(now.Add(time.Hour)))
	})

	t.Run("ownership and expiry", func(t *testing.T) {
		plan := PlanHold(fraud.Result{Level: fraud.LevelLow}, Policy{HoldDuration: time.Minute}, now)
		b := NewBooking(uuid.New(), owner, stay, 100, plan, now)

		assert.True(t, b.IsOwnedBy(owner))
		assert.False(t, b.IsOwnedBy(uuid.New()))
		assert.Equal(t, DefaultCancelPolicy, b.CancelPolicy())
		assert.False(t, b.IsHoldExpired(now.Add(time.Minute)), "expiry is strict")
		assert.True(t, b.IsHoldExpired(now.Add(time.Minute+time.Nanosecond)))
	})
}

func TestStatus(t *testing.T) {
	for _, s := range []Status{StatusHold, StatusReview} {
		assert.True(t, s.IsReleasable(), s)
	}
	for _, s := range []Status{StatusConfirmed, StatusPaid, StatusCancelled, StatusRefunded} {
		assert.False(t, s.IsReleasable(), s)
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("BOGUS").IsValid())
}
