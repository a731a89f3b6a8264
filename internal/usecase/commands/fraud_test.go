//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/fraud"
	"staybook/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func placeReview(t *testing.T, h *harness, key string) uuid.UUID {
	t.Helper()
	h.scorer.EXPECT().Assess(gomock.Any(), gomock.Any(), gomock.Any()).Return(medium(), nil)
	res, err := h.bookings.Hold(context.Background(), h.holdInput(key))
	require.NoError(t, err)
	require.Equal(t, "REVIEW", res.Snapshot.Status)
	return res.Snapshot.ID
}

func TestFraudCommands_Decide(t *testing.T) {
	ctx := context.Background()
	reviewer := uuid.New()

	t.Run("approve moves the booking back to a live hold", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		id := placeReview(t, h, "review-key-1")
		h.clock.Add(time.Hour)

		view, err := h.fraud.Decide(ctx, commands.DecideInput{BookingID: id, ReviewerID: reviewer, Decision: "APPROVED", Note: "known guest"})
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", view.Decision)
		assert.Equal(t, &reviewer, view.ReviewerID)
		require.NotNil(t, view.Note)
		assert.Equal(t, "known guest", *view.Note)

		b, _ := h.store.Booking(id)
		assert.Equal(t, booking.StatusHold, b.Status())
		require.NotNil(t, b.HoldExpiresAt())
		assert.True(t, startOfTest.Add(time.Hour+15*time.Minute).Equal(*b.HoldExpiresAt()))
		assert.Nil(t, b.ReviewDeadlineAt())
		assert.Equal(t, []int{1, 1, 1}, h.remaining(), "approval keeps the nights taken at hold time")
		assert.Equal(t, commands.TopicReviewApproved, lastTopic(h))
	})

	t.Run("reject releases the nights", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		id := placeReview(t, h, "review-key-2")

		view, err := h.fraud.Decide(ctx, commands.DecideInput{BookingID: id, ReviewerID: reviewer, Decision: "REJECTED"})
		require.NoError(t, err)
		assert.Equal(t, "REJECTED", view.Decision)
		assert.Nil(t, view.Note)

		b, _ := h.store.Booking(id)
		assert.Equal(t, booking.StatusCancelled, b.Status())
		require.NotNil(t, b.CancelReason())
		assert.Equal(t, booking.CancelReasonReview, *b.CancelReason())
		assert.Equal(t, []int{2, 2, 2}, h.remaining())
		assert.True(t, hasTopic(h, commands.TopicReviewRejected))
	})

	t.Run("a second decision returns the first unchanged", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		id := placeReview(t, h, "review-key-3")

		_, err := h.fraud.Decide(ctx, commands.DecideInput{BookingID: id, ReviewerID: reviewer, Decision: "APPROVED"})
		require.NoError(t, err)
		topics := len(h.store.Topics())

		view, err := h.fraud.Decide(ctx, commands.DecideInput{BookingID: id, ReviewerID: uuid.New(), Decision: "REJECTED"})
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", view.Decision)
		assert.Equal(t, &reviewer, view.ReviewerID)
		assert.Len(t, h.store.Topics(), topics)
		assert.Equal(t, []int{1, 1, 1}, h.remaining())
	})

	t.Run("expired review can no longer be decided", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		id := placeReview(t, h, "review-key-4")

		_, err := h.bookings.ExpireHolds(ctx, startOfTest.Add(49*time.Hour))
		require.NoError(t, err)

		_, err = h.fraud.Decide(ctx, commands.DecideInput{BookingID: id, ReviewerID: reviewer, Decision: "APPROVED"})
		assert.ErrorIs(t, err, commands.ErrNotUnderReview)
		assert.ErrorIs(t, err, commands.ErrAlreadyProcessed)

		a, ok := h.store.Assessment(id)
		require.True(t, ok)
		assert.Equal(t, fraud.DecisionPending, a.Decision(), "the rollback keeps the assessment pending")
	})

	t.Run("guest cancel before the decision leaves nothing to decide", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, 2)
		id := placeReview(t, h, "review-key-5")

		_, err := h.bookings.CancelHold(ctx, h.userID, id)
		require.NoError(t, err)

		_, err = h.fraud.Decide(ctx, commands.DecideInput{BookingID: id, ReviewerID: reviewer, Decision: "REJECTED"})
		assert.ErrorIs(t, err, commands.ErrAlreadyProcessed)
		assert.Equal(t, []int{2, 2, 2}, h.remaining())
		assert.Equal(t, 0, countTopic(h, commands.TopicReviewRejected))
	})

	t.Run("unknown assessment", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.fraud.Decide(ctx, commands.DecideInput{BookingID: uuid.New(), ReviewerID: reviewer, Decision: "APPROVED"})
		assert.ErrorIs(t, err, commands.ErrAssessmentNotFound)
	})

	t.Run("invalid verdicts", func(t *testing.T) {
		h := newHarness(t)
		for _, d := range []string{"", "PENDING", "approved", "MAYBE"} {
			_, err := h.fraud.Decide(ctx, commands.DecideInput{BookingID: uuid.New(), ReviewerID: reviewer, Decision: d})
			assert.ErrorIs(t, err, commands.ErrInvalidInput, d)
		}
	})
}
