//go:build unit

package scoring

import (
	"context"
	"testing"

	"staybook/internal/domain/fraud"
	"staybook/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdScorer_Assess(t *testing.T) {
	cfg := config.NewTestConfig()

	tests := []struct {
		name        string
		amount      int64
		wantLevel   fraud.Level
		wantScore   float64
		wantReasons []string
	}{
		{name: "below medium", amount: 9_000_000, wantLevel: fraud.LevelLow, wantScore: 18, wantReasons: []string{}},
		{name: "exactly medium", amount: 20_000_000, wantLevel: fraud.LevelMedium, wantScore: 40, wantReasons: []string{ReasonAmountOverMedium}},
		{name: "exactly high", amount: 50_000_000, wantLevel: fraud.LevelHigh, wantScore: 100, wantReasons: []string{ReasonAmountOverHigh}},
		{name: "score is capped", amount: 90_000_000, wantLevel: fraud.LevelHigh, wantScore: 100, wantReasons: []string{ReasonAmountOverHigh}},
	}

	scorer := NewThresholdScorer(cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := scorer.Assess(context.Background(), uuid.New(), tt.amount)
			require.NoError(t, err)

			assert.False(t, res.Skipped)
			assert.Equal(t, tt.wantLevel, res.Level)
			assert.InDelta(t, tt.wantScore, res.Score, 0.001)
			assert.Equal(t, tt.wantReasons, res.Reasons)
		})
	}
}

func TestThresholdScorer_Disabled(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Fraud.Enabled = false

	res, err := NewThresholdScorer(cfg).Assess(context.Background(), uuid.New(), 90_000_000)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.False(t, res.NeedsReview())
	assert.False(t, res.IsHigh())
}
