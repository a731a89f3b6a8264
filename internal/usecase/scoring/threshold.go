package scoring

import (
	"context"
	"math"

	"staybook/internal/domain/fraud"
	"staybook/internal/pkg/config"

	"github.com/google/uuid"
)

const (
	ReasonAmountOverMedium = "amount_over_medium_threshold"
	ReasonAmountOverHigh   = "amount_over_high_threshold"
)

// ThresholdScorer grades a hold purely by its total amount.
type ThresholdScorer struct {
	enabled bool
	medium  int64
	high    int64
}

func NewThresholdScorer(cfg config.Config) *ThresholdScorer {
	return &ThresholdScorer{
		enabled: cfg.Fraud.Enabled,
		medium:  cfg.Fraud.MediumThreshold,
		high:    cfg.Fraud.HighThreshold,
	}
}

func (s *ThresholdScorer) Assess(_ context.Context, _ uuid.UUID, amount int64) (fraud.Result, error) {
	if !s.enabled {
		return fraud.SkippedResult(), nil
	}

	res := fraud.Result{
		Level:   fraud.LevelLow,
		Score:   s.score(amount),
		Reasons: []string{},
	}

	switch {
	case s.high > 0 && amount >= s.high:
		res.Level = fraud.LevelHigh
		res.Reasons = append(res.Reasons, ReasonAmountOverHigh)
	case s.medium > 0 && amount >= s.medium:
		res.Level = fraud.LevelMedium
		res.Reasons = append(res.Reasons, ReasonAmountOverMedium)
	}

	return res, nil
}

// score maps the amount onto 0..100 relative to the high threshold, two decimals.
func (s *ThresholdScorer) score(amount int64) float64 {
	if s.high <= 0 || amount <= 0 {
		return 0
	}
	v := float64(amount) / float64(s.high) * 100
	if v > 100 {
		v = 100
	}
	return math.Round(v*100) / 100
}
