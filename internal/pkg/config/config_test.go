//go:build unit

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, NewTestConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown time zone", func(c *Config) { c.Booking.TimeZone = "Mars/Olympus" }},
		{"zero hold minutes", func(c *Config) { c.Booking.HoldMinutes = 0 }},
		{"zero review days", func(c *Config) { c.Booking.ReviewHoldDays = 0 }},
		{"zero max nights", func(c *Config) { c.Booking.MaxNights = 0 }},
		{"zero page size", func(c *Config) { c.Booking.ExpirePageSize = 0 }},
		{"thresholds inverted", func(c *Config) { c.Fraud.HighThreshold = c.Fraud.MediumThreshold }},
		{"lock outlives interval", func(c *Config) { c.Worker.SweepLockTTL = 2 * time.Minute }},
		{"short webhook secret", func(c *Config) { c.Webhook.PaymentSecret = "short" }},
		{"unknown broker", func(c *Config) { c.Broker.Kind = "carrier-pigeon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBookingDurations(t *testing.T) {
	b := NewTestConfig().Booking
	assert.Equal(t, 15*time.Minute, b.HoldDuration())
	assert.Equal(t, 48*time.Hour, b.ReviewHoldDuration())
}
