//go:build unit

package request

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBizDate(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("bizdate", validBizDate))

	type probe struct {
		Day string `validate:"bizdate"`
	}

	tests := []struct {
		in   string
		want bool
	}{
		{"2025-12-01", true},
		{"2025-12-01T00:00:00+09:00", true},
		{"2025-11-30T15:00:00Z", true},
		{"2025-11-30T15:00:00.123Z", true},
		{"2025-02-30", false},
		{"12/01/2025", false},
		{"2025-12-01 00:00", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := v.Struct(probe{Day: tt.in})
			assert.Equal(t, tt.want, err == nil, "input %q: %v", tt.in, err)
		})
	}
}
