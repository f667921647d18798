package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrecisionFromStepSize(t *testing.T) {
	tests := []struct {
		stepSize string
		want     int
	}{
		{"0.00100000", 3},
		{"0.00000100", 6},
		{"1.00000000", 0},
		{"10.00000000", 0},
		{"0.1", 1},
		{"garbage", 8},
		{"0", 8},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PrecisionFromStepSize(tt.stepSize), "step size %s", tt.stepSize)
	}
}

func TestFormatQuantity(t *testing.T) {
	// Must round down, never up
	assert.Equal(t, "0.123", FormatQuantity(0.12399, "0.00100000"))
	assert.Equal(t, "5", FormatQuantity(5.987, "1.00000000"))
	assert.Equal(t, "0.000123", FormatQuantity(0.0001239, "0.00000100"))
}

func TestRoundToPrecision(t *testing.T) {
	assert.Equal(t, 1.2346, RoundToPrecision(1.23456, 4))
	assert.Equal(t, 1.23, RoundToPrecision(1.23456, 2))
	assert.InDelta(t, 100.0, RoundToPrecision(99.999, 2), 1e-9)
}
