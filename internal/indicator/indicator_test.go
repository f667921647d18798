package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := SMA(values, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestSMAShortInput(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestEMA(t *testing.T) {
	values := []float64{10, 11, 12, 13, 14}
	out := EMA(values, 3) // alpha = 0.5

	require.Len(t, out, 5)
	assert.InDelta(t, 10.0, out[0], 1e-9)
	assert.InDelta(t, 10.5, out[1], 1e-9)
	assert.InDelta(t, 11.25, out[2], 1e-9)
	assert.InDelta(t, 12.125, out[3], 1e-9)
	assert.InDelta(t, 13.0625, out[4], 1e-9)
}

func TestRSIAllGains(t *testing.T) {
	// Monotonically rising prices have no losses, RSI pins at 100
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	out := RSI(values, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, math.IsNaN(out[i]), "index %d should be warm-up", i)
	}
	for i := 5; i < len(out); i++ {
		assert.InDelta(t, 100.0, out[i], 1e-9)
	}
}

func TestRSIAlternating(t *testing.T) {
	// Symmetric gains and losses keep RSI at 50 after the seed window
	values := []float64{10, 11, 10, 11, 10, 11, 10, 11, 10}
	out := RSI(values, 4)

	for i := 4; i < len(out); i++ {
		assert.InDelta(t, 50.0, out[i], 1.0)
	}
}

func TestRSIBounds(t *testing.T) {
	values := []float64{44, 47, 45, 50, 48, 52, 49, 53, 51, 55, 50, 54, 52, 56, 53}
	out := RSI(values, 14)

	last := out[len(out)-1]
	require.False(t, math.IsNaN(last))
	assert.Greater(t, last, 0.0)
	assert.Less(t, last, 100.0)
}

func TestMACD(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 100 + float64(i) // steady uptrend
	}

	macd, signal, hist := MACD(values, 12, 26, 9)
	require.Len(t, macd, 50)
	require.Len(t, signal, 50)
	require.Len(t, hist, 50)

	// In a steady uptrend the fast EMA leads the slow one
	assert.Greater(t, macd[49], 0.0)
	for i := range hist {
		assert.InDelta(t, macd[i]-signal[i], hist[i], 1e-9)
	}
}
