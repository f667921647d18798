package service

import (
	"testing"

	"botdeck/backend/internal/config"
	"botdeck/backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func makeCurve(n int) []model.EquityPoint {
	curve := make([]model.EquityPoint, n)
	for i := range curve {
		curve[i] = model.EquityPoint{Timestamp: int64(i) * 1000, Equity: float64(1000 + i)}
	}
	return curve
}

func TestDownsample(t *testing.T) {
	curve := makeCurve(100)

	out := downsample(curve, 10)
	assert.Len(t, out, 10)
	assert.Equal(t, curve[0], out[0])
	assert.Equal(t, curve[99], out[9])

	// Short curves pass through unchanged
	short := makeCurve(5)
	assert.Equal(t, short, downsample(short, 10))

	// Degenerate targets pass through unchanged
	assert.Equal(t, curve, downsample(curve, 1))
}

func TestTruncate(t *testing.T) {
	svc := &BacktestService{cfg: config.BacktestConfig{MaxTrades: 3, MaxEquityPoints: 10}}

	pnl := 5.0
	result := &model.BacktestResult{
		Trades: []model.Trade{
			{Side: model.SideBuy}, {Side: model.SideSell, PnL: &pnl},
			{Side: model.SideBuy}, {Side: model.SideSell, PnL: &pnl},
		},
		EquityCurve: makeCurve(50),
	}

	out := svc.truncate(result)
	assert.Len(t, out.Trades, 3)
	assert.Len(t, out.EquityCurve, 10)
	assert.Equal(t, result.EquityCurve[49], out.EquityCurve[9])

	// Original stays untouched
	assert.Len(t, result.Trades, 4)
	assert.Len(t, result.EquityCurve, 50)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "<empty>", maskKey(""))
	assert.Equal(t, "****", maskKey("abcd"))
	assert.Equal(t, "ab****yz", maskKey("abcdefwxyz"))
}
