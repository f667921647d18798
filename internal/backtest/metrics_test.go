package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"botdeck/backend/internal/model"
)

func pnlTrade(pnl float64) model.Trade {
	return model.Trade{Side: model.SideSell, PnL: &pnl}
}

func equityFrom(values ...float64) []model.EquityPoint {
	pts := make([]model.EquityPoint, len(values))
	for i, v := range values {
		pts[i] = model.EquityPoint{Timestamp: int64(i) * hourMillis, Equity: v}
	}
	return pts
}

func TestCalculateMetricsEmpty(t *testing.T) {
	m := CalculateMetrics(nil, nil, 1000)
	assert.Zero(t, m.TotalTrades)
	assert.Zero(t, m.TotalPnL)
	assert.Zero(t, m.SharpeRatio)
}

func TestCalculateMetricsTotalPnL(t *testing.T) {
	trades := []model.Trade{pnlTrade(100)}
	m := CalculateMetrics(trades, equityFrom(1000, 1100), 1000)

	assert.Equal(t, 100.0, m.TotalPnL)
	assert.Equal(t, 10.0, m.TotalPnLPct)
	assert.Equal(t, 1, m.TotalTrades)
}

func TestWinRateCountsEntryRecords(t *testing.T) {
	// buy records carry no pnl and count against the win rate, matching
	// how the trade log mixes entries and realized exits
	trades := []model.Trade{
		{Side: model.SideBuy},
		pnlTrade(50),
		pnlTrade(-20),
		pnlTrade(30),
	}
	m := CalculateMetrics(trades, equityFrom(1000, 1060), 1000)

	assert.Equal(t, 50.0, m.WinRatePct) // 2 winners of 4 records
	assert.Equal(t, 80.0, m.TotalProfit)
	assert.Equal(t, 20.0, m.TotalLoss)
	assert.Equal(t, 4.0, m.ProfitFactor)
	assert.Equal(t, 20.0, m.AvgTradePnL)
}

func TestProfitFactorNoLosses(t *testing.T) {
	assert.Equal(t, maxProfitFactor, profitFactor(50, 0))
	assert.Zero(t, profitFactor(0, 0))
}

func TestMaxDrawdown(t *testing.T) {
	// peak 1200, trough 900: drawdown 300 abs, 25 pct
	abs, pct := maxDrawdown(equityFrom(1000, 1200, 900, 1100))
	assert.Equal(t, 300.0, abs)
	assert.Equal(t, 25.0, pct)
}

func TestMaxDrawdownMonotonicCurve(t *testing.T) {
	abs, pct := maxDrawdown(equityFrom(1000, 1100, 1200))
	assert.Zero(t, abs)
	assert.Zero(t, pct)
}

func TestSharpeRatioFlatCurveIsZero(t *testing.T) {
	assert.Zero(t, sharpeRatio(equityFrom(1000, 1000, 1000)))
	assert.Zero(t, sharpeRatio(equityFrom(1000)))
}

func TestSharpeRatioPositiveForSteadyGains(t *testing.T) {
	s := sharpeRatio(equityFrom(1000, 1010, 1025, 1030, 1050))
	assert.True(t, s > 0)
}
