package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botdeck/backend/internal/model"
	"botdeck/backend/pkg/binance"
)

const hourMillis = int64(3600 * 1000)

func klinesFromCloses(closes []float64) []binance.Kline {
	ks := make([]binance.Kline, len(closes))
	for i, c := range closes {
		ks[i] = binance.Kline{
			OpenTime:  int64(i) * hourMillis,
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			CloseTime: int64(i+1)*hourMillis - 1,
		}
	}
	return ks
}

func TestRunEmptyKlines(t *testing.T) {
	cfg := &model.BotConfig{BotType: model.BotTypeDCA, Settings: map[string]interface{}{
		"order_amount_quote":   100.0,
		"buy_interval_seconds": 3600.0,
	}}

	res, err := Run(Params{Config: cfg, InitialCapital: 1000})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Empty(t, res.EquityCurve)
	assert.Zero(t, res.Metrics.TotalPnL)
	assert.Zero(t, res.Metrics.TotalTrades)
}

func TestRunRejectsInvalidSettings(t *testing.T) {
	cfg := &model.BotConfig{BotType: model.BotTypeDCA, Settings: map[string]interface{}{
		"order_amount_quote":   0.0,
		"buy_interval_seconds": 3600.0,
	}}

	_, err := Run(Params{Config: cfg, Klines: klinesFromCloses([]float64{100}), InitialCapital: 1000})
	require.Error(t, err)
}

func TestRunDCABuysOnSchedule(t *testing.T) {
	cfg := &model.BotConfig{BotType: model.BotTypeDCA, Symbol: "BTCUSDT", Settings: map[string]interface{}{
		"order_amount_quote":   100.0,
		"buy_interval_seconds": 7200.0, // every second hourly candle
	}}
	closes := []float64{100, 100, 100, 100, 100}

	res, err := Run(Params{Config: cfg, Klines: klinesFromCloses(closes), InitialCapital: 1000})
	require.NoError(t, err)

	// buys at candles 0, 2, 4 plus the end-of-data close of the position
	require.Len(t, res.Trades, 4)
	for _, tr := range res.Trades[:3] {
		assert.Equal(t, model.SideBuy, tr.Side)
		assert.InDelta(t, 1.0, tr.Quantity, 1e-9)
	}
	closeTrade := res.Trades[3]
	assert.Equal(t, model.SideClose, closeTrade.Side)
	assert.InDelta(t, 3.0, closeTrade.Quantity, 1e-9)
	require.NotNil(t, closeTrade.PnL)
	// flat price, no gain or loss
	assert.InDelta(t, 0.0, *closeTrade.PnL, 1e-9)
	assert.Zero(t, res.Metrics.TotalPnL)
}

func TestRunDCAStopsWhenBalanceExhausted(t *testing.T) {
	cfg := &model.BotConfig{BotType: model.BotTypeDCA, Settings: map[string]interface{}{
		"order_amount_quote":   100.0,
		"buy_interval_seconds": 3600.0,
	}}
	closes := []float64{100, 100, 100, 100}

	res, err := Run(Params{Config: cfg, Klines: klinesFromCloses(closes), InitialCapital: 250})
	require.NoError(t, err)

	buys := 0
	for _, tr := range res.Trades {
		if tr.Side == model.SideBuy {
			buys++
		}
	}
	// 250 covers two 100 purchases
	assert.Equal(t, 2, buys)
}

func TestRunGridBuyAndSell(t *testing.T) {
	cfg := &model.BotConfig{BotType: model.BotTypeGrid, Symbol: "BTCUSDT", Settings: map[string]interface{}{
		"lower_price":      100.0,
		"upper_price":      200.0,
		"num_grids":        4.0,
		"investment_quote": 600.0,
	}}
	// start at 160, drop through 150, recover through 175
	closes := []float64{160, 148, 176}

	res, err := Run(Params{Config: cfg, Klines: klinesFromCloses(closes), InitialCapital: 1000})
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	buyTrade := res.Trades[0]
	assert.Equal(t, model.SideBuy, buyTrade.Side)
	assert.Equal(t, 148.0, buyTrade.EntryPrice)
	// 600 across 3 buy levels, priced at the first close
	assert.InDelta(t, 200.0/160.0, buyTrade.Quantity, 1e-9)

	sellTrade := res.Trades[1]
	assert.Equal(t, model.SideSell, sellTrade.Side)
	require.NotNil(t, sellTrade.PnL)
	assert.InDelta(t, (176.0-148.0)*buyTrade.Quantity, *sellTrade.PnL, 1e-9)

	assert.True(t, res.Metrics.TotalPnL > 0)
	assert.Equal(t, 50.0, res.Metrics.WinRatePct) // 1 winning of 2 records
}

func TestRunOrdersTradesAndEquityByTimestamp(t *testing.T) {
	cfg := &model.BotConfig{BotType: model.BotTypeGrid, Symbol: "BTCUSDT", Settings: map[string]interface{}{
		"lower_price":      100.0,
		"upper_price":      200.0,
		"num_grids":        4.0,
		"investment_quote": 600.0,
	}}
	// oscillate across several levels so multiple buys and sells fire
	closes := []float64{160, 148, 176, 148, 122, 176, 130}

	res, err := Run(Params{Config: cfg, Klines: klinesFromCloses(closes), InitialCapital: 1000})
	require.NoError(t, err)
	require.Greater(t, len(res.Trades), 2)
	require.Greater(t, len(res.EquityCurve), 2)

	for i := 1; i < len(res.Trades); i++ {
		assert.GreaterOrEqual(t, res.Trades[i].EntryTimestamp, res.Trades[i-1].EntryTimestamp,
			"trade %d out of order", i)
	}
	for i := 1; i < len(res.EquityCurve); i++ {
		assert.Greater(t, res.EquityCurve[i].Timestamp, res.EquityCurve[i-1].Timestamp,
			"equity point %d out of order", i)
	}
}

func TestRunMomentumWarmupProducesNoEarlyTrades(t *testing.T) {
	cfg := &model.BotConfig{BotType: model.BotTypeMomentum, Symbol: "BTCUSDT", Settings: map[string]interface{}{
		"trade_amount_quote": 100.0,
	}}
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	res, err := Run(Params{Config: cfg, Klines: klinesFromCloses(closes), InitialCapital: 1000})
	require.NoError(t, err)
	// 20 candles is inside the indicator warm-up window
	assert.Empty(t, res.Trades)
	// initial point plus one per candle
	assert.Len(t, res.EquityCurve, 20)
}

func TestRunCommissionReducesPnL(t *testing.T) {
	cfg := &model.BotConfig{BotType: model.BotTypeGrid, Symbol: "BTCUSDT", Settings: map[string]interface{}{
		"lower_price":      100.0,
		"upper_price":      200.0,
		"num_grids":        4.0,
		"investment_quote": 600.0,
	}}
	closes := []float64{160, 148, 176}

	free, err := Run(Params{Config: cfg, Klines: klinesFromCloses(closes), InitialCapital: 1000})
	require.NoError(t, err)
	paid, err := Run(Params{Config: cfg, Klines: klinesFromCloses(closes), InitialCapital: 1000, CommissionPct: 0.1})
	require.NoError(t, err)

	assert.Less(t, paid.Metrics.TotalPnL, free.Metrics.TotalPnL)
}

func TestEquityCurveTracksPosition(t *testing.T) {
	cfg := &model.BotConfig{BotType: model.BotTypeDCA, Settings: map[string]interface{}{
		"order_amount_quote":   500.0,
		"buy_interval_seconds": 86400.0 * 365, // single buy
	}}
	closes := []float64{100, 120, 80}

	res, err := Run(Params{Config: cfg, Klines: klinesFromCloses(closes), InitialCapital: 1000})
	require.NoError(t, err)
	require.Len(t, res.EquityCurve, 3)

	// 5 units bought at 100: equity follows the price
	assert.InDelta(t, 1000, res.EquityCurve[0].Equity, 1e-9)
	assert.InDelta(t, 1100, res.EquityCurve[1].Equity, 1e-9)
	assert.InDelta(t, 900, res.EquityCurve[2].Equity, 1e-9)
}
