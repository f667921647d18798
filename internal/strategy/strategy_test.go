package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botdeck/backend/internal/model"
)

func gridConfig(settings map[string]interface{}) *model.BotConfig {
	return &model.BotConfig{
		BotType:  model.BotTypeGrid,
		Symbol:   "BTCUSDT",
		Settings: settings,
	}
}

func TestGridLevelsArithmetic(t *testing.T) {
	levels := GridLevels(100, 200, 4, GridModeArithmetic)
	require.Len(t, levels, 5)
	assert.InDeltaSlice(t, []float64{100, 125, 150, 175, 200}, levels, 1e-9)
}

func TestGridLevelsGeometric(t *testing.T) {
	levels := GridLevels(100, 400, 2, GridModeGeometric)
	require.Len(t, levels, 3)
	assert.InDelta(t, 100, levels[0], 1e-9)
	assert.InDelta(t, 200, levels[1], 1e-9)
	assert.Equal(t, 400.0, levels[2])
}

func TestGridLevelsSingleGrid(t *testing.T) {
	levels := GridLevels(100, 200, 1, GridModeArithmetic)
	require.Len(t, levels, 1)
	assert.InDelta(t, 150, levels[0], 1e-9)
}

func TestGridLevelsInvalidRange(t *testing.T) {
	assert.Nil(t, GridLevels(200, 100, 4, GridModeArithmetic))
	assert.Nil(t, GridLevels(0, 100, 4, GridModeArithmetic))
	assert.Nil(t, GridLevels(100, 200, 0, GridModeArithmetic))
}

func TestGridEvaluateBuyOnCrossDown(t *testing.T) {
	g := NewGrid(gridConfig(map[string]interface{}{
		"lower_price":      100.0,
		"upper_price":      200.0,
		"num_grids":        4.0,
		"investment_quote": 1000.0,
	}))
	g.Prime(160)

	// drop through the 150 level
	sig, level := g.Evaluate(148)
	assert.Equal(t, SignalBuy, sig)
	assert.InDelta(t, 150, level, 1e-9)

	// same level does not rebuy while bought
	g.Prime(160)
	sig, _ = g.Evaluate(148)
	assert.Equal(t, SignalNone, sig)
}

func TestGridEvaluateSellOnCrossUp(t *testing.T) {
	g := NewGrid(gridConfig(map[string]interface{}{
		"lower_price":      100.0,
		"upper_price":      200.0,
		"num_grids":        4.0,
		"investment_quote": 1000.0,
	}))
	g.Prime(160)

	sig, _ := g.Evaluate(148)
	require.Equal(t, SignalBuy, sig)

	// rise back through 175: sells and frees the 150 level
	sig, level := g.Evaluate(176)
	assert.Equal(t, SignalSell, sig)
	assert.InDelta(t, 175, level, 1e-9)

	// 150 is empty again, the next drop rebuys it
	g.Prime(160)
	sig, level = g.Evaluate(148)
	assert.Equal(t, SignalBuy, sig)
	assert.InDelta(t, 150, level, 1e-9)
}

func TestGridEvaluateNoSellWithoutPosition(t *testing.T) {
	g := NewGrid(gridConfig(map[string]interface{}{
		"lower_price":      100.0,
		"upper_price":      200.0,
		"num_grids":        4.0,
		"investment_quote": 1000.0,
	}))
	g.Prime(160)

	sig, _ := g.Evaluate(176)
	assert.Equal(t, SignalNone, sig)
}

func TestGridEvaluateOneTradePerCandle(t *testing.T) {
	g := NewGrid(gridConfig(map[string]interface{}{
		"lower_price":      100.0,
		"upper_price":      200.0,
		"num_grids":        4.0,
		"investment_quote": 1000.0,
	}))
	g.Prime(180)

	// candle crosses 175 and 150, only the lowest crossed buy fires
	sig, level := g.Evaluate(140)
	assert.Equal(t, SignalBuy, sig)
	assert.InDelta(t, 150, level, 1e-9)

	// next candle picks up the remaining level
	g.Prime(180)
	sig, level = g.Evaluate(140)
	assert.Equal(t, SignalBuy, sig)
	assert.InDelta(t, 175, level, 1e-9)
}

func TestGridOrderQuantity(t *testing.T) {
	g := NewGrid(gridConfig(map[string]interface{}{
		"lower_price":      100.0,
		"upper_price":      200.0,
		"num_grids":        4.0,
		"investment_quote": 1000.0,
	}))

	// entry at 160: buy levels are 100, 125, 150 -> 1000/3/160
	qty := g.OrderQuantity(160)
	assert.InDelta(t, 1000.0/3/160, qty, 1e-9)

	assert.Zero(t, g.OrderQuantity(0))
}

func TestMomentumEvaluate(t *testing.T) {
	m := &Momentum{
		RSIOversold:   30,
		RSIOverbought: 70,
		rsi:           []float64{25, 25, 75, 50},
		emaShort:      []float64{11, 9, 12, 9},
		emaLong:       []float64{10, 10, 10, 10},
		macd:          []float64{1, 1, 1, 1},
		macdSignal:    []float64{0.5, 0.5, 0.5, 0.5},
	}

	// all buy conditions met
	assert.Equal(t, SignalBuy, m.Evaluate(0, false))
	// ema cross not confirmed
	assert.Equal(t, SignalNone, m.Evaluate(1, false))
	// overbought while holding
	assert.Equal(t, SignalSell, m.Evaluate(2, true))
	// holding, no exit trigger
	assert.Equal(t, SignalNone, m.Evaluate(3, true))
	// index past prepared data
	assert.Equal(t, SignalNone, m.Evaluate(10, false))
}

func TestMomentumWarmupPeriod(t *testing.T) {
	m := &Momentum{RSIPeriod: 14, EMALongPeriod: 21, MACDSlow: 26, MACDSignal: 9}
	assert.Equal(t, 35, m.WarmupPeriod())

	m = &Momentum{RSIPeriod: 50, EMALongPeriod: 21, MACDSlow: 26, MACDSignal: 9}
	assert.Equal(t, 51, m.WarmupPeriod())
}

func TestDCAEvaluate(t *testing.T) {
	d := &DCA{OrderAmountQuote: 100, BuyIntervalSeconds: 3600}
	start := int64(1_700_000_000_000)
	d.Prime(start)

	// first candle buys immediately
	assert.Equal(t, SignalBuy, d.Evaluate(start, 1000))
	// interval not yet elapsed
	assert.Equal(t, SignalNone, d.Evaluate(start+1800*1000, 1000))
	// interval elapsed
	assert.Equal(t, SignalBuy, d.Evaluate(start+3600*1000, 1000))
	// insufficient balance defers the purchase
	assert.Equal(t, SignalNone, d.Evaluate(start+7200*1000, 50))
}

func TestDCAResetScheduleRetriesFailedFill(t *testing.T) {
	d := &DCA{OrderAmountQuote: 100, BuyIntervalSeconds: 3600}
	start := int64(1_700_000_000_000)
	d.Prime(start)

	// a buy signal whose order could not be filled rolls the schedule back
	assert.Equal(t, SignalBuy, d.Evaluate(start, 1000))
	d.ResetSchedule()

	// the very next candle retries instead of waiting out the interval
	assert.Equal(t, SignalBuy, d.Evaluate(start+60*1000, 1000))

	// a filled purchase keeps the schedule advanced
	assert.Equal(t, SignalNone, d.Evaluate(start+120*1000, 1000))
}

func TestDCANextPurchaseSkipsMissedIntervals(t *testing.T) {
	d := &DCA{OrderAmountQuote: 100, BuyIntervalSeconds: 3600}
	last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d.lastBuyMillis = last.UnixMilli()

	// stopped for 5.5 hours: schedule resumes at the next whole interval
	now := last.Add(5*time.Hour + 30*time.Minute)
	assert.Equal(t, last.Add(6*time.Hour), d.NextPurchase(now))

	// on schedule: next purchase is one interval out
	d.lastBuyMillis = now.UnixMilli()
	assert.Equal(t, now.Add(time.Hour), d.NextPurchase(now))
}

func TestNewDCALegacySettings(t *testing.T) {
	d := NewDCA(&model.BotConfig{
		BotType: model.BotTypeDCA,
		Settings: map[string]interface{}{
			"purchase_amount":          50.0,
			"purchase_frequency_hours": 24.0,
		},
	})
	assert.Equal(t, 50.0, d.OrderAmountQuote)
	assert.Equal(t, int64(86400), d.BuyIntervalSeconds)
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *model.BotConfig
		wantErr string
	}{
		{
			name: "valid momentum",
			cfg: &model.BotConfig{BotType: model.BotTypeMomentum, Settings: map[string]interface{}{
				"trade_amount_quote": 100.0,
			}},
		},
		{
			name: "momentum inverted rsi bands",
			cfg: &model.BotConfig{BotType: model.BotTypeMomentum, Settings: map[string]interface{}{
				"rsi_oversold":       80.0,
				"rsi_overbought":     20.0,
				"trade_amount_quote": 100.0,
			}},
			wantErr: "rsi_oversold",
		},
		{
			name: "valid grid",
			cfg: &model.BotConfig{BotType: model.BotTypeGrid, Settings: map[string]interface{}{
				"lower_price":      100.0,
				"upper_price":      200.0,
				"num_grids":        5.0,
				"investment_quote": 500.0,
			}},
		},
		{
			name: "grid upper below lower",
			cfg: &model.BotConfig{BotType: model.BotTypeGrid, Settings: map[string]interface{}{
				"lower_price":      200.0,
				"upper_price":      100.0,
				"num_grids":        5.0,
				"investment_quote": 500.0,
			}},
			wantErr: "upper_price",
		},
		{
			name: "grid bad mode",
			cfg: &model.BotConfig{BotType: model.BotTypeGrid, Settings: map[string]interface{}{
				"lower_price":      100.0,
				"upper_price":      200.0,
				"num_grids":        5.0,
				"grid_mode":        "fibonacci",
				"investment_quote": 500.0,
			}},
			wantErr: "grid_mode",
		},
		{
			name: "valid dca",
			cfg: &model.BotConfig{BotType: model.BotTypeDCA, Settings: map[string]interface{}{
				"order_amount_quote":   25.0,
				"buy_interval_seconds": 3600.0,
			}},
		},
		{
			name: "dca amount below exchange minimum",
			cfg: &model.BotConfig{BotType: model.BotTypeDCA, Settings: map[string]interface{}{
				"order_amount_quote":   5.0,
				"buy_interval_seconds": 3600.0,
			}},
			wantErr: "minimum",
		},
		{
			name:    "unknown bot type",
			cfg:     &model.BotConfig{BotType: "ScalpBot", Settings: map[string]interface{}{}},
			wantErr: "Unsupported bot type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings(tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
