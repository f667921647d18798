package strategy

import (
	"math"

	"botdeck/backend/internal/indicator"
	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
)

// Momentum default settings
const (
	DefaultRSIPeriod      = 14
	DefaultRSIOversold    = 30.0
	DefaultRSIOverbought  = 70.0
	DefaultEMAShortPeriod = 9
	DefaultEMALongPeriod  = 21
	DefaultMACDFast       = 12
	DefaultMACDSlow       = 26
	DefaultMACDSignal     = 9
)

// Momentum trades RSI extremes confirmed by MACD and an EMA crossover.
// Entry requires all three conditions; exit requires either RSI overbought
// or the short EMA falling below the long one.
type Momentum struct {
	RSIPeriod      int
	RSIOversold    float64
	RSIOverbought  float64
	EMAShortPeriod int
	EMALongPeriod  int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int

	rsi        []float64
	emaShort   []float64
	emaLong    []float64
	macd       []float64
	macdSignal []float64
}

// NewMomentum builds a momentum strategy from a bot configuration,
// falling back to defaults for missing settings
func NewMomentum(cfg *model.BotConfig) *Momentum {
	return &Momentum{
		RSIPeriod:      cfg.SettingInt("rsi_period", DefaultRSIPeriod),
		RSIOversold:    cfg.SettingFloat("rsi_oversold", DefaultRSIOversold),
		RSIOverbought:  cfg.SettingFloat("rsi_overbought", DefaultRSIOverbought),
		EMAShortPeriod: cfg.SettingInt("ema_short_period", DefaultEMAShortPeriod),
		EMALongPeriod:  cfg.SettingInt("ema_long_period", DefaultEMALongPeriod),
		MACDFast:       cfg.SettingInt("macd_fast", DefaultMACDFast),
		MACDSlow:       cfg.SettingInt("macd_slow", DefaultMACDSlow),
		MACDSignal:     cfg.SettingInt("macd_signal", DefaultMACDSignal),
	}
}

// WarmupPeriod returns the number of candles needed before signals are valid
func (m *Momentum) WarmupPeriod() int {
	warmup := m.RSIPeriod + 1
	if m.EMALongPeriod > warmup {
		warmup = m.EMALongPeriod
	}
	if m.MACDSlow+m.MACDSignal > warmup {
		warmup = m.MACDSlow + m.MACDSignal
	}
	return warmup
}

// Prepare computes all indicators over the close series. Must be called
// before Evaluate.
func (m *Momentum) Prepare(closes []float64) {
	m.rsi = indicator.RSI(closes, m.RSIPeriod)
	m.emaShort = indicator.EMA(closes, m.EMAShortPeriod)
	m.emaLong = indicator.EMA(closes, m.EMALongPeriod)
	m.macd, m.macdSignal, _ = indicator.MACD(closes, m.MACDFast, m.MACDSlow, m.MACDSignal)
}

// Evaluate returns the signal for candle i given the current position state
func (m *Momentum) Evaluate(i int, holding bool) Signal {
	if i >= len(m.rsi) || math.IsNaN(m.rsi[i]) {
		return SignalNone
	}

	if !holding {
		if m.rsi[i] < m.RSIOversold &&
			m.macd[i] > m.macdSignal[i] &&
			m.emaShort[i] > m.emaLong[i] {
			return SignalBuy
		}
		return SignalNone
	}

	if m.rsi[i] > m.RSIOverbought || m.emaShort[i] < m.emaLong[i] {
		return SignalSell
	}
	return SignalNone
}

func validateMomentumSettings(cfg *model.BotConfig) error {
	oversold := cfg.SettingFloat("rsi_oversold", DefaultRSIOversold)
	overbought := cfg.SettingFloat("rsi_overbought", DefaultRSIOverbought)
	if oversold >= overbought {
		return util.ErrValidation("rsi_oversold must be below rsi_overbought")
	}
	if cfg.SettingInt("rsi_period", DefaultRSIPeriod) < 2 {
		return util.ErrValidation("rsi_period must be at least 2")
	}
	if cfg.SettingInt("ema_short_period", DefaultEMAShortPeriod) >= cfg.SettingInt("ema_long_period", DefaultEMALongPeriod) {
		return util.ErrValidation("ema_short_period must be below ema_long_period")
	}
	if cfg.SettingFloat("trade_amount_quote", 0) <= 0 {
		return util.ErrValidation("trade_amount_quote must be positive")
	}
	return nil
}
