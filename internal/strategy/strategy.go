// Package strategy implements the trading signal logic for the supported bot
// types. The same implementations drive both the backtest engine and the
// live bot runtime.
package strategy

import (
	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
)

// Signal is a trading decision produced by a strategy for a single candle
type Signal string

const (
	SignalNone Signal = ""
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

// ValidateSettings checks the strategy settings of a bot configuration.
// Unknown bot types are rejected; per-type constraints mirror what each
// strategy constructor expects.
func ValidateSettings(cfg *model.BotConfig) error {
	switch cfg.BotType {
	case model.BotTypeMomentum:
		return validateMomentumSettings(cfg)
	case model.BotTypeGrid:
		return validateGridSettings(cfg)
	case model.BotTypeDCA:
		return validateDCASettings(cfg)
	default:
		return util.ErrBadRequest("Unsupported bot type: " + cfg.BotType)
	}
}
