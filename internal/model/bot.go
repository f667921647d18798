package model

import "time"

// Bot status constants
const (
	BotStatusStopped  = "stopped"
	BotStatusStarting = "starting"
	BotStatusRunning  = "running"
	BotStatusError    = "error"
)

// Bot type constants
const (
	BotTypeMomentum = "MomentumBot"
	BotTypeGrid     = "GridBot"
	BotTypeDCA      = "DCABot"
)

// IsValidBotType reports whether t is a supported bot type
func IsValidBotType(t string) bool {
	switch t {
	case BotTypeMomentum, BotTypeGrid, BotTypeDCA:
		return true
	}
	return false
}

// BotConfig represents a saved strategy parameter set for a trading bot
type BotConfig struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	BotType   string                 `json:"bot_type"`
	Name      string                 `json:"name"`
	Symbol    string                 `json:"symbol"`
	Settings  map[string]interface{} `json:"settings"`
	IsEnabled bool                   `json:"is_enabled"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// SettingFloat returns a numeric setting, or def when absent or non-numeric.
// JSON numbers decode as float64 so that is the only numeric case to handle.
func (c *BotConfig) SettingFloat(key string, def float64) float64 {
	if c.Settings == nil {
		return def
	}
	if v, ok := c.Settings[key].(float64); ok {
		return v
	}
	return def
}

// SettingInt returns an integer setting, or def when absent or non-numeric
func (c *BotConfig) SettingInt(key string, def int) int {
	if c.Settings == nil {
		return def
	}
	if v, ok := c.Settings[key].(float64); ok {
		return int(v)
	}
	return def
}

// SettingString returns a string setting, or def when absent
func (c *BotConfig) SettingString(key, def string) string {
	if c.Settings == nil {
		return def
	}
	if v, ok := c.Settings[key].(string); ok {
		return v
	}
	return def
}

// BotConfigRequest represents the request to create/update a bot configuration
type BotConfigRequest struct {
	Name     string                 `json:"name" binding:"required,min=1,max=100"`
	BotType  string                 `json:"bot_type" binding:"required,oneof=MomentumBot GridBot DCABot"`
	Symbol   string                 `json:"symbol" binding:"required,min=5,max=20"`
	Settings map[string]interface{} `json:"settings" binding:"required"`
}

// BotStatus represents the runtime status of a configured bot
type BotStatus struct {
	ConfigID     string     `json:"config_id"`
	Name         string     `json:"name"`
	BotType      string     `json:"bot_type"`
	Symbol       string     `json:"symbol"`
	Status       string     `json:"status"`
	IsRunning    bool       `json:"is_running"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	LastTickAt   *time.Time `json:"last_tick_at,omitempty"`
	LastSignal   string     `json:"last_signal,omitempty"`
	LastPrice    float64    `json:"last_price,omitempty"`
	BaseBalance  float64    `json:"base_balance"`
	QuoteBalance float64    `json:"quote_balance"`
	TradeCount   int        `json:"trade_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
}
