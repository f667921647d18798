package redis

import "fmt"

// Redis key patterns for the application
// Following the pattern: entity:id or entity:id:attribute

// User keys
func UserKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func UserByUsernameKey(username string) string {
	return fmt.Sprintf("user:username:%s", username)
}

func UserByEmailKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

// Session keys
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func UserSessionsKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

// Token blacklist
func TokenBlacklistKey(token string) string {
	return fmt.Sprintf("token_blacklist:%s", token)
}

func UserSettingsKey(userID string) string {
	return fmt.Sprintf("user_settings:%s", userID)
}

// API Key keys
func APIKeyKey(keyID string) string {
	return fmt.Sprintf("api_key:%s", keyID)
}

func UserAPIKeysKey(userID string) string {
	return fmt.Sprintf("user_api_keys:%s", userID)
}

// Bot configuration keys
func BotConfigKey(configID string) string {
	return fmt.Sprintf("bot_config:%s", configID)
}

func UserBotConfigsKey(userID string) string {
	return fmt.Sprintf("user_bot_configs:%s", userID)
}

func BotConfigsByTypeKey(botType string) string {
	return fmt.Sprintf("bot_configs_by_type:%s", botType)
}

// Bot runtime state keys
func BotStateKey(configID string) string {
	return fmt.Sprintf("bot_state:%s", configID)
}

// Backtest result keys
func BacktestResultKey(resultID string) string {
	return fmt.Sprintf("backtest_result:%s", resultID)
}

func UserBacktestResultsKey(userID string) string {
	return fmt.Sprintf("user_backtest_results:%s", userID)
}

func ConfigBacktestResultsKey(configID string) string {
	return fmt.Sprintf("config_backtest_results:%s", configID)
}

// Order keys
func OrderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

func UserOrdersKey(userID string) string {
	return fmt.Sprintf("user_orders:%s", userID)
}

// Rate limiting keys
func RateLimitKey(identifier, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, identifier)
}

// Market data cache keys
func CachePriceKey(symbol string) string {
	return fmt.Sprintf("cache:price:%s", symbol)
}

func CacheTickerKey(symbol string) string {
	return fmt.Sprintf("cache:ticker:%s", symbol)
}

func CacheKlinesKey(symbol, interval string) string {
	return fmt.Sprintf("cache:klines:%s:%s", symbol, interval)
}

func CacheExchangeInfoKey() string {
	return "cache:exchange_info"
}

// Pub/Sub channels
const (
	// Market update channels
	ChannelPriceUpdate = "channel:price_update"

	// Bot update channels
	ChannelBotStatusUpdate = "channel:bot_status_update"
	ChannelBotTradeUpdate  = "channel:bot_trade_update"

	// WebSocket bridge channels
	ChannelWSBroadcast = "channel:ws_broadcast"

	// User-specific channels
	ChannelUserPrefix = "channel:user:"
)

// UserChannel returns a user-specific channel
func UserChannel(userID string) string {
	return fmt.Sprintf("%s%s", ChannelUserPrefix, userID)
}

// UserFromChannel extracts the user ID from a user-specific channel name
func UserFromChannel(channel string) (string, bool) {
	if len(channel) > len(ChannelUserPrefix) && channel[:len(ChannelUserPrefix)] == ChannelUserPrefix {
		return channel[len(ChannelUserPrefix):], true
	}
	return "", false
}
