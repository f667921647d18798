package model

// WSMessageType represents the type of WebSocket message
type WSMessageType string

const (
	MessageTypePriceUpdate WSMessageType = "price_update"
	MessageTypeBotUpdate   WSMessageType = "bot_update"
	MessageTypeTradeUpdate WSMessageType = "trade_update"
	MessageTypeOrderUpdate WSMessageType = "order_update"
	MessageTypeError       WSMessageType = "error"
	MessageTypePong        WSMessageType = "pong"
)

// WSMessage is the envelope for all WebSocket messages
type WSMessage struct {
	Type    WSMessageType `json:"type"`
	Payload interface{}   `json:"payload"`
}

// WSBotUpdatePayload represents a bot status update pushed to the dashboard
type WSBotUpdatePayload struct {
	ConfigID     string  `json:"config_id"`
	Status       string  `json:"status"`
	Symbol       string  `json:"symbol"`
	LastSignal   string  `json:"last_signal,omitempty"`
	LastPrice    float64 `json:"last_price,omitempty"`
	BaseBalance  float64 `json:"base_balance"`
	QuoteBalance float64 `json:"quote_balance"`
	TradeCount   int     `json:"trade_count"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// WSTradePayload represents a trade executed by a running bot
type WSTradePayload struct {
	ConfigID string  `json:"config_id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	PnL      float64 `json:"pnl,omitempty"`
}
