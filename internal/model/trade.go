package model

import "time"

// Trade side constants
const (
	SideBuy   = "BUY"
	SideSell  = "SELL"
	SideClose = "CLOSE"
)

// Trade represents a single executed or simulated trade.
// A CLOSE side marks the end-of-data mark-to-market exit of an open position.
type Trade struct {
	EntryTimestamp int64    `json:"entry_timestamp"` // milliseconds
	ExitTimestamp  *int64   `json:"exit_timestamp,omitempty"`
	EntryPrice     float64  `json:"entry_price"`
	ExitPrice      *float64 `json:"exit_price,omitempty"`
	Quantity       float64  `json:"quantity"`
	PnL            *float64 `json:"pnl,omitempty"`
	Side           string   `json:"side"`
}

// Order status constants
const (
	OrderStatusNew             = "NEW"
	OrderStatusFilled          = "FILLED"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusCanceled        = "CANCELED"
	OrderStatusRejected        = "REJECTED"
)

// Order represents a live order placed through the exchange
type Order struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ConfigID        string    `json:"config_id,omitempty"` // Set when placed by a bot
	ExchangeOrderID int64     `json:"exchange_order_id"`
	Symbol          string    `json:"symbol"`
	Side            string    `json:"side"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	Price           float64   `json:"price,omitempty"`
	Quantity        float64   `json:"quantity,omitempty"`
	QuoteQuantity   float64   `json:"quote_quantity,omitempty"`
	ExecutedQty     float64   `json:"executed_qty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OrderRequest represents a manual order placement request
type OrderRequest struct {
	Symbol        string  `json:"symbol" binding:"required"`
	Side          string  `json:"side" binding:"required,oneof=BUY SELL"`
	Type          string  `json:"type" binding:"required,oneof=MARKET LIMIT"`
	Quantity      float64 `json:"quantity" binding:"omitempty,gt=0"`
	QuoteOrderQty float64 `json:"quote_order_qty" binding:"omitempty,gt=0"`
	Price         float64 `json:"price" binding:"omitempty,gt=0"`
}
