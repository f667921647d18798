package binance

// Kline represents a single candlestick
type Kline struct {
	OpenTime    int64   `json:"open_time"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	CloseTime   int64   `json:"close_time"`
	QuoteVolume float64 `json:"quote_volume"`
	TradeCount  int64   `json:"trade_count"`
}

// TickerPrice represents the latest price for a symbol
type TickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Ticker24h represents 24hr rolling window statistics for a symbol
type Ticker24h struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
}

// SymbolInfo holds the exchange filters we care about for a symbol
type SymbolInfo struct {
	Symbol      string `json:"symbol"`
	Status      string `json:"status"`
	BaseAsset   string `json:"baseAsset"`
	QuoteAsset  string `json:"quoteAsset"`
	StepSize    string `json:"step_size"`
	TickSize    string `json:"tick_size"`
	MinNotional string `json:"min_notional"`
}

// OrderResponse represents the response from order placement/query
type OrderResponse struct {
	Symbol              string `json:"symbol"`
	OrderID             int64  `json:"orderId"`
	ClientOrderID       string `json:"clientOrderId"`
	TransactTime        int64  `json:"transactTime"`
	Price               string `json:"price"`
	OrigQty             string `json:"origQty"`
	ExecutedQty         string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Status              string `json:"status"`
	Type                string `json:"type"`
	Side                string `json:"side"`
}

// AccountBalance represents a single asset balance
type AccountBalance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// AccountInfo represents account information
type AccountInfo struct {
	CanTrade   bool             `json:"canTrade"`
	UpdateTime int64            `json:"updateTime"`
	Balances   []AccountBalance `json:"balances"`
}

// APIError represents an error response from the exchange
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Order side constants
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order type constants
const (
	OrderTypeMarket = "MARKET"
	OrderTypeLimit  = "LIMIT"
)
