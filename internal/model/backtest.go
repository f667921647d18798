package model

import "time"

// BacktestMetrics holds the derived performance metrics of a backtest run.
// Metrics are computed from trades and the equity curve, never set directly.
type BacktestMetrics struct {
	TotalPnL       float64 `json:"total_pnl"`
	TotalPnLPct    float64 `json:"total_pnl_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"`
	AvgTradePnL    float64 `json:"avg_trade_pnl"`
	TotalProfit    float64 `json:"total_profit"`
	TotalLoss      float64 `json:"total_loss"`
}

// EquityPoint is a single point of the equity curve
type EquityPoint struct {
	Timestamp int64   `json:"timestamp"` // milliseconds
	Equity    float64 `json:"equity"`
}

// BacktestResult represents the outcome of one backtest run
type BacktestResult struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	ConfigID       string          `json:"config_id"`
	BotType        string          `json:"bot_type"`
	Symbol         string          `json:"symbol"`
	StartDate      string          `json:"start_date"` // YYYY-MM-DD
	EndDate        string          `json:"end_date"`
	Interval       string          `json:"interval"`
	InitialCapital float64         `json:"initial_capital"`
	CommissionPct  float64         `json:"commission_pct"`
	Metrics        BacktestMetrics `json:"metrics"`
	Trades         []Trade         `json:"trades"`
	EquityCurve    []EquityPoint   `json:"equity_curve"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BacktestRequest represents a request to run a backtest
type BacktestRequest struct {
	StartDate      string  `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate        string  `json:"end_date" binding:"required,datetime=2006-01-02"`
	InitialCapital float64 `json:"initial_capital" binding:"required,gt=0"`
	CommissionPct  float64 `json:"commission_pct" binding:"omitempty,gte=0,lte=5"`
	Interval       string  `json:"interval" binding:"omitempty,oneof=1m 5m 15m 30m 1h 4h 1d"`
}

// BacktestResultSummary is the list view of a saved result, without the
// trade and equity payloads
type BacktestResultSummary struct {
	ID             string          `json:"id"`
	ConfigID       string          `json:"config_id"`
	BotType        string          `json:"bot_type"`
	Symbol         string          `json:"symbol"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	InitialCapital float64         `json:"initial_capital"`
	Metrics        BacktestMetrics `json:"metrics"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToSummary converts a BacktestResult to its list representation
func (r *BacktestResult) ToSummary() *BacktestResultSummary {
	return &BacktestResultSummary{
		ID:             r.ID,
		ConfigID:       r.ConfigID,
		BotType:        r.BotType,
		Symbol:         r.Symbol,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		InitialCapital: r.InitialCapital,
		Metrics:        r.Metrics,
		CreatedAt:      r.CreatedAt,
	}
}
