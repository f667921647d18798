package model

// SymbolPrice represents the current price of a symbol
type SymbolPrice struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// KlinesResponse represents historical candlestick data for a symbol
type KlinesResponse struct {
	Symbol   string      `json:"symbol"`
	Interval string      `json:"interval"`
	Klines   interface{} `json:"klines"`
}

// HeatmapPoint is a single cell of the market heatmap
type HeatmapPoint struct {
	X string  `json:"x"` // Symbol
	Y string  `json:"y"` // Metric name
	V float64 `json:"v"`
}

// HeatmapResponse is the grid payload consumed by the dashboard heatmap
type HeatmapResponse struct {
	Data    []HeatmapPoint `json:"data"`
	XLabels []string       `json:"xLabels"`
	YLabels []string       `json:"yLabels"`
}
