package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client represents a Binance REST API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Binance client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// get performs a public GET request and decodes the JSON response into dest
func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, dest)
}

// GetPrice gets the latest price for a symbol
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var ticker TickerPrice
	if err := c.get(ctx, "/api/v3/ticker/price", params, &ticker); err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q for %s: %w", ticker.Price, symbol, err)
	}

	return price, nil
}

// GetPrices gets the latest prices for all symbols
func (c *Client) GetPrices(ctx context.Context) (map[string]float64, error) {
	var tickers []TickerPrice
	if err := c.get(ctx, "/api/v3/ticker/price", nil, &tickers); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		if price, err := strconv.ParseFloat(t.Price, 64); err == nil {
			prices[t.Symbol] = price
		}
	}

	return prices, nil
}

// GetKlines gets candlestick data for a symbol.
// startTime and endTime are in milliseconds; pass 0 to omit.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) ([]Kline, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	if startTime > 0 {
		params.Set("startTime", strconv.FormatInt(startTime, 10))
	}
	if endTime > 0 {
		params.Set("endTime", strconv.FormatInt(endTime, 10))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	// Klines come back as arrays of mixed types
	var raw [][]interface{}
	if err := c.get(ctx, "/api/v3/klines", params, &raw); err != nil {
		return nil, err
	}

	klines := make([]Kline, 0, len(raw))
	for _, row := range raw {
		k, err := parseKline(row)
		if err != nil {
			return nil, err
		}
		klines = append(klines, k)
	}

	return klines, nil
}

func parseKline(row []interface{}) (Kline, error) {
	if len(row) < 9 {
		return Kline{}, fmt.Errorf("malformed kline row: %d fields", len(row))
	}

	var k Kline
	var err error

	openTime, ok := row[0].(float64)
	if !ok {
		return Kline{}, fmt.Errorf("malformed kline open time")
	}
	k.OpenTime = int64(openTime)

	fields := []struct {
		idx  int
		dest *float64
	}{
		{1, &k.Open},
		{2, &k.High},
		{3, &k.Low},
		{4, &k.Close},
		{5, &k.Volume},
		{7, &k.QuoteVolume},
	}
	for _, f := range fields {
		s, ok := row[f.idx].(string)
		if !ok {
			return Kline{}, fmt.Errorf("malformed kline field %d", f.idx)
		}
		*f.dest, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return Kline{}, fmt.Errorf("malformed kline field %d: %w", f.idx, err)
		}
	}

	if closeTime, ok := row[6].(float64); ok {
		k.CloseTime = int64(closeTime)
	}
	if trades, ok := row[8].(float64); ok {
		k.TradeCount = int64(trades)
	}

	return k, nil
}

// GetTicker24h gets 24hr rolling window statistics for the given symbols.
// With an empty slice it returns statistics for all symbols.
func (c *Client) GetTicker24h(ctx context.Context, symbols []string) ([]Ticker24h, error) {
	params := url.Values{}
	if len(symbols) == 1 {
		params.Set("symbol", symbols[0])

		var ticker Ticker24h
		if err := c.get(ctx, "/api/v3/ticker/24hr", params, &ticker); err != nil {
			return nil, err
		}
		return []Ticker24h{ticker}, nil
	}

	if len(symbols) > 1 {
		encoded, err := json.Marshal(symbols)
		if err != nil {
			return nil, err
		}
		params.Set("symbols", string(encoded))
	}

	var tickers []Ticker24h
	if err := c.get(ctx, "/api/v3/ticker/24hr", params, &tickers); err != nil {
		return nil, err
	}

	return tickers, nil
}

// GetSymbolInfo gets exchange filters (step size, tick size, min notional) for a symbol
func (c *Client) GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var raw struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			Status     string `json:"status"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
			Filters    []struct {
				FilterType  string `json:"filterType"`
				StepSize    string `json:"stepSize"`
				TickSize    string `json:"tickSize"`
				MinNotional string `json:"minNotional"`
			} `json:"filters"`
		} `json:"symbols"`
	}

	if err := c.get(ctx, "/api/v3/exchangeInfo", params, &raw); err != nil {
		return nil, err
	}

	if len(raw.Symbols) == 0 {
		return nil, fmt.Errorf("symbol not found: %s", symbol)
	}

	s := raw.Symbols[0]
	info := &SymbolInfo{
		Symbol:     s.Symbol,
		Status:     s.Status,
		BaseAsset:  s.BaseAsset,
		QuoteAsset: s.QuoteAsset,
	}

	for _, f := range s.Filters {
		switch f.FilterType {
		case "LOT_SIZE":
			info.StepSize = f.StepSize
		case "PRICE_FILTER":
			info.TickSize = f.TickSize
		case "NOTIONAL", "MIN_NOTIONAL":
			info.MinNotional = f.MinNotional
		}
	}

	return info, nil
}

// Ping tests connectivity to the exchange
func (c *Client) Ping(ctx context.Context) error {
	var empty struct{}
	return c.get(ctx, "/api/v3/ping", nil, &empty)
}

// GetServerTime gets the exchange server time in milliseconds
func (c *Client) GetServerTime(ctx context.Context) (int64, error) {
	var result struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := c.get(ctx, "/api/v3/time", nil, &result); err != nil {
		return 0, err
	}
	return result.ServerTime, nil
}
