package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Credentials holds per-user exchange API credentials
type Credentials struct {
	Key    string
	Secret string
}

// signedRequest performs an authenticated request against a SIGNED endpoint.
// The signature is an HMAC-SHA256 of the encoded query string.
func (c *Client) signedRequest(ctx context.Context, method, path string, params url.Values, creds Credentials, dest interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")

	payload := params.Encode()
	signature := sign(payload, creds.Secret)
	endpoint := c.baseURL + path + "?" + payload + "&signature=" + signature

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", creds.Key)

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

	if dest == nil {
		return nil
	}
	return json.Unmarshal(body, dest)
}

func sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateCredentials validates API credentials by fetching account info
func (c *Client) ValidateCredentials(ctx context.Context, creds Credentials) (bool, error) {
	var info AccountInfo
	if err := c.signedRequest(ctx, http.MethodGet, "/api/v3/account", nil, creds, &info); err != nil {
		if apiErr, ok := err.(*APIError); ok {
			// -2014 invalid key format, -1022 bad signature
			if apiErr.Code == -2014 || apiErr.Code == -1022 {
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

// GetAccount gets account information including balances
func (c *Client) GetAccount(ctx context.Context, creds Credentials) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.signedRequest(ctx, http.MethodGet, "/api/v3/account", nil, creds, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateOrderParams holds parameters for order placement
type CreateOrderParams struct {
	Symbol        string
	Side          string // BUY or SELL
	Type          string // MARKET or LIMIT
	Quantity      float64
	QuoteOrderQty float64 // For MARKET orders by quote amount
	Price         float64 // Required for LIMIT orders
}

// CreateOrder places a new order
func (c *Client) CreateOrder(ctx context.Context, creds Credentials, p CreateOrderParams) (*OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", p.Symbol)
	params.Set("side", p.Side)
	params.Set("type", p.Type)

	switch p.Type {
	case OrderTypeMarket:
		if p.QuoteOrderQty > 0 {
			params.Set("quoteOrderQty", strconv.FormatFloat(p.QuoteOrderQty, 'f', -1, 64))
		} else {
			params.Set("quantity", strconv.FormatFloat(p.Quantity, 'f', -1, 64))
		}
	case OrderTypeLimit:
		params.Set("quantity", strconv.FormatFloat(p.Quantity, 'f', -1, 64))
		params.Set("price", strconv.FormatFloat(p.Price, 'f', -1, 64))
		params.Set("timeInForce", "GTC")
	default:
		return nil, fmt.Errorf("unsupported order type: %s", p.Type)
	}

	var order OrderResponse
	if err := c.signedRequest(ctx, http.MethodPost, "/api/v3/order", params, creds, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// CancelOrder cancels an open order
func (c *Client) CancelOrder(ctx context.Context, creds Credentials, symbol string, orderID int64) (*OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	var order OrderResponse
	if err := c.signedRequest(ctx, http.MethodDelete, "/api/v3/order", params, creds, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// GetOrder queries an order's status
func (c *Client) GetOrder(ctx context.Context, creds Credentials, symbol string, orderID int64) (*OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	var order OrderResponse
	if err := c.signedRequest(ctx, http.MethodGet, "/api/v3/order", params, creds, &order); err != nil {
		return nil, err
	}

	return &order, nil
}
