package kite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.kite.trade"

// Transaction sides accepted by the order endpoints.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Client wraps REST access to the Kite Connect v3 API. Requests are
// throttled with a token bucket; Kite permits roughly 3 req/s per app.
type Client struct {
	APIKey      string
	AccessToken string
	BaseURL     string
	Exchange    string // default exchange prefix for instruments, e.g. "NSE"
	Product     string // order product, e.g. "MIS"
	HTTPClient  *http.Client

	limiter *rate.Limiter
}

// NewClient builds a Kite REST client. baseURL is overridable for tests;
// pass empty for production.
func NewClient(apiKey, accessToken, baseURL, exchange, product string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if exchange == "" {
		exchange = "NSE"
	}
	if product == "" {
		product = "MIS"
	}
	return &Client{
		APIKey:      apiKey,
		AccessToken: accessToken,
		BaseURL:     baseURL,
		Exchange:    exchange,
		Product:     product,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(3), 3),
	}
}

// SetAccessToken installs a freshly generated session token.
func (c *Client) SetAccessToken(token string) {
	c.AccessToken = token
}

// instrument renders "EXCHANGE:SYMBOL" for the quote endpoints.
func (c *Client) instrument(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if strings.Contains(symbol, ":") {
		return symbol
	}
	return c.Exchange + ":" + symbol
}

// do sends a request with Kite auth headers and decodes the envelope.
func (c *Client) do(ctx context.Context, method, path string, form url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Kite-Version", "3")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "token "+c.APIKey+":"+c.AccessToken)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kite %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("kite %s %s: decode: %w", method, path, err)
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("kite %s %s: %s (%s)", method, path, env.Message, env.ErrorType)
	}
	return env.Data, nil
}

// LTP returns the last traded price for a symbol.
func (c *Client) LTP(ctx context.Context, symbol string) (float64, error) {
	inst := c.instrument(symbol)
	data, err := c.do(ctx, http.MethodGet, "/quote/ltp?i="+url.QueryEscape(inst), nil)
	if err != nil {
		return 0, err
	}

	var quotes map[string]Quote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return 0, fmt.Errorf("kite ltp: decode: %w", err)
	}
	q, ok := quotes[inst]
	if !ok {
		return 0, fmt.Errorf("kite ltp: no quote for %s", inst)
	}
	return q.LastPrice, nil
}

// GetOHLC returns the OHLC snapshot plus last price for a symbol.
func (c *Client) GetOHLC(ctx context.Context, symbol string) (Quote, error) {
	inst := c.instrument(symbol)
	data, err := c.do(ctx, http.MethodGet, "/quote/ohlc?i="+url.QueryEscape(inst), nil)
	if err != nil {
		return Quote{}, err
	}

	var quotes map[string]Quote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return Quote{}, fmt.Errorf("kite ohlc: decode: %w", err)
	}
	q, ok := quotes[inst]
	if !ok {
		return Quote{}, fmt.Errorf("kite ohlc: no quote for %s", inst)
	}
	return q, nil
}

// PlaceMarketOrder submits a regular market order and returns the broker
// order id. Side must be SideBuy or SideSell.
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol, side string, qty int) (string, error) {
	form := url.Values{}
	form.Set("tradingsymbol", strings.ToUpper(symbol))
	form.Set("exchange", c.Exchange)
	form.Set("transaction_type", side)
	form.Set("order_type", "MARKET")
	form.Set("quantity", strconv.Itoa(qty))
	form.Set("product", c.Product)
	form.Set("validity", "DAY")

	data, err := c.do(ctx, http.MethodPost, "/orders/regular", form)
	if err != nil {
		return "", err
	}

	var out struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("kite place order: decode: %w", err)
	}
	return out.OrderID, nil
}

// CancelOrder cancels a pending regular order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/orders/regular/"+url.PathEscape(orderID), nil)
	return err
}

// Orders returns the day's order book.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	data, err := c.do(ctx, http.MethodGet, "/orders", nil)
	if err != nil {
		return nil, err
	}
	var out []Order
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("kite orders: decode: %w", err)
	}
	return out, nil
}

// Positions returns current net positions.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	data, err := c.do(ctx, http.MethodGet, "/portfolio/positions", nil)
	if err != nil {
		return nil, err
	}
	var out positionsData
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("kite positions: decode: %w", err)
	}
	return out.Net, nil
}

// Holdings returns long-term holdings.
func (c *Client) Holdings(ctx context.Context) ([]Holding, error) {
	data, err := c.do(ctx, http.MethodGet, "/portfolio/holdings", nil)
	if err != nil {
		return nil, err
	}
	var out []Holding
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("kite holdings: decode: %w", err)
	}
	return out, nil
}
