package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/expensetrade/backend/internal/model"
)

// Client is an HTTP client for the market data service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      RetryConfig
}

// NewClient creates a new market data client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: DefaultRetryConfig,
	}
}

// historyResponse represents the /history response from the market data
// service.
type historyResponse struct {
	Ticker string `json:"ticker"`
	Bars   []bar  `json:"bars"`
}

type bar struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// latestResponse represents the /latest response.
type latestResponse struct {
	Ticker string  `json:"ticker"`
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
}

// History fetches daily closing prices for ticker in [from, to].
func (c *Client) History(ctx context.Context, ticker string, from, to time.Time) ([]model.Quote, error) {
	return WithRetry(ctx, c.retry, func(ctx context.Context) ([]model.Quote, error) {
		q := url.Values{}
		q.Set("ticker", ticker)
		q.Set("from", from.Format("2006-01-02"))
		q.Set("to", to.Format("2006-01-02"))

		var out historyResponse
		if err := c.getJSON(ctx, "/v1/history?"+q.Encode(), ticker, &out); err != nil {
			return nil, err
		}

		quotes := make([]model.Quote, 0, len(out.Bars))
		for _, b := range out.Bars {
			date, err := time.Parse("2006-01-02", b.Date)
			if err != nil {
				return nil, &QuoteError{
					Code:    ErrMalformedResponse,
					Message: fmt.Sprintf("bad bar date %q for %s", b.Date, ticker),
					Cause:   err,
				}
			}
			quotes = append(quotes, model.Quote{Ticker: ticker, Date: date, Close: b.Close})
		}
		return quotes, nil
	})
}

// LatestClose fetches the most recent closing price for ticker.
func (c *Client) LatestClose(ctx context.Context, ticker string) (float64, error) {
	return WithRetry(ctx, c.retry, func(ctx context.Context) (float64, error) {
		var out latestResponse
		if err := c.getJSON(ctx, "/v1/latest?ticker="+url.QueryEscape(ticker), ticker, &out); err != nil {
			return 0, err
		}
		return out.Close, nil
	})
}

// getJSON executes a GET against the market data service and decodes the
// response, mapping HTTP status codes onto structured quote errors.
func (c *Client) getJSON(ctx context.Context, path, ticker string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &QuoteError{
			Code:      ErrProviderUnavailable,
			Message:   "market data request failed",
			Retryable: true,
			Cause:     err,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return &QuoteError{
			Code:    ErrUnknownTicker,
			Message: fmt.Sprintf("unknown ticker %s", ticker),
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &QuoteError{
			Code:      ErrProviderRateLimited,
			Message:   "market data rate limited",
			Retryable: true,
		}
	default:
		body, _ := io.ReadAll(resp.Body)
		return &QuoteError{
			Code:      ErrProviderUnavailable,
			Message:   fmt.Sprintf("market data returned status %d: %s", resp.StatusCode, string(body)),
			Retryable: resp.StatusCode >= 500,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &QuoteError{
			Code:    ErrMalformedResponse,
			Message: "decode response",
			Cause:   err,
		}
	}
	return nil
}
