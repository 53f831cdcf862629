package finnhub

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

const defaultTimeout = 10 * time.Second

// Client is a minimal Finnhub REST client covering the endpoints the
// collection pipeline needs. The API key is sent as the token query param.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for the given base URL and API key
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("finnhub: HTTP %d: %s", e.StatusCode, e.Body)
}

// Quote is a price snapshot. Fields are pointers so an absent key in the
// payload stays distinguishable from a zero value.
type Quote struct {
	Current       *float64 `json:"c"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	Open          *float64 `json:"o"`
	PreviousClose *float64 `json:"pc"`
	Volume        *int64   `json:"v"`
}

// BasicFinancials holds the subset of the metric map the pipeline stores
type BasicFinancials struct {
	Metric Metric `json:"metric"`
}

// Metric is the slice of Finnhub's basic-financials metric map the pipeline
// reads. Values reported as millions stay in millions here.
type Metric struct {
	MarketCapitalization         *float64 `json:"marketCapitalization"`
	PEBasicExclExtraTTM          *float64 `json:"peBasicExclExtraTTM"`
	PBAnnual                     *float64 `json:"pbAnnual"`
	DividendYieldIndicatedAnnual *float64 `json:"dividendYieldIndicatedAnnual"`
}

// Profile is a company profile; only the industry classification is used
type Profile struct {
	Name            string `json:"name"`
	Exchange        string `json:"exchange"`
	FinnhubIndustry string `json:"finnhubIndustry"`
}

type indicatorResponse struct {
	SMA []float64 `json:"sma"`
}

// GetQuote fetches the current quote for a symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{"symbol": {symbol}}
	var q Quote
	if err := c.get(ctx, "/quote", params, &q); err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	return &q, nil
}

// GetBasicFinancials fetches the full metric map for a symbol
func (c *Client) GetBasicFinancials(ctx context.Context, symbol string) (*BasicFinancials, error) {
	params := url.Values{"symbol": {symbol}, "metric": {"all"}}
	var f BasicFinancials
	if err := c.get(ctx, "/stock/metric", params, &f); err != nil {
		return nil, fmt.Errorf("fetch financials for %s: %w", symbol, err)
	}
	return &f, nil
}

// GetProfile fetches the company profile for a symbol
func (c *Client) GetProfile(ctx context.Context, symbol string) (*Profile, error) {
	params := url.Values{"symbol": {symbol}}
	var p Profile
	if err := c.get(ctx, "/stock/profile2", params, &p); err != nil {
		return nil, fmt.Errorf("fetch profile for %s: %w", symbol, err)
	}
	return &p, nil
}

// GetSMA fetches a trailing simple-moving-average series for the given period
// at daily resolution. The window reaches back period+10 calendar days so the
// series always covers the full period.
func (c *Client) GetSMA(ctx context.Context, symbol string, period int) ([]float64, error) {
	now := time.Now()
	from := now.Add(-time.Duration(period+10) * 24 * time.Hour)

	params := url.Values{
		"symbol":     {symbol},
		"resolution": {"D"},
		"from":       {strconv.FormatInt(from.Unix(), 10)},
		"to":         {strconv.FormatInt(now.Unix(), 10)},
		"indicator":  {"sma"},
		"timeperiod": {strconv.Itoa(period)},
	}
	var r indicatorResponse
	if err := c.get(ctx, "/indicator", params, &r); err != nil {
		return nil, fmt.Errorf("fetch %d-day SMA for %s: %w", period, symbol, err)
	}
	return r.SMA, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
