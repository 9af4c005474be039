// Package hashdive fetches Polymarket trade activity per wallet from
// the Hashdive API and normalizes its records into the canonical
// trade schema.
package hashdive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the production Hashdive endpoint.
const DefaultBaseURL = "https://api.hashdive.io"

// Client is an HTTP client for the Hashdive trade API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a Hashdive client. apiKey may be empty for
// unauthenticated access.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// GetTrades fetches trade records for a wallet. A zero start time
// means no lower bound. Records are returned as raw JSON so the
// normalizer can both decode them and preserve them verbatim.
func (c *Client) GetTrades(ctx context.Context, walletAddress string, start time.Time, limit int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("wallet", walletAddress)
	params.Set("limit", strconv.Itoa(limit))
	if !start.IsZero() {
		params.Set("start_time", strconv.FormatInt(start.Unix(), 10))
	}

	endpoint := fmt.Sprintf("%s/get_trades?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trades for %s: %w", walletAddress, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch trades for %s: unexpected status %d", walletAddress, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	records, err := DecodeTradePage(body)
	if err != nil {
		return nil, fmt.Errorf("decode trades for %s: %w", walletAddress, err)
	}
	return records, nil
}

// tradePage covers the enveloped payload shapes the API has served
// historically.
type tradePage struct {
	Data   []json.RawMessage `json:"data"`
	Trades []json.RawMessage `json:"trades"`
}

// DecodeTradePage resolves the three historically-observed payload
// shapes (flat list, {"data": [...]} and {"trades": [...]}) into a
// uniform record sequence. Shape sniffing happens here, once, at the
// fetch boundary.
func DecodeTradePage(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("list payload: %w", err)
		}
		return records, nil
	case '{':
		var page tradePage
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("envelope payload: %w", err)
		}
		if page.Trades != nil {
			return page.Trades, nil
		}
		if page.Data != nil {
			return page.Data, nil
		}
		return nil, fmt.Errorf("envelope payload: no trades or data field")
	default:
		return nil, fmt.Errorf("unrecognized payload shape")
	}
}
