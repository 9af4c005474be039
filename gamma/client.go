// Package gamma fetches market and event listings from the Polymarket
// Gamma API, used to feed the insider-market classifier.
package gamma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Gamma endpoint.
const DefaultBaseURL = "https://gamma-api.polymarket.com"

// Market is one Polymarket market from the Gamma API.
type Market struct {
	ID        string  `json:"id"`
	Question  string  `json:"question"`
	Slug      string  `json:"slug"`
	Active    bool    `json:"active"`
	Closed    bool    `json:"closed"`
	Volume    string  `json:"volume"`
	VolumeNum float64 `json:"volumeNum"`
}

// Event is one Polymarket event (a group of related markets).
type Event struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Active bool   `json:"active"`
}

// Client is an HTTP client for the Gamma API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Gamma client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetTopMarkets fetches active markets, sorted by the API's own
// volume ranking.
func (c *Client) GetTopMarkets(ctx context.Context, limit int) ([]Market, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/markets?closed=false&limit=%d", c.baseURL, limit))
	if err != nil {
		return nil, err
	}

	var markets []Market
	if err := decodeListing(body, &markets); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}
	return markets, nil
}

// GetTopEvents fetches active events.
func (c *Client) GetTopEvents(ctx context.Context, limit int) ([]Event, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/events?archived=false&limit=%d", c.baseURL, limit))
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := decodeListing(body, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gamma request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gamma request: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// decodeListing handles both response shapes the API has served: a
// bare list and a {"data": [...]} envelope.
func decodeListing(body []byte, dest any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return err
		}
		if envelope.Data == nil {
			return fmt.Errorf("envelope without data field")
		}
		trimmed = envelope.Data
	}
	return json.Unmarshal(trimmed, dest)
}
