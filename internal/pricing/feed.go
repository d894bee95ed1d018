package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Feed queries an external price service over HTTP. The service answers
// POST /api/prices with live platform offers for a product.
type Feed struct {
	baseURL string
	client  *http.Client
}

// NewFeed creates a feed client for the service at baseURL. A non-positive
// timeout falls back to 5 seconds.
func NewFeed(baseURL string, timeout time.Duration) *Feed {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Feed{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type feedRequest struct {
	Product  string `json:"product"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
}

// FeedPrice is one live offer returned by the price feed.
type FeedPrice struct {
	Platform string  `json:"platform"`
	Price    float64 `json:"price"`
	URL      string  `json:"url"`
}

type feedResponse struct {
	Prices []FeedPrice `json:"prices"`
}

// Lookup fetches live prices for a product. Any error is a signal to stay
// with estimated quotes.
func (f *Feed) Lookup(ctx context.Context, product, qty, category string) ([]FeedPrice, error) {
	reqBody := feedRequest{
		Product:  product,
		Quantity: qty,
		Category: category,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", f.baseURL+"/api/prices", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("price feed returned an error (status %d): %s", resp.StatusCode, string(body))
	}

	var feedResp feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feedResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return feedResp.Prices, nil
}
