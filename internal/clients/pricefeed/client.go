// Package pricefeed implements the PriceFeed port against the price-feed
// gateway's HTTP API.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tokenfund/rebalancer/internal/domain"
)

// Client is an HTTP price-feed client
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new price-feed client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "pricefeed").Logger(),
	}
}

// quoteResponse is the gateway's wire format. Price is a string holding an
// integer in the source's native scale; parsing it through decimal keeps the
// value exact regardless of magnitude.
type quoteResponse struct {
	Price      string `json:"price"`
	Decimals   int32  `json:"decimals"`
	ObservedAt int64  `json:"observed_at"` // unix seconds
	Source     string `json:"source"`
}

// LatestQuote fetches the latest raw observation for a price source.
func (c *Client) LatestQuote(ctx context.Context, sourceRef string) (domain.FeedQuote, error) {
	endpoint := fmt.Sprintf("%s/v1/quotes/%s", c.baseURL, url.PathEscape(sourceRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.FeedQuote{}, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.FeedQuote{}, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.FeedQuote{}, fmt.Errorf("quote request returned status %d", resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.FeedQuote{}, fmt.Errorf("failed to decode quote response: %w", err)
	}

	price, err := decimal.NewFromString(body.Price)
	if err != nil {
		return domain.FeedQuote{}, fmt.Errorf("unparseable price %q: %w", body.Price, err)
	}

	c.log.Debug().
		Str("source", sourceRef).
		Str("price", body.Price).
		Int32("decimals", body.Decimals).
		Msg("Quote fetched")

	return domain.FeedQuote{
		Price:      price,
		Decimals:   body.Decimals,
		ObservedAt: time.Unix(body.ObservedAt, 0).UTC(),
	}, nil
}
