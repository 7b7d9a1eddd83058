// Package ledger implements the Ledger port against the custody ledger's
// HTTP API.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Client is an HTTP custody-ledger client
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new ledger client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "ledger").Logger(),
	}
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

// BalanceOf returns the on-hand balance of assetRef in the given account.
func (c *Client) BalanceOf(ctx context.Context, account, assetRef string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/accounts/%s/balances/%s",
		c.baseURL, url.PathEscape(account), url.PathEscape(assetRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build balance request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("balance request returned status %d", resp.StatusCode)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode balance response: %w", err)
	}

	balance, err := decimal.NewFromString(body.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable balance %q: %w", body.Balance, err)
	}
	return balance, nil
}

type transferRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	AssetRef string `json:"asset_ref"`
	Amount   string `json:"amount"`
}

// Transfer moves amount of assetRef between accounts. A non-2xx response
// means the ledger rejected the transfer and nothing moved.
func (c *Client) Transfer(ctx context.Context, from, to, assetRef string, amount decimal.Decimal) error {
	payload, err := json.Marshal(transferRequest{
		From:     from,
		To:       to,
		AssetRef: assetRef,
		Amount:   amount.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	endpoint := c.baseURL + "/v1/transfers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("transfer rejected with status %d: %s", resp.StatusCode, string(detail))
	}

	c.log.Debug().
		Str("from", from).
		Str("to", to).
		Str("asset", assetRef).
		Str("amount", amount.String()).
		Msg("Transfer applied")

	return nil
}
