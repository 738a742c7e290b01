// Package gateway is the REST client for the external payment processor.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/threadcart/backend/internal/domain/checkout"
)

var _ checkout.Gateway = (*Client)(nil)

// Client talks to the payment gateway's order API over basic-auth REST.
// It is an explicit dependency handed to its consumers at construction,
// never a package-level singleton.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

// NewClient creates a gateway Client. baseURL has no trailing slash.
func NewClient(baseURL, keyID, keySecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// createOrderReq mirrors the gateway's order creation body. Amounts are in
// minor currency units (paise, cents).
type createOrderReq struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResp struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder opens a charge order at the gateway for the given amount.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*checkout.GatewayOrder, error) {
	body, err := json.Marshal(createOrderReq{
		Amount:   amount.Shift(2).IntPart(),
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal order request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build order request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call gateway")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bounded read keeps a misbehaving gateway from ballooning the error.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("gateway returned %d: %s", resp.StatusCode, snippet)
	}

	var out createOrderResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode gateway response")
	}

	return &checkout.GatewayOrder{
		ID:       out.ID,
		Amount:   decimal.New(out.Amount, -2),
		Currency: out.Currency,
		Receipt:  out.Receipt,
	}, nil
}
