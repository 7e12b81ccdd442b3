// Package paystack is a minimal client for the Paystack transaction API,
// used to verify payment references before a booking is recorded.
package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://api.paystack.co"

var (
	ErrTransactionNotFound = errors.New("paystack: transaction not found")
	ErrTransactionFailed   = errors.New("paystack: transaction was not successful")
)

// Transaction is the subset of Paystack's verify response the platform uses.
type Transaction struct {
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Channel   string    `json:"channel"`
	PaidAt    time.Time `json:"paid_at"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Successful reports whether the transaction completed.
func (t *Transaction) Successful() bool {
	return t.Status == "success"
}

type verifyResponse struct {
	Status  bool         `json:"status"`
	Message string       `json:"message"`
	Data    *Transaction `json:"data"`
}

// Verifier verifies a payment reference against the provider.
type Verifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*Transaction, error)
}

// Client calls the Paystack REST API with a secret key.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// VerifyTransaction fetches the transaction for a reference. It returns
// ErrTransactionNotFound for unknown references and ErrTransactionFailed
// when the transaction exists but did not succeed.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify transaction: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read verify response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack: verify returned status %d", resp.StatusCode)
	}

	var payload verifyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	if !payload.Status || payload.Data == nil {
		return nil, ErrTransactionNotFound
	}
	if !payload.Data.Successful() {
		return nil, fmt.Errorf("%w: status %q", ErrTransactionFailed, payload.Data.Status)
	}
	return payload.Data, nil
}
