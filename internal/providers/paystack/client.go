// Package paystack is the payout provider client: account resolution,
// transfer recipients, transfers and balance, plus webhook signing.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ajo/internal/config"
	apperrors "ajo/internal/errors"
)

const defaultBaseURL = "https://api.paystack.co"

// Transfer statuses returned by the provider.
const (
	TransferStatusPending  = "pending"
	TransferStatusSuccess  = "success"
	TransferStatusOTP      = "otp"
	TransferStatusFailed   = "failed"
	TransferStatusReversed = "reversed"
)

type Client struct {
	BaseURL  string
	Currency string
	secret   string
	client   *http.Client
}

func NewClient(cfg config.PaystackConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "NGN"
	}
	return &Client{
		BaseURL:  base,
		Currency: currency,
		secret:   cfg.SecretKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is the common response shape: {"status": bool, "message": "", "data": {}}.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is a definitive refusal from the provider (4xx or status=false).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return apperrors.ErrProviderRejected
}

// IsRejection reports whether err is a definitive provider refusal, as
// opposed to a timeout or transport failure whose outcome is unknown.
func IsRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("paystack %s %s: server error %d", method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		return fmt.Errorf("paystack %s %s: decode response: %w", method, path, err)
	}
	if resp.StatusCode >= 400 || !env.Status {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("paystack %s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

// ResolveAccount returns the account holder name for a bank account.
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)

	var data struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
	}
	if err := c.do(ctx, http.MethodGet, "/bank/resolve?"+q.Encode(), nil, &data); err != nil {
		return "", err
	}
	if data.AccountName == "" {
		return "", apperrors.ErrUnresolvableAccount
	}
	return data.AccountName, nil
}

// CreateRecipient registers a NUBAN transfer recipient and returns its code.
func (c *Client) CreateRecipient(ctx context.Context, accountNumber, bankCode, accountName string) (string, error) {
	body := map[string]string{
		"type":           "nuban",
		"name":           accountName,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       c.Currency,
	}
	var data struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := c.do(ctx, http.MethodPost, "/transferrecipient", body, &data); err != nil {
		return "", err
	}
	if data.RecipientCode == "" {
		return "", errors.New("paystack: recipient created without a code")
	}
	return data.RecipientCode, nil
}

// CreateTransfer submits a balance transfer. reference doubles as the
// provider's idempotency key, so a resubmission never pays twice.
func (c *Client) CreateTransfer(ctx context.Context, amountMinor int64, recipientCode, reference string) (string, error) {
	body := map[string]interface{}{
		"source":    "balance",
		"amount":    amountMinor,
		"recipient": recipientCode,
		"reference": reference,
		"reason":    "Savings withdrawal",
		"currency":  c.Currency,
	}
	var data struct {
		Status       string `json:"status"`
		TransferCode string `json:"transfer_code"`
		Reference    string `json:"reference"`
	}
	log.Printf("[paystack] POST /transfer reference=%s amount=%d recipient=%s", reference, amountMinor, recipientCode)
	if err := c.do(ctx, http.MethodPost, "/transfer", body, &data); err != nil {
		log.Printf("[paystack] transfer %s error: %v", reference, err)
		return "", err
	}
	log.Printf("[paystack] transfer %s status=%s code=%s", reference, data.Status, data.TransferCode)
	return data.Status, nil
}

// GetBalance returns the available payout balance in the configured currency.
func (c *Client) GetBalance(ctx context.Context) (int64, error) {
	var data []struct {
		Currency string `json:"currency"`
		Balance  int64  `json:"balance"`
	}
	if err := c.do(ctx, http.MethodGet, "/balance", nil, &data); err != nil {
		return 0, err
	}
	for _, b := range data {
		if strings.EqualFold(b.Currency, c.Currency) {
			return b.Balance, nil
		}
	}
	return 0, nil
}
