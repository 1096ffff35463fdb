package payout

import (
	"context"
	"time"
)

// Service initiates withdrawals against the payout provider.
type Service interface {
	InitiateWithdrawal(ctx context.Context, req WithdrawalRequest) (*WithdrawalResult, error)
}

// Provider is the money-transfer boundary. Errors that wrap
// errors.ErrProviderRejected are definitive refusals; any other error leaves
// the outcome unknown.
type Provider interface {
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error)
	CreateRecipient(ctx context.Context, accountNumber, bankCode, accountName string) (string, error)
	CreateTransfer(ctx context.Context, amountMinor int64, recipientCode, reference string) (string, error)
	GetBalance(ctx context.Context) (int64, error)
}

type Config struct {
	TransferTimeout time.Duration
}

type WithdrawalRequest struct {
	OwnerID       string
	AmountMinor   int64
	BankCode      string
	AccountNumber string
	Reference     string // optional client idempotency key
}

type WithdrawalResult struct {
	Reference      string `json:"reference"`
	Status         string `json:"status"`
	AmountMinor    int64  `json:"amount_minor"`
	RecipientCode  string `json:"recipient_code"`
	AccountName    string `json:"account_name"`
	ProviderStatus string `json:"provider_status,omitempty"`
}
