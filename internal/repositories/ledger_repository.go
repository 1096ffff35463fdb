package repositories

import (
	"context"
	"errors"
	"time"

	"ajo/internal/models"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCheckInNotFound     = errors.New("check-in not found")
	ErrRecipientNotFound   = errors.New("transfer recipient not found")
	ErrDuplicateKey        = errors.New("duplicate key")
)

// LedgerRepository is the store adapter for wallets, ledger transactions,
// check-ins, transfer recipients and the webhook journal. Callers that need
// several operations to commit together use ExecuteInTransaction.
type LedgerRepository interface {
	// Wallets
	GetWallet(ctx context.Context, ownerID string) (*models.Wallet, error)
	GetWalletForUpdate(ctx context.Context, ownerID string) (*models.Wallet, error)
	UpsertWallet(ctx context.Context, wallet *models.Wallet) error

	// Transactions
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransactionStatus(ctx context.Context, reference, status string, completedAt *time.Time, metadata models.JSON) error
	DeleteTransaction(ctx context.Context, reference string) error
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.Transaction, int64, error)
	SumCompletedTransactions(ctx context.Context, ownerID string) (int64, error)
	AggregateTransactions(ctx context.Context, ownerID string) (*TransactionTotals, error)

	// Check-ins
	GetCheckIn(ctx context.Context, ownerID, date string) (*models.CheckIn, error)
	LatestCheckIn(ctx context.Context, ownerID string) (*models.CheckIn, error)
	CreateCheckIn(ctx context.Context, checkIn *models.CheckIn) error

	// Transfer recipients
	FindRecipient(ctx context.Context, bankCode, accountNumber string) (*models.TransferRecipient, error)
	CreateRecipient(ctx context.Context, recipient *models.TransferRecipient) error

	RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) error

	ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error
	Ping(ctx context.Context) error
}

// TransactionTotals aggregates an owner's ledger in one pass.
type TransactionTotals struct {
	CompletedMinor   int64 // signed sum of completed rows
	HeldMinor        int64 // signed sum of pending withdrawals, <= 0
	ContributedMinor int64 // completed deposits
	WithdrawnMinor   int64 // completed withdrawals, as a positive number
	CommissionMinor  int64 // completed commissions
}

// AvailableMinor is the spendable balance: settled funds minus in-flight holds.
func (t *TransactionTotals) AvailableMinor() int64 {
	return t.CompletedMinor + t.HeldMinor
}
