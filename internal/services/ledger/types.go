package ledger

import (
	"context"
	"time"

	"ajo/internal/models"
)

// Service is the ledger write path. All balance changes go through it.
type Service interface {
	// Balance calculator
	Recompute(ctx context.Context, ownerID string) (int64, error)
	GetBalance(ctx context.Context, ownerID string) (*Balance, error)

	// Transaction state machine
	Create(ctx context.Context, req CreateRequest) (*models.Transaction, error)
	Post(ctx context.Context, req CreateRequest) (*models.Transaction, error)
	Complete(ctx context.Context, reference string, metadata models.JSON) (*models.Transaction, error)
	Fail(ctx context.Context, reference string, metadata models.JSON) (*models.Transaction, error)
	Discard(ctx context.Context, reference string) error

	// Reads
	GetTransaction(ctx context.Context, ownerID, reference string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.Transaction, int64, error)
}

// CreateRequest describes a new ledger row. AmountMinor is a positive
// magnitude; the sign is derived from Type.
type CreateRequest struct {
	OwnerID     string
	Type        string
	AmountMinor int64
	Reference   string
	Status      string // empty selects the default for Type
	Metadata    models.JSON
}

// Balance is the reconciled view of a wallet.
type Balance struct {
	OwnerID               string     `json:"owner_id"`
	BalanceMinor          int64      `json:"balance_minor"`
	PendingMinor          int64      `json:"pending_withdrawals_minor"`
	TotalContributedMinor int64      `json:"total_contributed_minor"`
	TotalWithdrawnMinor   int64      `json:"total_withdrawn_minor"`
	LastActivityAt        *time.Time `json:"last_activity_at,omitempty"`
}
