// Package events publishes ledger lifecycle events for downstream consumers.
package events

import (
	"context"
	"time"
)

const (
	TypeWithdrawalInitiated  = "withdrawal.initiated"
	TypeTransactionCompleted = "transaction.completed"
	TypeTransactionFailed    = "transaction.failed"
	TypeCommissionAccrued    = "commission.accrued"
)

// Event is the message published after a ledger change commits.
type Event struct {
	Type        string    `json:"type"`
	OwnerID     string    `json:"owner_id"`
	Reference   string    `json:"reference"`
	TxType      string    `json:"transaction_type,omitempty"`
	AmountMinor int64     `json:"amount_minor"`
	Status      string    `json:"status,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
