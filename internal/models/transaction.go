package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeCommission = "commission"
	TransactionTypePenalty    = "penalty"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Metadata keys written by the engine.
const (
	MetaRecipientCode    = "recipient_code"
	MetaBankCode         = "bank_code"
	MetaAccountNumber    = "account_number"
	MetaAccountName      = "account_name"
	MetaProviderStatus   = "provider_status"
	MetaProcessingTime   = "processing_time"
	MetaStreakCount      = "streak_count"
	MetaCheckInDate      = "check_in_date"
	MetaFailureReason    = "failure_reason"
	MetaProviderEvent    = "provider_event"
	MetaCompensatedMinor = "compensated_minor"
)

// Transaction is an append-only ledger row. Only Status, CompletedAt and
// Metadata change after creation.
type Transaction struct {
	ID          uint       `gorm:"primarykey" json:"-"`
	OwnerID     string     `gorm:"index;not null;size:64" json:"owner_id"`
	Type        string     `gorm:"not null;size:16" json:"type"`
	AmountMinor int64      `gorm:"not null" json:"amount_minor"`
	Reference   string     `gorm:"uniqueIndex;not null;size:128" json:"reference"`
	Status      string     `gorm:"index;not null;default:'pending';size:16" json:"status"`
	Metadata    JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the transaction can no longer change status.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

// IsHold reports whether the row is an in-flight withdrawal whose amount is
// already reserved against the wallet.
func (t *Transaction) IsHold() bool {
	return t.Type == TransactionTypeWithdrawal && t.Status == TransactionStatusPending
}
