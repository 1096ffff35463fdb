package models

import (
	"time"
)

// Wallet is a cache of the owner's reconciled balance. The transactions table
// is the source of truth; see services/ledger.
type Wallet struct {
	ID                    uint       `gorm:"primarykey" json:"-"`
	OwnerID               string     `gorm:"uniqueIndex;not null;size:64" json:"owner_id"`
	BalanceMinor          int64      `gorm:"not null;default:0" json:"balance_minor"`
	TotalContributedMinor int64      `gorm:"not null;default:0" json:"total_contributed_minor"`
	TotalWithdrawnMinor   int64      `gorm:"not null;default:0" json:"total_withdrawn_minor"`
	LastActivityAt        *time.Time `json:"last_activity_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
