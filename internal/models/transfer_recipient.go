package models

import "time"

// TransferRecipient is a verified payout destination registered with the
// provider. It is created once per (BankCode, AccountNumber) and never updated.
type TransferRecipient struct {
	ID            uint      `gorm:"primarykey" json:"-"`
	BankCode      string    `gorm:"uniqueIndex:idx_recipient_destination;not null;size:16" json:"bank_code"`
	AccountNumber string    `gorm:"uniqueIndex:idx_recipient_destination;not null;size:32" json:"account_number"`
	AccountName   string    `gorm:"not null" json:"account_name"`
	RecipientCode string    `gorm:"not null;size:64" json:"recipient_code"`
	CreatedAt     time.Time `json:"created_at"`
}
