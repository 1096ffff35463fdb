package models

import "time"

// CheckIn records one daily commission accrual. (OwnerID, Date) is unique.
type CheckIn struct {
	ID                   uint      `gorm:"primarykey" json:"-"`
	OwnerID              string    `gorm:"uniqueIndex:idx_check_in_owner_date;not null;size:64" json:"owner_id"`
	Date                 string    `gorm:"uniqueIndex:idx_check_in_owner_date;not null;size:10" json:"date"`
	StreakCount          int       `gorm:"not null" json:"streak_count"`
	AmountMinor          int64     `gorm:"not null" json:"amount_minor"`
	TransactionReference string    `gorm:"not null;size:128" json:"transaction_reference"`
	CreatedAt            time.Time `json:"created_at"`
}
