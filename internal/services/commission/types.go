package commission

import (
	"context"
	"time"
)

// Service accrues the daily check-in commission.
type Service interface {
	// RecordDailyCheckIn records the owner's check-in for date (YYYY-MM-DD)
	// and credits the streak commission. An existing check-in for the date is
	// returned unchanged with AlreadyRecorded set.
	RecordDailyCheckIn(ctx context.Context, ownerID, date string) (*CheckInResult, error)
	// Today is the current calendar date in the operational timezone.
	Today() string
	GetSummary(ctx context.Context, ownerID string) (*Summary, error)
}

type Config struct {
	BaseBonusMinor   int64
	PerDayBonusMinor int64
	BonusCapMinor    int64
	Location         *time.Location
	CacheTTL         time.Duration
}

type CheckInResult struct {
	OwnerID         string `json:"owner_id"`
	Date            string `json:"date"`
	Streak          int    `json:"streak"`
	AmountMinor     int64  `json:"amount_minor"`
	Reference       string `json:"reference"`
	AlreadyRecorded bool   `json:"already_recorded"`
}

// Summary is the cached commission read model for an owner.
type Summary struct {
	OwnerID              string `json:"owner_id"`
	AsOf                 string `json:"as_of"`
	CurrentStreak        int    `json:"current_streak"`
	LastCheckInDate      string `json:"last_check_in_date,omitempty"`
	CheckedInToday       bool   `json:"checked_in_today"`
	TotalCommissionMinor int64  `json:"total_commission_minor"`
	NextBonusMinor       int64  `json:"next_bonus_minor"`
}
