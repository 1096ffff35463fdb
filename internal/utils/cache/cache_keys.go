package cache

import (
	"fmt"
)

type EntityType string

const (
	EntityCommission EntityType = "commission"
)

type KeyType string

const (
	KeySummary KeyType = "summary"
	KeyStreak  KeyType = "streak"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}

// CommissionSummaryKey is the cache key for an owner's commission summary.
func CommissionSummaryKey(ownerID string) string {
	return GenerateKey(EntityCommission, KeySummary, ownerID)
}

// StreakKey is the cache key for an owner's streak status.
func StreakKey(ownerID string) string {
	return GenerateKey(EntityCommission, KeyStreak, ownerID)
}

// OwnerKeys lists every cached read model derived from the owner's check-ins.
// Invalidate all of them whenever a check-in is recorded.
func OwnerKeys(ownerID string) []string {
	return []string{
		CommissionSummaryKey(ownerID),
		StreakKey(ownerID),
	}
}
