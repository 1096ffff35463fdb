package models

import "time"

// Webhook outcomes recorded in the event journal.
const (
	WebhookOutcomeApplied   = "applied"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeUnknown   = "unknown_transaction"
	WebhookOutcomeConflict  = "conflict"
	WebhookOutcomeIgnored   = "ignored"
)

// WebhookEvent is an audit row for an authenticated provider callback.
type WebhookEvent struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	Event      string    `gorm:"not null;size:64" json:"event"`
	Reference  string    `gorm:"index;size:128" json:"reference"`
	Outcome    string    `gorm:"not null;size:32" json:"outcome"`
	Payload    JSON      `gorm:"type:jsonb" json:"payload,omitempty"`
	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
}
