package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc")
	t.Setenv("PAYSTACK_WEBHOOK_SECRET", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "sk_test_abc", cfg.Paystack.WebhookSecret)
	assert.Equal(t, 15*time.Second, cfg.Paystack.TransferTimeout)
	assert.Equal(t, int64(1000), cfg.Commission.BaseBonusMinor)
	assert.Nil(t, cfg.Kafka.Brokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PAYSTACK_TRANSFER_TIMEOUT", "3s")
	t.Setenv("COMMISSION_BONUS_CAP_MINOR", "9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 3*time.Second, cfg.Paystack.TransferTimeout)
	assert.Equal(t, int64(9000), cfg.Commission.BonusCapMinor)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 100, cfg.Database.MaxOpenConns)
}
