package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ajo/internal/clock"
	apperrors "ajo/internal/errors"
	"ajo/internal/models"
	"ajo/internal/providers/paystack"
	"ajo/internal/repositories"
	"ajo/internal/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret = "whsec_test"
	owner  = "owner-1"
)

type fixture struct {
	repo   *repositories.MemoryLedgerRepository
	ledger ledger.Service
	svc    Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repositories.NewMemoryLedgerRepository()
	clk := clock.FixedClock{At: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	ledgerSvc := ledger.NewService(repo, clk, nil, nil)
	return &fixture{
		repo:   repo,
		ledger: ledgerSvc,
		svc:    NewService(repo, ledgerSvc, ledger.NewOwnerLocks(), clk, Config{Secret: secret}, nil),
	}
}

// withPendingWithdrawal funds the owner with 50 000 and holds 10 000 under wd-1.
func (f *fixture) withPendingWithdrawal(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.ledger.Post(ctx, ledger.CreateRequest{OwnerID: owner, Type: models.TransactionTypeDeposit, AmountMinor: 50000, Reference: "dep-1"})
	require.NoError(t, err)
	_, err = f.ledger.Create(ctx, ledger.CreateRequest{OwnerID: owner, Type: models.TransactionTypeWithdrawal, AmountMinor: 10000, Reference: "wd-1"})
	require.NoError(t, err)
	require.Equal(t, int64(40000), f.balance(t))
}

func (f *fixture) balance(t *testing.T) int64 {
	t.Helper()
	b, err := f.ledger.Recompute(context.Background(), owner)
	require.NoError(t, err)
	return b
}

func (f *fixture) status(t *testing.T, ref string) string {
	t.Helper()
	tx, err := f.repo.FindTransactionByReference(context.Background(), ref)
	require.NoError(t, err)
	return tx.Status
}

func body(t *testing.T, event string, data map[string]interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	require.NoError(t, err)
	return b
}

func (f *fixture) deliver(t *testing.T, raw []byte) (*Ack, error) {
	t.Helper()
	return f.svc.HandleProviderEvent(context.Background(), raw, paystack.Sign(secret, raw))
}

func TestTransferSuccess_CompletesWithoutBalanceChange(t *testing.T) {
	f := newFixture(t)
	f.withPendingWithdrawal(t)

	ack, err := f.deliver(t, body(t, EventTransferSuccess, map[string]interface{}{"reference": "wd-1", "amount": 10000, "status": "success"}))
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeApplied, ack.Outcome)
	assert.Equal(t, models.TransactionStatusCompleted, f.status(t, "wd-1"))
	assert.Equal(t, int64(40000), f.balance(t))

	ack, err = f.deliver(t, body(t, EventTransferSuccess, map[string]interface{}{"reference": "wd-1", "amount": 10000, "status": "success"}))
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeDuplicate, ack.Outcome)
	assert.Equal(t, int64(40000), f.balance(t))
}

func TestTransferFailed_CompensatesOnce(t *testing.T) {
	for _, event := range []string{EventTransferFailed, EventTransferReversed} {
		t.Run(event, func(t *testing.T) {
			f := newFixture(t)
			f.withPendingWithdrawal(t)
			raw := body(t, event, map[string]interface{}{"reference": "wd-1", "amount": 10000, "status": "failed", "reason": "Account closed"})

			ack, err := f.deliver(t, raw)
			require.NoError(t, err)
			assert.Equal(t, models.WebhookOutcomeApplied, ack.Outcome)
			assert.Equal(t, models.TransactionStatusFailed, f.status(t, "wd-1"))
			assert.Equal(t, int64(50000), f.balance(t))

			ack, err = f.deliver(t, raw)
			require.NoError(t, err)
			assert.Equal(t, models.WebhookOutcomeDuplicate, ack.Outcome)
			assert.Equal(t, int64(50000), f.balance(t))

			tx, err := f.repo.FindTransactionByReference(context.Background(), "wd-1")
			require.NoError(t, err)
			assert.Equal(t, "Account closed", tx.Metadata.String(models.MetaFailureReason))
		})
	}
}

func TestReversalAfterSuccess_IsConflictWithoutStateChange(t *testing.T) {
	f := newFixture(t)
	f.withPendingWithdrawal(t)

	_, err := f.deliver(t, body(t, EventTransferSuccess, map[string]interface{}{"reference": "wd-1", "amount": 10000}))
	require.NoError(t, err)

	ack, err := f.deliver(t, body(t, EventTransferReversed, map[string]interface{}{"reference": "wd-1", "amount": 10000}))
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeConflict, ack.Outcome)
	assert.Equal(t, models.TransactionStatusCompleted, f.status(t, "wd-1"))
	assert.Equal(t, int64(40000), f.balance(t))
}

func TestInvalidSignature_NoMutation(t *testing.T) {
	f := newFixture(t)
	f.withPendingWithdrawal(t)
	raw := body(t, EventTransferFailed, map[string]interface{}{"reference": "wd-1", "amount": 10000})

	tests := []struct {
		name string
		sig  string
	}{
		{"empty", ""},
		{"wrong secret", paystack.Sign("not-the-secret", raw)},
		{"truncated", paystack.Sign(secret, raw)[:64]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack, err := f.svc.HandleProviderEvent(context.Background(), raw, tt.sig)
			assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
			assert.Nil(t, ack)
		})
	}

	assert.Equal(t, models.TransactionStatusPending, f.status(t, "wd-1"))
	assert.Equal(t, int64(40000), f.balance(t))
	assert.Empty(t, f.repo.WebhookEvents())
}

func TestUnknownReference_IsAcknowledged(t *testing.T) {
	f := newFixture(t)

	ack, err := f.deliver(t, body(t, EventTransferSuccess, map[string]interface{}{"reference": "wd-ghost"}))
	assert.ErrorIs(t, err, apperrors.ErrUnknownTransaction)
	require.NotNil(t, ack)
	assert.Equal(t, models.WebhookOutcomeUnknown, ack.Outcome)

	events := f.repo.WebhookEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "wd-ghost", events[0].Reference)
	assert.Equal(t, models.WebhookOutcomeUnknown, events[0].Outcome)
}

func TestChargeSuccess_CreditsDepositOnce(t *testing.T) {
	f := newFixture(t)
	raw := body(t, EventChargeSuccess, map[string]interface{}{
		"reference": "chg-1",
		"amount":    25000,
		"status":    "success",
		"channel":   "card",
		"metadata":  map[string]interface{}{"owner_id": owner},
	})

	ack, err := f.deliver(t, raw)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeApplied, ack.Outcome)

	ack, err = f.deliver(t, raw)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeDuplicate, ack.Outcome)

	assert.Equal(t, int64(25000), f.balance(t))
	assert.Len(t, f.repo.WebhookEvents(), 2)
}

func TestChargeSuccess_WithoutOwnerIsIgnored(t *testing.T) {
	f := newFixture(t)

	ack, err := f.deliver(t, body(t, EventChargeSuccess, map[string]interface{}{"reference": "chg-2", "amount": 100, "metadata": ""}))
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeIgnored, ack.Outcome)
	assert.Equal(t, 0, f.repo.TransactionCount())
}

func TestUnhandledEventAndMalformedBody(t *testing.T) {
	f := newFixture(t)

	ack, err := f.deliver(t, body(t, "subscription.create", map[string]interface{}{"reference": "x"}))
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeIgnored, ack.Outcome)

	raw := []byte(`{"event": "transfer.success", "data": `)
	ack, err = f.svc.HandleProviderEvent(context.Background(), raw, paystack.Sign(secret, raw))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransaction))
	require.NotNil(t, ack)
}

func TestPayloadData_OwnerID(t *testing.T) {
	tests := []struct {
		meta string
		want string
	}{
		{`{"owner_id":"abc"}`, "abc"},
		{`{"owner_id":42}`, "42"},
		{`""`, ""},
		{``, ""},
		{`{"other":1}`, ""},
	}
	for _, tt := range tests {
		d := PayloadData{Metadata: json.RawMessage(tt.meta)}
		assert.Equal(t, tt.want, d.OwnerID(), tt.meta)
	}
}
