package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"ajo/internal/clock"
	apperrors "ajo/internal/errors"
	"ajo/internal/metrics"
	"ajo/internal/models"
	"ajo/internal/providers/paystack"
	"ajo/internal/repositories"
	"ajo/internal/services/ledger"
)

type service struct {
	repo    repositories.LedgerRepository
	ledger  ledger.Service
	locks   *ledger.OwnerLocks
	clock   clock.Clock
	config  Config
	metrics metrics.Collector
}

// NewService creates the webhook reconciler. locks must be shared with the
// payout orchestrator.
func NewService(
	repo repositories.LedgerRepository,
	ledgerSvc ledger.Service,
	locks *ledger.OwnerLocks,
	clk clock.Clock,
	config Config,
	collector metrics.Collector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if locks == nil {
		panic("owner locks are required")
	}
	if config.Secret == "" {
		panic("webhook secret is required")
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &service{
		repo:    repo,
		ledger:  ledgerSvc,
		locks:   locks,
		clock:   clk,
		config:  config,
		metrics: collector,
	}
}

// HandleProviderEvent verifies and applies one callback. Application-level
// outcomes (unknown reference, duplicate, ignored event) come back as an Ack
// with a nil error or a domain error; only signature failures and store
// errors should stop the caller from acknowledging.
func (s *service) HandleProviderEvent(ctx context.Context, rawBody []byte, signature string) (*Ack, error) {
	if !paystack.VerifySignature(s.config.Secret, rawBody, signature) {
		log.Printf("[webhook] signature mismatch, %d byte body dropped", len(rawBody))
		s.metrics.RecordWebhookEvent("unverified", "invalid_signature")
		return nil, apperrors.ErrInvalidSignature
	}

	var payload Payload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		log.Printf("[webhook] undecodable body: %v", err)
		return &Ack{Outcome: models.WebhookOutcomeIgnored}, fmt.Errorf("%w: malformed webhook body", apperrors.ErrInvalidTransaction)
	}

	ack := &Ack{Event: payload.Event, Reference: payload.Data.Reference}
	var err error
	switch payload.Event {
	case EventTransferSuccess, EventTransferFailed, EventTransferReversed:
		ack.Outcome, err = s.handleTransfer(ctx, payload)
	case EventChargeSuccess:
		ack.Outcome, err = s.handleCharge(ctx, payload)
	default:
		log.Printf("[webhook] ignoring event %q for %s", payload.Event, payload.Data.Reference)
		ack.Outcome = models.WebhookOutcomeIgnored
	}

	if err != nil && apperrors.CodeOf(err) == "" {
		// Store failure: do not journal, let the provider retry.
		log.Printf("[webhook] %s %s failed: %v", payload.Event, payload.Data.Reference, err)
		s.metrics.RecordWebhookEvent(payload.Event, "error")
		return nil, err
	}

	s.journal(ctx, payload, rawBody, ack.Outcome)
	s.metrics.RecordWebhookEvent(payload.Event, ack.Outcome)
	return ack, err
}

func (s *service) handleTransfer(ctx context.Context, payload Payload) (string, error) {
	reference := payload.Data.Reference
	if reference == "" {
		log.Printf("[webhook] %s without reference", payload.Event)
		return models.WebhookOutcomeIgnored, nil
	}

	tx, err := s.repo.FindTransactionByReference(ctx, reference)
	if errors.Is(err, repositories.ErrTransactionNotFound) {
		log.Printf("[webhook] %s for unknown reference %s", payload.Event, reference)
		return models.WebhookOutcomeUnknown, apperrors.ErrUnknownTransaction
	}
	if err != nil {
		return "", err
	}
	if tx.Type != models.TransactionTypeWithdrawal {
		log.Printf("[webhook] %s for %s transaction %s ignored", payload.Event, tx.Type, reference)
		return models.WebhookOutcomeIgnored, nil
	}

	target := models.TransactionStatusFailed
	if payload.Event == EventTransferSuccess {
		target = models.TransactionStatusCompleted
	}
	if tx.IsTerminal() {
		return terminalOutcome(payload.Event, tx, target), nil
	}

	unlock, err := s.locks.Lock(ctx, tx.OwnerID)
	if err != nil {
		return "", err
	}
	defer unlock()

	if payload.Data.Amount != 0 && payload.Data.Amount != -tx.AmountMinor {
		log.Printf("[webhook] amount mismatch for %s: event %d, ledger %d", reference, payload.Data.Amount, -tx.AmountMinor)
	}

	meta := models.JSON{
		models.MetaProviderEvent:  payload.Event,
		models.MetaProviderStatus: payload.Data.Status,
	}
	if target == models.TransactionStatusCompleted {
		meta[models.MetaProcessingTime] = s.clock.Now().Sub(tx.CreatedAt).Round(time.Second).String()
	} else if payload.Data.Reason != "" {
		meta[models.MetaFailureReason] = payload.Data.Reason
	}

	var current *models.Transaction
	if target == models.TransactionStatusCompleted {
		current, err = s.ledger.Complete(ctx, reference, meta)
	} else {
		current, err = s.ledger.Fail(ctx, reference, meta)
	}

	switch {
	case err == nil:
		log.Printf("[webhook] %s -> %s", reference, target)
		return models.WebhookOutcomeApplied, nil
	case errors.Is(err, apperrors.ErrTransitionConflict):
		return terminalOutcome(payload.Event, current, target), nil
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		return models.WebhookOutcomeUnknown, apperrors.ErrUnknownTransaction
	}
	return "", err
}

// handleCharge records a confirmed deposit. The charge reference is the
// ledger reference, so redelivery hits DuplicateReference.
func (s *service) handleCharge(ctx context.Context, payload Payload) (string, error) {
	ownerID := payload.Data.OwnerID()
	if ownerID == "" || payload.Data.Reference == "" || payload.Data.Amount <= 0 {
		log.Printf("[webhook] charge %s without owner or amount ignored", payload.Data.Reference)
		return models.WebhookOutcomeIgnored, nil
	}

	unlock, err := s.locks.Lock(ctx, ownerID)
	if err != nil {
		return "", err
	}
	defer unlock()

	_, err = s.ledger.Post(ctx, ledger.CreateRequest{
		OwnerID:     ownerID,
		Type:        models.TransactionTypeDeposit,
		AmountMinor: payload.Data.Amount,
		Reference:   payload.Data.Reference,
		Metadata: models.JSON{
			models.MetaProviderEvent: payload.Event,
			"channel":                payload.Data.Channel,
		},
	})
	switch {
	case err == nil:
		return models.WebhookOutcomeApplied, nil
	case errors.Is(err, apperrors.ErrDuplicateReference):
		return models.WebhookOutcomeDuplicate, nil
	}
	return "", err
}

func (s *service) journal(ctx context.Context, payload Payload, rawBody []byte, outcome string) {
	var body models.JSON
	_ = json.Unmarshal(rawBody, &body)
	err := s.repo.RecordWebhookEvent(ctx, &models.WebhookEvent{
		Event:      payload.Event,
		Reference:  payload.Data.Reference,
		Outcome:    outcome,
		Payload:    body,
		ReceivedAt: s.clock.Now(),
	})
	if err != nil {
		log.Printf("[webhook] failed to journal %s %s: %v", payload.Event, payload.Data.Reference, err)
	}
}

// terminalOutcome classifies an event for a transaction that has already
// settled. The same terminal state is a redelivery. A different one (a
// reversal after success) is a conflict: the first terminal state stands and
// an operator reconciles it out of band.
func terminalOutcome(event string, tx *models.Transaction, target string) string {
	if tx != nil && tx.Status == target {
		return models.WebhookOutcomeDuplicate
	}
	status := "unknown"
	if tx != nil {
		status = tx.Status
	}
	log.Printf("[webhook] CONFLICT: %s on %s already %s", event, referenceOf(tx), status)
	return models.WebhookOutcomeConflict
}

func referenceOf(tx *models.Transaction) string {
	if tx == nil {
		return ""
	}
	return tx.Reference
}
