package payout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	apperrors "ajo/internal/errors"
	"ajo/internal/metrics"
	"ajo/internal/models"
	"ajo/internal/repositories"
	"ajo/internal/services/ledger"

	"github.com/google/uuid"
)

const DefaultTransferTimeout = 15 * time.Second

// Transfer statuses the provider may answer synchronously.
const (
	providerStatusSuccess  = "success"
	providerStatusFailed   = "failed"
	providerStatusReversed = "reversed"
	providerStatusOTP      = "otp"
)

type service struct {
	repo     repositories.LedgerRepository
	ledger   ledger.Service
	provider Provider
	locks    *ledger.OwnerLocks
	config   Config
	metrics  metrics.Collector
}

// NewService creates the payout orchestrator. locks must be the same instance
// the webhook reconciler uses.
func NewService(
	repo repositories.LedgerRepository,
	ledgerSvc ledger.Service,
	provider Provider,
	locks *ledger.OwnerLocks,
	config Config,
	collector metrics.Collector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if provider == nil {
		panic("provider is required")
	}
	if locks == nil {
		panic("owner locks are required")
	}
	if config.TransferTimeout <= 0 {
		config.TransferTimeout = DefaultTransferTimeout
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &service{
		repo:     repo,
		ledger:   ledgerSvc,
		provider: provider,
		locks:    locks,
		config:   config,
		metrics:  collector,
	}
}

func (s *service) InitiateWithdrawal(ctx context.Context, req WithdrawalRequest) (*WithdrawalResult, error) {
	start := time.Now()
	result, err := s.initiate(ctx, req)
	s.metrics.RecordOperationDuration("withdrawal", time.Since(start))
	s.metrics.RecordOperationResult("withdrawal", resultOf(err))
	return result, err
}

// initiate checks the preconditions in order (amount, wallet balance,
// provider balance, destination) before anything is written, then creates
// the pending row and submits the transfer under the owner's lock.
func (s *service) initiate(ctx context.Context, req WithdrawalRequest) (*WithdrawalResult, error) {
	if req.OwnerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if req.AmountMinor <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	unlock, err := s.locks.Lock(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	balance, err := s.ledger.Recompute(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if balance < req.AmountMinor {
		return nil, apperrors.ErrInsufficientBalance
	}

	available, err := s.provider.GetBalance(ctx)
	if err != nil {
		log.Printf("[payout] provider balance check failed: %v", err)
		return nil, fmt.Errorf("%w: balance check failed", apperrors.ErrProviderUndercapitalized)
	}
	if available < req.AmountMinor {
		log.Printf("[payout] provider balance %d below requested %d", available, req.AmountMinor)
		return nil, apperrors.ErrProviderUndercapitalized
	}

	recipient, err := s.resolveRecipient(ctx, req.BankCode, req.AccountNumber)
	if err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = "wd_" + uuid.NewString()
	}

	_, err = s.ledger.Create(ctx, ledger.CreateRequest{
		OwnerID:     req.OwnerID,
		Type:        models.TransactionTypeWithdrawal,
		AmountMinor: req.AmountMinor,
		Reference:   reference,
		Status:      models.TransactionStatusPending,
		Metadata: models.JSON{
			models.MetaRecipientCode: recipient.RecipientCode,
			models.MetaBankCode:      recipient.BankCode,
			models.MetaAccountNumber: recipient.AccountNumber,
			models.MetaAccountName:   recipient.AccountName,
		},
	})
	if err != nil {
		return nil, err
	}

	result := &WithdrawalResult{
		Reference:     reference,
		Status:        models.TransactionStatusPending,
		AmountMinor:   req.AmountMinor,
		RecipientCode: recipient.RecipientCode,
		AccountName:   recipient.AccountName,
	}

	transferCtx, cancel := context.WithTimeout(ctx, s.config.TransferTimeout)
	providerStatus, err := s.provider.CreateTransfer(transferCtx, req.AmountMinor, recipient.RecipientCode, reference)
	cancel()

	// The compensation and confirmation steps must run even if the caller
	// has gone away.
	bg := context.WithoutCancel(ctx)

	switch {
	case err != nil && errors.Is(err, apperrors.ErrProviderRejected):
		log.Printf("[payout] transfer %s rejected: %v", reference, err)
		return nil, s.rollback(bg, reference, err)

	case err != nil:
		log.Printf("[payout] transfer %s outcome unknown, leaving pending: %v", reference, err)
		return result, fmt.Errorf("%w: %s", apperrors.ErrProviderTimeout, reference)

	case providerStatus == providerStatusFailed || providerStatus == providerStatusReversed:
		log.Printf("[payout] transfer %s refused with status %s", reference, providerStatus)
		return nil, s.rollback(bg, reference, fmt.Errorf("provider status %s", providerStatus))

	case providerStatus == providerStatusSuccess:
		result.ProviderStatus = providerStatus
		_, err := s.ledger.Complete(bg, reference, models.JSON{models.MetaProviderStatus: providerStatus})
		if err != nil && !errors.Is(err, apperrors.ErrTransitionConflict) {
			// The webhook will confirm it; the hold already reflects the debit.
			log.Printf("[payout] failed to confirm synchronous success for %s: %v", reference, err)
			return result, nil
		}
		result.Status = models.TransactionStatusCompleted
		return result, nil
	}

	result.ProviderStatus = providerStatus
	if providerStatus == providerStatusOTP {
		// Transfers are never finalised from here; the hold stays until an
		// operator finalises the OTP or the provider reports the transfer failed.
		log.Printf("[payout] WARNING: transfer %s awaits OTP finalisation on the provider, hold of %d stays in place", reference, req.AmountMinor)
		return result, nil
	}
	log.Printf("[payout] transfer %s submitted, provider status %q", reference, providerStatus)
	return result, nil
}

// rollback removes the pending row and its hold after an outright refusal.
func (s *service) rollback(ctx context.Context, reference string, cause error) error {
	if err := s.ledger.Discard(ctx, reference); err != nil {
		log.Printf("[payout] CRITICAL: rollback of %s failed, hold remains: %v", reference, err)
		return fmt.Errorf("%w: %v (rollback failed: %v)", apperrors.ErrProviderRejected, cause, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrProviderRejected, cause)
}

// resolveRecipient returns the stored recipient for the destination or
// verifies the account with the provider and registers a new one.
func (s *service) resolveRecipient(ctx context.Context, bankCode, accountNumber string) (*models.TransferRecipient, error) {
	if bankCode == "" || accountNumber == "" {
		return nil, apperrors.ErrUnresolvableAccount
	}

	recipient, err := s.repo.FindRecipient(ctx, bankCode, accountNumber)
	if err == nil {
		return recipient, nil
	}
	if !errors.Is(err, repositories.ErrRecipientNotFound) {
		return nil, err
	}

	accountName, err := s.provider.ResolveAccount(ctx, accountNumber, bankCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrProviderRejected) || errors.Is(err, apperrors.ErrUnresolvableAccount) {
			log.Printf("[payout] account %s/%s did not resolve: %v", bankCode, accountNumber, err)
			return nil, apperrors.ErrUnresolvableAccount
		}
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	code, err := s.provider.CreateRecipient(ctx, accountNumber, bankCode, accountName)
	if err != nil {
		if errors.Is(err, apperrors.ErrProviderRejected) {
			return nil, apperrors.ErrUnresolvableAccount
		}
		return nil, fmt.Errorf("create recipient: %w", err)
	}

	recipient = &models.TransferRecipient{
		BankCode:      bankCode,
		AccountNumber: accountNumber,
		AccountName:   accountName,
		RecipientCode: code,
	}
	if err := s.repo.CreateRecipient(ctx, recipient); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return s.repo.FindRecipient(ctx, bankCode, accountNumber)
		}
		return nil, err
	}
	return recipient, nil
}

func resultOf(err error) string {
	if err == nil {
		return "success"
	}
	if code := apperrors.CodeOf(err); code != "" {
		return code
	}
	return "error"
}
