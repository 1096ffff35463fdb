package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ajo/internal/clock"
	apperrors "ajo/internal/errors"
	"ajo/internal/events"
	"ajo/internal/metrics"
	"ajo/internal/models"
	"ajo/internal/repositories"
)

type service struct {
	repo      repositories.LedgerRepository
	clock     clock.Clock
	publisher events.Publisher
	metrics   metrics.Collector
}

// NewService creates the ledger service. clock, publisher and metrics are
// optional.
func NewService(
	repo repositories.LedgerRepository,
	clk clock.Clock,
	publisher events.Publisher,
	collector metrics.Collector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &service{
		repo:      repo,
		clock:     clk,
		publisher: publisher,
		metrics:   collector,
	}
}

func (s *service) Recompute(ctx context.Context, ownerID string) (int64, error) {
	if ownerID == "" {
		return 0, apperrors.ErrUnauthorized
	}
	var balance int64
	err := s.repo.ExecuteInTransaction(ctx, func(repo repositories.LedgerRepository) error {
		wallet, _, err := s.reconcile(ctx, repo, ownerID, false)
		if err != nil {
			return err
		}
		balance = wallet.BalanceMinor
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *service) GetBalance(ctx context.Context, ownerID string) (*Balance, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	var out *Balance
	err := s.repo.ExecuteInTransaction(ctx, func(repo repositories.LedgerRepository) error {
		wallet, totals, err := s.reconcile(ctx, repo, ownerID, false)
		if err != nil {
			return err
		}
		out = &Balance{
			OwnerID:               wallet.OwnerID,
			BalanceMinor:          wallet.BalanceMinor,
			PendingMinor:          -totals.HeldMinor,
			TotalContributedMinor: wallet.TotalContributedMinor,
			TotalWithdrawnMinor:   wallet.TotalWithdrawnMinor,
			LastActivityAt:        wallet.LastActivityAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reconcile rewrites the cached wallet row from the ledger aggregate. The
// wallet row is locked first so concurrent writers for the owner serialize.
func (s *service) reconcile(ctx context.Context, repo repositories.LedgerRepository, ownerID string, touch bool) (*models.Wallet, *repositories.TransactionTotals, error) {
	wallet, err := repo.GetWalletForUpdate(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	totals, err := repo.AggregateTransactions(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	available := totals.AvailableMinor()
	if drift := available - wallet.BalanceMinor; drift != 0 && !touch {
		log.Printf("[ledger] wallet %s cached balance %d disagrees with ledger %d, overwriting",
			ownerID, wallet.BalanceMinor, available)
		s.metrics.RecordBalanceDrift(drift)
	}

	changed := wallet.BalanceMinor != available ||
		wallet.TotalContributedMinor != totals.ContributedMinor ||
		wallet.TotalWithdrawnMinor != totals.WithdrawnMinor
	if !changed && !touch && wallet.ID != 0 {
		return wallet, totals, nil
	}

	wallet.BalanceMinor = available
	wallet.TotalContributedMinor = totals.ContributedMinor
	wallet.TotalWithdrawnMinor = totals.WithdrawnMinor
	if touch {
		now := s.clock.Now()
		wallet.LastActivityAt = &now
	}
	if err := repo.UpsertWallet(ctx, wallet); err != nil {
		return nil, nil, err
	}
	return wallet, totals, nil
}

func signedAmount(txType string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.ErrInvalidAmount
	}
	switch txType {
	case models.TransactionTypeDeposit, models.TransactionTypeCommission:
		return amount, nil
	case models.TransactionTypeWithdrawal, models.TransactionTypePenalty:
		return -amount, nil
	default:
		return 0, fmt.Errorf("%w: unknown type %q", apperrors.ErrInvalidTransaction, txType)
	}
}

func defaultStatus(txType string) string {
	if txType == models.TransactionTypeWithdrawal {
		return models.TransactionStatusPending
	}
	return models.TransactionStatusCompleted
}

// Create appends a ledger row and reconciles the wallet in the same store
// transaction. Withdrawals default to pending, which places the hold; a hold
// larger than the available balance is refused with ErrInsufficientBalance.
func (s *service) Create(ctx context.Context, req CreateRequest) (*models.Transaction, error) {
	start := time.Now()
	tx, err := s.create(ctx, req)
	s.metrics.RecordOperationDuration("ledger_create", time.Since(start))
	s.metrics.RecordOperationResult("ledger_create", resultOf(err))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, tx, eventFor(tx))
	return tx, nil
}

func (s *service) create(ctx context.Context, req CreateRequest) (*models.Transaction, error) {
	if req.OwnerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if req.Reference == "" {
		return nil, fmt.Errorf("%w: reference is required", apperrors.ErrInvalidTransaction)
	}
	amount, err := signedAmount(req.Type, req.AmountMinor)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = defaultStatus(req.Type)
	}
	if status != models.TransactionStatusPending && status != models.TransactionStatusCompleted {
		return nil, fmt.Errorf("%w: cannot create a transaction as %q", apperrors.ErrInvalidTransaction, status)
	}

	tx := &models.Transaction{
		OwnerID:     req.OwnerID,
		Type:        req.Type,
		AmountMinor: amount,
		Reference:   req.Reference,
		Status:      status,
		Metadata:    models.NewJSON(req.Metadata),
	}
	if status == models.TransactionStatusCompleted {
		now := s.clock.Now()
		tx.CompletedAt = &now
	}

	err = s.repo.ExecuteInTransaction(ctx, func(repo repositories.LedgerRepository) error {
		if _, err := repo.GetWalletForUpdate(ctx, req.OwnerID); err != nil {
			return err
		}
		// The hold is checked under the wallet row lock so that callers
		// in other processes cannot both pass against the same balance.
		if tx.IsHold() {
			totals, err := repo.AggregateTransactions(ctx, req.OwnerID)
			if err != nil {
				return err
			}
			if totals.AvailableMinor() < req.AmountMinor {
				return apperrors.ErrInsufficientBalance
			}
		}
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		_, _, err := s.reconcile(ctx, repo, req.OwnerID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Post creates a synchronous transaction (deposit, commission or penalty)
// directly in the completed state.
func (s *service) Post(ctx context.Context, req CreateRequest) (*models.Transaction, error) {
	if req.Type == models.TransactionTypeWithdrawal {
		return nil, fmt.Errorf("%w: withdrawals settle asynchronously", apperrors.ErrInvalidTransaction)
	}
	req.Status = models.TransactionStatusCompleted
	return s.Create(ctx, req)
}

func (s *service) Complete(ctx context.Context, reference string, metadata models.JSON) (*models.Transaction, error) {
	return s.transition(ctx, reference, models.TransactionStatusCompleted, metadata)
}

// Fail moves a pending transaction to failed. For a withdrawal this releases
// the hold, crediting the amount back.
func (s *service) Fail(ctx context.Context, reference string, metadata models.JSON) (*models.Transaction, error) {
	return s.transition(ctx, reference, models.TransactionStatusFailed, metadata)
}

// transition applies pending→status. A terminal transaction is returned
// unchanged together with ErrTransitionConflict.
func (s *service) transition(ctx context.Context, reference, status string, metadata models.JSON) (*models.Transaction, error) {
	var out *models.Transaction
	err := s.repo.ExecuteInTransaction(ctx, func(repo repositories.LedgerRepository) error {
		current, err := repo.FindTransactionByReference(ctx, reference)
		if err != nil {
			return translateNotFound(err)
		}
		// Lock the owner's wallet before re-reading the row under the lock.
		if _, err := repo.GetWalletForUpdate(ctx, current.OwnerID); err != nil {
			return err
		}
		current, err = repo.FindTransactionByReference(ctx, reference)
		if err != nil {
			return translateNotFound(err)
		}
		if current.IsTerminal() {
			out = current
			return apperrors.ErrTransitionConflict
		}

		merged := current.Metadata.Merge(metadata)
		if status == models.TransactionStatusFailed && current.IsHold() {
			merged[models.MetaCompensatedMinor] = -current.AmountMinor
		}
		now := s.clock.Now()
		if err := repo.UpdateTransactionStatus(ctx, reference, status, &now, merged); err != nil {
			return err
		}
		if _, _, err := s.reconcile(ctx, repo, current.OwnerID, true); err != nil {
			return err
		}

		current.Status = status
		current.CompletedAt = &now
		current.Metadata = merged
		out = current
		return nil
	})
	if errors.Is(err, apperrors.ErrTransitionConflict) {
		return out, err
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, out, eventFor(out))
	return out, nil
}

// Discard removes a pending withdrawal that the provider refused outright and
// releases its hold, as if it had never been created.
func (s *service) Discard(ctx context.Context, reference string) error {
	return s.repo.ExecuteInTransaction(ctx, func(repo repositories.LedgerRepository) error {
		current, err := repo.FindTransactionByReference(ctx, reference)
		if err != nil {
			return translateNotFound(err)
		}
		if _, err := repo.GetWalletForUpdate(ctx, current.OwnerID); err != nil {
			return err
		}
		if current.Status != models.TransactionStatusPending {
			return apperrors.ErrTransitionConflict
		}
		if err := repo.DeleteTransaction(ctx, reference); err != nil {
			return translateNotFound(err)
		}
		_, _, err = s.reconcile(ctx, repo, current.OwnerID, true)
		return err
	})
}

func (s *service) GetTransaction(ctx context.Context, ownerID, reference string) (*models.Transaction, error) {
	tx, err := s.repo.FindTransactionByReference(ctx, reference)
	if err != nil {
		return nil, translateNotFound(err)
	}
	// Other owners' references are indistinguishable from missing ones.
	if tx.OwnerID != ownerID {
		return nil, apperrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *service) ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.Transaction, int64, error) {
	if ownerID == "" {
		return nil, 0, apperrors.ErrUnauthorized
	}
	return s.repo.ListTransactions(ctx, ownerID, limit, offset)
}

func (s *service) publish(ctx context.Context, tx *models.Transaction, eventType string) {
	if eventType == "" {
		return
	}
	err := s.publisher.Publish(ctx, events.Event{
		Type:        eventType,
		OwnerID:     tx.OwnerID,
		Reference:   tx.Reference,
		TxType:      tx.Type,
		AmountMinor: tx.AmountMinor,
		Status:      tx.Status,
		OccurredAt:  s.clock.Now(),
	})
	if err != nil {
		log.Printf("[ledger] failed to publish %s for %s: %v", eventType, tx.Reference, err)
	}
}

func eventFor(tx *models.Transaction) string {
	switch {
	case tx.Type == models.TransactionTypeWithdrawal && tx.Status == models.TransactionStatusPending:
		return events.TypeWithdrawalInitiated
	case tx.Type == models.TransactionTypeCommission && tx.Status == models.TransactionStatusCompleted:
		return events.TypeCommissionAccrued
	case tx.Status == models.TransactionStatusCompleted:
		return events.TypeTransactionCompleted
	case tx.Status == models.TransactionStatusFailed:
		return events.TypeTransactionFailed
	}
	return ""
}

func translateNotFound(err error) error {
	if errors.Is(err, repositories.ErrTransactionNotFound) {
		return apperrors.ErrTransactionNotFound
	}
	return err
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
