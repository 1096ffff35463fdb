package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "ajo/internal/errors"
	"ajo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{
		db: db,
	}
}

func (r *ledgerRepository) GetWallet(ctx context.Context, ownerID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// GetWalletForUpdate locks the owner's wallet row, creating it first if the
// owner has never been seen. Only meaningful inside ExecuteInTransaction.
func (r *ledgerRepository) GetWalletForUpdate(ctx context.Context, ownerID string) (*models.Wallet, error) {
	db := r.db.WithContext(ctx)

	seed := models.Wallet{OwnerID: ownerID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	var wallet models.Wallet
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).
		First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) UpsertWallet(ctx context.Context, wallet *models.Wallet) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"balance_minor",
			"total_contributed_minor",
			"total_withdrawn_minor",
			"last_activity_at",
			"updated_at",
		}),
	}).Create(wallet).Error
	if err != nil {
		return fmt.Errorf("failed to upsert wallet: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateReference, tx.Reference)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// UpdateTransactionStatus moves a pending transaction to status. Rows that are
// already terminal are left untouched and reported as a transition conflict.
func (r *ledgerRepository) UpdateTransactionStatus(ctx context.Context, reference, status string, completedAt *time.Time, metadata models.JSON) error {
	updates := map[string]interface{}{
		"status":       status,
		"completed_at": completedAt,
	}
	if metadata != nil {
		updates["metadata"] = metadata
	}

	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("reference = ? AND status = ?", reference, models.TransactionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindTransactionByReference(ctx, reference); err != nil {
			return err
		}
		return apperrors.ErrTransitionConflict
	}
	return nil
}

func (r *ledgerRepository) DeleteTransaction(ctx context.Context, reference string) error {
	result := r.db.WithContext(ctx).Where("reference = ?", reference).Delete(&models.Transaction{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *ledgerRepository) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.Transaction, int64, error) {
	var (
		txs   []models.Transaction
		total int64
	)
	db := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("owner_id = ?", ownerID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	err := db.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txs, total, nil
}

func (r *ledgerRepository) SumCompletedTransactions(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("owner_id = ? AND status = ?", ownerID, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum completed transactions: %w", err)
	}
	return total, nil
}

func (r *ledgerRepository) AggregateTransactions(ctx context.Context, ownerID string) (*TransactionTotals, error) {
	var totals TransactionTotals
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("owner_id = ?", ownerID).
		Select(`
			COALESCE(SUM(CASE WHEN status = 'completed' THEN amount_minor ELSE 0 END), 0) AS completed_minor,
			COALESCE(SUM(CASE WHEN status = 'pending' AND type = 'withdrawal' THEN amount_minor ELSE 0 END), 0) AS held_minor,
			COALESCE(SUM(CASE WHEN status = 'completed' AND type = 'deposit' THEN amount_minor ELSE 0 END), 0) AS contributed_minor,
			COALESCE(SUM(CASE WHEN status = 'completed' AND type = 'withdrawal' THEN -amount_minor ELSE 0 END), 0) AS withdrawn_minor,
			COALESCE(SUM(CASE WHEN status = 'completed' AND type = 'commission' THEN amount_minor ELSE 0 END), 0) AS commission_minor
		`).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions: %w", err)
	}
	return &totals, nil
}

func (r *ledgerRepository) GetCheckIn(ctx context.Context, ownerID, date string) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND date = ?", ownerID, date).First(&checkIn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckInNotFound
		}
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}
	return &checkIn, nil
}

func (r *ledgerRepository) LatestCheckIn(ctx context.Context, ownerID string) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("date DESC").First(&checkIn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckInNotFound
		}
		return nil, fmt.Errorf("failed to get latest check-in: %w", err)
	}
	return &checkIn, nil
}

func (r *ledgerRepository) CreateCheckIn(ctx context.Context, checkIn *models.CheckIn) error {
	if err := r.db.WithContext(ctx).Create(checkIn).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrAlreadyCheckedInToday
		}
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

func (r *ledgerRepository) FindRecipient(ctx context.Context, bankCode, accountNumber string) (*models.TransferRecipient, error) {
	var recipient models.TransferRecipient
	err := r.db.WithContext(ctx).
		Where("bank_code = ? AND account_number = ?", bankCode, accountNumber).
		First(&recipient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to get transfer recipient: %w", err)
	}
	return &recipient, nil
}

func (r *ledgerRepository) CreateRecipient(ctx context.Context, recipient *models.TransferRecipient) error {
	if err := r.db.WithContext(ctx).Create(recipient).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create transfer recipient: %w", err)
	}
	return nil
}

func (r *ledgerRepository) RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &ledgerRepository{db: tx}
		return fn(txRepo)
	})
}

func (r *ledgerRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
