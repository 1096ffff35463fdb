package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "ajo/internal/errors"
	"ajo/internal/models"
)

type memoryState struct {
	nextID       uint
	wallets      map[string]models.Wallet
	transactions map[string]models.Transaction
	checkIns     map[string]models.CheckIn
	recipients   map[string]models.TransferRecipient
	events       []models.WebhookEvent
}

func newMemoryState() *memoryState {
	return &memoryState{
		wallets:      make(map[string]models.Wallet),
		transactions: make(map[string]models.Transaction),
		checkIns:     make(map[string]models.CheckIn),
		recipients:   make(map[string]models.TransferRecipient),
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		nextID:       s.nextID,
		wallets:      make(map[string]models.Wallet, len(s.wallets)),
		transactions: make(map[string]models.Transaction, len(s.transactions)),
		checkIns:     make(map[string]models.CheckIn, len(s.checkIns)),
		recipients:   make(map[string]models.TransferRecipient, len(s.recipients)),
		events:       append([]models.WebhookEvent(nil), s.events...),
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.transactions {
		v.Metadata = models.NewJSON(v.Metadata)
		c.transactions[k] = v
	}
	for k, v := range s.checkIns {
		c.checkIns[k] = v
	}
	for k, v := range s.recipients {
		c.recipients[k] = v
	}
	return c
}

func (s *memoryState) id() uint {
	s.nextID++
	return s.nextID
}

type memoryStore struct {
	txMu  sync.Mutex // serializes writers, standing in for row locks
	mu    sync.RWMutex
	state *memoryState
}

// MemoryLedgerRepository is an in-process LedgerRepository. Writers are
// serialized and ExecuteInTransaction restores a snapshot when fn fails, so it
// honours the same atomicity contract as the gorm implementation.
type MemoryLedgerRepository struct {
	store *memoryStore
	inTx  bool
}

func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{
		store: &memoryStore{state: newMemoryState()},
	}
}

func (r *MemoryLedgerRepository) read(fn func(s *memoryState) error) error {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return fn(r.store.state)
}

func (r *MemoryLedgerRepository) write(fn func(s *memoryState) error) error {
	if !r.inTx {
		r.store.txMu.Lock()
		defer r.store.txMu.Unlock()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

func (r *MemoryLedgerRepository) GetWallet(ctx context.Context, ownerID string) (*models.Wallet, error) {
	var out *models.Wallet
	err := r.read(func(s *memoryState) error {
		w, ok := s.wallets[ownerID]
		if !ok {
			return ErrWalletNotFound
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *MemoryLedgerRepository) GetWalletForUpdate(ctx context.Context, ownerID string) (*models.Wallet, error) {
	var out *models.Wallet
	err := r.write(func(s *memoryState) error {
		w, ok := s.wallets[ownerID]
		if !ok {
			now := time.Now().UTC()
			w = models.Wallet{ID: s.id(), OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
			s.wallets[ownerID] = w
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *MemoryLedgerRepository) UpsertWallet(ctx context.Context, wallet *models.Wallet) error {
	return r.write(func(s *memoryState) error {
		now := time.Now().UTC()
		existing, ok := s.wallets[wallet.OwnerID]
		if ok {
			wallet.ID = existing.ID
			wallet.CreatedAt = existing.CreatedAt
		} else {
			wallet.ID = s.id()
			wallet.CreatedAt = now
		}
		wallet.UpdatedAt = now
		s.wallets[wallet.OwnerID] = *wallet
		return nil
	})
}

func (r *MemoryLedgerRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.transactions[tx.Reference]; ok {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateReference, tx.Reference)
		}
		now := time.Now().UTC()
		tx.ID = s.id()
		tx.CreatedAt = now
		tx.UpdatedAt = now
		stored := *tx
		stored.Metadata = models.NewJSON(tx.Metadata)
		s.transactions[tx.Reference] = stored
		return nil
	})
}

func (r *MemoryLedgerRepository) UpdateTransactionStatus(ctx context.Context, reference, status string, completedAt *time.Time, metadata models.JSON) error {
	return r.write(func(s *memoryState) error {
		tx, ok := s.transactions[reference]
		if !ok {
			return ErrTransactionNotFound
		}
		if tx.Status != models.TransactionStatusPending {
			return apperrors.ErrTransitionConflict
		}
		tx.Status = status
		tx.CompletedAt = completedAt
		if metadata != nil {
			tx.Metadata = models.NewJSON(metadata)
		}
		tx.UpdatedAt = time.Now().UTC()
		s.transactions[reference] = tx
		return nil
	})
}

func (r *MemoryLedgerRepository) DeleteTransaction(ctx context.Context, reference string) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.transactions[reference]; !ok {
			return ErrTransactionNotFound
		}
		delete(s.transactions, reference)
		return nil
	})
}

func (r *MemoryLedgerRepository) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var out *models.Transaction
	err := r.read(func(s *memoryState) error {
		tx, ok := s.transactions[reference]
		if !ok {
			return ErrTransactionNotFound
		}
		tx.Metadata = models.NewJSON(tx.Metadata)
		out = &tx
		return nil
	})
	return out, err
}

func (r *MemoryLedgerRepository) ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.Transaction, int64, error) {
	var owned []models.Transaction
	_ = r.read(func(s *memoryState) error {
		for _, tx := range s.transactions {
			if tx.OwnerID == ownerID {
				tx.Metadata = models.NewJSON(tx.Metadata)
				owned = append(owned, tx)
			}
		}
		return nil
	})
	// Newest first; IDs are monotonic so they break CreatedAt ties.
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID > owned[j].ID })

	total := int64(len(owned))
	if offset >= len(owned) {
		return []models.Transaction{}, total, nil
	}
	end := len(owned)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return owned[offset:end], total, nil
}

func (r *MemoryLedgerRepository) SumCompletedTransactions(ctx context.Context, ownerID string) (int64, error) {
	totals, err := r.AggregateTransactions(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return totals.CompletedMinor, nil
}

func (r *MemoryLedgerRepository) AggregateTransactions(ctx context.Context, ownerID string) (*TransactionTotals, error) {
	totals := &TransactionTotals{}
	err := r.read(func(s *memoryState) error {
		for _, tx := range s.transactions {
			if tx.OwnerID != ownerID {
				continue
			}
			switch tx.Status {
			case models.TransactionStatusCompleted:
				totals.CompletedMinor += tx.AmountMinor
				switch tx.Type {
				case models.TransactionTypeDeposit:
					totals.ContributedMinor += tx.AmountMinor
				case models.TransactionTypeWithdrawal:
					totals.WithdrawnMinor -= tx.AmountMinor
				case models.TransactionTypeCommission:
					totals.CommissionMinor += tx.AmountMinor
				}
			case models.TransactionStatusPending:
				if tx.Type == models.TransactionTypeWithdrawal {
					totals.HeldMinor += tx.AmountMinor
				}
			}
		}
		return nil
	})
	return totals, err
}

func checkInKey(ownerID, date string) string {
	return ownerID + "|" + date
}

func (r *MemoryLedgerRepository) GetCheckIn(ctx context.Context, ownerID, date string) (*models.CheckIn, error) {
	var out *models.CheckIn
	err := r.read(func(s *memoryState) error {
		c, ok := s.checkIns[checkInKey(ownerID, date)]
		if !ok {
			return ErrCheckInNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *MemoryLedgerRepository) LatestCheckIn(ctx context.Context, ownerID string) (*models.CheckIn, error) {
	var out *models.CheckIn
	err := r.read(func(s *memoryState) error {
		for _, c := range s.checkIns {
			if c.OwnerID != ownerID {
				continue
			}
			if out == nil || c.Date > out.Date {
				c := c
				out = &c
			}
		}
		if out == nil {
			return ErrCheckInNotFound
		}
		return nil
	})
	return out, err
}

func (r *MemoryLedgerRepository) CreateCheckIn(ctx context.Context, checkIn *models.CheckIn) error {
	return r.write(func(s *memoryState) error {
		key := checkInKey(checkIn.OwnerID, checkIn.Date)
		if _, ok := s.checkIns[key]; ok {
			return apperrors.ErrAlreadyCheckedInToday
		}
		checkIn.ID = s.id()
		checkIn.CreatedAt = time.Now().UTC()
		s.checkIns[key] = *checkIn
		return nil
	})
}

func recipientKey(bankCode, accountNumber string) string {
	return bankCode + "|" + accountNumber
}

func (r *MemoryLedgerRepository) FindRecipient(ctx context.Context, bankCode, accountNumber string) (*models.TransferRecipient, error) {
	var out *models.TransferRecipient
	err := r.read(func(s *memoryState) error {
		rec, ok := s.recipients[recipientKey(bankCode, accountNumber)]
		if !ok {
			return ErrRecipientNotFound
		}
		out = &rec
		return nil
	})
	return out, err
}

func (r *MemoryLedgerRepository) CreateRecipient(ctx context.Context, recipient *models.TransferRecipient) error {
	return r.write(func(s *memoryState) error {
		key := recipientKey(recipient.BankCode, recipient.AccountNumber)
		if _, ok := s.recipients[key]; ok {
			return ErrDuplicateKey
		}
		recipient.ID = s.id()
		recipient.CreatedAt = time.Now().UTC()
		s.recipients[key] = *recipient
		return nil
	})
}

func (r *MemoryLedgerRepository) RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) error {
	return r.write(func(s *memoryState) error {
		event.ID = s.id()
		s.events = append(s.events, *event)
		return nil
	})
}

// WebhookEvents returns a copy of the journal.
func (r *MemoryLedgerRepository) WebhookEvents() []models.WebhookEvent {
	var out []models.WebhookEvent
	_ = r.read(func(s *memoryState) error {
		out = append(out, s.events...)
		return nil
	})
	return out
}

// RecipientCount reports how many transfer recipients are stored.
func (r *MemoryLedgerRepository) RecipientCount() int {
	var n int
	_ = r.read(func(s *memoryState) error {
		n = len(s.recipients)
		return nil
	})
	return n
}

// TransactionCount reports how many ledger rows are stored.
func (r *MemoryLedgerRepository) TransactionCount() int {
	var n int
	_ = r.read(func(s *memoryState) error {
		n = len(s.transactions)
		return nil
	})
	return n
}

func (r *MemoryLedgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error {
	if r.inTx {
		return fn(r)
	}

	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	r.store.mu.RLock()
	snapshot := r.store.state.clone()
	r.store.mu.RUnlock()

	txRepo := &MemoryLedgerRepository{store: r.store, inTx: true}
	if err := fn(txRepo); err != nil {
		r.store.mu.Lock()
		r.store.state = snapshot
		r.store.mu.Unlock()
		return err
	}
	return nil
}

func (r *MemoryLedgerRepository) Ping(ctx context.Context) error {
	return nil
}
