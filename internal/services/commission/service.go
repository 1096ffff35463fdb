package commission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ajo/internal/clock"
	apperrors "ajo/internal/errors"
	"ajo/internal/metrics"
	"ajo/internal/models"
	"ajo/internal/repositories"
	cacherepo "ajo/internal/repositories/cache"
	"ajo/internal/services/ledger"
	"ajo/internal/utils/cache"
)

const (
	DefaultBaseBonusMinor   int64 = 1000
	DefaultPerDayBonusMinor int64 = 500
	DefaultBonusCapMinor    int64 = 5000
	DefaultCacheTTL               = 5 * time.Minute
)

type service struct {
	repo    repositories.LedgerRepository
	ledger  ledger.Service
	cache   cacherepo.Cache
	clock   clock.Clock
	config  Config
	metrics metrics.Collector
}

func NewService(
	repo repositories.LedgerRepository,
	ledgerSvc ledger.Service,
	cacheSvc cacherepo.Cache,
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
	if cacheSvc == nil {
		cacheSvc = cacherepo.NoopCache{}
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if config.BaseBonusMinor <= 0 {
		config.BaseBonusMinor = DefaultBaseBonusMinor
	}
	if config.PerDayBonusMinor <= 0 {
		config.PerDayBonusMinor = DefaultPerDayBonusMinor
	}
	if config.BonusCapMinor <= 0 {
		config.BonusCapMinor = DefaultBonusCapMinor
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &service{
		repo:    repo,
		ledger:  ledgerSvc,
		cache:   cacheSvc,
		clock:   clk,
		config:  config,
		metrics: collector,
	}
}

func (s *service) Today() string {
	return clock.Today(s.clock, s.config.Location)
}

// Bonus is the commission for a check-in at the given streak length.
func Bonus(cfg Config, streak int) int64 {
	extra := int64(streak) * cfg.PerDayBonusMinor
	if extra > cfg.BonusCapMinor {
		extra = cfg.BonusCapMinor
	}
	return cfg.BaseBonusMinor + extra
}

// Reference is the ledger reference of the commission for (owner, date).
// Posting it twice fails with DuplicateReference.
func Reference(ownerID, date string) string {
	return fmt.Sprintf("commission-%s-%s", ownerID, date)
}

func (s *service) RecordDailyCheckIn(ctx context.Context, ownerID, date string) (*CheckInResult, error) {
	start := time.Now()
	result, err := s.recordDailyCheckIn(ctx, ownerID, date)
	s.metrics.RecordOperationDuration("check_in", time.Since(start))
	s.metrics.RecordOperationResult("check_in", resultOf(err))
	return result, err
}

func (s *service) recordDailyCheckIn(ctx context.Context, ownerID, date string) (*CheckInResult, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if date == "" {
		date = s.Today()
	}
	previous, err := clock.PreviousDay(date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", apperrors.ErrInvalidTransaction, date)
	}

	existing, err := s.repo.GetCheckIn(ctx, ownerID, date)
	if err == nil {
		return alreadyRecorded(existing), nil
	}
	if !errors.Is(err, repositories.ErrCheckInNotFound) {
		return nil, err
	}

	streak := 1
	prev, err := s.repo.GetCheckIn(ctx, ownerID, previous)
	switch {
	case err == nil:
		streak = prev.StreakCount + 1
	case !errors.Is(err, repositories.ErrCheckInNotFound):
		return nil, err
	}

	amount := Bonus(s.config, streak)
	reference := Reference(ownerID, date)

	// The commission is posted first under a reference unique to the date.
	// A retry after a partial failure finds it already posted and only
	// writes the missing check-in row.
	_, err = s.ledger.Post(ctx, ledger.CreateRequest{
		OwnerID:     ownerID,
		Type:        models.TransactionTypeCommission,
		AmountMinor: amount,
		Reference:   reference,
		Metadata: models.JSON{
			models.MetaStreakCount: streak,
			models.MetaCheckInDate: date,
		},
	})
	if err != nil && !errors.Is(err, apperrors.ErrDuplicateReference) {
		return nil, err
	}
	if err != nil {
		tx, findErr := s.repo.FindTransactionByReference(ctx, reference)
		if findErr != nil {
			return nil, findErr
		}
		amount = tx.AmountMinor
		if n, ok := tx.Metadata.Int(models.MetaStreakCount); ok && n > 0 {
			streak = int(n)
		}
		log.Printf("[commission] %s already posted, recording check-in only", reference)
	}

	checkIn := &models.CheckIn{
		OwnerID:              ownerID,
		Date:                 date,
		StreakCount:          streak,
		AmountMinor:          amount,
		TransactionReference: reference,
	}
	if err := s.repo.CreateCheckIn(ctx, checkIn); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyCheckedInToday) {
			existing, getErr := s.repo.GetCheckIn(ctx, ownerID, date)
			if getErr != nil {
				return nil, getErr
			}
			return alreadyRecorded(existing), nil
		}
		return nil, err
	}

	s.invalidateOwnerCache(ctx, ownerID)
	s.metrics.RecordCommission(amount)
	log.Printf("[commission] %s checked in on %s, streak %d, credited %d", ownerID, date, streak, amount)

	return &CheckInResult{
		OwnerID:     ownerID,
		Date:        date,
		Streak:      streak,
		AmountMinor: amount,
		Reference:   reference,
	}, nil
}

func (s *service) GetSummary(ctx context.Context, ownerID string) (*Summary, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	key := cache.CommissionSummaryKey(ownerID)
	var cached Summary
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[commission] cache read failed for %s: %v", key, err)
	}
	today := s.Today()
	// A summary cached before midnight would report the wrong streak.
	if found && cached.AsOf == today {
		s.metrics.RecordCacheHit(key)
		return &cached, nil
	}
	s.metrics.RecordCacheMiss(key)

	summary, err := s.buildSummary(ctx, ownerID, today)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetWithTTL(ctx, key, summary, s.config.CacheTTL); err != nil {
		log.Printf("[commission] cache write failed for %s: %v", key, err)
	}
	return summary, nil
}

func (s *service) buildSummary(ctx context.Context, ownerID, today string) (*Summary, error) {
	totals, err := s.repo.AggregateTransactions(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	summary := &Summary{
		OwnerID:              ownerID,
		AsOf:                 today,
		TotalCommissionMinor: totals.CommissionMinor,
		NextBonusMinor:       Bonus(s.config, 1),
	}

	latest, err := s.repo.LatestCheckIn(ctx, ownerID)
	if errors.Is(err, repositories.ErrCheckInNotFound) {
		return summary, nil
	}
	if err != nil {
		return nil, err
	}

	summary.LastCheckInDate = latest.Date
	yesterday, err := clock.PreviousDay(today)
	if err != nil {
		return nil, err
	}
	switch latest.Date {
	case today:
		summary.CheckedInToday = true
		summary.CurrentStreak = latest.StreakCount
		summary.NextBonusMinor = Bonus(s.config, latest.StreakCount+1)
	case yesterday:
		summary.CurrentStreak = latest.StreakCount
		summary.NextBonusMinor = Bonus(s.config, latest.StreakCount+1)
	}
	return summary, nil
}

func alreadyRecorded(c *models.CheckIn) *CheckInResult {
	return &CheckInResult{
		OwnerID:         c.OwnerID,
		Date:            c.Date,
		Streak:          c.StreakCount,
		AmountMinor:     c.AmountMinor,
		Reference:       c.TransactionReference,
		AlreadyRecorded: true,
	}
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
