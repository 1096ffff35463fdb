package commission

import (
	"context"
	"sync"
	"testing"
	"time"

	"ajo/internal/clock"
	apperrors "ajo/internal/errors"
	"ajo/internal/models"
	"ajo/internal/repositories"
	cacherepo "ajo/internal/repositories/cache"
	"ajo/internal/services/ledger"
	"ajo/internal/utils/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner-1"

type fixture struct {
	repo   *repositories.MemoryLedgerRepository
	ledger ledger.Service
	cache  *cacherepo.MemoryCache
	svc    Service
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	repo := repositories.NewMemoryLedgerRepository()
	clk := clock.FixedClock{At: now}
	ledgerSvc := ledger.NewService(repo, clk, nil, nil)
	mc := cacherepo.NewMemoryCache(time.Minute)
	return &fixture{
		repo:   repo,
		ledger: ledgerSvc,
		cache:  mc,
		svc:    NewService(repo, ledgerSvc, mc, clk, Config{}, nil),
	}
}

func (f *fixture) balance(t *testing.T) int64 {
	t.Helper()
	b, err := f.ledger.Recompute(context.Background(), owner)
	require.NoError(t, err)
	return b
}

func TestBonus(t *testing.T) {
	cfg := Config{BaseBonusMinor: 1000, PerDayBonusMinor: 500, BonusCapMinor: 5000}
	tests := []struct {
		streak int
		want   int64
	}{
		{1, 1500},
		{2, 2000},
		{9, 5500},
		{10, 6000},
		{30, 6000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bonus(cfg, tt.streak), "streak %d", tt.streak)
	}
}

func TestRecordDailyCheckIn_StreakContinuity(t *testing.T) {
	f := newFixture(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	steps := []struct {
		date   string
		streak int
		amount int64
	}{
		{"2024-06-01", 1, 1500},
		{"2024-06-02", 2, 2000},
		{"2024-06-03", 3, 2500},
		{"2024-06-05", 1, 1500},
	}
	var total int64
	for _, step := range steps {
		res, err := f.svc.RecordDailyCheckIn(ctx, owner, step.date)
		require.NoError(t, err, step.date)
		assert.Equal(t, step.streak, res.Streak, step.date)
		assert.Equal(t, step.amount, res.AmountMinor, step.date)
		assert.False(t, res.AlreadyRecorded)
		assert.Equal(t, Reference(owner, step.date), res.Reference)
		total += step.amount
	}

	assert.Equal(t, total, f.balance(t))
	tx, err := f.repo.FindTransactionByReference(ctx, Reference(owner, "2024-06-03"))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeCommission, tx.Type)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
}

func TestRecordDailyCheckIn_Idempotent(t *testing.T) {
	f := newFixture(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := f.svc.RecordDailyCheckIn(ctx, owner, "2024-06-01")
	require.NoError(t, err)

	second, err := f.svc.RecordDailyCheckIn(ctx, owner, "2024-06-01")
	require.NoError(t, err)
	assert.True(t, second.AlreadyRecorded)
	assert.Equal(t, first.Streak, second.Streak)
	assert.Equal(t, first.AmountMinor, second.AmountMinor)

	assert.Equal(t, 1, f.repo.TransactionCount())
	assert.Equal(t, int64(1500), f.balance(t))
}

func TestRecordDailyCheckIn_ConcurrentSameDay(t *testing.T) {
	f := newFixture(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.RecordDailyCheckIn(context.Background(), owner, "2024-06-01")
			if !assert.NoError(t, err) {
				return
			}
			if !res.AlreadyRecorded {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fresh)
	assert.Equal(t, 1, f.repo.TransactionCount())
	assert.Equal(t, int64(1500), f.balance(t))
}

func TestRecordDailyCheckIn_RecoversPostedCommission(t *testing.T) {
	f := newFixture(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	// Commission committed but the check-in row was never written.
	_, err := f.ledger.Post(ctx, ledger.CreateRequest{
		OwnerID:     owner,
		Type:        models.TransactionTypeCommission,
		AmountMinor: 1500,
		Reference:   Reference(owner, "2024-06-01"),
	})
	require.NoError(t, err)

	res, err := f.svc.RecordDailyCheckIn(ctx, owner, "2024-06-01")
	require.NoError(t, err)
	assert.False(t, res.AlreadyRecorded)
	assert.Equal(t, int64(1500), res.AmountMinor)
	assert.Equal(t, int64(1500), f.balance(t))

	checkIn, err := f.repo.GetCheckIn(ctx, owner, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 1, checkIn.StreakCount)
}

func TestRecordDailyCheckIn_RecoveredStreakFollowsPostedCommission(t *testing.T) {
	f := newFixture(t, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	// No earlier check-in rows survive, but the posted commission carries
	// the streak it was computed from.
	_, err := f.ledger.Post(ctx, ledger.CreateRequest{
		OwnerID:     owner,
		Type:        models.TransactionTypeCommission,
		AmountMinor: 2500,
		Reference:   Reference(owner, "2024-06-03"),
		Metadata: models.JSON{
			models.MetaStreakCount: 3,
			models.MetaCheckInDate: "2024-06-03",
		},
	})
	require.NoError(t, err)

	res, err := f.svc.RecordDailyCheckIn(ctx, owner, "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Streak)
	assert.Equal(t, int64(2500), res.AmountMinor)

	checkIn, err := f.repo.GetCheckIn(ctx, owner, "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, 3, checkIn.StreakCount)
	assert.Equal(t, int64(2500), f.balance(t))
	assert.Equal(t, 1, f.repo.TransactionCount())
}

func TestRecordDailyCheckIn_Validation(t *testing.T) {
	f := newFixture(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	_, err := f.svc.RecordDailyCheckIn(context.Background(), "", "2024-06-01")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.svc.RecordDailyCheckIn(context.Background(), owner, "06/01/2024")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransaction)
	assert.Equal(t, 0, f.repo.TransactionCount())
}

func TestToday_UsesLocation(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	repo := repositories.NewMemoryLedgerRepository()
	clk := clock.FixedClock{At: time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)}
	svc := NewService(repo, ledger.NewService(repo, clk, nil, nil), nil, clk, Config{Location: lagos}, nil)

	assert.Equal(t, "2024-06-02", svc.Today())

	res, err := svc.RecordDailyCheckIn(context.Background(), owner, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-02", res.Date)
}

func TestGetSummary_CachedAndInvalidated(t *testing.T) {
	f := newFixture(t, time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	summary, err := f.svc.GetSummary(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CurrentStreak)
	assert.False(t, summary.CheckedInToday)
	assert.Equal(t, int64(1500), summary.NextBonusMinor)

	var cached Summary
	found, err := f.cache.Get(ctx, cache.CommissionSummaryKey(owner), &cached)
	require.NoError(t, err)
	assert.True(t, found)

	_, err = f.svc.RecordDailyCheckIn(ctx, owner, "2024-06-01")
	require.NoError(t, err)
	_, err = f.svc.RecordDailyCheckIn(ctx, owner, "2024-06-02")
	require.NoError(t, err)

	found, err = f.cache.Get(ctx, cache.CommissionSummaryKey(owner), &cached)
	require.NoError(t, err)
	assert.False(t, found)

	summary, err = f.svc.GetSummary(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CurrentStreak)
	assert.True(t, summary.CheckedInToday)
	assert.Equal(t, "2024-06-02", summary.LastCheckInDate)
	assert.Equal(t, int64(3500), summary.TotalCommissionMinor)
	assert.Equal(t, int64(2500), summary.NextBonusMinor)
}

func TestGetSummary_BrokenStreak(t *testing.T) {
	f := newFixture(t, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := f.svc.RecordDailyCheckIn(ctx, owner, "2024-06-01")
	require.NoError(t, err)

	summary, err := f.svc.GetSummary(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CurrentStreak)
	assert.Equal(t, "2024-06-01", summary.LastCheckInDate)
	assert.Equal(t, int64(1500), summary.TotalCommissionMinor)
}
