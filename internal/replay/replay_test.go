package replay

import (
	"context"
	"strings"
	"testing"
	"time"

	"ajo/internal/clock"
	"ajo/internal/models"
	"ajo/internal/repositories"
	"ajo/internal/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const input = `{"owner_id":"o1","type":"deposit","amount_minor":50000,"reference":"r-1"}
{"owner_id":"o1","type":"withdrawal","amount_minor":10000,"reference":"r-2","status":"completed"}
{"owner_id":"o1","type":"withdrawal","amount_minor":5000,"reference":"r-3","status":"failed"}
{"owner_id":"o1","type":"withdrawal","amount_minor":2000,"reference":"r-4"}

{"owner_id":"o1","type":"commission","amount_minor":1500,"reference":"r-5","metadata":{"streak_count":1}}
{"owner_id":"o1","type":"deposit","amount_minor":0,"reference":"r-6"}
not json
`

func TestRun_IsIdempotent(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository()
	svc := ledger.NewService(repo, clock.FixedClock{At: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}, nil, nil)
	ctx := context.Background()

	stats, err := Run(ctx, svc, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Stats{Applied: 5, Skipped: 0, Failed: 2}, stats)

	// 50000 - 10000 + 1500, with 2000 held by the pending withdrawal.
	balance, err := svc.Recompute(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, int64(39500), balance)

	failed, err := repo.FindTransactionByReference(ctx, "r-3")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, failed.Status)

	stats, err = Run(ctx, svc, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Stats{Applied: 0, Skipped: 5, Failed: 2}, stats)

	balance, err = svc.Recompute(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, int64(39500), balance)
	assert.Equal(t, 5, repo.TransactionCount())
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository()
	svc := ledger.NewService(repo, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, svc, strings.NewReader(input))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, repo.TransactionCount())
}
