package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusCollector(t *testing.T) {
	p := NewPrometheusCollector(prometheus.NewRegistry())

	p.RecordOperationResult("withdrawal", "success")
	p.RecordOperationResult("withdrawal", "success")
	p.RecordOperationResult("withdrawal", "insufficient_balance")
	p.RecordOperationDuration("withdrawal", 20*time.Millisecond)
	p.RecordCacheHit("commission:summary:owner-1")
	p.RecordCacheMiss("commission:summary:owner-2")
	p.RecordCacheMiss("commission:summary:owner-3")
	p.RecordBalanceDrift(0)
	p.RecordBalanceDrift(-300)
	p.RecordWebhookEvent("transfer.success", "applied")
	p.RecordCommission(1500)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.operationResults.WithLabelValues("withdrawal", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.cacheLookups.WithLabelValues("commission:summary", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.cacheLookups.WithLabelValues("commission:summary", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.balanceDrift))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.webhookEvents.WithLabelValues("transfer.success", "applied")))
	assert.Equal(t, 1500.0, testutil.ToFloat64(p.commissionMinor))
}
