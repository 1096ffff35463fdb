package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ajo"

type PrometheusCollector struct {
	operationDuration *prometheus.HistogramVec
	operationResults  *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	balanceDrift      prometheus.Counter
	webhookEvents     *prometheus.CounterVec
	commissionMinor   prometheus.Counter
}

// NewPrometheusCollector registers the ledger metrics on reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Duration of ledger operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Total ledger operations partitioned by result.",
			},
			[]string{"operation", "result"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Cache lookups partitioned by entity and outcome.",
			},
			[]string{"entity", "outcome"},
		),
		balanceDrift: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "balance_drift_corrections_total",
				Help:      "Times a cached wallet balance disagreed with the ledger and was overwritten.",
			},
		),
		webhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "events_total",
				Help:      "Provider webhook events partitioned by event and outcome.",
			},
			[]string{"event", "outcome"},
		),
		commissionMinor: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "commission",
				Name:      "accrued_minor_total",
				Help:      "Commission accrued, in minor units.",
			},
		),
	}
}

func (p *PrometheusCollector) RecordOperationDuration(operation string, duration time.Duration) {
	p.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordOperationResult(operation, result string) {
	p.operationResults.WithLabelValues(operation, result).Inc()
}

// Cache keys embed owner IDs; only the entity prefix is used as a label.
func (p *PrometheusCollector) RecordCacheHit(key string) {
	p.cacheLookups.WithLabelValues(entityOf(key), "hit").Inc()
}

func (p *PrometheusCollector) RecordCacheMiss(key string) {
	p.cacheLookups.WithLabelValues(entityOf(key), "miss").Inc()
}

func (p *PrometheusCollector) RecordBalanceDrift(drift int64) {
	if drift != 0 {
		p.balanceDrift.Inc()
	}
}

func (p *PrometheusCollector) RecordWebhookEvent(event, outcome string) {
	p.webhookEvents.WithLabelValues(event, outcome).Inc()
}

func (p *PrometheusCollector) RecordCommission(amountMinor int64) {
	p.commissionMinor.Add(float64(amountMinor))
}

func entityOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) >= 2 {
		return parts[0] + ":" + parts[1]
	}
	return key
}
