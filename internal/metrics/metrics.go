// Package metrics records ledger engine measurements.
package metrics

import "time"

// Collector is implemented by every metrics backend used by the services.
type Collector interface {
	// Operation metrics
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)

	// Cache metrics
	RecordCacheHit(key string)
	RecordCacheMiss(key string)

	// Ledger metrics
	RecordBalanceDrift(drift int64)
	RecordWebhookEvent(event, outcome string)
	RecordCommission(amountMinor int64)
}

// NoopCollector is a no-op implementation of Collector
type NoopCollector struct{}

func (NoopCollector) RecordOperationDuration(string, time.Duration) {}
func (NoopCollector) RecordOperationResult(string, string)          {}
func (NoopCollector) RecordCacheHit(string)                         {}
func (NoopCollector) RecordCacheMiss(string)                        {}
func (NoopCollector) RecordBalanceDrift(int64)                      {}
func (NoopCollector) RecordWebhookEvent(string, string)             {}
func (NoopCollector) RecordCommission(int64)                        {}
