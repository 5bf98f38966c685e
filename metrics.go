package goSession

import (
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// MetricID identifies a counter or histogram exposed by the session
// manager.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess       = internalmetrics.MetricLoginSuccess
	MetricLoginFailure       = internalmetrics.MetricLoginFailure
	MetricRegisterSuccess    = internalmetrics.MetricRegisterSuccess
	MetricRegisterFailure    = internalmetrics.MetricRegisterFailure
	MetricValidationRejected = internalmetrics.MetricValidationRejected
	MetricSessionBusy        = internalmetrics.MetricSessionBusy
	MetricRefreshSuccess     = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure     = internalmetrics.MetricRefreshFailure
	MetricRefreshRejected    = internalmetrics.MetricRefreshRejected
	MetricRefreshCoalesced   = internalmetrics.MetricRefreshCoalesced
	MetricBootstrapSuccess   = internalmetrics.MetricBootstrapSuccess
	MetricBootstrapFailure   = internalmetrics.MetricBootstrapFailure
	MetricLogout             = internalmetrics.MetricLogout
	MetricStoreFailure       = internalmetrics.MetricStoreFailure
	MetricRefreshLatency     = internalmetrics.MetricRefreshLatency
)

// Metrics is the manager's instrument set. Disabled metrics cost one
// branch per call.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of every instrument.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a Metrics instance per cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
