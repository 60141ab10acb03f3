package service

import (
	"sync/atomic"
	"time"
)

// Metrics tracks orchestrator call metrics
type Metrics struct {
	orchestratorCalls   int64
	orchestratorErrors  int64
	orchestratorLatency int64 // Total latency in nanoseconds
	progressUpdates     int64
	staleUpdates        int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		orchestratorCalls:   atomic.LoadInt64(&globalMetrics.orchestratorCalls),
		orchestratorErrors:  atomic.LoadInt64(&globalMetrics.orchestratorErrors),
		orchestratorLatency: atomic.LoadInt64(&globalMetrics.orchestratorLatency),
		progressUpdates:     atomic.LoadInt64(&globalMetrics.progressUpdates),
		staleUpdates:        atomic.LoadInt64(&globalMetrics.staleUpdates),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.orchestratorCalls, 0)
	atomic.StoreInt64(&globalMetrics.orchestratorErrors, 0)
	atomic.StoreInt64(&globalMetrics.orchestratorLatency, 0)
	atomic.StoreInt64(&globalMetrics.progressUpdates, 0)
	atomic.StoreInt64(&globalMetrics.staleUpdates, 0)
}

func recordOrchestratorCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.orchestratorCalls, 1)
	atomic.AddInt64(&globalMetrics.orchestratorLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.orchestratorErrors, 1)
	}
}

func recordProgressUpdate(applied bool) {
	atomic.AddInt64(&globalMetrics.progressUpdates, 1)
	if !applied {
		atomic.AddInt64(&globalMetrics.staleUpdates, 1)
	}
}

// OrchestratorCalls returns how many orchestrator API calls were made.
func (m Metrics) OrchestratorCalls() int64 {
	return m.orchestratorCalls
}

// OrchestratorErrors returns how many orchestrator API calls failed.
func (m Metrics) OrchestratorErrors() int64 {
	return m.orchestratorErrors
}

// ProgressUpdateCount returns how many progress reports were received on
// either signal channel.
func (m Metrics) ProgressUpdateCount() int64 {
	return m.progressUpdates
}

// AverageOrchestratorLatency returns the average latency in milliseconds
func (m Metrics) AverageOrchestratorLatency() float64 {
	if m.orchestratorCalls == 0 {
		return 0
	}
	return float64(m.orchestratorLatency) / float64(m.orchestratorCalls) / 1e6
}

// StaleUpdateCount returns how many progress reports were discarded by the
// monotonicity guard.
func (m Metrics) StaleUpdateCount() int64 {
	return m.staleUpdates
}
