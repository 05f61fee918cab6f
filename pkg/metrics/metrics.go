// Package metrics records run and case outcomes.
package metrics

import "time"

// Recorder defines the interface for recording evaluation metrics.
type Recorder interface {
	// RecordRun records a finished run with its status.
	RecordRun(status string, duration time.Duration)
	// RecordCase records one evaluated test case.
	RecordCase(passed, timedOut bool)
	// IncInFlight marks a run as started.
	IncInFlight()
	// DecInFlight marks a run as finished.
	DecInFlight()
}

// NoopMetrics is a no-op implementation of Recorder used when
// metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordRun(string, time.Duration) {}
func (NoopMetrics) RecordCase(bool, bool)          {}
func (NoopMetrics) IncInFlight()                   {}
func (NoopMetrics) DecInFlight()                   {}
