package engine

import (
	"digital.vasic.snippetcheck/pkg/config"
	"digital.vasic.snippetcheck/pkg/logging"
	"digital.vasic.snippetcheck/pkg/metrics"
	"digital.vasic.snippetcheck/pkg/monitor"
)

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger used by the engine.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithCollector sends run lifecycle events to c.
func WithCollector(c *monitor.EventCollector) Option {
	return func(e *Engine) {
		e.collector = c
	}
}

// WithIDGenerator replaces the run ID source.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}
