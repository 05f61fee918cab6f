package runner

import (
	"time"

	"digital.vasic.snippetcheck/pkg/logging"
)

// RunnerOption configures a DefaultRunner.
type RunnerOption func(*DefaultRunner)

// WithLogger sets the logger used by the runner.
func WithLogger(logger logging.Logger) RunnerOption {
	return func(r *DefaultRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTimeout sets the per-case deadline. Non-positive values
// are ignored.
func WithTimeout(timeout time.Duration) RunnerOption {
	return func(r *DefaultRunner) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithCaseHook adds an observer called after every case.
func WithCaseHook(h CaseHook) RunnerOption {
	return func(r *DefaultRunner) {
		r.caseHooks = append(r.caseHooks, h)
	}
}
