// Package runner invokes a resolved function once per test case,
// each under its own deadline, and compares the result with the
// expected output.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"digital.vasic.snippetcheck/pkg/logging"
	"digital.vasic.snippetcheck/pkg/result"
	"digital.vasic.snippetcheck/pkg/sandbox"
	"digital.vasic.snippetcheck/pkg/value"
)

// DefaultTimeout is the per-case deadline when none is set.
const DefaultTimeout = 5 * time.Second

var (
	// ErrNoCallable is returned by Resolve when nothing is bound.
	ErrNoCallable = errors.New("no callable function found")

	// ErrTimeout prefixes the message of a case that ran past
	// its deadline.
	ErrTimeout = errors.New("Execution timed out")

	// ErrCancelled is reported for cases stopped because the
	// caller's context ended.
	ErrCancelled = errors.New("execution cancelled")
)

// Invoker calls a bound function. *sandbox.Instance implements it.
type Invoker interface {
	Call(
		ctx context.Context,
		fn sandbox.Function,
		args []any,
	) (any, error)
}

// CaseHook observes each finished case.
type CaseHook func(index int, tr result.TestResult)

// Runner defines the interface for test case execution.
type Runner interface {
	// RunCase evaluates a single test case.
	RunCase(
		ctx context.Context,
		fn sandbox.Function,
		tc result.TestCase,
	) result.TestResult

	// RunAll evaluates cases one at a time in input order.
	RunAll(
		ctx context.Context,
		fn sandbox.Function,
		cases []result.TestCase,
	) []result.TestResult
}

// DefaultRunner is the standard Runner implementation.
type DefaultRunner struct {
	invoker   Invoker
	logger    logging.Logger
	timeout   time.Duration
	caseHooks []CaseHook
}

// NewRunner creates a DefaultRunner calling through invoker.
func NewRunner(invoker Invoker, opts ...RunnerOption) *DefaultRunner {
	r := &DefaultRunner{
		invoker: invoker,
		logger:  logging.NullLogger{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timeout returns the per-case deadline.
func (r *DefaultRunner) Timeout() time.Duration {
	return r.timeout
}

// Resolve picks the function to test: preferred when it is bound,
// otherwise the first function in discovery order. fellBack is
// true when a non-empty preferred name was not found.
func Resolve(
	fns sandbox.Functions,
	preferred string,
) (fn sandbox.Function, fellBack bool, err error) {
	if len(fns) == 0 {
		return sandbox.Function{}, false, ErrNoCallable
	}
	if preferred != "" {
		if fn, ok := fns.Get(preferred); ok {
			return fn, false, nil
		}
		return fns[0], true, nil
	}
	return fns[0], false, nil
}

// Resolve is the package Resolve with the fallback logged.
func (r *DefaultRunner) Resolve(
	fns sandbox.Functions,
	preferred string,
) (sandbox.Function, error) {
	fn, fellBack, err := Resolve(fns, preferred)
	if fellBack {
		r.logger.Warn("preferred function not found, using first",
			logging.StringField("preferred", preferred),
			logging.FunctionField(fn.Name),
		)
	}
	return fn, err
}

// Arguments spreads a sequence input into positional arguments.
// Any other input is passed as the only argument.
func Arguments(input any) []any {
	if seq, ok := value.Normalize(input).([]any); ok {
		return seq
	}
	return []any{value.Normalize(input)}
}

// RunCase evaluates tc against fn under the per-case deadline.
// Errors never escape: they populate TestResult.Error and force
// Passed to false.
func (r *DefaultRunner) RunCase(
	ctx context.Context,
	fn sandbox.Function,
	tc result.TestCase,
) result.TestResult {
	tr := result.TestResult{
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
		Description:    tc.Description,
	}

	caseCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	actual, err := r.call(caseCtx, fn, Arguments(tc.Input))
	tr.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		err = r.classify(ctx, caseCtx, err)
		tr.Error = err.Error()
		tr.TimedOut = errors.Is(err, ErrTimeout)
		return tr
	}

	equal, err := value.Equal(tc.ExpectedOutput, actual)
	if err != nil {
		tr.Error = err.Error()
		return tr
	}
	tr.ActualOutput = actual
	tr.Passed = equal
	return tr
}

// RunAll evaluates cases sequentially. Result i belongs to case i.
func (r *DefaultRunner) RunAll(
	ctx context.Context,
	fn sandbox.Function,
	cases []result.TestCase,
) []result.TestResult {
	results := make([]result.TestResult, 0, len(cases))
	for i, tc := range cases {
		tr := r.RunCase(ctx, fn, tc)
		results = append(results, tr)

		r.logCase(i, fn.Name, tr)
		for _, hook := range r.caseHooks {
			hook(i, tr)
		}
	}
	return results
}

func (r *DefaultRunner) call(
	ctx context.Context,
	fn sandbox.Function,
	args []any,
) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("panic during invocation: %v", rec)
		}
	}()
	return r.invoker.Call(ctx, fn, args)
}

// classify maps an invocation error onto the message reported for
// the case.
func (r *DefaultRunner) classify(
	parent, caseCtx context.Context,
	err error,
) error {
	switch {
	case errors.Is(err, sandbox.ErrPending):
		return fmt.Errorf(
			"%w after %v: %v", ErrTimeout, r.timeout, err,
		)
	case errors.Is(err, sandbox.ErrInterrupted),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		caseCtx.Err() != nil:
		if parent.Err() != nil {
			return ErrCancelled
		}
		return fmt.Errorf("%w after %v", ErrTimeout, r.timeout)
	}
	return err
}

func (r *DefaultRunner) logCase(
	index int, name string, tr result.TestResult,
) {
	fields := []logging.Field{
		logging.CaseField(index),
		logging.FunctionField(name),
		logging.BoolField("passed", tr.Passed),
		logging.Int64Field("duration_ms", tr.DurationMs),
	}
	switch {
	case tr.TimedOut:
		r.logger.Warn("case timed out", fields...)
	case tr.Error != "":
		r.logger.Debug("case raised", append(
			fields, logging.StringField("error", tr.Error),
		)...)
	default:
		r.logger.Debug("case finished", fields...)
	}
}
