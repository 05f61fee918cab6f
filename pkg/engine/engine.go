// Package engine evaluates a learner snippet against a list of test
// cases. A run normalises the source, discovers its functions, loads
// it into a fresh sandbox, runs every case under its own deadline
// and folds the outcomes into a single RunResult.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"digital.vasic.snippetcheck/pkg/config"
	"digital.vasic.snippetcheck/pkg/extract"
	"digital.vasic.snippetcheck/pkg/logging"
	"digital.vasic.snippetcheck/pkg/metrics"
	"digital.vasic.snippetcheck/pkg/monitor"
	"digital.vasic.snippetcheck/pkg/normalize"
	"digital.vasic.snippetcheck/pkg/result"
	"digital.vasic.snippetcheck/pkg/runner"
	"digital.vasic.snippetcheck/pkg/sandbox"

	"github.com/google/uuid"
)

// statusCancelled labels runs abandoned because the caller's
// context ended. Such runs produce no RunResult.
const statusCancelled = "cancelled"

// Engine runs snippets. It holds only configuration fixed at
// construction, so concurrent runs share nothing mutable.
type Engine struct {
	cfg        config.Config
	normalizer *normalize.Normalizer
	builder    *sandbox.Builder
	logger     logging.Logger
	metrics    metrics.Recorder
	collector  *monitor.EventCollector
	newID      func() string
}

// New creates an Engine. The configuration is validated.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:     config.Default(),
		logger:  logging.NullLogger{},
		metrics: metrics.NoopMetrics{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	e.normalizer = normalize.New(
		normalize.WithStripOnly(e.cfg.StripOnly),
		normalize.WithMaxSourceBytes(e.cfg.MaxSourceBytes),
		normalize.WithMaxNestingDepth(e.cfg.MaxNestingDepth),
	)
	e.builder = sandbox.NewBuilder(
		sandbox.WithMaxCallStackSize(e.cfg.MaxCallStackSize),
		sandbox.WithConsoleLimit(e.cfg.ConsoleLimit),
		sandbox.WithMaxResultDepth(e.cfg.MaxResultDepth),
		sandbox.WithMaxResultElements(e.cfg.MaxResultElements),
	)
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// RunTests evaluates source in the configured default dialect. See
// RunTestsWithDialect.
func (e *Engine) RunTests(
	ctx context.Context,
	source string,
	cases []result.TestCase,
	preferred string,
) (result.RunResult, error) {
	return e.RunTestsWithDialect(
		ctx, source, e.cfg.ParsedDialect(), cases, preferred,
	)
}

// RunTestsWithDialect evaluates source written in dialect against
// cases, testing the function named preferred, or the first one
// declared when preferred is empty or absent.
//
// Every problem with the snippet is reported inside the RunResult.
// The error is non-nil only when ctx ends before the run completes
// or dialect is unknown.
func (e *Engine) RunTestsWithDialect(
	ctx context.Context,
	source string,
	dialect normalize.Dialect,
	cases []result.TestCase,
	preferred string,
) (res result.RunResult, err error) {
	if err := ctx.Err(); err != nil {
		return result.RunResult{}, err
	}

	runID := e.newID()
	start := time.Now()
	logger := e.logger.WithFields(logging.RunIDField(runID))

	e.metrics.IncInFlight()
	defer e.metrics.DecInFlight()
	if e.collector != nil {
		e.collector.EmitRunStarted(runID, len(cases))
	}

	var fnName string
	defer func() {
		if r := recover(); r != nil {
			logger.Error("run panicked",
				logging.StringField("panic", fmt.Sprint(r)))
			res = result.Aggregate(nil,
				result.RuntimeFailure(fmt.Sprintf("internal error: %v", r)), "")
			err = nil
		}
		if err != nil {
			logger.Warn("run aborted", logging.ErrorField(err))
			e.metrics.RecordRun(statusCancelled, time.Since(start))
			if e.collector != nil {
				e.collector.EmitRunFinished(runID, fnName, result.RunResult{
					Status: statusCancelled,
					Error:  err.Error(),
				})
			}
			return
		}
		res.RunID = runID
		res.DurationMs = time.Since(start).Milliseconds()
		e.finish(logger, dialect, fnName, res)
	}()

	res, fnName, err = e.run(ctx, logger, runID, source, dialect, cases, preferred)
	return res, err
}

func (e *Engine) run(
	ctx context.Context,
	logger logging.Logger,
	runID, source string,
	dialect normalize.Dialect,
	cases []result.TestCase,
	preferred string,
) (result.RunResult, string, error) {
	compileCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	src, err := e.normalizer.Normalize(compileCtx, source, dialect)
	cancel()
	if err != nil {
		var ce *normalize.CompileError
		if errors.As(err, &ce) {
			logger.Debug("compile failed",
				logging.IntField("line", ce.Line),
				logging.StringField("message", ce.Message))
			return result.Aggregate(nil,
				result.CompileFailure(ce.Error()), ""), "", nil
		}
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return result.Aggregate(nil, e.timedOut(), ""), "", nil
		}
		return result.RunResult{}, "", err
	}

	names := extract.FromAST(src.AST)
	logger.Debug("functions discovered",
		logging.StringField("names", fmt.Sprint(names)))

	loadCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	in, err := e.builder.Instantiate(loadCtx, src, names)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result.RunResult{}, "", ctxErr
		}
		if errors.Is(err, sandbox.ErrInterrupted) {
			return result.Aggregate(nil, e.timedOut(), ""), "", nil
		}
		var rt *sandbox.RuntimeError
		if errors.As(err, &rt) {
			return result.Aggregate(nil,
				result.RuntimeFailure(rt.Message), ""), "", nil
		}
		return result.Aggregate(nil,
			result.RuntimeFailure(err.Error()), ""), "", nil
	}
	if in.Contained {
		logger.Info("capability withheld",
			logging.StringField("reason", in.Reason))
		return result.Aggregate(nil,
			result.NoCallableFailure(true, in.Reason), in.Console()), "", nil
	}

	var fnName string
	r := runner.NewRunner(in,
		runner.WithTimeout(e.cfg.Timeout),
		runner.WithLogger(logger),
		runner.WithCaseHook(func(i int, tr result.TestResult) {
			e.metrics.RecordCase(tr.Passed, tr.TimedOut)
			if e.collector != nil {
				e.collector.EmitCase(runID, fnName, i, tr)
			}
		}),
	)
	fn, err := r.Resolve(in.Functions(), preferred)
	if err != nil {
		return result.Aggregate(nil,
			result.NoCallableFailure(false, ""), in.Console()), "", nil
	}
	fnName = fn.Name

	results := r.RunAll(ctx, fn, cases)
	if err := ctx.Err(); err != nil {
		return result.RunResult{}, fn.Name, err
	}
	return result.Aggregate(results, nil, in.Console()), fn.Name, nil
}

// timedOut is the top-level failure for a compile or load step
// that outran the timeout.
func (e *Engine) timedOut() *result.Failure {
	return result.RuntimeFailure(
		fmt.Sprintf("%v after %v", runner.ErrTimeout, e.cfg.Timeout),
	)
}

func (e *Engine) finish(
	logger logging.Logger,
	dialect normalize.Dialect,
	fnName string,
	res result.RunResult,
) {
	e.metrics.RecordRun(res.Status,
		time.Duration(res.DurationMs)*time.Millisecond)

	if e.collector != nil {
		e.collector.EmitRunFinished(res.RunID, fnName, res)
	}

	rl := logging.RunLog{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		RunID:      res.RunID,
		Status:     res.Status,
		Dialect:    string(dialect),
		Function:   fnName,
		Cases:      len(res.Results),
		Passed:     res.PassedCount(),
		DurationMs: res.DurationMs,
	}
	if !res.IsConsoleOnly() {
		rl.Error = res.Error
	}
	logger.LogRun(rl)
}
