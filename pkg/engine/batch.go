package engine

import (
	"context"
	"sync"

	"digital.vasic.snippetcheck/pkg/normalize"
	"digital.vasic.snippetcheck/pkg/result"
)

// Job is one snippet evaluation submitted to RunBatch.
type Job struct {
	// ID labels the job in the output; it is not interpreted.
	ID       string
	Source   string
	Dialect  normalize.Dialect
	Cases    []result.TestCase
	Function string
}

// BatchResult pairs a job with its outcome. Err is set only when
// the run itself could not complete, as with a cancelled context.
type BatchResult struct {
	ID     string
	Result result.RunResult
	Err    error
}

// RunBatch evaluates jobs concurrently with at most maxConcurrency
// runs in flight; zero or less uses the configured concurrency.
// Results are returned in the same order as jobs. An empty Dialect
// uses the configured default.
func (e *Engine) RunBatch(
	ctx context.Context,
	jobs []Job,
	maxConcurrency int,
) []BatchResult {
	if maxConcurrency <= 0 {
		maxConcurrency = e.cfg.Concurrency
	}

	sem := make(chan struct{}, maxConcurrency)
	ordered := make([]BatchResult, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, j Job) {
			defer wg.Done()
			ordered[idx].ID = j.ID

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				ordered[idx].Err = ctx.Err()
				return
			}

			dialect := j.Dialect
			if dialect == "" {
				dialect = e.cfg.ParsedDialect()
			}
			res, err := e.RunTestsWithDialect(
				ctx, j.Source, dialect, j.Cases, j.Function,
			)
			ordered[idx].Result = res
			ordered[idx].Err = err
		}(i, job)
	}
	wg.Wait()

	return ordered
}
