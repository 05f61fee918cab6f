// Package result defines the test case, per-case outcome and
// run-level verdict types, and folds per-case outcomes into a
// single RunResult.
package result

import (
	"encoding/json"

	"digital.vasic.snippetcheck/pkg/value"
)

// Status constants classify a completed run.
const (
	StatusPassed       = "passed"
	StatusFailed       = "failed"
	StatusCompileError = "compile_error"
	StatusNoCallable   = "no_callable"
	StatusRuntimeError = "runtime_error"
)

// TestCase is one input/expected-output pair supplied by the
// caller. Input may be a sequence standing for several positional
// arguments.
type TestCase struct {
	Input          any    `json:"input"`
	ExpectedOutput any    `json:"expectedOutput"`
	Description    string `json:"description,omitempty"`
}

// TestResult is the outcome of running one TestCase. Exactly one
// of ActualOutput and Error is meaningful: a non-empty Error means
// the invocation failed and ActualOutput is absent.
type TestResult struct {
	Passed         bool
	Input          any
	ExpectedOutput any
	ActualOutput   any
	Error          string
	Description    string

	// TimedOut marks a failure caused by the case deadline.
	TimedOut bool

	// DurationMs is the wall-clock time of the invocation.
	DurationMs int64
}

// HasActual reports whether ActualOutput carries a value.
func (r TestResult) HasActual() bool {
	return r.Error == ""
}

type testResultJSON struct {
	Passed         bool   `json:"passed"`
	Input          any    `json:"input"`
	ExpectedOutput any    `json:"expectedOutput"`
	ActualOutput   *any   `json:"actualOutput,omitempty"`
	Error          string `json:"error,omitempty"`
	Description    string `json:"description,omitempty"`
	TimedOut       bool   `json:"timedOut,omitempty"`
	DurationMs     int64  `json:"durationMs"`
}

// MarshalJSON emits actualOutput only when the case produced a
// value, so a null result and an absent one stay distinguishable.
func (r TestResult) MarshalJSON() ([]byte, error) {
	out := testResultJSON{
		Passed:         r.Passed,
		Input:          r.Input,
		ExpectedOutput: r.ExpectedOutput,
		Error:          r.Error,
		Description:    r.Description,
		TimedOut:       r.TimedOut,
		DurationMs:     r.DurationMs,
	}
	if r.HasActual() {
		actual := r.ActualOutput
		out.ActualOutput = &actual
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON. Decoded values are
// normalised into the value model.
func (r *TestResult) UnmarshalJSON(data []byte) error {
	var in struct {
		testResultJSON
		ActualOutput json.RawMessage `json:"actualOutput"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*r = TestResult{
		Passed:         in.Passed,
		Input:          value.Normalize(in.Input),
		ExpectedOutput: value.Normalize(in.ExpectedOutput),
		Error:          in.Error,
		Description:    in.Description,
		TimedOut:       in.TimedOut,
		DurationMs:     in.DurationMs,
	}
	if len(in.ActualOutput) > 0 {
		var actual any
		if err := json.Unmarshal(in.ActualOutput, &actual); err != nil {
			return err
		}
		r.ActualOutput = value.Normalize(actual)
	}
	return nil
}

// DisplayInput renders the case input for humans.
func (r TestResult) DisplayInput() string {
	return value.Format(r.Input)
}

// DisplayExpected renders the expected output for humans.
func (r TestResult) DisplayExpected() string {
	return value.Format(r.ExpectedOutput)
}

// DisplayActual renders the actual output, or an empty string
// when the case failed with an error.
func (r TestResult) DisplayActual() string {
	if !r.HasActual() {
		return ""
	}
	return value.Format(r.ActualOutput)
}

// RunResult is the verdict of one evaluation run.
type RunResult struct {
	// AllPassed is true iff Results is non-empty and every case
	// passed.
	AllPassed bool `json:"allPassed"`

	// Results holds one entry per test case, in input order.
	Results []TestResult `json:"results"`

	// Error carries a top-level failure, or captured console
	// output prefixed with ConsolePrefix.
	Error string `json:"error,omitempty"`

	// Console is the raw captured console output.
	Console string `json:"console,omitempty"`

	// Status is one of the Status* constants.
	Status string `json:"status"`

	// RunID identifies the run in logs and monitor events.
	RunID string `json:"runId,omitempty"`

	// DurationMs is the wall-clock time of the whole run.
	DurationMs int64 `json:"durationMs"`
}

// PassedCount returns the number of passing cases.
func (r RunResult) PassedCount() int {
	n := 0
	for _, tr := range r.Results {
		if tr.Passed {
			n++
		}
	}
	return n
}

// IsConsoleOnly reports whether Error holds informational console
// output rather than a failure.
func (r RunResult) IsConsoleOnly() bool {
	return r.Console != "" && r.Error == ConsolePrefix+" "+r.Console
}
