package result

import (
	"strings"
)

// ConsolePrefix labels captured console output placed in the
// RunResult error slot.
const ConsolePrefix = "Console output:"

// Top-level messages.
const (
	MsgNoCallable = "No callable function found. " +
		"Make sure your code declares a function."
	MsgContained = "The code tried to use a capability " +
		"that is not available here"
)

// Failure is a condition that prevents any case from running.
type Failure struct {
	Status  string
	Message string
}

// CompileFailure builds a compile-error failure.
func CompileFailure(msg string) *Failure {
	return &Failure{Status: StatusCompileError, Message: msg}
}

// NoCallableFailure builds the "no callable" failure. When the
// snippet was contained, the reason is appended.
func NoCallableFailure(contained bool, reason string) *Failure {
	msg := MsgNoCallable
	if contained {
		msg += " " + MsgContained
		if reason != "" {
			msg += " (" + reason + ")"
		}
		msg += "."
	}
	return &Failure{Status: StatusNoCallable, Message: msg}
}

// RuntimeFailure builds a failure for errors raised while the
// snippet was being loaded.
func RuntimeFailure(msg string) *Failure {
	return &Failure{
		Status:  StatusRuntimeError,
		Message: "Runtime error while loading code: " + msg,
	}
}

// Aggregate folds per-case results into a RunResult. A non-nil
// failure short-circuits: Results is empty and Error carries the
// failure message. Otherwise AllPassed is the conjunction of the
// per-case flags and is false for an empty list. Console output
// is surfaced in the error slot only when there is no failure.
func Aggregate(
	results []TestResult,
	failure *Failure,
	console string,
) RunResult {
	console = strings.TrimRight(console, "\n")

	if failure != nil {
		return RunResult{
			AllPassed: false,
			Results:   []TestResult{},
			Error:     failure.Message,
			Console:   console,
			Status:    failure.Status,
		}
	}

	out := RunResult{
		Results: make([]TestResult, len(results)),
		Console: console,
	}
	copy(out.Results, results)

	out.AllPassed = len(results) > 0
	for _, r := range results {
		if !r.Passed {
			out.AllPassed = false
			break
		}
	}

	if out.AllPassed {
		out.Status = StatusPassed
	} else {
		out.Status = StatusFailed
	}
	if console != "" {
		out.Error = ConsolePrefix + " " + console
	}
	return out
}
