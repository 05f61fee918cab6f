package sandbox

import (
	"errors"
	"regexp"
)

var (
	// ErrRuntime is matched by every *RuntimeError.
	ErrRuntime = errors.New("runtime error")

	// ErrInterrupted is returned when the guard stops guest code
	// because the context ended.
	ErrInterrupted = errors.New("execution interrupted")

	// ErrPending is returned when a function's promise is still
	// pending after every queued job has run. Nothing in the
	// sandbox can settle it later.
	ErrPending = errors.New("returned promise never settled")
)

// RuntimeError is an exception thrown by guest code, or a failure
// of the host while driving it.
type RuntimeError struct {
	Message string
	Cause   error
}

// Error returns the guest-facing message.
func (e *RuntimeError) Error() string {
	return e.Message
}

// Is reports whether target is ErrRuntime.
func (e *RuntimeError) Is(target error) bool {
	return target == ErrRuntime
}

// Unwrap returns the underlying cause, if any.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// Withheld lists the host capabilities that are absent from the
// guest global scope.
var Withheld = []string{
	"fetch", "XMLHttpRequest", "WebSocket",
	"localStorage", "sessionStorage", "indexedDB",
	"AbortController", "AbortSignal",
	"document", "window", "navigator",
	"setTimeout", "setInterval", "setImmediate",
}

var withheldRef = regexp.MustCompile(
	`\b(fetch|XMLHttpRequest|WebSocket|localStorage|` +
		`sessionStorage|indexedDB|AbortController|AbortSignal|` +
		`document|window|navigator|setTimeout|setInterval|` +
		`setImmediate)\b`,
)

// MentionsWithheld returns the first withheld capability named in
// msg.
func MentionsWithheld(msg string) (string, bool) {
	m := withheldRef.FindString(msg)
	return m, m != ""
}
