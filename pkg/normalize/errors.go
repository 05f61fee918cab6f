package normalize

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrCompile is matched by every *CompileError.
var ErrCompile = errors.New("compile error")

// EnumHint is appended to compile errors involving enum
// declarations.
const EnumHint = "Hint: enum declarations need code generation and " +
	"are not supported. Use a plain object (const Color = " +
	"{ Red: 0 }) or a union of string literals instead."

var enumWord = regexp.MustCompile(`\benum\b`)

// CompileError describes a snippet that could not be normalised
// or compiled. Line and Column are 1-based; zero means unknown.
type CompileError struct {
	Message string
	Line    int
	Column  int
	Hint    string
}

// Error returns the learner-facing message including the hint.
func (e *CompileError) Error() string {
	msg := "Compilation error: " + e.Message
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

// Is reports whether target is ErrCompile.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompile
}

// Unwrap returns ErrCompile.
func (e *CompileError) Unwrap() error {
	return ErrCompile
}

// newCompileError builds a CompileError and attaches the enum hint
// when either the message or the raw source mentions enum.
func newCompileError(
	msg string, line, col int, source string,
) *CompileError {
	return &CompileError{
		Message: msg,
		Line:    line,
		Column:  col,
		Hint:    enumHint(msg, source),
	}
}

func enumHint(msg, source string) string {
	if mentionsEnum(msg) || mentionsEnum(source) {
		return EnumHint
	}
	return ""
}

func mentionsEnum(text string) bool {
	return enumWord.MatchString(text)
}

// recovered converts a panic value raised while compiling into a
// CompileError. Values of any type are accepted.
func recovered(r any, source string) *CompileError {
	var msg string
	switch v := r.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = fmt.Sprintf("%v", v)
	}
	return newCompileError(
		"compilation failed: "+msg, 0, 0, source,
	)
}
