// Package normalize turns a learner snippet into a compiled,
// runnable script. TypeScript is erased to JavaScript, module
// syntax is reduced to a plain script and the result is compiled
// once into a program that any number of runtimes can share.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
	"github.com/evanw/esbuild/pkg/api"
)

// Dialect names the source language of a snippet.
type Dialect string

// Supported dialects.
const (
	TypeScript Dialect = "typescript"
	JavaScript Dialect = "javascript"
)

// ParseDialect maps a user-supplied name onto a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ts", "typescript":
		return TypeScript, nil
	case "js", "javascript":
		return JavaScript, nil
	}
	return "", fmt.Errorf("unknown dialect %q", s)
}

// Filename is the name compiled programs report in stack traces.
const Filename = "snippet.js"

// Source is a normalised, compiled snippet. It is immutable once
// built.
type Source struct {
	// Text is the script text that was compiled.
	Text string

	// Dialect is the dialect the snippet was written in.
	Dialect Dialect

	// AST is the parsed script.
	AST *ast.Program

	// Program is the compiled script.
	Program *goja.Program
}

// Normalizer converts snippets into compiled Sources.
type Normalizer struct {
	stripOnly       bool
	target          api.Target
	maxSourceBytes  int
	maxNestingDepth int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithStripOnly controls whether TypeScript constructs that need
// code generation, such as enums, are rejected.
func WithStripOnly(stripOnly bool) Option {
	return func(n *Normalizer) {
		n.stripOnly = stripOnly
	}
}

// New creates a Normalizer. Strip-only mode is on by default, and
// sources are bounded by DefaultMaxSourceBytes and
// DefaultMaxNestingDepth.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		stripOnly:       true,
		target:          api.ES2020,
		maxSourceBytes:  DefaultMaxSourceBytes,
		maxNestingDepth: DefaultMaxNestingDepth,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type outcome struct {
	src *Source
	err error
}

// Normalize erases and compiles source. Compile failures are
// returned as *CompileError. If ctx ends first, ctx.Err() is
// returned.
func (n *Normalizer) Normalize(
	ctx context.Context,
	source string,
	dialect Dialect,
) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan outcome, 1)
	go func() {
		src, err := n.normalize(source, dialect)
		done <- outcome{src: src, err: err}
	}()

	select {
	case out := <-done:
		return out.src, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (n *Normalizer) normalize(
	source string,
	dialect Dialect,
) (src *Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			src = nil
			err = recovered(r, source)
		}
	}()

	switch dialect {
	case "":
		dialect = TypeScript
	case TypeScript, JavaScript:
	default:
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}

	if ce := n.checkLimits(source); ce != nil {
		return nil, ce
	}

	text := source
	if dialect == TypeScript {
		text, err = n.eraseTypes(source)
		if err != nil {
			return nil, err
		}
	}

	text = stripModuleSyntax(text)

	prg, err := parser.ParseFile(
		nil, Filename, text, 0, parser.WithDisableSourceMaps,
	)
	if err != nil {
		return nil, fromParserError(err, source)
	}

	program, err := goja.CompileAST(prg, false)
	if err != nil {
		return nil, fromCompilerError(err, source)
	}

	return &Source{
		Text:    text,
		Dialect: dialect,
		AST:     prg,
		Program: program,
	}, nil
}

var enumDecl = regexp.MustCompile(
	`(?m)^[ \t]*(?:export[ \t]+)?(?:const[ \t]+)?enum[ \t]+[A-Za-z_$][\w$]*[ \t]*\{`,
)

func (n *Normalizer) eraseTypes(source string) (string, error) {
	if n.stripOnly {
		if loc := enumDecl.FindStringIndex(source); loc != nil {
			line := strings.Count(source[:loc[0]], "\n") + 1
			return "", newCompileError(
				fmt.Sprintf(
					"Line %d: enum declarations are not "+
						"supported in strip-only mode",
					line,
				),
				line, 1, source,
			)
		}
	}

	res := api.Transform(source, api.TransformOptions{
		Loader:     api.LoaderTS,
		Target:     n.target,
		Sourcefile: "snippet.ts",
		LogLevel:   api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		return "", fromESBuild(res.Errors, source)
	}
	return string(res.Code), nil
}

func fromESBuild(msgs []api.Message, source string) *CompileError {
	first := msgs[0]
	line, col := 0, 0
	msg := first.Text
	if first.Location != nil {
		line = first.Location.Line
		col = first.Location.Column + 1
		msg = fmt.Sprintf("Line %d:%d %s", line, col, first.Text)
	}
	if len(msgs) > 1 {
		msg += fmt.Sprintf(" (and %d more errors)", len(msgs)-1)
	}
	return newCompileError(msg, line, col, source)
}

func fromParserError(err error, source string) *CompileError {
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		msg := fmt.Sprintf(
			"Line %d:%d %s",
			first.Position.Line, first.Position.Column,
			first.Message,
		)
		if len(list) > 1 {
			msg += fmt.Sprintf(
				" (and %d more errors)", len(list)-1,
			)
		}
		return newCompileError(
			msg, first.Position.Line, first.Position.Column,
			source,
		)
	}
	return newCompileError(err.Error(), 0, 0, source)
}

func fromCompilerError(err error, source string) *CompileError {
	var syntaxErr *goja.CompilerSyntaxError
	if errors.As(err, &syntaxErr) && syntaxErr.File != nil {
		pos := syntaxErr.File.Position(syntaxErr.Offset)
		return newCompileError(
			fmt.Sprintf(
				"Line %d:%d %s",
				pos.Line, pos.Column, syntaxErr.Message,
			),
			pos.Line, pos.Column, source,
		)
	}
	return newCompileError(err.Error(), 0, 0, source)
}
