// Package extract enumerates the top-level functions a snippet
// declares without running it.
package extract

import (
	"regexp"
	"sort"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"

	"digital.vasic.snippetcheck/pkg/normalize"
)

// Names returns the names of top-level functions declared in
// source, in declaration order with duplicates removed. Source that
// does not parse is scanned with regular expressions instead.
// Names never panics; on any failure it returns an empty slice.
// Sources too large or too deeply nested to parse safely are
// scanned as well.
func Names(source string) (names []string) {
	defer func() {
		if recover() != nil {
			names = []string{}
		}
	}()

	if len(source) > normalize.DefaultMaxSourceBytes {
		return Scan(source)
	}
	if _, _, deep := normalize.NestingExceeds(
		source, normalize.DefaultMaxNestingDepth,
	); deep {
		return Scan(source)
	}

	prg, err := parser.ParseFile(
		nil, "", source, 0, parser.WithDisableSourceMaps,
	)
	if err != nil || prg == nil {
		return Scan(source)
	}
	return FromAST(prg)
}

// FromAST walks the top-level statements of prg. Function
// declarations count, as do var, let and const bindings and plain
// assignments whose value is a function or arrow expression.
func FromAST(prg *ast.Program) []string {
	c := newCollector()
	if prg == nil {
		return c.names
	}

	for _, stmt := range prg.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			if s.Function != nil && s.Function.Name != nil {
				c.add(s.Function.Name.Name.String())
			}
		case *ast.VariableStatement:
			c.bindings(s.List)
		case *ast.LexicalDeclaration:
			c.bindings(s.List)
		case *ast.ExpressionStatement:
			assign, ok := s.Expression.(*ast.AssignExpression)
			if !ok || !isFunction(assign.Right) {
				continue
			}
			if id, ok := assign.Left.(*ast.Identifier); ok {
				c.add(id.Name.String())
			}
		}
	}
	return c.names
}

func isFunction(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
		return true
	}
	return false
}

var (
	funcDecl = regexp.MustCompile(
		`(?:^|[^\w$.])(?:async\s+)?function\s*\*?\s*` +
			`([A-Za-z_$][\w$]*)\s*\(`,
	)
	funcBinding = regexp.MustCompile(
		`(?:^|[^\w$.])(?:const|let|var)\s+([A-Za-z_$][\w$]*)` +
			`\s*(?::[^=]+)?=\s*(?:async\s+)?` +
			`(?:function\b|\([^()]*\)\s*(?::[^=]+)?=>|` +
			`[A-Za-z_$][\w$]*\s*=>)`,
	)
)

// Scan finds function names with regular expressions. It is the
// fallback for source the parser rejects.
func Scan(source string) []string {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for _, re := range []*regexp.Regexp{funcDecl, funcBinding} {
		for _, m := range re.FindAllStringSubmatchIndex(source, -1) {
			hits = append(hits, hit{
				pos:  m[2],
				name: source[m[2]:m[3]],
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].pos < hits[j].pos
	})

	c := newCollector()
	for _, h := range hits {
		c.add(h.name)
	}
	return c.names
}

type collector struct {
	names []string
	seen  map[string]bool
}

func newCollector() *collector {
	return &collector{names: []string{}, seen: map[string]bool{}}
}

func (c *collector) add(name string) {
	if name == "" || c.seen[name] {
		return
	}
	c.seen[name] = true
	c.names = append(c.names, name)
}

func (c *collector) bindings(list []*ast.Binding) {
	for _, b := range list {
		id, ok := b.Target.(*ast.Identifier)
		if !ok || !isFunction(b.Initializer) {
			continue
		}
		c.add(id.Name.String())
	}
}
