package normalize

import "fmt"

// Source limits applied by New.
const (
	DefaultMaxSourceBytes  = 256 * 1024
	DefaultMaxNestingDepth = 1000
)

// WithMaxSourceBytes bounds the size of a snippet in bytes.
func WithMaxSourceBytes(n int) Option {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.maxSourceBytes = n
		}
	}
}

// WithMaxNestingDepth bounds how deeply brackets may nest.
func WithMaxNestingDepth(n int) Option {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.maxNestingDepth = n
		}
	}
}

// checkLimits rejects sources the parsers cannot handle within a
// bounded stack. It runs before any parsing.
func (n *Normalizer) checkLimits(source string) *CompileError {
	if len(source) > n.maxSourceBytes {
		return newCompileError(
			fmt.Sprintf(
				"source is %d bytes, the limit is %d",
				len(source), n.maxSourceBytes,
			),
			0, 0, source,
		)
	}
	if line, col, ok := NestingExceeds(source, n.maxNestingDepth); ok {
		return newCompileError(
			fmt.Sprintf(
				"Line %d:%d brackets nested deeper than %d levels",
				line, col, n.maxNestingDepth,
			),
			line, col, source,
		)
	}
	return nil
}

// NestingExceeds scans source once and reports the position of the
// first bracket that opens level limit+1. String literals and
// comments are skipped; template substitutions count as a level.
func NestingExceeds(source string, limit int) (line, col int, ok bool) {
	const (
		code = iota
		lineComment
		blockComment
		quoted
		template
	)

	var (
		state = code
		quote byte
		depth int
		// templates holds the depth at which each open template
		// substitution resumes the enclosing template literal.
		templates []int
	)
	line, col = 1, 0

	for i := 0; i < len(source); i++ {
		c := source[i]
		if c == '\n' {
			line, col = line+1, 0
		} else {
			col++
		}

		switch state {
		case lineComment:
			if c == '\n' {
				state = code
			}
			continue
		case blockComment:
			if c == '*' && i+1 < len(source) && source[i+1] == '/' {
				i++
				col++
				state = code
			}
			continue
		case quoted:
			switch c {
			case '\\':
				i++
				col++
			case quote, '\n':
				state = code
			}
			continue
		case template:
			switch {
			case c == '\\':
				i++
				col++
			case c == '`':
				state = code
			case c == '$' && i+1 < len(source) && source[i+1] == '{':
				i++
				col++
				templates = append(templates, depth)
				depth++
				state = code
				if depth > limit {
					return line, col, true
				}
			}
			continue
		}

		switch c {
		case '/':
			if i+1 < len(source) {
				switch source[i+1] {
				case '/':
					state = lineComment
				case '*':
					state = blockComment
					i++
					col++
				}
			}
		case '\\':
			i++
			col++
		case '"', '\'':
			state, quote = quoted, c
		case '`':
			state = template
		case '(', '[', '{':
			depth++
			if depth > limit {
				return line, col, true
			}
		case ')', ']', '}':
			if c == '}' && len(templates) > 0 &&
				templates[len(templates)-1] == depth-1 {
				templates = templates[:len(templates)-1]
				depth--
				state = template
				continue
			}
			if depth > 0 {
				depth--
			}
		}
	}
	return 0, 0, false
}
