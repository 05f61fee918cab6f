package value

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Format renders v as stable, round-trippable display text.
// Undefined renders as "undefined", nil as "null", strings are
// JSON-quoted, sequences as [a, b] and mappings as {"k": v} with
// keys sorted.
func Format(v any) string {
	var sb strings.Builder
	format(&sb, Normalize(v))
	return sb.String()
}

// FormatNumber renders a number the way a script engine prints it:
// integers without a fractional part, NaN and the infinities by
// name.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	// 1e-07 -> 1e-7
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

func format(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		sb.WriteString("null")
	case UndefinedValue:
		sb.WriteString("undefined")
	case Opaque:
		sb.WriteString(t.Repr)
	case bool:
		sb.WriteString(strconv.FormatBool(t))
	case float64:
		sb.WriteString(FormatNumber(t))
	case string:
		sb.WriteString(quote(t))
	case []any:
		sb.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, item)
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(quote(k))
			sb.WriteString(": ")
			format(sb, t[k])
		}
		sb.WriteByte('}')
	}
}

// quote JSON-encodes s without HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
