// Package value defines the structurally comparable data model
// shared by test cases and evaluation results. A value is one of:
// nil (null), Undefined, bool, float64, string, []any, map[string]any
// or Opaque.
package value

import (
	"encoding/json"
	"reflect"
)

// UndefinedMarker is the mapping key used to encode Undefined in
// JSON documents.
const UndefinedMarker = "$undefined"

// UndefinedValue is the type of the Undefined sentinel. It is
// distinct from nil, which stands for null.
type UndefinedValue struct{}

// Undefined is the "absent value" sentinel.
var Undefined = UndefinedValue{}

// MarshalJSON encodes Undefined as {"$undefined":true}.
func (UndefinedValue) MarshalJSON() ([]byte, error) {
	return []byte(`{"` + UndefinedMarker + `":true}`), nil
}

// String returns "undefined".
func (UndefinedValue) String() string { return "undefined" }

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(UndefinedValue)
	return ok
}

// Opaque carries a guest value that has no data form, such as a
// function or a symbol. Repr is its display text.
type Opaque struct {
	Repr string
}

// MarshalJSON encodes the display text as a JSON string.
func (o Opaque) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Repr)
}

// String returns the display text.
func (o Opaque) String() string { return o.Repr }

// Normalize canonicalises decoded data into the value model.
// Numeric kinds become float64, typed slices and string-keyed maps
// become []any and map[string]any, and the {"$undefined": true}
// mapping becomes Undefined. The input is never modified.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case UndefinedValue, Opaque, bool, string, float64:
		return t
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		if isUndefinedMarker(t) {
			return Undefined
		}
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Normalize(item)
		}
		return out
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(
				iter.Value().Interface(),
			)
		}
		if isUndefinedMarker(out) {
			return Undefined
		}
		return out
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}

	return Opaque{Repr: rv.Type().String()}
}

func isUndefinedMarker(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	flag, ok := m[UndefinedMarker].(bool)
	return ok && flag
}
