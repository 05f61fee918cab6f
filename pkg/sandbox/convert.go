package sandbox

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/dop251/goja"

	"digital.vasic.snippetcheck/pkg/value"
)

// toJS builds a fresh guest value from a value-model datum.
// Sequences and mappings are copied so guest code never aliases
// caller data.
func (in *Instance) toJS(v any) goja.Value {
	switch t := v.(type) {
	case nil:
		return goja.Null()
	case value.UndefinedValue:
		return goja.Undefined()
	case bool, float64, string:
		return in.vm.ToValue(t)
	case value.Opaque:
		return in.vm.ToValue(t.Repr)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = in.toJS(item)
		}
		return in.vm.NewArray(items...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		obj := in.vm.NewObject()
		for _, k := range keys {
			_ = obj.Set(k, in.toJS(t[k]))
		}
		return obj
	}
	return in.toJS(value.Normalize(v))
}

// Result limits applied by NewBuilder.
const (
	DefaultMaxResultDepth    = 1000
	DefaultMaxResultElements = 1_000_000
)

var (
	mapExportType = reflect.TypeOf([][2]any{})
	setExportType = reflect.TypeOf([]any{})
)

// exporter converts one guest value into the value model. It fails
// once the value nests deeper than maxDepth or holds more than
// maxElements entries in total, and stops when ctx ends.
type exporter struct {
	in          *Instance
	ctx         context.Context
	maxDepth    int
	maxElements int
	budget      int
	seen        map[*goja.Object]bool
}

// export converts a guest value into the value model. It may run
// guest getters, so callers hold the guard.
func (in *Instance) export(v goja.Value) (any, error) {
	x := &exporter{
		in:          in,
		ctx:         in.ctx,
		maxDepth:    in.maxResultDepth,
		maxElements: in.maxResultElements,
		budget:      in.maxResultElements,
		seen:        map[*goja.Object]bool{},
	}
	return x.value(v, 0)
}

func (x *exporter) value(v goja.Value, depth int) (any, error) {
	switch {
	case v == nil || goja.IsUndefined(v):
		return value.Undefined, nil
	case goja.IsNull(v):
		return nil, nil
	case goja.IsBigInt(v):
		return value.Opaque{Repr: v.String() + "n"}, nil
	}

	switch t := v.(type) {
	case *goja.Symbol:
		return value.Opaque{Repr: t.String()}, nil
	case *goja.Object:
		if x.seen[t] {
			return value.Opaque{Repr: "[Circular]"}, nil
		}
		if depth >= x.maxDepth {
			return nil, &RuntimeError{Message: fmt.Sprintf(
				"result nested too deeply (more than %d levels)",
				x.maxDepth,
			)}
		}
		if err := x.ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		x.seen[t] = true
		defer delete(x.seen, t)
		return x.object(t, depth+1)
	}

	return value.Normalize(v.Export()), nil
}

// take reserves n entries of the element budget.
func (x *exporter) take(n int64) error {
	if n > int64(x.budget) {
		return &RuntimeError{Message: fmt.Sprintf(
			"result too large (more than %d elements)", x.maxElements,
		)}
	}
	x.budget -= int(n)
	return nil
}

// tick checks ctx every 1024 entries.
func (x *exporter) tick(i int) error {
	if i&1023 != 0 {
		return nil
	}
	if err := x.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return nil
}

func (x *exporter) object(obj *goja.Object, depth int) (any, error) {
	switch obj.ClassName() {
	case "Function", "AsyncFunction", "GeneratorFunction":
		return value.Opaque{Repr: functionRepr(obj)}, nil
	case "Array":
		return x.array(obj, depth)
	case "Date":
		if t, ok := obj.Export().(time.Time); ok {
			return t.UTC().Format("2006-01-02T15:04:05.000Z"), nil
		}
		return value.Opaque{Repr: "Invalid Date"}, nil
	case "Error", "RegExp":
		return value.Opaque{Repr: obj.String()}, nil
	case "Promise":
		return value.Opaque{Repr: "Promise { <pending> }"}, nil
	case "Number", "String", "Boolean":
		return value.Normalize(obj.Export()), nil
	}

	// Maps and Sets carry the plain Object class; their export type
	// tells them apart. Both become sequences: a Set of its members,
	// a Map of [key, value] pairs.
	switch obj.ExportType() {
	case mapExportType, setExportType:
		entries, err := x.in.arrayFrom(goja.Undefined(), obj)
		if err != nil {
			return nil, x.in.fromError(err)
		}
		return x.array(entries.ToObject(x.in.vm), depth)
	}

	keys := obj.Keys()
	if err := x.take(int64(len(keys))); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(keys))
	for i, k := range keys {
		if err := x.tick(i); err != nil {
			return nil, err
		}
		v, err := x.value(obj.Get(k), depth)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (x *exporter) array(obj *goja.Object, depth int) (any, error) {
	n := obj.Get("length").ToInteger()
	if err := x.take(n); err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i := range out {
		if err := x.tick(i); err != nil {
			return nil, err
		}
		v, err := x.value(obj.Get(strconv.Itoa(i)), depth)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// display renders a guest value for messages and console output.
// Values the exporter refuses are rendered by the reason.
func (in *Instance) display(v goja.Value) string {
	out, err := in.export(v)
	if err != nil {
		return "[" + err.Error() + "]"
	}
	return value.Format(out)
}

func functionRepr(obj *goja.Object) string {
	name := ""
	if v := obj.Get("name"); v != nil && !goja.IsUndefined(v) {
		name = v.String()
	}
	if name == "" {
		return "[Function (anonymous)]"
	}
	return "[Function: " + name + "]"
}
