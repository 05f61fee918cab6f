package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNormalize_Numbers(t *testing.T) {
	assert.Equal(t, 3.0, Normalize(3))
	assert.Equal(t, 3.0, Normalize(int64(3)))
	assert.Equal(t, 3.0, Normalize(uint8(3)))
	assert.Equal(t, 1.5, Normalize(float32(1.5)))
	assert.Equal(t, 2.0, Normalize(json.Number("2")))
}

func TestNormalize_Containers(t *testing.T) {
	got := Normalize(map[string][]int{"a": {1, 2}})
	assert.Equal(t, map[string]any{"a": []any{1.0, 2.0}}, got)

	assert.Equal(t, []any{}, Normalize([]int(nil)))
	assert.Equal(t, []any{"x", true}, Normalize([]any{"x", true}))
}

func TestNormalize_DoesNotModifyInput(t *testing.T) {
	in := []any{1, map[string]any{"k": 2}}
	_ = Normalize(in)
	assert.Equal(t, 1, in[0])
	assert.Equal(t, 2, in[1].(map[string]any)["k"])
}

func TestNormalize_UndefinedMarker(t *testing.T) {
	assert.True(t, IsUndefined(Normalize(
		map[string]any{UndefinedMarker: true},
	)))
	assert.False(t, IsUndefined(Normalize(
		map[string]any{UndefinedMarker: false},
	)))
	assert.False(t, IsUndefined(nil))
}

func TestNormalize_PointersAndUnknown(t *testing.T) {
	n := 7
	assert.Equal(t, 7.0, Normalize(&n))

	var p *int
	assert.Nil(t, Normalize(p))

	got := Normalize(make(chan int))
	assert.Equal(t, Opaque{Repr: "chan int"}, got)
}

func TestUndefined_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal([]any{Undefined, nil})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"$undefined":true},null]`, string(data))

	var decoded any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []any{Undefined, nil}, Normalize(decoded))
}

func TestOpaque_JSON(t *testing.T) {
	data, err := json.Marshal(Opaque{Repr: "[Function: f]"})
	require.NoError(t, err)
	assert.Equal(t, `"[Function: f]"`, string(data))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"ints and floats", 3, 3.0, true},
		{"strings", "a", "a", true},
		{"null vs undefined", nil, Undefined, false},
		{"undefined vs undefined", Undefined, Undefined, true},
		{"null vs zero", nil, 0, false},
		{"sequence order matters", []any{1, 2}, []any{2, 1}, false},
		{"sequence positional", []int{1, 2}, []any{1.0, 2.0}, true},
		{
			"mapping order free",
			map[string]any{"a": 1, "b": 2},
			map[string]any{"b": 2, "a": 1},
			true,
		},
		{
			"nested",
			map[string]any{"a": []any{map[string]any{"x": nil}}},
			map[string]any{"a": []any{map[string]any{"x": nil}}},
			true,
		},
		{
			"nested null vs undefined",
			map[string]any{"x": nil},
			map[string]any{"x": Undefined},
			false,
		},
		{"nan", math.NaN(), math.NaN(), true},
		{"signed zero", 0.0, math.Copysign(0, -1), true},
		{"string vs number", "1", 1, false},
		{"empty sequences", []any{}, []int(nil), true},
		{"opaque", Opaque{"f"}, Opaque{"f"}, true},
		{"opaque same display text", Opaque{"[Function: f]"}, Opaque{"[Function: f]"}, true},
		{"opaque different names", Opaque{"[Function: f]"}, Opaque{"[Function: g]"}, false},
		{"opaque vs string", Opaque{"[Function: f]"}, "[Function: f]", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Equal(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiff(t *testing.T) {
	assert.Empty(t, Diff([]any{1}, []any{1}))
	assert.NotEmpty(t, Diff([]any{1}, []any{2}))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{Undefined, "undefined"},
		{true, "true"},
		{3, "3"},
		{0.5, "0.5"},
		{-2.25, "-2.25"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{"a\"b", `"a\"b"`},
		{"<tag>", `"<tag>"`},
		{[]any{1, "x", nil}, `[1, "x", null]`},
		{map[string]any{"b": 1, "a": []any{}}, `{"a": [], "b": 1}`},
		{Opaque{"[Function: f]"}, "[Function: f]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.in))
	}
}

func TestFromYAML(t *testing.T) {
	doc := `
a: 1
b: 2.5
c: null
d: !undefined
e: [true, "s", ~]
f: .nan
g: -.inf
h: &anchor {x: 1}
i: *anchor
`
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &node))

	got, err := FromYAML(&node)
	require.NoError(t, err)

	m := got.(map[string]any)
	assert.Equal(t, 1.0, m["a"])
	assert.Equal(t, 2.5, m["b"])
	assert.Nil(t, m["c"])
	assert.True(t, IsUndefined(m["d"]))
	assert.Equal(t, []any{true, "s", nil}, m["e"])
	assert.True(t, math.IsNaN(m["f"].(float64)))
	assert.True(t, math.IsInf(m["g"].(float64), -1))
	assert.Equal(t, map[string]any{"x": 1.0}, m["i"])
}

func TestFromYAML_Absent(t *testing.T) {
	got, err := FromYAML(nil)
	require.NoError(t, err)
	assert.True(t, IsUndefined(got))

	got, err = FromYAML(&yaml.Node{})
	require.NoError(t, err)
	assert.True(t, IsUndefined(got))
}

func TestFromYAML_QuotedNumberStaysString(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`"42"`), &node))
	got, err := FromYAML(&node)
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}
