package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// UndefinedTag is the YAML tag that decodes to Undefined.
const UndefinedTag = "!undefined"

// FromYAML converts a decoded YAML node into the value model. A
// zero node (a field absent from the document) yields Undefined,
// as does any node tagged !undefined.
func FromYAML(node *yaml.Node) (any, error) {
	if node == nil || node.Kind == 0 {
		return Undefined, nil
	}
	if node.Tag == UndefinedTag {
		return Undefined, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Undefined, nil
		}
		return FromYAML(node.Content[0])
	case yaml.AliasNode:
		return FromYAML(node.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := FromYAML(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			v, err := FromYAML(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		if isUndefinedMarker(out) {
			return Undefined, nil
		}
		return out, nil
	case yaml.ScalarNode:
		return scalarFromYAML(node)
	}

	return nil, fmt.Errorf(
		"line %d: unsupported yaml node kind %d",
		node.Line, node.Kind,
	)
}

func scalarFromYAML(node *yaml.Node) (any, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return b, nil
	case "!!int", "!!float":
		return parseNumber(node)
	default:
		return node.Value, nil
	}
}

func parseNumber(node *yaml.Node) (any, error) {
	switch strings.ToLower(node.Value) {
	case ".nan":
		return math.NaN(), nil
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	}

	var f float64
	if err := node.Decode(&f); err == nil {
		return f, nil
	}
	f, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return nil, fmt.Errorf(
			"line %d: invalid number %q", node.Line, node.Value,
		)
	}
	return f, nil
}
