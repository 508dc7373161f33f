package dialogue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Bool is a boolean that also accepts its string form ("true", "False").
// Content authors quote scalars inconsistently, so both spellings load.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	v, err := parseScalar(data, strconv.ParseBool)
	if err != nil {
		return fmt.Errorf("invalid boolean %s: %w", data, err)
	}
	*b = Bool(v)
	return nil
}

func (b *Bool) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid boolean at line %d: expected scalar", node.Line)
	}
	v, err := strconv.ParseBool(node.Value)
	if err != nil {
		return fmt.Errorf("invalid boolean %q at line %d: %w", node.Value, node.Line, err)
	}
	*b = Bool(v)
	return nil
}

// Float is a number that also accepts its string form ("1.5").
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	v, err := parseScalar(data, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}
	*f = Float(v)
	return nil
}

func (f *Float) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid number at line %d: expected scalar", node.Line)
	}
	v, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q at line %d: %w", node.Value, node.Line, err)
	}
	*f = Float(v)
	return nil
}

// parseScalar unquotes a JSON string if needed and hands the text to parse.
func parseScalar[T any](data []byte, parse func(string) (T, error)) (T, error) {
	text := string(bytes.TrimSpace(data))
	if len(text) > 0 && text[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			var zero T
			return zero, err
		}
	}
	return parse(text)
}

func ptr[T any](v T) *T {
	return &v
}
