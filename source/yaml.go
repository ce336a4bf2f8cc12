package source

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML decodes a YAML mapping. Nested mappings are normalized to
// map[string]any; non-string keys are rendered with fmt.Sprint.
func YAML(b []byte) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("source: yaml: %w", err)
	}
	obj, ok := Normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w (got %T)", ErrNotObject, raw)
	}
	return obj, nil
}

// Normalize converts YAML-decoded values so every mapping is map[string]any.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	}
	return v
}
