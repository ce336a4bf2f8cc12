package vmodel

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Bind decodes a validated model into T. Struct fields are matched by their
// json tag (falling back to a case-insensitive field name match).
func Bind[T any](m *Model) (T, error) {
	var out T
	if m == nil {
		return out, fmt.Errorf("vmodel: bind: nil model")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return out, fmt.Errorf("vmodel: bind: %w", err)
	}
	if err := dec.Decode(m.AsMap()); err != nil {
		return out, fmt.Errorf("vmodel: bind %s: %w", m.Name(), err)
	}
	return out, nil
}
