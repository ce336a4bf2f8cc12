package jsonschema

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend incrementally.
type Schema struct {
	// Core
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Nullable    bool   `json:"nullable,omitempty"`

	// Number
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *Additional        `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`
}

// Float returns a pointer to f for the optional numeric keywords.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to n for the optional length keywords.
func Int(n int) *int { return &n }

// Additional is the additionalProperties keyword: a schema for the values of
// undeclared keys, or false when undeclared keys are forbidden.
type Additional struct {
	Schema *Schema
	Forbid bool
}

// AdditionalSchema allows undeclared keys whose values match s.
func AdditionalSchema(s *Schema) *Additional { return &Additional{Schema: s} }

// NoAdditional forbids undeclared keys.
func NoAdditional() *Additional { return &Additional{Forbid: true} }

func (a Additional) MarshalJSON() ([]byte, error) {
	switch {
	case a.Forbid:
		return []byte("false"), nil
	case a.Schema == nil:
		return []byte("true"), nil
	}
	return json.Marshal(a.Schema)
}

func (a *Additional) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "false":
		*a = Additional{Forbid: true}
		return nil
	case "true":
		*a = Additional{}
		return nil
	}
	var s Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*a = Additional{Schema: &s}
	return nil
}
