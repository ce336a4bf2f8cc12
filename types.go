package vmodel

import (
	"context"

	js "github.com/reoring/vmodel/jsonschema"
)

// Type checks and normalizes a single raw value. Issues returned by Check carry
// paths relative to the checked value; callers rebase them under their own
// path. Implementations must not mutate v and must be safe for concurrent use.
type Type interface {
	Check(ctx context.Context, v any) (any, Issues)
	// Describe names the type for messages and reprs (e.g. "list[float]").
	Describe() string
	// JSONSchema projects the type into a JSON Schema representation.
	JSONSchema() (*js.Schema, error)
}

// NullableType is implemented by types that accept an explicit null.
type NullableType interface {
	Type
	AcceptsNull() bool
}

// Schema is an immutable, ordered set of field descriptors. A Schema is itself a
// Type, so schemas nest as field, list element or map value types.
type Schema interface {
	Type
	Name() string
	// Fields returns a copy of the descriptors in declaration order.
	Fields() []FieldDescriptor
	// Validate checks input and returns either the normalized model or Issues.
	Validate(ctx context.Context, input map[string]any) (*Model, error)
}

// FieldDescriptor declares one field of a Schema.
type FieldDescriptor struct {
	Name string
	Type Type
	// Required fields emit a missing issue when absent. A field with no default
	// that was not marked optional is required.
	Required bool
	// Default is materialized (deep-copied) for absent, non-required fields.
	Default any
	// Nullable accepts an explicit null without further checks.
	Nullable    bool
	Constraints []Constraint
	Validators  []Validator
	Description string
}

// UnknownPolicy controls how input keys without a descriptor are handled.
type UnknownPolicy int

const (
	UnknownIgnore UnknownPolicy = iota // Drop unknown keys.
	UnknownForbid                      // Reject unknown keys with an issue each.
	UnknownAllow                       // Keep unknown keys in the model after declared fields.
)

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownForbid:
		return "forbid"
	case UnknownAllow:
		return "allow"
	default:
		return "ignore"
	}
}
