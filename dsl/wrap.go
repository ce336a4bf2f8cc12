package dsl

import (
	"context"
	"fmt"

	vmodel "github.com/reoring/vmodel"
	js "github.com/reoring/vmodel/jsonschema"
)

type nullableType struct{ inner vmodel.Type }

// Nullable wraps t so that an explicit null is accepted and passed through
// unchanged. Non-null values are checked by t.
func Nullable(t vmodel.Type) vmodel.Type {
	if n, ok := t.(nullableType); ok {
		return n
	}
	return nullableType{inner: t}
}

func (n nullableType) Check(ctx context.Context, v any) (any, vmodel.Issues) {
	return n.inner.Check(ctx, v)
}

func (n nullableType) AcceptsNull() bool { return true }

func (n nullableType) Describe() string { return "optional[" + n.inner.Describe() + "]" }

func (n nullableType) JSONSchema() (*js.Schema, error) {
	s, err := n.inner.JSONSchema()
	if err != nil {
		return nil, err
	}
	s.Nullable = true
	return s, nil
}

// Unwrap returns the wrapped type.
func (n nullableType) Unwrap() vmodel.Type { return n.inner }

type constrainedType struct {
	inner vmodel.Type
	cs    []vmodel.Constraint
}

// NewConstrained attaches constraints to t, e.g. a positive float or a
// non-empty string used as a map key type. Constraints run in order after t
// accepts the value and stop at the first failure.
func NewConstrained(t vmodel.Type, cs ...vmodel.Constraint) (vmodel.Type, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: constrained: nil type", vmodel.ErrInvalidSchema)
	}
	if err := vmodel.CheckConstraints(cs); err != nil {
		return nil, fmt.Errorf("%w: constrained %s: %w", vmodel.ErrInvalidSchema, t.Describe(), err)
	}
	own := make([]vmodel.Constraint, len(cs))
	copy(own, cs)
	return constrainedType{inner: t, cs: own}, nil
}

// Constrained is like NewConstrained but panics on an invalid combination.
func Constrained(t vmodel.Type, cs ...vmodel.Constraint) vmodel.Type {
	ct, err := NewConstrained(t, cs...)
	if err != nil {
		panic(err)
	}
	return ct
}

func (c constrainedType) Check(ctx context.Context, v any) (any, vmodel.Issues) {
	nv, iss := c.inner.Check(ctx, v)
	if len(iss) > 0 {
		return nil, iss
	}
	out, it := vmodel.ApplyConstraints(nv, c.cs)
	if it != nil {
		return nil, vmodel.Issues{*it}
	}
	return out, nil
}

func (c constrainedType) AcceptsNull() bool {
	nt, ok := c.inner.(vmodel.NullableType)
	return ok && nt.AcceptsNull()
}

func (c constrainedType) Describe() string { return "constrained " + c.inner.Describe() }

func (c constrainedType) JSONSchema() (*js.Schema, error) {
	s, err := c.inner.JSONSchema()
	if err != nil {
		return nil, err
	}
	annotate(s, c.cs)
	return s, nil
}

// Constraints returns a copy of the attached constraints.
func (c constrainedType) Constraints() []vmodel.Constraint {
	out := make([]vmodel.Constraint, len(c.cs))
	copy(out, c.cs)
	return out
}

func annotate(s *js.Schema, cs []vmodel.Constraint) {
	for _, c := range cs {
		if c.Annotate != nil {
			c.Annotate(s)
		}
	}
}
