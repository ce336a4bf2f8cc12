package vmodel

import (
	"context"
	"fmt"
)

// Validate checks input against s. It returns the normalized model, or nil
// and an Issues error listing every violation in field declaration order
// (depth first). It never returns both.
func Validate(ctx context.Context, s Schema, input map[string]any) (*Model, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}
	return s.Validate(ctx, input)
}

// SafeValidate is like Validate but reports failure as (nil, false).
func SafeValidate(ctx context.Context, s Schema, input map[string]any) (*Model, bool) {
	m, err := Validate(ctx, s, input)
	if err != nil {
		return nil, false
	}
	return m, true
}

// Is returns true if input conforms to the schema s.
func Is(ctx context.Context, s Schema, input map[string]any) bool {
	_, ok := SafeValidate(ctx, s, input)
	return ok
}

// Call validates args against the parameter schema s and only then runs fn
// with the normalized arguments. When validation fails fn is not invoked and
// the Issues are returned.
func Call[R any](ctx context.Context, s Schema, args map[string]any, fn func(context.Context, *Model) (R, error)) (R, error) {
	m, err := Validate(ctx, s, args)
	if err != nil {
		var zero R
		return zero, err
	}
	return fn(ctx, m)
}
