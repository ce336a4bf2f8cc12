package dsl

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	vmodel "github.com/reoring/vmodel"
)

// Check wraps fn as a named custom validator. fn receives the value after
// type acceptance and constraints and may return a replacement; returning a
// *vmodel.CustomError keeps its code, template and context in the issue.
func Check(name string, fn func(ctx context.Context, v any) (any, error)) vmodel.Validator {
	return vmodel.Validator{Name: name, Fn: fn}
}

// Predicate builds a validator from a boolean test. A false result rejects
// the value with the given code and template; the template may reference
// {bad_value}.
func Predicate(name, code, template string, ok func(v any) bool) vmodel.Validator {
	if ok == nil {
		return vmodel.Validator{Name: name, Err: errors.New("nil predicate")}
	}
	return vmodel.Validator{Name: name, Fn: func(_ context.Context, v any) (any, error) {
		if ok(v) {
			return v, nil
		}
		return nil, vmodel.NewCustomError(code, template, map[string]any{"bad_value": v})
	}}
}

// CEL compiles a boolean CEL expression over the variable `value`, e.g.
// `value > 0 && value < 100` or `value.startsWith("v")`. Compile errors are
// recorded on the validator and fail Build. A false result (or an evaluation
// error) rejects with code value_error.cel and context {bad_value, expr}.
func CEL(expr, template string) vmodel.Validator {
	name := "cel"
	env, err := cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return vmodel.Validator{Name: name, Err: err}
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return vmodel.Validator{Name: name, Err: fmt.Errorf("compile %q: %w", expr, iss.Err())}
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return vmodel.Validator{Name: name, Err: fmt.Errorf("expression %q yields %s, want bool", expr, out)}
	}
	prg, err := env.Program(ast)
	if err != nil {
		return vmodel.Validator{Name: name, Err: fmt.Errorf("program %q: %w", expr, err)}
	}
	if template == "" {
		template = "value does not satisfy {expr}"
	}
	return vmodel.Validator{Name: name, Fn: func(_ context.Context, v any) (any, error) {
		out, _, err := prg.Eval(map[string]any{"value": celValue(v)})
		if err == nil {
			if b, ok := out.Value().(bool); ok && b {
				return v, nil
			}
		}
		return nil, vmodel.NewCustomError("cel", template, map[string]any{"bad_value": v, "expr": expr})
	}}
}

// celValue exposes nested models to CEL as plain maps.
func celValue(v any) any {
	switch t := v.(type) {
	case *vmodel.Model:
		return t.AsMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = celValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = celValue(e)
		}
		return out
	}
	return v
}
