package vmodel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/reoring/vmodel/i18n"
	js "github.com/reoring/vmodel/jsonschema"
)

// Constraint is a named predicate evaluated after type acceptance. Apply
// returns the value to carry forward (constraints such as strip_whitespace
// transform it) and whether the value satisfies the constraint.
type Constraint struct {
	Name   string         // e.g. "gt", "min_length"
	Code   string         // issue code on failure
	Params map[string]any // template parameters, e.g. {"limit_value": 0}
	// Message overrides the i18n template for Code when set.
	Message string
	Apply   func(v any) (any, bool)
	// Annotate projects the constraint into a JSON Schema node.
	Annotate func(s *js.Schema)
	// Err records a construction problem (bad pattern, negative length). Schema
	// builders refuse constraints carrying an Err.
	Err error
}

func (c Constraint) message() string {
	if c.Message != "" {
		return i18n.Render(c.Message, c.Params)
	}
	return i18n.T(c.Code, c.Params)
}

// Validator is a caller-defined check that runs after type acceptance and
// constraints. Fn may return a replacement value; returning an error rejects
// the value. A *CustomError keeps its code and context in the resulting issue.
type Validator struct {
	Name string
	Fn   func(ctx context.Context, v any) (any, error)
	// Err records a construction problem (e.g. an expression that does not compile).
	Err error
}

// CustomError is a caller-defined validation failure with a message template
// rendered from Context, e.g. "Received bad value: {bad_value}".
type CustomError struct {
	Code     string
	Template string
	Context  map[string]any
}

// NewCustomError builds a CustomError.
func NewCustomError(code, template string, ctx map[string]any) *CustomError {
	return &CustomError{Code: code, Template: template, Context: ctx}
}

func (e *CustomError) Error() string { return i18n.Render(e.Template, e.Context) }

// CheckValue runs t against v with uniform null handling: nil is accepted only
// by types implementing NullableType.
func CheckValue(ctx context.Context, t Type, v any) (any, Issues) {
	if v == nil {
		if nt, ok := t.(NullableType); ok && nt.AcceptsNull() {
			return nil, nil
		}
		return nil, Issues{NewIssue(nil, KindTypeMismatch, CodeNoneNotAllowed, nil)}
	}
	return t.Check(ctx, v)
}

// ApplyConstraints evaluates cs in order and stops at the first failure, which
// is reported as a single constraint_violation issue at the empty path.
func ApplyConstraints(v any, cs []Constraint) (any, *Issue) {
	cur := v
	for _, c := range cs {
		if c.Apply == nil {
			continue
		}
		next, ok := c.Apply(cur)
		if !ok {
			it := Issue{Kind: KindConstraint, Code: c.Code, Message: c.message(), Context: copyParams(c.Params)}
			return nil, &it
		}
		cur = next
	}
	return cur, nil
}

// RunValidators runs vs in order, threading transformed values through. The
// first rejection is reported as a single custom issue.
func RunValidators(ctx context.Context, v any, vs []Validator) (any, *Issue) {
	cur := v
	for _, val := range vs {
		if val.Fn == nil {
			continue
		}
		next, err := val.Fn(ctx, cur)
		if err != nil {
			it := customIssue(err)
			return nil, &it
		}
		cur = next
	}
	return cur, nil
}

func customIssue(err error) Issue {
	var ce *CustomError
	if errors.As(err, &ce) {
		code := CodeValueError
		if ce.Code != "" {
			code = CodeValueError + customCodeSeparator + ce.Code
		}
		return Issue{Kind: KindCustom, Code: code, Message: ce.Error(), Context: copyParams(ce.Context)}
	}
	return Issue{Kind: KindCustom, Code: CodeValueError, Message: err.Error()}
}

// NewIssue creates an Issue with a message rendered from the i18n template for code.
func NewIssue(p Path, k Kind, code string, params map[string]any) Issue {
	return Issue{Path: p, Kind: k, Code: code, Message: i18n.T(code, params), Context: params}
}

// CheckConstraints reports construction problems in cs: recorded Errs and
// conflicting bounds (a lower bound above an upper bound, min above max).
func CheckConstraints(cs []Constraint) error {
	var errs []error
	lower, lowerExcl, hasLower := math.Inf(-1), false, false
	upper, upperExcl, hasUpper := math.Inf(1), false, false
	minLen, maxLen := -1.0, math.Inf(1)
	minItems, maxItems := -1.0, math.Inf(1)
	for _, c := range cs {
		if c.Err != nil {
			errs = append(errs, fmt.Errorf("constraint %s: %w", c.Name, c.Err))
			continue
		}
		if c.Apply == nil {
			errs = append(errs, fmt.Errorf("constraint %s: missing predicate", c.Name))
			continue
		}
		lim, ok := toFloat(c.Params["limit_value"])
		if !ok {
			continue
		}
		switch c.Name {
		case "gt", "ge":
			excl := c.Name == "gt"
			if !hasLower || lim > lower || (lim == lower && excl) {
				lower, lowerExcl, hasLower = lim, excl, true
			}
		case "lt", "le":
			excl := c.Name == "lt"
			if !hasUpper || lim < upper || (lim == upper && excl) {
				upper, upperExcl, hasUpper = lim, excl, true
			}
		case "min_length":
			minLen = math.Max(minLen, lim)
		case "max_length":
			maxLen = math.Min(maxLen, lim)
		case "min_items":
			minItems = math.Max(minItems, lim)
		case "max_items":
			maxItems = math.Min(maxItems, lim)
		}
	}
	if hasLower && hasUpper && (lower > upper || (lower == upper && (lowerExcl || upperExcl))) {
		errs = append(errs, fmt.Errorf("conflicting bounds: lower %v exceeds upper %v", lower, upper))
	}
	if minLen > maxLen {
		errs = append(errs, fmt.Errorf("conflicting bounds: min_length %v exceeds max_length %v", minLen, maxLen))
	}
	if minItems > maxItems {
		errs = append(errs, fmt.Errorf("conflicting bounds: min_items %v exceeds max_items %v", minItems, maxItems))
	}
	return errors.Join(errs...)
}

// CheckValidators reports construction problems recorded on vs.
func CheckValidators(vs []Validator) error {
	var errs []error
	for _, v := range vs {
		if v.Err != nil {
			errs = append(errs, fmt.Errorf("validator %s: %w", v.Name, v.Err))
		} else if v.Fn == nil {
			errs = append(errs, fmt.Errorf("validator %s: missing function", v.Name))
		}
	}
	return errors.Join(errs...)
}

// CloneValue deep-copies slices, arrays and maps in v, including typed ones
// such as []string or map[string]int. Models are immutable and shared.
func CloneValue(v any) any {
	switch t := v.(type) {
	case nil, *Model:
		return v
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = CloneValue(e)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Type().Elem(), rv.Index(i)))
		}
		return out.Interface()
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Type().Elem(), rv.Index(i)))
		}
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(rv.Type().Elem(), iter.Value()))
		}
		return out.Interface()
	}
	return v
}

// cloneElem clones one container element and converts it back to the
// element type t.
func cloneElem(t reflect.Type, e reflect.Value) reflect.Value {
	c := CloneValue(e.Interface())
	if c == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(c).Convert(t)
}

func copyParams(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
