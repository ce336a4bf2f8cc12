package dsl

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	vmodel "github.com/reoring/vmodel"
	js "github.com/reoring/vmodel/jsonschema"
)

// IntType accepts integers and normalizes them to int64. Without Strict it
// also coerces integral floats, json.Number and decimal strings ("5" -> 5).
type IntType struct{ strict bool }

// FloatType accepts numbers and normalizes them to float64. Without Strict it
// also coerces integers and numeric strings, including "inf".
type FloatType struct{ strict bool }

// StringType accepts strings. Without Strict it also renders numbers and
// byte slices as strings.
type StringType struct{ strict bool }

// BoolType accepts booleans. Without Strict it also parses common spellings
// ("true", "0", "yes", "off", ...) and the integers 0 and 1.
type BoolType struct{ strict bool }

// AnyType accepts every value, null included, unchanged.
type AnyType struct{}

// Int returns the integer type in coercing mode.
func Int() IntType { return IntType{} }

// Float returns the float type in coercing mode.
func Float() FloatType { return FloatType{} }

// String returns the string type in coercing mode.
func String() StringType { return StringType{} }

// Bool returns the boolean type in coercing mode.
func Bool() BoolType { return BoolType{} }

// Any returns the passthrough type.
func Any() AnyType { return AnyType{} }

// Strict returns a copy that rejects any value not already an integer.
func (t IntType) Strict() IntType { t.strict = true; return t }

// Strict returns a copy that rejects any value not already a float.
func (t FloatType) Strict() FloatType { t.strict = true; return t }

// Strict returns a copy that rejects any value not already a string.
func (t StringType) Strict() StringType { t.strict = true; return t }

// Strict returns a copy that rejects any value not already a bool.
func (t BoolType) Strict() BoolType { t.strict = true; return t }

func (t IntType) IsStrict() bool    { return t.strict }
func (t FloatType) IsStrict() bool  { return t.strict }
func (t StringType) IsStrict() bool { return t.strict }
func (t BoolType) IsStrict() bool   { return t.strict }

func mismatch(code string) vmodel.Issues {
	return vmodel.Issues{vmodel.NewIssue(nil, vmodel.KindTypeMismatch, code, nil)}
}

func (t IntType) Check(ctx context.Context, v any) (any, vmodel.Issues) {
	if n, ok := asInt(v, t.strict); ok {
		return n, nil
	}
	if intOutOfRange(v, t.strict) {
		return nil, vmodel.Issues{vmodel.NewIssue(nil, vmodel.KindConstraint, vmodel.CodeIntegerRange, nil)}
	}
	return nil, mismatch(vmodel.CodeInteger)
}

func (t IntType) Describe() string { return describeStrict("int", t.strict) }

func (t IntType) JSONSchema() (*js.Schema, error) { return &js.Schema{Type: "integer"}, nil }

func (t FloatType) Check(ctx context.Context, v any) (any, vmodel.Issues) {
	if f, ok := asFloat(v, t.strict); ok {
		return f, nil
	}
	return nil, mismatch(vmodel.CodeFloat)
}

func (t FloatType) Describe() string { return describeStrict("float", t.strict) }

func (t FloatType) JSONSchema() (*js.Schema, error) { return &js.Schema{Type: "number"}, nil }

func (t StringType) Check(ctx context.Context, v any) (any, vmodel.Issues) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	if t.strict {
		return nil, mismatch(vmodel.CodeString)
	}
	switch n := v.(type) {
	case []byte:
		return string(n), nil
	case json.Number:
		return n.String(), nil
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32), nil
	}
	if i, ok := exactInt(v); ok {
		return strconv.FormatInt(i, 10), nil
	}
	if u, ok := v.(uint64); ok {
		return strconv.FormatUint(u, 10), nil
	}
	return nil, mismatch(vmodel.CodeString)
}

func (t StringType) Describe() string { return describeStrict("str", t.strict) }

func (t StringType) JSONSchema() (*js.Schema, error) { return &js.Schema{Type: "string"}, nil }

func (t BoolType) Check(ctx context.Context, v any) (any, vmodel.Issues) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if !t.strict {
		if b, ok := coerceBool(v); ok {
			return b, nil
		}
	}
	return nil, mismatch(vmodel.CodeBool)
}

func (t BoolType) Describe() string { return describeStrict("bool", t.strict) }

func (t BoolType) JSONSchema() (*js.Schema, error) { return &js.Schema{Type: "boolean"}, nil }

func (AnyType) Check(ctx context.Context, v any) (any, vmodel.Issues) { return v, nil }
func (AnyType) AcceptsNull() bool                                     { return true }
func (AnyType) Describe() string                                      { return "any" }
func (AnyType) JSONSchema() (*js.Schema, error)                       { return &js.Schema{}, nil }

func describeStrict(name string, strict bool) string {
	if strict {
		return "strict " + name
	}
	return name
}

// ---- coercion helpers ----

// exactInt converts Go integer kinds to int64 (uint64 only when it fits).
func exactInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func asInt(v any, strict bool) (int64, bool) {
	if i, ok := exactInt(v); ok {
		return i, true
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if strict {
			return 0, false
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	}
	if strict {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return integralFloat(n)
	case float32:
		return integralFloat(float64(n))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// intOutOfRange reports integral values that asInt rejected only because
// they do not fit in int64.
func intOutOfRange(v any, strict bool) bool {
	switch n := v.(type) {
	case uint:
		return uint64(n) > math.MaxInt64
	case uint64:
		return n > math.MaxInt64
	case json.Number:
		if _, err := strconv.ParseInt(string(n), 10, 64); errors.Is(err, strconv.ErrRange) {
			return true
		}
		if strict {
			return false
		}
		f, err := n.Float64()
		return err == nil && hugeIntegral(f)
	}
	if strict {
		return false
	}
	switch n := v.(type) {
	case float64:
		return hugeIntegral(n)
	case float32:
		return hugeIntegral(float64(n))
	case string:
		_, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return errors.Is(err, strconv.ErrRange)
	}
	return false
}

func hugeIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) && (f < math.MinInt64 || f >= math.MaxInt64)
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func asFloat(v any, strict bool) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if strict {
		return 0, false
	}
	if i, ok := exactInt(v); ok {
		return float64(i), true
	}
	switch n := v.(type) {
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func coerceBool(v any) (bool, bool) {
	switch n := v.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "1", "true", "t", "yes", "y", "on":
			return true, true
		case "0", "false", "f", "no", "n", "off":
			return false, true
		}
		return false, false
	case json.Number:
		return coerceBool(n.String())
	}
	if i, ok := exactInt(v); ok {
		switch i {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	}
	return false, false
}
