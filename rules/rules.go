// Package rules provides constraint constructors for dsl fields and types.
//
// Every constructor returns a vmodel.Constraint that carries its issue code,
// template parameters and a JSON Schema annotation. Invalid arguments (a bad
// pattern, a negative length) are recorded on the constraint and rejected by
// the schema builders at Build time.
package rules

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	vmodel "github.com/reoring/vmodel"
	js "github.com/reoring/vmodel/jsonschema"
)

// Gt requires a number strictly greater than limit.
func Gt(limit float64) vmodel.Constraint {
	return bound("gt", vmodel.CodeNotGt, limit, func(f float64) bool { return f > limit },
		func(s *js.Schema) { s.ExclusiveMinimum = js.Float(limit) })
}

// Ge requires a number greater than or equal to limit.
func Ge(limit float64) vmodel.Constraint {
	return bound("ge", vmodel.CodeNotGe, limit, func(f float64) bool { return f >= limit },
		func(s *js.Schema) { s.Minimum = js.Float(limit) })
}

// Lt requires a number strictly less than limit.
func Lt(limit float64) vmodel.Constraint {
	return bound("lt", vmodel.CodeNotLt, limit, func(f float64) bool { return f < limit },
		func(s *js.Schema) { s.ExclusiveMaximum = js.Float(limit) })
}

// Le requires a number less than or equal to limit.
func Le(limit float64) vmodel.Constraint {
	return bound("le", vmodel.CodeNotLe, limit, func(f float64) bool { return f <= limit },
		func(s *js.Schema) { s.Maximum = js.Float(limit) })
}

func bound(name, code string, limit float64, ok func(float64) bool, annotate func(*js.Schema)) vmodel.Constraint {
	c := vmodel.Constraint{
		Name:     name,
		Code:     code,
		Params:   map[string]any{"limit_value": limit},
		Annotate: annotate,
		Apply: func(v any) (any, bool) {
			f, isNum := number(v)
			return v, isNum && ok(f)
		},
	}
	if math.IsNaN(limit) {
		c.Err = errors.New("NaN limit")
	}
	return c
}

// MultipleOf requires a number that is an integral multiple of m.
func MultipleOf(m float64) vmodel.Constraint {
	c := vmodel.Constraint{
		Name:     "multiple_of",
		Code:     vmodel.CodeNotMultiple,
		Params:   map[string]any{"multiple_of": m},
		Annotate: func(s *js.Schema) { s.MultipleOf = js.Float(m) },
		Apply: func(v any) (any, bool) {
			f, ok := number(v)
			if !ok {
				return v, false
			}
			q := f / m
			return v, !math.IsInf(q, 0) && q == math.Trunc(q)
		},
	}
	if !(m > 0) || math.IsInf(m, 0) {
		c.Err = fmt.Errorf("multiple_of must be a positive finite number, got %v", m)
	}
	return c
}

// Finite rejects infinities and NaN.
func Finite() vmodel.Constraint {
	return vmodel.Constraint{
		Name: "finite",
		Code: vmodel.CodeNotFinite,
		Apply: func(v any) (any, bool) {
			f, ok := number(v)
			return v, ok && !math.IsInf(f, 0) && !math.IsNaN(f)
		},
	}
}

// MinLength requires a string of at least n characters (runes).
func MinLength(n int) vmodel.Constraint {
	return length("min_length", vmodel.CodeMinLength, n, func(l int) bool { return l >= n },
		func(s *js.Schema) { s.MinLength = js.Int(n) })
}

// MaxLength requires a string of at most n characters (runes).
func MaxLength(n int) vmodel.Constraint {
	return length("max_length", vmodel.CodeMaxLength, n, func(l int) bool { return l <= n },
		func(s *js.Schema) { s.MaxLength = js.Int(n) })
}

func length(name, code string, n int, ok func(int) bool, annotate func(*js.Schema)) vmodel.Constraint {
	c := vmodel.Constraint{
		Name:     name,
		Code:     code,
		Params:   map[string]any{"limit_value": n},
		Annotate: annotate,
		Apply: func(v any) (any, bool) {
			s, isStr := v.(string)
			return v, isStr && ok(utf8.RuneCountInString(s))
		},
	}
	if n < 0 {
		c.Err = fmt.Errorf("negative length %d", n)
	}
	return c
}

// Regex requires a string matching pattern at its start.
func Regex(pattern string) vmodel.Constraint {
	c := vmodel.Constraint{
		Name:     "regex",
		Code:     vmodel.CodeRegex,
		Params:   map[string]any{"pattern": pattern},
		Annotate: func(s *js.Schema) { s.Pattern = pattern },
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		c.Err = err
		c.Apply = func(v any) (any, bool) { return v, false }
		return c
	}
	c.Apply = func(v any) (any, bool) {
		s, ok := v.(string)
		if !ok {
			return v, false
		}
		loc := re.FindStringIndex(s)
		return v, loc != nil && loc[0] == 0
	}
	return c
}

// StripWhitespace trims leading and trailing whitespace from strings. It
// never fails, so place it before length checks.
func StripWhitespace() vmodel.Constraint {
	return vmodel.Constraint{
		Name: "strip_whitespace",
		Apply: func(v any) (any, bool) {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s), true
			}
			return v, true
		},
	}
}

// MinItems requires a list or mapping with at least n entries.
func MinItems(n int) vmodel.Constraint {
	return items("min_items", vmodel.CodeMinItems, n, func(l int) bool { return l >= n },
		func(s *js.Schema) { s.MinItems = js.Int(n) })
}

// MaxItems requires a list or mapping with at most n entries.
func MaxItems(n int) vmodel.Constraint {
	return items("max_items", vmodel.CodeMaxItems, n, func(l int) bool { return l <= n },
		func(s *js.Schema) { s.MaxItems = js.Int(n) })
}

func items(name, code string, n int, ok func(int) bool, annotate func(*js.Schema)) vmodel.Constraint {
	c := vmodel.Constraint{
		Name:     name,
		Code:     code,
		Params:   map[string]any{"limit_value": n},
		Annotate: annotate,
		Apply: func(v any) (any, bool) {
			l, isColl := count(v)
			return v, isColl && ok(l)
		},
	}
	if n < 0 {
		c.Err = fmt.Errorf("negative item count %d", n)
	}
	return c
}

// UUID requires a string holding a UUID in any form uuid.Parse accepts and
// normalizes it to the canonical lower-case hyphenated form.
func UUID() vmodel.Constraint {
	return vmodel.Constraint{
		Name:     "uuid",
		Code:     vmodel.CodeUUID,
		Annotate: func(s *js.Schema) { s.Format = "uuid" },
		Apply: func(v any) (any, bool) {
			s, ok := v.(string)
			if !ok {
				return v, false
			}
			u, err := uuid.Parse(s)
			if err != nil {
				return v, false
			}
			return u.String(), true
		},
	}
}

// OneOf requires the value to equal one of the permitted values. Numbers
// compare by value, so OneOf(1, 2) accepts int64(1) and 1.0.
func OneOf(permitted ...any) vmodel.Constraint {
	own := append([]any(nil), permitted...)
	c := vmodel.Constraint{
		Name:     "one_of",
		Code:     vmodel.CodeConst,
		Params:   map[string]any{"permitted": own},
		Annotate: func(s *js.Schema) { s.Enum = append([]any(nil), own...) },
		Apply: func(v any) (any, bool) {
			for _, p := range own {
				if equal(v, p) {
					return v, true
				}
			}
			return v, false
		},
	}
	if len(own) == 0 {
		c.Err = errors.New("no permitted values")
	}
	return c
}

func equal(a, b any) bool {
	fa, okA := number(a)
	fb, okB := number(b)
	if okA || okB {
		return okA && okB && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case float32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func count(v any) (int, bool) {
	switch t := v.(type) {
	case []any:
		return len(t), true
	case map[string]any:
		return len(t), true
	case string:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}
