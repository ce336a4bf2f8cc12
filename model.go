package vmodel

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Model is the normalized result of a successful validation. Its field set is
// fixed: there are no setters and AsMap returns a fresh map on every call.
// Lists and maps reachable through Get are shared, so in-place mutation of
// those nested containers is visible to other holders of the model.
type Model struct {
	name   string
	keys   []string
	values map[string]any
}

// NewModel builds a Model from ordered keys and their values. Both arguments
// are copied at the top level; keys without a value map to nil.
func NewModel(name string, keys []string, values map[string]any) *Model {
	ks := make([]string, len(keys))
	copy(ks, keys)
	vs := make(map[string]any, len(keys))
	for _, k := range ks {
		vs[k] = values[k]
	}
	return &Model{name: name, keys: ks, values: vs}
}

// Name returns the name of the schema that produced the model.
func (m *Model) Name() string { return m.name }

// Fields returns field names in schema declaration order.
func (m *Model) Fields() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of fields.
func (m *Model) Len() int { return len(m.keys) }

// Get returns the normalized value of a field.
func (m *Model) Get(name string) (any, bool) {
	v, ok := m.values[name]
	return v, ok
}

// AsMap converts the model into nested plain mappings: nested models become
// map[string]any and lists/maps are copied recursively.
func (m *Model) AsMap() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plainValue(m.values[k])
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Model:
		return t.AsMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the model with fields in declaration order. Non-finite
// floats are written as the strings "Infinity", "-Infinity" and "NaN".
func (m *Model) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSON(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case *Model:
		buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSON(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeJSON(buf, t.values[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeys(t) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSON(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeJSON(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case float64:
		if s, ok := nonFiniteName(t); ok {
			return encodeJSON(buf, s)
		}
	case float32:
		return encodeJSON(buf, float64(t))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func nonFiniteName(f float64) (string, bool) {
	switch {
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	case math.IsNaN(f):
		return "NaN", true
	}
	return "", false
}

// String renders the top-level fields as name=value pairs; nested models
// render as Name(field=value, ...):
//
//	base=[Tier(tier=30.0, price=858.0)] usage={'flat': [Tier(tier=inf, price=26.41)]}
func (m *Model) String() string {
	b := &strings.Builder{}
	for i, k := range m.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		writeRepr(b, m.values[k])
	}
	return b.String()
}

func writeRepr(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("None")
	case *Model:
		b.WriteString(t.name)
		b.WriteByte('(')
		for i, k := range t.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteByte('=')
			writeRepr(b, t.values[k])
		}
		b.WriteByte(')')
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, e)
		}
		b.WriteByte(']')
	case map[string]any:
		b.WriteByte('{')
		for i, k := range sortedKeys(t) {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoteRepr(k))
			b.WriteString(": ")
			writeRepr(b, t[k])
		}
		b.WriteByte('}')
	case string:
		b.WriteString(quoteRepr(t))
	case bool:
		if t {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case float64:
		b.WriteString(floatRepr(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	default:
		fmt.Fprint(b, t)
	}
}

func floatRepr(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func quoteRepr(s string) string {
	q := strconv.Quote(s)
	if strings.Contains(s, "'") {
		return q
	}
	return "'" + q[1:len(q)-1] + "'"
}

func sortedKeys(m map[string]any) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
