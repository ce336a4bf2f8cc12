package dsl

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	vmodel "github.com/reoring/vmodel"
	js "github.com/reoring/vmodel/jsonschema"
)

// MapType validates a string-keyed mapping. Keys are checked against the key
// type and values against the value type; keys are visited in sorted order so
// issue order is deterministic. Issues sit under the offending key.
type MapType struct {
	key vmodel.Type
	val vmodel.Type
}

// Map returns a mapping type. A nil key type means String(); a nil value type
// accepts any value.
func Map(key, val vmodel.Type) MapType {
	if key == nil {
		key = String()
	}
	if val == nil {
		val = Any()
	}
	return MapType{key: key, val: val}
}

// Key returns the key type.
func (m MapType) Key() vmodel.Type { return m.key }

// Value returns the value type.
func (m MapType) Value() vmodel.Type { return m.val }

func (m MapType) Check(ctx context.Context, v any) (any, vmodel.Issues) {
	src, ok := asStringMap(v)
	if !ok {
		return nil, mismatch(vmodel.CodeDict)
	}
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(src))
	origin := make(map[string]string, len(src))
	var all vmodel.Issues
	for _, k := range keys {
		at := vmodel.Path{k}
		nk, kiss := vmodel.CheckValue(ctx, m.key, k)
		if len(kiss) > 0 {
			all = append(all, kiss.Rebase(at)...)
			continue
		}
		nv, viss := vmodel.CheckValue(ctx, m.val, src[k])
		if len(viss) > 0 {
			all = append(all, viss.Rebase(at)...)
			continue
		}
		ks, ok := nk.(string)
		if !ok {
			ks = fmt.Sprint(nk)
		}
		if first, dup := origin[ks]; dup {
			all = append(all, vmodel.NewIssue(at, vmodel.KindConstraint, vmodel.CodeDuplicateKey,
				map[string]any{"key": ks, "other": first}))
			continue
		}
		origin[ks] = k
		out[ks] = nv
	}
	if len(all) > 0 {
		return nil, all
	}
	return out, nil
}

func (m MapType) Describe() string {
	return "dict[" + m.key.Describe() + ", " + m.val.Describe() + "]"
}

func (m MapType) JSONSchema() (*js.Schema, error) {
	vs, err := m.val.JSONSchema()
	if err != nil {
		return nil, err
	}
	ks, err := m.key.JSONSchema()
	if err != nil {
		return nil, err
	}
	s := &js.Schema{Type: "object", AdditionalProperties: js.AdditionalSchema(vs)}
	if ks != nil && hasStringKeywords(ks) {
		ks.Type = ""
		s.PropertyNames = ks
	}
	return s, nil
}

func hasStringKeywords(s *js.Schema) bool {
	return s.MinLength != nil || s.MaxLength != nil || s.Pattern != "" || s.Format != "" || len(s.Enum) > 0
}

// asStringMap accepts map[string]any directly and other maps with string
// keys via reflection.
func asStringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
