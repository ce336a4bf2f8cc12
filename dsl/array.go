package dsl

import (
	"context"
	"reflect"

	vmodel "github.com/reoring/vmodel"
	js "github.com/reoring/vmodel/jsonschema"
)

// ListType validates every element of a sequence against elem and normalizes
// the result to []any. Element issues are rebased under their index and all
// of them are reported.
type ListType struct {
	elem vmodel.Type
}

// List returns a list type whose elements must satisfy elem. A nil elem
// accepts any element.
func List(elem vmodel.Type) ListType {
	if elem == nil {
		elem = Any()
	}
	return ListType{elem: elem}
}

// Elem returns the element type.
func (l ListType) Elem() vmodel.Type { return l.elem }

func (l ListType) Check(ctx context.Context, v any) (any, vmodel.Issues) {
	items, ok := asSlice(v)
	if !ok {
		return nil, mismatch(vmodel.CodeList)
	}
	out := make([]any, len(items))
	var all vmodel.Issues
	for i, e := range items {
		ev, iss := vmodel.CheckValue(ctx, l.elem, e)
		if len(iss) > 0 {
			all = append(all, iss.Rebase(vmodel.Path{i})...)
			continue
		}
		out[i] = ev
	}
	if len(all) > 0 {
		return nil, all
	}
	return out, nil
}

func (l ListType) Describe() string { return "list[" + l.elem.Describe() + "]" }

func (l ListType) JSONSchema() (*js.Schema, error) {
	items, err := l.elem.JSONSchema()
	if err != nil {
		return nil, err
	}
	return &js.Schema{Type: "array", Items: items}, nil
}

// asSlice accepts []any directly and any other slice or array kind via
// reflection. Strings and byte slices are not sequences here.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []byte, string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
