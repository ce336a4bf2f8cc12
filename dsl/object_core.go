package dsl

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	vmodel "github.com/reoring/vmodel"
	js "github.com/reoring/vmodel/jsonschema"
)

// objectSchema is the immutable result of Build/FromDescriptors.
type objectSchema struct {
	name        string
	description string
	fields      []vmodel.FieldDescriptor
	index       map[string]int
	unknown     vmodel.UnknownPolicy
	// refines run on the assembled model once every field succeeded.
	refines []vmodel.Validator
}

// newObjectSchema validates the descriptors and freezes them. Defaults are
// checked against their field type and constraints and stored normalized.
func newObjectSchema(name, description string, fields []vmodel.FieldDescriptor, unknown vmodel.UnknownPolicy) (*objectSchema, error) {
	if name == "" {
		name = "Model"
	}
	var errs []error
	o := &objectSchema{
		name:        name,
		description: description,
		fields:      make([]vmodel.FieldDescriptor, 0, len(fields)),
		index:       make(map[string]int, len(fields)),
		unknown:     unknown,
	}
	for _, f := range fields {
		if f.Name == "" {
			errs = append(errs, errors.New("field with empty name"))
			continue
		}
		if _, dup := o.index[f.Name]; dup {
			errs = append(errs, fmt.Errorf("field %q: declared twice", f.Name))
			continue
		}
		if f.Type == nil {
			errs = append(errs, fmt.Errorf("field %q: nil type", f.Name))
			continue
		}
		if err := vmodel.CheckConstraints(f.Constraints); err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", f.Name, err))
			continue
		}
		if err := vmodel.CheckValidators(f.Validators); err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", f.Name, err))
			continue
		}
		f.Constraints = append([]vmodel.Constraint(nil), f.Constraints...)
		f.Validators = append([]vmodel.Validator(nil), f.Validators...)
		if !f.Required {
			if f.Default == nil {
				// An absent optional field materializes as null, so null must round-trip.
				f.Nullable = true
			} else {
				def, iss := checkDefault(f)
				if len(iss) > 0 {
					errs = append(errs, fmt.Errorf("field %q: invalid default: %w", f.Name, iss))
					continue
				}
				f.Default = vmodel.CloneValue(def)
			}
		}
		o.index[f.Name] = len(o.fields)
		o.fields = append(o.fields, f)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", vmodel.ErrInvalidSchema, name, errors.Join(errs...))
	}
	return o, nil
}

func checkDefault(f vmodel.FieldDescriptor) (any, vmodel.Issues) {
	v, iss := vmodel.CheckValue(context.Background(), f.Type, f.Default)
	if len(iss) > 0 {
		return nil, iss
	}
	if v == nil {
		return nil, nil
	}
	v, it := vmodel.ApplyConstraints(v, f.Constraints)
	if it != nil {
		return nil, vmodel.Issues{*it}
	}
	return v, nil
}

func (o *objectSchema) Name() string { return o.name }

func (o *objectSchema) Describe() string { return o.name }

// Unknown returns the unknown-key policy.
func (o *objectSchema) Unknown() vmodel.UnknownPolicy { return o.unknown }

func (o *objectSchema) Fields() []vmodel.FieldDescriptor {
	out := make([]vmodel.FieldDescriptor, len(o.fields))
	for i, f := range o.fields {
		f.Constraints = append([]vmodel.Constraint(nil), f.Constraints...)
		f.Validators = append([]vmodel.Validator(nil), f.Validators...)
		f.Default = vmodel.CloneValue(f.Default)
		out[i] = f
	}
	return out
}

func (o *objectSchema) Validate(ctx context.Context, input map[string]any) (*vmodel.Model, error) {
	m, iss := o.validate(ctx, input)
	if len(iss) > 0 {
		return nil, iss
	}
	return m, nil
}

// Check lets a schema act as a nested field, list element or map value type.
func (o *objectSchema) Check(ctx context.Context, v any) (any, vmodel.Issues) {
	var input map[string]any
	switch src := v.(type) {
	case *vmodel.Model:
		input = src.AsMap()
	case map[string]any:
		input = src
	default:
		m, ok := asStringMap(v)
		if !ok {
			m, ok = structToMap(v)
		}
		if !ok {
			return nil, vmodel.Issues{vmodel.NewIssue(nil, vmodel.KindTypeMismatch, vmodel.CodeModel, map[string]any{"model": o.name})}
		}
		input = m
	}
	m, iss := o.validate(ctx, input)
	if len(iss) > 0 {
		return nil, iss
	}
	return m, nil
}

// validate is the per-field loop: missing, default, type, constraints, then
// validators. Every field is visited; issues accumulate in declaration order.
func (o *objectSchema) validate(ctx context.Context, input map[string]any) (*vmodel.Model, vmodel.Issues) {
	keys := make([]string, 0, len(o.fields))
	values := make(map[string]any, len(o.fields))
	var iss vmodel.Issues

	for _, f := range o.fields {
		raw, present := input[f.Name]
		if !present {
			if f.Required {
				iss = vmodel.AppendIssues(iss, vmodel.NewIssue(vmodel.Path{f.Name}, vmodel.KindMissing, vmodel.CodeMissing, nil))
				continue
			}
			keys = append(keys, f.Name)
			values[f.Name] = vmodel.CloneValue(f.Default)
			continue
		}
		v, fiss := checkField(ctx, f, raw)
		if len(fiss) > 0 {
			iss = vmodel.AppendIssues(iss, fiss.Rebase(vmodel.Path{f.Name})...)
			continue
		}
		keys = append(keys, f.Name)
		values[f.Name] = v
	}

	if o.unknown != vmodel.UnknownIgnore {
		for _, k := range o.extraKeys(input) {
			switch o.unknown {
			case vmodel.UnknownForbid:
				iss = vmodel.AppendIssues(iss, vmodel.NewIssue(vmodel.Path{k}, vmodel.KindConstraint, vmodel.CodeExtra, nil))
			case vmodel.UnknownAllow:
				keys = append(keys, k)
				values[k] = vmodel.CloneValue(input[k])
			}
		}
	}

	if len(iss) > 0 {
		return nil, iss
	}
	m := vmodel.NewModel(o.name, keys, values)
	if _, it := vmodel.RunValidators(ctx, m, o.refines); it != nil {
		return nil, vmodel.Issues{*it}
	}
	return m, nil
}

func checkField(ctx context.Context, f vmodel.FieldDescriptor, raw any) (any, vmodel.Issues) {
	if raw == nil && f.Nullable {
		return nil, nil
	}
	v, iss := vmodel.CheckValue(ctx, f.Type, raw)
	if len(iss) > 0 {
		return nil, iss
	}
	if v == nil {
		return nil, nil
	}
	v, it := vmodel.ApplyConstraints(v, f.Constraints)
	if it != nil {
		return nil, vmodel.Issues{*it}
	}
	v, it = vmodel.RunValidators(ctx, v, f.Validators)
	if it != nil {
		return nil, vmodel.Issues{*it}
	}
	return v, nil
}

// extraKeys returns input keys without a descriptor, sorted.
func (o *objectSchema) extraKeys(input map[string]any) []string {
	var out []string
	for k := range input {
		if _, ok := o.index[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (o *objectSchema) JSONSchema() (*js.Schema, error) {
	s := &js.Schema{
		Title:       o.name,
		Description: o.description,
		Type:        "object",
		Properties:  make(map[string]*js.Schema, len(o.fields)),
	}
	for _, f := range o.fields {
		fs, err := f.Type.JSONSchema()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		annotate(fs, f.Constraints)
		if f.Description != "" {
			fs.Description = f.Description
		}
		if f.Nullable {
			fs.Nullable = true
		}
		if f.Default != nil {
			fs.Default = jsonDefault(f.Default)
		}
		s.Properties[f.Name] = fs
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	if o.unknown == vmodel.UnknownForbid {
		s.AdditionalProperties = js.NoAdditional()
	}
	return s, nil
}

// jsonDefault converts a normalized default into plain JSON-friendly data.
func jsonDefault(v any) any {
	switch t := v.(type) {
	case *vmodel.Model:
		return jsonDefault(t.AsMap())
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = jsonDefault(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonDefault(e)
		}
		return out
	case float64:
		// JSON has no literal for these; use the spelling Model.MarshalJSON writes.
		switch {
		case math.IsInf(t, 1):
			return "Infinity"
		case math.IsInf(t, -1):
			return "-Infinity"
		case math.IsNaN(t):
			return "NaN"
		}
	}
	return v
}

// structToMap accepts structs (or pointers to structs) and reads exported
// fields keyed by their json tag name or field name.
func structToMap(v any) (map[string]any, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("json"); ok {
			tn := tagName(tag)
			if tn == "-" {
				continue
			}
			if tn != "" {
				name = tn
			}
		}
		out[name] = rv.Field(i).Interface()
	}
	return out, true
}

func tagName(tag string) string {
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			return tag[:i]
		}
	}
	return tag
}
