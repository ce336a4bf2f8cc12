// Package schemafile builds vmodel schemas from YAML or JSON documents.
//
//	name: Plan
//	unknown: ignore
//	definitions:
//	  Tier:
//	    fields:
//	      - {name: tier, type: float, default: .inf}
//	      - {name: price, type: float, default: 0}
//	fields:
//	  - {name: base, type: {list: Tier}}
//	  - {name: usage, type: {map: {key: string, value: {list: Tier}}}}
//
// Type tags are integer|int, float|number, string|str, boolean|bool, any,
// {list: T}, {map: T}, {map: {key: K, value: V}}, {nullable: T}, {strict: T}
// and the name of a definition. Unknown tags and keys are errors.
package schemafile

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	vmodel "github.com/reoring/vmodel"
	"github.com/reoring/vmodel/dsl"
	"github.com/reoring/vmodel/rules"
	"github.com/reoring/vmodel/source"
)

var (
	// ErrUnknownType is returned for a type tag that is neither built in nor a definition.
	ErrUnknownType = errors.New("schemafile: unknown type")
	// ErrCycle is returned when definitions reference each other in a loop.
	ErrCycle = errors.New("schemafile: definition cycle")
)

type document struct {
	Name        string                    `mapstructure:"name"`
	Description string                    `mapstructure:"description"`
	Unknown     string                    `mapstructure:"unknown"`
	Definitions map[string]map[string]any `mapstructure:"definitions"`
	Fields      []map[string]any          `mapstructure:"fields"`
}

type definition struct {
	Description string           `mapstructure:"description"`
	Unknown     string           `mapstructure:"unknown"`
	Fields      []map[string]any `mapstructure:"fields"`
}

type field struct {
	Name        string         `mapstructure:"name"`
	Type        any            `mapstructure:"type"`
	Required    *bool          `mapstructure:"required"`
	Optional    bool           `mapstructure:"optional"`
	Nullable    bool           `mapstructure:"nullable"`
	Default     any            `mapstructure:"default"`
	Strict      bool           `mapstructure:"strict"`
	Description string         `mapstructure:"description"`
	Constraints map[string]any `mapstructure:"constraints"`
	CEL         any            `mapstructure:"cel"`
}

// ParseFile reads a schema document from disk.
func ParseFile(path string) (vmodel.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	return Parse(data)
}

// Parse builds a schema from a YAML or JSON document (JSON is read as YAML).
// Construction problems wrap vmodel.ErrInvalidSchema.
func Parse(data []byte) (vmodel.Schema, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schemafile: yaml: %w", err)
	}
	root, ok := source.Normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: schemafile: document root is not a mapping", vmodel.ErrInvalidSchema)
	}
	var doc document
	if err := decodeStrict(root, &doc); err != nil {
		return nil, fmt.Errorf("%w: schemafile: %w", vmodel.ErrInvalidSchema, err)
	}
	p := &parser{
		defs:     doc.Definitions,
		built:    map[string]vmodel.Schema{},
		building: map[string]bool{},
	}
	name := doc.Name
	if name == "" {
		name = "Model"
	}
	s, err := p.object(name, definition{Description: doc.Description, Unknown: doc.Unknown, Fields: doc.Fields})
	if err != nil {
		if errors.Is(err, vmodel.ErrInvalidSchema) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", vmodel.ErrInvalidSchema, err)
	}
	// every definition must build even when unreferenced
	for _, dn := range sortedNames(doc.Definitions) {
		if _, err := p.definition(dn); err != nil {
			if errors.Is(err, vmodel.ErrInvalidSchema) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", vmodel.ErrInvalidSchema, err)
		}
	}
	return s, nil
}

type parser struct {
	defs     map[string]map[string]any
	built    map[string]vmodel.Schema
	building map[string]bool
}

func (p *parser) definition(name string) (vmodel.Schema, error) {
	if s, ok := p.built[name]; ok {
		return s, nil
	}
	raw, ok := p.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	if p.building[name] {
		return nil, fmt.Errorf("%w at %q", ErrCycle, name)
	}
	p.building[name] = true
	defer delete(p.building, name)

	var def definition
	if err := decodeStrict(raw, &def); err != nil {
		return nil, fmt.Errorf("definition %s: %w", name, err)
	}
	s, err := p.object(name, def)
	if err != nil {
		return nil, err
	}
	p.built[name] = s
	return s, nil
}

func (p *parser) object(name string, def definition) (vmodel.Schema, error) {
	policy, err := unknownPolicy(def.Unknown)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	fds := make([]vmodel.FieldDescriptor, 0, len(def.Fields))
	for i, raw := range def.Fields {
		fd, err := p.field(raw)
		if err != nil {
			return nil, fmt.Errorf("%s.fields[%d]: %w", name, i, err)
		}
		fds = append(fds, fd)
	}
	return dsl.FromDescriptors(name, fds, dsl.WithUnknown(policy), dsl.WithDescription(def.Description))
}

func (p *parser) field(raw map[string]any) (vmodel.FieldDescriptor, error) {
	var f field
	if err := decodeStrict(raw, &f); err != nil {
		return vmodel.FieldDescriptor{}, err
	}
	if f.Type == nil {
		return vmodel.FieldDescriptor{}, fmt.Errorf("field %q: missing type", f.Name)
	}
	t, err := p.resolve(f.Type)
	if err != nil {
		return vmodel.FieldDescriptor{}, fmt.Errorf("field %q: %w", f.Name, err)
	}
	if f.Strict {
		if t, err = strictOf(t); err != nil {
			return vmodel.FieldDescriptor{}, fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	cs, err := constraints(f.Constraints)
	if err != nil {
		return vmodel.FieldDescriptor{}, fmt.Errorf("field %q: %w", f.Name, err)
	}
	vs, err := celValidators(f.CEL)
	if err != nil {
		return vmodel.FieldDescriptor{}, fmt.Errorf("field %q: %w", f.Name, err)
	}
	_, hasDefault := raw["default"]
	fd := vmodel.FieldDescriptor{
		Name:        f.Name,
		Type:        t,
		Required:    !hasDefault && !f.Optional,
		Default:     f.Default,
		Nullable:    f.Nullable || f.Optional,
		Constraints: cs,
		Validators:  vs,
		Description: f.Description,
	}
	if f.Required != nil {
		fd.Required = *f.Required
	}
	return fd, nil
}

// resolve turns a type tag into a Type.
func (p *parser) resolve(raw any) (vmodel.Type, error) {
	switch t := raw.(type) {
	case string:
		switch strings.ToLower(t) {
		case "integer", "int":
			return dsl.Int(), nil
		case "float", "number":
			return dsl.Float(), nil
		case "string", "str":
			return dsl.String(), nil
		case "boolean", "bool":
			return dsl.Bool(), nil
		case "any":
			return dsl.Any(), nil
		}
		return p.definition(t)
	case map[string]any:
		if len(t) != 1 {
			return nil, fmt.Errorf("%w: composite tag must have exactly one key, got %v", ErrUnknownType, sortedNames(t))
		}
		for tag, inner := range t {
			switch tag {
			case "list":
				elem, err := p.resolve(inner)
				if err != nil {
					return nil, err
				}
				return dsl.List(elem), nil
			case "map":
				return p.mapType(inner)
			case "nullable":
				elem, err := p.resolve(inner)
				if err != nil {
					return nil, err
				}
				return dsl.Nullable(elem), nil
			case "strict":
				elem, err := p.resolve(inner)
				if err != nil {
					return nil, err
				}
				return strictOf(elem)
			}
			return nil, fmt.Errorf("%w %q", ErrUnknownType, tag)
		}
	}
	return nil, fmt.Errorf("%w: unsupported type %T", ErrUnknownType, raw)
}

func (p *parser) mapType(raw any) (vmodel.Type, error) {
	if m, ok := raw.(map[string]any); ok {
		_, hasKey := m["key"]
		_, hasVal := m["value"]
		if hasKey || hasVal {
			var kt, vt vmodel.Type
			for k := range m {
				if k != "key" && k != "value" {
					return nil, fmt.Errorf("map: unexpected key %q", k)
				}
			}
			var err error
			if hasKey {
				if kt, err = p.resolve(m["key"]); err != nil {
					return nil, err
				}
			}
			if hasVal {
				if vt, err = p.resolve(m["value"]); err != nil {
					return nil, err
				}
			}
			return dsl.Map(kt, vt), nil
		}
	}
	vt, err := p.resolve(raw)
	if err != nil {
		return nil, err
	}
	return dsl.Map(nil, vt), nil
}

func strictOf(t vmodel.Type) (vmodel.Type, error) {
	switch p := t.(type) {
	case dsl.IntType:
		return p.Strict(), nil
	case dsl.FloatType:
		return p.Strict(), nil
	case dsl.StringType:
		return p.Strict(), nil
	case dsl.BoolType:
		return p.Strict(), nil
	}
	return nil, fmt.Errorf("strict applies to primitive types, not %s", t.Describe())
}

func unknownPolicy(s string) (vmodel.UnknownPolicy, error) {
	switch strings.ToLower(s) {
	case "", "ignore":
		return vmodel.UnknownIgnore, nil
	case "forbid":
		return vmodel.UnknownForbid, nil
	case "allow":
		return vmodel.UnknownAllow, nil
	}
	return 0, fmt.Errorf("unknown policy %q (want ignore, forbid or allow)", s)
}

func decodeStrict(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// constraintOrder fixes evaluation order since mappings are unordered:
// transforms first, then bounds, then patterns and membership.
var constraintOrder = []string{
	"strip_whitespace", "uuid",
	"gt", "ge", "lt", "le", "multiple_of", "finite",
	"min_length", "max_length", "regex",
	"min_items", "max_items",
	"one_of",
}

func constraints(m map[string]any) ([]vmodel.Constraint, error) {
	if len(m) == 0 {
		return nil, nil
	}
	known := map[string]bool{}
	for _, k := range constraintOrder {
		known[k] = true
	}
	for k := range m {
		if !known[k] {
			return nil, fmt.Errorf("unknown constraint %q", k)
		}
	}
	var out []vmodel.Constraint
	for _, k := range constraintOrder {
		v, ok := m[k]
		if !ok {
			continue
		}
		c, err := constraint(k, v)
		if err != nil {
			return nil, fmt.Errorf("constraint %s: %w", k, err)
		}
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func constraint(name string, v any) (*vmodel.Constraint, error) {
	var c vmodel.Constraint
	switch name {
	case "strip_whitespace", "uuid", "finite":
		on, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", v)
		}
		if !on {
			return nil, nil
		}
		switch name {
		case "strip_whitespace":
			c = rules.StripWhitespace()
		case "uuid":
			c = rules.UUID()
		default:
			c = rules.Finite()
		}
	case "gt", "ge", "lt", "le", "multiple_of":
		f, ok := number(v)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", v)
		}
		c = map[string]func(float64) vmodel.Constraint{
			"gt": rules.Gt, "ge": rules.Ge, "lt": rules.Lt, "le": rules.Le, "multiple_of": rules.MultipleOf,
		}[name](f)
	case "min_length", "max_length", "min_items", "max_items":
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("want integer, got %T", v)
		}
		c = map[string]func(int) vmodel.Constraint{
			"min_length": rules.MinLength, "max_length": rules.MaxLength,
			"min_items": rules.MinItems, "max_items": rules.MaxItems,
		}[name](n)
	case "regex":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		c = rules.Regex(s)
	case "one_of":
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("want list, got %T", v)
		}
		c = rules.OneOf(list...)
	}
	return &c, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// celValidators accepts an expression string, a {expr, message} mapping or
// a list of either.
func celValidators(raw any) ([]vmodel.Validator, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []vmodel.Validator{dsl.CEL(t, "")}, nil
	case map[string]any:
		var c struct {
			Expr    string `mapstructure:"expr"`
			Message string `mapstructure:"message"`
		}
		if err := decodeStrict(t, &c); err != nil {
			return nil, fmt.Errorf("cel: %w", err)
		}
		if c.Expr == "" {
			return nil, errors.New("cel: missing expr")
		}
		return []vmodel.Validator{dsl.CEL(c.Expr, c.Message)}, nil
	case []any:
		var out []vmodel.Validator
		for _, e := range t {
			vs, err := celValidators(e)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cel: unsupported value %T", raw)
}
