package dsl

import (
	"context"
	"errors"
	"fmt"

	vmodel "github.com/reoring/vmodel"
)

type objectBuilder struct {
	name          string
	description   string
	fields        []vmodel.FieldDescriptor
	unknownPolicy vmodel.UnknownPolicy
	refines       []vmodel.Validator
}

type fieldStep struct {
	b   *objectBuilder
	idx int
}

// Object creates a new object builder. Unknown keys are ignored by default.
func Object(name string) *objectBuilder {
	return &objectBuilder{name: name, unknownPolicy: vmodel.UnknownIgnore}
}

// Field declares a field. Fields are required until Default or Optional is
// applied; declaration order is the validation and rendering order.
func (b *objectBuilder) Field(name string, t vmodel.Type) *fieldStep {
	b.fields = append(b.fields, vmodel.FieldDescriptor{Name: name, Type: t, Required: true})
	return &fieldStep{b: b, idx: len(b.fields) - 1}
}

// Describe sets the schema description exported to JSON Schema.
func (b *objectBuilder) Describe(desc string) *objectBuilder {
	b.description = desc
	return b
}

// UnknownIgnore drops keys without a descriptor (default).
func (b *objectBuilder) UnknownIgnore() *objectBuilder {
	b.unknownPolicy = vmodel.UnknownIgnore
	return b
}

// UnknownForbid reports one issue per key without a descriptor.
func (b *objectBuilder) UnknownForbid() *objectBuilder {
	b.unknownPolicy = vmodel.UnknownForbid
	return b
}

// UnknownAllow keeps keys without a descriptor in the model, unchecked.
func (b *objectBuilder) UnknownAllow() *objectBuilder {
	b.unknownPolicy = vmodel.UnknownAllow
	return b
}

// Refine adds a model-level check that runs after every field validated,
// e.g. cross-field rules. A returned error is reported as a custom issue at
// the model root (__root__); a *vmodel.CustomError keeps its code.
func (b *objectBuilder) Refine(name string, fn func(context.Context, *vmodel.Model) error) *objectBuilder {
	r := vmodel.Validator{Name: name}
	if fn == nil {
		r.Err = errors.New("nil refine function")
	} else {
		r.Fn = func(ctx context.Context, v any) (any, error) {
			return v, fn(ctx, v.(*vmodel.Model))
		}
	}
	b.refines = append(b.refines, r)
	return b
}

// Build freezes the builder into an immutable Schema. Misconfiguration is
// reported as an error wrapping vmodel.ErrInvalidSchema.
func (b *objectBuilder) Build() (vmodel.Schema, error) {
	o, err := newObjectSchema(b.name, b.description, b.fields, b.unknownPolicy)
	if err != nil {
		return nil, err
	}
	if err := vmodel.CheckValidators(b.refines); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", vmodel.ErrInvalidSchema, o.name, err)
	}
	o.refines = append([]vmodel.Validator(nil), b.refines...)
	return o, nil
}

// MustBuild is like Build but panics on error.
func (b *objectBuilder) MustBuild() vmodel.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func (f *fieldStep) field() *vmodel.FieldDescriptor { return &f.b.fields[f.idx] }

// Required marks the field as required, clearing any default.
func (f *fieldStep) Required() *fieldStep {
	fd := f.field()
	fd.Required = true
	fd.Default = nil
	return f
}

// Optional makes the field non-required with a null default. Explicit null
// is accepted.
func (f *fieldStep) Optional() *fieldStep {
	fd := f.field()
	fd.Required = false
	fd.Default = nil
	fd.Nullable = true
	return f
}

// Default makes the field non-required; v is checked at Build time and
// deep-copied into every model that omits the field.
func (f *fieldStep) Default(v any) *fieldStep {
	fd := f.field()
	fd.Required = false
	fd.Default = v
	if v == nil {
		fd.Nullable = true
	}
	return f
}

// Nullable accepts an explicit null for the field without making it optional.
func (f *fieldStep) Nullable() *fieldStep {
	f.field().Nullable = true
	return f
}

// Constrain appends constraints, evaluated in order after type acceptance.
func (f *fieldStep) Constrain(cs ...vmodel.Constraint) *fieldStep {
	fd := f.field()
	fd.Constraints = append(fd.Constraints, cs...)
	return f
}

// Validate appends custom validators, run after constraints succeed.
func (f *fieldStep) Validate(vs ...vmodel.Validator) *fieldStep {
	fd := f.field()
	fd.Validators = append(fd.Validators, vs...)
	return f
}

// Description documents the field in JSON Schema output.
func (f *fieldStep) Description(desc string) *fieldStep {
	f.field().Description = desc
	return f
}

func (f *fieldStep) Refine(name string, fn func(context.Context, *vmodel.Model) error) *objectBuilder {
	return f.b.Refine(name, fn)
}

func (f *fieldStep) Field(name string, t vmodel.Type) *fieldStep { return f.b.Field(name, t) }
func (f *fieldStep) UnknownIgnore() *objectBuilder               { return f.b.UnknownIgnore() }
func (f *fieldStep) UnknownForbid() *objectBuilder               { return f.b.UnknownForbid() }
func (f *fieldStep) UnknownAllow() *objectBuilder                { return f.b.UnknownAllow() }
func (f *fieldStep) Build() (vmodel.Schema, error)               { return f.b.Build() }
func (f *fieldStep) MustBuild() vmodel.Schema                    { return f.b.MustBuild() }
