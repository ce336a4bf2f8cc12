package dsl_test

import (
	"context"
	"errors"
	"testing"

	vmodel "github.com/reoring/vmodel"
	g "github.com/reoring/vmodel/dsl"
	"github.com/reoring/vmodel/rules"
)

func TestCEL_AcceptsAndRejects(t *testing.T) {
	s := g.Object("Port").
		Field("port", g.Int()).Validate(g.CEL("value > 0 && value < 65536", "port {bad_value} out of range")).
		MustBuild()
	ctx := context.Background()
	if _, err := s.Validate(ctx, map[string]any{"port": 8080}); err != nil {
		t.Fatalf("8080 must pass: %v", err)
	}
	_, err := s.Validate(ctx, map[string]any{"port": 70000})
	iss, _ := vmodel.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != "value_error.cel" || iss[0].Message != "port 70000 out of range" {
		t.Fatalf("unexpected: %v", iss)
	}
	if iss[0].Context["bad_value"] != int64(70000) {
		t.Fatalf("context: %v", iss[0].Context)
	}
}

func TestCEL_StringsAndLists(t *testing.T) {
	ctx := context.Background()
	s := g.Object("Tags").
		Field("version", g.String()).Validate(g.CEL(`value.startsWith("v")`, "")).
		Field("tags", g.List(g.String())).Validate(g.CEL("size(value) <= 2", "")).
		MustBuild()
	_, err := s.Validate(ctx, map[string]any{"version": "1.0", "tags": []any{"a", "b", "c"}})
	iss, _ := vmodel.AsIssues(err)
	if len(iss) != 2 || !iss.Has("version") || !iss.Has("tags") {
		t.Fatalf("expected two cel issues, got %v", err)
	}
	if iss[0].Message != `value does not satisfy value.startsWith("v")` {
		t.Fatalf("default template: %q", iss[0].Message)
	}
}

func TestCEL_CompileErrorFailsBuild(t *testing.T) {
	_, err := g.Object("Bad").Field("x", g.Int()).Validate(g.CEL("value >", "")).Build()
	if !errors.Is(err, vmodel.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	_, err = g.Object("Bad").Field("x", g.Int()).Validate(g.CEL("'text'", "")).Build()
	if err == nil {
		t.Fatalf("non-boolean expression must be rejected")
	}
}

func TestPredicate(t *testing.T) {
	even := g.Predicate("even", "not_even", "{bad_value} is odd", func(v any) bool { return v.(int64)%2 == 0 })
	s := g.Object("P").Field("n", g.Int()).Validate(even).MustBuild()
	_, err := s.Validate(context.Background(), map[string]any{"n": 3})
	iss, _ := vmodel.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != "value_error.not_even" || iss[0].Message != "3 is odd" {
		t.Fatalf("unexpected: %v", iss)
	}
}

func TestBuild_ConstructionErrors(t *testing.T) {
	cases := map[string]func() error{
		"duplicate field": func() error {
			_, err := g.Object("D").Field("a", g.Int()).Field("a", g.String()).Build()
			return err
		},
		"empty name": func() error {
			_, err := g.Object("E").Field("", g.Int()).Build()
			return err
		},
		"nil type": func() error {
			_, err := g.Object("N").Field("a", nil).Build()
			return err
		},
		"conflicting bounds": func() error {
			_, err := g.Object("B").Field("a", g.Int()).Constrain(rules.Gt(10), rules.Lt(5)).Build()
			return err
		},
		"equal exclusive bounds": func() error {
			_, err := g.Object("B").Field("a", g.Int()).Constrain(rules.Ge(5), rules.Lt(5)).Build()
			return err
		},
		"min above max length": func() error {
			_, err := g.Object("L").Field("a", g.String()).Constrain(rules.MinLength(5), rules.MaxLength(2)).Build()
			return err
		},
		"bad regex": func() error {
			_, err := g.Object("R").Field("a", g.String()).Constrain(rules.Regex("(")).Build()
			return err
		},
		"negative length": func() error {
			_, err := g.Object("L").Field("a", g.String()).Constrain(rules.MinLength(-1)).Build()
			return err
		},
		"bad default": func() error {
			_, err := g.Object("F").Field("a", g.Int()).Default("x").Build()
			return err
		},
		"default violates constraint": func() error {
			_, err := g.Object("F").Field("a", g.Int()).Default(0).Constrain(rules.Gt(0)).Build()
			return err
		},
		"nil refine": func() error {
			_, err := g.Object("F").Field("a", g.Int()).Refine("nil", nil).Build()
			return err
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			if err := fn(); !errors.Is(err, vmodel.ErrInvalidSchema) {
				t.Fatalf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestMustBuild_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("MustBuild must panic on an invalid schema")
		}
	}()
	g.Object("P").Field("a", g.Int()).Field("a", g.Int()).MustBuild()
}

func TestConstrained_AsMapKeyType(t *testing.T) {
	key := g.Constrained(g.String(), rules.MinLength(2))
	s := g.Object("K").Field("m", g.Map(key, g.Int())).MustBuild()
	_, err := s.Validate(context.Background(), map[string]any{"m": map[string]any{"a": 1, "bb": 2}})
	iss, _ := vmodel.AsIssues(err)
	if len(iss) != 1 || !iss.Has("m", "a") || iss[0].Code != vmodel.CodeMinLength {
		t.Fatalf("unexpected: %v", iss)
	}
	if _, err := g.NewConstrained(g.Int(), rules.Gt(3), rules.Le(1)); !errors.Is(err, vmodel.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestMap_NormalizedKeyCollision(t *testing.T) {
	ctx := context.Background()
	stripped := g.Object("K").
		Field("m", g.Map(g.Constrained(g.String(), rules.StripWhitespace()), g.Int())).
		MustBuild()
	_, err := stripped.Validate(ctx, map[string]any{"m": map[string]any{" a": 1, "a": 2}})
	iss, ok := vmodel.AsIssues(err)
	if !ok || len(iss) != 1 || !iss.Has("m", "a") || iss[0].Code != vmodel.CodeDuplicateKey {
		t.Fatalf("expected one duplicate_key issue at m.a, got %v", err)
	}
	if iss[0].Kind != vmodel.KindConstraint || iss[0].Context["other"] != " a" {
		t.Fatalf("unexpected issue: %+v", iss[0])
	}

	ints := g.Object("K").Field("m", g.Map(g.Int(), g.Any())).MustBuild()
	_, err = ints.Validate(ctx, map[string]any{"m": map[string]any{"01": "x", "1": "y", "2": "z"}})
	iss, _ = vmodel.AsIssues(err)
	if len(iss) != 1 || !iss.Has("m", "1") || iss[0].Code != vmodel.CodeDuplicateKey {
		t.Fatalf("expected one duplicate_key issue at m.1, got %v", iss)
	}

	m, err := ints.Validate(ctx, map[string]any{"m": map[string]any{"1": "y", "2": "z"}})
	if err != nil {
		t.Fatalf("distinct keys must pass: %v", err)
	}
	if got, _ := m.Get("m"); len(got.(map[string]any)) != 2 {
		t.Fatalf("entries lost: %v", got)
	}
}

func TestNullable_ListElements(t *testing.T) {
	s := g.Object("N").Field("xs", g.List(g.Nullable(g.Int()))).MustBuild()
	m, err := s.Validate(context.Background(), map[string]any{"xs": []any{1, nil}})
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if m.String() != "xs=[1, None]" {
		t.Fatalf("repr: %s", m)
	}
	_, err = g.Object("N").Field("xs", g.List(g.Int())).MustBuild().
		Validate(context.Background(), map[string]any{"xs": []any{nil}})
	iss, _ := vmodel.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != vmodel.CodeNoneNotAllowed || !iss.Has("xs", 0) {
		t.Fatalf("unexpected: %v", iss)
	}
}

func TestFromDescriptorsAndFromMap(t *testing.T) {
	ctx := context.Background()
	s, err := g.FromDescriptors("Dyn", []vmodel.FieldDescriptor{
		{Name: "b", Type: g.Int(), Required: true},
		{Name: "a", Type: g.String(), Default: "x"},
	}, g.WithUnknown(vmodel.UnknownForbid))
	if err != nil {
		t.Fatalf("from descriptors: %v", err)
	}
	m, err := s.Validate(ctx, map[string]any{"b": "2"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if m.String() != "b=2 a='x'" {
		t.Fatalf("repr: %s", m)
	}
	if _, err := s.Validate(ctx, map[string]any{"b": 1, "c": 1}); err == nil {
		t.Fatalf("unknown key must be rejected")
	}

	fm, err := g.FromMap("Dyn", map[string]vmodel.FieldDescriptor{
		"z": {Type: g.Int()},
		"a": {Type: g.Int()},
	})
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	fs := fm.Fields()
	if fs[0].Name != "a" || fs[1].Name != "z" {
		t.Fatalf("FromMap must order fields by key: %v %v", fs[0].Name, fs[1].Name)
	}
	m, err = fm.Validate(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("non-required fields without default are optional: %v", err)
	}
	if v, ok := m.Get("a"); !ok || v != nil {
		t.Fatalf("a: %v %v", v, ok)
	}
}
