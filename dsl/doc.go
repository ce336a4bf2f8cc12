// Package dsl provides the schema builders and type implementations for vmodel.
//
// Overview
//   - Builder API: declare fields in order with Object(name)/Field()/Default()/Optional()/Constrain()/Validate() and freeze with Build()/MustBuild().
//   - Primitives: Int()/Float()/String()/Bool() coerce by default; .Strict() rejects anything not already the exact type. Any() passes values through.
//   - Containers: List(elem) and Map(key, value) recurse and rebase element issues under the index or key.
//   - Wrappers: Nullable(t) accepts an explicit null; Constrained(t, rules...) attaches constraints to a type (e.g. a map key type).
//   - Validators: Check(name, fn), Predicate(...) and CEL(expr, template) run after constraints succeed.
//   - Dynamic schemas: FromDescriptors(name, fields) and FromMap(name, fields) build schemas from plain data.
//
// Entry points
//   - Object(name): create an object builder; chain Field/Default/Constrain/Unknown* then MustBuild()/Build.
//   - FromDescriptors/FromMap: the same construction checks without the builder.
//   - Nested schemas are Types: pass a built schema to Field, List or Map.
//
// File layout (roles)
//   - primitives.go: Int/Float/String/Bool/Any and the coercion helpers.
//   - array.go: ListType.
//   - map_core.go: MapType.
//   - wrap.go: Nullable and Constrained wrappers.
//   - object_builder.go: objectBuilder/fieldStep and Build/MustBuild.
//   - object_core.go: objectSchema (the per-field validation loop, unknown keys, JSONSchema).
//   - dynamic.go: FromDescriptors/FromMap.
//   - validators.go: Check/Predicate/CEL.
//
// Design guidelines
//   - Schemas are immutable after Build and safe for concurrent use.
//   - Misconfiguration fails at Build time (wrapping vmodel.ErrInvalidSchema), never during validation.
//   - Issue order is deterministic: fields in declaration order, map keys sorted, unknown keys last.
//
// Example (quickstart)
//
//	tier := dsl.Object("Tier").
//	    Field("tier", dsl.Float()).Default(math.Inf(1)).
//	    Field("price", dsl.Float()).Default(0.0).Constrain(rules.Ge(0)).
//	    MustBuild()
//	plan := dsl.Object("Plan").
//	    Field("base", dsl.List(tier)).
//	    Field("usage", dsl.Map(dsl.String(), dsl.List(tier))).
//	    MustBuild()
//	m, err := plan.Validate(ctx, map[string]any{
//	    "base":  []any{map[string]any{"tier": 30, "price": 858}},
//	    "usage": map[string]any{"flat": []any{map[string]any{"price": 26.41}}},
//	})
//	_ = err
//	fmt.Println(m) // base=[Tier(tier=30.0, price=858.0)] usage={'flat': [Tier(tier=inf, price=26.41)]}
//
// Example (custom validator)
//
//	s := dsl.Object("Item").
//	    Field("foo", dsl.String()).Validate(dsl.Check("not_bar", func(_ context.Context, v any) (any, error) {
//	        if v == "bar" {
//	            return nil, vmodel.NewCustomError("not_bar", "Received bad value: {bad_value}", map[string]any{"bad_value": v})
//	        }
//	        return v, nil
//	    })).
//	    MustBuild()
//
// JSON Schema output hints
//
//	sch, _ := s.JSONSchema()
//	// UnknownForbid => additionalProperties=false
//	// Default(v)    => default=v, field not listed in required
package dsl
