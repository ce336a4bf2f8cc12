// Package vmodel provides:
//
// - Declarative schemas of typed, constrained, nested fields (built with dsl/)
// - Validation that accumulates every violation in one pass (Issues)
// - Normalized, read-only results (Model) convertible to plain maps, JSON and structs
// - A stable error model: path, kind, code, message and context per issue
//
// Design policy:
// - Keep only public contracts in the root package; builders and type implementations live in dsl/.
// - Constraint constructors live in rules/, message templates in i18n/.
// - Decoding external formats (source/, schemafile/) stays outside the engine.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	tier := dsl.Object("Tier").
//	    Field("tier", dsl.Float()).Default(math.Inf(1)).
//	    Field("price", dsl.Float()).Default(0.0).
//	    MustBuild()
//	plan := dsl.Object("Plan").
//	    Field("base", dsl.List(tier)).
//	    Field("usage", dsl.Map(dsl.String(), dsl.List(tier))).
//	    MustBuild()
//
//	m, err := vmodel.Validate(ctx, plan, input)
//	if iss, ok := vmodel.AsIssues(err); ok {
//	    fmt.Println(iss.Summary(plan.Name()))
//	}
//	_ = m.AsMap()
package vmodel
