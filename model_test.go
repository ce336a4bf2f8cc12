package vmodel_test

import (
	"context"
	"math"
	"reflect"
	"testing"

	json "github.com/goccy/go-json"
	vmodel "github.com/reoring/vmodel"
	g "github.com/reoring/vmodel/dsl"
)

func tierPlan() vmodel.Schema {
	tier := g.Object("Tier").
		Field("tier", g.Float()).Default(math.Inf(1)).
		Field("price", g.Float()).Default(0.0).
		MustBuild()
	return g.Object("Plan").
		Field("name", g.String()).Default("basic").
		Field("base", g.List(tier)).
		Field("usage", g.Map(g.String(), g.List(tier))).
		MustBuild()
}

func validPlan(t *testing.T) *vmodel.Model {
	t.Helper()
	m, err := tierPlan().Validate(context.Background(), map[string]any{
		"base":  []any{map[string]any{"tier": 30, "price": 858}},
		"usage": map[string]any{"flat": []any{map[string]any{"price": 26.41}}},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	return m
}

func TestModel_Accessors(t *testing.T) {
	m := validPlan(t)
	if m.Name() != "Plan" || m.Len() != 3 {
		t.Fatalf("name/len: %s %d", m.Name(), m.Len())
	}
	if !reflect.DeepEqual(m.Fields(), []string{"name", "base", "usage"}) {
		t.Fatalf("fields: %v", m.Fields())
	}
	if v, ok := m.Get("name"); !ok || v != "basic" {
		t.Fatalf("default name: %v", v)
	}
	if _, ok := m.Get("nope"); ok {
		t.Fatalf("unknown field reported present")
	}
}

func TestModel_AsMapIsPlainAndFresh(t *testing.T) {
	m := validPlan(t)
	a := m.AsMap()
	base := a["base"].([]any)
	tier, ok := base[0].(map[string]any)
	if !ok {
		t.Fatalf("nested model must become a plain map, got %T", base[0])
	}
	if tier["tier"] != 30.0 {
		t.Fatalf("tier: %v", tier["tier"])
	}
	a["name"] = "changed"
	if v, _ := m.Get("name"); v != "basic" {
		t.Fatalf("AsMap must return a fresh map")
	}
}

func TestModel_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(validPlan(t))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"basic","base":[{"tier":30,"price":858}],"usage":{"flat":[{"tier":"Infinity","price":26.41}]}}`
	if string(b) != want {
		t.Fatalf("json mismatch:\nwant %s\n got %s", want, b)
	}

	// the encoded form validates again through coercive float fields
	var back map[string]any
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m2, err := tierPlan().Validate(context.Background(), back)
	if err != nil {
		t.Fatalf("re-validate: %v", err)
	}
	if m2.String() != validPlan(t).String() {
		t.Fatalf("round trip via JSON changed the model: %s", m2)
	}
}

func TestModel_String(t *testing.T) {
	want := "name='basic' base=[Tier(tier=30.0, price=858.0)] usage={'flat': [Tier(tier=inf, price=26.41)]}"
	if got := validPlan(t).String(); got != want {
		t.Fatalf("repr mismatch:\nwant %s\n got %s", want, got)
	}
	m := vmodel.NewModel("Flags", []string{"on", "off", "none"}, map[string]any{"on": true, "off": false})
	if got := m.String(); got != "on=True off=False none=None" {
		t.Fatalf("repr: %s", got)
	}
}

func TestBind(t *testing.T) {
	type Tier struct {
		Tier  float64 `json:"tier"`
		Price float64 `json:"price"`
	}
	type Plan struct {
		Name  string            `json:"name"`
		Base  []Tier            `json:"base"`
		Usage map[string][]Tier `json:"usage"`
	}
	p, err := vmodel.Bind[Plan](validPlan(t))
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if p.Name != "basic" || len(p.Base) != 1 || p.Base[0].Price != 858 {
		t.Fatalf("unexpected: %+v", p)
	}
	if flat := p.Usage["flat"]; len(flat) != 1 || !math.IsInf(flat[0].Tier, 1) {
		t.Fatalf("usage: %+v", p.Usage)
	}
	if _, err := vmodel.Bind[Plan](nil); err == nil {
		t.Fatalf("nil model must fail")
	}
}
