package vmodel_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	vmodel "github.com/reoring/vmodel"
	g "github.com/reoring/vmodel/dsl"
	"github.com/reoring/vmodel/i18n"
)

func planIssues(t *testing.T) vmodel.Issues {
	t.Helper()
	plan := g.Object("Plan").
		Field("base", g.List(g.Float())).
		Field("usage", g.Map(nil, g.Int())).
		MustBuild()
	_, err := plan.Validate(context.Background(), map[string]any{})
	iss, ok := vmodel.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %v", err)
	}
	return iss
}

func TestIssues_Summary(t *testing.T) {
	want := "2 validation errors for Plan\n" +
		"base\n  field required (type=missing)\n" +
		"usage\n  field required (type=missing)"
	if got := planIssues(t).Summary("Plan"); got != want {
		t.Fatalf("summary mismatch:\nwant %q\n got %q", want, got)
	}
	one := vmodel.Issues{vmodel.NewIssue(vmodel.PathOf("x"), vmodel.KindMissing, vmodel.CodeMissing, nil)}
	if !strings.HasPrefix(one.Summary("X"), "1 validation error for X\n") {
		t.Fatalf("singular noun expected: %q", one.Summary("X"))
	}
}

func TestIssue_LineAndRecord(t *testing.T) {
	it := vmodel.NewIssue(vmodel.PathOf("usage", "flat", 0, "tier"), vmodel.KindTypeMismatch, vmodel.CodeFloat, nil)
	if got := it.Line(); got != "usage.flat.0.tier: value is not a valid float (type_mismatch)" {
		t.Fatalf("line: %q", got)
	}
	rec := it.Record()
	if rec["type"] != vmodel.CodeFloat || rec["kind"] != "type_mismatch" || rec["msg"] != "value is not a valid float" {
		t.Fatalf("record: %v", rec)
	}
	if _, has := rec["ctx"]; has {
		t.Fatalf("ctx must be omitted when empty: %v", rec)
	}
	loc := rec["loc"].([]any)
	if len(loc) != 4 || loc[2] != 0 {
		t.Fatalf("loc: %v", loc)
	}
}

func TestIssues_JSON(t *testing.T) {
	iss := vmodel.Issues{{
		Path:    vmodel.PathOf("name"),
		Kind:    vmodel.KindCustom,
		Code:    "value_error.not_foo",
		Message: "Received bad value: bar",
		Context: map[string]any{"bad_value": "bar"},
	}}
	b, err := iss.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["ctx"].(map[string]any)["bad_value"] != "bar" {
		t.Fatalf("unexpected: %s", b)
	}
	if !strings.Contains(string(b), "\n  ") {
		t.Fatalf("expected indented output: %s", b)
	}
}

func TestIssues_ErrorAndHelpers(t *testing.T) {
	var iss vmodel.Issues
	for i := 0; i < 5; i++ {
		iss = vmodel.AppendIssues(iss, vmodel.NewIssue(vmodel.PathOf("xs", i), vmodel.KindTypeMismatch, vmodel.CodeInteger, nil))
	}
	iss = vmodel.AppendIssues(iss, vmodel.NewIssue(vmodel.PathOf("y"), vmodel.KindMissing, vmodel.CodeMissing, nil))
	msg := iss.Error()
	if !strings.HasPrefix(msg, "type_mismatch at xs.0; type_mismatch at xs.1; type_mismatch at xs.2") || !strings.HasSuffix(msg, "(total 6)") {
		t.Fatalf("error: %q", msg)
	}
	if !iss.Has("xs", 4) || iss.Has("xs", 9) {
		t.Fatalf("Has")
	}
	if len(iss.ByKind(vmodel.KindMissing)) != 1 {
		t.Fatalf("ByKind")
	}
	rebased := iss.Rebase(vmodel.PathOf("outer"))
	if rebased[0].Path.String() != "outer.xs.0" || iss[0].Path.String() != "xs.0" {
		t.Fatalf("Rebase must copy: %s / %s", rebased[0].Path, iss[0].Path)
	}

	wrapped := fmt.Errorf("request: %w", iss)
	got, ok := vmodel.AsIssues(wrapped)
	if !ok || len(got) != 6 {
		t.Fatalf("AsIssues through wrapping")
	}
	if _, ok := vmodel.AsIssues(errors.New("plain")); ok {
		t.Fatalf("plain errors are not Issues")
	}
}

func TestPath_Rendering(t *testing.T) {
	p := vmodel.PathOf("a/b", "c~d", 2)
	if p.String() != "a/b.c~d.2" {
		t.Fatalf("string: %s", p)
	}
	if p.Pointer() != "/a~1b/c~0d/2" {
		t.Fatalf("pointer: %s", p.Pointer())
	}
	if vmodel.Path(nil).String() != "__root__" || vmodel.Path(nil).Pointer() != "/" {
		t.Fatalf("root path rendering")
	}
	q := p.Field("x")
	if len(p) != 3 || q.String() != "a/b.c~d.2.x" {
		t.Fatalf("Field must not alias: %s %s", p, q)
	}
}

func TestMessages_Localized(t *testing.T) {
	i18n.SetLanguage("ja")
	defer i18n.SetLanguage("en")
	it := vmodel.NewIssue(vmodel.PathOf("x"), vmodel.KindMissing, vmodel.CodeMissing, nil)
	if it.Message != "必須フィールドがありません" {
		t.Fatalf("ja message: %q", it.Message)
	}
}

func TestKind_String(t *testing.T) {
	want := map[vmodel.Kind]string{
		vmodel.KindMissing:      "missing",
		vmodel.KindTypeMismatch: "type_mismatch",
		vmodel.KindConstraint:   "constraint_violation",
		vmodel.KindCustom:       "custom",
	}
	for k, s := range want {
		if k.String() != s {
			t.Fatalf("%d: want %s got %s", int(k), s, k)
		}
		b, _ := k.MarshalText()
		if string(b) != s {
			t.Fatalf("MarshalText %s", b)
		}
	}
}
