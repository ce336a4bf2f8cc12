package benchmarks_test

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	vmodel "github.com/reoring/vmodel"
	g "github.com/reoring/vmodel/dsl"
	"github.com/reoring/vmodel/rules"
	"github.com/reoring/vmodel/source"
)

// ---- Helpers ----

func smallUserSchema(tb testing.TB, unknown vmodel.UnknownPolicy) vmodel.Schema {
	tb.Helper()
	b := g.Object("User").
		Field("id", g.String()).
		Field("name", g.String()).Constrain(rules.MinLength(1)).
		Field("age", g.Int()).Default(0)
	switch unknown {
	case vmodel.UnknownForbid:
		b.UnknownForbid()
	case vmodel.UnknownAllow:
		b.UnknownAllow()
	}
	s, err := b.Build()
	if err != nil {
		tb.Fatalf("schema build failed: %v", err)
	}
	return s
}

func smallUserJSON() []byte {
	return []byte(`{"id":"u_1","name":"alice","age":"41"}`)
}

// generateItems returns a JSON document {"items": [...]} whose objects look like
// {"id":"obj_0","name":"n0","age":0,"active":true,"meta":{"score":0},"k0":"v0",...}.
func generateItems(numObjects, extraFields int) []byte {
	var buf bytes.Buffer
	buf.Grow(numObjects * (64 + extraFields*16))
	buf.WriteString(`{"items":[`)
	for i := 0; i < numObjects; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `{"id":"obj_%d","name":"n%d","age":%d,"active":%t,"meta":{"score":%d}`, i, i, i, i%2 == 0, i)
		for k := 0; k < extraFields; k++ {
			buf.WriteString(`,"k` + strconv.Itoa(k) + `":"v` + strconv.Itoa(i) + `_` + strconv.Itoa(k) + `"`)
		}
		buf.WriteByte('}')
	}
	buf.WriteString(`]}`)
	return buf.Bytes()
}

func itemsSchema(tb testing.TB) vmodel.Schema {
	tb.Helper()
	meta := g.Object("Meta").Field("score", g.Float()).MustBuild()
	item := g.Object("Item").
		Field("id", g.String()).
		Field("age", g.Int()).Constrain(rules.Ge(0)).
		Field("active", g.Bool()).
		Field("meta", meta).
		MustBuild()
	s, err := g.Object("Items").Field("items", g.List(item)).Build()
	if err != nil {
		tb.Fatalf("schema build failed: %v", err)
	}
	return s
}

// ---- Micro benchmarks (small inputs) ----

func Benchmark_Validate_Object_Small(b *testing.B) {
	ctx := context.Background()
	for _, policy := range []vmodel.UnknownPolicy{vmodel.UnknownIgnore, vmodel.UnknownForbid, vmodel.UnknownAllow} {
		b.Run(policy.String(), func(b *testing.B) {
			s := smallUserSchema(b, policy)
			in, err := source.JSON(smallUserJSON())
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := s.Validate(ctx, in); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func Benchmark_DecodeAndValidate_Object_Small(b *testing.B) {
	ctx := context.Background()
	s := smallUserSchema(b, vmodel.UnknownIgnore)
	data := smallUserJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		in, err := source.JSON(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := s.Validate(ctx, in); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Validate_Object_Invalid(b *testing.B) {
	ctx := context.Background()
	s := smallUserSchema(b, vmodel.UnknownForbid)
	in := map[string]any{"name": "", "age": "x", "extra": 1}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Validate(ctx, in); err == nil {
			b.Fatal("expected issues")
		}
	}
}

// ---- Macro benchmarks (large documents) ----

const (
	largeObjects   = 10000
	largeExtraKeys = 8
)

func Benchmark_Validate_LargeList(b *testing.B) {
	ctx := context.Background()
	s := itemsSchema(b)
	in, err := source.JSON(generateItems(largeObjects, largeExtraKeys))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Validate(ctx, in); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_DecodeJSON_LargeList(b *testing.B) {
	data := generateItems(largeObjects, largeExtraKeys)
	for _, tc := range []struct {
		name string
		opts []source.Option
	}{
		{"last_wins", nil},
		{"reject_duplicates", []source.Option{source.RejectDuplicateKeys()}},
	} {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := source.JSON(data, tc.opts...); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
