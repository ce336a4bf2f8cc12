package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	g "github.com/reoring/vmodel/dsl"
	"github.com/reoring/vmodel/metrics"
	"github.com/reoring/vmodel/middleware"
	"github.com/reoring/vmodel/rules"
)

func TestRecorder_CountsResultsAndKinds(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	s := g.Object("Order").
		Field("id", g.String()).
		Field("qty", g.Int()).Constrain(rules.Gt(0)).
		Field("note", g.String()).Optional().
		MustBuild()
	ctx := context.Background()

	_, err := rec.Validate(ctx, s, map[string]any{"id": "a", "qty": 2})
	require.NoError(t, err)
	_, err = rec.Validate(ctx, s, map[string]any{"qty": 0, "note": true})
	require.Error(t, err)
	_, err = rec.Validate(ctx, nil, map[string]any{})
	require.Error(t, err)

	expected := `
# HELP vmodel_issues_total Reported issues by schema and kind.
# TYPE vmodel_issues_total counter
vmodel_issues_total{kind="constraint_violation",schema="Order"} 1
vmodel_issues_total{kind="missing",schema="Order"} 1
vmodel_issues_total{kind="type_mismatch",schema="Order"} 1
# HELP vmodel_validations_total Validation calls by schema and result (ok, invalid, error).
# TYPE vmodel_validations_total counter
vmodel_validations_total{result="error",schema="unknown"} 1
vmodel_validations_total{result="invalid",schema="Order"} 1
vmodel_validations_total{result="ok",schema="Order"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"vmodel_issues_total", "vmodel_validations_total"))
	n, err := testutil.GatherAndCount(reg, "vmodel_validation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecorder_WithMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	s := g.Object("Ping").Field("n", g.Int()).MustBuild()

	r := chi.NewRouter()
	middleware.Mount(r, "/ping", s, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), middleware.WithValidateFunc(rec.Validate))

	for _, body := range []string{`{"n": 1}`, `{"n": "x"}`, `{"n": 2}`} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(body)))
	}
	expected := `
# HELP vmodel_validations_total Validation calls by schema and result (ok, invalid, error).
# TYPE vmodel_validations_total counter
vmodel_validations_total{result="invalid",schema="Ping"} 1
vmodel_validations_total{result="ok",schema="Ping"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "vmodel_validations_total"))
}

func TestNew_NilRegisterer(t *testing.T) {
	rec := metrics.New(nil)
	s := g.Object("Ping").Field("n", g.Int()).MustBuild()
	_, err := rec.Validate(context.Background(), s, map[string]any{"n": 1})
	assert.NoError(t, err)
}
