// Package metrics instruments validation calls with Prometheus collectors.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	vmodel "github.com/reoring/vmodel"
)

const namespace = "vmodel"

// Recorder wraps vmodel.Validate and records outcomes per schema.
type Recorder struct {
	results  *prometheus.CounterVec
	issues   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Recorder and registers its collectors with reg. A nil reg
// leaves the collectors unregistered.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validation calls by schema and result (ok, invalid, error).",
		}, []string{"schema", "result"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Reported issues by schema and kind.",
		}, []string{"schema", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating one input.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"schema"}),
	}
	if reg != nil {
		reg.MustRegister(r.results, r.issues, r.duration)
	}
	return r
}

// Validate has the signature of vmodel.Validate so it can be plugged into
// middleware.WithValidateFunc.
func (r *Recorder) Validate(ctx context.Context, s vmodel.Schema, input map[string]any) (*vmodel.Model, error) {
	name := "unknown"
	if s != nil {
		name = s.Name()
	}
	start := time.Now()
	m, err := vmodel.Validate(ctx, s, input)
	r.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	switch iss, ok := vmodel.AsIssues(err); {
	case err == nil:
		r.results.WithLabelValues(name, "ok").Inc()
	case ok:
		r.results.WithLabelValues(name, "invalid").Inc()
		for _, it := range iss {
			r.issues.WithLabelValues(name, it.Kind.String()).Inc()
		}
	default:
		r.results.WithLabelValues(name, "error").Inc()
	}
	return m, err
}
