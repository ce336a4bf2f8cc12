// Package middleware guards net/http handlers with a vmodel schema: the JSON
// body is decoded and validated before the handler runs, and the resulting
// model travels in the request context. Framework adapters live in the gin
// and echo submodules.
package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	vmodel "github.com/reoring/vmodel"
	"github.com/reoring/vmodel/source"
)

// ctxKeyModel is a typed context key for storing the validated model.
type ctxKeyModel struct{}

// ContextWithModel attaches a validated model to the context.
func ContextWithModel(ctx context.Context, m *vmodel.Model) context.Context {
	return context.WithValue(ctx, ctxKeyModel{}, m)
}

// ModelFromContext retrieves the validated model from the context.
func ModelFromContext(ctx context.Context) (*vmodel.Model, bool) {
	m, ok := ctx.Value(ctxKeyModel{}).(*vmodel.Model)
	return m, ok && m != nil
}

type options struct {
	logger          *slog.Logger
	status          int
	maxBytes        int64
	allowDuplicates bool
	observe         func(ctx context.Context, s vmodel.Schema, input map[string]any) (*vmodel.Model, error)
}

// Option configures the middleware.
type Option func(*options)

// WithLogger logs rejected requests at debug level and decode failures at info.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithStatus overrides the status used for validation failures (default 422).
func WithStatus(code int) Option { return func(o *options) { o.status = code } }

// WithMaxBytes limits the request body size (default 1 MiB).
func WithMaxBytes(n int64) Option { return func(o *options) { o.maxBytes = n } }

// AllowDuplicateKeys keeps the last value of a repeated JSON key instead of
// rejecting the body.
func AllowDuplicateKeys() Option { return func(o *options) { o.allowDuplicates = true } }

// WithValidateFunc replaces the validation call, e.g. with a metrics recorder.
func WithValidateFunc(fn func(ctx context.Context, s vmodel.Schema, input map[string]any) (*vmodel.Model, error)) Option {
	return func(o *options) { o.observe = fn }
}

func newOptions(opts []Option) options {
	o := options{status: http.StatusUnprocessableEntity, maxBytes: 1 << 20, observe: vmodel.Validate}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Rejecter returns Reject bound to the logger and failure status selected by
// opts, for adapters that decode with Decode.
func Rejecter(opts ...Option) func(w http.ResponseWriter, r *http.Request, err error) {
	o := newOptions(opts)
	return func(w http.ResponseWriter, r *http.Request, err error) {
		Reject(w, r, err, o.logger, o.status)
	}
}

// DecodeError reports a body that could not be read as a JSON object.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "decode request body: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Decode reads the JSON request body and validates it against s. Body
// problems are returned as *DecodeError, validation failures as vmodel.Issues.
func Decode(r *http.Request, s vmodel.Schema, opts ...Option) (*vmodel.Model, error) {
	return decode(r, s, newOptions(opts))
}

func decode(r *http.Request, s vmodel.Schema, o options) (*vmodel.Model, error) {
	var srcOpts []source.Option
	if !o.allowDuplicates {
		srcOpts = append(srcOpts, source.RejectDuplicateKeys())
	}
	body := io.LimitReader(r.Body, o.maxBytes+1)
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if int64(len(data)) > o.maxBytes {
		return nil, &DecodeError{Err: errors.New("body too large")}
	}
	input, err := source.JSON(data, srcOpts...)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return o.observe(r.Context(), s, input)
}

// ErrorPayload shapes Issues for JSON responses: {"detail": [records...]}.
func ErrorPayload(iss vmodel.Issues) map[string]any {
	return map[string]any{"detail": iss.Records()}
}

// Validate returns net/http middleware that validates the JSON body against
// s. On success the model is stored in the request context; on failure the
// next handler is not called and the issues are written as JSON.
func Validate(s vmodel.Schema, opts ...Option) func(http.Handler) http.Handler {
	o := newOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, err := decode(r, s, o)
			if err != nil {
				Reject(w, r, err, o.logger, o.status)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithModel(r.Context(), m)))
		})
	}
}

// Reject writes the error response for err: the issues payload with status
// for validation failures, 400 for anything else.
func Reject(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger, status int) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if iss, ok := vmodel.AsIssues(err); ok {
		logger.Debug("request rejected", "path", r.URL.Path, "issues", len(iss), "error", iss)
		WriteJSON(w, status, ErrorPayload(iss))
		return
	}
	logger.Info("request body rejected", "path", r.URL.Path, "error", err)
	WriteJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
}

// WriteJSON encodes v with go-json.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Mount registers h for POST requests on pattern behind Validate(s).
func Mount(r chi.Router, pattern string, s vmodel.Schema, h http.Handler, opts ...Option) {
	r.With(Validate(s, opts...)).Method(http.MethodPost, pattern, h)
}
