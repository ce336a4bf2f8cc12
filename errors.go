package vmodel

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind classifies an Issue.
type Kind int

const (
	KindMissing      Kind = iota // Required field absent.
	KindTypeMismatch             // Value's runtime type is incompatible with the declared type.
	KindConstraint               // Type accepted, a declared constraint failed.
	KindCustom                   // A caller-supplied validator rejected the value.
)

var kindNames = [...]string{"missing", "type_mismatch", "constraint_violation", "custom"}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeMissing         = "value_error.missing"
	CodeInteger         = "type_error.integer"
	CodeFloat           = "type_error.float"
	CodeString          = "type_error.str"
	CodeBool            = "type_error.bool"
	CodeList            = "type_error.list"
	CodeDict            = "type_error.dict"
	CodeModel           = "type_error.model"
	CodeNoneNotAllowed  = "type_error.none.not_allowed"
	CodeNotGt           = "value_error.number.not_gt"
	CodeNotGe           = "value_error.number.not_ge"
	CodeNotLt           = "value_error.number.not_lt"
	CodeNotLe           = "value_error.number.not_le"
	CodeNotMultiple     = "value_error.number.not_multiple"
	CodeNotFinite       = "value_error.number.not_finite"
	CodeIntegerRange    = "value_error.number.integer_range"
	CodeMinLength       = "value_error.any_str.min_length"
	CodeMaxLength       = "value_error.any_str.max_length"
	CodeRegex           = "value_error.str.regex"
	CodeMinItems        = "value_error.list.min_items"
	CodeMaxItems        = "value_error.list.max_items"
	CodeUUID            = "value_error.uuid"
	CodeConst           = "value_error.const"
	CodeExtra           = "value_error.extra"
	CodeDuplicateKey    = "value_error.dict.duplicate_key"
	CodeValueError      = "value_error"
	customCodeSeparator = "."
)

// ErrInvalidSchema marks schema construction failures (conflicting bounds,
// unknown type tags, bad patterns). Build functions wrap it.
var ErrInvalidSchema = errors.New("vmodel: invalid schema")

// Issue represents a single validation entry.
type Issue struct {
	Path    Path   // Field names and indexes from the validated root.
	Kind    Kind   // One of the four issue kinds.
	Code    string // Stable code, e.g. type_error.integer.
	Message string
	// Context carries structured parameters for custom errors and constraint
	// violations (e.g., {"limit_value": 0} or {"bad_value": "bar"}).
	Context map[string]any
}

// Line renders the issue as "<dotted.path>: <message> (<kind>)".
func (it Issue) Line() string {
	return fmt.Sprintf("%s: %s (%s)", it.Path.String(), it.Message, it.Kind)
}

// Record converts the issue into a plain structure suitable for JSON/YAML
// serialization: loc, msg, kind, type and (when present) ctx.
func (it Issue) Record() map[string]any {
	loc := make([]any, len(it.Path))
	copy(loc, it.Path)
	rec := map[string]any{
		"loc":  loc,
		"msg":  it.Message,
		"kind": it.Kind.String(),
		"type": it.Code,
	}
	if len(it.Context) > 0 {
		ctx := make(map[string]any, len(it.Context))
		for k, v := range it.Context {
			ctx[k] = v
		}
		rec["ctx"] = ctx
	}
	return rec
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. type_mismatch at usage.flat.0.tier
		fmt.Fprintf(b, "%s at %s", it.Kind, it.Path.String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Lines renders every issue with Issue.Line.
func (iss Issues) Lines() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Line()
	}
	return out
}

// Records renders every issue with Issue.Record.
func (iss Issues) Records() []map[string]any {
	out := make([]map[string]any, len(iss))
	for i, it := range iss {
		out[i] = it.Record()
	}
	return out
}

// JSON encodes the records as indented JSON.
func (iss Issues) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(iss.Records()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Summary renders a human readable multi-line report:
//
//	2 validation errors for Plan
//	base
//	  field required (type=missing)
//	usage
//	  field required (type=missing)
func (iss Issues) Summary(schemaName string) string {
	b := &strings.Builder{}
	noun := "errors"
	if len(iss) == 1 {
		noun = "error"
	}
	fmt.Fprintf(b, "%d validation %s for %s", len(iss), noun, schemaName)
	for _, it := range iss {
		fmt.Fprintf(b, "\n%s\n  %s (type=%s)", it.Path.String(), it.Message, it.Kind)
	}
	return b.String()
}

// Has reports whether any issue sits exactly at the given path.
func (iss Issues) Has(segs ...any) bool {
	p := PathOf(segs...)
	for _, it := range iss {
		if it.Path.Equal(p) {
			return true
		}
	}
	return false
}

// ByKind filters issues by kind, preserving order.
func (iss Issues) ByKind(k Kind) Issues {
	var out Issues
	for _, it := range iss {
		if it.Kind == k {
			out = append(out, it)
		}
	}
	return out
}

// Rebase returns a copy of the issues with prefix prepended to every path.
func (iss Issues) Rebase(prefix Path) Issues {
	if len(iss) == 0 {
		return nil
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		it.Path = prefix.Join(it.Path)
		out[i] = it
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
