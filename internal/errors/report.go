package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/samlang-wasm/samlang/internal/heap"
)

// SchemaErrorV1 is the schema identifier stamped onto every Report, mirroring
// the versioned wire-format convention used across the pipeline's other
// structured outputs.
const SchemaErrorV1 = "samlang.error/v1"

// Report is the canonical structured diagnostic type. Every compiler phase
// (SSA analysis, type checking, the external parser) constructs Reports
// rather than formatting strings directly, so the CLI and any downstream
// tooling can render them uniformly.
type Report struct {
	Schema   string         `json:"schema"`
	Code     string         `json:"code"`
	Phase    string         `json:"phase"`
	Message  string         `json:"message"`
	Location *heap.Location `json:"location,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Fix      *Fix           `json:"fix,omitempty"`
}

// Fix represents a suggested remediation with a confidence score.
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// New builds a Report for the given phase and code. loc may be the zero
// Location (heap.DummyLocation) when no source position applies.
func New(phase, code, message string, loc heap.Location) *Report {
	return &Report{
		Schema:   SchemaErrorV1,
		Code:     code,
		Phase:    phase,
		Message:  message,
		Location: &loc,
	}
}

// WithData attaches structured context data, returning r for chaining.
func (r *Report) WithData(data map[string]any) *Report {
	r.Data = data
	return r
}

// WithFix attaches a suggested fix, returning r for chaining.
func (r *Report) WithFix(suggestion string, confidence float64) *Report {
	r.Fix = &Fix{Suggestion: suggestion, Confidence: confidence}
	return r
}

// Error implements the error interface by rendering "CODE: message".
func (r *Report) Error() string {
	if r == nil {
		return "unknown error"
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// NewGeneric creates a generic report for an error that did not originate
// from a structured phase builder.
func NewGeneric(phase string, err error) *Report {
	return &Report{
		Schema:  SchemaErrorV1,
		Code:    "ERR000",
		Phase:   phase,
		Message: err.Error(),
		Data:    map[string]any{},
	}
}

// ReportError wraps a Report so it survives errors.As() unwrapping while the
// caller's control flow treats it as an ordinary error.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Error()
}

// AsReport extracts a Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as an error value.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders the report as deterministic JSON (sorted map keys, 2-space
// indent when compact is false).
func (r *Report) ToJSON(compact bool) (string, error) {
	data, err := MarshalDeterministic(r)
	if err != nil {
		return "", err
	}
	if compact {
		return string(data), nil
	}
	pretty, err := FormatJSON(data)
	if err != nil {
		return "", err
	}
	return string(pretty), nil
}

// MarshalDeterministic marshals v to compact JSON with map keys in sorted
// order at every nesting level.
func MarshalDeterministic(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(canonicalize(generic))
}

// FormatJSON re-indents already-valid JSON bytes with a stable 2-space
// indent, for human-readable (non-compact) diagnostic output.
func FormatJSON(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func canonicalize(v any) any {
	switch n := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = canonicalize(n[k])
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = canonicalize(e)
		}
		return out
	default:
		return v
	}
}

// Set is a non-aborting error accumulator used by the SSA analyzer and the
// type checker: both phases keep walking the tree after finding a problem so
// a single run surfaces every diagnostic instead of stopping at the first.
type Set struct {
	reports []*Report
}

// NewSet returns an empty error set.
func NewSet() *Set { return &Set{} }

// Add appends a report to the set.
func (s *Set) Add(r *Report) { s.reports = append(s.reports, r) }

// HasErrors reports whether any diagnostics were recorded.
func (s *Set) HasErrors() bool { return len(s.reports) > 0 }

// Reports returns the accumulated reports in insertion order.
func (s *Set) Reports() []*Report { return s.reports }

// Len returns the number of accumulated reports.
func (s *Set) Len() int { return len(s.reports) }
