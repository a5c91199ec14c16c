package errors

import "fmt"

// Encoded is a structured error in a flat JSON shape for machine-readable
// diagnostics. Report is the richer internal type; Encoded is the form meant
// to cross a process boundary. The CLI itself prints reports one per line.
type Encoded struct {
	Schema     string      `json:"schema"`
	Phase      string      `json:"phase"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Fix        Fix         `json:"fix"`
	Context    interface{} `json:"context,omitempty"`
	SourceSpan string      `json:"source_span,omitempty"`
	Meta       interface{} `json:"meta,omitempty"`
}

// NewSSA creates a resolution-phase diagnostic (unbound name, illegal
// redefinition).
func NewSSA(code, msg string, ctx interface{}) Encoded {
	return Encoded{Schema: SchemaErrorV1, Phase: "ssa", Code: code, Message: msg, Context: ctx}
}

// NewTypecheck creates a type-checking diagnostic.
func NewTypecheck(code, msg string, ctx interface{}) Encoded {
	return Encoded{Schema: SchemaErrorV1, Phase: "checker", Code: code, Message: msg, Context: ctx}
}

// NewConfig creates a project-configuration diagnostic.
func NewConfig(code, msg string, ctx interface{}) Encoded {
	return Encoded{Schema: SchemaErrorV1, Phase: "config", Code: code, Message: msg, Context: ctx}
}

// WithFix adds a fix suggestion to the error, returning a copy.
func (e Encoded) WithFix(suggestion string, confidence float64) Encoded {
	e.Fix = Fix{Suggestion: suggestion, Confidence: confidence}
	return e
}

// WithSourceSpan adds a rendered "file:line:col" source location.
func (e Encoded) WithSourceSpan(span string) Encoded {
	e.SourceSpan = span
	return e
}

// WithMeta attaches arbitrary metadata.
func (e Encoded) WithMeta(meta interface{}) Encoded {
	e.Meta = meta
	return e
}

// ToJSON converts the error to deterministic, pretty-printed JSON.
func (e Encoded) ToJSON() ([]byte, error) {
	data, err := MarshalDeterministic(e)
	if err != nil {
		fallback := Encoded{
			Schema:  SchemaErrorV1,
			Message: "encoding failed",
			Meta:    map[string]string{"original_error": err.Error()},
		}
		data, ferr := MarshalDeterministic(fallback)
		if ferr != nil {
			return nil, ferr
		}
		return data, nil
	}
	return FormatJSON(data)
}

// SafeEncodeError encodes any error without panicking, for use at the
// outermost CLI boundary where the failure mode itself must not crash.
func SafeEncodeError(err error, phase string) []byte {
	if err == nil {
		return nil
	}
	encoded := Encoded{
		Schema:  SchemaErrorV1,
		Phase:   phase,
		Code:    "ERR000",
		Message: err.Error(),
	}
	data, _ := encoded.ToJSON()
	return data
}

// FormatSourceSpan formats a file position as "file:line:col".
func FormatSourceSpan(file string, line, col int) string {
	return fmt.Sprintf("%s:%d:%d", file, line, col)
}
