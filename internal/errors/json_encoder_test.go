package errors

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewTypecheck(t *testing.T) {
	err := NewTypecheck(TYP001, "arity mismatch", nil)

	if err.Schema != SchemaErrorV1 {
		t.Errorf("expected schema %s, got %s", SchemaErrorV1, err.Schema)
	}
	if err.Phase != "checker" {
		t.Errorf("expected phase checker, got %s", err.Phase)
	}
	if err.Code != TYP001 {
		t.Errorf("expected code %s, got %s", TYP001, err.Code)
	}
}

func TestWithFix(t *testing.T) {
	err := NewTypecheck(TYP001, "missing type annotation", nil)
	err = err.WithFix("add type annotation: x: Int", 0.9)

	if err.Fix.Suggestion != "add type annotation: x: Int" {
		t.Errorf("expected fix suggestion, got %s", err.Fix.Suggestion)
	}
	if err.Fix.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", err.Fix.Confidence)
	}
}

func TestWithSourceSpan(t *testing.T) {
	err := NewSSA(RES001, "cannot resolve name", nil)
	err = err.WithSourceSpan("main.sam:10:5")

	if err.SourceSpan != "main.sam:10:5" {
		t.Errorf("expected source span main.sam:10:5, got %s", err.SourceSpan)
	}
}

func TestWithMeta(t *testing.T) {
	meta := map[string]string{"hint": "check variable scoping", "severity": "error"}

	err := NewSSA(RES001, "cannot resolve name", nil)
	err = err.WithMeta(meta)

	if err.Meta == nil {
		t.Error("expected meta to be set")
	}
}

func TestEncodedToJSON(t *testing.T) {
	err := NewTypecheck(TYP006, "non-exhaustive match", []string{"Cons", "Nil"}).
		WithFix("add a case for Nil", 0.85).
		WithSourceSpan("test.sam:5:10")

	jsonData, jsonErr := err.ToJSON()
	if jsonErr != nil {
		t.Fatalf("ToJSON failed: %v", jsonErr)
	}

	var result map[string]interface{}
	if parseErr := json.Unmarshal(jsonData, &result); parseErr != nil {
		t.Fatalf("failed to parse JSON: %v", parseErr)
	}

	if result["schema"] != SchemaErrorV1 {
		t.Errorf("expected schema %s, got %v", SchemaErrorV1, result["schema"])
	}
	if result["phase"] != "checker" {
		t.Errorf("expected phase checker, got %v", result["phase"])
	}
	if result["code"] != TYP006 {
		t.Errorf("expected code %s, got %v", TYP006, result["code"])
	}
	if _, ok := result["fix"]; !ok {
		t.Error("fix field should always be present")
	}
}

func TestSafeEncodeError(t *testing.T) {
	if result := SafeEncodeError(nil, "checker"); result != nil {
		t.Error("expected nil for nil error")
	}

	testErr := &testError{msg: "test error"}
	result := SafeEncodeError(testErr, "checker")

	var parsed map[string]interface{}
	if err := json.Unmarshal(result, &parsed); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if parsed["phase"] != "checker" {
		t.Errorf("expected phase checker, got %v", parsed["phase"])
	}
	if !strings.Contains(parsed["message"].(string), "test error") {
		t.Errorf("expected message to contain 'test error', got %v", parsed["message"])
	}
}

func TestFormatSourceSpan(t *testing.T) {
	tests := []struct {
		file     string
		line     int
		col      int
		expected string
	}{
		{"main.sam", 10, 5, "main.sam:10:5"},
		{"test.sam", 1, 1, "test.sam:1:1"},
		{"/path/to/file.sam", 100, 25, "/path/to/file.sam:100:25"},
	}

	for _, tt := range tests {
		result := FormatSourceSpan(tt.file, tt.line, tt.col)
		if result != tt.expected {
			t.Errorf("FormatSourceSpan(%s, %d, %d) = %s, want %s", tt.file, tt.line, tt.col, result, tt.expected)
		}
	}
}

func TestErrorCodesTaxonomyPrefixes(t *testing.T) {
	typeCodes := []string{TYP001, TYP002, TYP003, TYP004, TYP005, TYP006}
	for _, code := range typeCodes {
		if !strings.HasPrefix(code, "TYP") {
			t.Errorf("type code %s should start with TYP", code)
		}
	}

	resolutionCodes := []string{RES001, RES002}
	for _, code := range resolutionCodes {
		if !strings.HasPrefix(code, "RES") {
			t.Errorf("resolution code %s should start with RES", code)
		}
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string { return e.msg }
