package errors

import "testing"

func TestErrorCodeTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		phase    string
		category string
	}{
		{"SYN001", SYN001, "parser", "syntax"},
		{"SYN003", SYN003, "parser", "syntax"},
		{"RES001", RES001, "ssa", "resolution"},
		{"RES002", RES002, "ssa", "resolution"},
		{"TYP001", TYP001, "checker", "type"},
		{"TYP006", TYP006, "checker", "pattern"},
		{"CFG001", CFG001, "config", "project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, exists := GetErrorInfo(tt.code)
			if !exists {
				t.Fatalf("error code %s not found in registry", tt.code)
			}
			if info.Code != tt.code {
				t.Errorf("code mismatch: got %s, want %s", info.Code, tt.code)
			}
			if info.Phase != tt.phase {
				t.Errorf("phase mismatch for %s: got %s, want %s", tt.code, info.Phase, tt.phase)
			}
			if info.Category != tt.category {
				t.Errorf("category mismatch for %s: got %s, want %s", tt.code, info.Category, tt.category)
			}
		})
	}
}

func TestErrorTypeCheckers(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		isResolution bool
		isType       bool
	}{
		{"resolution error", RES001, true, false},
		{"type error", TYP001, false, true},
		{"config error", CFG001, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsResolutionError(tt.code); got != tt.isResolution {
				t.Errorf("IsResolutionError(%s) = %v, want %v", tt.code, got, tt.isResolution)
			}
			if got := IsTypeError(tt.code); got != tt.isType {
				t.Errorf("IsTypeError(%s) = %v, want %v", tt.code, got, tt.isType)
			}
		})
	}
}

func TestAllErrorCodesInRegistry(t *testing.T) {
	allCodes := []string{
		SYN001, SYN002, SYN003,
		RES001, RES002,
		TYP001, TYP002, TYP003, TYP004, TYP005, TYP006,
		CFG001, CFG002,
	}

	for _, code := range allCodes {
		t.Run(code, func(t *testing.T) {
			if _, exists := GetErrorInfo(code); !exists {
				t.Errorf("error code %s is defined but not in registry", code)
			}
		})
	}

	if len(ErrorRegistry) < len(allCodes) {
		t.Errorf("registry has %d codes, expected at least %d", len(ErrorRegistry), len(allCodes))
	}
}

func TestErrorInfoConsistency(t *testing.T) {
	validPhases := map[string]bool{
		"parser": true, "ssa": true, "checker": true, "config": true,
	}
	for code, info := range ErrorRegistry {
		if info.Code != code {
			t.Errorf("code mismatch in registry: key=%s, info.Code=%s", code, info.Code)
		}
		if len(code) < 4 || len(code) > 6 {
			t.Errorf("invalid code format: %s", code)
		}
		if !validPhases[info.Phase] {
			t.Errorf("invalid phase for %s: %s", code, info.Phase)
		}
		if info.Description == "" {
			t.Errorf("empty description for %s", code)
		}
	}
}
