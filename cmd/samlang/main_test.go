package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
)

// stubParser treats every source file as `class Main { function main(): int
// = 0 }`, regardless of its actual text, standing in for the out-of-scope
// lexer/parser so the CLI's plumbing can be exercised end to end.
func stubParser(h *heap.Heap, modRef heap.ModuleReference, path, source string) (*ast.Module, *errors.Report) {
	loc := heap.DummyLocation
	return &ast.Module{
		ModuleRef: modRef,
		Toplevels: []*ast.Toplevel{
			{
				Name:           h.Alloc("Main"),
				TypeDefinition: &ast.TypeDefinition{Kind: ast.TypeDefStruct},
				Members: []ast.MemberDefinition{
					{
						IsPublic:   true,
						Name:       h.Alloc("main"),
						ReturnType: &ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc},
						Body:       &ast.Literal{Kind: ast.LitInt, IntValue: 0, Location: loc},
						Location:   loc,
					},
				},
				Location: loc,
			},
		},
	}, nil
}

func writeProject(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "src"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "src", "Main.sam"), []byte("class Main {}"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := `{"source_directory": "src", "output_directory": "out", "entry_points": ["Main"]}`
	if err := os.WriteFile(filepath.Join(base, "sconfig.json"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return base
}

func TestRunCompileWithoutParser(t *testing.T) {
	old := ParseSource
	ParseSource = nil
	defer func() { ParseSource = old }()

	base := writeProject(t)
	var out, errOut bytes.Buffer
	code := run([]string{"compile", "--config", filepath.Join(base, "sconfig.json")}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit 2 with no parser configured, got %d (stderr: %s)", code, errOut.String())
	}
}

func TestRunCompileSuccess(t *testing.T) {
	old := ParseSource
	ParseSource = stubParser
	defer func() { ParseSource = old }()

	base := writeProject(t)
	var out, errOut bytes.Buffer
	code := run([]string{"compile", "--config", filepath.Join(base, "sconfig.json")}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected success, got exit %d (stderr: %s)", code, errOut.String())
	}
	outPath := filepath.Join(base, "out", "__all__.wat")
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if !strings.Contains(string(data), "__$main") {
		t.Fatalf("expected the exported main function, got:\n%s", data)
	}
}

func TestRunCompileBenchmarkRepeatWritesYAMLManifest(t *testing.T) {
	old := ParseSource
	ParseSource = stubParser
	defer func() { ParseSource = old }()

	t.Setenv("BENCHMARK_REPEAT", "3")

	base := writeProject(t)
	var out, errOut bytes.Buffer
	code := run([]string{"compile", "--config", filepath.Join(base, "sconfig.json")}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected success, got exit %d (stderr: %s)", code, errOut.String())
	}

	data, err := os.ReadFile(filepath.Join(base, "out", "benchmark.yaml"))
	if err != nil {
		t.Fatalf("expected a benchmark.yaml manifest: %v", err)
	}
	var manifest benchmarkManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("benchmark.yaml did not parse as YAML: %v\ncontent:\n%s", err, data)
	}
	if manifest.Repeat != 3 || len(manifest.Runs) != 3 {
		t.Fatalf("expected 3 recorded runs, got %+v", manifest)
	}
}

func TestRunCompileMissingConfig(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"compile", "--config", "/nonexistent/sconfig.json"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit 2 for a missing config file, got %d", code)
	}
}

func TestRunHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"--help"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0 for --help, got %d", code)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Fatalf("expected usage text, got:\n%s", out.String())
	}
}

func TestRunFormatAndLSPAreStubs(t *testing.T) {
	for _, cmd := range []string{"format", "lsp"} {
		var out, errOut bytes.Buffer
		code := run([]string{cmd}, &out, &errOut)
		if code != 2 {
			t.Fatalf("%s: expected exit 2, got %d", cmd, code)
		}
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"bogus"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit 2 for an unknown command, got %d", code)
	}
}
