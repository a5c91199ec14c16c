// Command samlang is the compiler driver: it loads a project's sconfig.json,
// discovers and resolves its .sam sources, and runs them through the
// ssa/checker/hir/mir/lir/wasmtext pipeline (internal/driver), the way the
// teacher's cmd/ailang/main.go dispatches flag-parsed subcommands to its own
// lexer/parser/eval pipeline.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/driver"
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/sconfig"
	"github.com/samlang-wasm/samlang/internal/wasmtext"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// ParseSource is the lexer/parser backend `compile` calls to turn one `.sam`
// file's contents into an AST module. The lexer and parser are out-of-scope
// external collaborators (spec §1, "the core never parses text") — left
// nil, compile reports a configuration-style error and exits 2 rather than
// silently compiling an empty program.
var ParseSource func(h *heap.Heap, modRef heap.ModuleReference, path, source string) (*ast.Module, *errors.Report)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run implements the whole CLI and returns the process exit code (spec §6:
// 0 success, 1 compile errors, 2 configuration error), kept separate from
// main so it can be exercised directly in tests.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("samlang", flag.ContinueOnError)
	fs.SetOutput(stderr)
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help (shorthand)")
	configPath := fs.String("config", "sconfig.json", "path to the project's sconfig.json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// compile is the default subcommand (spec §6).
	command := "compile"
	rest := fs.Args()
	if len(rest) > 0 {
		command = rest[0]
		// Flags may also follow the command word.
		if err := fs.Parse(rest[1:]); err != nil {
			return 2
		}
	}
	if *help {
		printHelp(stdout)
		return 0
	}

	switch command {
	case "help":
		printHelp(stdout)
		return 0
	case "compile":
		return runCompile(*configPath, stdout, stderr)
	case "format":
		fmt.Fprintf(stderr, "%s: formatting is served by the out-of-scope pretty-printer; no formatter is wired into this build\n", yellow("samlang format"))
		return 2
	case "lsp":
		fmt.Fprintf(stderr, "%s: the language server is an out-of-scope collaborator; no LSP backend is wired into this build\n", yellow("samlang lsp"))
		return 2
	default:
		fmt.Fprintf(stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp(stderr)
		return 2
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, bold("samlang - a statically typed OOP language compiled to WASM"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  samlang <command> [--config sconfig.json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintf(w, "  %s    Compile the project's entry points to a single WASM text module (default)\n", cyan("compile"))
	fmt.Fprintf(w, "  %s     Format source files (out of scope; exits 2)\n", cyan("format"))
	fmt.Fprintf(w, "  %s        Start the language server (out of scope; exits 2)\n", cyan("lsp"))
	fmt.Fprintf(w, "  %s       Show this help message\n", cyan("help"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --config <path>  Path to sconfig.json (default \"sconfig.json\")")
	fmt.Fprintln(w, "  --help, -h       Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PROFILE=1             Print elapsed compile time")
	fmt.Fprintln(w, "  BENCHMARK_REPEAT=<n>  Run the compile pipeline n times, reporting the last timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 success, 1 compile errors, 2 configuration error.")
}

// benchmarkRun is one BENCHMARK_REPEAT iteration's timing, marshaled as one
// entry of the YAML manifest written alongside the compiled output.
type benchmarkRun struct {
	Index      int     `yaml:"index"`
	DurationMS float64 `yaml:"duration_ms"`
}

// benchmarkManifest is the BENCHMARK_REPEAT result manifest `compile` writes
// as YAML next to the compiled WASM text, the way the teacher's
// internal/eval_harness writes YAML-shaped run-result artifacts rather than
// ad hoc text.
type benchmarkManifest struct {
	Repeat      int            `yaml:"repeat"`
	ModuleCount int            `yaml:"module_count"`
	Runs        []benchmarkRun `yaml:"runs"`
}

func runCompile(configPath string, stdout, stderr io.Writer) int {
	repeat := 1
	benchmarking := os.Getenv("BENCHMARK_REPEAT") != ""
	if v := os.Getenv("BENCHMARK_REPEAT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fmt.Fprintf(stderr, "%s: BENCHMARK_REPEAT must be a positive integer, got %q\n", red("Error"), v)
			return 2
		}
		repeat = n
	}
	profile := os.Getenv("PROFILE") != ""

	cfg, rep := sconfig.Load(configPath)
	if rep != nil {
		fmt.Fprintf(stderr, "%s: %s\n", red("Error"), rep.Error())
		return 2
	}

	baseDir := filepath.Dir(configPath)
	sources, err := sconfig.DiscoverSources(baseDir, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", red("Error"), err)
		return 2
	}
	if _, rep := sconfig.ResolveEntryPoints(cfg, sources); rep != nil {
		fmt.Fprintf(stderr, "%s: %s\n", red("Error"), rep.Error())
		return 2
	}

	if ParseSource == nil {
		fmt.Fprintf(stderr, "%s: no parser backend is configured; the lexer and parser are out-of-scope external collaborators (spec §1) this build does not wire in\n", yellow("samlang compile"))
		return 2
	}

	var wasmMod *wasmtext.Module
	var elapsed time.Duration
	var runs []benchmarkRun
	for i := 0; i < repeat; i++ {
		h := heap.New()
		errs := errors.NewSet()
		var mods []*ast.Module
		for _, sf := range sources {
			content, err := os.ReadFile(sf.AbsPath)
			if err != nil {
				fmt.Fprintf(stderr, "%s: cannot read %s: %v\n", red("Error"), sf.AbsPath, err)
				return 2
			}
			modRef := sconfig.ModuleReferenceFor(h, sf.ModuleName)
			mod, parseErr := ParseSource(h, modRef, sf.AbsPath, string(content))
			if parseErr != nil {
				errs.Add(parseErr)
				continue
			}
			mods = append(mods, mod)
		}
		if errs.HasErrors() {
			printReports(stderr, errs.Reports())
			return 1
		}

		start := time.Now()
		compiled, compileErrs := driver.CompileModules(h, mods)
		elapsed = time.Since(start)
		if compileErrs.HasErrors() {
			printReports(stderr, compileErrs.Reports())
			return 1
		}
		wasmMod = compiled
		runs = append(runs, benchmarkRun{Index: i, DurationMS: float64(elapsed.Microseconds()) / 1000.0})
	}

	if profile {
		fmt.Fprintf(stdout, "%s compiled %d module(s) in %s (repeat=%d)\n", cyan("→"), len(sources), elapsed, repeat)
	}

	text := wasmtext.Render(wasmMod)
	outPath := filepath.Join(baseDir, cfg.OutputDirectory, "__all__.wat")
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		fmt.Fprintf(stderr, "%s: cannot create output directory: %v\n", red("Error"), err)
		return 2
	}
	if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
		fmt.Fprintf(stderr, "%s: cannot write %s: %v\n", red("Error"), outPath, err)
		return 2
	}
	fmt.Fprintf(stdout, "%s wrote %s\n", green("✓"), outPath)

	if benchmarking {
		manifest := benchmarkManifest{Repeat: repeat, ModuleCount: len(sources), Runs: runs}
		data, err := yaml.Marshal(manifest)
		if err != nil {
			fmt.Fprintf(stderr, "%s: cannot encode benchmark manifest: %v\n", red("Error"), err)
			return 2
		}
		manifestPath := filepath.Join(baseDir, cfg.OutputDirectory, "benchmark.yaml")
		if err := os.WriteFile(manifestPath, data, 0644); err != nil {
			fmt.Fprintf(stderr, "%s: cannot write %s: %v\n", red("Error"), manifestPath, err)
			return 2
		}
		fmt.Fprintf(stdout, "%s wrote %s\n", green("✓"), manifestPath)
	}
	return 0
}

func printReports(w io.Writer, reports []*errors.Report) {
	for _, r := range reports {
		fmt.Fprintf(w, "%s [%s/%s] %s\n", red("error"), r.Phase, r.Code, r.Message)
	}
}
