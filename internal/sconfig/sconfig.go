// Package sconfig loads a samlang project's `sconfig.json` and walks its
// source directory for `.sam` files (spec §6 "Project configuration"),
// grounded on the teacher's internal/manifest (a JSON-schema-versioned
// config struct with strict field validation) and internal/loader (the
// module cache-and-resolve directory walk).
package sconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
)

// SchemaVersion identifies the sconfig.json shape this loader accepts,
// mirroring the teacher's manifest SchemaVersion convention.
const SchemaVersion = 1

// Config is the decoded shape of a project's sconfig.json.
type Config struct {
	SourceDirectory string   `json:"source_directory"`
	OutputDirectory string   `json:"output_directory"`
	EntryPoints     []string `json:"entry_points"`
	Ignores         []string `json:"ignores"`
}

// Load reads and validates the sconfig.json at path.
func Load(path string) (*Config, *errors.Report) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("config", errors.CFG001, fmt.Sprintf("cannot read %s: %v", path, err), heap.DummyLocation)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.New("config", errors.CFG001, fmt.Sprintf("malformed sconfig.json: %v", err), heap.DummyLocation)
	}
	if cfg.SourceDirectory == "" {
		return nil, errors.New("config", errors.CFG001, "sconfig.json missing source_directory", heap.DummyLocation)
	}
	if cfg.OutputDirectory == "" {
		return nil, errors.New("config", errors.CFG001, "sconfig.json missing output_directory", heap.DummyLocation)
	}
	if len(cfg.EntryPoints) == 0 {
		return nil, errors.New("config", errors.CFG001, "sconfig.json must declare at least one entry point", heap.DummyLocation)
	}
	return &cfg, nil
}

// SourceExtension is the only file suffix the directory walk treats as a
// samlang source file (spec §6, "Filenames with extension .sam").
const SourceExtension = ".sam"

// SourceFile is one discovered `.sam` file, with its dotted module name
// derived from its path relative to the configured source_directory.
type SourceFile struct {
	AbsPath    string
	ModuleName string // dot-separated, e.g. "Foo.Bar" for Foo/Bar.sam
}

// DiscoverSources walks cfg.SourceDirectory (relative to baseDir) collecting
// every `.sam` file whose path does not contain any of cfg.Ignores as a
// substring, in deterministic (sorted) order.
func DiscoverSources(baseDir string, cfg *Config) ([]SourceFile, error) {
	root := filepath.Join(baseDir, cfg.SourceDirectory)
	var files []SourceFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) != SourceExtension {
			return nil
		}
		for _, ignore := range cfg.Ignores {
			if ignore != "" && strings.Contains(path, ignore) {
				return nil
			}
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(rel, SourceExtension)
		moduleName := strings.ReplaceAll(rel, string(filepath.Separator), ".")
		files = append(files, SourceFile{AbsPath: path, ModuleName: moduleName})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModuleName < files[j].ModuleName })
	return files, nil
}

// ModuleReferenceFor interns dotted module name as a heap.ModuleReference,
// splitting on "." to produce its segment list (spec §3.1).
func ModuleReferenceFor(h *heap.Heap, moduleName string) heap.ModuleReference {
	return h.AllocModule(strings.Split(moduleName, "."))
}

// ResolveEntryPoints looks up cfg.EntryPoints among the discovered sources,
// reporting CFG002 for any entry point with no matching source file.
func ResolveEntryPoints(cfg *Config, sources []SourceFile) ([]SourceFile, *errors.Report) {
	byName := make(map[string]SourceFile, len(sources))
	for _, s := range sources {
		byName[s.ModuleName] = s
	}
	var out []SourceFile
	for _, ep := range cfg.EntryPoints {
		sf, ok := byName[ep]
		if !ok {
			return nil, errors.New("config", errors.CFG002, fmt.Sprintf("entry point %q not found under source_directory", ep), heap.DummyLocation)
		}
		out = append(out, sf)
	}
	return out, nil
}
