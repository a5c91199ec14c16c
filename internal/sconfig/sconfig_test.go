package sconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProject(t *testing.T, base string) {
	t.Helper()
	srcDir := filepath.Join(base, "src")
	if err := os.MkdirAll(filepath.Join(srcDir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "Main.sam"), []byte("class Main {}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "sub", "Helper.sam"), []byte("class Helper {}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "sub", "skip.sam"), []byte("class Skip {}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "README.md"), []byte("not source"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := `{
		"source_directory": "src",
		"output_directory": "out",
		"entry_points": ["Main"],
		"ignores": ["skip"]
	}`
	if err := os.WriteFile(filepath.Join(base, "sconfig.json"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAndDiscover(t *testing.T) {
	base := t.TempDir()
	writeProject(t, base)

	cfg, rep := Load(filepath.Join(base, "sconfig.json"))
	if rep != nil {
		t.Fatalf("unexpected config error: %v", rep)
	}

	files, err := DiscoverSources(base, cfg)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 source files (README.md and the ignored skip.sam excluded), got %d: %+v", len(files), files)
	}
	if files[0].ModuleName != "Main" || files[1].ModuleName != "sub.Helper" {
		t.Fatalf("unexpected module names: %+v", files)
	}

	entries, rep := ResolveEntryPoints(cfg, files)
	if rep != nil {
		t.Fatalf("unexpected entry point error: %v", rep)
	}
	if len(entries) != 1 || entries[0].ModuleName != "Main" {
		t.Fatalf("unexpected entry points: %+v", entries)
	}
}

func TestResolveEntryPointMissing(t *testing.T) {
	base := t.TempDir()
	writeProject(t, base)
	cfg, _ := Load(filepath.Join(base, "sconfig.json"))
	cfg.EntryPoints = []string{"DoesNotExist"}

	files, _ := DiscoverSources(base, cfg)
	_, rep := ResolveEntryPoints(cfg, files)
	if rep == nil {
		t.Fatalf("expected a missing-entry-point error")
	}
	if rep.Code != "CFG002" {
		t.Fatalf("expected CFG002, got %s", rep.Code)
	}
}

func TestLoadMissingFields(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "sconfig.json")
	if err := os.WriteFile(path, []byte(`{"source_directory": "src"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, rep := Load(path); rep == nil {
		t.Fatalf("expected a config error for missing output_directory/entry_points")
	}
}
