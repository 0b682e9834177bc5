package theme

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCatalogIncludesDefaultAndUserThemes(t *testing.T) {
	dir := t.TempDir()

	tomlContent := []byte(`
syntax_style = "github-dark"

[metadata]
name = "Oceanic"
author = "QA"

[styles.section_title]
foreground = "#ddeeff"

[colors]
role_response = "#335577"
`)
	if err := os.WriteFile(filepath.Join(dir, "oceanic.toml"), tomlContent, 0o644); err != nil {
		t.Fatalf("write toml theme: %v", err)
	}

	jsonContent := []byte(`{
  "metadata": {
    "name": "Oceanic",
    "author": "QA"
  },
  "colors": {
    "tint_success": "#ff9900"
  }
}`)
	if err := os.WriteFile(filepath.Join(dir, "sunset.json"), jsonContent, 0o644); err != nil {
		t.Fatalf("write json theme: %v", err)
	}

	catalog, err := LoadCatalog([]string{dir})
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}

	if def, ok := catalog.Resolve("default"); !ok || def.Path != "" {
		t.Fatalf("expected built-in default theme, got %+v", def)
	}

	oceanic, ok := catalog.Resolve("oceanic")
	if !ok {
		t.Fatalf("expected oceanic theme to load")
	}
	if oceanic.Author != "QA" || oceanic.DisplayName != "Oceanic" {
		t.Fatalf("unexpected metadata %q by %q", oceanic.DisplayName, oceanic.Author)
	}
	if oceanic.Theme.Roles.Response != "#335577" || oceanic.Theme.SyntaxStyle != "github-dark" {
		t.Fatalf("expected TOML overrides, got %+v", oceanic.Theme.Roles)
	}

	duplicate, ok := catalog.Resolve("oceanic-1")
	if !ok {
		t.Fatalf("expected duplicate slug to be uniquified")
	}
	if duplicate.Theme.Tints.Success != "#ff9900" {
		t.Fatalf("expected JSON theme colour override, got %q", duplicate.Theme.Tints.Success)
	}

	if next := catalog.Next("default"); next.Key == "default" {
		t.Fatalf("expected Next to advance past default")
	}
	if next := catalog.Next("oceanic-1"); next.Key != "default" {
		t.Fatalf("expected Next to wrap, got %q", next.Key)
	}
}

func TestLoadCatalogReportsBrokenThemes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"colours":{}}`), 0o644); err != nil {
		t.Fatalf("write theme: %v", err)
	}
	catalog, err := LoadCatalog([]string{dir})
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
	if len(catalog.defs) != 1 {
		t.Fatalf("expected default theme only, got %d", len(catalog.defs))
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	catalog, err := LoadCatalog([]string{"/nonexistent/path"})
	if err != nil {
		t.Fatalf("LoadCatalog should not error on missing directories: %v", err)
	}
	def, ok := catalog.Resolve("missing")
	if ok || def.Key != "default" {
		t.Fatalf("expected default fallback, got %q ok=%v", def.Key, ok)
	}
	if def, ok := catalog.Resolve(""); !ok || def.Key != "default" {
		t.Fatalf("expected blank key to select default")
	}
}

func TestThemeNamedAfterFileWithoutMetadata(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "late_night.toml"), []byte("[colors]\ntint_failure = \"#aa0000\"\n"), 0o644); err != nil {
		t.Fatalf("write theme: %v", err)
	}
	catalog, err := LoadCatalog([]string{dir})
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	def, ok := catalog.Resolve("late-night")
	if !ok || def.DisplayName != "Late Night" {
		t.Fatalf("expected theme named after its file, got %+v ok=%v", def.DisplayName, ok)
	}
	if next := catalog.Next("unknown"); next.Key != "default" {
		t.Fatalf("unknown key should restart at the first theme, got %q", next.Key)
	}
}
