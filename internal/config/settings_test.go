package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsReturnsDefaultHandleWhenMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NETSCOPE_CONFIG_DIR", dir)

	settings, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	expectedPath := filepath.Join(dir, "settings.toml")
	if handle.Path != expectedPath {
		t.Fatalf("expected handle path %q, got %q", expectedPath, handle.Path)
	}
	if handle.Format != SettingsFormatTOML {
		t.Fatalf("expected format %q, got %q", SettingsFormatTOML, handle.Format)
	}
	if settings.Inspector.Device != InspectorDeviceDefault {
		t.Fatalf("expected default device %q, got %q", InspectorDeviceDefault, settings.Inspector.Device)
	}
	if !settings.Capture.FollowRedirects || settings.History.Backend != HistoryBackendJSON {
		t.Fatalf("unexpected defaults %+v", settings)
	}
	if settings.DefaultTheme != "" {
		t.Fatalf("expected empty default theme, got %q", settings.DefaultTheme)
	}
}

func TestSaveAndLoadSettingsTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NETSCOPE_CONFIG_DIR", dir)

	want := Settings{DefaultTheme: "oceanic"}
	if err := SaveSettings(want, SettingsHandle{}); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	got, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.DefaultTheme != want.DefaultTheme {
		t.Fatalf("expected theme %q, got %q", want.DefaultTheme, got.DefaultTheme)
	}
	if handle.Format != SettingsFormatTOML {
		t.Fatalf("expected format %q after save, got %q", SettingsFormatTOML, handle.Format)
	}
}

func TestLoadSettingsJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NETSCOPE_CONFIG_DIR", dir)

	payload := Settings{DefaultTheme: "sunset"}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		t.Fatalf("marshal json: %v", err)
	}
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write json settings: %v", err)
	}

	got, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.DefaultTheme != payload.DefaultTheme {
		t.Fatalf("expected theme %q, got %q", payload.DefaultTheme, got.DefaultTheme)
	}
	if handle.Format != SettingsFormatJSON {
		t.Fatalf("expected json format, got %q", handle.Format)
	}
	if handle.Path != path {
		t.Fatalf("expected handle path %q, got %q", path, handle.Path)
	}
}

func TestLoadSettingsKeepsDefaultsForOmittedKeys(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NETSCOPE_CONFIG_DIR", dir)

	data := []byte(`
[inspector]
device = "Wearable"
section_gap = 9

[capture]
follow_redirects = false
budget_total = "300ms"

[history]
backend = "sqlite"
`)
	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), data, 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	got, _, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.Inspector.Device != "wearable" {
		t.Fatalf("expected lowercased device, got %q", got.Inspector.Device)
	}
	if got.Inspector.TitleGap != nil {
		t.Fatalf("expected unset title gap, got %d", *got.Inspector.TitleGap)
	}
	if got.Inspector.SectionGap == nil || *got.Inspector.SectionGap != InspectorGapMax {
		t.Fatalf("expected section gap clamped to %d", InspectorGapMax)
	}
	if got.Capture.FollowRedirects {
		t.Fatalf("expected follow_redirects override")
	}
	if got.Capture.Timeout != CaptureTimeoutDefault || got.Capture.MaxBodyBytes != CaptureMaxBodyDefault {
		t.Fatalf("expected capture defaults, got %+v", got.Capture)
	}
	if got.History.Backend != HistoryBackendSQLite || got.History.MaxEntries != HistoryMaxEntriesDefault {
		t.Fatalf("unexpected history settings %+v", got.History)
	}
}

func TestLoadSettingsJSONRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NETSCOPE_CONFIG_DIR", dir)
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"layout":{"sidebar_width":0.3}}`), 0o644); err != nil {
		t.Fatalf("write json settings: %v", err)
	}
	if _, _, err := LoadSettings(); err == nil {
		t.Fatalf("expected unknown field error")
	}
}
