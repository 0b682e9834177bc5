package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNormaliseCaptureSettings(t *testing.T) {
	got := NormaliseCaptureSettings(CaptureSettings{Timeout: "soon", MaxRedirects: 500})
	if got.Timeout != CaptureTimeoutDefault {
		t.Fatalf("expected invalid timeout to fall back, got %q", got.Timeout)
	}
	if got.MaxRedirects != CaptureMaxRedirectsMax {
		t.Fatalf("expected redirects clamped, got %d", got.MaxRedirects)
	}
	if got.TimeoutDuration() != 30*time.Second {
		t.Fatalf("unexpected timeout %s", got.TimeoutDuration())
	}
	if got.MaxBodyBytes != CaptureMaxBodyDefault {
		t.Fatalf("expected body cap default, got %d", got.MaxBodyBytes)
	}
}

func TestCaptureBudget(t *testing.T) {
	c := CaptureSettings{
		BudgetTotal:     "250ms",
		BudgetTolerance: "10ms",
		BudgetPhases:    map[string]string{"DNS": "20ms", "tls": "0s"},
	}
	total, tol, phases, err := c.Budget()
	if err != nil {
		t.Fatalf("Budget: %v", err)
	}
	if total != 250*time.Millisecond || tol != 10*time.Millisecond {
		t.Fatalf("unexpected budget %s/%s", total, tol)
	}
	if len(phases) != 1 || phases["dns"] != 20*time.Millisecond {
		t.Fatalf("unexpected phases %+v", phases)
	}

	c.BudgetTotal = "-1s"
	c.BudgetPhases = map[string]string{"connect": "fast"}
	if _, _, _, err := c.Budget(); err == nil {
		t.Fatalf("expected error for malformed budget")
	}
}

func TestParseHistoryBackend(t *testing.T) {
	cases := map[string]HistoryBackend{
		"json":    HistoryBackendJSON,
		" SQLite": HistoryBackendSQLite,
		"db":      HistoryBackendSQLite,
	}
	for in, want := range cases {
		got, err := ParseHistoryBackend(in)
		if err != nil || got != want {
			t.Fatalf("ParseHistoryBackend(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseHistoryBackend("redis"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestDirHonoursEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NETSCOPE_CONFIG_DIR", dir)
	if Dir() != dir {
		t.Fatalf("expected %q, got %q", dir, Dir())
	}
	if HistoryDBPath() != filepath.Join(dir, "history.db") {
		t.Fatalf("unexpected db path %q", HistoryDBPath())
	}
}
