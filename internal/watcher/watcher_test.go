package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func receive(t *testing.T, w *Watcher) (Event, bool) {
	t.Helper()
	select {
	case evt := <-w.Events():
		return evt, true
	default:
		return Event{}, false
	}
}

func TestScanReportsContentChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := New(Options{})
	defer w.Stop()
	w.Track(path, []byte("a: 1\n"))

	w.Scan()
	if evt, ok := receive(t, w); ok {
		t.Fatalf("unexpected event for unchanged file: %+v", evt)
	}

	if err := os.WriteFile(path, []byte("a: 22\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	w.Scan()
	evt, ok := receive(t, w)
	if !ok {
		t.Fatalf("expected change event")
	}
	if evt.Kind != EventChanged || string(evt.Data) != "a: 22\n" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.Prev.Hash == evt.Curr.Hash {
		t.Fatalf("expected fingerprints to differ")
	}
}

func TestScanIgnoresTouchWithSameContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte("same"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := New(Options{})
	defer w.Stop()
	w.Track(path, []byte("same"))

	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	w.Scan()
	if evt, ok := receive(t, w); ok {
		t.Fatalf("touch without content change must not emit, got %+v", evt)
	}
}

func TestScanReportsMissingOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := New(Options{})
	defer w.Stop()
	w.Track(path, []byte("x"))
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	w.Scan()
	evt, ok := receive(t, w)
	if !ok || evt.Kind != EventMissing {
		t.Fatalf("expected missing event, got %+v ok=%v", evt, ok)
	}
	w.Scan()
	if _, ok := receive(t, w); ok {
		t.Fatalf("missing must be reported once")
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("restore: %v", err)
	}
	w.Scan()
	if evt, ok := receive(t, w); !ok || evt.Kind != EventChanged {
		t.Fatalf("expected reappearing file to report a change, got %+v", evt)
	}
}

func TestStopClosesEvents(t *testing.T) {
	w := New(Options{Interval: time.Millisecond})
	w.Start()
	w.Stop()
	w.Stop()
	if _, ok := <-w.Events(); ok {
		t.Fatalf("expected closed events channel")
	}
	w.Track("/tmp/ignored", nil)
	w.Scan()
}
