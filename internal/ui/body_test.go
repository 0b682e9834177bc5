package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/theme"
)

func TestRenderBodyPrettifiesJSON(t *testing.T) {
	body := &inspector.Body{
		ContentType: "application/json; charset=utf-8",
		Data:        []byte(`{"name":"netscope","tags":["a","b"]}`),
		Size:        36,
	}
	out := ansi.Strip(renderBody(theme.DefaultTheme(), body, 80))
	if !strings.Contains(out, "36 B · application/json") {
		t.Fatalf("expected caption, got:\n%s", out)
	}
	if !strings.Contains(out, "\n  \"name\": \"netscope\",") {
		t.Fatalf("expected indented JSON, got:\n%s", out)
	}
}

func TestRenderBodyBinaryShowsHex(t *testing.T) {
	body := &inspector.Body{ContentType: "application/octet-stream", Data: []byte{0xff, 0xfe, 0x00, 0x41}, Size: 4}
	out := ansi.Strip(renderBody(theme.DefaultTheme(), body, 80))
	if !strings.Contains(out, "00000000  ff fe 00 41") {
		t.Fatalf("expected hex preview, got:\n%s", out)
	}
}

func TestRenderBodyPlaceholderAndTruncation(t *testing.T) {
	th := theme.DefaultTheme()
	if out := ansi.Strip(renderBody(th, nil, 80)); strings.TrimSpace(out) != "No body." {
		t.Fatalf("unexpected placeholder %q", out)
	}
	body := &inspector.Body{ContentType: "text/plain", Data: []byte("partial"), Size: 7, Truncated: true}
	out := ansi.Strip(renderBody(th, body, 80))
	if !strings.Contains(out, "truncated after 7 B") {
		t.Fatalf("expected truncation footer, got:\n%s", out)
	}
}

func TestTruncateGraphemesKeepsClusters(t *testing.T) {
	got := truncateGraphemes("e\u0301e\u0301e\u0301e\u0301", 3)
	if got != "e\u0301e\u0301"+ellipsis {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateGraphemes("short", 10); got != "short" {
		t.Fatalf("short lines must be kept, got %q", got)
	}
}

func TestWrapValueHonoursWidth(t *testing.T) {
	got := wrapValue("abcdefghij\nxy", 4)
	want := []string{"abcd", "efgh", "ij", "xy"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrapValue = %v, want %v", got, want)
	}
}
