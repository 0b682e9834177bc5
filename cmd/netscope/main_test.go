package main

import (
	"bytes"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/netscope/internal/config"
	"github.com/unkn0wn-root/netscope/internal/nettrace"
	"github.com/unkn0wn-root/netscope/internal/vars"
)

func noEnv(string) string { return "" }

func TestParseFlagsCollectsRepeatedValues(t *testing.T) {
	opts, err := parseFlags([]string{
		"-X", "put",
		"-H", "Accept: application/json",
		"-H", "X-Trace: {{$uuid}}",
		"-var", "id=7",
		"-device", "wearable",
		"https://api.test/items/{{id}}",
	}, noEnv, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if len(opts.headers) != 2 || opts.assignments[0] != "id=7" {
		t.Fatalf("unexpected repeated flags: %#v %#v", opts.headers, opts.assignments)
	}
	if opts.url != "https://api.test/items/{{id}}" || opts.device != "wearable" {
		t.Fatalf("unexpected options %#v", opts)
	}
	if opts.followSet {
		t.Fatalf("follow was not given explicitly")
	}
}

func TestParseFlagsTelemetryFromEnvAndFlags(t *testing.T) {
	env := map[string]string{
		"NETSCOPE_TRACE_OTEL_ENDPOINT": "collector:4317",
		"NO_COLOR":                     "1",
	}
	opts, err := parseFlags([]string{"-trace-otel-service", " api "}, func(k string) string { return env[k] }, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.telemetry.Endpoint != "collector:4317" || opts.telemetry.ServiceName != "api" {
		t.Fatalf("unexpected telemetry config %#v", opts.telemetry)
	}
	if !opts.noColor {
		t.Fatalf("NO_COLOR should disable colors")
	}
}

func TestParseFlagsRejectsExtraArguments(t *testing.T) {
	if _, err := parseFlags([]string{"a", "b"}, noEnv, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for two URLs")
	}
	var out bytes.Buffer
	_, err := parseFlags([]string{"-h"}, noEnv, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "Usage: netscope") || !strings.Contains(out.String(), "-fixtures") {
		t.Fatalf("usage missing content:\n%s", out.String())
	}
}

func TestBuildRequestExpandsTemplates(t *testing.T) {
	opts := cliOptions{
		url:     "{{base}}/items",
		headers: multiFlag{"Authorization: Bearer {{token}}"},
		data:    "@body.json",
	}
	r := vars.NewResolver(vars.NewMapProvider("var", map[string]string{
		"base":  "https://api.test",
		"token": "t0k",
		"name":  "widget",
	}))
	readFile := func(path string) ([]byte, error) {
		if path != "body.json" {
			return nil, fs.ErrNotExist
		}
		return []byte(`{"name":"{{name}}"}`), nil
	}

	req, err := buildRequest(opts, r, readFile)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Method != http.MethodPost {
		t.Fatalf("body without -X should default to POST, got %s", req.Method)
	}
	if req.URL != "https://api.test/items" {
		t.Fatalf("unexpected URL %q", req.URL)
	}
	if got := req.Headers.Get("Authorization"); got != "Bearer t0k" {
		t.Fatalf("unexpected header %q", got)
	}
	if string(req.Body) != `{"name":"widget"}` {
		t.Fatalf("unexpected body %q", req.Body)
	}
}

func TestBuildRequestDefaults(t *testing.T) {
	req, err := buildRequest(cliOptions{url: "example.com"}, vars.NewResolver(), nil)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Method != http.MethodGet || req.URL != "http://example.com" || req.Body != nil {
		t.Fatalf("unexpected request %#v", req)
	}
	if req, err := buildRequest(cliOptions{}, nil, nil); req != nil || err != nil {
		t.Fatalf("no URL should build nothing, got %v %v", req, err)
	}
}

func TestBuildRequestReportsAllProblems(t *testing.T) {
	opts := cliOptions{
		url:     "https://{{host}}/",
		headers: multiFlag{"broken", "X-Id: {{id}}"},
	}
	_, err := buildRequest(opts, vars.NewResolver(), nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{`header "broken"`, "header X-Id", "host"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestCaptureOptionsMergesSettings(t *testing.T) {
	s := config.DefaultCaptureSettings()
	s.FollowRedirects = false
	s.BudgetTotal = "500ms"
	s.BudgetPhases = map[string]string{"DNS": "20ms"}

	got, err := captureOptions(cliOptions{timeout: 2 * time.Second, follow: true, followSet: true, insecure: true}, s)
	if err != nil {
		t.Fatalf("captureOptions: %v", err)
	}
	if got.Timeout != 2*time.Second || !got.FollowRedirects || !got.InsecureSkipVerify {
		t.Fatalf("flag overrides not applied: %#v", got)
	}
	if got.TraceBudget == nil || got.TraceBudget.Total != 500*time.Millisecond {
		t.Fatalf("unexpected budget %#v", got.TraceBudget)
	}
	if got.TraceBudget.Phases[nettrace.PhaseDNS] != 20*time.Millisecond {
		t.Fatalf("phase budget not converted: %#v", got.TraceBudget.Phases)
	}

	plain, err := captureOptions(cliOptions{follow: true}, config.DefaultCaptureSettings())
	if err != nil {
		t.Fatalf("captureOptions: %v", err)
	}
	if plain.TraceBudget != nil || plain.Timeout != 30*time.Second {
		t.Fatalf("unexpected defaults %#v", plain)
	}
}

func TestParseFlagsImportsCurl(t *testing.T) {
	opts, err := parseFlags([]string{
		"-timeout", "3s",
		"-curl", `curl -k -L -m 10 -H 'X-Id: {{id}}' --data-raw '{"a":1}' {{base}}/items`,
		"-var", "id=9",
		"-var", "base=https://api.test",
	}, noEnv, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if !opts.insecure || !opts.follow || !opts.followSet || opts.timeout != 3*time.Second {
		t.Fatalf("curl transport flags not merged: %#v", opts)
	}

	r, err := newResolver(opts)
	if err != nil {
		t.Fatalf("newResolver: %v", err)
	}
	req, err := buildRequest(opts, r, nil)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Method != http.MethodPost || req.URL != "https://api.test/items" {
		t.Fatalf("unexpected request line %s %s", req.Method, req.URL)
	}
	if req.Headers.Get("X-Id") != "9" || string(req.Body) != `{"a":1}` {
		t.Fatalf("unexpected request %#v", req)
	}

	if _, err := parseFlags([]string{"-curl", "curl https://a.test", "https://b.test"}, noEnv, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error when both -curl and a URL are given")
	}
}
