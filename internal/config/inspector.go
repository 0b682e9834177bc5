package config

import (
	"fmt"
	"strings"
	"time"
)

type InspectorSettings struct {
	// Device is auto, large, wearable or living-room.
	Device     string `json:"device"                toml:"device"`
	TitleGap   *int   `json:"title_gap,omitempty"   toml:"title_gap,omitempty"`
	SectionGap *int   `json:"section_gap,omitempty" toml:"section_gap,omitempty"`
}

const (
	InspectorDeviceDefault = "auto"
	InspectorGapMax        = 4
)

type CaptureSettings struct {
	Timeout         string            `json:"timeout"                    toml:"timeout"`
	FollowRedirects bool              `json:"follow_redirects"           toml:"follow_redirects"`
	MaxRedirects    int               `json:"max_redirects"              toml:"max_redirects"`
	MaxBodyBytes    int64             `json:"max_body_bytes"             toml:"max_body_bytes"`
	BudgetTotal     string            `json:"budget_total,omitempty"     toml:"budget_total,omitempty"`
	BudgetTolerance string            `json:"budget_tolerance,omitempty" toml:"budget_tolerance,omitempty"`
	BudgetPhases    map[string]string `json:"budget_phases,omitempty"    toml:"budget_phases,omitempty"`
}

const (
	CaptureTimeoutDefault      = "30s"
	CaptureMaxRedirectsDefault = 10
	CaptureMaxRedirectsMax     = 50
	CaptureMaxBodyDefault      = 8 << 20
)

type HistoryBackend string

const (
	HistoryBackendJSON   HistoryBackend = "json"
	HistoryBackendSQLite HistoryBackend = "sqlite"
)

type HistorySettings struct {
	Backend    HistoryBackend `json:"backend"     toml:"backend"`
	MaxEntries int            `json:"max_entries" toml:"max_entries"`
}

const (
	HistoryMaxEntriesDefault = 200
	HistoryMaxEntriesMax     = 10000
)

func DefaultInspectorSettings() InspectorSettings {
	return InspectorSettings{Device: InspectorDeviceDefault}
}

func DefaultCaptureSettings() CaptureSettings {
	return CaptureSettings{
		Timeout:         CaptureTimeoutDefault,
		FollowRedirects: true,
		MaxRedirects:    CaptureMaxRedirectsDefault,
		MaxBodyBytes:    CaptureMaxBodyDefault,
	}
}

func DefaultHistorySettings() HistorySettings {
	return HistorySettings{Backend: HistoryBackendJSON, MaxEntries: HistoryMaxEntriesDefault}
}

func NormaliseInspectorSettings(in InspectorSettings) InspectorSettings {
	out := DefaultInspectorSettings()
	if dev := strings.ToLower(strings.TrimSpace(in.Device)); dev != "" {
		out.Device = dev
	}
	out.TitleGap = clampGap(in.TitleGap)
	out.SectionGap = clampGap(in.SectionGap)
	return out
}

func clampGap(v *int) *int {
	if v == nil {
		return nil
	}
	g := clampInt(*v, 0, InspectorGapMax, 0)
	return &g
}

func NormaliseCaptureSettings(in CaptureSettings) CaptureSettings {
	out := in
	if _, err := parseDuration(out.Timeout); err != nil || strings.TrimSpace(out.Timeout) == "" {
		out.Timeout = CaptureTimeoutDefault
	}
	out.MaxRedirects = clampInt(in.MaxRedirects, 1, CaptureMaxRedirectsMax, CaptureMaxRedirectsDefault)
	if out.MaxBodyBytes == 0 {
		out.MaxBodyBytes = CaptureMaxBodyDefault
	}
	return out
}

func NormaliseHistorySettings(in HistorySettings) HistorySettings {
	out := DefaultHistorySettings()
	switch HistoryBackend(strings.ToLower(strings.TrimSpace(string(in.Backend)))) {
	case HistoryBackendSQLite:
		out.Backend = HistoryBackendSQLite
	case HistoryBackendJSON:
		out.Backend = HistoryBackendJSON
	}
	out.MaxEntries = clampInt(in.MaxEntries, 1, HistoryMaxEntriesMax, HistoryMaxEntriesDefault)
	return out
}

func ParseHistoryBackend(s string) (HistoryBackend, error) {
	switch HistoryBackend(strings.ToLower(strings.TrimSpace(s))) {
	case HistoryBackendJSON:
		return HistoryBackendJSON, nil
	case HistoryBackendSQLite, "sqlite3", "db":
		return HistoryBackendSQLite, nil
	default:
		return "", fmt.Errorf("unknown history backend %q", s)
	}
}

// TimeoutDuration returns the parsed request timeout.
func (c CaptureSettings) TimeoutDuration() time.Duration {
	d, err := parseDuration(c.Timeout)
	if err != nil {
		d, _ = parseDuration(CaptureTimeoutDefault)
	}
	return d
}

// Budget parses the trace budget. Phase names are returned as given and an
// error lists every malformed value.
func (c CaptureSettings) Budget() (total, tolerance time.Duration, phases map[string]time.Duration, err error) {
	var errs []string
	if total, err = parseDuration(c.BudgetTotal); err != nil {
		errs = append(errs, fmt.Sprintf("budget_total: %v", err))
	}
	if tolerance, err = parseDuration(c.BudgetTolerance); err != nil {
		errs = append(errs, fmt.Sprintf("budget_tolerance: %v", err))
	}
	for name, raw := range c.BudgetPhases {
		d, perr := parseDuration(raw)
		if perr != nil {
			errs = append(errs, fmt.Sprintf("budget_phases.%s: %v", name, perr))
			continue
		}
		if d <= 0 {
			continue
		}
		if phases == nil {
			phases = make(map[string]time.Duration)
		}
		phases[strings.ToLower(strings.TrimSpace(name))] = d
	}
	if len(errs) > 0 {
		return 0, 0, nil, fmt.Errorf("invalid trace budget: %s", strings.Join(errs, "; "))
	}
	return total, tolerance, phases, nil
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return d, nil
}

func clampInt[T ~int | ~int64](value, min, max, fallback T) T {
	if value == 0 {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
