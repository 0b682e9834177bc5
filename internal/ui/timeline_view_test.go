package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/nettrace"
)

func sampleTiming(budget nettrace.Budget) *inspector.Timing {
	tl := &nettrace.Timeline{
		Started:   time.Unix(0, 0),
		Completed: time.Unix(0, int64(200*time.Millisecond)),
		Duration:  200 * time.Millisecond,
		Phases: []nettrace.Phase{
			{Kind: nettrace.PhaseConnect, Duration: 80 * time.Millisecond},
			{Kind: nettrace.PhaseDNS, Duration: 50 * time.Millisecond},
			{Kind: nettrace.PhaseTransfer, Duration: 70 * time.Millisecond},
		},
	}
	return &inspector.Timing{Timeline: tl, Report: nettrace.NewReport(tl, budget)}
}

func TestBuildTimelineReportBudgets(t *testing.T) {
	timing := sampleTiming(nettrace.Budget{
		Total:     150 * time.Millisecond,
		Tolerance: 5 * time.Millisecond,
		Phases: map[nettrace.PhaseKind]time.Duration{
			nettrace.PhaseDNS:     20 * time.Millisecond,
			nettrace.PhaseConnect: 60 * time.Millisecond,
		},
	})

	report := buildTimelineReport(timing, newTimelineStyles(nil))
	if len(report.rows) != 4 {
		t.Fatalf("expected total plus three phase rows, got %d", len(report.rows))
	}
	if len(report.breaches) == 0 {
		t.Fatalf("expected budget breaches to be detected")
	}

	output := ansi.Strip(renderTimeline(report, 80))
	for _, want := range []string{"DNS lookup", "budget", "Budget breaches", "!"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output, got %q", want, output)
		}
	}
	if strings.Index(output, "DNS lookup") > strings.Index(output, "TCP connect") {
		t.Fatalf("expected phases in wire order, got %q", output)
	}
}

func TestRenderTimelineSuggestsBudgetsWhenMissing(t *testing.T) {
	report := buildTimelineReport(sampleTiming(nettrace.Budget{}), newTimelineStyles(nil))
	output := renderTimeline(report, 60)
	if !strings.Contains(output, "enable gating") {
		t.Fatalf("expected suggestion for missing budgets, got %q", output)
	}
}

func TestRenderTimelinePlacesTotalFirst(t *testing.T) {
	report := buildTimelineReport(sampleTiming(nettrace.Budget{Total: 300 * time.Millisecond}), newTimelineStyles(nil))
	output := renderTimeline(report, 80)
	rowLine := ""
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, barGlyphFilled) || strings.Contains(line, barGlyphEmpty) {
			rowLine = line
			break
		}
	}
	if !strings.Contains(rowLine, "Total") || !strings.Contains(rowLine, "✔") {
		t.Fatalf("expected passing total row first, got %q", rowLine)
	}
}

func TestBuildTimelineReportWithoutTimeline(t *testing.T) {
	report := buildTimelineReport(nil, newTimelineStyles(nil))
	output := renderTimeline(report, 40)
	if !strings.Contains(output, "Trace data unavailable.") {
		t.Fatalf("expected unavailable note, got %q", output)
	}
}

func TestRenderTimelineBarClampsRatio(t *testing.T) {
	bar := renderTimelineBar(2*time.Second, time.Second, 10, false, newTimelineStyles(nil))
	if got := strings.Count(ansi.Strip(bar), barGlyphFilled); got != 10 {
		t.Fatalf("expected bar to clamp at width, got %d filled", got)
	}
}
