package nettrace

import (
	"errors"
	"testing"
	"time"
)

func TestCollectorRecordsPhasesInWireOrder(t *testing.T) {
	c := NewCollector()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	c.Begin(PhaseConnect, base.Add(10*time.Millisecond))
	c.Begin(PhaseDNS, base)
	c.UpdateMeta(PhaseDNS, func(m *PhaseMeta) { m.Addr = "example.com" })
	c.End(PhaseDNS, base.Add(8*time.Millisecond), nil)
	c.End(PhaseConnect, base.Add(30*time.Millisecond), nil)
	c.Complete(base.Add(40 * time.Millisecond))

	tl := c.Timeline()
	if tl == nil {
		t.Fatalf("expected timeline")
	}
	if len(tl.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(tl.Phases))
	}
	if tl.Phases[0].Kind != PhaseDNS || tl.Phases[0].Meta.Addr != "example.com" {
		t.Fatalf("unexpected first phase %+v", tl.Phases[0])
	}
	if tl.Duration != 40*time.Millisecond {
		t.Fatalf("unexpected duration %s", tl.Duration)
	}
}

func TestCollectorCompleteMarksOpenPhasesIncomplete(t *testing.T) {
	c := NewCollector()
	base := time.Now()
	c.Begin(PhaseTTFB, base)
	c.Fail(errors.New("boom"))
	c.Fail(errors.New("second"))
	c.Complete(base.Add(time.Second))

	c.Begin(PhaseTransfer, base.Add(2*time.Second))

	tl := c.Timeline()
	if len(tl.Phases) != 1 || tl.Phases[0].Err != "incomplete" {
		t.Fatalf("expected single incomplete phase, got %+v", tl.Phases)
	}
	if tl.Err != "boom" {
		t.Fatalf("expected first error to win, got %q", tl.Err)
	}
}

func TestCombinedFoldsRepeatedKinds(t *testing.T) {
	base := time.Now()
	tl := &Timeline{Phases: []Phase{
		{Kind: PhaseTTFB, Start: base, Duration: 5 * time.Millisecond},
		{Kind: PhaseDNS, Start: base, Duration: 2 * time.Millisecond},
		{Kind: PhaseDNS, Start: base.Add(time.Millisecond), Duration: 3 * time.Millisecond},
	}}
	got := tl.Combined()
	if len(got) != 2 {
		t.Fatalf("expected 2 combined phases, got %d", len(got))
	}
	if got[0].Kind != PhaseDNS || got[0].Duration != 5*time.Millisecond {
		t.Fatalf("unexpected dns aggregate %+v", got[0])
	}
}

func TestNewReportEvaluatesBudget(t *testing.T) {
	tl := &Timeline{
		Duration: 300 * time.Millisecond,
		Phases: []Phase{
			{Kind: PhaseTTFB, Duration: 250 * time.Millisecond},
		},
	}
	rep := NewReport(tl, Budget{
		Total:     200 * time.Millisecond,
		Tolerance: 10 * time.Millisecond,
		Phases:    map[PhaseKind]time.Duration{PhaseTTFB: 100 * time.Millisecond},
	})
	if rep.BudgetReport.WithinLimit() {
		t.Fatalf("expected breaches")
	}
	if len(rep.BudgetReport.Breaches) != 2 {
		t.Fatalf("expected 2 breaches, got %d", len(rep.BudgetReport.Breaches))
	}
	if rep.BudgetReport.Breaches[0].Kind != PhaseTotal {
		t.Fatalf("expected total breach first, got %s", rep.BudgetReport.Breaches[0].Kind)
	}
	if over := rep.BudgetReport.Breaches[1].Over; over != 140*time.Millisecond {
		t.Fatalf("unexpected ttfb overrun %s", over)
	}

	if NewReport(tl, Budget{}).BudgetReport.Breaches != nil {
		t.Fatalf("expected empty budget to skip evaluation")
	}
}
