package nettrace

import (
	"sort"
	"strings"
	"time"
)

type PhaseKind string

const (
	PhaseDNS      PhaseKind = "dns"
	PhaseConnect  PhaseKind = "connect"
	PhaseTLS      PhaseKind = "tls"
	PhaseReqHdrs  PhaseKind = "request_headers"
	PhaseReqBody  PhaseKind = "request_body"
	PhaseTTFB     PhaseKind = "ttfb"
	PhaseTransfer PhaseKind = "transfer"
	PhaseTotal    PhaseKind = "total"
)

var phaseOrder = map[PhaseKind]int{
	PhaseDNS:      0,
	PhaseConnect:  1,
	PhaseTLS:      2,
	PhaseReqHdrs:  3,
	PhaseReqBody:  4,
	PhaseTTFB:     5,
	PhaseTransfer: 6,
	PhaseTotal:    7,
}

// Order ranks phases in the sequence they occur on the wire.
func (k PhaseKind) Order() int {
	if o, ok := phaseOrder[k]; ok {
		return o
	}
	return len(phaseOrder)
}

func (k PhaseKind) Label() string {
	switch k {
	case PhaseDNS:
		return "DNS lookup"
	case PhaseConnect:
		return "TCP connect"
	case PhaseTLS:
		return "TLS handshake"
	case PhaseReqHdrs:
		return "Request headers"
	case PhaseReqBody:
		return "Request body"
	case PhaseTTFB:
		return "Waiting (TTFB)"
	case PhaseTransfer:
		return "Download"
	case PhaseTotal:
		return "Total"
	default:
		return strings.ToUpper(string(k))
	}
}

type PhaseMeta struct {
	Addr   string `json:"addr,omitempty"`
	Reused bool   `json:"reused,omitempty"`
	Cached bool   `json:"cached,omitempty"`
}

type Phase struct {
	Kind     PhaseKind     `json:"kind"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
	Meta     PhaseMeta     `json:"meta"`
}

// Timeline is also the persisted form of a capture's timing, so its JSON
// keys are part of the history file format.
type Timeline struct {
	Started   time.Time     `json:"started"`
	Completed time.Time     `json:"completed"`
	Duration  time.Duration `json:"duration"`
	Err       string        `json:"error,omitempty"`
	Phases    []Phase       `json:"phases,omitempty"`
	Details   *TraceDetails `json:"details,omitempty"`
}

func (tl *Timeline) Clone() *Timeline {
	if tl == nil {
		return nil
	}
	return &Timeline{
		Started:   tl.Started,
		Completed: tl.Completed,
		Duration:  tl.Duration,
		Err:       tl.Err,
		Phases:    append([]Phase(nil), tl.Phases...),
		Details:   tl.Details.Clone(),
	}
}

// Combined folds repeated phases of the same kind (redirect hops produce
// several) into one entry each, ordered by wire sequence.
func (tl *Timeline) Combined() []Phase {
	if tl == nil || len(tl.Phases) == 0 {
		return nil
	}
	byKind := make(map[PhaseKind]*Phase)
	var kinds []PhaseKind
	for _, ph := range tl.Phases {
		if ph.Kind == "" {
			continue
		}
		agg, ok := byKind[ph.Kind]
		if !ok {
			agg = &Phase{Kind: ph.Kind, Start: ph.Start}
			byKind[ph.Kind] = agg
			kinds = append(kinds, ph.Kind)
		}
		agg.Duration += ph.Duration
		if ph.End.After(agg.End) {
			agg.End = ph.End
		}
		if ph.Meta.Addr != "" || ph.Meta.Reused || ph.Meta.Cached {
			agg.Meta = ph.Meta
		}
		if ph.Err != "" {
			agg.Err = ph.Err
		}
	}
	sort.SliceStable(kinds, func(i, j int) bool {
		return kinds[i].Order() < kinds[j].Order()
	})
	out := make([]Phase, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, *byKind[k])
	}
	return out
}

func normalizePhases(phases []Phase) []Phase {
	if len(phases) <= 1 {
		return phases
	}
	sort.SliceStable(phases, func(i, j int) bool {
		if phases[i].Start.Equal(phases[j].Start) {
			return phases[i].End.Before(phases[j].End)
		}
		return phases[i].Start.Before(phases[j].Start)
	})
	return phases
}

type Budget struct {
	Total     time.Duration               `json:"total,omitempty"`
	Tolerance time.Duration               `json:"tolerance,omitempty"`
	Phases    map[PhaseKind]time.Duration `json:"phases,omitempty"`
}

func (b Budget) Clone() Budget {
	clone := Budget{Total: b.Total, Tolerance: b.Tolerance}
	if len(b.Phases) > 0 {
		clone.Phases = make(map[PhaseKind]time.Duration, len(b.Phases))
		for kind, dur := range b.Phases {
			clone.Phases[kind] = dur
		}
	}
	return clone
}

func (b Budget) Empty() bool {
	if b.Total > 0 {
		return false
	}
	for _, limit := range b.Phases {
		if limit > 0 {
			return false
		}
	}
	return true
}

type BudgetBreach struct {
	Kind   PhaseKind
	Limit  time.Duration
	Actual time.Duration
	Over   time.Duration
}

type BudgetReport struct {
	Breaches []BudgetBreach
}

func (r BudgetReport) WithinLimit() bool {
	return len(r.Breaches) == 0
}

func EvaluateBudget(tl *Timeline, b Budget) BudgetReport {
	if tl == nil {
		return BudgetReport{}
	}

	var breaches []BudgetBreach
	check := func(kind PhaseKind, limit, actual time.Duration) {
		if limit <= 0 {
			return
		}
		if allowed := limit + b.Tolerance; actual > allowed {
			breaches = append(breaches, BudgetBreach{
				Kind:   kind,
				Limit:  limit,
				Actual: actual,
				Over:   actual - allowed,
			})
		}
	}

	check(PhaseTotal, b.Total, tl.Duration)
	durations := make(map[PhaseKind]time.Duration, len(tl.Phases))
	for _, ph := range tl.Phases {
		if ph.Duration > 0 {
			durations[ph.Kind] += ph.Duration
		}
	}
	kinds := make([]PhaseKind, 0, len(b.Phases))
	for kind := range b.Phases {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Order() < kinds[j].Order() })
	for _, kind := range kinds {
		check(kind, b.Phases[kind], durations[kind])
	}
	return BudgetReport{Breaches: breaches}
}
