package nettrace

import (
	"sync"
	"time"
)

type openPhase struct {
	start time.Time
	meta  PhaseMeta
}

// Collector accumulates phases reported by httptrace hooks. Hooks may fire
// from transport goroutines so every method is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	started  time.Time
	finished time.Time
	err      string
	phases   []Phase
	open     map[PhaseKind]*openPhase
	done     bool
}

func NewCollector() *Collector {
	return &Collector{open: make(map[PhaseKind]*openPhase)}
}

func (c *Collector) Begin(kind PhaseKind, ts time.Time) {
	if !trackable(kind) {
		return
	}
	ts = orNow(ts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	if c.started.IsZero() || ts.Before(c.started) {
		c.started = ts
	}
	c.open[kind] = &openPhase{start: ts}
}

// End closes the phase opened by Begin. A phase that was never opened is
// recorded with zero duration.
func (c *Collector) End(kind PhaseKind, ts time.Time, err error) {
	if !trackable(kind) {
		return
	}
	ts = orNow(ts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	st, ok := c.open[kind]
	if !ok {
		st = &openPhase{start: ts}
	}
	c.closeLocked(kind, st, ts, errText(err))
}

// Mark records an instantaneous phase, e.g. a reused connection.
func (c *Collector) Mark(kind PhaseKind, ts time.Time, meta PhaseMeta) {
	if !trackable(kind) {
		return
	}
	ts = orNow(ts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	if c.started.IsZero() || ts.Before(c.started) {
		c.started = ts
	}
	c.closeLocked(kind, &openPhase{start: ts, meta: meta}, ts, "")
}

func (c *Collector) closeLocked(kind PhaseKind, st *openPhase, ts time.Time, err string) {
	if ts.Before(st.start) {
		ts = st.start
	}
	c.phases = append(c.phases, Phase{
		Kind:     kind,
		Start:    st.start,
		End:      ts,
		Duration: ts.Sub(st.start),
		Meta:     st.meta,
		Err:      err,
	})
	delete(c.open, kind)
	if ts.After(c.finished) {
		c.finished = ts
	}
}

func (c *Collector) Active(kind PhaseKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.open[kind]
	return ok
}

func (c *Collector) UpdateMeta(kind PhaseKind, fn func(*PhaseMeta)) {
	if !trackable(kind) || fn == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if st := c.open[kind]; st != nil {
		fn(&st.meta)
	}
}

// Fail keeps the first error reported for the exchange.
func (c *Collector) Fail(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.err == "" {
		c.err = err.Error()
	}
	c.mu.Unlock()
}

// Complete closes every open phase as incomplete and freezes the collector.
func (c *Collector) Complete(ts time.Time) {
	ts = orNow(ts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	for kind, st := range c.open {
		c.closeLocked(kind, st, ts, "incomplete")
	}
	if ts.After(c.finished) {
		c.finished = ts
	}
	c.done = true
}

func (c *Collector) Timeline() *Timeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.phases) == 0 && len(c.open) == 0 && c.started.IsZero() {
		return nil
	}

	ph := normalizePhases(append([]Phase(nil), c.phases...))
	tl := &Timeline{
		Started:   c.started,
		Completed: c.finished,
		Err:       c.err,
		Phases:    ph,
	}
	if tl.Started.IsZero() && len(ph) > 0 {
		tl.Started = ph[0].Start
	}
	if tl.Completed.IsZero() && len(ph) > 0 {
		tl.Completed = ph[len(ph)-1].End
	}
	if !tl.Started.IsZero() && !tl.Completed.Before(tl.Started) {
		tl.Duration = tl.Completed.Sub(tl.Started)
	}
	return tl
}

func trackable(kind PhaseKind) bool {
	return kind != "" && kind != PhaseTotal
}

func orNow(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now()
	}
	return ts
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
