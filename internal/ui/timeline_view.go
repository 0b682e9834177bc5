package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/nettrace"
	"github.com/unkn0wn-root/netscope/internal/theme"
)

const (
	barRowWidth    = 34
	barGlyphFilled = "█"
	barGlyphEmpty  = "░"
	phaseColWidth  = 16
)

type timelineStatus int

const (
	timelineStatusNone timelineStatus = iota
	timelineStatusOK
	timelineStatusWarn
)

type timelineStyles struct {
	title      lipgloss.Style
	phase      lipgloss.Style
	barOK      lipgloss.Style
	barWarn    lipgloss.Style
	meta       lipgloss.Style
	emph       lipgloss.Style
	statusOK   lipgloss.Style
	statusWarn lipgloss.Style
}

func newTimelineStyles(th *theme.Theme) timelineStyles {
	styles := timelineStyles{
		title:      lipgloss.NewStyle().Bold(true),
		phase:      lipgloss.NewStyle().Bold(true),
		barOK:      lipgloss.NewStyle(),
		barWarn:    lipgloss.NewStyle().Bold(true),
		meta:       lipgloss.NewStyle().Faint(true),
		emph:       lipgloss.NewStyle().Bold(true),
		statusOK:   lipgloss.NewStyle().Bold(true),
		statusWarn: lipgloss.NewStyle().Bold(true),
	}
	if th == nil {
		return styles
	}

	styles.title = th.DetailTitle.Foreground(th.Roles.Timing)
	styles.phase = th.TimingLabel
	styles.emph = th.ItemValue.Bold(true)
	styles.meta = th.ItemMore
	styles.barOK = th.TimingBar
	styles.barWarn = th.TimingBarOver
	styles.statusOK = th.Success.Bold(true)
	styles.statusWarn = th.Error.Bold(true)
	return styles
}

// timelineReport is the precomputed content of the timing screen.
type timelineReport struct {
	title         string
	summary       []string
	rows          []timelineRow
	breaches      []nettrace.BudgetBreach
	budget        nettrace.Budget
	totalDuration time.Duration
	hasBudget     bool
	details       *nettrace.TraceDetails
	detailsNow    time.Time
	styles        timelineStyles
}

type timelineRow struct {
	Phase    nettrace.PhaseKind
	Name     string
	Duration time.Duration
	Percent  float64
	Budget   time.Duration
	Overrun  time.Duration
	Meta     nettrace.PhaseMeta
	Error    string
	Status   timelineStatus
}

func buildTimelineReport(timing *inspector.Timing, styles timelineStyles) timelineReport {
	report := timelineReport{styles: styles}
	var tl *nettrace.Timeline
	var rep *nettrace.Report
	if timing != nil {
		tl, rep = timing.Timeline, timing.Report
	}
	if tl == nil && rep != nil {
		tl = rep.Timeline
	}
	if tl == nil {
		report.title = "Timing"
		report.summary = []string{styles.meta.Render("Trace data unavailable.")}
		return report
	}

	report.title = fmt.Sprintf("Timing – %s", tl.Duration.Round(time.Microsecond))
	report.summary = buildTimelineSummary(tl, styles)
	report.totalDuration = tl.Duration
	report.details = tl.Details.Clone()
	report.detailsNow = timelineDetailsClock(tl)
	rows := buildTimelineRows(tl)

	if rep != nil && !rep.Budget.Empty() {
		report.hasBudget = true
		report.budget = rep.Budget
		report.breaches = rep.BudgetReport.Breaches
		if len(report.breaches) == 0 {
			report.breaches = nettrace.EvaluateBudget(tl, rep.Budget).Breaches
		}
		if rep.Budget.Total > 0 {
			total := timelineRow{
				Phase:    nettrace.PhaseTotal,
				Name:     nettrace.PhaseTotal.Label(),
				Duration: tl.Duration,
				Percent:  100,
			}
			rows = append([]timelineRow{total}, rows...)
		}
		applyBudgetToRows(rows, report.budget, report.breaches)
	}
	report.rows = rows
	return report
}

func buildTimelineSummary(tl *nettrace.Timeline, styles timelineStyles) []string {
	lines := []string{
		styles.meta.Render(fmt.Sprintf("Started:   %s", formatTime(tl.Started))),
	}
	if !tl.Completed.IsZero() {
		lines = append(
			lines,
			styles.meta.Render(fmt.Sprintf("Completed: %s", formatTime(tl.Completed))),
		)
	}
	if trimmed := strings.TrimSpace(tl.Err); trimmed != "" {
		lines = append(lines, styles.statusWarn.Render("Error: "+trimmed))
	}
	return lines
}

func buildTimelineRows(tl *nettrace.Timeline) []timelineRow {
	combined := tl.Combined()
	if len(combined) == 0 {
		return nil
	}
	total := tl.Duration
	if total <= 0 {
		for _, phase := range combined {
			total = maxDuration(total, phase.Duration)
		}
	}

	rows := make([]timelineRow, 0, len(combined))
	for _, phase := range combined {
		percent := 0.0
		if total > 0 {
			percent = float64(phase.Duration) / float64(total) * 100
		}
		rows = append(rows, timelineRow{
			Phase:    phase.Kind,
			Name:     phase.Kind.Label(),
			Duration: phase.Duration,
			Percent:  percent,
			Meta:     phase.Meta,
			Error:    phase.Err,
		})
	}
	return rows
}

func applyBudgetToRows(rows []timelineRow, budget nettrace.Budget, breaches []nettrace.BudgetBreach) {
	breachMap := make(map[nettrace.PhaseKind]nettrace.BudgetBreach, len(breaches))
	for _, br := range breaches {
		breachMap[br.Kind] = br
	}
	for idx := range rows {
		row := &rows[idx]
		if row.Phase == nettrace.PhaseTotal {
			row.Budget = budget.Total
		} else if limit, ok := budget.Phases[row.Phase]; ok {
			row.Budget = limit
		}
		if br, ok := breachMap[row.Phase]; ok {
			row.Overrun = br.Over
		}
		switch {
		case row.Overrun > 0:
			row.Status = timelineStatusWarn
		case row.Budget > 0:
			row.Status = timelineStatusOK
		default:
			row.Status = timelineStatusNone
		}
	}
}

func renderTimeline(report timelineReport, width int) string {
	if width <= 0 {
		width = defaultContentWidth
	}

	var b strings.Builder
	b.WriteString(report.styles.title.Render(report.title))
	b.WriteString("\n")
	for _, line := range report.summary {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")

	if len(report.rows) == 0 {
		b.WriteString(report.styles.meta.Render("No phases were recorded."))
		b.WriteString("\n")
		return b.String()
	}

	total := report.totalDuration
	if total <= 0 {
		for _, row := range report.rows {
			total = maxDuration(total, row.Duration)
		}
	}
	barWidth := clamp(barRowWidth, 10, maxInt(10, width-32))
	for _, row := range report.rows {
		b.WriteString(renderTimelineRow(row, total, barWidth, report.styles))
	}

	if len(report.breaches) > 0 {
		b.WriteString("\n")
		b.WriteString(report.styles.statusWarn.Render("Budget breaches:"))
		b.WriteString("\n")
		for _, br := range report.breaches {
			msg := fmt.Sprintf(
				"  %s: over by %s (limit %s)",
				br.Kind.Label(),
				br.Over.Round(time.Millisecond),
				br.Limit.Round(time.Millisecond),
			)
			b.WriteString(report.styles.meta.Render(msg))
			b.WriteString("\n")
		}
	}
	if !report.hasBudget {
		b.WriteString("\n")
		b.WriteString(report.styles.meta.Render("Set capture.budget_total in settings to enable gating."))
		b.WriteString("\n")
	}

	if details := renderTraceDetails(report.details, report.styles, report.detailsNow); len(details) > 0 {
		b.WriteString("\n")
		for _, line := range details {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderTimelineRow(row timelineRow, total time.Duration, barWidth int, styles timelineStyles) string {
	bar := renderTimelineBar(row.Duration, total, barWidth, row.Overrun > 0, styles)
	parts := []string{
		renderTimelineStatus(row.Status, styles),
		styles.phase.Render(padRight(row.Name, phaseColWidth)),
		bar,
		styles.emph.Render(row.Duration.Round(time.Millisecond).String()),
		styles.meta.Render(fmt.Sprintf("%5.1f%%", row.Percent)),
	}
	if note := renderBudgetNote(row, styles); note != "" {
		parts = append(parts, note)
	}

	var b strings.Builder
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("\n")
	if trimmed := strings.TrimSpace(row.Error); trimmed != "" {
		b.WriteString("  " + styles.statusWarn.Render("error: "+trimmed) + "\n")
	}
	if meta := renderPhaseMeta(row.Meta); meta != "" {
		b.WriteString("  " + styles.meta.Render(meta) + "\n")
	}
	return b.String()
}

func renderTimelineBar(duration, total time.Duration, width int, warn bool, styles timelineStyles) string {
	if width <= 0 {
		return ""
	}
	var ratio float64
	if total > 0 {
		ratio = float64(duration) / float64(total)
	}
	filled := clamp(int(math.Round(ratio*float64(width))), 0, width)
	glyphs := strings.Repeat(barGlyphFilled, filled)
	if warn {
		glyphs = styles.barWarn.Render(glyphs)
	} else {
		glyphs = styles.barOK.Render(glyphs)
	}
	return glyphs + strings.Repeat(barGlyphEmpty, width-filled)
}

func renderTimelineStatus(status timelineStatus, styles timelineStyles) string {
	switch status {
	case timelineStatusWarn:
		return styles.statusWarn.Render("!")
	case timelineStatusOK:
		return styles.statusOK.Render("✔")
	default:
		return " "
	}
}

func renderBudgetNote(row timelineRow, styles timelineStyles) string {
	var parts []string
	if row.Budget > 0 {
		parts = append(parts, styles.meta.Render(fmt.Sprintf("budget %s", row.Budget.Round(time.Millisecond))))
	}
	if row.Overrun > 0 {
		parts = append(parts, styles.statusWarn.Render(fmt.Sprintf("(over +%s)", row.Overrun.Round(time.Millisecond))))
	}
	return strings.Join(parts, " ")
}

func renderPhaseMeta(meta nettrace.PhaseMeta) string {
	var parts []string
	if addr := strings.TrimSpace(meta.Addr); addr != "" {
		parts = append(parts, "addr="+addr)
	}
	if meta.Reused {
		parts = append(parts, "reused")
	}
	if meta.Cached {
		parts = append(parts, "cached")
	}
	return strings.Join(parts, " ")
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func timelineDetailsClock(tl *nettrace.Timeline) time.Time {
	switch {
	case !tl.Completed.IsZero():
		return tl.Completed
	case !tl.Started.IsZero():
		return tl.Started
	default:
		return time.Now()
	}
}
