package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/netscope/internal/bindings"
	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/theme"
)

// renderScreen draws a drill-down destination. The second result is the
// plain text handed to the clipboard.
func renderScreen(th theme.Theme, screen inspector.Screen, width int) (string, string) {
	switch screen.Kind {
	case inspector.ScreenBody:
		out := renderBody(th, screen.Body, width)
		if screen.Body != nil && utf8.Valid(screen.Body.Data) {
			return out, string(screen.Body.Data)
		}
		return out, ansi.Strip(out)
	case inspector.ScreenTiming:
		out := renderTimeline(buildTimelineReport(screen.Timing, newTimelineStyles(&th)), width)
		return strings.TrimRight(out, "\n"), ansi.Strip(out)
	case inspector.ScreenDiff:
		out := renderRequestDiff(th, screen.Diff, width)
		return out, ansi.Strip(out)
	default:
		return renderSectionScreen(th, screen.Section, width), sectionText(screen.Section)
	}
}

func sectionText(sec *inspector.Section) string {
	if sec == nil {
		return ""
	}
	lines := make([]string, 0, len(sec.Items))
	for _, it := range sec.Items {
		lines = append(lines, it.Label+": "+it.Value)
	}
	return strings.Join(lines, "\n")
}

// detailTitle is the breadcrumb above a drill-down. The timing screen
// carries its own title.
func detailTitle(th theme.Theme, screen inspector.Screen, backLabel string) string {
	if screen.Kind == inspector.ScreenTiming {
		return ""
	}
	title := th.DetailTitle.Render(screen.Title)
	if backLabel == "" {
		return title
	}
	return title + "  " + th.ActionHint.Render(backLabel+" back")
}

// syncDetail mirrors the active destination into the detail viewport. The
// scroll position survives content refreshes of the same destination.
func (m *Model) syncDetail(snap inspector.Snapshot) {
	dest := snap.Destination
	screen, ok := snap.Screen(dest)
	if dest == inspector.DestinationNone || !ok {
		m.detailDest = inspector.DestinationNone
		m.detailText = ""
		m.detailTitle = ""
		m.detail.SetContent("")
		return
	}

	width := m.contentWidth()
	content, text := renderScreen(m.theme, screen, width)
	m.detailTitle = detailTitle(m.theme, screen, m.keys.Label(bindings.ActionBack))
	m.detailText = text
	m.detail.Width = width
	m.detail.Height = m.detailHeight()
	m.detail.SetContent(content)
	if dest != m.detailDest {
		m.detail.GotoTop()
	}
	m.detailDest = dest
}

func (m Model) inDetail() bool {
	return m.screen == screenInspector && m.detailDest != inspector.DestinationNone
}
