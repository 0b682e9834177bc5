package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/netscope/internal/bindings"
	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/ui/scroll"
)

const (
	minContentWidth = 20
	chromeLines     = 2 // app header and status bar
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	width := maxInt(m.width, 1)
	height := m.bodyHeight()

	var body string
	switch {
	case m.showHelp:
		body = m.renderHelp()
	case m.inDetail():
		body = m.renderDetail()
	case m.screen == screenInspector:
		body = m.renderInspector()
	default:
		body = m.renderList()
	}
	body = lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, m.renderAppHeader(), body, m.renderStatusBar())
}

func (m Model) bodyHeight() int {
	return maxInt(1, m.height-chromeLines)
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return defaultContentWidth
	}
	return maxInt(minContentWidth, m.width)
}

// treeHeaderLines is the transfer or progress line plus the gap below it.
func (m Model) treeHeaderLines() int {
	if m.tree.Header.Empty() {
		return 0
	}
	return 2
}

func (m Model) treeHeight() int {
	return maxInt(1, m.bodyHeight()-m.treeHeaderLines())
}

func (m Model) detailHeight() int {
	if m.detailTitle == "" {
		return m.bodyHeight()
	}
	return maxInt(1, m.bodyHeight()-2)
}

// rebuild renders the inspected snapshot for the current device class and
// keeps the selected link in view.
func (m *Model) rebuild() {
	if m.vm == nil {
		return
	}
	snap := m.vm.Snapshot()
	class := m.resolvedDevice()
	m.tree = inspector.ForClass(class, m.layout(class)).Render(snap, m.viewState)
	if n := len(m.tree.Links()); n == 0 {
		m.selected = 0
	} else {
		m.selected = clamp(m.selected, 0, n-1)
	}
	m.view = renderTree(m.theme, m.tree, m.contentWidth(), m.selected)
	m.alignTree()
	m.syncDetail(snap)
}

func (m *Model) alignTree() {
	total := len(m.view.lines)
	h := m.treeHeight()
	if len(m.view.links) == 0 {
		m.offset = clamp(m.offset, 0, maxInt(0, total-h))
		return
	}
	m.offset = scroll.Align(m.view.links[m.selected], m.offset, h, total)
}

func (m Model) renderInspector() string {
	var lines []string
	if !m.tree.Header.Empty() {
		lines = append(lines, renderTreeHeader(m.theme, m.tree.Header, m.spinner, m.bar), "")
	}
	start := clamp(m.offset, 0, len(m.view.lines))
	end := minInt(len(m.view.lines), start+m.treeHeight())
	lines = append(lines, m.view.lines[start:end]...)
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail() string {
	if m.detailTitle == "" {
		return m.detail.View()
	}
	return m.detailTitle + "\n\n" + m.detail.View()
}

func (m Model) renderList() string {
	if len(m.list.Items()) == 0 {
		hint := "Pass a URL or --fixtures to capture something."
		return m.theme.BodyPlaceholder.Render("No transactions yet. " + hint)
	}
	return m.list.View()
}

// renderStatusBar shows the latest status message on the left and the key
// hints for the current screen on the right.
func (m Model) renderStatusBar() string {
	th := m.theme
	width := m.width - th.StatusBar.GetHorizontalFrameSize()

	var msgStyle lipgloss.Style
	switch m.status.level {
	case statusError:
		msgStyle = th.Error
	case statusSuccess:
		msgStyle = th.Success
	case statusWarn:
		msgStyle = th.Notification
	default:
		msgStyle = th.StatusBarValue
	}
	left := msgStyle.Render(m.status.text)
	if m.pendingChord != "" {
		left = th.StatusBarKey.Render(m.pendingChord+" …") + " " + left
	}

	var hints []string
	for _, action := range m.hintActions() {
		label := m.keys.Label(action)
		if label == "" {
			continue
		}
		hints = append(hints, th.StatusBarKey.Render(label)+" "+th.StatusBar.UnsetPadding().Render(strings.ToLower(bindings.Describe(action))))
	}
	right := strings.Join(hints, "  ")

	gap := width - visibleWidth(left) - visibleWidth(right)
	if gap < 1 {
		right = ""
		gap = width - visibleWidth(left)
		left = truncateToWidth(left, width)
	}
	return th.StatusBar.Render(left + strings.Repeat(" ", maxInt(0, gap)) + right)
}

func (m Model) hintActions() []bindings.ActionID {
	switch {
	case m.showHelp:
		return []bindings.ActionID{bindings.ActionToggleHelp}
	case m.inDetail():
		return []bindings.ActionID{bindings.ActionBack, bindings.ActionCopy, bindings.ActionToggleHelp}
	case m.screen == screenInspector:
		return []bindings.ActionID{bindings.ActionActivate, bindings.ActionBack, bindings.ActionReplay, bindings.ActionToggleHelp}
	default:
		return []bindings.ActionID{bindings.ActionActivate, bindings.ActionReplay, bindings.ActionToggleHelp}
	}
}
