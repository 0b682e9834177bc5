package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/netscope/internal/bindings"
	"github.com/unkn0wn-root/netscope/internal/curl"
	"github.com/unkn0wn-root/netscope/internal/history"
	"github.com/unkn0wn-root/netscope/internal/inspector"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.ready = true
		m.list.SetSize(m.contentWidth(), m.bodyHeight())
		m.rebuild()
	case tea.KeyMsg:
		if cmd := m.handleKey(typed); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case startCaptureMsg:
		cmds = append(cmds, m.startCapture(typed.req))
	case captureProgressMsg:
		cmds = append(cmds, m.handleCaptureProgress(typed))
	case captureDoneMsg:
		cmds = append(cmds, m.handleCaptureDone(typed))
	case viewModelChangedMsg:
		m.rebuild()
		cmds = append(cmds, waitForChange(m.changes))
	case spinner.TickMsg:
		if m.capturing() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(typed)
			cmds = append(cmds, cmd)
		}
	case fixturesLoadedMsg:
		cmds = append(cmds, m.handleFixturesLoaded(typed))
	case fixtureFileMsg:
		cmds = append(cmds, m.handleFixtureFile(typed))
	case statusMsg:
		m.status = typed
	}
	return m, tea.Batch(cmds...)
}

// handleKey resolves a key press into an action. A chord prefix is held
// until the next key; when that key completes no chord it is handled on
// its own.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := bindings.NormalizeKeyString(msg.String())
	if key == "" {
		return nil
	}
	if prefix := m.pendingChord; prefix != "" {
		m.pendingChord = ""
		if b, ok := m.keys.ResolveChord(prefix, key); ok {
			return m.runAction(b.Action)
		}
	} else if m.keys.HasChordPrefix(key) {
		m.pendingChord = key
		return nil
	}
	b, ok := m.keys.MatchSingle(key)
	if !ok {
		return nil
	}
	return m.runAction(b.Action)
}

func (m *Model) runAction(action bindings.ActionID) tea.Cmd {
	switch action {
	case bindings.ActionQuit:
		m.cancelCapture()
		return tea.Quit
	case bindings.ActionToggleHelp:
		m.showHelp = !m.showHelp
		return nil
	}
	if m.showHelp {
		if action == bindings.ActionBack {
			m.showHelp = false
		}
		return nil
	}

	switch action {
	case bindings.ActionCycleDevice:
		m.device = m.resolvedDevice().Next()
		m.rebuild()
		m.setStatus(statusInfo, "Device "+string(m.device))
		return nil
	case bindings.ActionCycleTheme:
		m.cycleTheme()
		return nil
	case bindings.ActionReplay:
		return m.replay()
	case bindings.ActionCopyCurl:
		m.copyText(curl.Command(m.focusedRequest()))
		return nil
	}

	switch {
	case m.inDetail():
		return m.detailAction(action)
	case m.screen == screenInspector:
		return m.inspectorAction(action)
	default:
		return m.listAction(action)
	}
}

func (m *Model) listAction(action bindings.ActionID) tea.Cmd {
	n := len(m.list.Items())
	switch action {
	case bindings.ActionMoveUp:
		m.list.CursorUp()
	case bindings.ActionMoveDown:
		m.list.CursorDown()
	case bindings.ActionPageUp:
		m.list.PrevPage()
	case bindings.ActionPageDown:
		m.list.NextPage()
	case bindings.ActionTop:
		m.list.Select(0)
	case bindings.ActionBottom:
		if n > 0 {
			m.list.Select(n - 1)
		}
	case bindings.ActionActivate:
		if e, ok := m.selectedEntry(); ok {
			m.openInspector(e.Restore())
		}
	case bindings.ActionDeleteEntry:
		m.deleteSelected()
	case bindings.ActionFilterHost:
		m.toggleHostFilter()
	}
	return nil
}

func (m *Model) toggleHostFilter() {
	if m.hostFilter != "" {
		m.hostFilter = ""
		m.list.Select(0)
		m.refreshHistory()
		m.setStatus(statusInfo, "Showing all hosts")
		return
	}
	e, ok := m.selectedEntry()
	if !ok || e.Host == "" {
		m.setStatus(statusInfo, "Nothing to filter")
		return
	}
	m.hostFilter = e.Host
	m.list.Select(0)
	m.refreshHistory()
	m.setStatus(statusInfo, "Only "+e.Host)
}

func (m *Model) inspectorAction(action bindings.ActionID) tea.Cmd {
	links := m.tree.Links()
	switch action {
	case bindings.ActionMoveUp:
		m.moveSelection(-1)
	case bindings.ActionMoveDown:
		m.moveSelection(1)
	case bindings.ActionPageUp:
		m.moveSelection(-maxInt(1, len(links)/2))
	case bindings.ActionPageDown:
		m.moveSelection(maxInt(1, len(links)/2))
	case bindings.ActionTop:
		m.moveSelection(-len(links))
	case bindings.ActionBottom:
		m.moveSelection(len(links))
	case bindings.ActionActivate:
		if m.selected < len(links) {
			m.activate(links[m.selected].Destination)
		}
	case bindings.ActionShowDiff:
		m.activate(inspector.DestinationRequestDiff)
	case bindings.ActionShowTiming:
		m.activate(inspector.DestinationTiming)
	case bindings.ActionToggleRequest:
		if m.tree.Class != inspector.DeviceLarge {
			m.setStatus(statusInfo, "Original and current requests are compared on the large layout")
			return nil
		}
		m.viewState.ShowingCurrentRequest = !m.viewState.ShowingCurrentRequest
		m.rebuild()
	case bindings.ActionCopy:
		m.copyText(ansi.Strip(strings.Join(m.view.lines, "\n")))
	case bindings.ActionBack:
		if m.capturing() {
			m.setStatus(statusWarn, "Capture canceled")
		}
		m.closeInspector()
		m.refreshHistory()
	case bindings.ActionDeleteEntry:
		if m.vm != nil && !m.capturing() {
			id := m.vm.Transaction().ID
			m.closeInspector()
			m.deleteEntry(id)
		}
	}
	return nil
}

func (m *Model) detailAction(action bindings.ActionID) tea.Cmd {
	switch action {
	case bindings.ActionMoveUp:
		m.detail.ScrollUp(1)
	case bindings.ActionMoveDown:
		m.detail.ScrollDown(1)
	case bindings.ActionPageUp:
		m.detail.PageUp()
	case bindings.ActionPageDown:
		m.detail.PageDown()
	case bindings.ActionTop:
		m.detail.GotoTop()
	case bindings.ActionBottom:
		m.detail.GotoBottom()
	case bindings.ActionBack:
		m.vm.Dismiss()
	case bindings.ActionCopy:
		m.copyText(m.detailText)
	case bindings.ActionShowDiff:
		m.activate(inspector.DestinationRequestDiff)
	case bindings.ActionShowTiming:
		m.activate(inspector.DestinationTiming)
	}
	return nil
}

func (m *Model) moveSelection(delta int) {
	n := len(m.view.links)
	if n == 0 {
		return
	}
	m.selected = clamp(m.selected+delta, 0, n-1)
	m.view = renderTree(m.theme, m.tree, m.contentWidth(), m.selected)
	m.alignTree()
}

// activate asks the view-model for dest. The detail screen follows once
// the resulting change arrives.
func (m *Model) activate(dest inspector.Destination) {
	if m.vm == nil {
		return
	}
	if !m.vm.Activate(dest) {
		m.setStatus(statusInfo, "Nothing to show")
	}
}

func (m *Model) copyText(text string) {
	if text == "" {
		m.setStatus(statusInfo, "Nothing to copy")
		return
	}
	if err := writeClipboard(text); err != nil {
		m.setStatus(statusError, fmt.Sprintf("Copy failed: %v", err))
		return
	}
	m.setStatus(statusSuccess, "Copied to clipboard")
}

func (m *Model) cycleTheme() {
	def := m.cfg.Catalog.Next(m.themeKey)
	m.theme = def.Theme
	m.themeKey = def.Key
	m.themeName = def.DisplayName
	applyHistoryListTheme(m.theme, &m.list)
	m.spinner.Style = lipgloss.NewStyle().Foreground(m.theme.Tints.Pending)
	m.bar = newProgressBar(m.theme)
	m.rebuild()
	m.setStatus(statusInfo, "Theme "+def.DisplayName)
}

func (m Model) selectedEntry() (history.Entry, bool) {
	item, ok := m.list.SelectedItem().(historyItem)
	if !ok {
		return history.Entry{}, false
	}
	return item.entry, true
}

func (m *Model) deleteSelected() {
	e, ok := m.selectedEntry()
	if !ok {
		return
	}
	m.deleteEntry(e.ID)
}

func (m *Model) deleteEntry(id string) {
	removed, err := m.store.Delete(id)
	switch {
	case err != nil:
		m.setStatus(statusError, fmt.Sprintf("Delete failed: %v", err))
	case !removed:
		m.setStatus(statusInfo, "Entry is not in history")
	default:
		m.setStatus(statusSuccess, "Deleted from history")
	}
	m.refreshHistory()
}

