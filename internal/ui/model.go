package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/netscope/internal/bindings"
	"github.com/unkn0wn-root/netscope/internal/capture"
	"github.com/unkn0wn-root/netscope/internal/config"
	"github.com/unkn0wn-root/netscope/internal/history"
	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/theme"
	"github.com/unkn0wn-root/netscope/internal/transaction"
	"github.com/unkn0wn-root/netscope/internal/watcher"
)

const changeBuffer = 64

type screenID int

const (
	screenList screenID = iota
	screenInspector
)

// Config carries everything the UI needs. Store is required; Bindings and
// Client default to the built-in map and a fresh client.
type Config struct {
	Theme     theme.Theme
	ThemeKey  string
	ThemeName string
	Catalog   theme.Catalog
	Bindings  *bindings.Map

	// Device is the configured class; DeviceAuto follows the terminal size.
	Device    inspector.DeviceClass
	Inspector config.InspectorSettings

	Client  *capture.Client
	Options capture.Options
	Store   history.Store

	// Request is captured as soon as the program starts.
	Request *transaction.Request

	// Fixtures is a YAML file imported into history at start and whenever
	// Watcher reports a change.
	Fixtures string
	Watcher  *watcher.Watcher
}

type captureState struct {
	id       int
	cancel   context.CancelFunc
	progress chan *transaction.Transaction
}

type Model struct {
	cfg       Config
	theme     theme.Theme
	themeKey  string
	themeName string
	keys      *bindings.Map
	store     history.Store
	device    inspector.DeviceClass

	width  int
	height int
	ready  bool
	screen screenID

	list list.Model

	vm          *inspector.ViewModel
	unsubscribe func()
	changes     chan inspector.Change
	viewState   inspector.ViewState
	tree        inspector.Tree
	view        treeView
	selected    int
	offset      int

	detail      viewport.Model
	detailDest  inspector.Destination
	detailTitle string
	detailText  string

	spinner    spinner.Model
	bar        progress.Model
	capture    *captureState
	captureSeq int

	// hostFilter limits the history list to one host when set.
	hostFilter string

	pendingChord string
	showHelp     bool
	status       statusMsg
}

func New(cfg Config) Model {
	if cfg.Bindings == nil {
		cfg.Bindings = bindings.DefaultMap()
	}
	if cfg.Client == nil {
		cfg.Client = capture.NewClient()
	}
	if cfg.Device == "" {
		cfg.Device = inspector.DeviceAuto
	}
	themeName := cfg.ThemeName
	if themeName == "" {
		themeName = "Default"
	}

	m := Model{
		cfg:       cfg,
		theme:     cfg.Theme,
		themeKey:  cfg.ThemeKey,
		themeName: themeName,
		keys:      cfg.Bindings,
		store:     cfg.Store,
		device:    cfg.Device,
		list:      newHistoryList(cfg.Theme),
		changes:   make(chan inspector.Change, changeBuffer),
		detail:    viewport.New(0, 0),
		spinner:   newSpinner(cfg.Theme),
		bar:       newProgressBar(cfg.Theme),
	}
	m.refreshHistory()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChange(m.changes)}
	if m.cfg.Fixtures != "" {
		cmds = append(cmds, loadFixturesCmd(m.cfg.Fixtures))
	}
	if m.cfg.Watcher != nil {
		m.cfg.Watcher.Start()
		cmds = append(cmds, waitForFixtureEvent(m.cfg.Watcher))
	}
	if req := m.cfg.Request; req != nil {
		cmds = append(cmds, func() tea.Msg { return startCaptureMsg{req: req} })
	}
	return tea.Batch(cmds...)
}

// Close stops background work. It is safe to call after the program exits.
func (m *Model) Close() {
	m.cancelCapture()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if m.cfg.Watcher != nil {
		m.cfg.Watcher.Stop()
	}
}

func (m Model) resolvedDevice() inspector.DeviceClass {
	return m.device.Resolve(m.width, m.height)
}

// layout is the class default with settings overrides applied.
func (m Model) layout(class inspector.DeviceClass) inspector.Layout {
	l := inspector.DefaultLayout(class)
	if v := m.cfg.Inspector.TitleGap; v != nil {
		l.TitleGap = *v
	}
	if v := m.cfg.Inspector.SectionGap; v != nil {
		l.SectionGap = *v
	}
	return l
}

func (m *Model) refreshHistory() {
	idx := m.list.Index()
	entries := m.store.Entries()
	if m.hostFilter != "" {
		entries = m.store.ByHost(m.hostFilter)
	}
	m.list.SetItems(historyItems(entries))
	if n := len(m.list.Items()); n > 0 {
		m.list.Select(clamp(idx, 0, n-1))
	}
}

func (m *Model) setStatus(level statusLevel, text string) {
	m.status = statusMsg{text: text, level: level}
}

func waitForChange(ch <-chan inspector.Change) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return viewModelChangedMsg{change: change}
	}
}
