package ui

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/netscope/internal/history"
	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/theme"
	"github.com/unkn0wn-root/netscope/internal/transaction"
	"github.com/unkn0wn-root/netscope/internal/watcher"
)

func sampleTransaction(id string) *transaction.Transaction {
	original := &transaction.Request{
		Method:  http.MethodGet,
		URL:     "http://example.com/items?page=1",
		Headers: http.Header{"Accept": {"application/json"}},
	}
	current := original.Clone()
	current.URL = "https://www.example.com/items?page=1"
	return &transaction.Transaction{
		ID:        id,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  120 * time.Millisecond,
		Redirects: 1,
		Original:  original,
		Current:   current,
		Response: &transaction.Response{
			Status:     "200 OK",
			StatusCode: 200,
			Headers:    http.Header{"Content-Type": {"application/json"}},
			Body:       []byte(`{"items":[1,2]}`),
		},
		Transfer: &transaction.Transfer{RequestHeaderBytes: 40, ResponseHeaderBytes: 60, ResponseBodyBytes: 15},
	}
}

func newTestModel(t *testing.T, entries ...*transaction.Transaction) Model {
	t.Helper()
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history.json"), 20)
	for _, tx := range entries {
		if err := store.Append(history.NewEntry(tx, history.SourceCapture)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	m := New(Config{Theme: theme.DefaultTheme(), Store: store, Device: inspector.DeviceLarge})
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = update(t, m, msg)
	}
	return m
}

// drain applies every pending view-model change the way the program loop
// would.
func drain(t *testing.T, m Model) Model {
	t.Helper()
	for {
		select {
		case change := <-m.changes:
			m = update(t, m, viewModelChangedMsg{change: change})
		default:
			return m
		}
	}
}

func selectDestination(t *testing.T, m Model, dest inspector.Destination) Model {
	t.Helper()
	for i, n := range m.tree.Links() {
		if n.Destination == dest {
			m.moveSelection(i - m.selected)
			return m
		}
	}
	t.Fatalf("no link to %s", dest)
	return m
}

func TestOpenEntryShowsInspector(t *testing.T) {
	m := newTestModel(t, sampleTransaction("a"))
	if m.screen != screenList {
		t.Fatalf("expected list screen first")
	}
	m = press(t, m, "enter")
	if m.screen != screenInspector || m.vm == nil {
		t.Fatalf("expected inspector after enter")
	}
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "200 OK") {
		t.Fatalf("expected status in inspector view:\n%s", view)
	}
	if !strings.Contains(view, "GET www.example.com") {
		t.Fatalf("expected transaction in app header:\n%s", view)
	}
}

func TestActivateOpensDetailAndBackDismisses(t *testing.T) {
	m := press(t, newTestModel(t, sampleTransaction("a")), "enter")
	m = selectDestination(t, m, inspector.DestinationResponseBody)
	m = drain(t, press(t, m, "enter"))
	if !m.inDetail() || m.detailDest != inspector.DestinationResponseBody {
		t.Fatalf("expected response body detail, got %s", m.detailDest)
	}
	if m.detailText != `{"items":[1,2]}` {
		t.Fatalf("unexpected copy text %q", m.detailText)
	}
	if view := ansi.Strip(m.View()); !strings.Contains(view, `"items"`) {
		t.Fatalf("expected body in view:\n%s", view)
	}

	m = drain(t, press(t, m, "esc"))
	if m.inDetail() || m.screen != screenInspector {
		t.Fatalf("expected back on the inspector tree")
	}
	m = press(t, m, "esc")
	if m.screen != screenList || m.vm != nil {
		t.Fatalf("expected back on the list")
	}
}

func TestChordOpensRequestDiff(t *testing.T) {
	m := press(t, newTestModel(t, sampleTransaction("a")), "enter")
	m = press(t, m, "g")
	if m.pendingChord != "g" {
		t.Fatalf("expected pending chord, got %q", m.pendingChord)
	}
	m = drain(t, press(t, m, "d"))
	if m.pendingChord != "" || m.detailDest != inspector.DestinationRequestDiff {
		t.Fatalf("expected diff destination, got %s", m.detailDest)
	}
	if !strings.Contains(m.detailText, "+++ current") || !strings.Contains(m.detailText, "+Host: www.example.com") {
		t.Fatalf("unexpected diff text:\n%s", m.detailText)
	}
}

func TestActivateMissingDestinationReportsStatus(t *testing.T) {
	m := press(t, newTestModel(t, sampleTransaction("a")), "enter")
	m = drain(t, press(t, m, "g", "t"))
	if m.inDetail() {
		t.Fatalf("timing must not open without a timeline")
	}
	if m.status.text != "Nothing to show" {
		t.Fatalf("unexpected status %q", m.status.text)
	}
}

func TestToggleRequestSwapsOnLargeOnly(t *testing.T) {
	m := press(t, newTestModel(t, sampleTransaction("a")), "enter")
	m = press(t, m, "t")
	if !m.viewState.ShowingCurrentRequest {
		t.Fatalf("expected current request after toggle")
	}
	if !strings.Contains(ansi.Strip(strings.Join(m.view.lines, "\n")), "https://www.example.com/items") {
		t.Fatalf("expected current url in tree")
	}

	m = press(t, m, "v")
	if m.tree.Class == inspector.DeviceLarge {
		t.Fatalf("expected device to cycle away from large")
	}
	before := m.viewState
	m = press(t, m, "t")
	if m.viewState != before {
		t.Fatalf("toggle must be ignored off the large layout")
	}
}

func TestCopyWritesDetailText(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	m := press(t, newTestModel(t, sampleTransaction("a")), "enter")
	m = selectDestination(t, m, inspector.DestinationResponseBody)
	m = drain(t, press(t, m, "enter"))
	m = press(t, m, "y")
	if copied != `{"items":[1,2]}` {
		t.Fatalf("unexpected clipboard %q", copied)
	}

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	m = press(t, m, "y")
	if m.status.level != statusError {
		t.Fatalf("expected copy failure status, got %+v", m.status)
	}
}

func TestCopyCurlUsesRequestAsBuilt(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	want := "curl -H 'Accept: application/json' 'http://example.com/items?page=1'"
	m := press(t, newTestModel(t, sampleTransaction("a")), "c")
	if copied != want {
		t.Fatalf("list copy = %q, want %q", copied, want)
	}
	copied = ""
	press(t, press(t, m, "enter"), "c")
	if copied != want {
		t.Fatalf("inspector copy = %q, want %q", copied, want)
	}
}

func TestFilterHistoryByHost(t *testing.T) {
	other := sampleTransaction("b")
	other.CreatedAt = other.CreatedAt.Add(time.Minute)
	other.Original.URL = "https://api.other.test/v1"
	other.Current.URL = "https://api.other.test/v1"
	m := newTestModel(t, sampleTransaction("a"), other)
	if len(m.list.Items()) != 2 {
		t.Fatalf("expected both entries listed")
	}

	m = press(t, m, "f")
	if m.hostFilter != "api.other.test" || len(m.list.Items()) != 1 {
		t.Fatalf("expected list filtered to api.other.test, got %q with %d items", m.hostFilter, len(m.list.Items()))
	}
	if e, ok := m.selectedEntry(); !ok || e.ID != "b" {
		t.Fatalf("unexpected selection %+v", e)
	}

	m = press(t, m, "f")
	if m.hostFilter != "" || len(m.list.Items()) != 2 {
		t.Fatalf("expected filter cleared, got %q with %d items", m.hostFilter, len(m.list.Items()))
	}
}

func TestDeleteEntryFromList(t *testing.T) {
	m := newTestModel(t, sampleTransaction("a"), sampleTransaction("b"))
	if len(m.list.Items()) != 2 {
		t.Fatalf("expected two entries")
	}
	m = press(t, m, "x")
	if len(m.list.Items()) != 1 || len(m.store.Entries()) != 1 {
		t.Fatalf("expected one entry after delete")
	}
}

func TestCaptureDoneStoresEntry(t *testing.T) {
	m := newTestModel(t)
	m.capture = &captureState{id: 3, cancel: func() {}}
	m.openInspector(transaction.New(&transaction.Request{Method: http.MethodGet, URL: "https://example.com"}))

	m = update(t, m, captureDoneMsg{id: 2, tx: sampleTransaction("stale")})
	if len(m.store.Entries()) != 0 || !m.capturing() {
		t.Fatalf("stale capture must be ignored")
	}

	m = drain(t, update(t, m, captureDoneMsg{id: 3, tx: sampleTransaction("fresh")}))
	if m.capturing() {
		t.Fatalf("expected capture to finish")
	}
	entries := m.store.Entries()
	if len(entries) != 1 || entries[0].ID != "fresh" || entries[0].Source != history.SourceCapture {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if m.status.level != statusSuccess || !strings.Contains(m.status.text, "200 OK") {
		t.Fatalf("unexpected status %+v", m.status)
	}
	if m.tree.Header.Transfer == nil {
		t.Fatalf("expected transfer header after completion")
	}
}

func TestCaptureRejectedSettlesInspector(t *testing.T) {
	m := newTestModel(t)
	cmd := m.startCapture(&transaction.Request{Method: http.MethodGet, URL: "example.com/items"})
	if cmd == nil || m.tree.Header.Progress == nil {
		t.Fatalf("expected pending capture with progress header")
	}
	id := m.capture.id
	tx, err := m.cfg.Client.Execute(context.Background(), m.vm.Transaction().Original, m.cfg.Options, nil)
	if err == nil {
		t.Fatalf("expected scheme error")
	}

	m = drain(t, update(t, m, captureDoneMsg{id: id, tx: tx, err: err}))
	if m.capturing() {
		t.Fatalf("expected capture to finish")
	}
	if m.tree.Header.Progress != nil {
		t.Fatalf("finished capture must not show progress, got %+v", m.tree.Header.Progress)
	}
	if got := m.vm.Transaction(); got.Error == nil || got.State() != transaction.StateFailure {
		t.Fatalf("expected failed transaction, got %+v", got)
	}
	if m.status.level != statusError {
		t.Fatalf("unexpected status %+v", m.status)
	}
}

func TestCaptureDoneWithoutTransactionClearsProgress(t *testing.T) {
	m := newTestModel(t)
	m.capture = &captureState{id: 4, cancel: func() {}}
	pending := transaction.New(&transaction.Request{Method: http.MethodGet, URL: "https://example.com"})
	pending.Progress = &transaction.Progress{}
	m.openInspector(pending)

	m = drain(t, update(t, m, captureDoneMsg{id: 4, err: errors.New("boom")}))
	if m.tree.Header.Progress != nil {
		t.Fatalf("progress header should be cleared")
	}
	if got := m.vm.Transaction(); got.Error == nil || got.Error.Message != "boom" {
		t.Fatalf("expected error recorded on transaction, got %+v", got.Error)
	}
	if len(m.store.Entries()) != 0 {
		t.Fatalf("nothing should be stored without a transaction")
	}
}

func TestCaptureProgressUpdatesHeader(t *testing.T) {
	m := newTestModel(t)
	progress := make(chan *transaction.Transaction, 1)
	m.capture = &captureState{id: 1, cancel: func() {}, progress: progress}
	pending := transaction.New(&transaction.Request{Method: http.MethodGet, URL: "https://example.com/big"})
	pending.Progress = &transaction.Progress{}
	m.openInspector(pending)

	snap := pending.Clone()
	snap.Progress = &transaction.Progress{Completed: 512, Total: 1024}
	m = drain(t, update(t, m, captureProgressMsg{id: 1, tx: snap}))
	if p := m.tree.Header.Progress; p == nil || p.Completed != 512 {
		t.Fatalf("expected progress header, got %+v", m.tree.Header)
	}
	if view := ansi.Strip(m.View()); !strings.Contains(view, "512 B / 1.0 KiB") {
		t.Fatalf("expected progress in view:\n%s", view)
	}
}

func TestOfferLatestKeepsNewest(t *testing.T) {
	ch := make(chan *transaction.Transaction, 1)
	first := &transaction.Transaction{ID: "1"}
	second := &transaction.Transaction{ID: "2"}
	offerLatest(ch, first)
	offerLatest(ch, second)
	if got := <-ch; got.ID != "2" {
		t.Fatalf("expected newest snapshot, got %s", got.ID)
	}
}

const fixtureYAML = `transactions:
  - id: fx-1
    request:
      method: POST
      url: https://api.example.com/users
      body: '{"name":"a"}'
    response:
      status_code: 201
      headers:
        Content-Type: application/json
      body: '{"id":1}'
`

func TestFixturesLoadAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := watcher.New(watcher.Options{})
	t.Cleanup(w.Stop)

	m := newTestModel(t)
	m.cfg.Watcher = w
	msg := loadFixturesCmd(path)()
	m = update(t, m, msg)
	entries := m.store.Entries()
	if len(entries) != 1 || entries[0].Source != history.SourceFixture {
		t.Fatalf("unexpected entries %+v", entries)
	}
	m = press(t, m, "enter")
	if m.screen != screenInspector {
		t.Fatalf("expected fixture to open in the inspector")
	}

	changed := strings.Replace(fixtureYAML, "status_code: 201", "status_code: 409", 1)
	if err := os.WriteFile(path, []byte(changed), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	w.Scan()
	m = update(t, m, waitForFixtureEvent(w)())
	entries = m.store.Entries()
	if len(entries) != 1 || entries[0].StatusCode != 409 {
		t.Fatalf("expected reloaded fixture to replace the entry, got %+v", entries)
	}
	m = drain(t, m)
	if got := m.vm.Transaction(); got.Response == nil || got.Response.StatusCode != 409 {
		t.Fatalf("open inspector should show the reloaded fixture, got %+v", got.Response)
	}
}

func TestFixturesLoadReportsErrors(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, loadFixturesCmd(filepath.Join(t.TempDir(), "missing.yaml"))())
	if m.status.level != statusError {
		t.Fatalf("expected error status, got %+v", m.status)
	}
}

func TestHelpOverlayListsBindings(t *testing.T) {
	m := press(t, newTestModel(t), "?")
	if !m.showHelp {
		t.Fatalf("expected help overlay")
	}
	view := ansi.Strip(m.View())
	for _, want := range []string{"Keys", "g d", "Request changes", "Quit"} {
		if !strings.Contains(view, want) {
			t.Fatalf("help missing %q:\n%s", want, view)
		}
	}
	m = press(t, m, "esc")
	if m.showHelp {
		t.Fatalf("expected esc to close help")
	}
}

func TestCycleThemeUsesCatalog(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "T")
	if m.status.text == "" || !strings.HasPrefix(m.status.text, "Theme ") {
		t.Fatalf("expected theme status, got %q", m.status.text)
	}
}
