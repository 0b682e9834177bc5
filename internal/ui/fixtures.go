package ui

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/netscope/internal/history"
	"github.com/unkn0wn-root/netscope/internal/transaction"
	"github.com/unkn0wn-root/netscope/internal/watcher"
)

func loadFixturesCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return fixturesLoadedMsg{path: path, err: err}
		}
		txs, err := transaction.ParseFixtures(data)
		return fixturesLoadedMsg{path: path, txs: txs, data: data, err: err}
	}
}

func waitForFixtureEvent(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-w.Events()
		if !ok {
			return nil
		}
		return fixtureFileMsg{event: evt}
	}
}

func (m *Model) handleFixturesLoaded(msg fixturesLoadedMsg) tea.Cmd {
	if w := m.cfg.Watcher; w != nil && msg.data != nil {
		w.Track(msg.path, msg.data)
	}
	m.importFixtures(msg.path, msg.txs, msg.err)
	return nil
}

func (m *Model) handleFixtureFile(msg fixtureFileMsg) tea.Cmd {
	evt := msg.event
	switch evt.Kind {
	case watcher.EventMissing:
		m.setStatus(statusWarn, fmt.Sprintf("Fixtures %s disappeared", filepath.Base(evt.Path)))
	case watcher.EventChanged:
		txs, err := transaction.ParseFixtures(evt.Data)
		m.importFixtures(evt.Path, txs, err)
	}
	if m.cfg.Watcher == nil {
		return nil
	}
	return waitForFixtureEvent(m.cfg.Watcher)
}

// importFixtures stores every parsed transaction as a fixture entry. Fixtures
// that carry an id replace their earlier entry on reload. A parse error is
// reported after the valid fixtures were stored.
// reopenFixture shows the reloaded version of the inspected fixture.
func (m *Model) reopenFixture(ids map[string]bool) {
	if m.vm == nil || m.capturing() {
		return
	}
	id := m.vm.Transaction().ID
	if !ids[id] {
		return
	}
	if e, ok := m.store.Get(id); ok {
		m.vm.Update(e.Restore())
	}
}

func (m *Model) importFixtures(path string, txs []*transaction.Transaction, parseErr error) {
	name := filepath.Base(path)
	if len(txs) == 0 && parseErr != nil {
		m.setStatus(statusError, fmt.Sprintf("Fixtures %s: %v", name, parseErr))
		return
	}
	var failed int
	stored := make(map[string]bool, len(txs))
	for _, tx := range txs {
		if err := m.store.Append(history.NewEntry(tx, history.SourceFixture)); err != nil {
			failed++
			continue
		}
		stored[tx.ID] = true
	}
	m.refreshHistory()
	m.reopenFixture(stored)
	if parseErr != nil {
		m.setStatus(statusWarn, fmt.Sprintf("Imported %d fixtures from %s, some were skipped: %v", len(txs)-failed, name, parseErr))
		return
	}
	if failed > 0 {
		m.setStatus(statusError, fmt.Sprintf("Imported %d of %d fixtures from %s", len(txs)-failed, len(txs), name))
		return
	}
	m.setStatus(statusSuccess, fmt.Sprintf("Imported %d fixtures from %s", len(txs), name))
}
