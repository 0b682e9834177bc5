package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/netscope/internal/history"
	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/transaction"
)

// startCapture opens the inspector on a pending transaction and runs the
// request in the background. Progress snapshots travel over a one-slot
// channel where a newer snapshot replaces one that was not read yet.
func (m *Model) startCapture(req *transaction.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	m.cancelCapture()
	m.captureSeq++
	id := m.captureSeq
	ctx, cancel := context.WithCancel(context.Background())
	progress := make(chan *transaction.Transaction, 1)
	m.capture = &captureState{id: id, cancel: cancel, progress: progress}

	pending := transaction.New(req)
	pending.Progress = &transaction.Progress{}
	m.openInspector(pending)
	m.setStatus(statusInfo, fmt.Sprintf("Capturing %s %s", pending.Method(), pending.URL()))

	client, opts := m.cfg.Client, m.cfg.Options
	run := func() tea.Msg {
		defer close(progress)
		tx, err := client.Execute(ctx, req, opts, func(tx *transaction.Transaction) {
			offerLatest(progress, tx)
		})
		return captureDoneMsg{id: id, tx: tx, err: err}
	}
	return tea.Batch(run, waitForProgress(id, progress), m.spinner.Tick)
}

func offerLatest(ch chan *transaction.Transaction, tx *transaction.Transaction) {
	for {
		select {
		case ch <- tx:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func waitForProgress(id int, ch <-chan *transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		tx, ok := <-ch
		if !ok {
			return nil
		}
		return captureProgressMsg{id: id, tx: tx}
	}
}

func (m *Model) cancelCapture() {
	if m.capture == nil {
		return
	}
	m.capture.cancel()
	m.capture = nil
}

func (m Model) capturing() bool {
	return m.capture != nil
}

func (m *Model) handleCaptureProgress(msg captureProgressMsg) tea.Cmd {
	if m.capture == nil || msg.id != m.capture.id {
		return nil
	}
	if m.vm != nil && msg.tx != nil {
		m.vm.Update(msg.tx)
	}
	return waitForProgress(msg.id, m.capture.progress)
}

func (m *Model) handleCaptureDone(msg captureDoneMsg) tea.Cmd {
	if m.capture == nil || msg.id != m.capture.id {
		return nil
	}
	m.capture.cancel()
	m.capture = nil

	if msg.tx == nil {
		m.settlePending(msg.err)
		m.setStatus(statusError, fmt.Sprintf("Capture failed: %v", msg.err))
		return nil
	}
	if m.vm != nil {
		m.vm.Update(msg.tx)
	}
	if err := m.store.Append(history.NewEntry(msg.tx, history.SourceCapture)); err != nil {
		m.setStatus(statusError, fmt.Sprintf("Captured, but history was not saved: %v", err))
	} else {
		m.setStatus(captureStatus(msg.tx, msg.err))
	}
	m.refreshHistory()
	return nil
}

// settlePending ends the in-flight state of the inspected transaction when
// the capture produced nothing to show.
func (m *Model) settlePending(err error) {
	if m.vm == nil {
		return
	}
	tx := m.vm.Transaction().Clone()
	if tx == nil {
		return
	}
	tx.Progress = nil
	if tx.Error == nil {
		msg := "capture failed"
		if err != nil {
			msg = err.Error()
		}
		tx.Error = &transaction.Error{Kind: transaction.ErrorOther, Message: msg}
	}
	m.vm.Update(tx)
}

func captureStatus(tx *transaction.Transaction, err error) (statusLevel, string) {
	elapsed := tx.Duration.Round(time.Millisecond)
	switch {
	case errors.Is(err, context.Canceled):
		return statusWarn, "Capture canceled"
	case tx.Error != nil:
		return statusError, fmt.Sprintf("%s: %s", tx.Error.Kind, tx.Error.Message)
	case err != nil:
		return statusError, err.Error()
	case tx.Response != nil && tx.Response.StatusCode >= 400:
		return statusWarn, fmt.Sprintf("%s in %s", tx.Response.Status, elapsed)
	case tx.Response != nil:
		return statusSuccess, fmt.Sprintf("%s in %s", tx.Response.Status, elapsed)
	default:
		return statusInfo, "Capture finished"
	}
}

// openInspector replaces the inspected transaction. The previous view-model
// loses its subscription so stale changes stop arriving.
func (m *Model) openInspector(tx *transaction.Transaction) {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	vm := inspector.NewViewModel(tx)
	changes := m.changes
	m.unsubscribe = vm.Subscribe(func(c inspector.Change) {
		select {
		case changes <- c:
		default:
		}
	})
	m.vm = vm
	m.viewState = inspector.ViewState{}
	m.selected = 0
	m.offset = 0
	m.detailDest = inspector.DestinationNone
	m.screen = screenInspector
	m.rebuild()
}

func (m *Model) closeInspector() {
	m.cancelCapture()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.vm = nil
	m.tree = inspector.Tree{}
	m.view = treeView{}
	m.screen = screenList
}

// focusedRequest is the request as built for the transaction on screen, or
// for the selected history entry.
func (m *Model) focusedRequest() *transaction.Request {
	if m.screen == screenInspector && m.vm != nil {
		return m.vm.Transaction().Original
	}
	if e, ok := m.selectedEntry(); ok && e.Transaction != nil {
		return e.Transaction.Original
	}
	return nil
}

func (m *Model) replay() tea.Cmd {
	req := m.focusedRequest()
	if req == nil {
		m.setStatus(statusWarn, "Nothing to replay")
		return nil
	}
	return m.startCapture(req.Clone())
}
