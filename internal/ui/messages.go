package ui

import (
	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/transaction"
	"github.com/unkn0wn-root/netscope/internal/watcher"
)

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
	statusSuccess
)

type statusMsg struct {
	text  string
	level statusLevel
}

type startCaptureMsg struct {
	req *transaction.Request
}

// captureProgressMsg carries the latest in-flight snapshot of capture id.
type captureProgressMsg struct {
	id int
	tx *transaction.Transaction
}

type captureDoneMsg struct {
	id  int
	tx  *transaction.Transaction
	err error
}

type viewModelChangedMsg struct {
	change inspector.Change
}

type fixturesLoadedMsg struct {
	path string
	txs  []*transaction.Transaction
	data []byte
	err  error
}

type fixtureFileMsg struct {
	event watcher.Event
}
