// Package watcher polls tracked files and reports content changes. It backs
// the live reload of fixture files.
package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type EventKind int

const (
	EventChanged EventKind = iota
	EventMissing
)

func (k EventKind) String() string {
	if k == EventMissing {
		return "missing"
	}
	return "changed"
}

type Fingerprint struct {
	Mod  time.Time
	Size int64
	Hash string
}

// Event reports a tracked file whose content moved away from the last
// fingerprint. Data holds the new content for EventChanged.
type Event struct {
	Path string
	Kind EventKind
	Prev Fingerprint
	Curr Fingerprint
	Data []byte
}

type Options struct {
	Interval time.Duration
	Buffer   int
}

type entry struct {
	path    string
	fp      Fingerprint
	missing bool
}

type Watcher struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	out      chan Event
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
	started  bool
	closed   bool
}

const (
	defaultInterval = time.Second
	defaultBuffer   = 16
	hashPrefix      = "sha256:"
)

func New(opts Options) *Watcher {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	buf := opts.Buffer
	if buf <= 0 {
		buf = defaultBuffer
	}
	return &Watcher{
		entries:  make(map[string]*entry),
		out:      make(chan Event, buf),
		interval: interval,
	}
}

// Events is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.out
}

func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started || w.closed {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.stop = make(chan struct{})
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(w.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				w.Scan()
			case <-w.stop:
				return
			}
		}
	}()
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.started {
		close(w.stop)
	}
	w.mu.Unlock()
	w.wg.Wait()
	close(w.out)
}

// Track records data as the known content of path. Later scans compare
// against it.
func (w *Watcher) Track(path string, data []byte) {
	clean, ok := cleanPath(path)
	if !ok {
		return
	}
	fp := fingerprint(clean, data)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.entries[clean] = &entry{path: clean, fp: fp}
}

func (w *Watcher) Forget(path string) {
	clean, ok := cleanPath(path)
	if !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entries, clean)
}

// Scan checks every tracked file once. Events are dropped when the buffer
// is full.
func (w *Watcher) Scan() {
	for _, e := range w.snapshot() {
		if evt, ok := w.check(e); ok {
			w.emit(evt)
		}
	}
}

func (w *Watcher) snapshot() []entry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil
	}
	out := make([]entry, 0, len(w.entries))
	for _, e := range w.entries {
		out = append(out, *e)
	}
	return out
}

func (w *Watcher) check(e entry) (Event, bool) {
	info, err := os.Stat(e.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || e.missing {
			return Event{}, false
		}
		w.update(e.path, e.fp, true)
		return Event{Path: e.path, Kind: EventMissing, Prev: e.fp}, true
	}
	if !e.missing && info.ModTime().Equal(e.fp.Mod) && info.Size() == e.fp.Size {
		return Event{}, false
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		w.update(e.path, e.fp, true)
		return Event{Path: e.path, Kind: EventMissing, Prev: e.fp}, true
	}
	next := Fingerprint{Mod: info.ModTime(), Size: int64(len(data)), Hash: hashBytes(data)}
	w.update(e.path, next, false)
	if !e.missing && next.Hash == e.fp.Hash {
		return Event{}, false
	}
	return Event{Path: e.path, Kind: EventChanged, Prev: e.fp, Curr: next, Data: data}, true
}

func (w *Watcher) update(path string, fp Fingerprint, missing bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entries[path]; ok {
		e.fp = fp
		e.missing = missing
	}
}

func (w *Watcher) emit(evt Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.out <- evt:
	default:
	}
}

func cleanPath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	clean := filepath.Clean(path)
	if clean == "." {
		return "", false
	}
	return clean, true
}

func fingerprint(path string, data []byte) Fingerprint {
	fp := Fingerprint{Size: int64(len(data)), Hash: hashBytes(data)}
	if info, err := os.Stat(path); err == nil {
		fp.Mod = info.ModTime()
	}
	return fp
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hashPrefix + hex.EncodeToString(sum[:])
}
