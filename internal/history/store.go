package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const DefaultMaxEntries = 200

// Store persists captured transactions, newest first.
type Store interface {
	Load() error
	Append(entry Entry) error
	Entries() []Entry
	Get(id string) (Entry, bool)
	Delete(id string) (bool, error)
	ByHost(host string) []Entry
	Close() error
}

// FileStore keeps every entry in memory and rewrites a JSON file on change.
type FileStore struct {
	path       string
	maxEntries int
	entries    []Entry
	mu         sync.RWMutex
	loaded     bool
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string, maxEntries int) *FileStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FileStore{path: path, maxEntries: maxEntries}
}

func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked()
}

// Append inserts entry, replacing an existing entry with the same id.
func (s *FileStore) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	next := make([]Entry, 0, len(s.entries)+1)
	next = append(next, entry)
	for _, e := range s.entries {
		if e.ID != entry.ID {
			next = append(next, e)
		}
	}
	sortEntries(next)
	if len(next) > s.maxEntries {
		next = next[:s.maxEntries]
	}
	if err := s.persist(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

func (s *FileStore) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copies := make([]Entry, len(s.entries))
	copy(copies, s.entries)
	return copies
}

func (s *FileStore) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *FileStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return false, err
	}

	idx := -1
	for i, entry := range s.entries {
		if entry.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	next := make([]Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:idx]...)
	next = append(next, s.entries[idx+1:]...)
	if err := s.persist(next); err != nil {
		return false, err
	}
	s.entries = next
	return true, nil
}

func (s *FileStore) ByHost(host string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	host = strings.TrimSpace(host)
	if host == "" {
		return nil
	}

	var matched []Entry
	for _, entry := range s.entries {
		if strings.EqualFold(entry.Host, host) {
			matched = append(matched, entry)
		}
	}
	return matched
}

func (s *FileStore) Close() error { return nil }

// persist writes entries to disk. Callers swap them in only on success.
func (s *FileStore) persist(entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

func (s *FileStore) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.entries = []Entry{}
			s.loaded = true
			return nil
		}
		return fmt.Errorf("read history: %w", err)
	}

	if len(data) == 0 {
		s.entries = []Entry{}
		s.loaded = true
		return nil
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}

	sortEntries(s.entries)
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[:s.maxEntries]
	}
	s.loaded = true
	return nil
}

func sortEntries(entries []Entry) {
	if len(entries) < 2 {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return newerFirst(entries[i], entries[j])
	})
}

func newerFirst(a, b Entry) bool {
	ai := a.CapturedAt
	bi := b.CapturedAt
	switch {
	case ai.IsZero() && bi.IsZero():
		return a.ID > b.ID
	case ai.IsZero():
		return false
	case bi.IsZero():
		return true
	case ai.Equal(bi):
		return a.ID > b.ID
	default:
		return ai.After(bi)
	}
}
