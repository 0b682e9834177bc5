package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	captured_at INTEGER NOT NULL,
	method      TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	host        TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	status_code INTEGER NOT NULL DEFAULT 0,
	duration_ns INTEGER NOT NULL DEFAULT 0,
	source      TEXT NOT NULL DEFAULT '',
	record      BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_host ON transactions(host);
CREATE INDEX IF NOT EXISTS transactions_captured ON transactions(captured_at DESC, id DESC);
`

// SQLStore keeps history in a SQLite database. Summary fields live in
// columns; the full entry is stored as JSON in record.
type SQLStore struct {
	path       string
	maxEntries int
	db         *sql.DB
	mu         sync.RWMutex
	entries    []Entry
}

var _ Store = (*SQLStore)(nil)

func OpenSQLStore(path string, maxEntries int) (*SQLStore, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &SQLStore{path: path, maxEntries: maxEntries, db: db}, nil
}

func (s *SQLStore) Load() error {
	rows, err := s.db.Query(
		`SELECT record FROM transactions ORDER BY captured_at DESC, id DESC LIMIT ?`,
		s.maxEntries,
	)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var (
		entries []Entry
		errs    []error
	)
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return fmt.Errorf("scan history: %w", err)
		}
		var e Entry
		if err := json.Unmarshal(record, &e); err != nil {
			errs = append(errs, fmt.Errorf("decode history entry: %w", err))
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate history: %w", err)
	}
	sortEntries(entries)

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return errors.Join(errs...)
}

func (s *SQLStore) Append(entry Entry) error {
	record, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO transactions
			(id, captured_at, method, url, host, status, status_code, duration_ns, source, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CapturedAt.UnixNano(),
		entry.Method,
		entry.URL,
		strings.ToLower(entry.Host),
		entry.Status,
		entry.StatusCode,
		int64(entry.Duration),
		entry.Source,
		record,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	_, err = tx.Exec(
		`DELETE FROM transactions WHERE id NOT IN (
			SELECT id FROM transactions ORDER BY captured_at DESC, id DESC LIMIT ?
		)`,
		s.maxEntries,
	)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}

	kept := make([]Entry, 0, len(s.entries)+1)
	kept = append(kept, entry)
	for _, e := range s.entries {
		if e.ID != entry.ID {
			kept = append(kept, e)
		}
	}
	sortEntries(kept)
	if len(kept) > s.maxEntries {
		kept = kept[:s.maxEntries]
	}
	s.entries = kept
	return nil
}

func (s *SQLStore) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *SQLStore) Get(id string) (Entry, bool) {
	var record []byte
	err := s.db.QueryRow(`SELECT record FROM transactions WHERE id = ?`, id).Scan(&record)
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(record, &e); err != nil {
		return Entry{}, false
	}
	return e, true
}

func (s *SQLStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete history entry: %w", err)
	}
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			break
		}
	}
	return n > 0, nil
}

func (s *SQLStore) ByHost(host string) []Entry {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return nil
	}
	rows, err := s.db.Query(
		`SELECT record FROM transactions WHERE host = ? ORDER BY captured_at DESC, id DESC`,
		host,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var record []byte
		if rows.Scan(&record) != nil {
			continue
		}
		var e Entry
		if json.Unmarshal(record, &e) == nil {
			out = append(out, e)
		}
	}
	return out
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
