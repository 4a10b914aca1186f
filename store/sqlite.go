package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/mira/tree"
)

type sqliteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes writes
}

// OpenSQLite opens (creating if necessary) a SQLite-backed store at path.
func OpenSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: setting busy timeout: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		name     TEXT PRIMARY KEY,
		rev      TEXT NOT NULL,
		saved_at INTEGER NOT NULL,
		data     BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating table: %w", err)
	}
	log.Debugf("opened sqlite store at %s", path)
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Put(name string, node *tree.Node) (Revision, error) {
	data, err := encodeTree(node)
	if err != nil {
		return "", err
	}
	rev := newRevision()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO documents (name, rev, saved_at, data) VALUES (?, ?, ?, ?)",
		name, string(rev), time.Now().UnixMilli(), data,
	)
	if err != nil {
		return "", fmt.Errorf("store: put %q: %w", name, err)
	}
	return rev, nil
}

func (s *sqliteStore) Get(name string) (*tree.Node, Revision, error) {
	var rev string
	var data []byte
	err := s.db.QueryRow(
		"SELECT rev, data FROM documents WHERE name = ?", name,
	).Scan(&rev, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNoDocument
		}
		return nil, "", fmt.Errorf("store: get %q: %w", name, err)
	}
	node, err := decodeTree(data)
	if err != nil {
		return nil, "", err
	}
	return node, Revision(rev), nil
}

func (s *sqliteStore) List() ([]Document, error) {
	rows, err := s.db.Query("SELECT name, rev, saved_at FROM documents ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var rev string
		var at int64
		if err := rows.Scan(&d.Name, &rev, &at); err != nil {
			return nil, fmt.Errorf("store: scanning document: %w", err)
		}
		d.Rev = Revision(rev)
		d.SavedAt = time.UnixMilli(at)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *sqliteStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec("DELETE FROM documents WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", name, err)
	}
	if n == 0 {
		return ErrNoDocument
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
