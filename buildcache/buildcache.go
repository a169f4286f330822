// Package buildcache stores compiled tables keyed by their grammar's
// persist.Fingerprint in a modernc.org/sqlite-backed store, following the
// connection-setup and error-unwrapping style of the teacher's
// server/dao/sqlite package (itself backed by modernc.org/sqlite, the
// pure-Go cgo-free driver).
package buildcache

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dekarrin/lrforge/persist"
	"github.com/dekarrin/lrforge/table"
	"github.com/google/uuid"
	"modernc.org/sqlite"
)

// Store is a sqlite-backed cache of compiled tables, keyed by the
// fingerprint of the grammar that produced them.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a cache database under dir.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, "lrforge-cache.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st := &Store{db: db}
	if err := st.init(); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tables (
			fingerprint TEXT PRIMARY KEY,
			blob        BLOB NOT NULL,
			created_at  INTEGER NOT NULL
		)
	`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Put stores t under fp, overwriting any previous entry.
func (s *Store) Put(fp uuid.UUID, t *table.Compiled) error {
	blob, err := persist.Save(t)
	if err != nil {
		return fmt.Errorf("buildcache: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO tables (fingerprint, blob, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET blob = excluded.blob, created_at = excluded.created_at`,
		fp.String(), blob, time.Now().Unix(),
	)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// Get returns the table stored under fp, or (nil, false, nil) if absent.
// Only the rule list and the state and terminal counts survive the round
// trip through persist.Save/Load: the returned table has no packed lookup
// arrays or default rows, so its Action and Goto cannot be used.
func (s *Store) Get(fp uuid.UUID) (*table.Compiled, bool, error) {
	row := s.db.QueryRow(`SELECT blob FROM tables WHERE fingerprint = ?`, fp.String())

	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, wrapDBError(err)
	}

	t, err := persist.Load(blob)
	if err != nil {
		return nil, false, fmt.Errorf("buildcache: %w", err)
	}
	return t, true, nil
}

// wrapDBError translates a modernc.org/sqlite driver error into a plain
// Go error carrying the driver's own readable code name, the same
// unwrapping shape the teacher's wrapDBError used.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		return fmt.Errorf("buildcache: %s: %w", sqlite.ErrorCodeString[sqliteErr.Code()], err)
	}
	return fmt.Errorf("buildcache: %w", err)
}
