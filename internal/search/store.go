package search

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
)

// Store persists a search index in a SQLite database so that repeated
// searches against an unchanged ontology skip the parse and index build.
type Store struct {
	db   *sql.DB
	path string
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS index_meta (
	source     TEXT PRIMARY KEY,
	mtime_unix INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	source   TEXT NOT NULL,
	iri      TEXT NOT NULL,
	kind     INTEGER NOT NULL,
	label    TEXT NOT NULL,
	text     TEXT NOT NULL,
	property TEXT NOT NULL,
	stems    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(source);
`

// OpenStore opens (creating if necessary) the index database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set sqlite synchronous=NORMAL: %v", err)
	}

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}
	logging.StoreDebug("opened search index database at %s", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveIndex replaces the persisted index for a source ontology file.
func (s *Store) SaveIndex(source string, mtime time.Time, ix *Index) error {
	timer := logging.StartTimer(logging.CategoryStore, "persist index for "+source)
	defer timer.Stop()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries WHERE source = ?`, source); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO index_meta (source, mtime_unix) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET mtime_unix = excluded.mtime_unix`,
		source, mtime.Unix()); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO entries (source, iri, kind, label, text, property, stems)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range ix.entries {
		stems := make([]string, 0, len(e.stems))
		for stem := range e.stems {
			stems = append(stems, stem)
		}
		if _, err := stmt.Exec(source, string(e.IRI), int(e.Kind), e.Label,
			e.Text, string(e.Property), strings.Join(stems, " ")); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logging.Store("persisted %d index entries for %s", len(ix.entries), source)
	return nil
}

// LoadIndex returns the persisted index for a source file, or nil when no
// fresh index exists. A persisted index is fresh iff its recorded mtime
// equals the current one; touching the source invalidates it.
func (s *Store) LoadIndex(source string, mtime time.Time) (*Index, error) {
	var stored int64
	err := s.db.QueryRow(`SELECT mtime_unix FROM index_meta WHERE source = ?`, source).Scan(&stored)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if stored != mtime.Unix() {
		logging.StoreDebug("index for %s is stale (stored mtime %d, current %d)", source, stored, mtime.Unix())
		return nil, nil
	}

	rows, err := s.db.Query(
		`SELECT iri, kind, label, text, property, stems FROM entries WHERE source = ? ORDER BY id`,
		source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ix := &Index{}
	for rows.Next() {
		var e Entry
		var iri, property, stems string
		var kind int
		if err := rows.Scan(&iri, &kind, &e.Label, &e.Text, &property, &stems); err != nil {
			return nil, err
		}
		e.IRI = owl.IRI(iri)
		e.Kind = owl.EntityKind(kind)
		e.Property = owl.IRI(property)
		e.norm = normalizeText(e.Text)
		e.stems = make(map[string]bool)
		for _, s := range strings.Fields(stems) {
			e.stems[s] = true
		}
		ix.entries = append(ix.entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logging.StoreDebug("loaded %d index entries for %s", len(ix.entries), source)
	return ix, nil
}
