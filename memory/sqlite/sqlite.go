// Package sqlite provides a durable core.FactStore backed by SQLite. It is a
// drop-in alternative to the in-memory store for deployments that need the
// fact log to survive restarts. The consolidator operates on it unchanged.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/taskweave/swarmcore/core"
)

// timeLayout is a fixed-width RFC3339 variant (nanoseconds always rendered)
// so stored UTC timestamps compare correctly as strings in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements core.FactStore on a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Options customizes store construction.
type Options struct {
	// Clock overrides the time source. Defaults to time.Now.
	Clock func() time.Time
}

// New opens (creating if necessary) the fact database at path.
func New(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// WAL for concurrent read/write access, busy timeout so writers retry
	// instead of returning SQLITE_BUSY.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	s := &Store{db: db, now: opts.Clock}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS facts (
			id            TEXT PRIMARY KEY,
			entity_type   TEXT NOT NULL,
			entity_id     TEXT NOT NULL,
			property      TEXT NOT NULL,
			value         TEXT NOT NULL,
			source_agent  TEXT NOT NULL,
			confidence    REAL NOT NULL,
			valid_from    TEXT NOT NULL,
			valid_until   TEXT,
			created_at    TEXT NOT NULL,
			superseded_by TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_key ON facts(entity_type, entity_id, property)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_created ON facts(created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// StoreFact appends a fact row. ID and CreatedAt are assigned by the store.
func (s *Store) StoreFact(f core.MemoryFact) (string, error) {
	now := s.now().UTC()
	f.ID = core.NewID()
	f.CreatedAt = now
	if f.ValidFrom.IsZero() {
		f.ValidFrom = now
	}
	f.SupersededBy = ""
	if err := f.Validate(); err != nil {
		return "", err
	}

	var validUntil any
	if f.ValidUntil != nil {
		validUntil = f.ValidUntil.UTC().Format(timeLayout)
	}
	_, err := s.db.Exec(
		`INSERT INTO facts (id, entity_type, entity_id, property, value, source_agent,
			confidence, valid_from, valid_until, created_at, superseded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '')`,
		f.ID, f.EntityType, f.EntityID, f.Property, f.Value, f.SourceAgent,
		f.Confidence, f.ValidFrom.UTC().Format(timeLayout), validUntil,
		f.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert fact: %w", err)
	}
	return f.ID, nil
}

// RetrieveFacts returns live facts for the entity valid at asOf, ranked by
// (confidence desc, created_at desc).
func (s *Store) RetrieveFacts(entityType, entityID string, asOf time.Time) ([]core.MemoryFact, error) {
	if asOf.IsZero() {
		asOf = s.now().UTC()
	}
	at := asOf.UTC().Format(timeLayout)
	rows, err := s.db.Query(
		`SELECT id, entity_type, entity_id, property, value, source_agent,
			confidence, valid_from, valid_until, created_at, superseded_by
		 FROM facts
		 WHERE entity_type = ? AND entity_id = ? AND superseded_by = ''
			AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)
		 ORDER BY confidence DESC, created_at DESC`,
		entityType, entityID, at, at,
	)
	if err != nil {
		return nil, fmt.Errorf("retrieve facts: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// TemporalQuery returns facts whose validity window intersects
// [at-window, at+window], superseded ones included.
func (s *Store) TemporalQuery(entityType string, at time.Time, window time.Duration) ([]core.MemoryFact, error) {
	if window < 0 {
		return nil, fmt.Errorf("temporal query: negative window %v", window)
	}
	from := at.Add(-window).UTC().Format(timeLayout)
	to := at.Add(window).UTC().Format(timeLayout)
	rows, err := s.db.Query(
		`SELECT id, entity_type, entity_id, property, value, source_agent,
			confidence, valid_from, valid_until, created_at, superseded_by
		 FROM facts
		 WHERE entity_type = ? AND valid_from <= ?
			AND (valid_until IS NULL OR valid_until >= ?)
		 ORDER BY confidence DESC, created_at DESC`,
		entityType, to, from,
	)
	if err != nil {
		return nil, fmt.Errorf("temporal query: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// AllFacts snapshots the full log in created_at order.
func (s *Store) AllFacts() ([]core.MemoryFact, error) {
	rows, err := s.db.Query(
		`SELECT id, entity_type, entity_id, property, value, source_agent,
			confidence, valid_from, valid_until, created_at, superseded_by
		 FROM facts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("all facts: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// RemoveFacts hard-deletes facts by id.
func (s *Store) RemoveFacts(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.Exec(`DELETE FROM facts WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("remove facts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// MarkSuperseded records a soft supersession pointer.
func (s *Store) MarkSuperseded(id, canonicalID string) error {
	res, err := s.db.Exec(`UPDATE facts SET superseded_by = ? WHERE id = ?`, canonicalID, id)
	if err != nil {
		return fmt.Errorf("mark superseded: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("mark superseded: fact %s not found", id)
	}
	return nil
}

func scanFacts(rows *sql.Rows) ([]core.MemoryFact, error) {
	facts := []core.MemoryFact{}
	for rows.Next() {
		var (
			f          core.MemoryFact
			validFrom  string
			validUntil sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&f.ID, &f.EntityType, &f.EntityID, &f.Property, &f.Value,
			&f.SourceAgent, &f.Confidence, &validFrom, &validUntil, &createdAt,
			&f.SupersededBy); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		var err error
		if f.ValidFrom, err = time.Parse(timeLayout, validFrom); err != nil {
			return nil, fmt.Errorf("parse valid_from: %w", err)
		}
		if validUntil.Valid {
			t, err := time.Parse(timeLayout, validUntil.String)
			if err != nil {
				return nil, fmt.Errorf("parse valid_until: %w", err)
			}
			f.ValidUntil = &t
		}
		if f.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
