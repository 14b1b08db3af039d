// Package sqldb is the SQL implementation of the run store, supporting
// SQLite and Postgres through the dialect abstraction.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/curalink/triage-gateway/internal/storage"
	"github.com/curalink/triage-gateway/internal/storage/dialect"
)

// Store is a SQL implementation of storage.RunStore.
type Store struct {
	db      *sqlx.DB
	dialect dialect.Dialect
}

var _ storage.RunStore = (*Store)(nil)

// Config holds database connection configuration.
type Config struct {
	Driver string // sqlite or postgres
	DSN    string
}

// New creates a run store with the specified configuration.
func New(cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range d.PragmaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	s := &Store{db: db, dialect: d}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// NewSQLite creates a SQLite-backed run store.
func NewSQLite(dbPath string) (*Store, error) {
	return New(Config{Driver: "sqlite", DSN: dbPath})
}

func (s *Store) initSchema() error {
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS runs (
id TEXT PRIMARY KEY,
symptoms TEXT NOT NULL,
status TEXT NOT NULL,
result TEXT,
elapsed_ms INTEGER NOT NULL,
created_at %s NOT NULL
)`, s.dialect.TimestampType())

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at)`)
	return err
}

// SaveRun inserts a completed run record.
func (s *Store) SaveRun(ctx context.Context, rec *storage.RunRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := s.dialect.Rebind(`INSERT INTO runs (id, symptoms, status, result, elapsed_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Symptoms, rec.Status, string(rec.Result), rec.ElapsedMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves one run record by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*storage.RunRecord, error) {
	query := s.dialect.Rebind(`SELECT id, symptoms, status, result, elapsed_ms, created_at
FROM runs WHERE id = ?`)

	var rec storage.RunRecord
	if err := s.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &rec, nil
}

// ListRuns returns run records ordered newest first.
func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*storage.RunRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.dialect.Rebind(`SELECT id, symptoms, status, result, elapsed_ms, created_at
FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?`)

	var recs []*storage.RunRecord
	if err := s.db.SelectContext(ctx, &recs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return recs, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
