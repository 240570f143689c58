package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funvibe/concepts/internal/concepts"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS verdicts (
	id        TEXT PRIMARY KEY,
	verdict   TEXT NOT NULL,
	stored_at INTEGER NOT NULL
)`

// SQLite stores verdicts in a local database file.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens or creates the database at path. ":memory:" keeps it in
// process.
func OpenSQLite(ctx context.Context, path string, ttl time.Duration) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store %s: %w", path, err)
	}
	// One writer; an in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}
	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (concepts.Verdict, bool, error) {
	var (
		data   string
		stored int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT verdict, stored_at FROM verdicts WHERE id = ?`, key).Scan(&data, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return concepts.Verdict{}, false, nil
	}
	if err != nil {
		return concepts.Verdict{}, false, fmt.Errorf("reading verdict %s: %w", key, err)
	}
	if expired(time.Unix(0, stored), s.ttl, s.now()) {
		return concepts.Verdict{}, false, nil
	}
	v, err := decode(key, []byte(data))
	if err != nil {
		return concepts.Verdict{}, false, err
	}
	return v, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, v concepts.Verdict) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verdicts (id, verdict, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET verdict = excluded.verdict, stored_at = excluded.stored_at`,
		key, string(data), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("writing verdict %s: %w", key, err)
	}
	return nil
}

// Purge deletes expired verdicts and returns how many were removed.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM verdicts WHERE stored_at <= ?`, s.now().Add(-s.ttl).UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging verdicts: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error { return s.db.Close() }
