package possync

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/semtiles/pkg/graph"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS positions (
    domain_id TEXT PRIMARY KEY,
    x REAL NOT NULL,
    y REAL NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);`

// SQLiteStore keeps positions in an embedded SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite creates or opens the database at path. The special path
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// SavePositions upserts every position in one transaction.
func (s *SQLiteStore) SavePositions(ctx context.Context, pos graph.Positions) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO positions (domain_id, x, y, updated_at) VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(domain_id) DO UPDATE SET x = excluded.x, y = excluded.y, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for id, p := range pos {
		if _, err := stmt.ExecContext(ctx, id, p.X, p.Y); err != nil {
			return fmt.Errorf("upsert %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// LoadPositions implements Store.
func (s *SQLiteStore) LoadPositions(ctx context.Context, ids []string) (graph.Positions, error) {
	query := `SELECT domain_id, x, y FROM positions`
	args := make([]any, len(ids))
	if ids != nil {
		if len(ids) == 0 {
			return graph.Positions{}, nil
		}
		query += ` WHERE domain_id IN (?` + strings.Repeat(`, ?`, len(ids)-1) + `)`
		for i, id := range ids {
			args[i] = id
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	out := graph.Positions{}
	for rows.Next() {
		var id string
		var p graph.Position
		if err := rows.Scan(&id, &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out[id] = p
	}
	return out, rows.Err()
}

// Backend implements Persister.
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Store = (*SQLiteStore)(nil)
