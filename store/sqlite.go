package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DefaultSQLitePath is the database file used when no path is configured.
const DefaultSQLitePath = "filehashes.db"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS file_hashes (
		id INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		hash TEXT NOT NULL,
		filesize INTEGER,
		last_modified INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_file_hashes_hash ON file_hashes(hash)`,
}

var sqliteQueries = sqlQueries{
	findByHash:   "SELECT " + selectColumns + " FROM file_hashes WHERE hash = ? ORDER BY path",
	findByPath:   "SELECT " + selectColumns + " FROM file_hashes WHERE path = ?",
	deleteByPath: "DELETE FROM file_hashes WHERE path = ?",
	insert:       "INSERT INTO file_hashes (path, hash, filesize, last_modified) VALUES (?, ?, ?, ?)",
}

// SQLite is the default persisted Store, one row per path in table file_hashes.
type SQLite struct {
	sqlStore
}

// NewSQLite opens (creating if needed) the sqlite database at path.
// Call CreateSchema before use.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Access is sequential; a single connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLite{sqlStore{
		db:          db,
		schema:      sqliteSchema,
		queries:     sqliteQueries,
		isDuplicate: isSQLiteUniqueViolation,
	}}, nil
}

func isSQLiteUniqueViolation(err error) bool {
	if errors.Is(err, sqlite3.CONSTRAINT_UNIQUE) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
