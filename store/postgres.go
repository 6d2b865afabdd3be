package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS file_hashes (
		id BIGSERIAL PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		hash TEXT NOT NULL,
		filesize BIGINT,
		last_modified BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_file_hashes_hash ON file_hashes(hash)`,
}

var postgresQueries = sqlQueries{
	findByHash:   "SELECT " + selectColumns + " FROM file_hashes WHERE hash = $1 ORDER BY path",
	findByPath:   "SELECT " + selectColumns + " FROM file_hashes WHERE path = $1",
	deleteByPath: "DELETE FROM file_hashes WHERE path = $1",
	insert:       "INSERT INTO file_hashes (path, hash, filesize, last_modified) VALUES ($1, $2, $3, $4)",
}

// Postgres stores records in a shared PostgreSQL table.
type Postgres struct {
	sqlStore
}

// NewPostgres connects to the database at dsn.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{sqlStore{
		db:          db,
		schema:      postgresSchema,
		queries:     postgresQueries,
		isDuplicate: isPostgresUniqueViolation,
	}}, nil
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
