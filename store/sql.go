package store

import (
	"context"
	"database/sql"
	"fmt"
)

// sqlStore implements Store over database/sql. The sqlite and postgres
// backends differ only in schema DDL, query text (placeholder style) and how
// a unique violation is recognised.
type sqlStore struct {
	db          *sql.DB
	schema      []string
	queries     sqlQueries
	isDuplicate func(error) bool
}

// sqlQueries holds the parameterised statements of one SQL dialect.
type sqlQueries struct {
	findByHash   string
	findByPath   string
	deleteByPath string
	insert       string
}

const selectColumns = "path, hash, filesize, last_modified"

func (s *sqlStore) CreateSchema(ctx context.Context) error {
	for _, stmt := range s.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &Error{Op: "create schema", Err: err}
		}
	}
	return nil
}

func (s *sqlStore) FindByHash(ctx context.Context, hash string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		s.queries.findByHash, hash)
	if err != nil {
		return nil, &Error{Op: "find by hash", Err: err}
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, &Error{Op: "find by hash", Err: err}
	}
	return records, nil
}

func (s *sqlStore) FindByPath(ctx context.Context, path string) (*FileRecord, error) {
	var record FileRecord
	err := s.db.QueryRowContext(ctx,
		s.queries.findByPath, path).
		Scan(&record.Path, &record.Hash, &record.Size, &record.LastModified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "find by path", Path: path, Err: err}
	}
	return &record, nil
}

func (s *sqlStore) DeleteByPath(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, s.queries.deleteByPath, path); err != nil {
		return &Error{Op: "delete", Path: path, Err: err}
	}
	return nil
}

func (s *sqlStore) Insert(ctx context.Context, record FileRecord) error {
	_, err := s.db.ExecContext(ctx,
		s.queries.insert,
		record.Path, record.Hash, record.Size, record.LastModified)
	if err != nil {
		if s.isDuplicate != nil && s.isDuplicate(err) {
			return &Error{Op: "insert", Path: record.Path, Err: fmt.Errorf("%w: %v", ErrDuplicatePath, err)}
		}
		return &Error{Op: "insert", Path: record.Path, Err: err}
	}
	return nil
}

func (s *sqlStore) AllRecords(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM file_hashes ORDER BY path")
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	return records, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]FileRecord, error) {
	var records []FileRecord
	for rows.Next() {
		var record FileRecord
		if err := rows.Scan(&record.Path, &record.Hash, &record.Size, &record.LastModified); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
