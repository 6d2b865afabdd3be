package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendFactory struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backendFactory {
	return []backendFactory{
		{"memory", func(t *testing.T) Store { return NewMemory() }},
		{"sqlite", func(t *testing.T) Store {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "hashes.db"))
			require.NoError(t, err)
			return s
		}},
		{"bleve", func(t *testing.T) Store {
			s, err := NewBleve("")
			require.NoError(t, err)
			return s
		}},
	}
}

// forEachBackend runs fn against every backend that needs no external service.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			s := backend.open(t)
			t.Cleanup(func() { s.Close() })
			require.NoError(t, s.CreateSchema(context.Background()))
			fn(t, s)
		})
	}
}

func rec(path, hash string, size, modified int64) FileRecord {
	return FileRecord{Path: path, Hash: hash, Size: size, LastModified: modified}
}

func Test_Store_InsertAndFindByPath(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, rec("/data/a.txt", "h1", 10, 100)))

		got, err := s.FindByPath(ctx, "/data/a.txt")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec("/data/a.txt", "h1", 10, 100), *got)
	})
}

func Test_Store_FindByPath_Missing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		got, err := s.FindByPath(context.Background(), "/nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func Test_Store_FindByHash_OrderedByPath(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, rec("/b/file", "same", 3, 1)))
		require.NoError(t, s.Insert(ctx, rec("/a/file", "same", 3, 1)))
		require.NoError(t, s.Insert(ctx, rec("/c/file", "other", 3, 1)))

		got, err := s.FindByHash(ctx, "same")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "/a/file", got[0].Path)
		assert.Equal(t, "/b/file", got[1].Path)

		none, err := s.FindByHash(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func Test_Store_InsertDuplicatePathFails(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, rec("/x", "h1", 1, 1)))

		err := s.Insert(ctx, rec("/x", "h2", 1, 2))
		require.Error(t, err)
		assert.True(t, IsStoreError(err))
		assert.True(t, errors.Is(err, ErrDuplicatePath))

		got, err := s.FindByPath(ctx, "/x")
		require.NoError(t, err)
		assert.Equal(t, "h1", got.Hash)
	})
}

func Test_Store_DeleteByPath(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, rec("/x", "h1", 1, 1)))
		require.NoError(t, s.Insert(ctx, rec("/y", "h1", 1, 1)))

		require.NoError(t, s.DeleteByPath(ctx, "/x"))
		require.NoError(t, s.DeleteByPath(ctx, "/never-existed"))

		got, err := s.FindByPath(ctx, "/x")
		require.NoError(t, err)
		assert.Nil(t, got)

		byHash, err := s.FindByHash(ctx, "h1")
		require.NoError(t, err)
		require.Len(t, byHash, 1)
		assert.Equal(t, "/y", byHash[0].Path)
	})
}

func Test_Store_DeleteThenReinsert(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, rec("/x", "old", 1, 1)))
		require.NoError(t, s.DeleteByPath(ctx, "/x"))
		require.NoError(t, s.Insert(ctx, rec("/x", "new", 2, 5)))

		got, err := s.FindByPath(ctx, "/x")
		require.NoError(t, err)
		assert.Equal(t, "new", got.Hash)
		assert.Equal(t, int64(5), got.LastModified)

		old, err := s.FindByHash(ctx, "old")
		require.NoError(t, err)
		assert.Empty(t, old)
	})
}

func Test_Store_AllRecords(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		enumerator, ok := s.(Enumerator)
		require.True(t, ok, "backend should enumerate")

		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, rec("/z", "h", 1, 1)))
		require.NoError(t, s.Insert(ctx, rec("/m", "h", 1, 1)))

		all, err := enumerator.AllRecords(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "/m", all[0].Path)
		assert.Equal(t, "/z", all[1].Path)
	})
}

func Test_SQLite_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hashes.db")
	ctx := context.Background()

	first, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.CreateSchema(ctx))
	require.NoError(t, first.Insert(ctx, rec("/keep", "h", 7, 9)))
	require.NoError(t, first.Close())

	second, err := NewSQLite(dbPath)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.CreateSchema(ctx))

	got, err := second.FindByPath(ctx, "/keep")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.Size)
}

func Test_Bleve_PersistsAcrossReopen(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "hashes.bleve")
	ctx := context.Background()

	first, err := NewBleve(indexPath)
	require.NoError(t, err)
	require.NoError(t, first.Insert(ctx, rec("/keep", "h", 7, 9)))
	require.NoError(t, first.Close())

	second, err := NewBleve(indexPath)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.FindByPath(ctx, "/keep")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(9), got.LastModified)
}

func Test_Postgres_Contract(t *testing.T) {
	dsn := os.Getenv("DUPWATCH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DUPWATCH_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := NewPostgres(dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.CreateSchema(ctx))
	_, err = s.db.ExecContext(ctx, "DELETE FROM file_hashes")
	require.NoError(t, err)

	require.NoError(t, s.Insert(ctx, rec("/pg/a", "h", 1, 1)))
	err = s.Insert(ctx, rec("/pg/a", "h", 1, 1))
	assert.True(t, errors.Is(err, ErrDuplicatePath))

	got, err := s.FindByHash(ctx, "h")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func Test_SQLQueries_PlaceholderStyle(t *testing.T) {
	dialects := map[string]struct {
		queries sqlQueries
		marker  string
		foreign string
	}{
		"sqlite":   {sqliteQueries, "?", "$1"},
		"postgres": {postgresQueries, "$1", "?"},
	}
	for name, d := range dialects {
		t.Run(name, func(t *testing.T) {
			for _, q := range []string{d.queries.findByHash, d.queries.findByPath, d.queries.deleteByPath, d.queries.insert} {
				assert.Contains(t, q, d.marker)
				assert.NotContains(t, q, d.foreign)
			}
		})
	}
	assert.Contains(t, postgresQueries.insert, "VALUES ($1, $2, $3, $4)")
	assert.Equal(t, 4, strings.Count(sqliteQueries.insert, "?"))
}

func Test_Open_UnknownBackend(t *testing.T) {
	_, err := Open(Options{Backend: "cassandra"})
	assert.Error(t, err)

	_, err = Open(Options{Backend: BackendPostgres})
	assert.Error(t, err)
}

func Test_Memory_SearchByGlob(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Insert(ctx, rec("/data/photos/a.jpg", "h1", 1, 1)))
	require.NoError(t, m.Insert(ctx, rec("/data/photos/2020/b.jpg", "h2", 1, 1)))
	require.NoError(t, m.Insert(ctx, rec("/data/docs/c.txt", "h3", 1, 1)))

	results, err := m.SearchByGlob("/data/**/*.jpg", 50)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = m.SearchByGlob("[invalid", 50)
	assert.Error(t, err)
}

func Test_MatchGlob_MaxResults(t *testing.T) {
	var records []FileRecord
	for _, name := range []string{"a", "b", "c", "d"} {
		records = append(records, rec("/r/"+name+".bin", "h", 1, 1))
	}

	results, err := MatchGlob(records, "/r/*.bin", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
