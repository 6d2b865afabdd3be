package store

import "fmt"

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBleve    = "bleve"
)

// Options selects and configures a backend.
type Options struct {
	Backend string // sqlite (default), memory, postgres, bleve
	Path    string // database file (sqlite) or index directory (bleve)
	DSN     string // connection string (postgres)
}

// Open creates the configured backend. The caller still has to run CreateSchema.
func Open(options Options) (Store, error) {
	switch options.Backend {
	case "", BackendSQLite:
		return NewSQLite(options.Path)
	case BackendMemory:
		return NewMemory(), nil
	case BackendPostgres:
		if options.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires a dsn")
		}
		return NewPostgres(options.DSN)
	case BackendBleve:
		return NewBleve(options.Path)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", options.Backend)
	}
}
