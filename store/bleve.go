package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
)

const blevePageSize = 1000

// Bleve keeps records in a Bleve index, one document per path (the document ID).
// Hash and path are keyword fields so lookups are exact term queries.
type Bleve struct {
	mu    sync.RWMutex
	index bleve.Index
}

// bleveDocument is the document structure stored in Bleve.
type bleveDocument struct {
	Path         string  `json:"path"`
	Hash         string  `json:"hash"`
	Size         float64 `json:"size"`
	LastModified float64 `json:"last_modified"`
}

// NewBleve opens the index at path, creating it when it does not exist.
// An empty path creates a memory-only index.
func NewBleve(path string) (*Bleve, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating bleve index: %w", err)
		}
		return &Bleve{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening bleve index %s: %w", path, err)
	}
	return &Bleve{index: idx}, nil
}

// buildIndexMapping maps every record field as stored; path and hash are not analysed.
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	for _, name := range []string{"path", "hash"} {
		fieldMapping := bleve.NewKeywordFieldMapping()
		fieldMapping.Store = true
		fieldMapping.IncludeInAll = false
		docMapping.AddFieldMappingsAt(name, fieldMapping)
	}
	for _, name := range []string{"size", "last_modified"} {
		fieldMapping := bleve.NewNumericFieldMapping()
		fieldMapping.Store = true
		fieldMapping.IncludeInAll = false
		docMapping.AddFieldMappingsAt(name, fieldMapping)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func (b *Bleve) CreateSchema(ctx context.Context) error { return nil }

func (b *Bleve) FindByHash(ctx context.Context, hash string) ([]FileRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	termQuery := bleve.NewTermQuery(hash)
	termQuery.SetField("hash")
	records, err := b.collect(ctx, termQuery)
	if err != nil {
		return nil, &Error{Op: "find by hash", Err: err}
	}
	return records, nil
}

func (b *Bleve) FindByPath(ctx context.Context, path string) (*FileRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	records, err := b.collect(ctx, bleve.NewDocIDQuery([]string{path}))
	if err != nil {
		return nil, &Error{Op: "find by path", Path: path, Err: err}
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (b *Bleve) DeleteByPath(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.index.Delete(path); err != nil {
		return &Error{Op: "delete", Path: path, Err: err}
	}
	return nil
}

func (b *Bleve) Insert(ctx context.Context, record FileRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.collect(ctx, bleve.NewDocIDQuery([]string{record.Path}))
	if err != nil {
		return &Error{Op: "insert", Path: record.Path, Err: err}
	}
	if len(existing) > 0 {
		return &Error{Op: "insert", Path: record.Path, Err: ErrDuplicatePath}
	}

	doc := bleveDocument{
		Path:         record.Path,
		Hash:         record.Hash,
		Size:         float64(record.Size),
		LastModified: float64(record.LastModified),
	}
	if err := b.index.Index(record.Path, doc); err != nil {
		return &Error{Op: "insert", Path: record.Path, Err: err}
	}
	return nil
}

// AllRecords returns every document in path order.
func (b *Bleve) AllRecords(ctx context.Context) ([]FileRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	records, err := b.collect(ctx, bleve.NewMatchAllQuery())
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	return records, nil
}

func (b *Bleve) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}

// collect runs q page by page, sorted by path, and converts every hit.
func (b *Bleve) collect(ctx context.Context, q query.Query) ([]FileRecord, error) {
	var records []FileRecord
	for from := 0; ; from += blevePageSize {
		searchRequest := bleve.NewSearchRequestOptions(q, blevePageSize, from, false)
		searchRequest.Fields = []string{"path", "hash", "size", "last_modified"}
		searchRequest.SortBy([]string{"path"})

		searchResults, err := b.index.SearchInContext(ctx, searchRequest)
		if err != nil {
			return nil, fmt.Errorf("searching index: %w", err)
		}
		for _, hit := range searchResults.Hits {
			records = append(records, recordFromHit(hit))
		}
		if len(searchResults.Hits) < blevePageSize {
			return records, nil
		}
	}
}

func recordFromHit(hit *search.DocumentMatch) FileRecord {
	record := FileRecord{Path: hit.ID}
	if hash, ok := hit.Fields["hash"].(string); ok {
		record.Hash = hash
	}
	if size, ok := hit.Fields["size"].(float64); ok {
		record.Size = int64(size)
	}
	if modified, ok := hit.Fields["last_modified"].(float64); ok {
		record.LastModified = int64(modified)
	}
	return record
}
