package tools

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/dupwatch/store"
)

// FilesArgs defines the input parameters for the dupwatch_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Glob pattern over recorded files, relative to the working directory (e.g. **/*.jpg)"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without metadata"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	Records store.Enumerator
	RootDir string
	Logger  *slog.Logger
}

// Handle processes a dupwatch_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Pattern == "" {
		h.Logger.Warn("dupwatch_files called with empty pattern")
		return errorResult("Error: pattern parameter is required"), nil, nil
	}

	results, err := h.search(ctx, h.absolutePattern(args.Pattern), args.MaxResults)
	if err != nil {
		h.Logger.Error("dupwatch_files failed", "pattern", args.Pattern, "error", err)
		return errorResult("Search error: %v", err), nil, nil
	}

	h.Logger.Info("dupwatch_files",
		"pattern", args.Pattern,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	return textResult(FormatFileRecords(results, args.NameOnly, h.RootDir)), nil, nil
}

// globSearcher is implemented by stores that can match paths without a full copy.
type globSearcher interface {
	SearchByGlob(pattern string, maxResults int) ([]store.FileRecord, error)
}

func (h *FilesHandler) search(ctx context.Context, pattern string, maxResults int) ([]store.FileRecord, error) {
	if searcher, ok := h.Records.(globSearcher); ok {
		return searcher.SearchByGlob(pattern, maxResults)
	}
	records, err := h.Records.AllRecords(ctx)
	if err != nil {
		return nil, err
	}
	return store.MatchGlob(records, pattern, maxResults)
}

// absolutePattern anchors relative patterns at the working directory,
// since records are keyed by canonical absolute path.
func (h *FilesHandler) absolutePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if h.RootDir == "" || strings.HasPrefix(pattern, "/") {
		return pattern
	}
	return path.Join(filepath.ToSlash(h.RootDir), pattern)
}
