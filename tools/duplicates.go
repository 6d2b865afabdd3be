package tools

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/dupwatch/dedup"
	"github.com/lexandro/dupwatch/fsys"
	"github.com/lexandro/dupwatch/store"
)

// DuplicatesArgs defines the input parameters for the dupwatch_duplicates tool.
type DuplicatesArgs struct {
	Path string `json:"path,omitempty" jsonschema:"File whose recorded duplicates to list"`
	Hash string `json:"hash,omitempty" jsonschema:"Content hash to list files for (alternative to path)"`
}

// DuplicatesHandler holds the dependencies for the duplicates tool.
type DuplicatesHandler struct {
	FS       fsys.Filesystem
	Store    store.Store
	Pipeline *dedup.Pipeline
	RootDir  string
	Logger   *slog.Logger
}

// Handle processes a dupwatch_duplicates request. Nothing is read from disk
// apart from existence checks; vanished files are pruned on the way.
func (h *DuplicatesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args DuplicatesArgs) (*mcp.CallToolResult, any, error) {
	hash := args.Hash
	if hash == "" {
		if args.Path == "" {
			return errorResult("Error: path or hash parameter is required"), nil, nil
		}

		canonical, err := h.FS.Canonicalize(args.Path)
		if err != nil {
			return errorResult("Error: %v", err), nil, nil
		}
		record, err := h.Store.FindByPath(ctx, canonical)
		if err != nil {
			h.Logger.Error("dupwatch_duplicates failed", "path", canonical, "error", err)
			return errorResult("Store error: %v", err), nil, nil
		}
		if record == nil {
			return errorResult("File not recorded: %s (use dupwatch_check to hash it)", canonical), nil, nil
		}
		hash = record.Hash
	}

	set, ranking, err := h.Pipeline.Duplicates(ctx, hash)
	if err != nil {
		h.Logger.Error("dupwatch_duplicates failed", "hash", hash, "error", err)
		return errorResult("Store error: %v", err), nil, nil
	}

	h.Logger.Info("dupwatch_duplicates", "hash", shortHash(hash), "files", len(set))
	return textResult(FormatDuplicateSet(set, ranking, h.RootDir)), nil, nil
}
