package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/dupwatch/dedup"
)

// CheckArgs defines the input parameters for the dupwatch_check tool.
type CheckArgs struct {
	Path string `json:"path" jsonschema:"File to hash, record and compare against known files"`
}

// CheckHandler holds the dependencies for the check tool.
type CheckHandler struct {
	Scanner *dedup.Scanner
	RootDir string
	Logger  *slog.Logger
}

// Handle processes a dupwatch_check request. The file is recorded but no
// configured action runs.
func (h *CheckHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args CheckArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		return errorResult("Error: path parameter is required"), nil, nil
	}

	outcome, err := h.Scanner.Check(ctx, args.Path)
	if err != nil {
		h.Logger.Error("dupwatch_check failed", "path", args.Path, "error", err)
		return errorResult("Check error: %v", err), nil, nil
	}
	if outcome == nil {
		return textResult(fmt.Sprintf("%s is a directory or ignored.", args.Path)), nil, nil
	}

	h.Logger.Info("dupwatch_check",
		"path", outcome.Record.Path,
		"computed", outcome.Computed,
		"duplicates", len(outcome.Duplicates),
	)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s\n", displayPath(outcome.Record.Path, h.RootDir)))
	builder.WriteString(fmt.Sprintf("  size: %s\n", formatFileSize(outcome.Record.Size)))
	builder.WriteString(fmt.Sprintf("  hash: %s\n", outcome.Record.Hash))
	if outcome.Computed {
		builder.WriteString("  hash computed from content\n")
	} else {
		builder.WriteString("  hash reused from store (modification time unchanged)\n")
	}
	if outcome.Changed {
		builder.WriteString("  content changed since last seen\n")
	}
	builder.WriteString("\n")
	builder.WriteString(FormatDuplicateSet(outcome.Duplicates, outcome.Ranking, h.RootDir))

	return textResult(builder.String()), nil, nil
}
