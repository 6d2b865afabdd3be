package tools

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/dupwatch/dedup"
)

// RescanArgs defines the input parameters for the dupwatch_rescan tool.
type RescanArgs struct{}

// RescanFunc runs a full scan plus stale-record prune.
// It is provided by main.go to avoid circular dependencies.
type RescanFunc func(ctx context.Context) (result dedup.ScanResult, pruned int, err error)

// RescanHandler holds the dependencies for the rescan tool.
type RescanHandler struct {
	DoRescan RescanFunc
	Logger   *slog.Logger
}

// Handle processes a dupwatch_rescan request.
func (h *RescanHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RescanArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("dupwatch_rescan started")

	result, pruned, err := h.DoRescan(ctx)
	if err != nil {
		h.Logger.Error("dupwatch_rescan failed", "error", err)
		return errorResult("Rescan error: %v", err), nil, nil
	}

	h.Logger.Info("dupwatch_rescan complete",
		"files", result.Files,
		"duplicates", result.Duplicates,
		"pruned", pruned,
		"elapsed", result.Duration,
	)

	return textResult(formatScanResult(result, pruned)), nil, nil
}
