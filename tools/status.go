package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/dupwatch/dedup"
	"github.com/lexandro/dupwatch/store"
)

// StatusArgs defines the input parameters for the dupwatch_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Records   store.Enumerator
	Report    *dedup.Report
	Action    dedup.Action
	Backend   string
	StartTime time.Time
	RootDir   string
	Logger    *slog.Logger
}

// Handle processes a dupwatch_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	records, err := h.Records.AllRecords(ctx)
	if err != nil {
		h.Logger.Error("dupwatch_status failed", "error", err)
		return errorResult("Store error: %v", err), nil, nil
	}

	stats := summarize(records)
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("dupwatch_status",
		"files", len(records),
		"totalSize", stats.totalSize,
		"duplicateSets", stats.sets,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	var builder strings.Builder
	builder.WriteString("=== dupwatch Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Store backend: %s\n", h.Backend))
	builder.WriteString(fmt.Sprintf("Action: %s\n", h.Action))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Recorded files: %d\n", len(records)))
	builder.WriteString(fmt.Sprintf("Total recorded size: %s\n", formatFileSize(stats.totalSize)))
	builder.WriteString(fmt.Sprintf("Duplicate sets: %d (%d files, %s reclaimable)\n",
		stats.sets, stats.duplicateFiles, formatFileSize(stats.reclaimable)))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	if h.Report != nil {
		builder.WriteString(fmt.Sprintf("\nRun %s:\n", h.Report.RunID()))
		builder.WriteString(fmt.Sprintf("  duplicates reported: %d\n", h.Report.Count(dedup.KindDuplicate)))
		builder.WriteString(fmt.Sprintf("  would delete:        %d\n", h.Report.Count(dedup.KindWouldRemove)))
		builder.WriteString(fmt.Sprintf("  deleted:             %d\n", h.Report.Count(dedup.KindRemoved)))
		builder.WriteString(fmt.Sprintf("  failed:              %d\n", h.Report.Count(dedup.KindFailed)))
	}

	return textResult(builder.String()), nil, nil
}

type recordStats struct {
	totalSize      int64
	sets           int
	duplicateFiles int
	reclaimable    int64
}

// summarize groups records by hash as stored; vanished files are not checked.
func summarize(records []store.FileRecord) recordStats {
	var stats recordStats
	byHash := make(map[string][]store.FileRecord)
	for _, record := range records {
		stats.totalSize += record.Size
		byHash[record.Hash] = append(byHash[record.Hash], record)
	}
	for _, group := range byHash {
		if len(group) < 2 {
			continue
		}
		stats.sets++
		stats.duplicateFiles += len(group)
		stats.reclaimable += int64(len(group)-1) * group[0].Size
	}
	return stats
}
