package tools

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/dupwatch/dedup"
	"github.com/lexandro/dupwatch/store"
)

// FormatDuplicateSet formats a ranked duplicate set, most disposable first.
// The last line is the copy that would be kept.
func FormatDuplicateSet(set []store.FileRecord, ranking []dedup.Ranked, rootDir string) string {
	if len(set) < 2 {
		return "No duplicates."
	}

	sizes := make(map[string]int64, len(set))
	for _, record := range set {
		sizes[record.Path] = record.Size
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d identical files (%s each, hash %s):\n\n",
		len(set), formatFileSize(set[0].Size), shortHash(set[0].Hash)))

	for i, ranked := range ranking {
		marker := "remove"
		if i == len(ranking)-1 {
			marker = "keep"
		}
		builder.WriteString(fmt.Sprintf("  [%-6s] score %-3d %s\n", marker, ranked.Score, displayPath(ranked.Path, rootDir)))
	}

	wasted := int64(len(set)-1) * set[0].Size
	builder.WriteString(fmt.Sprintf("\nReclaimable: %s\n", formatFileSize(wasted)))
	return builder.String()
}

// FormatFileRecords formats stored records as human-readable text.
func FormatFileRecords(records []store.FileRecord, nameOnly bool, rootDir string) string {
	if len(records) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(records)))

	for _, record := range records {
		path := displayPath(record.Path, rootDir)
		if nameOnly {
			builder.WriteString(path)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s, %s, modified %s)\n",
			path,
			formatFileSize(record.Size),
			shortHash(record.Hash),
			record.ModTime().UTC().Format(time.RFC3339),
		))
	}

	return builder.String()
}

// displayPath shows paths under rootDir relative to it.
func displayPath(path, rootDir string) string {
	if rootDir == "" {
		return path
	}
	relativePath, err := filepath.Rel(rootDir, path)
	if err != nil || strings.HasPrefix(relativePath, "..") {
		return path
	}
	return filepath.ToSlash(relativePath)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024*1024:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(1024*1024*1024))
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func formatScanResult(result dedup.ScanResult, pruned int) string {
	return fmt.Sprintf("rescanned: %d files in %s (%d with duplicates, %d ignored, %d skipped, %d stale records pruned)",
		result.Files, formatDuration(result.Duration), result.Duplicates, result.Ignored, result.Skipped, pruned)
}
