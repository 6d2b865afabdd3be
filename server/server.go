package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/dupwatch/tools"
)

// Version is reported to MCP clients.
const Version = "0.3.0"

// Handlers bundles the tool handlers registered by Setup.
type Handlers struct {
	Duplicates *tools.DuplicatesHandler
	Files      *tools.FilesHandler
	Status     *tools.StatusHandler
	Check      *tools.CheckHandler
	Rescan     *tools.RescanHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(handlers Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "dupwatch",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server tracks duplicate files under a working directory. Every file is fingerprinted (SHA-512) once and re-hashed only when its modification time advances, so queries are answered from the hash store without reading file contents.

Use these tools to:
- find copies of a file before editing or deleting it (dupwatch_duplicates)
- list recorded files by glob (dupwatch_files)
- hash a single new file and see whether it already exists elsewhere (dupwatch_check)
- see how much space duplicates take (dupwatch_status)
The store follows the filesystem automatically while the watcher runs.`,
		},
	)

	// Register dupwatch_duplicates tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "dupwatch_duplicates",
		Description: `List the files that are byte-identical to a given file (path) or carry a given content hash.

The set is ranked by the configured delete_score preferences: the last entry is the copy that would be kept, the others would be removed. Files that vanished from disk are dropped from the store on the way.`,
	}, handlers.Duplicates.Handle)

	// Register dupwatch_files tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "dupwatch_files",
		Description: `Find recorded files by glob pattern, relative to the working directory.

Pattern examples:
  - "**/*.jpg" - all JPEG files
  - "photos/**" - everything under photos/
  - "/abs/path/**" - absolute patterns are used as is`,
	}, handlers.Files.Handle)

	// Register dupwatch_check tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "dupwatch_check",
		Description: "Hash one file, record it, and report its duplicates with their retention scores. Never deletes anything, whatever the configured action.",
	}, handlers.Check.Handle)

	// Register dupwatch_status tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "dupwatch_status",
		Description: "Show store status: recorded files, total size, duplicate sets, reclaimable space, action and current run counters.",
	}, handlers.Status.Handle)

	// Register dupwatch_rescan tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "dupwatch_rescan",
		Description: "Run a full scan of the working directory with the configured action and prune records of files that no longer exist.",
	}, handlers.Rescan.Handle)

	return mcpServer
}
