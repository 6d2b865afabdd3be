package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lexandro/dupwatch/config"
	"github.com/lexandro/dupwatch/dedup"
)

var (
	configPath string
	logLevel   string
	logFile    string
	actionFlag string
	watchFlag  bool
	noColor    bool
)

var errUsage = errors.New("USAGE: dupwatch PATH_TO_CHECK (or provide " + config.DefaultFileName + ")")

var rootCmd = &cobra.Command{
	Use:   "dupwatch [path]",
	Short: "Find and remove duplicate files",
	Long: `Scan a directory tree for byte-identical files and apply the configured action.

Every file is fingerprinted with SHA-512; fingerprints are kept in a store keyed by
path and only recomputed when a file's modification time advances.

Actions (config key "action" or --action):
  D  delete every copy but the one ranked highest by delete_score
  T  list what would be deleted and kept
  S  like T, then stop with exit status 1
  *  anything else only lists identical pairs

Settings come from ` + config.DefaultFileName + ` in the current directory (or --config).
Without a config file a single PATH argument is scanned in report-only mode.

Examples:
  dupwatch ~/Pictures                 # report duplicates
  dupwatch --action T ~/Pictures      # dry run
  dupwatch --watch                    # scan working_dir, then follow changes`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
	RunE: runScan,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: ./"+config.DefaultFileName+")")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (default: info)")
	flags.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	flags.StringVar(&actionFlag, "action", "", "Override the configured action: D|T|S|R")
	flags.BoolVar(&noColor, "no-color", false, "Disable coloured report output")

	rootCmd.Flags().BoolVar(&watchFlag, "watch", false, "Keep running after the scan and react to file changes")

	rootCmd.AddCommand(checkCmd, mcpCmd, initCmd, registerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, dedup.ErrStopAfterTest) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// loadSettings reads the config file and applies positional and flag overrides.
// A missing default config file falls back to report-only mode over args[0],
// or over fallbackDir when no argument is given; without either it is a usage error.
func loadSettings(cmd *cobra.Command, args []string, fallbackDir string) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultFileName
	}

	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, config.ErrNotFound) && configPath == "":
		if len(args) == 0 && fallbackDir == "" {
			return nil, errUsage
		}
		cfg = config.Default()
		cfg.WorkingDir = fallbackDir
		cfg.Action = ""
	default:
		return nil, err
	}

	if len(args) > 0 {
		cfg.WorkingDir = args[0]
	}
	if actionFlag != "" {
		cfg.Action = actionFlag
	}
	if f := cmd.Flags().Lookup("watch"); f != nil && f.Changed {
		cfg.Watchdog = watchFlag
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, &config.Error{Path: path, Err: err}
	}
	return cfg, nil
}

// setupLogger creates an slog.Logger writing to stderr or a file.
// Logs never go to stdout: it carries the report and, in mcp mode, the protocol.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
