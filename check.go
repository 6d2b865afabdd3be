package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lexandro/dupwatch/tools"
)

var checkCmd = &cobra.Command{
	Use:   "check PATH...",
	Short: "Hash files and show their known duplicates without acting",
	Long: `Fingerprint each given file, record it in the store and list the files it
duplicates, ranked by delete_score. The configured action is never applied.

Examples:
  dupwatch check ~/Downloads/IMG_0042.jpg
  dupwatch check --config /etc/dupwatch.yaml a.iso b.iso`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, nil, ".")
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)
	ctx := context.Background()

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	failed := 0
	for _, path := range args {
		outcome, err := a.scanner.Check(ctx, path)
		if err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", color.RedString("error"), path, err)
			failed++
			continue
		}
		if outcome == nil {
			fmt.Fprintf(out, "%s %s: directory or ignored\n", color.YellowString("skipped"), path)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", cyan("==>"), outcome.Record.Path)
		fmt.Fprintln(out, tools.FormatDuplicateSet(outcome.Duplicates, outcome.Ranking, a.rootDir))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be checked", failed, len(args))
	}
	return nil
}
