package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/lexandro/dupwatch/dedup"
)

// reportPrinter echoes report lines as they are added, coloured by kind.
type reportPrinter struct {
	mu     sync.Mutex
	out    io.Writer
	colors map[dedup.EntryKind]*color.Color
}

func newReportPrinter(out io.Writer) *reportPrinter {
	colors := map[dedup.EntryKind]*color.Color{
		dedup.KindDuplicate:   color.New(color.FgCyan),
		dedup.KindWouldRemove: color.New(color.FgYellow),
		dedup.KindWouldKeep:   color.New(color.FgGreen),
		dedup.KindRemoved:     color.New(color.FgRed, color.Bold),
		dedup.KindKept:        color.New(color.FgGreen),
		dedup.KindChanged:     color.New(color.FgMagenta),
		dedup.KindSkipped:     color.New(color.FgHiBlack),
		dedup.KindFailed:      color.New(color.FgRed),
	}
	return &reportPrinter{out: out, colors: colors}
}

func (p *reportPrinter) Print(entry dedup.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.colors[entry.Kind]; ok {
		c.Fprintln(p.out, entry.Text)
		return
	}
	fmt.Fprintln(p.out, entry.Text)
}

// printSummary writes the end-of-scan totals.
func printSummary(out io.Writer, result dedup.ScanResult, report *dedup.Report) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(out, "\n%s %d files in %s\n", cyan("Scanned"), result.Files, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  with duplicates: %d\n", result.Duplicates)
	if n := report.Count(dedup.KindRemoved); n > 0 {
		fmt.Fprintf(out, "  deleted:         %s\n", color.RedString("%d", n))
	}
	if n := report.Count(dedup.KindWouldRemove); n > 0 {
		fmt.Fprintf(out, "  would delete:    %s\n", color.YellowString("%d", n))
	}
	if result.Ignored > 0 {
		fmt.Fprintf(out, "  ignored:         %d\n", result.Ignored)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(out, "  skipped:         %s\n", color.YellowString("%d", result.Skipped))
	}
}
