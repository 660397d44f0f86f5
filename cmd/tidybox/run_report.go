package main

import (
	"fmt"
	"io"
	"strconv"

	"tidybox/internal/organizer"
	"tidybox/internal/plan"
)

// maxListedFailures caps how many failed rows are echoed to the terminal;
// the log always has all of them.
const maxListedFailures = 20

func printRunReport(out io.Writer, title string, report organizer.Report) {
	colorize := shouldColorize(out)
	printSection(out, title)

	okLabel := "Succeeded"
	switch {
	case report.DryRun:
		okLabel = "Would succeed"
	case report.Kind == plan.LogUndone:
		okLabel = "Undone"
	}
	fmt.Fprintln(out, renderTotals([][2]string{
		{okLabel, strconv.Itoa(report.Succeeded)},
		{"Failed", strconv.Itoa(report.Failed)},
	}, [2]string{"Rows", strconv.Itoa(report.Succeeded + report.Failed)}))

	failed := report.FailedRecords()
	for i, rec := range failed {
		if i == maxListedFailures {
			fmt.Fprintf(out, "  ... and %d more\n", len(failed)-i)
			break
		}
		fmt.Fprintln(out, renderStatusLine(rec.Filename, statusError, report.Outcome(rec).Reason, colorize))
	}
	if report.LogPath != "" {
		fmt.Fprintf(out, "\nLog written to %s\n", report.LogPath)
	}
}
