package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

type statusStyle struct {
	label string
	color string
}

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
)

var statusStyles = map[statusKind]statusStyle{
	statusOK:    {label: "OK", color: "\x1b[32m"},
	statusWarn:  {label: "WARN", color: "\x1b[33m"},
	statusError: {label: "FAILED", color: "\x1b[31m"},
}

// statusLabelWidth fits the longest row label used by the commands
// ("clients root:").
const statusLabelWidth = 14

// renderStatusLine formats one "  label:  [OK] message" row of a command
// report. Only the bracketed status is colored so labels stay aligned.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	status := "[" + style.label + "]"
	if colorize && style.color != "" {
		status = style.color + status + ansiReset
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", status)
	if message != "" {
		line += " " + message
	}
	return line
}

// printSection writes a bold title underlined to its width.
func printSection(out io.Writer, title string) {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("=", len(title))
	if shouldColorize(out) {
		title = ansiBold + title + ansiReset
	}
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, rule)
}

// shouldColorize reports whether out is an interactive terminal and the user
// has not opted out with NO_COLOR.
func shouldColorize(out io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	file, ok := out.(*os.File)
	return ok && isTerminal(file)
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
