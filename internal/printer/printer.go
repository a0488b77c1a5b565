// Package printer formats CLI output: colored status lines and tables.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Out is where status lines and tables go. Errors always go to stderr.
var Out io.Writer = os.Stdout

// Success prints a green line prefixed with a checkmark.
func Success(format string, a ...any) {
	green.Fprintf(Out, "✓ %s\n", strings.TrimSuffix(fmt.Sprintf(format, a...), "\n"))
}

// Info prints an uncolored line.
func Info(format string, a ...any) {
	fmt.Fprintf(Out, "%s\n", strings.TrimSuffix(fmt.Sprintf(format, a...), "\n"))
}

// Step prints a cyan progress line for multi-step commands.
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s\n", strings.TrimSuffix(fmt.Sprintf(format, a...), "\n"))
}

// Warning prints a yellow line.
func Warning(format string, a ...any) {
	yellow.Fprintf(Out, "! %s\n", strings.TrimSuffix(fmt.Sprintf(format, a...), "\n"))
}

// Error prints title, explanation and suggestions to stderr and returns a
// plain error for cobra, which runs with SilenceErrors.
func Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(os.Stderr, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", explanation)
	}
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(os.Stderr, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(os.Stderr, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}

// Table renders rows under headers.
func Table(headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(Out)
	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	table.Header(hdr...)
	for _, r := range rows {
		if err := table.Append(r); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	return table.Render()
}
