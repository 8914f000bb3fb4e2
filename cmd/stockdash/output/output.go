// Package output prints styled messages and tables for the non-interactive
// commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	currentStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true)
)

// Stdout is where messages and tables go. Tests replace it.
var Stdout io.Writer = os.Stdout

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Fprint(Stdout, successStyle.Render("✓ "))
	fmt.Fprintf(Stdout, format+"\n", args...)
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Fprint(Stdout, warningStyle.Render("⚠ "))
	fmt.Fprintf(Stdout, format+"\n", args...)
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Fprint(Stdout, errorStyle.Render("✗ "))
	fmt.Fprintf(Stdout, format+"\n", args...)
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Fprint(Stdout, infoStyle.Render("ℹ "))
	fmt.Fprintf(Stdout, format+"\n", args...)
}

// Muted prints a muted message
func Muted(format string, args ...interface{}) {
	fmt.Fprintln(Stdout, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header
func Section(title string) {
	fmt.Fprintln(Stdout)
	fmt.Fprintln(Stdout, primaryStyle.Render(title))
	fmt.Fprintln(Stdout, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
	fmt.Fprintln(Stdout)
}

// StockIcon returns a colored stock status icon.
func StockIcon(status string) string {
	switch status {
	case "In Stock":
		return successStyle.Render("●")
	case "Low Stock":
		return warningStyle.Render("▲")
	case "Out of Stock":
		return errorStyle.Render("✗")
	default:
		return mutedStyle.Render("•")
	}
}

// Table prints rows aligned under headers.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	_, _ = fmt.Fprintln(w, strings.Join(dashes, "\t"))
	for _, r := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	_ = w.Flush()
}

// Pager prints the page position and the page numbers to offer.
func Pager(page, total, matched int, window []int) {
	nums := make([]string, len(window))
	for i, n := range window {
		if n == page {
			nums[i] = currentStyle.Render(fmt.Sprint(n))
		} else {
			nums[i] = mutedStyle.Render(fmt.Sprint(n))
		}
	}
	fmt.Fprintf(Stdout, "\nPage %d of %d (%d matching)  %s\n", page, total, matched, strings.Join(nums, " "))
}

// JSON prints v as indented JSON.
func JSON(v any) error {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
