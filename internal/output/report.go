package output

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Summary is one line of a generation report.
type Summary struct {
	Year     int
	Category string
	Path     string
	Totals   map[string]int
	Elapsed  time.Duration
	Err      error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Report prints a styled summary of generated files to w.
func Report(w io.Writer, runID string, rows []Summary) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("astrocal run " + runID))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-6s %-16s %7s %9s  %s", "YEAR", "CATEGORY", "EVENTS", "ELAPSED", "FILE")))
	b.WriteString("\n")

	failed := 0
	for _, r := range rows {
		if r.Err != nil {
			failed++
			b.WriteString(fmt.Sprintf("%-6d %-16s ", r.Year, r.Category))
			b.WriteString(errStyle.Render("failed: " + r.Err.Error()))
			b.WriteString("\n")
			continue
		}
		b.WriteString(fmt.Sprintf("%-6d %-16s ", r.Year, r.Category))
		b.WriteString(countStyle.Render(fmt.Sprintf("%7d", r.Totals["total"])))
		b.WriteString(fmt.Sprintf(" %9s  ", r.Elapsed.Round(time.Millisecond)))
		b.WriteString(pathStyle.Render(r.Path))
		b.WriteString("\n")
		if kinds := breakdown(r.Totals); kinds != "" {
			b.WriteString(pathStyle.Render("       " + kinds))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if failed > 0 {
		b.WriteString(errStyle.Render(fmt.Sprintf("%d of %d failed", failed, len(rows))))
	} else {
		b.WriteString(okStyle.Render(fmt.Sprintf("%d files written", len(rows))))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// breakdown lists per-kind counts when a file holds more than one kind.
func breakdown(totals map[string]int) string {
	keys := slices.Sorted(maps.Keys(totals))
	var parts []string
	for _, k := range keys {
		if k == "total" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", k, totals[k]))
	}
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts, " ")
}
