package cli

import (
	"fmt"
	"strings"
	"time"

	coreapp "umlc/internal/core/app"
	"umlc/internal/data/history"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// renderSummary lists each compiled source with its counts and diagnostics.
func renderSummary(update coreapp.Update, elapsed time.Duration) string {
	var b strings.Builder

	if update.FileCount == 0 {
		b.WriteString(warnStyle.Render("No diagram sources found."))
		b.WriteString("\n")
		return b.String()
	}

	for _, f := range update.Files {
		mark := successStyle.Render("ok  ")
		if !f.Result.Valid {
			mark = errorStyle.Render("FAIL")
		}
		fmt.Fprintf(&b, "%s %s  %s\n", mark, f.Path, statusStyle.Render(fmt.Sprintf(
			"%d entities, %d relationships, %d outputs",
			len(f.Result.Diagram.Entities), len(f.Result.Diagram.Relationships), len(f.Outputs))))
		for _, d := range f.Result.Diagnostics {
			fmt.Fprintf(&b, "     %s:%d:%d: %s\n", f.Path, d.Line, d.Column, d.Message)
		}
	}

	totals := fmt.Sprintf("%d sources, %d entities, %d relationships in %s",
		update.FileCount, update.EntityCount, update.RelationshipCount, elapsed.Round(time.Millisecond))
	if update.InvalidCount == 0 {
		b.WriteString(successStyle.Render("All sources compiled cleanly") + " | " + totals + "\n")
	} else {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d sources with %d diagnostics", update.InvalidCount, update.DiagnosticCount)) +
			" | " + totals + "\n")
	}
	return b.String()
}

func renderTrend(report history.TrendReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trend for %s (%d runs, window %s)\n", report.Source, report.RunCount, report.Window)
	fmt.Fprintf(&b, "%-20s %-6s %9s %9s %9s %11s %8s\n", "timestamp", "valid", "entities", "implicit", "rels", "diagnostics", "avg")
	for _, p := range report.Points {
		valid := "yes"
		if !p.Valid {
			valid = "no"
		}
		fmt.Fprintf(&b, "%-20s %-6s %4d (%+d) %4d (%+d) %4d (%+d) %5d (%+d) %8.2f\n",
			p.Timestamp.Format("2006-01-02 15:04:05"), valid,
			p.EntityCount, p.DeltaEntities,
			p.ImplicitCount, p.DeltaImplicit,
			p.RelationshipCount, p.DeltaRelationships,
			p.DiagnosticCount, p.DeltaDiagnostics,
			p.AvgDiagnostics)
	}
	return b.String()
}
