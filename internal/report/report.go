// Package report renders evidence and run statistics as terminal tables.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/pipeline"
)

const (
	// WindowPreviewWidth is the display width of the window column.
	WindowPreviewWidth = 80
	explanationWidth   = 60
	urlWidth           = 50
	ellipsis           = "…"
)

// Preview collapses whitespace in s and truncates it to width display
// cells. Wide runes count double.
func Preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return domain.Placeholder
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Options.SeparateRows = true
	return t
}

// RenderEvidence writes one row per evidence item for company.
func RenderEvidence(w io.Writer, company domain.Company, evidence []domain.Evidence) {
	t := newTable(w)
	t.SetTitle(company.Name)
	t.AppendHeader(table.Row{"Keyword", "Verdict", "Tier", "Score", "Date", "URL", "Explanation", "Window"})

	relevant := 0
	for _, ev := range evidence {
		if ev.Verdict.Verdict == domain.Relevant {
			relevant++
		}
		t.AppendRow(table.Row{
			ev.Keyword,
			ev.Verdict.Verdict,
			ev.Verdict.Tier,
			fmt.Sprintf("%.3f", ev.Verdict.Score),
			ev.Date.Label(),
			Preview(ev.URL, urlWidth),
			Preview(ev.Verdict.Explanation, explanationWidth),
			Preview(ev.Verdict.Window.Text, WindowPreviewWidth),
		})
	}

	t.AppendFooter(table.Row{"Total", len(evidence), "Relevant", relevant})
	t.Render()
}

// RenderStats writes the run summary.
func RenderStats(w io.Writer, stats pipeline.RunStats) {
	t := newTable(w)
	t.SetTitle("Run " + stats.RunID)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Companies", stats.Companies},
		{"Skipped (already processed)", stats.Skipped},
		{"Processed", stats.Processed},
		{"Incomplete", stats.Incomplete},
		{"Keywords", stats.KeywordCount},
		{"Records written", stats.Records},
		{"Relevant", stats.Relevant},
		{"Write errors", stats.WriteErrors},
		{"Workers", stats.WorkersUsed},
		{"Elapsed", stats.Elapsed.Round(time.Millisecond)},
		{"Cancelled", stats.Cancelled},
	})
	t.Render()
}
