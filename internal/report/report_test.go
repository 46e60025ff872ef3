package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/pipeline"
	"github.com/jonesrussell/north-cloud/evidence/internal/report"
)

func TestPreview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "empty", in: "  \n ", width: 10, want: "-"},
		{name: "collapses whitespace", in: "a\n\n b\tc", width: 10, want: "a b c"},
		{name: "fits", in: "hello", width: 5, want: "hello"},
		{name: "truncated", in: "hello world", width: 8, want: "hello w…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, report.Preview(tt.in, tt.width))
		})
	}
}

func TestPreview_WideRunes(t *testing.T) {
	t.Parallel()

	got := report.Preview(strings.Repeat("日本", 10), 9)

	assert.LessOrEqual(t, runewidth.StringWidth(got), 9)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestRenderEvidence(t *testing.T) {
	t.Parallel()

	evidence := []domain.Evidence{
		{
			Keyword: "widgetly",
			URL:     "https://acme.com/news",
			Verdict: domain.RelevanceVerdict{
				Verdict:     domain.Relevant,
				Tier:        domain.TierHigh,
				Score:       0.42,
				Explanation: "Partnership announced.",
				Window:      domain.EvidenceWindow{Text: "Acme partners with Widgetly"},
			},
			Date: domain.DateEstimate{Month: 3, Year: 2024, Provenance: domain.ProvenanceSelector},
		},
		{Keyword: "gizmo", Verdict: domain.GateVerdict("Keyword not found."), Date: domain.NoDate()},
		{
			Keyword: "sprocket",
			Verdict: domain.GateVerdict("Score too low."),
			Date:    domain.DateEstimate{Month: 6, Year: 2023, Provenance: domain.ProvenanceCopyright, YearOnly: true},
		},
	}

	var buf bytes.Buffer
	report.RenderEvidence(&buf, domain.Company{Name: "Acme"}, evidence)
	out := buf.String()

	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "widgetly")
	assert.Contains(t, out, "RELEVANT")
	assert.Contains(t, out, "0.420")
	assert.Contains(t, out, "03 2024")
	assert.Contains(t, out, "NOT_RELEVANT")
	assert.Contains(t, out, "Keyword not found.")
	assert.Contains(t, out, "06 2023 (year only)")
}

func TestRenderStats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report.RenderStats(&buf, pipeline.RunStats{
		RunID:     "run-7",
		Companies: 4,
		Processed: 3,
		Skipped:   1,
		Records:   9,
		Elapsed:   1500 * time.Millisecond,
	})
	out := buf.String()

	assert.Contains(t, out, "run-7")
	assert.Contains(t, out, "Records written")
	assert.Contains(t, out, "1.5s")
}
