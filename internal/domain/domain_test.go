package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

func TestFailure_ErrorsAs(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("fetch page: %w", domain.NewFetchFailure("http", "http status 503", cause))

	f, ok := domain.AsFailure(wrapped)
	require.True(t, ok)
	assert.Equal(t, domain.FailureFetch, f.Kind)
	assert.Equal(t, "http status 503", f.Reason)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, domain.IsKind(wrapped, domain.FailureFetch))
	assert.False(t, domain.IsKind(wrapped, domain.FailureScoring))
	assert.Contains(t, f.Error(), "http status 503")
}

func TestFailedResource_Kind(t *testing.T) {
	t.Parallel()

	r := domain.InvalidPDFResource("https://a.com/x.pdf", domain.ViaHTTP)
	assert.Equal(t, domain.KindInvalidPDF, r.Kind)
	assert.True(t, domain.IsKind(r.Failure, domain.FailureInvalidDocument))
	assert.False(t, r.OK())

	r = domain.FailedResource("https://a.com", domain.ViaRender, domain.NewFetchFailure("render", "timeout", nil))
	assert.Equal(t, domain.KindFetchFailed, r.Kind)
}

func TestDateEstimate_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "03 2024", domain.DateEstimate{Month: 3, Year: 2024, Provenance: domain.ProvenanceSelector}.String())
	assert.Equal(t, "-", domain.NoDate().String())
	assert.False(t, domain.NoDate().Found())
}

func TestRelevanceVerdict_Stronger(t *testing.T) {
	t.Parallel()

	low := domain.RelevanceVerdict{Verdict: domain.Relevant, Tier: domain.TierLow, Score: 0.9}
	high := domain.RelevanceVerdict{Verdict: domain.Relevant, Tier: domain.TierHigh, Score: 0.2}
	notRel := domain.RelevanceVerdict{Verdict: domain.NotRelevant, Tier: domain.TierLow, Score: 0.99}

	assert.True(t, high.Stronger(low))
	assert.True(t, low.Stronger(notRel))
	assert.False(t, notRel.Stronger(low))
	assert.False(t, high.Stronger(high))
}

func TestNewRecord_Placeholders(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := domain.Evidence{
		Keyword: "azure",
		Verdict: domain.GateVerdict("Keyword not found on any crawled page."),
		Date:    domain.NoDate(),
	}

	rec := domain.NewRecord("run-1", domain.Company{Name: "Acme"}, e, 10, at)
	assert.Equal(t, "-", rec.URL)
	assert.Equal(t, "-", rec.Window)
	assert.Equal(t, "-", rec.Date)
	assert.Equal(t, "none-found", rec.DateProvenance)
	assert.Equal(t, "NOT_RELEVANT", rec.Verdict)
	assert.Len(t, rec.Row(), len(domain.RecordHeader))
}

func TestNewRecord_YearOnlyDateIsMarkedApproximate(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	exact := domain.DateEstimate{Month: 6, Year: 2024, Provenance: domain.ProvenanceCopyright}
	approx := exact
	approx.YearOnly = true

	verdict := domain.RelevanceVerdict{Verdict: domain.Relevant, Tier: domain.TierHigh}
	exactRec := domain.NewRecord("run-1", domain.Company{Name: "Acme"}, domain.Evidence{Keyword: "aws", Verdict: verdict, Date: exact}, 0, at)
	approxRec := domain.NewRecord("run-1", domain.Company{Name: "Acme"}, domain.Evidence{Keyword: "aws", Verdict: verdict, Date: approx}, 0, at)

	assert.False(t, exactRec.DateApproximate)
	assert.True(t, approxRec.DateApproximate)
	assert.NotEqual(t, exactRec.Row(), approxRec.Row())

	col := -1
	for i, h := range domain.RecordHeader {
		if h == "date_approximate" {
			col = i
		}
	}
	require.GreaterOrEqual(t, col, 0)
	assert.Equal(t, "true", approxRec.Row()[col])
	assert.Equal(t, "false", exactRec.Row()[col])

	assert.Equal(t, "06 2024", exact.Label())
	assert.Equal(t, "06 2024 (year only)", approx.Label())
	assert.Equal(t, "-", domain.DateEstimate{YearOnly: true, Provenance: domain.ProvenanceNone}.Label())
}

func TestTruncate_Runes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "héll", domain.Truncate("héllo", 4))
	assert.Equal(t, "hi", domain.Truncate("hi", 10))
	assert.Equal(t, "abc", domain.Truncate("abc", 0))
}

func TestCompanyRecord_Summarize(t *testing.T) {
	t.Parallel()

	rec := domain.NewCompanyRecord(domain.Company{Name: "Acme"})
	relevant := domain.RelevanceVerdict{Verdict: domain.Relevant, Tier: domain.TierHigh}
	rec.Add(domain.Evidence{Keyword: "aws", Verdict: relevant, Date: domain.DateEstimate{Month: 2, Year: 2023, Provenance: domain.ProvenanceURL}})
	rec.Add(domain.Evidence{Keyword: "gcp", Verdict: relevant, Date: domain.DateEstimate{Month: 9, Year: 2023, Provenance: domain.ProvenanceURL}})
	rec.Add(domain.Evidence{Keyword: "azure", Verdict: relevant, Date: domain.DateEstimate{Month: 1, Year: 2025, Provenance: domain.ProvenanceSelector}})
	rec.Add(domain.Evidence{Keyword: "oci", Verdict: domain.GateVerdict("x"), Date: domain.DateEstimate{Month: 5, Year: 2025, Provenance: domain.ProvenanceSelector}})

	s := rec.Summarize(2025)
	require.NotNil(t, s.Latest)
	require.NotNil(t, s.Previous)
	assert.Equal(t, "azure", s.Latest.Keyword)
	assert.Equal(t, "gcp", s.Previous.Keyword)
	assert.Equal(t, 3, rec.RelevantCount())
}
