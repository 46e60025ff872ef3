package dates_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/evidence/internal/dates"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func newEngine() *dates.Engine {
	return dates.New(dates.Config{}, dates.WithClock(fixedClock))
}

func htmlResource(url, html, text string) *domain.Resource {
	return &domain.Resource{URL: url, Kind: domain.KindHTML, HTML: html, Text: text}
}

func TestInfer_Cascade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		res        *domain.Resource
		want       string
		provenance domain.Provenance
		yearOnly   bool
	}{
		{
			name: "pdf metadata compact date",
			res: &domain.Resource{
				URL:  "https://acme.com/brochure.pdf",
				Kind: domain.KindPDF,
				Text: "Published 2019",
				Meta: map[string]string{domain.MetaModDate: "D:20230412101010Z"},
			},
			want:       "04 2023",
			provenance: domain.ProvenancePDFMetadata,
		},
		{
			name: "pdf creation date when mod date unusable",
			res: &domain.Resource{
				URL:  "https://acme.com/brochure.pdf",
				Kind: domain.KindPDF,
				Meta: map[string]string{domain.MetaModDate: "garbage", domain.MetaCreationDate: "D:20210102"},
			},
			want:       "01 2021",
			provenance: domain.ProvenancePDFMetadata,
		},
		{
			name: "time datetime attribute",
			res: htmlResource("https://acme.com/news/x",
				`<html><body><time datetime="2024-03-05T10:00:00Z">yesterday</time></body></html>`, "yesterday"),
			want:       "03 2024",
			provenance: domain.ProvenanceSelector,
		},
		{
			name: "selector order wins over document order",
			res: htmlResource("https://acme.com/x",
				`<html><body><time>January 2020</time><span class="pr-date">May 2, 2022</span></body></html>`, ""),
			want:       "05 2022",
			provenance: domain.ProvenanceSelector,
		},
		{
			name: "meta published time",
			res: htmlResource("https://acme.com/x",
				`<html><head><meta property="article:published_time" content="2023-11-02"></head><body>hi</body></html>`, "hi"),
			want:       "11 2023",
			provenance: domain.ProvenanceSelector,
		},
		{
			name: "heading after empty title",
			res: htmlResource("https://acme.com/x",
				`<html><head><title>Quarterly results</title></head><body><h1>March 2022 update</h1></body></html>`, ""),
			want:       "03 2022",
			provenance: domain.ProvenanceHeading,
		},
		{
			name: "footer copyright range takes latest year",
			res: htmlResource("https://acme.com/about",
				`<html><body><p>Hello</p><footer>© 2019-2024 Acme</footer></body></html>`, "Hello © 2019-2024 Acme"),
			want:       "06 2024",
			provenance: domain.ProvenanceCopyright,
			yearOnly:   true,
		},
		{
			name: "footer element before footer-like class",
			res: htmlResource("https://acme.com/about",
				`<html><body><div class="site-copyright">© 2023</div><footer>Copyright 2020 Acme</footer></body></html>`, ""),
			want:       "06 2020",
			provenance: domain.ProvenanceCopyright,
			yearOnly:   true,
		},
		{
			name: "copyright in plain text",
			res: &domain.Resource{
				URL:  "https://acme.com/sheet.xlsx",
				Kind: domain.KindSpreadsheet,
				Text: "Copyright 2018 Acme. (c) 2020 Acme Holdings",
			},
			want:       "06 2020",
			provenance: domain.ProvenanceCopyright,
			yearOnly:   true,
		},
		{
			name:       "url year and month",
			res:        htmlResource("https://acme.com/2021/09/partner", `<html><body><p>no dates</p></body></html>`, "no dates"),
			want:       "09 2021",
			provenance: domain.ProvenanceURL,
		},
		{
			name:       "url bare year",
			res:        htmlResource("https://acme.com/press/acme-2022-results", `<html><body><p>x</p></body></html>`, "x"),
			want:       "06 2022",
			provenance: domain.ProvenanceURL,
			yearOnly:   true,
		},
		{
			name:       "body month day year beats earlier numeric date",
			res:        htmlResource("https://acme.com/x", "", "Posted 01/02/2023 and updated March 5th, 2021"),
			want:       "03 2021",
			provenance: domain.ProvenanceBodyText,
		},
		{
			name:       "body day month year uses second field as month",
			res:        htmlResource("https://acme.com/x", "", "Signed on 15-08-2022 in Pune"),
			want:       "08 2022",
			provenance: domain.ProvenanceBodyText,
		},
		{
			name:       "invalid month falls through to bare year",
			res:        htmlResource("https://acme.com/x", "", "Ref 2023-13-01"),
			want:       "06 2023",
			provenance: domain.ProvenanceBodyText,
			yearOnly:   true,
		},
		{
			name:       "future year skipped, scanning continues",
			res:        htmlResource("https://acme.com/x", "", "Vision 2099 builds on work started in 2021"),
			want:       "06 2021",
			provenance: domain.ProvenanceBodyText,
			yearOnly:   true,
		},
	}

	e := newEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.Infer(tt.res)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.provenance, got.Provenance)
			assert.Equal(t, tt.yearOnly, got.YearOnly)
		})
	}
}

func TestInfer_FutureYearNeverAccepted(t *testing.T) {
	t.Parallel()

	got := newEngine().Infer(htmlResource("https://acme.com/x", "", "the roadmap ends in 2099"))
	assert.Equal(t, domain.ProvenanceNone, got.Provenance)
	assert.Equal(t, "-", got.String())
}

func TestInfer_NoDateAnywhere(t *testing.T) {
	t.Parallel()

	res := htmlResource("https://acme.com/about",
		`<html><head><title>About</title></head><body><p>We build widgets.</p></body></html>`,
		"About We build widgets.")

	got := newEngine().Infer(res)
	assert.Equal(t, domain.NoDate(), got)
}

func TestInfer_FailedResource(t *testing.T) {
	t.Parallel()

	res := domain.FailedResource("https://acme.com/2021/01/x", domain.ViaHTTP, domain.NewFetchFailure("http", "timeout", nil))
	assert.Equal(t, domain.ProvenanceNone, newEngine().Infer(res).Provenance)
	assert.Equal(t, domain.ProvenanceNone, newEngine().Infer(nil).Provenance)
}

func TestInfer_Idempotent(t *testing.T) {
	t.Parallel()

	e := newEngine()
	res := htmlResource("https://acme.com/blog/2020/04/post",
		`<html><body><h2>Partner update</h2><footer>© 2017-2019</footer></body></html>`, "Partner update © 2017-2019")

	first := e.Infer(res)
	second := e.Infer(res)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.ProvenanceCopyright, first.Provenance)
}
