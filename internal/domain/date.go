package domain

import "fmt"

// Provenance names the strategy that produced a DateEstimate.
type Provenance string

const (
	ProvenancePDFMetadata Provenance = "pdf-metadata"
	ProvenanceSelector    Provenance = "selector"
	ProvenanceHeading     Provenance = "heading/title"
	ProvenanceCopyright   Provenance = "copyright/footer"
	ProvenanceURL         Provenance = "url"
	ProvenanceBodyText    Provenance = "body-text"
	ProvenanceNone        Provenance = "none-found"
)

// DateEstimate is a best-effort (month, year) for a resource.
//
// When only a year could be recovered, Month is the month of the run, not the
// publication month, and YearOnly is set. Read it as "known to be true as of
// this year".
type DateEstimate struct {
	Month      int
	Year       int
	Provenance Provenance
	// Detail names the selector, tag, or metadata field that matched.
	Detail   string
	YearOnly bool
}

// NoDate is the estimate returned when every strategy failed.
func NoDate() DateEstimate {
	return DateEstimate{Provenance: ProvenanceNone}
}

// Found reports whether a date was recovered.
func (d DateEstimate) Found() bool {
	return d.Year > 0 && d.Provenance != ProvenanceNone
}

// String renders the estimate as "MM YYYY", or "-" when none was found.
func (d DateEstimate) String() string {
	if !d.Found() {
		return Placeholder
	}
	return fmt.Sprintf("%02d %d", d.Month, d.Year)
}

// Label is String with an "(year only)" suffix when the month was not
// recovered and comes from the run date.
func (d DateEstimate) Label() string {
	if d.Found() && d.YearOnly {
		return d.String() + " (year only)"
	}
	return d.String()
}

// Before orders estimates chronologically; a missing date sorts first.
func (d DateEstimate) Before(o DateEstimate) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	return d.Month < o.Month
}
