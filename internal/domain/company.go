package domain

// Company identifies the subject of an investigation.
type Company struct {
	Name string `json:"name"`
	// Domain is the normalized host (lowercase, no scheme, no "www.").
	Domain string `json:"domain"`
	// URL is the entry point for the company, always absolute.
	URL     string `json:"url"`
	Country string `json:"country,omitempty"`
}

// Keyword is a technology term and the provider it belongs to.
type Keyword struct {
	Term     string `json:"term"`
	Provider string `json:"provider"`
}

// CompanyRecord owns the evidence gathered for one company, in keyword order.
type CompanyRecord struct {
	Company  Company
	Evidence []Evidence
}

// NewCompanyRecord creates an empty record for c.
func NewCompanyRecord(c Company) *CompanyRecord {
	return &CompanyRecord{Company: c}
}

// Add appends the evidence for one keyword.
func (r *CompanyRecord) Add(e Evidence) {
	r.Evidence = append(r.Evidence, e)
}

// RelevantCount returns how many keywords produced a RELEVANT verdict.
func (r *CompanyRecord) RelevantCount() int {
	n := 0
	for _, e := range r.Evidence {
		if e.Verdict.Verdict == Relevant {
			n++
		}
	}
	return n
}

// Summary is the previous/latest dated relevant evidence for a company.
type Summary struct {
	Company  string
	Previous *Evidence
	Latest   *Evidence
}

// Summarize picks the newest relevant dated evidence of currentYear as Latest
// and the newest from earlier years as Previous.
func (r *CompanyRecord) Summarize(currentYear int) Summary {
	s := Summary{Company: r.Company.Name}

	for i := range r.Evidence {
		e := &r.Evidence[i]
		if e.Verdict.Verdict != Relevant || !e.Date.Found() {
			continue
		}

		switch {
		case e.Date.Year == currentYear:
			if s.Latest == nil || s.Latest.Date.Before(e.Date) {
				s.Latest = e
			}
		case e.Date.Year < currentYear:
			if s.Previous == nil || s.Previous.Date.Before(e.Date) {
				s.Previous = e
			}
		}
	}

	return s
}
