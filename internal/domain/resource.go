// Package domain defines the entities that flow through the evidence pipeline.
package domain

// ContentKind classifies a fetched resource.
type ContentKind string

const (
	KindHTML        ContentKind = "html"
	KindPDF         ContentKind = "pdf"
	KindSpreadsheet ContentKind = "spreadsheet"
	KindDocx        ContentKind = "docx"
	KindUnsupported ContentKind = "unsupported"
	KindFetchFailed ContentKind = "fetch_failed"
	KindInvalidPDF  ContentKind = "invalid_pdf"
)

// IsDocument reports whether the kind was decoded by a document extractor.
func (k ContentKind) IsDocument() bool {
	return k == KindPDF || k == KindSpreadsheet || k == KindDocx
}

// IsFailure reports whether the resource carries no usable content.
func (k ContentKind) IsFailure() bool {
	return k == KindFetchFailed || k == KindInvalidPDF
}

// FetchPath records which transfer produced a resource.
type FetchPath string

const (
	ViaHTTP   FetchPath = "http"
	ViaRender FetchPath = "render"
	ViaCache  FetchPath = "cache"
)

// PDF info dictionary keys captured into Resource.Meta.
const (
	MetaModDate      = "ModDate"
	MetaCreationDate = "CreationDate"
)

// Resource is one fetched unit of content. It lives for a single
// fetch-classify cycle and is never persisted.
type Resource struct {
	URL         string
	Kind        ContentKind
	ContentType string
	Via         FetchPath
	// Raw holds the undecoded payload for document kinds.
	Raw []byte
	// HTML holds the page markup for html resources.
	HTML  string
	Title string
	// Text is the extracted plain-text body.
	Text string
	// Meta carries structured document metadata such as PDF dates.
	Meta    map[string]string
	Failure *Failure
}

// OK reports whether the resource was fetched and decoded.
func (r *Resource) OK() bool {
	return r != nil && r.Failure == nil && !r.Kind.IsFailure()
}

// FailedResource builds the resource returned when content could not be
// loaded or decoded. The failure's Reason is what users see.
func FailedResource(url string, via FetchPath, f *Failure) *Resource {
	return &Resource{URL: url, Kind: KindFetchFailed, Via: via, Failure: f}
}

// InvalidPDFResource builds the resource for a payload served as PDF that
// does not start with the %PDF signature. No extraction is attempted.
func InvalidPDFResource(url string, via FetchPath) *Resource {
	return &Resource{
		URL:     url,
		Kind:    KindInvalidPDF,
		Via:     via,
		Failure: NewInvalidDocument("pdf", "missing %PDF signature", nil),
	}
}
