package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a component could not produce its normal result.
type FailureKind string

const (
	FailureFetch           FailureKind = "fetch_failure"
	FailureInvalidDocument FailureKind = "invalid_document"
	FailureExtraction      FailureKind = "extraction_failure"
	FailureScoring         FailureKind = "scoring_failure"
	FailureCapability      FailureKind = "capability_failure"
)

// Failure is a terminal, typed failure carried as data through the pipeline.
// It implements error so it can also be wrapped and matched with errors.As.
type Failure struct {
	Kind FailureKind
	// Op names the step that failed, e.g. "http", "render", "pdf", "ocr".
	Op string
	// Reason is the short human-readable cause written into explanations.
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", f.Kind, f.Op, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s %s: %s", f.Kind, f.Op, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFetchFailure reports a network error, timeout, or non-200 status.
func NewFetchFailure(op, reason string, err error) *Failure {
	return &Failure{Kind: FailureFetch, Op: op, Reason: reason, Err: err}
}

// NewInvalidDocument reports a malformed PDF, spreadsheet, or word document.
func NewInvalidDocument(op, reason string, err error) *Failure {
	return &Failure{Kind: FailureInvalidDocument, Op: op, Reason: reason, Err: err}
}

// NewExtractionFailure reports a fetched resource whose text could not be derived.
func NewExtractionFailure(op, reason string, err error) *Failure {
	return &Failure{Kind: FailureExtraction, Op: op, Reason: reason, Err: err}
}

// NewScoringFailure reports an unavailable embedding or similarity step.
func NewScoringFailure(op, reason string, err error) *Failure {
	return &Failure{Kind: FailureScoring, Op: op, Reason: reason, Err: err}
}

// NewCapabilityFailure reports an OCR or translation collaborator error.
func NewCapabilityFailure(op, reason string, err error) *Failure {
	return &Failure{Kind: FailureCapability, Op: op, Reason: reason, Err: err}
}

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err carries a Failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}
