package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

// SummaryHeader is the column layout written by SummaryWriter.
var SummaryHeader = []string{
	"company",
	"previous_date", "previous_keyword", "previous_url",
	"latest_date", "latest_keyword", "latest_url",
}

// SummaryWriter appends one row per company with its previous and latest
// dated relevant evidence.
type SummaryWriter struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// NewSummaryWriter opens path for appending.
func NewSummaryWriter(path string) (*SummaryWriter, error) {
	w, f, err := openAppendCSV(path, SummaryHeader)
	if err != nil {
		return nil, err
	}
	return &SummaryWriter{f: f, w: w}, nil
}

// Write appends the row for s.
func (sw *SummaryWriter) Write(s domain.Summary) error {
	row := make([]string, 0, len(SummaryHeader))
	row = append(row, s.Company)
	row = append(row, summaryCells(s.Previous)...)
	row = append(row, summaryCells(s.Latest)...)

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if err := sw.w.Write(row); err != nil {
		return fmt.Errorf("write summary row: %w", err)
	}
	sw.w.Flush()
	return sw.w.Error()
}

// Close flushes and closes the file.
func (sw *SummaryWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.w.Flush()
	return errors.Join(sw.w.Error(), sw.f.Close())
}

func summaryCells(e *domain.Evidence) []string {
	if e == nil {
		return []string{domain.Placeholder, domain.Placeholder, domain.Placeholder}
	}
	return []string{e.Date.Label(), e.Keyword, e.URL}
}
