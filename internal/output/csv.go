package output

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

const filePerm = 0o644

// CSVSink appends records to a CSV file and flushes after each one.
type CSVSink struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// NewCSVSink opens path for appending and writes the header when the file
// is new or empty.
func NewCSVSink(path string) (*CSVSink, error) {
	w, f, err := openAppendCSV(path, domain.RecordHeader)
	if err != nil {
		return nil, err
	}
	return &CSVSink{f: f, w: w}, nil
}

// Write appends one record.
func (s *CSVSink) Write(_ context.Context, r domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Write(r.Row()); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush csv record: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	return errors.Join(s.w.Error(), s.f.Close())
}

func openAppendCSV(path string, header []string) (*csv.Writer, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err = w.Write(header); err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("write header: %w", err)
		}
		w.Flush()
		if err = w.Error(); err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("flush header: %w", err)
		}
	}
	return w, f, nil
}

// ProcessedCompanies returns the company names already present in a results
// CSV. A missing file yields an empty set.
func ProcessedCompanies(path string) (map[string]struct{}, error) {
	done := make(map[string]struct{})

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return done, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return done, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := -1
	for i, name := range header {
		if name == "company" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%s: no company column", path)
	}

	for {
		row, readErr := r.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			var parseErr *csv.ParseError
			if errors.As(readErr, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, readErr)
		}
		if col < len(row) && row[col] != "" {
			done[row[col]] = struct{}{}
		}
	}
	return done, nil
}
