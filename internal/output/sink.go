// Package output persists evidence records as they are produced.
package output

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

// Sink persists records. Implementations are safe for concurrent use and
// never leave a record half-written.
type Sink interface {
	Write(ctx context.Context, r domain.Record) error
	Close() error
}

// MultiSink writes every record to each sink in turn.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink fans out to sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write writes r to every sink and returns the first error. Later sinks are
// still attempted after a failure.
func (m *MultiSink) Write(ctx context.Context, r domain.Record) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Write(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every sink.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the sink set described by cfg.
func Open(ctx context.Context, cfg Config, log logger.Logger) (*MultiSink, error) {
	cfg = cfg.WithDefaults()

	csvSink, err := NewCSVSink(cfg.CSVPath)
	if err != nil {
		return nil, err
	}
	sinks := []Sink{csvSink}

	closeAll := func() { _ = NewMultiSink(sinks...).Close() }

	if cfg.SQL.Enabled() {
		sqlSink, sqlErr := OpenSQLSink(ctx, cfg.SQL)
		if sqlErr != nil {
			closeAll()
			return nil, fmt.Errorf("sql sink: %w", sqlErr)
		}
		sinks = append(sinks, sqlSink)
		log.Info("SQL sink enabled",
			logger.String("driver", cfg.SQL.Driver),
			logger.String("table", cfg.SQL.Table))
	}

	if cfg.Elasticsearch.Enabled() {
		esSink, esErr := OpenElasticsearchSink(cfg.Elasticsearch, log)
		if esErr != nil {
			closeAll()
			return nil, fmt.Errorf("elasticsearch sink: %w", esErr)
		}
		sinks = append(sinks, esSink)
		log.Info("Elasticsearch sink enabled", logger.String("index", cfg.Elasticsearch.Index))
	}

	return NewMultiSink(sinks...), nil
}
