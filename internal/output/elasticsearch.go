package output

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

const defaultIndexTimeout = 10 * time.Second

// ElasticsearchSink indexes each record as one document. Re-writing the
// same (run, company, keyword) replaces the document.
type ElasticsearchSink struct {
	client *es.Client
	index  string
	log    logger.Logger
}

// OpenElasticsearchSink creates a client for cfg.Addresses.
func OpenElasticsearchSink(cfg ElasticsearchConfig, log logger.Logger) (*ElasticsearchSink, error) {
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return NewElasticsearchSink(client, cfg.Index, log), nil
}

// NewElasticsearchSink wraps an existing client.
func NewElasticsearchSink(client *es.Client, index string, log logger.Logger) *ElasticsearchSink {
	if index == "" {
		index = defaultIndex
	}
	return &ElasticsearchSink{client: client, index: index, log: log}
}

// DocumentID derives the stable document id of a record.
func DocumentID(r domain.Record) string {
	sum := sha256.Sum256([]byte(r.RunID + "|" + r.Company + "|" + r.Keyword))
	return hex.EncodeToString(sum[:])
}

// Write indexes r.
func (s *ElasticsearchSink) Write(ctx context.Context, r domain.Record) error {
	if s.client == nil {
		return errors.New("elasticsearch client is not initialized")
	}

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record for indexing: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultIndexTimeout)
	defer cancel()

	id := DocumentID(r)
	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("failed to index record: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		s.log.Error("Elasticsearch returned error response",
			logger.String("error", res.String()),
			logger.String("index", s.index),
			logger.String("doc_id", id))
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}

	s.log.Debug("Record indexed",
		logger.String("index", s.index),
		logger.String("doc_id", id),
		logger.Company(r.Company),
		logger.Keyword(r.Keyword))
	return nil
}

// Close is a no-op; the client holds no resources that need releasing.
func (s *ElasticsearchSink) Close() error { return nil }
