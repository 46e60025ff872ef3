package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/evidence/internal/circuitbreaker"
	"github.com/jonesrussell/north-cloud/evidence/internal/httpclient"
	"github.com/jonesrussell/north-cloud/evidence/internal/retry"
)

const maxTEIErrorBody = 4096

// TEIConfig configures the Text-Embeddings-Inference client.
type TEIConfig struct {
	BaseURL string
	Timeout time.Duration
	// Client overrides the default HTTP client.
	Client *http.Client
}

// TEIEmbedder calls a Text-Embeddings-Inference server's /embed endpoint.
type TEIEmbedder struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker
	retry   retry.Config
}

type teiRequest struct {
	Inputs   any  `json:"inputs"`
	Truncate bool `json:"truncate"`
}

// NewTEIEmbedder creates a TEI client.
func NewTEIEmbedder(cfg TEIConfig) (*TEIEmbedder, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}

	client := cfg.Client
	if client == nil {
		client = httpclient.New(httpclient.Config{Timeout: cfg.Timeout})
	}

	return &TEIEmbedder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		breaker: circuitbreaker.New(circuitbreaker.Config{Name: "tei"}),
		retry:   retry.DefaultConfig(),
	}, nil
}

// EmbedDocuments embeds a batch of passages.
func (t *TEIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	vectors, err := t.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", ErrEmbeddingFailed, len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedQuery embeds a single question.
func (t *TEIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	vectors, err := t.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
	}
	return vectors[0], nil
}

// Close is a no-op; the HTTP client owns no session.
func (t *TEIEmbedder) Close() error {
	return nil
}

func (t *TEIEmbedder) embed(ctx context.Context, inputs any) ([][]float32, error) {
	var vectors [][]float32
	err := retry.Retry(ctx, t.retry, func() error {
		return t.breaker.Execute(ctx, func() error {
			var callErr error
			vectors, callErr = t.post(ctx, inputs)
			return callErr
		})
	})
	return vectors, err
}

func (t *TEIEmbedder) post(ctx context.Context, inputs any) ([][]float32, error) {
	body, err := json.Marshal(teiRequest{Inputs: inputs, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxTEIErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var vectors [][]float32
	if err = json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	return vectors, nil
}
