// Package capability holds the optional collaborators of the analyzer:
// OCR of page images and machine translation of non-English text.
package capability

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonesrussell/north-cloud/evidence/internal/circuitbreaker"
	"github.com/jonesrussell/north-cloud/evidence/internal/httpclient"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

const maxOCRErrorBody = 2048

// ErrEmptyImage is returned for zero-length image payloads.
var ErrEmptyImage = errors.New("ocr: empty image")

// OCR extracts text from an image.
type OCR interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

type ocrRequest struct {
	Image string `json:"image"`
}

type ocrResponse struct {
	Text string `json:"text"`
}

// OCRClient calls an OCR sidecar over HTTP.
type OCRClient struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker
}

// NewOCRClient creates a sidecar client.
func NewOCRClient(cfg OCRConfig, log logger.Logger) *OCRClient {
	cfg = cfg.WithDefaults()
	return &OCRClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpclient.New(httpclient.Config{Timeout: cfg.Timeout}),
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "ocr",
			FailureThreshold: cfg.BreakerFailures,
			Timeout:          cfg.BreakerOpenDelay,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state change",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()))
			},
		}),
	}
}

// ExtractText posts the base64-encoded image to /ocr.
func (c *OCRClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}

	body, err := json.Marshal(ocrRequest{Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return "", fmt.Errorf("marshal ocr request: %w", err)
	}

	var text string
	err = c.breaker.Execute(ctx, func() error {
		var callErr error
		text, callErr = c.post(ctx, body)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *OCRClient) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxOCRErrorBody))
		return "", fmt.Errorf("ocr status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ocrResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

// Health checks the sidecar's /health endpoint.
func (c *OCRClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ocr health: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ocr health status %d", resp.StatusCode)
	}
	return nil
}
