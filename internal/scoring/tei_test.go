package scoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/evidence/internal/scoring"
)

func TestTEIEmbedder_EmbedDocuments(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body struct {
			Inputs   []string `json:"inputs"`
			Truncate bool     `json:"truncate"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Truncate)

		out := make([][]float32, len(body.Inputs))
		for i := range body.Inputs {
			out[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	emb, err := scoring.NewTEIEmbedder(scoring.TEIConfig{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	vectors, err := emb.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}}, vectors)
}

func TestTEIEmbedder_EmbedQuery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[[0.5, 0.25]]`))
	}))
	defer srv.Close()

	emb, err := scoring.NewTEIEmbedder(scoring.TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	vec, err := emb.EmbedQuery(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)

	_, err = emb.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, scoring.ErrEmptyInput)
}

func TestTEIEmbedder_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	emb, err := scoring.NewTEIEmbedder(scoring.TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = emb.EmbedDocuments(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, scoring.ErrEmbeddingFailed))
	assert.Contains(t, err.Error(), "status 503")
}

func TestTEIEmbedder_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([][]float32{{1, 0}})
	}))
	defer srv.Close()

	emb, err := scoring.NewTEIEmbedder(scoring.TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	vec, err := emb.EmbedQuery(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewEmbedder_Unknown(t *testing.T) {
	t.Parallel()

	_, err := scoring.NewEmbedder(scoring.Config{Provider: "word2vec"})
	assert.ErrorIs(t, err, scoring.ErrInvalidConfig)

	_, err = scoring.NewTEIEmbedder(scoring.TEIConfig{})
	assert.ErrorIs(t, err, scoring.ErrInvalidConfig)
}
