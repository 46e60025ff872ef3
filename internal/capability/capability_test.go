package capability_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/evidence/internal/capability"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

func TestOCRClient_ExtractText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ocr":
			var req struct {
				Image string `json:"image"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			raw, _ := base64.StdEncoding.DecodeString(req.Image)
			_ = json.NewEncoder(w).Encode(map[string]string{"text": "  seen: " + string(raw) + " \n"})
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client := capability.NewOCRClient(capability.OCRConfig{BaseURL: srv.URL + "/"}, logger.NewNop())

	text, err := client.ExtractText(context.Background(), []byte("logo"))
	require.NoError(t, err)
	assert.Equal(t, "seen: logo", text)
	require.NoError(t, client.Health(context.Background()))

	_, err = client.ExtractText(context.Background(), nil)
	require.ErrorIs(t, err, capability.ErrEmptyImage)
}

func TestOCRClient_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := capability.NewOCRClient(capability.OCRConfig{BaseURL: srv.URL}, logger.NewNop())

	_, err := client.ExtractText(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr status 503: model not loaded")
	require.Error(t, client.Health(context.Background()))
}

type fakeOCR struct {
	mu    sync.Mutex
	texts map[string]string
}

func (o *fakeOCR) ExtractText(_ context.Context, image []byte) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	text, ok := o.texts[string(image)]
	if !ok {
		return "", errors.New("unreadable image")
	}
	return text, nil
}

func TestImageScanner_Scan(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
<img src="/a.png"><img src="/b.png"><img src="/c.png">
<img src="data:image/png;base64,AAAA"><img src="/a.png"><img src="/missing.png">
</body></html>`))
	})
	for name, body := range map[string]string{"/a.png": "A", "/b.png": "B", "/c.png": "C"} {
		mux.HandleFunc(name, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ocr := &fakeOCR{texts: map[string]string{
		"A": "Powered by Widgetly and AWS",
		"B": "nothing to see",
		"C": "WIDGETLY partner badge",
	}}
	scanner := capability.NewImageScanner(capability.OCRConfig{BaseURL: "http://unused"}, ocr, nil, "evidence-test", logger.NewNop())

	matches, err := scanner.Scan(context.Background(), srv.URL+"/page", []string{"widgetly", "aws", "gcp"})

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, srv.URL+"/a.png", matches[0].Image)
	assert.Equal(t, []string{"widgetly", "aws"}, matches[0].Keywords)
	assert.Equal(t, srv.URL+"/c.png", matches[1].Image)
	assert.Equal(t, []string{"widgetly"}, matches[1].Keywords)
	assert.Equal(t,
		srv.URL+"/a.png: widgetly, aws; "+srv.URL+"/c.png: widgetly",
		matches.Summary())
}

func TestImageScanner_RedirectedImageKeepsPageURL(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<img src="/logo.png"><img src="/direct.png">`))
	})
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cdn/logo-v2.png", http.StatusFound)
	})
	mux.HandleFunc("/cdn/logo-v2.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("logo"))
	})
	mux.HandleFunc("/direct.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("direct"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ocr := &fakeOCR{texts: map[string]string{
		"logo":   "Powered by Widgetly",
		"direct": "Powered by Widgetly",
	}}
	scanner := capability.NewImageScanner(capability.OCRConfig{}, ocr, nil, "", logger.NewNop())

	matches, err := scanner.Scan(context.Background(), srv.URL+"/page", []string{"widgetly"})

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, srv.URL+"/logo.png", matches[0].Image)
	assert.Equal(t, srv.URL+"/direct.png", matches[1].Image)
}

func TestImageScanner_MaxImages(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<img src="/1.png"><img src="/2.png">`))
	})
	mux.HandleFunc("/1.png", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("1")) })
	mux.HandleFunc("/2.png", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("2")) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ocr := &fakeOCR{texts: map[string]string{"1": "widgetly", "2": "widgetly"}}
	scanner := capability.NewImageScanner(capability.OCRConfig{MaxImages: 1}, ocr, nil, "", logger.NewNop())

	matches, err := scanner.Scan(context.Background(), srv.URL+"/page", []string{"widgetly"})

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, srv.URL+"/1.png", matches[0].Image)
}

func TestImageScanner_PageFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	scanner := capability.NewImageScanner(capability.OCRConfig{}, &fakeOCR{}, nil, "", logger.NewNop())

	matches, err := scanner.Scan(context.Background(), srv.URL+"/page", []string{"widgetly"})

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FailureCapability))
	assert.Empty(t, matches)
}

func TestImageMatches_SummaryEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-", capability.ImageMatches(nil).Summary())
}

func TestMatchKeywords(t *testing.T) {
	t.Parallel()

	got := capability.MatchKeywords("AWS and Azure, not gcpx", []string{"aws", "AWS", "azure", "gcp", ""})
	assert.Equal(t, []string{"aws", "azure"}, got)
}

func messagesServer(t *testing.T, handler func(prompt string) (int, string)) (*httptest.Server, *[]string) {
	t.Helper()

	var (
		mu      sync.Mutex
		prompts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		prompt := req.Messages[0].Content[0].Text

		mu.Lock()
		prompts = append(prompts, prompt)
		mu.Unlock()

		status, text := handler(prompt)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         req.Model,
			"content":       []map[string]string{{"type": "text", "text": text}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]int{"input_tokens": 1, "output_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &prompts
}

func TestAnthropicTranslator_TranslatesChunks(t *testing.T) {
	t.Parallel()

	srv, prompts := messagesServer(t, func(prompt string) (int, string) {
		return http.StatusOK, strings.ToUpper(prompt)
	})
	translator := capability.NewAnthropicTranslator(capability.TranslationConfig{
		APIKey:   "test",
		BaseURL:  srv.URL,
		MaxChars: 11,
	})

	out, err := translator.TranslateToEnglish(context.Background(), "hola mundo hola amigo")

	require.NoError(t, err)
	assert.Equal(t, "HOLA MUNDO HOLA AMIGO", out)
	assert.Equal(t, []string{"hola mundo", "hola amigo"}, *prompts)
}

func TestAnthropicTranslator_FailureReturnsOriginal(t *testing.T) {
	t.Parallel()

	srv, _ := messagesServer(t, func(string) (int, string) {
		return http.StatusBadRequest, ""
	})
	translator := capability.NewAnthropicTranslator(capability.TranslationConfig{APIKey: "test", BaseURL: srv.URL})

	out, err := translator.TranslateToEnglish(context.Background(), "hola mundo")

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FailureCapability))
	assert.Equal(t, "hola mundo", out)
}

func TestNeedsTranslation(t *testing.T) {
	t.Parallel()

	assert.False(t, capability.NeedsTranslation("Acme partners with Widgetly", 0.3))
	assert.True(t, capability.NeedsTranslation("Акме сотрудничает с Widgetly", 0.3))
	assert.False(t, capability.NeedsTranslation("Café déjà vu in English text mostly", 0.3))
	assert.False(t, capability.NeedsTranslation("1234 !!", 0.3))
}

func TestSplitChunks(t *testing.T) {
	t.Parallel()

	assert.Nil(t, capability.SplitChunks("   ", 10))
	assert.Equal(t, []string{"ab cd", "ef"}, capability.SplitChunks("ab  cd\nef", 5))
	assert.Equal(t, []string{"abcdefgh", "ij"}, capability.SplitChunks("abcdefgh ij", 4))
	assert.Equal(t, []string{"a b c"}, capability.SplitChunks("a b c", 0))
}
