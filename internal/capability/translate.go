package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/httpclient"
)

const translationPrompt = "Translate the user's text into English. " +
	"Reply with the translation only. Keep company and product names unchanged."

// ErrEmptyTranslation is returned when the model replies without text.
var ErrEmptyTranslation = errors.New("translation: empty response")

// Translator turns non-English text into English.
type Translator interface {
	TranslateToEnglish(ctx context.Context, text string) (string, error)
}

// AnthropicTranslator translates through the Anthropic Messages API, one
// request per chunk of at most MaxChars characters.
type AnthropicTranslator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxChars  int
	maxTokens int64
}

// NewAnthropicTranslator creates a translator.
func NewAnthropicTranslator(cfg TranslationConfig) *AnthropicTranslator {
	cfg = cfg.WithDefaults()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpclient.New(httpclient.Config{Timeout: cfg.Timeout})),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicTranslator{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxChars:  cfg.MaxChars,
		maxTokens: int64(cfg.MaxTokens),
	}
}

// TranslateToEnglish returns the English translation of text. On any
// failure the original text is returned together with a capability failure.
func (t *AnthropicTranslator) TranslateToEnglish(ctx context.Context, text string) (string, error) {
	chunks := SplitChunks(text, t.maxChars)
	if len(chunks) == 0 {
		return text, nil
	}

	translated := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out, err := t.translateChunk(ctx, chunk)
		if err != nil {
			return text, domain.NewCapabilityFailure("translate",
				fmt.Sprintf("chunk %d of %d failed", i+1, len(chunks)), err)
		}
		translated = append(translated, out)
	}
	return strings.Join(translated, " "), nil
}

func (t *AnthropicTranslator) translateChunk(ctx context.Context, chunk string) (string, error) {
	msg, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: t.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: translationPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(chunk)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages api: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}

// NeedsTranslation reports whether the share of non-ASCII letters among all
// letters in text exceeds ratio.
func NeedsTranslation(text string, ratio float64) bool {
	var letters, nonASCII int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r > unicode.MaxASCII {
			nonASCII++
		}
	}
	if letters == 0 {
		return false
	}
	return float64(nonASCII)/float64(letters) > ratio
}

// SplitChunks splits text on whitespace into chunks of at most maxChars
// runes. A single word longer than maxChars becomes its own chunk.
func SplitChunks(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxChars <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	for _, w := range words {
		wLen := len([]rune(w))
		if curLen > 0 && curLen+1+wLen > maxChars {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(w)
		curLen += wLen
	}
	if curLen > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
