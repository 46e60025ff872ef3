package scoring

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/evidence/internal/circuitbreaker"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

// Scored pairs a window with its similarity to the query.
type Scored struct {
	Window     domain.EvidenceWindow
	Similarity float64
}

// Scorer embeds windows and the company/keyword question and keeps the
// windows above the similarity prefilter.
//
// The embedder is shared by every worker; calls into it are serialized.
type Scorer struct {
	mu            sync.Mutex
	embedder      Embedder
	breaker       *circuitbreaker.Breaker
	minSimilarity float64
	log           logger.Logger
}

// NewScorer wraps embedder.
func NewScorer(cfg Config, embedder Embedder, log logger.Logger) *Scorer {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	return &Scorer{
		embedder:      embedder,
		minSimilarity: cfg.MinSimilarity,
		log:           log,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "embedding",
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

// Query builds the question the windows are compared against.
func Query(company, keyword string) string {
	return fmt.Sprintf("What is the relationship between %s and %s?", company, keyword)
}

// Score returns the windows whose cosine similarity to the query exceeds the
// prefilter, in input order. Any embedding failure yields an empty result and
// a scoring failure; callers continue without a score.
func (s *Scorer) Score(ctx context.Context, company, keyword string, windows []domain.EvidenceWindow) ([]Scored, error) {
	if len(windows) == 0 {
		return nil, domain.NewScoringFailure("embed", "no windows to score", ErrEmptyInput)
	}
	if s.embedder == nil {
		return nil, domain.NewScoringFailure("embed", "embedding model unavailable", ErrInvalidConfig)
	}

	texts := make([]string, len(windows))
	for i, w := range windows {
		texts[i] = w.Text
	}

	var (
		docVectors [][]float32
		queryVec   []float32
	)

	start := time.Now()
	err := s.breaker.Execute(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		var embedErr error
		docVectors, embedErr = s.embedder.EmbedDocuments(ctx, texts)
		if embedErr != nil {
			return embedErr
		}
		queryVec, embedErr = s.embedder.EmbedQuery(ctx, Query(company, keyword))
		return embedErr
	})
	if err != nil {
		return nil, domain.NewScoringFailure("embed", "embedding unavailable", err)
	}
	if len(docVectors) != len(windows) {
		return nil, domain.NewScoringFailure("embed", "embedding count mismatch", ErrEmbeddingFailed)
	}

	out := make([]Scored, 0, len(windows))
	for i, w := range windows {
		sim := Cosine(queryVec, docVectors[i])
		if sim > s.minSimilarity {
			out = append(out, Scored{Window: w, Similarity: sim})
		}
	}

	s.log.Debug("windows scored",
		logger.Keyword(keyword),
		logger.Int("windows", len(windows)),
		logger.Int("kept", len(out)),
		logger.Duration("duration", time.Since(start)))

	return out, nil
}

// Best returns the highest-similarity entry; ties go to the earliest.
func Best(scored []Scored) (Scored, bool) {
	if len(scored) == 0 {
		return Scored{}, false
	}
	best := scored[0]
	for _, sc := range scored[1:] {
		if sc.Similarity > best.Similarity {
			best = sc
		}
	}
	return best, true
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty,
// zero, or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}

	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Close releases the embedder.
func (s *Scorer) Close() error {
	if s.embedder == nil {
		return nil
	}
	return s.embedder.Close()
}
