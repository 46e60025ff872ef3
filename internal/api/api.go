// Package api exposes single-URL analysis over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/input"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/pipeline"
)

// ErrInvalidCompany is returned when the company is not a parseable domain.
var ErrInvalidCompany = errors.New("company must be a domain or URL")

// ResourceFetcher loads one URL.
type ResourceFetcher interface {
	Fetch(ctx context.Context, url string) *domain.Resource
}

// EvidenceAnalyzer classifies one resource.
type EvidenceAnalyzer interface {
	Analyze(ctx context.Context, in pipeline.Input) domain.Evidence
}

// AnalyzeRequest names the company, page and keyword to evaluate.
type AnalyzeRequest struct {
	Company string `binding:"required" json:"company"`
	Name    string `json:"name"`
	URL     string `binding:"required" json:"url"`
	Keyword string `binding:"required" json:"keyword"`
}

// AnalyzeResponse is the evidence decided for the request.
type AnalyzeResponse struct {
	Company  domain.Company  `json:"company"`
	Evidence domain.Evidence `json:"evidence"`
	Elapsed  string          `json:"elapsed"`
}

// Service fetches and analyzes single URLs.
type Service struct {
	fetcher  ResourceFetcher
	analyzer EvidenceAnalyzer
}

// NewService creates a Service.
func NewService(f ResourceFetcher, a EvidenceAnalyzer) *Service {
	return &Service{fetcher: f, analyzer: a}
}

// Analyze fetches req.URL and returns the evidence for req.Keyword.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (domain.Company, domain.Evidence, error) {
	company, ok := input.NewCompany(req.Name, req.Company, "")
	if !ok {
		return domain.Company{}, domain.Evidence{}, ErrInvalidCompany
	}
	keyword := domain.Keyword{Term: strings.ToLower(strings.TrimSpace(req.Keyword))}

	res := s.fetcher.Fetch(ctx, req.URL)
	ev := s.analyzer.Analyze(ctx, pipeline.Input{Company: company, Keyword: keyword, Resource: res})
	return company, ev, nil
}

// Handler serves the HTTP API.
type Handler struct {
	service *Service
	log     logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Analyze handles POST /api/v1/analyze.
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + bindErr.Error()})
		return
	}

	start := time.Now()
	company, ev, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.log.Info("Analyzed URL",
		logger.Company(company.Name),
		logger.URL(req.URL),
		logger.Keyword(ev.Keyword),
		logger.String("verdict", string(ev.Verdict.Verdict)))

	c.JSON(http.StatusOK, AnalyzeResponse{
		Company:  company,
		Evidence: ev,
		Elapsed:  time.Since(start).Round(time.Millisecond).String(),
	})
}

// NewRouter registers the API routes. metrics serves GET /metrics.
func NewRouter(h *Handler, metrics http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(metrics))

	v1 := router.Group("/api/v1")
	v1.POST("/analyze", h.Analyze)

	return router
}
