package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/millscan/backend/internal/domain"
	"github.com/millscan/backend/internal/monitoring"
)

// Package-level compiled regex patterns for cache-key normalization
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

const querySystemPrompt = `You are a helpful assistant specialized in analyzing steel mill test certificates.
You will answer questions about the provided test certificate text.

IMPORTANT: When analyzing chemical composition or mechanical properties, always distinguish between:
1. Specification requirements (typically shown as limits like "<0.25%" or ranges like "17-110")
2. Actual observed values for specific products

Include reasoning in your answers about whether observed values comply with specification requirements.
When a user asks about a specific element or property, explain both the requirement and the actual values.

Provide detailed, accurate responses based only on the information in the certificate.
If the information isn't available in the certificate, clearly state that.
Use a professional, helpful tone and format your answers for clarity.
If appropriate, structure tabular data as a Markdown table.`

// QueryServiceConfig holds configuration for the query service
type QueryServiceConfig struct {
	CacheTTL    time.Duration
	Temperature float64
}

// QueryService answers free-text questions against a job's extracted text,
// with answer caching.
type QueryService struct {
	store       domain.JobStore
	llm         domain.LLMClient
	cache       domain.AnswerCache
	metrics     *monitoring.Metrics
	cacheTTL    time.Duration
	temperature float64
}

// NewQueryService creates a new query service with dependencies
func NewQueryService(
	store domain.JobStore,
	llm domain.LLMClient,
	cache domain.AnswerCache,
	metrics *monitoring.Metrics,
	config QueryServiceConfig,
) *QueryService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	temperature := config.Temperature
	if temperature == 0 {
		temperature = 0.3
	}
	return &QueryService{
		store:       store,
		llm:         llm,
		cache:       cache,
		metrics:     metrics,
		cacheTTL:    cacheTTL,
		temperature: temperature,
	}
}

// Answer responds to one question about one job.
// Flow: load job -> check cache -> ask LLM -> cache -> return
func (s *QueryService) Answer(ctx context.Context, jobID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.ErrInvalidRequest
	}

	job, err := s.store.Read(jobID)
	if err != nil {
		return "", err
	}

	cacheKey := answerCacheKey(jobID, question)
	if s.cache != nil {
		if answer, err := s.cache.Get(ctx, cacheKey); err == nil && answer != "" {
			return answer, nil
		}
	}

	answer, err := s.llm.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: querySystemPrompt,
		UserPrompt:   fmt.Sprintf("Question: %s\n\nTest Certificate Content:", question),
		DocumentText: job.ExtractedText,
		Temperature:  s.temperature,
	})
	if err != nil {
		s.metrics.IncUpstreamError("llm")
		return "", err
	}
	s.metrics.IncQueriesAnswered()

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, answer, s.cacheTTL); err != nil {
			log.Printf("[QUERY] Failed to cache answer for job %s: %v", jobID, err)
		}
	}
	return answer, nil
}

// answerCacheKey builds a normalized cache key from job id and question.
// Format: "answer:{job_id}:{normalized_question}"
func answerCacheKey(jobID, question string) string {
	return fmt.Sprintf("answer:%s:%s", jobID, normalizeForCacheKey(question))
}

// normalizeForCacheKey lowercases, strips special characters, and collapses
// whitespace so trivially rephrased questions share a cache slot.
func normalizeForCacheKey(s string) string {
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
