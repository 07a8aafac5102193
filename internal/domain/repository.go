package domain

import (
	"context"
	"time"
)

// AnswerCache defines the interface for caching generated answers
type AnswerCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// OCRClient defines the interface for the document-intelligence API that
// turns an uploaded certificate into plain text
type OCRClient interface {
	ExtractText(ctx context.Context, filePath string, params OCRParams) (string, error)
}

// CompletionRequest is one prompt exchange with the LLM collaborator.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	DocumentText string
	Temperature  float64
}

// LLMClient defines the interface for the language-model collaborator
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// JobStore defines the interface for per-job artifact persistence
type JobStore interface {
	Create(meta NewJob) (string, error)
	WriteText(jobID, text string) error
	WriteStructured(jobID string, rec *StructuredRecord) error
	Read(jobID string) (*JobData, error)
	List() ([]JobMetadata, error)
}
