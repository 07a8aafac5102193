package usecase

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/millscan/backend/internal/domain"
	"github.com/millscan/backend/internal/monitoring"
)

// Prompts for the structured-extraction call. Kept deliberately compact:
// the LLM client enforces hard size budgets on everything it sends.
const extractionSystemPrompt = `Extract structured information from the steel mill test certificate.
Return JSON with these fields:
1. supplier_info: Supplier details
2. material_info: Grade, specs, heat number, product_id
3. chemical_composition: Element values with requirements
4. mechanical_properties: Physical properties with requirements
5. additional_info: Other relevant info

In chemical_composition and mechanical_properties, map each element or property name to an array where the first entry is the specification requirement and the following entries are the observed values per product.
Format the output as valid JSON.`

// ExtractionServiceConfig holds configuration for the extraction service
type ExtractionServiceConfig struct {
	Temperature float64
}

// ExtractionService sequences the OCR collaborator, the LLM collaborator,
// normalization, and job persistence for one uploaded certificate.
type ExtractionService struct {
	store       domain.JobStore
	ocr         domain.OCRClient
	llm         domain.LLMClient
	metrics     *monitoring.Metrics
	temperature float64
}

// ExtractionResult reports what one upload produced. StructuringErr is
// non-nil when text extraction succeeded but structuring failed; the text
// artifact is still persisted and usable on its own.
type ExtractionResult struct {
	JobID          string
	Text           string
	StructuringErr error
}

// NewExtractionService creates a new extraction service with dependencies
func NewExtractionService(
	store domain.JobStore,
	ocr domain.OCRClient,
	llm domain.LLMClient,
	metrics *monitoring.Metrics,
	config ExtractionServiceConfig,
) *ExtractionService {
	temperature := config.Temperature
	if temperature == 0 {
		temperature = 0.1
	}
	return &ExtractionService{
		store:       store,
		ocr:         ocr,
		llm:         llm,
		metrics:     metrics,
		temperature: temperature,
	}
}

// ProcessCertificate runs the full pipeline for one uploaded file.
// Flow: OCR -> persist text and metadata -> LLM extraction -> normalize -> persist record.
func (s *ExtractionService) ProcessCertificate(
	ctx context.Context,
	filePath string,
	originalFilename string,
	params domain.OCRParams,
) (*ExtractionResult, error) {
	if filePath == "" || originalFilename == "" {
		return nil, domain.ErrInvalidRequest
	}

	text, err := s.ocr.ExtractText(ctx, filePath, params)
	if err != nil {
		s.metrics.IncUpstreamError("ocr")
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRFailure, err)
	}
	if strings.TrimSpace(text) == "" {
		s.metrics.IncUpstreamError("ocr")
		return nil, fmt.Errorf("%w: no text found in the processed document", domain.ErrOCRFailure)
	}

	jobID, err := s.store.Create(domain.NewJob{
		OriginalFilename: originalFilename,
		FileExtension:    fileExtension(originalFilename),
		Status:           domain.JobStatusCompleted,
		ProcessingParams: params,
	})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := s.store.WriteText(jobID, text); err != nil {
		return nil, fmt.Errorf("persist extracted text: %w", err)
	}
	s.metrics.IncCertificatesProcessed()

	result := &ExtractionResult{JobID: jobID, Text: text}
	if err := s.extractStructured(ctx, jobID, text); err != nil {
		log.Printf("[EXTRACT] Structuring failed for job %s: %v", jobID, err)
		result.StructuringErr = err
	}
	return result, nil
}

// extractStructured asks the LLM for structured fields, normalizes them to
// the array shape, and persists the record.
func (s *ExtractionService) extractStructured(ctx context.Context, jobID, text string) error {
	preview := text
	if len(preview) > 100 {
		preview = preview[:100]
	}
	userPrompt := fmt.Sprintf("Extract structured information from this certificate text:\n%s...", preview)

	content, err := s.llm.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: extractionSystemPrompt,
		UserPrompt:   userPrompt,
		DocumentText: text,
		Temperature:  s.temperature,
	})
	if err != nil {
		s.metrics.IncUpstreamError("llm")
		return err
	}

	cleaned := []byte(stripCodeFences(content))
	if err := ValidateRecordJSON(cleaned); err != nil {
		s.metrics.IncUpstreamError("parse")
		return err
	}
	rec, err := domain.ParseStructuredRecord(cleaned)
	if err != nil {
		s.metrics.IncUpstreamError("parse")
		return err
	}

	// Stored canonical form is the array shape; grouped views are derived on read.
	if err := s.store.WriteStructured(jobID, ToArrayShape(rec)); err != nil {
		return fmt.Errorf("persist structured data: %w", err)
	}
	return nil
}

// stripCodeFences removes markdown code fences that models wrap JSON in.
func stripCodeFences(content string) string {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

func fileExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
