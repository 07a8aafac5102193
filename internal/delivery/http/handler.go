package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/millscan/backend/config"
	"github.com/millscan/backend/internal/domain"
	"github.com/millscan/backend/internal/infrastructure/export"
	"github.com/millscan/backend/internal/usecase"
)

// allowedExtensions are the upload types forwarded to the OCR API.
var allowedExtensions = map[string]bool{
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	extraction *usecase.ExtractionService
	queries    *usecase.QueryService
	store      domain.JobStore
	cfg        *config.Config
}

// NewHandler creates a new HTTP handler
func NewHandler(
	extraction *usecase.ExtractionService,
	queries *usecase.QueryService,
	store domain.JobStore,
	cfg *config.Config,
) *Handler {
	return &Handler{
		extraction: extraction,
		queries:    queries,
		store:      store,
		cfg:        cfg,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "millscan-backend",
		"version": "1.0.0",
	})
}

// UploadCertificate accepts a multipart certificate upload, runs the
// extraction pipeline, and returns the new job id. When text extraction
// succeeded but structuring failed the job is still created and a warning
// is returned so clients can fall back to the raw-text view.
func (h *Handler) UploadCertificate(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "no file part")
		return
	}

	filename := filepath.Base(file.Filename)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedExtensions[ext] {
		fail(c, http.StatusBadRequest, "invalid file type; upload a PDF, JPG, or PNG file")
		return
	}
	if file.Size > h.cfg.Storage.MaxUploadMB<<20 {
		fail(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d MB upload limit", h.cfg.Storage.MaxUploadMB))
		return
	}

	tempDir, err := os.MkdirTemp("", "millscan-upload-")
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not stage upload")
		return
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, filename)
	if err := c.SaveUploadedFile(file, path); err != nil {
		fail(c, http.StatusInternalServerError, "could not stage upload")
		return
	}

	if ext == "pdf" {
		pages, err := api.PageCountFile(path)
		if err != nil || pages == 0 {
			fail(c, http.StatusBadRequest, "uploaded PDF is invalid or unreadable")
			return
		}
	}

	params, err := h.ocrParamsFromForm(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.extraction.ProcessCertificate(c.Request.Context(), path, filename, params)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrOCRFailure):
			fail(c, http.StatusBadGateway, err.Error())
		default:
			fail(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	resp := gin.H{"success": true, "job_id": result.JobID}
	if result.StructuringErr != nil {
		resp["warning"] = fmt.Sprintf("text extracted but structured analysis failed: %v", result.StructuringErr)
	}
	c.JSON(http.StatusCreated, resp)
}

// ListJobs returns metadata for all previous jobs, newest first
func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.store.List()
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []domain.JobMetadata{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "jobs": jobs})
}

// GetJob returns the metadata of one job
func (h *Handler) GetJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "metadata": job.Metadata})
}

// GetJobText returns the raw extracted text of one job
func (h *Handler) GetJobText(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job_id":  job.Metadata.JobID,
		"text":    job.ExtractedText,
	})
}

// GetAnalysis returns the grouped structured record together with its
// completeness report and narrative summary.
func (h *Handler) GetAnalysis(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	if job.Structured == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success":             false,
			"has_structured_data": false,
			"error":               "structured data is not available for this certificate",
		})
		return
	}

	productIDs := usecase.ProductIDs(job.Structured)
	grouped := usecase.ToGroupedShape(job.Structured, productIDs)
	report := usecase.Score(job.Structured)
	summary, err := usecase.RenderSummary(grouped, report)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"job_id":              job.Metadata.JobID,
		"has_structured_data": true,
		"product_ids":         productIDs,
		"structured_data":     grouped,
		"completeness":        report,
		"summary":             summary,
	})
}

// QueryJob answers a free-text question about one job's certificate
func (h *Handler) QueryJob(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.queries.Answer(c.Request.Context(), c.Param("id"), req.Query)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			fail(c, http.StatusNotFound, "job not found")
		case errors.Is(err, domain.ErrInvalidRequest):
			fail(c, http.StatusBadRequest, "query must not be empty")
		default:
			fail(c, http.StatusBadGateway, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "content": answer})
}

// ExportJob returns the structured record as an XLSX workbook
func (h *Handler) ExportJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	if job.Structured == nil {
		fail(c, http.StatusNotFound, "structured data is not available for this certificate")
		return
	}

	grouped := usecase.ToGroupedShape(job.Structured, nil)
	workbook, err := export.Workbook(grouped)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "certificate_"+job.Metadata.JobID+".xlsx"))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

func (h *Handler) loadJob(c *gin.Context) (*domain.JobData, bool) {
	job, err := h.store.Read(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			fail(c, http.StatusNotFound, "job not found")
		} else {
			fail(c, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return job, true
}

// ocrParamsFromForm reads the optional processing parameters from the
// upload form, defaulting mode/output_mode from configuration.
func (h *Handler) ocrParamsFromForm(c *gin.Context) (domain.OCRParams, error) {
	params := domain.OCRParams{
		Mode:          c.DefaultPostForm("processing_mode", h.cfg.Whisperer.Mode),
		OutputMode:    c.DefaultPostForm("output_mode", h.cfg.Whisperer.OutputMode),
		PageSeparator: h.cfg.Whisperer.PageSeparator,
	}

	if v := c.PostForm("line_splitter_tolerance"); v != "" {
		tolerance, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, fmt.Errorf("invalid line_splitter_tolerance: %s", v)
		}
		params.LineSplitterTolerance = tolerance
	}
	if v := c.PostForm("horizontal_stretch_factor"); v != "" {
		stretch, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, fmt.Errorf("invalid horizontal_stretch_factor: %s", v)
		}
		params.HorizontalStretchFactor = stretch
	}
	if v := c.PostForm("mark_vertical_lines"); v != "" {
		mark := v == "true"
		params.MarkVerticalLines = &mark
	}
	if v := c.PostForm("mark_horizontal_lines"); v != "" {
		mark := v == "true"
		params.MarkHorizontalLines = &mark
	}
	if v := c.PostForm("line_splitter_strategy"); v != "" {
		params.LineSplitterStrategy = v
	}
	if v := c.PostForm("lang"); v != "" {
		params.Lang = v
	}
	return params, nil
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
