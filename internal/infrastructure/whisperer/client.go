package whisperer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/millscan/backend/internal/domain"
)

// Client handles communication with the LLMWhisperer v2 document API.
// A document is submitted once, then polled until processed; retrieval
// returns the extracted text under extraction.result_text.
type Client struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	rateLimiter  *rate.Limiter
	pollInterval time.Duration
	waitTimeout  time.Duration
	debug        bool
}

// Config holds the client settings.
type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	WaitTimeout  time.Duration
}

// Status values reported by the whisper-status endpoint.
const (
	statusProcessing = "processing"
	statusProcessed  = "processed"
	statusDelivered  = "delivered"
)

// NewClient creates a new LLMWhisperer API client
func NewClient(cfg Config) *Client {
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 5 * time.Second
	}
	waitTimeout := cfg.WaitTimeout
	if waitTimeout == 0 {
		waitTimeout = 5 * time.Minute
	}
	return &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		rateLimiter:  rate.NewLimiter(rate.Limit(1), 5),
		pollInterval: pollInterval,
		waitTimeout:  waitTimeout,
	}
}

// SetDebug enables request/response logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

type submitResponse struct {
	WhisperHash string `json:"whisper_hash"`
	Message     string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type extractionResult struct {
	Extraction struct {
		ResultText string `json:"result_text"`
	} `json:"extraction"`
	Status string `json:"status"`
}

// ExtractText submits a file for processing and waits for the extracted
// text. Submission is not retried; a failed upload surfaces immediately.
func (c *Client) ExtractText(ctx context.Context, filePath string, params domain.OCRParams) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	reqURL := fmt.Sprintf("%s/whisper?%s", c.baseURL, queryParams(params).Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, file)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("unstract-key", c.apiKey)

	if c.debug {
		log.Printf("[OCR] Submitting %s with params %s", filePath, queryParams(params).Encode())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit document: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Synchronous processing; text comes back inline.
		return decodeResultText(body)
	case http.StatusAccepted:
		var submitted submitResponse
		if err := json.Unmarshal(body, &submitted); err != nil {
			return "", fmt.Errorf("failed to decode submit response: %w", err)
		}
		if submitted.WhisperHash == "" {
			return "", fmt.Errorf("submit response missing whisper_hash")
		}
		return c.waitForResult(ctx, submitted.WhisperHash)
	default:
		return "", fmt.Errorf("submit failed: status %d, body: %s", resp.StatusCode, string(body))
	}
}

// waitForResult polls whisper-status until the document is processed, then
// retrieves the extraction.
func (c *Client) waitForResult(ctx context.Context, whisperHash string) (string, error) {
	deadline := time.NewTimer(c.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", fmt.Errorf("timed out waiting for document %s", whisperHash)
		case <-ticker.C:
		}

		status, err := c.fetchStatus(ctx, whisperHash)
		if err != nil {
			return "", err
		}
		if c.debug {
			log.Printf("[OCR] Document %s status: %s", whisperHash, status)
		}

		switch status {
		case statusProcessing:
			continue
		case statusProcessed:
			return c.retrieve(ctx, whisperHash)
		case statusDelivered:
			return "", fmt.Errorf("document %s already delivered", whisperHash)
		default:
			return "", fmt.Errorf("document %s entered unexpected status %q", whisperHash, status)
		}
	}
}

func (c *Client) fetchStatus(ctx context.Context, whisperHash string) (string, error) {
	reqURL := fmt.Sprintf("%s/whisper-status?whisper_hash=%s", c.baseURL, url.QueryEscape(whisperHash))
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return "", fmt.Errorf("fetch status: %w", err)
	}
	var status statusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return "", fmt.Errorf("failed to decode status response: %w", err)
	}
	return status.Status, nil
}

func (c *Client) retrieve(ctx context.Context, whisperHash string) (string, error) {
	reqURL := fmt.Sprintf("%s/whisper-retrieve?whisper_hash=%s", c.baseURL, url.QueryEscape(whisperHash))
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return "", fmt.Errorf("retrieve result: %w", err)
	}
	return decodeResultText(body)
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("unstract-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func decodeResultText(body []byte) (string, error) {
	var result extractionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if result.Extraction.ResultText == "" {
		return "", fmt.Errorf("no text found in the processed document")
	}
	return result.Extraction.ResultText, nil
}

// queryParams maps the configuration bag onto the API's query string.
// Unset fields are omitted so the service defaults apply. The misspelled
// page_seperator parameter is what the API actually accepts.
func queryParams(params domain.OCRParams) url.Values {
	values := url.Values{}
	if params.Mode != "" {
		values.Set("mode", params.Mode)
	}
	if params.OutputMode != "" {
		values.Set("output_mode", params.OutputMode)
	}
	if params.LineSplitterTolerance != 0 {
		values.Set("line_splitter_tolerance", strconv.FormatFloat(params.LineSplitterTolerance, 'f', -1, 64))
	}
	if params.HorizontalStretchFactor != 0 {
		values.Set("horizontal_stretch_factor", strconv.FormatFloat(params.HorizontalStretchFactor, 'f', -1, 64))
	}
	if params.MarkVerticalLines != nil {
		values.Set("mark_vertical_lines", strconv.FormatBool(*params.MarkVerticalLines))
	}
	if params.MarkHorizontalLines != nil {
		values.Set("mark_horizontal_lines", strconv.FormatBool(*params.MarkHorizontalLines))
	}
	if params.LineSplitterStrategy != "" {
		values.Set("line_splitter_strategy", params.LineSplitterStrategy)
	}
	if params.Lang != "" {
		values.Set("lang", params.Lang)
	}
	separator := params.PageSeparator
	if separator == "" {
		separator = "<<<"
	}
	values.Set("page_seperator", separator)
	return values
}
