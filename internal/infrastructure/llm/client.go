package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/millscan/backend/internal/domain"
)

// Truncation notices appended when input budgets cut content off.
const (
	truncatedDocNotice = "\n\n[Text truncated due to size limitations]"
	truncatedEllipsis  = "..."
)

// Config holds the chat-completions client settings. The char budgets bound
// request cost and latency; they are a resource-protection policy, not a
// correctness mechanism.
type Config struct {
	APIKey               string
	BaseURL              string
	Model                string
	MaxRetries           int
	RetryDelay           time.Duration
	MaxDocumentChars     int
	MaxSystemPromptChars int
	MaxUserPromptChars   int
	RequestsPerMinute    int
}

// Client calls an OpenAI-style chat-completions endpoint.
type Client struct {
	httpClient  *http.Client
	cfg         Config
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new LLM client
func NewClient(cfg Config) *Client {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.MaxDocumentChars == 0 {
		cfg.MaxDocumentChars = 10000
	}
	if cfg.MaxSystemPromptChars == 0 {
		cfg.MaxSystemPromptChars = 1000
	}
	if cfg.MaxUserPromptChars == 0 {
		cfg.MaxUserPromptChars = 500
	}
	rpm := cfg.RequestsPerMinute
	if rpm == 0 {
		rpm = 60
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 90 * time.Second},
		cfg:         cfg,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 5),
	}
}

// SetDebug enables request/response logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt exchange and returns the generated text.
// Transient failures and empty completions are retried a fixed number of
// times with a fixed delay.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	reqID := uuid.New().String()

	document := truncateWithNotice(req.DocumentText, c.cfg.MaxDocumentChars, truncatedDocNotice)
	system := truncateWithNotice(req.SystemPrompt, c.cfg.MaxSystemPromptChars, truncatedEllipsis)
	user := truncateWithNotice(req.UserPrompt, c.cfg.MaxUserPromptChars, truncatedEllipsis)

	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: req.Temperature,
		MaxTokens:   1000,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user + "\n\n" + document},
		},
	}

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		if c.debug {
			log.Printf("[LLM] Request %s attempt %d/%d (doc %d chars, temp %.2f)",
				reqID, attempt, attempts, len(document), req.Temperature)
		}

		content, retryable, err := c.send(ctx, body)
		if err == nil {
			if content != "" {
				return content, nil
			}
			log.Printf("[LLM] Request %s returned empty content (attempt %d)", reqID, attempt)
			lastErr = domain.ErrEmptyCompletion
		} else {
			log.Printf("[LLM] Request %s failed (attempt %d): %v", reqID, attempt, err)
			lastErr = err
			if !retryable {
				return "", fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
			}
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}
	}

	return "", fmt.Errorf("%w: %v", domain.ErrLLMFailure, lastErr)
}

// send performs one HTTP round trip. The bool reports whether the failure
// is worth retrying.
func (c *Client) send(ctx context.Context, body chatRequest) (string, bool, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", false, fmt.Errorf("encode request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return "", retryable, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", true, fmt.Errorf("no choices in response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}

func truncateWithNotice(s string, limit int, notice string) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + notice
}
