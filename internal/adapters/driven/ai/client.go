package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// Default endpoints for OpenAI-compatible providers
const (
	openAIBaseURL = "https://api.openai.com/v1"
	ollamaBaseURL = "http://localhost:11434/v1"
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// retryPolicy controls retries on 429, 5xx and transport errors
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

var defaultRetryPolicy = retryPolicy{
	maxRetries: 4,
	baseDelay:  200 * time.Millisecond,
	maxDelay:   5 * time.Second,
}

// delay returns the exponential backoff for attempt, capped at maxDelay
func (p retryPolicy) delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.baseDelay << attempt
	if d > p.maxDelay || d <= 0 {
		d = p.maxDelay
	}
	return d
}

// apiErrorBody is the error envelope shared by OpenAI-compatible APIs
type apiErrorBody struct {
	Error *struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error,omitempty"`
}

// apiClient sends JSON requests to an OpenAI-compatible endpoint
type apiClient struct {
	provider domain.AIProvider
	apiKey   string
	baseURL  string
	client   *http.Client
	retry    retryPolicy
}

func newAPIClient(provider domain.AIProvider, apiKey, baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		provider: provider,
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		retry:    defaultRetryPolicy,
	}
}

// postJSON sends reqBody to path and decodes the response into out.
// Rate limits and server errors are retried with backoff, honouring Retry-After.
func (c *apiClient) postJSON(ctx context.Context, path string, reqBody, out interface{}) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

// getJSON fetches path and decodes the response into out (which may be nil)
func (c *apiClient) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *apiClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.retry.maxRetries; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %s request failed: %v", domain.ErrServiceUnavailable, c.provider, err)
			if attempt < c.retry.maxRetries {
				if err := sleep(ctx, c.retry.delay(attempt)); err != nil {
					return err
				}
				continue
			}
			return lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("%w: %s", domain.ErrServiceUnavailable, c.describeError(resp.StatusCode, respBody))
			if attempt < c.retry.maxRetries {
				if err := sleep(ctx, c.retryAfter(resp, attempt)); err != nil {
					return err
				}
				continue
			}
			return lastErr
		}

		if readErr != nil {
			return fmt.Errorf("failed to read response: %w", readErr)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errors.New(c.describeError(resp.StatusCode, respBody))
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	}
	return lastErr
}

// retryAfter honours a Retry-After header in seconds or HTTP-date form
func (c *apiClient) retryAfter(resp *http.Response, attempt int) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return c.retry.delay(attempt)
	}
	if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return c.retry.delay(attempt)
}

func (c *apiClient) describeError(status int, body []byte) string {
	var envelope apiErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return fmt.Sprintf("%s API error: %s (type: %s, code: %v)",
			c.provider, envelope.Error.Message, envelope.Error.Type, envelope.Error.Code)
	}
	return fmt.Sprintf("%s API returned status %d", c.provider, status)
}

func (c *apiClient) close() {
	c.client.CloseIdleConnections()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
