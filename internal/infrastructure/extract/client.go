package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mealsense/backend/internal/domain"
)

// Client talks to the external OCR/LLM extraction service. It is the only
// network hop in the analyze pipeline; failures are surfaced to the caller
// rather than retried, so a flaky extractor is visible instead of slow.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates an extraction client. ratePerMinute throttles outbound
// calls with a small burst allowance.
func NewClient(baseURL, apiKey string, timeout time.Duration, ratePerMinute int) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}
	limiter := rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		apiKey:      apiKey,
		rateLimiter: limiter,
	}
}

// SetDebug enables request/response logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

type extractRequest struct {
	Text        string `json:"text,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Extract sends the raw input to the extraction service and returns its raw
// output string (typically model output wrapped around JSON). The caller is
// responsible for normalizing that output.
func (c *Client) Extract(ctx context.Context, input domain.ExtractionInput) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(extractRequest{
		Text:        input.Text,
		ImageBase64: input.ImageBase64,
		ImageURL:    input.ImageURL,
	})
	if err != nil {
		return "", fmt.Errorf("encode extraction request: %w", err)
	}

	reqURL := c.baseURL + "/v1/extract"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MealSense/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if c.debug {
		log.Printf("[EXTRACT] POST %s (text=%d chars, image=%v)",
			reqURL, len(input.Text), input.ImageBase64 != "" || input.ImageURL != "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrExtractionUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		if c.debug {
			log.Printf("[EXTRACT] status %d, body: %s", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("%w: status %d", domain.ErrExtractionUnavailable, resp.StatusCode)
	}

	return string(body), nil
}
