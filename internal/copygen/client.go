package copygen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/observability"
)

// Variation is one generated copy variation, in the fixed shape the editor
// consumes.
type Variation struct {
	Headline  string `json:"headline"`
	Paragraph string `json:"paragraph"`
	CTA       string `json:"cta"`
}

// Brief describes what to write copy about.
type Brief struct {
	Product  string `json:"product"`
	Audience string `json:"audience"`
	Tone     string `json:"tone"`
	Count    int    `json:"count"`
}

var (
	// ErrOverloaded means the upstream model is saturated; try again later.
	ErrOverloaded = errors.New("copy service overloaded")
	// ErrInvalidKey means the configured API key was rejected.
	ErrInvalidKey = errors.New("copy service key invalid")
	// ErrBadResponse means the service answered with something other than
	// the expected variation array, even after a retry.
	ErrBadResponse = errors.New("copy service returned malformed response")
)

// Client calls the LLM copy service. Schema-invalid responses are retried
// once before giving up; transport and auth failures are surfaced as
// distinct error kinds so the caller can tell them apart.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
}

// NewClient creates a copy service client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger, metrics observability.MetricsRegistry) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// SetBaseURL overrides the service URL (for testing).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Generate requests Count copy variations for the brief.
func (c *Client) Generate(ctx context.Context, brief Brief) ([]Variation, error) {
	variations, err := c.callOnce(ctx, brief)
	if errors.Is(err, ErrBadResponse) {
		c.logger.Warn("copy service returned invalid schema, retrying once")
		variations, err = c.callOnce(ctx, brief)
	}
	if err != nil {
		c.metrics.IncrementCopyGenerations("failure")
		return nil, err
	}
	c.metrics.IncrementCopyGenerations("success")
	return variations, nil
}

func (c *Client) callOnce(ctx context.Context, brief Brief) ([]Variation, error) {
	payload, err := json.Marshal(brief)
	if err != nil {
		return nil, fmt.Errorf("marshal brief: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("copy service request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read copy response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidKey
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return nil, ErrOverloaded
	default:
		return nil, fmt.Errorf("copy service status %d: %s", resp.StatusCode, string(body))
	}

	var variations []Variation
	if err := json.Unmarshal(body, &variations); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, summarize(body))
	}
	if len(variations) == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrBadResponse)
	}
	for i, v := range variations {
		if v.Headline == "" || v.Paragraph == "" || v.CTA == "" {
			return nil, fmt.Errorf("%w: entry %d missing required field", ErrBadResponse, i)
		}
	}
	return variations, nil
}

func summarize(body []byte) string {
	const max = 120
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
