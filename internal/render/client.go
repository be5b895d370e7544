package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Descriptor tells the rendering service what to draw: a template plus the
// copy and styling to lay over it.
type Descriptor struct {
	TemplateID string            `json:"templateId"`
	Headline   string            `json:"headline"`
	Body       string            `json:"body"`
	Styling    map[string]string `json:"styling,omitempty"`
}

// Client calls the external image rendering service. The service owns all
// template and layout logic; this side only moves bytes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a rendering service client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetBaseURL overrides the service URL (for testing).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Render asks the service for raster image bytes for the descriptor.
func (c *Client) Render(ctx context.Context, desc Descriptor) ([]byte, error) {
	payload, err := json.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("render service status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read image bytes: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("render service returned empty image")
	}
	return data, nil
}
