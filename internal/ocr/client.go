package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// ClientConfig configures the HTTP OCR client.
type ClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// Client calls a remote OCR service over HTTP. Service-to-service auth uses
// OAuth2 client credentials; the token source caches and refreshes tokens.
type Client struct {
	baseURL    string
	httpClient *http.Client
	events     chan Progress
}

// NewClient constructs an OCR client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("OCR_BASE_URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if strings.TrimSpace(cfg.ClientID) != "" {
		creds := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		httpClient = creds.Client(context.Background())
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		events:     make(chan Progress, 16),
	}, nil
}

// Events returns the progress event stream. Consumers may drain it or
// ignore it; publication never blocks.
func (c *Client) Events() <-chan Progress {
	return c.events
}

type extractRequest struct {
	Image    string `json:"image"`
	Language string `json:"language,omitempty"`
}

type extractResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Extract submits an image payload for OCR and returns the recognized text.
func (c *Client) Extract(ctx context.Context, data []byte, langHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.publish(Progress{Stage: StageQueued, Percent: 0, OccurredAt: time.Now().UTC()})

	payload, err := json.Marshal(extractRequest{
		Image:    base64.StdEncoding.EncodeToString(data),
		Language: langHint,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrExtraction, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrExtraction, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.publish(Progress{Stage: StageProcessing, Percent: 50, OccurredAt: time.Now().UTC()})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.publish(Progress{Stage: StageFailed, Percent: 100, OccurredAt: time.Now().UTC()})
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.publish(Progress{Stage: StageFailed, Percent: 100, OccurredAt: time.Now().UTC()})
		return "", fmt.Errorf("%w: read response: %v", ErrExtraction, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.publish(Progress{Stage: StageFailed, Percent: 100, OccurredAt: time.Now().UTC()})
		return "", fmt.Errorf("%w: status=%d body=%s", ErrExtraction, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.publish(Progress{Stage: StageFailed, Percent: 100, OccurredAt: time.Now().UTC()})
		return "", fmt.Errorf("%w: parse response: %v", ErrExtraction, err)
	}
	if parsed.Error != "" {
		c.publish(Progress{Stage: StageFailed, Percent: 100, OccurredAt: time.Now().UTC()})
		return "", fmt.Errorf("%w: %s", ErrExtraction, parsed.Error)
	}

	c.publish(Progress{Stage: StageDone, Percent: 100, OccurredAt: time.Now().UTC()})
	return strings.TrimSpace(parsed.Text), nil
}

func (c *Client) publish(p Progress) {
	select {
	case c.events <- p:
	default:
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ Engine = (*Client)(nil)
