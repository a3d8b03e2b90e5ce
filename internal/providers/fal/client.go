package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"runner/internal/infra"
)

// Options configures the fal.ai client.
type Options struct {
	APIKey         string
	BaseURL        string
	QueueBaseURL   string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against fal.ai model endpoints, both the
// synchronous fal.run surface and the queue.fal.run submit/poll surface.
type Client struct {
	apiKey       string
	baseURL      string
	queueBaseURL string
	httpClient   *http.Client
	logger       *infra.Logger
}

// QueueHandle is the transient state returned by a queue submission. It is
// owned by a single poll run and discarded when that run ends.
type QueueHandle struct {
	RequestID   string
	StatusURL   string
	ResponseURL string
}

type queueSubmitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

// QueueStatus is one poll result for a queued request.
type QueueStatus struct {
	Status      string          `json:"status"`
	ResponseURL string          `json:"response_url"`
	Error       string          `json:"error"`
	Logs        []queueLogEntry `json:"logs"`
}

type queueLogEntry struct {
	Message string `json:"message"`
}

// FailureDetail flattens the provider-supplied error and log text.
func (s *QueueStatus) FailureDetail() string {
	parts := make([]string, 0, len(s.Logs)+1)
	if msg := strings.TrimSpace(s.Error); msg != "" {
		parts = append(parts, msg)
	}
	for _, entry := range s.Logs {
		if msg := strings.TrimSpace(entry.Message); msg != "" {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://fal.run"
	}
	queueBaseURL := strings.TrimRight(opts.QueueBaseURL, "/")
	if queueBaseURL == "" {
		queueBaseURL = "https://queue.fal.run"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		queueBaseURL: queueBaseURL,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Run POSTs a synchronous model invocation and returns the raw response.
func (c *Client) Run(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.post(ctx, c.baseURL+"/"+strings.TrimLeft(path, "/"), body)
}

// Submit enqueues a request on the queue surface. The response must carry a
// status handle (status URL or request id); otherwise the queue protocol was
// violated and the submission cannot be tracked.
func (c *Client) Submit(ctx context.Context, path string, body any) (*QueueHandle, error) {
	path = strings.TrimLeft(path, "/")
	raw, err := c.post(ctx, c.queueBaseURL+"/"+path, body)
	if err != nil {
		return nil, err
	}
	var decoded queueSubmitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("fal: decode queue response: %w", err)
	}
	handle := &QueueHandle{
		RequestID:   strings.TrimSpace(decoded.RequestID),
		StatusURL:   strings.TrimSpace(decoded.StatusURL),
		ResponseURL: strings.TrimSpace(decoded.ResponseURL),
	}
	if handle.StatusURL == "" && handle.RequestID == "" {
		return nil, &ProtocolError{Reason: "queue response missing status handle"}
	}
	if handle.StatusURL == "" {
		handle.StatusURL = fmt.Sprintf("%s/%s/requests/%s/status", c.queueBaseURL, path, handle.RequestID)
	}
	if handle.ResponseURL == "" && handle.RequestID != "" {
		handle.ResponseURL = fmt.Sprintf("%s/%s/requests/%s", c.queueBaseURL, path, handle.RequestID)
	}
	c.logger.Debug().
		Str("request_id", handle.RequestID).
		Str("status_url", handle.StatusURL).
		Msg("fal: queued request")
	return handle, nil
}

// PollStatus GETs one status snapshot for a queued request.
func (c *Client) PollStatus(ctx context.Context, statusURL string) (*QueueStatus, error) {
	raw, err := c.get(ctx, statusURL)
	if err != nil {
		return nil, err
	}
	var status QueueStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("fal: decode status response: %w", err)
	}
	return &status, nil
}

// FetchResult GETs the final payload of a completed queued request.
func (c *Client) FetchResult(ctx context.Context, responseURL string) (json.RawMessage, error) {
	return c.get(ctx, responseURL)
}

func (c *Client) post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("fal: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("fal: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fal: http request: %w", err)
	}
	defer resp.Body.Close()
	return c.readResponse(resp)
}

func (c *Client) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fal: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fal: http request: %w", err)
	}
	defer resp.Body.Close()
	return c.readResponse(resp)
}

func (c *Client) readResponse(resp *http.Response) (json.RawMessage, error) {
	if resp.StatusCode >= 300 {
		// Best effort: the body may hold useful diagnostics, but a read
		// failure must not mask the status error itself.
		var detail string
		if raw, err := io.ReadAll(io.LimitReader(resp.Body, 8192)); err == nil {
			detail = strings.TrimSpace(string(raw))
		}
		return nil, &ProviderError{Status: resp.StatusCode, Detail: detail}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fal: read response: %w", err)
	}
	return json.RawMessage(raw), nil
}

// download fetches raw image bytes from a URL found in a provider response.
// Output URLs are pre-signed, so no Authorization header is sent.
func (c *Client) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fal: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fal: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, &ImageFetchError{Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fal: read image: %w", err)
	}
	return data, nil
}
