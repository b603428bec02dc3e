package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragdash/internal/domain"
)

// Client talks to the remote analysis service. Every call is a single
// request: no retries and no caching.
type Client struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// Config configures the analysis service client.
type Config struct {
	BaseURL string
	// Timeout bounds each request; zero leaves it to the service.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("remote: base URL is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: base,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}, nil
}

// BaseURL returns the normalised service address.
func (c *Client) BaseURL() string { return c.baseURL }

// ExtractDocument uploads a PDF and returns the text the service extracted.
func (c *Client) ExtractDocument(ctx context.Context, filename string, data []byte) (domain.Document, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return domain.Document{}, &domain.RemoteError{Op: domain.OpUpload, Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return domain.Document{}, &domain.RemoteError{Op: domain.OpUpload, Err: err}
	}
	if err := mw.Close(); err != nil {
		return domain.Document{}, &domain.RemoteError{Op: domain.OpUpload, Err: err}
	}

	var out struct {
		ExtractedText string `json:"extracted_text"`
		Filename      string `json:"filename"`
	}
	if err := c.do(ctx, domain.OpUpload, http.MethodPost, "/upload_document", mw.FormDataContentType(), &body, &out); err != nil {
		return domain.Document{}, err
	}
	return domain.Document{ExtractedText: out.ExtractedText, FileName: out.Filename}, nil
}

type processRequest struct {
	Text   string                `json:"text"`
	Query  string                `json:"query"`
	Config domain.PipelineConfig `json:"config"`
}

// RunPipeline executes chunking, retrieval and scoring on text for query.
func (c *Client) RunPipeline(ctx context.Context, text, query string, cfg domain.PipelineConfig) (domain.PipelineResult, error) {
	data, err := json.Marshal(processRequest{Text: text, Query: query, Config: cfg})
	if err != nil {
		return domain.PipelineResult{}, &domain.RemoteError{Op: domain.OpPipeline, Err: err}
	}
	var out domain.PipelineResult
	if err := c.do(ctx, domain.OpPipeline, http.MethodPost, "/process", "application/json", bytes.NewReader(data), &out); err != nil {
		return domain.PipelineResult{}, err
	}
	return out, nil
}

// Health probes the service root. Any 2xx answer is healthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("health check failed: %s", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op domain.Operation, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &domain.RemoteError{Op: op, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("remote request failed", "op", op, "request_id", reqID, "err", err)
		return &domain.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	c.log.Debug("remote request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(payload),
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", reqID,
	)
	if err != nil {
		return &domain.RemoteError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.RemoteError{
			Op:     op,
			Status: resp.StatusCode,
			Detail: detailOf(payload),
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &domain.RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// detailOf pulls a human-readable detail out of an error body shaped like
// {"detail": "..."}. Structured details (validation lists) are ignored.
func detailOf(payload []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
