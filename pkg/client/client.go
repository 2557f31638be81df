package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
	apperrors "github.com/kurihiro0119/msg-ingest/internal/errors"
)

const (
	// IngestPath is the upload endpoint of the ingestion service
	IngestPath = "/api/ingest-msg-dir"

	// FileField is the multipart field carrying the uploaded file
	FileField = "file"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 1024
)

// Client is the API client for the ingestion service
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	timeout    time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithToken sends token as a bearer token on every request
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithRateLimit paces submissions to at most rps per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient
	if base == nil {
		base = &http.Client{Timeout: c.timeout}
	}
	if c.token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}))
		authed.Timeout = base.Timeout
		base = authed
	}
	c.httpClient = base

	return c
}

// Submit uploads a single file and returns the issue identifier assigned to it
func (c *Client) Submit(ctx context.Context, req domain.SubmissionRequest) (*domain.SubmissionResponse, error) {
	failed := fmt.Sprintf("failed to upload %s", req.FileName)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperrors.NewTransportError(failed, err)
		}
	}

	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, apperrors.NewTransportError(failed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+IngestPath, body)
	if err != nil {
		return nil, apperrors.NewTransportError(failed, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewTransportError(failed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewServiceRejection(fmt.Sprintf("%s: %s", failed, resp.Status), readErrorBody(resp.Body))
	}

	var out domain.SubmissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperrors.NewServiceRejection(fmt.Sprintf("malformed response for %s", req.FileName), err)
	}
	if out.IssueID == "" {
		return nil, apperrors.NewServiceRejection(fmt.Sprintf("response for %s carried no issue id", req.FileName), nil)
	}
	return &out, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck(ctx context.Context) error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTransportError("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// encodeMultipart wraps the file in a multipart/form-data body
func encodeMultipart(req domain.SubmissionRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(FileField, req.FileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// readErrorBody extracts the service's error message from a failed response
func readErrorBody(r io.Reader) error {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return errors.New(apiErr.Error.Message)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil
	}
	return errors.New(text)
}
