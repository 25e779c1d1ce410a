package sensorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

const (
	defaultBaseURL   = "http://localhost:5000"
	defaultTimeout   = 15 * time.Second
	maxErrorBodySize = 4096

	msgFetchFailed   = "Failed to fetch sensor data"
	msgPredictFailed = "Prediction failed"
	msgHealthFailed  = "Health check failed"
)

// Client talks to the telemetry/prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	onReject   func(err error)
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRejectHook is called once per upstream row dropped during decoding.
func WithRejectHook(fn func(err error)) Option {
	return func(c *Client) {
		c.onReject = fn
	}
}

// New constructs a Client pointing at the service base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid upstream base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError is the single human-readable failure surfaced for any upstream call.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Err }

// FetchPage requests one 1-based page of telemetry.
func (c *Client) FetchPage(ctx context.Context, page, limit int) (domain.Batch, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, http.MethodGet, "/sensor-data?"+q.Encode(), nil, msgFetchFailed)
	if err != nil {
		return domain.Batch{}, err
	}

	records, total, rowErrs, err := decodePage(body)
	if err != nil {
		return domain.Batch{}, &APIError{Status: http.StatusOK, Message: msgFetchFailed, Err: err}
	}
	if c.onReject != nil {
		for _, rowErr := range rowErrs {
			c.onReject(rowErr)
		}
	}

	return domain.Batch{
		Records:  records,
		Total:    total,
		Page:     page,
		Limit:    limit,
		Rejected: len(rowErrs),
	}, nil
}

// Predict submits one sensor tuple to the model.
func (c *Client) Predict(ctx context.Context, req ports.PredictRequest) (ports.PredictResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/predict", req, msgPredictFailed)
	if err != nil {
		return ports.PredictResult{}, err
	}

	var res ports.PredictResult
	if err := json.Unmarshal(body, &res); err != nil {
		return ports.PredictResult{}, &APIError{Status: http.StatusOK, Message: msgPredictFailed, Err: err}
	}
	if res.Prediction != domain.PredictionNormal && res.Prediction != domain.PredictionFault {
		return ports.PredictResult{}, &APIError{
			Status:  http.StatusOK,
			Message: msgPredictFailed,
			Err:     fmt.Errorf("prediction must be 0 or 1, got %d", res.Prediction),
		}
	}
	if res.Confidence != nil && (*res.Confidence < 0 || *res.Confidence > 1) {
		return ports.PredictResult{}, &APIError{
			Status:  http.StatusOK,
			Message: msgPredictFailed,
			Err:     fmt.Errorf("confidence %v outside [0,1]", *res.Confidence),
		}
	}
	return res, nil
}

// Health calls the service root and returns its payload and content type verbatim.
func (c *Client) Health(ctx context.Context) ([]byte, string, error) {
	body, hdr, err := c.exchange(ctx, http.MethodGet, "/", nil, msgHealthFailed)
	if err != nil {
		return nil, "", err
	}
	return body, hdr.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, fallback string) ([]byte, error) {
	data, _, err := c.exchange(ctx, method, path, body, fallback)
	return data, err
}

func (c *Client) exchange(ctx context.Context, method, path string, body any, fallback string) ([]byte, http.Header, error) {
	if c == nil {
		return nil, nil, errors.New("sensorapi client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &APIError{Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := extractError(io.LimitReader(resp.Body, maxErrorBodySize))
		if msg == "" {
			msg = fallback
		}
		return nil, nil, &APIError{Status: resp.StatusCode, Message: msg, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &APIError{Status: resp.StatusCode, Message: fallback, Err: err}
	}
	return data, resp.Header, nil
}

func extractError(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}

var (
	_ ports.TelemetrySource = (*Client)(nil)
	_ ports.Predictor       = (*Client)(nil)
)
