// API service for making raw HTTP requests to the collection backend
package services

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

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/tcgtrack/internal/shared"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// APIService provides methods for making raw HTTP requests to the collection backend.
//
// GET requests answered with 429 are retried with exponential backoff. Writes are never retried.
type APIService struct {
	baseURL      string
	httpClient   *http.Client
	logger       *log.Logger
	retryInitial time.Duration
	retryMax     time.Duration
}

// NewAPIService creates a new API service instance for the collection backend.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   client,
		logger:       log.New(io.Discard),
		retryInitial: 500 * time.Millisecond,
		retryMax:     30 * time.Second,
	}
}

// SetLogger replaces the service logger.
func (a *APIService) SetLogger(l *log.Logger) {
	if l != nil {
		a.logger = l
	}
}

// SetRetry configures the backoff for rate-limited reads. A zero maxElapsed disables retries.
func (a *APIService) SetRetry(initial, maxElapsed time.Duration) {
	a.retryInitial = initial
	a.retryMax = maxElapsed
}

// BaseURL returns the configured base URL.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	if a.retryMax <= 0 {
		return a.do(ctx, http.MethodGet, path, nil)
	}

	var resp *APIResponse
	operation := func() error {
		r, err := a.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp = r
		if r.StatusCode == http.StatusTooManyRequests {
			a.logger.Warn("rate limited, retrying with backoff", "path", path)
			return fmt.Errorf("rate limited (429)")
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.retryInitial
	b.MaxInterval = a.retryMax
	b.MaxElapsedTime = a.retryMax
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		// A rate-limited response that outlived the retry budget is still a response.
		if resp != nil && ctx.Err() == nil && !errors.Is(err, shared.ErrNetwork) {
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

// Patch performs a PATCH request with the given JSON data and returns the raw response.
func (a *APIService) Patch(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPatch, path, data)
}

// Delete performs a DELETE request and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodDelete, path, nil)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrNetwork, err)
	}

	a.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
