package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Upper bound on a response body the probe will read.
const maxResponseBytes = 8 << 20

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// vehiclesURL builds the GET URL for t, escaping each path segment.
func (c *HTTPClient) vehiclesURL(t Target, withRating bool) string {
	u := c.baseURL + "/vehicles/" + url.PathEscape(t.ModelYear) + "/" +
		url.PathEscape(t.Manufacturer) + "/" + url.PathEscape(t.Model)
	if withRating {
		u += "?withRating=true"
	}
	return u
}

// request sends one check and returns the status and body.
func (c *HTTPClient) request(ctx context.Context, check Check, requestID string) (int, []byte, error) {
	var (
		req *http.Request
		err error
	)
	switch check.Mode {
	case ModePost:
		body, merr := json.Marshal(check.Target)
		if merr != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/vehicles", bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	default:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.vehiclesURL(check.Target, check.Mode == ModeRating), http.NoBody)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// health fetches /healthz.
func (c *HTTPClient) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}
