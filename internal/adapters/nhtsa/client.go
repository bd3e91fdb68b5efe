// Package nhtsa is the outbound client for the NHTSA SafetyRatings web API.
package nhtsa

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/mcreate/pkg/logger"
	"github.com/okian/mcreate/pkg/metrics"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public NHTSA API origin.
	DefaultBaseURL = "https://one.nhtsa.gov"

	safetyRatingsPath = "/webapi/api/SafetyRatings"
	formatQuery       = "?format=json"
	maxBodyBytes      = 4 << 20
	defaultTimeout    = 10 * time.Second
)

// Call kinds used for logging and metrics.
const (
	CallVehicles = "vehicles"
	CallCrash    = "crash"
)

// Client issues the two upstream calls the facade needs.
// It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	userAgent string
	logger    logger.Logger
}

// NewClient creates a client. Without options it talks to DefaultBaseURL
// with a 10s timeout and no rate limit.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		http:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout:   defaultTimeout,
		userAgent: "mcreate/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.http
	hc.Timeout = c.timeout
	c.http = &hc
	if c.logger == nil {
		c.logger = logger.Named("nhtsa")
	}
	return c
}

// VehiclesPath builds the vehicles-by-model path. Segments are used as given;
// callers normalize them first.
func VehiclesPath(modelYear, manufacturer, model string) string {
	return safetyRatingsPath + "/modelyear/" + modelYear + "/make/" + manufacturer + "/model/" + model + formatQuery
}

// CrashPath builds the crash-rating-by-id path.
func CrashPath(vehicleID string) string {
	return safetyRatingsPath + "/VehicleId/" + vehicleID + formatQuery
}

// VehiclesByModel fetches the vehicles for a normalized year/make/model and
// returns the raw JSON document.
func (c *Client) VehiclesByModel(ctx context.Context, modelYear, manufacturer, model string) ([]byte, error) {
	return c.get(ctx, CallVehicles, VehiclesPath(modelYear, manufacturer, model))
}

// CrashRating fetches the safety rating document for one vehicle id.
func (c *Client) CrashRating(ctx context.Context, vehicleID string) ([]byte, error) {
	if strings.TrimSpace(vehicleID) == "" {
		return nil, ErrInvalidVehicleID
	}
	return c.get(ctx, CallCrash, CrashPath(vehicleID))
}

func (c *Client) get(ctx context.Context, call, path string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordUpstreamRequest(call, outcome, float64(time.Since(start).Milliseconds()))
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRequest, err)
		}
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug(ctx, "upstream call failed", logger.String("call", call), logger.String("path", path), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequest, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug(ctx, "upstream returned error status",
			logger.String("call", call),
			logger.String("path", path),
			logger.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{Call: call, Code: resp.StatusCode}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s response is not JSON", ErrDecode, call)
	}
	return body, nil
}
