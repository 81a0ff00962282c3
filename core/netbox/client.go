package netbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// API endpoint paths, relative to the /api prefix.
const (
	PathDevices     = "/dcim/devices/"
	PathInterfaces  = "/dcim/interfaces/"
	PathIPAddresses = "/ipam/ip-addresses/"
	PathSites       = "/dcim/sites/"
	PathDeviceTypes = "/dcim/device-types/"
	PathDeviceRoles = "/dcim/device-roles/"
	PathPlatforms   = "/dcim/platforms/"
)

// Client talks to the NetBox REST API. Every request, no matter which
// goroutine issues it, first acquires one of RateLimit concurrency permits,
// so the number of in-flight requests stays bounded regardless of how many
// logical operations are scheduled above the client.
type Client struct {
	http     *http.Client
	base     string
	token    string
	pageSize int
	sem      *semaphore.Weighted
	log      *zap.Logger
}

// Response carries the status and raw body of a successful (2xx) API call.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Record decodes the response body as a single API document.
func (r *Response) Record() (Record, error) {
	var rec Record
	if err := r.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// New creates an API client from the configuration. It fails fast, before
// any network activity, when the address or token is missing.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 100
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	// The permit pool allows rateLimit parallel requests against one host;
	// without matching idle connections every page fetch would open a fresh
	// TCP connection.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          rateLimit,
		MaxIdleConnsPerHost:   rateLimit,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
		base:     strings.TrimRight(cfg.Addr, "/") + "/api",
		token:    cfg.Token,
		pageSize: pageSize,
		sem:      semaphore.NewWeighted(int64(rateLimit)),
		log:      log,
	}, nil
}

// PageSize returns the configured list page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Do issues one API request while holding a concurrency permit. The permit
// is released when the call returns, on every path. Non-2xx statuses come
// back as a *StatusError; the client never retries.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	waitStart := time.Now()
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("netbox: acquire request permit: %w", err)
	}
	defer c.sem.Release(1)
	permitWaitSeconds.Observe(time.Since(waitStart).Seconds())

	inFlightRequests.Inc()
	defer inFlightRequests.Dec()

	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("netbox: encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("netbox: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("netbox: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("netbox: read %s %s response: %w", method, path, err)
	}
	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	c.log.Debug("netbox api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       bodySnippet(data),
		}
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// Get issues a GET with query parameters.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, params, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, nil, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// bodySnippet keeps error messages readable when the API returns a page of
// HTML or a long validation document.
func bodySnippet(data []byte) string {
	const max = 256
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
