// Package upstream performs single-shot JSON GET requests against provider APIs.
package upstream

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

	"go.uber.org/zap"

	"github.com/kailas-cloud/usagedash/internal/metrics"
)

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 8 << 20

var (
	// ErrTransport signals that no HTTP response was received.
	ErrTransport = errors.New("upstream transport failure")
	// ErrDecode signals a response body that is not a single JSON value.
	ErrDecode = errors.New("upstream body is not valid JSON")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string // trimmed response body
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.Code)
}

// Client issues GET requests for one provider. Ambient proxy settings are ignored.
type Client struct {
	http     *http.Client
	provider string
	logger   *zap.Logger
}

// NewClient creates a Client with a bounded timeout and no proxy.
func NewClient(provider string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http:     NewHTTPClient(timeout),
		provider: provider,
		logger:   logger,
	}
}

// NewHTTPClient returns an http.Client that never consults proxy environment variables.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	return &http.Client{Timeout: timeout, Transport: transport}
}

// WithHTTPClient replaces the underlying HTTP client (tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// GetJSON fetches url and decodes the body into a generic JSON value
// (objects as map[string]any, numbers as json.Number).
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		c.observe("network_error")
		c.logger.Warn("upstream request failed", zap.String("provider", c.provider), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.observe("network_error")
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe("http_error")
		c.logger.Warn("upstream returned error status",
			zap.String("provider", c.provider),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	v, err := decode(body)
	if err != nil {
		c.observe("parse_error")
		return nil, err
	}

	c.observe("ok")
	return v, nil
}

func (c *Client) observe(outcome string) {
	metrics.UpstreamRequestsTotal.WithLabelValues(c.provider, outcome).Inc()
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrDecode)
	}
	return v, nil
}

// Bearer builds request headers with a bearer token plus extra key/value pairs.
func Bearer(token string, kv ...string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}
