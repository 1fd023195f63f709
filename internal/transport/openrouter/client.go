// Package openrouter fetches API key credit data from OpenRouter.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/usagedash/internal/domain"
	"github.com/kailas-cloud/usagedash/internal/transport/upstream"
)

// Provider is the metrics label for OpenRouter calls.
const Provider = "openrouter"

// Config holds the OpenRouter client settings.
type Config struct {
	KeyURL       string
	BaseURL      string // OpenAI-compatible API root
	ProbeTimeout time.Duration
	HTTP         *upstream.Client
	Logger       *zap.Logger
}

// Client reads the current key's limits and usage.
type Client struct {
	keyURL  string
	baseURL string
	http    *upstream.Client
	probe   *http.Client
	logger  *zap.Logger
}

// NewClient creates an OpenRouter client.
func NewClient(cfg *Config) *Client {
	return &Client{
		keyURL:  cfg.KeyURL,
		baseURL: cfg.BaseURL,
		http:    cfg.HTTP,
		probe:   upstream.NewHTTPClient(cfg.ProbeTimeout),
		logger:  cfg.Logger,
	}
}

// FetchKey returns the decoded key endpoint payload.
// Every upstream failure maps to a 500, matching the balance endpoint contract.
func (c *Client) FetchKey(ctx context.Context, apiKey string) (any, error) {
	v, err := c.http.GetJSON(ctx, c.keyURL, upstream.Bearer(apiKey))
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

// HealthCheck verifies the key against the OpenAI-compatible model listing.
func (c *Client) HealthCheck(ctx context.Context, apiKey string) error {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.probe

	if _, err := openai.NewClientWithConfig(cfg).ListModels(ctx); err != nil {
		c.logger.Debug("openrouter probe failed", zap.Error(err))
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func mapError(err error) error {
	var se *upstream.StatusError
	switch {
	case errors.As(err, &se):
		return domain.WithStatus(
			domain.NewUpstreamError("Request failed: "+se.Error(), domain.Truncate(se.Body)),
			http.StatusInternalServerError,
		)
	case errors.Is(err, upstream.ErrDecode):
		return domain.NewParseError("Failed to parse response: " + err.Error())
	default:
		return domain.WithStatus(
			domain.NewUpstreamError("Request failed: "+err.Error(), ""),
			http.StatusInternalServerError,
		)
	}
}
