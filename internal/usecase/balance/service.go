package balance

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/usagedash/internal/domain"
	dombalance "github.com/kailas-cloud/usagedash/internal/domain/balance"
	"github.com/kailas-cloud/usagedash/internal/domain/coerce"
	logpkg "github.com/kailas-cloud/usagedash/internal/logger"
	"github.com/kailas-cloud/usagedash/internal/metrics"
)

// Service reports the credit balance of the configured API key.
type Service struct {
	fetcher   KeyFetcher
	apiKeyEnv string
	getenv    func(string) string
	now       func() time.Time
}

// New creates a Service reading the API key from apiKeyEnv on every call.
func New(fetcher KeyFetcher, apiKeyEnv string) *Service {
	return &Service{
		fetcher:   fetcher,
		apiKeyEnv: apiKeyEnv,
		getenv:    os.Getenv,
		now:       time.Now,
	}
}

// WithEnv overrides environment lookup.
func (s *Service) WithEnv(getenv func(string) string) *Service {
	s.getenv = getenv
	return s
}

// WithClock overrides the fetchedAt clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get fetches and normalizes the current balance.
func (s *Service) Get(ctx context.Context) (dombalance.Balance, error) {
	apiKey := strings.TrimSpace(s.getenv(s.apiKeyEnv))
	if apiKey == "" {
		return dombalance.Balance{}, domain.NewConfigError(s.apiKeyEnv+" environment variable is not set", "")
	}

	payload, err := s.fetcher.FetchKey(ctx, apiKey)
	if err != nil {
		return dombalance.Balance{}, err
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return dombalance.Balance{}, domain.NewShapeError("Unexpected OpenRouter response shape: expected JSON object")
	}
	var data map[string]any
	if raw, present := obj["data"]; present && raw != nil {
		if data, ok = raw.(map[string]any); !ok {
			return dombalance.Balance{}, domain.NewShapeError("Unexpected OpenRouter response shape: invalid data")
		}
	}

	b := dombalance.FromKeyData(data, coerce.FormatLocal(s.now()))
	metrics.OpenRouterPercentRemaining.Set(b.PercentRemaining)

	logpkg.FromContext(ctx).Debug("OpenRouter balance fetched",
		zap.Float64("remaining", b.Remaining),
		zap.Float64("limit", b.TotalLimit),
		zap.Bool("low_budget", b.WarningLowBudget),
	)
	return b, nil
}
