package premium

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/usagedash/internal/config"
	"github.com/kailas-cloud/usagedash/internal/domain"
	"github.com/kailas-cloud/usagedash/internal/domain/coerce"
	dompremium "github.com/kailas-cloud/usagedash/internal/domain/premium"
	logpkg "github.com/kailas-cloud/usagedash/internal/logger"
	"github.com/kailas-cloud/usagedash/internal/metrics"
)

// Service reports Copilot premium-request usage against the monthly quota.
type Service struct {
	fetcher        UsageFetcher
	tokenEnv       string
	propertiesPath string
	loadProps      PropertiesLoader
	getenv         func(string) string
	now            func() time.Time
}

// New creates a Service. The properties file is re-read on every call.
func New(fetcher UsageFetcher, tokenEnv, propertiesPath string) *Service {
	return &Service{
		fetcher:        fetcher,
		tokenEnv:       tokenEnv,
		propertiesPath: propertiesPath,
		loadProps:      config.LoadProperties,
		getenv:         os.Getenv,
		now:            time.Now,
	}
}

// WithEnv overrides environment lookup.
func (s *Service) WithEnv(getenv func(string) string) *Service {
	s.getenv = getenv
	return s
}

// WithPropertiesLoader overrides properties loading.
func (s *Service) WithPropertiesLoader(load PropertiesLoader) *Service {
	s.loadProps = load
	return s
}

// WithClock overrides the fetchedAt clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get fetches usage items and folds them into totals.
func (s *Service) Get(ctx context.Context) (dompremium.Report, error) {
	props, err := s.loadProps(s.propertiesPath)
	if err != nil {
		return dompremium.Report{}, domain.NewConfigError("Failed to read "+s.propertiesPath, err.Error())
	}

	token := strings.TrimSpace(s.getenv(s.tokenEnv))
	if token == "" {
		return dompremium.Report{}, domain.NewConfigError(s.tokenEnv+" environment variable is not set", "")
	}

	username := props[config.PropGitHubUsername]
	if username == "" {
		return dompremium.Report{}, domain.NewConfigError(
			config.PropGitHubUsername+" is not set in "+s.propertiesPath, "")
	}
	limit := dompremium.MonthlyLimit(props[config.PropMonthlyLimit])

	payload, err := s.fetcher.FetchPremiumUsage(ctx, token, username)
	if err != nil {
		return dompremium.Report{}, err
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return dompremium.Report{}, domain.NewShapeError("Unexpected GitHub response shape: expected JSON object")
	}

	report := dompremium.NewReport(obj, username, limit, coerce.FormatLocal(s.now()))
	metrics.CopilotIncludedPercentUsed.Set(report.Totals.IncludedPercentUsed)

	logpkg.FromContext(ctx).Info("Copilot usage totals computed",
		zap.Any("user", report.User),
		zap.Float64("included_used", report.Totals.IncludedUsed),
		zap.Float64("included_remaining", report.Totals.IncludedRemaining),
		zap.Float64("included_percent_used", report.Totals.IncludedPercentUsed),
		zap.Float64("net_overage", report.Totals.NetOverage),
		zap.Float64("billed_amount", report.Totals.BilledAmount),
	)
	return report, nil
}
