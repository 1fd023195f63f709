package limits

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/usagedash/internal/domain"
	"github.com/kailas-cloud/usagedash/internal/domain/coerce"
	"github.com/kailas-cloud/usagedash/internal/domain/ratelimit"
	logpkg "github.com/kailas-cloud/usagedash/internal/logger"
	"github.com/kailas-cloud/usagedash/internal/metrics"
)

// AuthUnavailableMessage tells the user how to provide Codex credentials.
const AuthUnavailableMessage = "ChatGPT Codex auth is unavailable. Set CHATGPT_ACCESS_TOKEN and " +
	"CHATGPT_ACCOUNT_ID or sign in with Codex CLI."

// Service reports Codex rate-limit windows and credits.
type Service struct {
	creds   CredentialResolver
	fetcher UsageFetcher
	now     func() time.Time
}

// New creates a Service.
func New(creds CredentialResolver, fetcher UsageFetcher) *Service {
	return &Service{creds: creds, fetcher: fetcher, now: time.Now}
}

// WithClock overrides the fetchedAt clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get resolves credentials, fetches usage and normalizes it.
func (s *Service) Get(ctx context.Context) (ratelimit.Limits, error) {
	cred, err := s.creds.Resolve()
	if err != nil {
		return ratelimit.Limits{}, domain.NewConfigError(AuthUnavailableMessage, err.Error())
	}

	payload, err := s.fetcher.FetchUsage(ctx, cred)
	if err != nil {
		return ratelimit.Limits{}, err
	}

	obj, err := ratelimit.Validate(payload)
	if err != nil {
		return ratelimit.Limits{}, err
	}

	l := ratelimit.NewLimits(obj, coerce.FormatLocal(s.now()))
	observe("general", l.Limits)
	observe("code_review", l.CodeReviewLimits)

	plan, ok := obj["plan_type"]
	if !ok {
		plan = "unknown"
	}
	logpkg.FromContext(ctx).Info("Codex limits fetched",
		zap.String("source", cred.Source),
		zap.String("plan", fmt.Sprint(plan)),
	)
	return l, nil
}

func observe(block string, b ratelimit.Block) {
	if b.Primary != nil {
		metrics.CodexWindowUsedPercent.WithLabelValues(block, "primary").Set(b.Primary.UsedPercent)
	}
	if b.Secondary != nil {
		metrics.CodexWindowUsedPercent.WithLabelValues(block, "secondary").Set(b.Secondary.UsedPercent)
	}
}
