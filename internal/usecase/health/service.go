package health

import (
	"context"
	"os"
	"strings"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all configured providers are usable.
	Healthy Status = "ok"
	// Degraded indicates at least one provider check failed.
	Degraded Status = "degraded"
)

// CheckResult represents an individual provider check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing check.
	CheckError CheckResult = "error"
	// CheckSkipped indicates the provider is not configured.
	CheckSkipped CheckResult = "skipped"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates provider readiness checks.
type Service struct {
	openrouter OpenRouterChecker
	apiKeyEnv  string
	codex      CredentialResolver
	getenv     func(string) string
}

// New creates a Service. openrouter and codex can be nil.
func New(openrouter OpenRouterChecker, apiKeyEnv string, codex CredentialResolver) *Service {
	return &Service{openrouter: openrouter, apiKeyEnv: apiKeyEnv, codex: codex, getenv: os.Getenv}
}

// WithEnv overrides environment lookup.
func (s *Service) WithEnv(getenv func(string) string) *Service {
	s.getenv = getenv
	return s
}

// Check runs all checks. Unconfigured providers are skipped, not failed.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.openrouter != nil {
		key := strings.TrimSpace(s.getenv(s.apiKeyEnv))
		switch {
		case key == "":
			checks["openrouter"] = CheckSkipped
		case s.openrouter.HealthCheck(ctx, key) != nil:
			checks["openrouter"] = CheckError
		default:
			checks["openrouter"] = CheckOK
		}
	}

	if s.codex != nil {
		if _, err := s.codex.Resolve(); err != nil {
			checks["codex_auth"] = CheckError
		} else {
			checks["codex_auth"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
