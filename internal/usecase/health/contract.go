package health

import (
	"context"

	"github.com/kailas-cloud/usagedash/internal/domain/ratelimit"
)

// OpenRouterChecker probes the credit provider with an API key.
type OpenRouterChecker interface {
	HealthCheck(ctx context.Context, apiKey string) error
}

// CredentialResolver checks that Codex credentials can be found.
type CredentialResolver interface {
	Resolve() (ratelimit.Credential, error)
}
