package limits

import (
	"context"

	"github.com/kailas-cloud/usagedash/internal/domain/ratelimit"
)

// CredentialResolver finds the ChatGPT credential for a request.
type CredentialResolver interface {
	Resolve() (ratelimit.Credential, error)
}

// UsageFetcher reads the raw Codex usage payload.
type UsageFetcher interface {
	FetchUsage(ctx context.Context, cred ratelimit.Credential) (any, error)
}
