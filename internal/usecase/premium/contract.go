package premium

import "context"

// UsageFetcher reads the raw premium-request billing payload for a user.
type UsageFetcher interface {
	FetchPremiumUsage(ctx context.Context, token, username string) (any, error)
}

// PropertiesLoader reads the dashboard properties file.
type PropertiesLoader func(path string) (map[string]string, error)
