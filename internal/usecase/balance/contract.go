package balance

import "context"

// KeyFetcher reads the raw key payload from the credit provider.
type KeyFetcher interface {
	FetchKey(ctx context.Context, apiKey string) (any, error)
}
