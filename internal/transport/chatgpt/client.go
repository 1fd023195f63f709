// Package chatgpt fetches Codex rate-limit usage from the ChatGPT backend.
package chatgpt

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/usagedash/internal/domain"
	"github.com/kailas-cloud/usagedash/internal/domain/ratelimit"
	"github.com/kailas-cloud/usagedash/internal/transport/upstream"
)

// Provider is the metrics label for ChatGPT calls.
const Provider = "chatgpt"

// AccountHeader carries the ChatGPT account the token acts for.
const AccountHeader = "ChatGPT-Account-Id"

// Client reads Codex usage windows.
type Client struct {
	usageURL string
	http     *upstream.Client
}

// NewClient creates a ChatGPT usage client.
func NewClient(usageURL string, http *upstream.Client) *Client {
	return &Client{usageURL: usageURL, http: http}
}

// FetchUsage returns the decoded usage payload for the credential's account.
func (c *Client) FetchUsage(ctx context.Context, cred ratelimit.Credential) (any, error) {
	header := upstream.Bearer(cred.AccessToken,
		AccountHeader, cred.AccountID,
		"Accept", "application/json",
	)

	v, err := c.http.GetJSON(ctx, c.usageURL, header)
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

func mapError(err error) error {
	var se *upstream.StatusError
	switch {
	case errors.As(err, &se):
		return domain.NewUpstreamError(
			fmt.Sprintf("ChatGPT Codex usage API request failed with status %d", se.Code),
			domain.Truncate(se.Body),
		)
	case errors.Is(err, upstream.ErrDecode):
		return domain.NewParseError("Failed to parse ChatGPT Codex usage response: " + err.Error())
	default:
		return domain.NewUpstreamError("ChatGPT Codex usage request failed: "+err.Error(), "")
	}
}
