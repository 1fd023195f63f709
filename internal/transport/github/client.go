// Package github fetches Copilot premium-request billing usage for a user.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/kailas-cloud/usagedash/internal/domain"
	"github.com/kailas-cloud/usagedash/internal/transport/upstream"
)

// Provider is the metrics label for GitHub calls.
const Provider = "github"

// Client reads premium-request usage from the GitHub billing API.
type Client struct {
	urlTemplate string
	apiVersion  string
	http        *upstream.Client
}

// NewClient creates a GitHub billing client. urlTemplate holds one %s for the username.
func NewClient(urlTemplate, apiVersion string, http *upstream.Client) *Client {
	return &Client{urlTemplate: urlTemplate, apiVersion: apiVersion, http: http}
}

// FetchPremiumUsage returns the decoded billing payload for username.
func (c *Client) FetchPremiumUsage(ctx context.Context, token, username string) (any, error) {
	u := fmt.Sprintf(c.urlTemplate, url.PathEscape(username))
	header := upstream.Bearer(token,
		"Accept", "application/vnd.github+json",
		"X-GitHub-Api-Version", c.apiVersion,
	)

	v, err := c.http.GetJSON(ctx, u, header)
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
			fmt.Sprintf("GitHub API request failed with status %d", se.Code),
			domain.Truncate(se.Body),
		)
	case errors.Is(err, upstream.ErrDecode):
		return domain.NewParseError("Failed to parse GitHub response: " + err.Error())
	default:
		return domain.NewUpstreamError("GitHub request failed: "+err.Error(), "")
	}
}
