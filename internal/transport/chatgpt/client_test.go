package chatgpt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/usagedash/internal/domain"
	"github.com/kailas-cloud/usagedash/internal/domain/ratelimit"
	"github.com/kailas-cloud/usagedash/internal/transport/upstream"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newClient(rt roundTripperFunc) *Client {
	hc := upstream.NewClient(Provider, 5*time.Second, zap.NewNop()).
		WithHTTPClient(&http.Client{Transport: rt})
	return NewClient("https://chatgpt.test/backend-api/wham/usage", hc)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

var cred = ratelimit.Credential{AccessToken: "token-a", AccountID: "acct-a", Source: ratelimit.SourceEnvironment}

func TestFetchUsage_Success(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("Authorization"); got != "Bearer token-a" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		if got := req.Header.Get(AccountHeader); got != "acct-a" {
			t.Fatalf("unexpected account header: %s", got)
		}
		return respond(200, `{"plan_type":"plus","rate_limit":{"allowed":true}}`), nil
	})

	v, err := c.FetchUsage(context.Background(), cred)
	if err != nil {
		t.Fatalf("FetchUsage: %v", err)
	}
	if v.(map[string]any)["plan_type"] != "plus" {
		t.Errorf("unexpected payload %#v", v)
	}
}

func TestFetchUsage_HTTPError(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		return respond(401, ` {"detail":"unauthorized"} `), nil
	})

	_, err := c.FetchUsage(context.Background(), cred)

	var se *domain.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if se.Status != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", se.Status)
	}
	if se.Message != "ChatGPT Codex usage API request failed with status 401" {
		t.Errorf("unexpected message %q", se.Message)
	}
	if se.Details != `{"detail":"unauthorized"}` {
		t.Errorf("unexpected details %q", se.Details)
	}
}

func TestFetchUsage_TransportError(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})

	_, err := c.FetchUsage(context.Background(), cred)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestFetchUsage_ParseError(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		return respond(200, "<html>"), nil
	})

	_, err := c.FetchUsage(context.Background(), cred)
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
