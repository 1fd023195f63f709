package limits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/usagedash/internal/domain"
	"github.com/kailas-cloud/usagedash/internal/domain/ratelimit"
	"github.com/kailas-cloud/usagedash/internal/metrics"
)

// --- Mocks ---

type mockResolver struct {
	cred ratelimit.Credential
	err  error
}

func (m *mockResolver) Resolve() (ratelimit.Credential, error) { return m.cred, m.err }

type mockFetcher struct {
	payload any
	err     error
	got     ratelimit.Credential
	calls   int
}

func (m *mockFetcher) FetchUsage(_ context.Context, cred ratelimit.Credential) (any, error) {
	m.calls++
	m.got = cred
	return m.payload, m.err
}

var envCred = ratelimit.Credential{AccessToken: "tok", AccountID: "acct", Source: ratelimit.SourceEnvironment}

func newService(r CredentialResolver, f UsageFetcher) *Service {
	return New(r, f).WithClock(func() time.Time { return time.Unix(1700000000, 0) })
}

// --- Tests ---

func TestGet_MissingPrimaryWindow(t *testing.T) {
	f := &mockFetcher{payload: map[string]any{
		"plan_type": "pro",
		"rate_limit": map[string]any{
			"allowed":       true,
			"limit_reached": false,
			"secondary_window": map[string]any{
				"used_percent":         42.5,
				"limit_window_seconds": 604800.0,
				"reset_after_seconds":  3600.0,
				"reset_at":             1700000000.0,
			},
		},
		"credits": map[string]any{"has_credits": true, "balance": "2.5"},
	}}

	l, err := newService(&mockResolver{cred: envCred}, f).Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if f.got != envCred {
		t.Errorf("unexpected credential passed %+v", f.got)
	}
	if l.Limits.Primary != nil {
		t.Errorf("expected nil primary, got %+v", l.Limits.Primary)
	}
	sec := l.Limits.Secondary
	if sec == nil {
		t.Fatal("expected secondary window")
	}
	if sec.UsedPercent != 42.5 || !sec.Allowed || sec.LimitReached {
		t.Errorf("unexpected secondary %+v", sec)
	}
	if sec.ResetAtISO == nil || *sec.ResetAtISO != "2023-11-14T22:13:20+00:00" {
		t.Errorf("unexpected resetAtIso %v", sec.ResetAtISO)
	}
	if l.PlanType != "pro" {
		t.Errorf("unexpected plan %v", l.PlanType)
	}
	if !l.Credits.HasCredits || l.Credits.Balance != 2.5 {
		t.Errorf("unexpected credits %+v", l.Credits)
	}

	got := testutil.ToFloat64(metrics.CodexWindowUsedPercent.WithLabelValues("general", "secondary"))
	if got != 42.5 {
		t.Errorf("expected secondary gauge 42.5, got %f", got)
	}
}

func TestGet_CredentialsUnavailable(t *testing.T) {
	f := &mockFetcher{}
	_, err := newService(&mockResolver{err: errors.New("/home/u/.codex/auth.json was not found")}, f).
		Get(context.Background())

	var se *domain.ServiceError
	if !errors.As(err, &se) || !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if se.Message != AuthUnavailableMessage {
		t.Errorf("unexpected message %q", se.Message)
	}
	if se.Details != "/home/u/.codex/auth.json was not found" {
		t.Errorf("unexpected details %q", se.Details)
	}
	if se.Status != 500 {
		t.Errorf("expected 500, got %d", se.Status)
	}
	if f.calls != 0 {
		t.Error("fetcher should not be called without credentials")
	}
}

func TestGet_ShapeError(t *testing.T) {
	f := &mockFetcher{payload: map[string]any{"plan_type": "plus"}}
	_, err := newService(&mockResolver{cred: envCred}, f).Get(context.Background())

	if !errors.Is(err, domain.ErrShape) {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestGet_UpstreamError(t *testing.T) {
	f := &mockFetcher{err: domain.NewUpstreamError("ChatGPT Codex usage API request failed with status 403", "forbidden")}
	_, err := newService(&mockResolver{cred: envCred}, f).Get(context.Background())

	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
