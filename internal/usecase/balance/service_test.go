package balance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/usagedash/internal/domain"
)

// --- Mock ---

type mockKeyFetcher struct {
	payload any
	err     error
	gotKey  string
}

func (m *mockKeyFetcher) FetchKey(_ context.Context, apiKey string) (any, error) {
	m.gotKey = apiKey
	return m.payload, m.err
}

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.Local)

func newService(f KeyFetcher, vars map[string]string) *Service {
	return New(f, "OPENROUTER_KEY").WithEnv(env(vars)).WithClock(func() time.Time { return fixedNow })
}

// --- Tests ---

func TestGet_LowBudget(t *testing.T) {
	f := &mockKeyFetcher{payload: map[string]any{
		"data": map[string]any{"limit_remaining": 5.0, "limit": 100.0},
	}}
	svc := newService(f, map[string]string{"OPENROUTER_KEY": "sk-or"})

	b, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if f.gotKey != "sk-or" {
		t.Errorf("expected key sk-or, got %q", f.gotKey)
	}
	if b.PercentRemaining != 5.0 || !b.WarningLowBudget {
		t.Errorf("expected 5%% with warning, got %v/%v", b.PercentRemaining, b.WarningLowBudget)
	}
	if b.FetchedAt != "2026-10-15T09:30:00.000000" {
		t.Errorf("unexpected fetchedAt %q", b.FetchedAt)
	}
}

func TestGet_MissingKey(t *testing.T) {
	f := &mockKeyFetcher{}
	_, err := newService(f, nil).Get(context.Background())

	var se *domain.ServiceError
	if !errors.As(err, &se) || !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if se.Message != "OPENROUTER_KEY environment variable is not set" {
		t.Errorf("unexpected message %q", se.Message)
	}
	if se.Status != 500 {
		t.Errorf("expected status 500, got %d", se.Status)
	}
	if f.gotKey != "" {
		t.Error("fetcher should not be called without a key")
	}
}

func TestGet_PropagatesFetchError(t *testing.T) {
	upstreamErr := domain.NewParseError("Failed to parse response: boom")
	_, err := newService(&mockKeyFetcher{err: upstreamErr}, map[string]string{"OPENROUTER_KEY": "k"}).
		Get(context.Background())

	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestGet_MissingDataIsZero(t *testing.T) {
	b, err := newService(&mockKeyFetcher{payload: map[string]any{}}, map[string]string{"OPENROUTER_KEY": "k"}).
		Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if b.TotalLimit != 0 || b.PercentRemaining != 0 {
		t.Errorf("expected zero balance, got %+v", b)
	}
}

func TestGet_BadShape(t *testing.T) {
	for name, payload := range map[string]any{
		"array":       []any{},
		"scalar data": map[string]any{"data": "x"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newService(&mockKeyFetcher{payload: payload}, map[string]string{"OPENROUTER_KEY": "k"}).
				Get(context.Background())
			if !errors.Is(err, domain.ErrShape) {
				t.Fatalf("expected shape error, got %v", err)
			}
		})
	}
}
