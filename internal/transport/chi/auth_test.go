package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(t *testing.T, keys []string, method, path, auth string) *httptest.ResponseRecorder {
	t.Helper()
	handler := BearerAuthMiddleware(keys)(okHandler())

	req := httptest.NewRequest(method, path, http.NoBody)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_EmptyKeys_PassThrough(t *testing.T) {
	for _, keys := range [][]string{nil, {"", ""}} {
		if rr := serve(t, keys, "GET", "/api/openrouter/balance", ""); rr.Code != http.StatusOK {
			t.Errorf("keys %q: got %d, want %d", keys, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		auth    string
		wantMsg string
	}{
		{"missing header", "", "missing authorization header"},
		{"wrong scheme", "Basic c2VjcmV0", "authorization header must use Bearer scheme"},
		{"wrong key", "Bearer nope", "invalid api key"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, []string{"secret"}, "GET", "/api/openai/codex/limits", tc.auth)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("got %d, want %d", rr.Code, http.StatusUnauthorized)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if body.Error != tc.wantMsg {
				t.Errorf("got %q, want %q", body.Error, tc.wantMsg)
			}
		})
	}
}

func TestAuthMiddleware_ValidKey(t *testing.T) {
	rr := serve(t, []string{"a", "secret"}, "GET", "/api/github/copilot/premium-usage", "Bearer secret")
	if rr.Code != http.StatusOK {
		t.Errorf("valid key: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_Exemptions(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		if rr := serve(t, []string{"secret"}, "GET", path, ""); rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
	if rr := serve(t, []string{"secret"}, "OPTIONS", "/api/openrouter/balance", ""); rr.Code != http.StatusOK {
		t.Errorf("preflight: got %d, want %d", rr.Code, http.StatusOK)
	}
}
