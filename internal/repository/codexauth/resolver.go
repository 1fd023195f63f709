// Package codexauth resolves ChatGPT credentials from the environment or the
// Codex CLI auth cache. The cache file is only ever read.
package codexauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/usagedash/internal/domain/ratelimit"
)

var (
	// ErrAuthFileNotFound signals that the auth cache file does not exist.
	ErrAuthFileNotFound = errors.New("codex auth file not found")
	// ErrIncompleteAuth signals an auth file without both token fields.
	ErrIncompleteAuth = errors.New("codex auth file is incomplete")
)

// LookupEnv reads an environment variable.
type LookupEnv func(key string) string

// Resolver finds a credential, preferring environment variables.
type Resolver struct {
	accessTokenEnv string
	accountIDEnv   string
	authFile       string
	getenv         LookupEnv
}

// NewResolver creates a Resolver. getenv may be nil (os.Getenv).
func NewResolver(accessTokenEnv, accountIDEnv, authFile string, getenv LookupEnv) *Resolver {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Resolver{
		accessTokenEnv: accessTokenEnv,
		accountIDEnv:   accountIDEnv,
		authFile:       authFile,
		getenv:         getenv,
	}
}

// Resolve returns the first available credential. Nothing is cached between calls.
func (r *Resolver) Resolve() (ratelimit.Credential, error) {
	token := strings.TrimSpace(r.getenv(r.accessTokenEnv))
	account := strings.TrimSpace(r.getenv(r.accountIDEnv))
	if token != "" && account != "" {
		return ratelimit.Credential{
			AccessToken: token,
			AccountID:   account,
			Source:      ratelimit.SourceEnvironment,
		}, nil
	}
	return r.fromAuthFile()
}

func (r *Resolver) fromAuthFile() (ratelimit.Credential, error) {
	data, err := os.ReadFile(filepath.Clean(r.authFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ratelimit.Credential{}, fmt.Errorf("%s was not found: %w", r.authFile, ErrAuthFileNotFound)
		}
		return ratelimit.Credential{}, fmt.Errorf("read %s: %w", r.authFile, err)
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return ratelimit.Credential{}, fmt.Errorf("parse %s: %w", r.authFile, err)
	}

	var tokens map[string]any
	if obj, ok := payload.(map[string]any); ok {
		tokens, _ = obj["tokens"].(map[string]any)
	}
	token := stringField(tokens, "access_token")
	account := stringField(tokens, "account_id")
	if token == "" || account == "" {
		return ratelimit.Credential{}, fmt.Errorf(
			"%s does not contain tokens.access_token and tokens.account_id: %w", r.authFile, ErrIncompleteAuth)
	}

	return ratelimit.Credential{
		AccessToken: token,
		AccountID:   account,
		Source:      ratelimit.SourceAuthCache,
	}, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
