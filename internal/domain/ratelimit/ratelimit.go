// Package ratelimit normalizes ChatGPT Codex usage windows and credits.
package ratelimit

import (
	"github.com/kailas-cloud/usagedash/internal/domain"
	"github.com/kailas-cloud/usagedash/internal/domain/coerce"
)

const shapePrefix = "Unexpected ChatGPT Codex usage response shape: "

// Credential sources.
const (
	SourceEnvironment = "environment"
	SourceAuthCache   = "codex_auth_cache"
)

// Credential is an access token resolved for a single request.
type Credential struct {
	AccessToken string
	AccountID   string
	Source      string
}

// Window is one normalized rate-limit window.
type Window struct {
	Allowed           bool
	LimitReached      bool
	UsedPercent       float64
	WindowSeconds     *int64
	ResetAfterSeconds *int64
	ResetAtEpoch      *int64
	ResetAtISO        *string
}

// Block pairs the primary and secondary windows of one rate limit.
type Block struct {
	Primary   *Window
	Secondary *Window
}

// Credits is the normalized credit grant state.
type Credits struct {
	HasCredits bool
	Unlimited  bool
	Balance    float64
}

// Limits is the normalized usage payload.
type Limits struct {
	PlanType         any
	Limits           Block
	CodeReviewLimits Block
	Credits          Credits
	FetchedAt        string
}

// NormalizeWindow converts a raw window object. Non-objects yield nil.
func NormalizeWindow(raw any, allowed, limitReached bool) *Window {
	w, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	resetAt := coerce.IntOrNil(w["reset_at"])
	return &Window{
		Allowed:           allowed,
		LimitReached:      limitReached,
		UsedPercent:       coerce.Round(coerce.Float(w["used_percent"]), 2),
		WindowSeconds:     coerce.IntOrNil(w["limit_window_seconds"]),
		ResetAfterSeconds: coerce.IntOrNil(w["reset_after_seconds"]),
		ResetAtEpoch:      resetAt,
		ResetAtISO:        coerce.EpochToISO(resetAt),
	}
}

// NormalizeBlock converts a raw rate-limit object. Both windows share the
// block's allowed and limit_reached flags. Non-objects yield an empty Block.
func NormalizeBlock(raw any) Block {
	b, ok := raw.(map[string]any)
	if !ok {
		return Block{}
	}

	allowed := coerce.Truthy(b["allowed"])
	reached := coerce.Truthy(b["limit_reached"])
	return Block{
		Primary:   NormalizeWindow(b["primary_window"], allowed, reached),
		Secondary: NormalizeWindow(b["secondary_window"], allowed, reached),
	}
}

// NormalizeCredits converts a raw credits object, defaulting to no credits.
func NormalizeCredits(raw any) Credits {
	c, ok := raw.(map[string]any)
	if !ok {
		return Credits{}
	}
	return Credits{
		HasCredits: coerce.Truthy(c["has_credits"]),
		Unlimited:  coerce.Truthy(c["unlimited"]),
		Balance:    coerce.Round(coerce.Float(c["balance"]), 4),
	}
}

// NewLimits normalizes a validated usage payload.
func NewLimits(payload map[string]any, fetchedAt string) Limits {
	plan, ok := payload["plan_type"]
	if !ok {
		plan = ""
	}
	return Limits{
		PlanType:         plan,
		Limits:           NormalizeBlock(payload["rate_limit"]),
		CodeReviewLimits: NormalizeBlock(payload["code_review_rate_limit"]),
		Credits:          NormalizeCredits(payload["credits"]),
		FetchedAt:        fetchedAt,
	}
}

// Validate checks the top-level usage payload structure and returns it as an object.
func Validate(payload any) (map[string]any, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, domain.NewShapeError(shapePrefix + "expected JSON object")
	}
	if _, ok := obj["rate_limit"].(map[string]any); !ok {
		return nil, domain.NewShapeError(shapePrefix + "missing rate_limit")
	}
	if cr, present := obj["code_review_rate_limit"]; present && cr != nil {
		if _, ok := cr.(map[string]any); !ok {
			return nil, domain.NewShapeError(shapePrefix + "invalid code_review_rate_limit")
		}
	}
	return obj, nil
}
