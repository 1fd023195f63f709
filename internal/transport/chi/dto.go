package chi

import (
	dombalance "github.com/kailas-cloud/usagedash/internal/domain/balance"
	dompremium "github.com/kailas-cloud/usagedash/internal/domain/premium"
	"github.com/kailas-cloud/usagedash/internal/domain/ratelimit"
	healthuc "github.com/kailas-cloud/usagedash/internal/usecase/health"
)

// ErrorResponse is the body of every failed API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// BalanceResponse is the body of GET /api/openrouter/balance.
type BalanceResponse struct {
	TotalLimit       float64 `json:"totalLimit"`
	Remaining        float64 `json:"remaining"`
	ResetPeriod      string  `json:"resetPeriod"`
	Usage            float64 `json:"usage"`
	UsageDaily       float64 `json:"usageDaily"`
	UsageWeekly      float64 `json:"usageWeekly"`
	UsageMonthly     float64 `json:"usageMonthly"`
	PercentRemaining float64 `json:"percentRemaining"`
	WarningLowBudget bool    `json:"warningLowBudget"`
	FetchedAt        string  `json:"fetchedAt"`
}

// PlanResponse names the Copilot plan and its included quota.
type PlanResponse struct {
	Name         string  `json:"name"`
	MonthlyLimit float64 `json:"monthlyLimit"`
}

// TotalsResponse is the premium-request fold.
type TotalsResponse struct {
	IncludedUsed        float64 `json:"includedUsed"`
	IncludedRemaining   float64 `json:"includedRemaining"`
	IncludedPercentUsed float64 `json:"includedPercentUsed"`
	GrossUsed           float64 `json:"grossUsed"`
	NetOverage          float64 `json:"netOverage"`
	BilledAmount        float64 `json:"billedAmount"`
}

// PremiumUsageResponse is the body of GET /api/github/copilot/premium-usage.
type PremiumUsageResponse struct {
	Plan       PlanResponse   `json:"plan"`
	User       any            `json:"user"`
	TimePeriod any            `json:"timePeriod"`
	Totals     TotalsResponse `json:"totals"`
	UsageItems []any          `json:"usageItems"`
	FetchedAt  string         `json:"fetchedAt"`
}

// WindowResponse is one rate-limit window. Absent numbers encode as null.
type WindowResponse struct {
	Allowed           bool    `json:"allowed"`
	LimitReached      bool    `json:"limitReached"`
	UsedPercent       float64 `json:"usedPercent"`
	WindowSeconds     *int64  `json:"windowSeconds"`
	ResetAfterSeconds *int64  `json:"resetAfterSeconds"`
	ResetAtEpoch      *int64  `json:"resetAtEpoch"`
	ResetAtISO        *string `json:"resetAtIso"`
}

// BlockResponse pairs the primary and secondary windows.
type BlockResponse struct {
	Primary   *WindowResponse `json:"primary"`
	Secondary *WindowResponse `json:"secondary"`
}

// CreditsResponse is the Codex credit grant.
type CreditsResponse struct {
	HasCredits bool    `json:"hasCredits"`
	Unlimited  bool    `json:"unlimited"`
	Balance    float64 `json:"balance"`
}

// LimitsResponse is the body of GET /api/openai/codex/limits.
type LimitsResponse struct {
	PlanType         any             `json:"planType"`
	Limits           BlockResponse   `json:"limits"`
	CodeReviewLimits BlockResponse   `json:"codeReviewLimits"`
	Credits          CreditsResponse `json:"credits"`
	FetchedAt        string          `json:"fetchedAt"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func balanceToResponse(b dombalance.Balance) BalanceResponse {
	return BalanceResponse{
		TotalLimit:       b.TotalLimit,
		Remaining:        b.Remaining,
		ResetPeriod:      b.ResetPeriod,
		Usage:            b.Usage,
		UsageDaily:       b.UsageDaily,
		UsageWeekly:      b.UsageWeekly,
		UsageMonthly:     b.UsageMonthly,
		PercentRemaining: b.PercentRemaining,
		WarningLowBudget: b.WarningLowBudget,
		FetchedAt:        b.FetchedAt,
	}
}

func premiumToResponse(r dompremium.Report) PremiumUsageResponse {
	items := r.UsageItems
	if items == nil {
		items = []any{}
	}
	return PremiumUsageResponse{
		Plan:       PlanResponse{Name: r.Plan.Name, MonthlyLimit: r.Plan.MonthlyLimit},
		User:       r.User,
		TimePeriod: r.TimePeriod,
		Totals: TotalsResponse{
			IncludedUsed:        r.Totals.IncludedUsed,
			IncludedRemaining:   r.Totals.IncludedRemaining,
			IncludedPercentUsed: r.Totals.IncludedPercentUsed,
			GrossUsed:           r.Totals.GrossUsed,
			NetOverage:          r.Totals.NetOverage,
			BilledAmount:        r.Totals.BilledAmount,
		},
		UsageItems: items,
		FetchedAt:  r.FetchedAt,
	}
}

func windowToResponse(w *ratelimit.Window) *WindowResponse {
	if w == nil {
		return nil
	}
	return &WindowResponse{
		Allowed:           w.Allowed,
		LimitReached:      w.LimitReached,
		UsedPercent:       w.UsedPercent,
		WindowSeconds:     w.WindowSeconds,
		ResetAfterSeconds: w.ResetAfterSeconds,
		ResetAtEpoch:      w.ResetAtEpoch,
		ResetAtISO:        w.ResetAtISO,
	}
}

func blockToResponse(b ratelimit.Block) BlockResponse {
	return BlockResponse{
		Primary:   windowToResponse(b.Primary),
		Secondary: windowToResponse(b.Secondary),
	}
}

func limitsToResponse(l ratelimit.Limits) LimitsResponse {
	return LimitsResponse{
		PlanType:         l.PlanType,
		Limits:           blockToResponse(l.Limits),
		CodeReviewLimits: blockToResponse(l.CodeReviewLimits),
		Credits: CreditsResponse{
			HasCredits: l.Credits.HasCredits,
			Unlimited:  l.Credits.Unlimited,
			Balance:    l.Credits.Balance,
		},
		FetchedAt: l.FetchedAt,
	}
}

func healthToResponse(r healthuc.Report, version string) HealthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(r.Status), Version: version, Checks: checks}
}
