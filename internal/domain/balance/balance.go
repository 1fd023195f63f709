// Package balance models an OpenRouter API key's credit balance.
package balance

import "github.com/kailas-cloud/usagedash/internal/domain/coerce"

// LowBudgetPercent is the remaining-credit share below which a warning is raised.
const LowBudgetPercent = 10.0

// DefaultResetPeriod is reported when the key has no reset schedule.
const DefaultResetPeriod = "N/A"

// Balance is the normalized credit balance of an API key.
type Balance struct {
	TotalLimit       float64
	Remaining        float64
	ResetPeriod      string
	Usage            float64
	UsageDaily       float64
	UsageWeekly      float64
	UsageMonthly     float64
	PercentRemaining float64
	WarningLowBudget bool
	FetchedAt        string
}

// FromKeyData builds a Balance from the "data" object of the key endpoint.
// A nil map yields an all-zero balance.
func FromKeyData(data map[string]any, fetchedAt string) Balance {
	remaining := coerce.Float(data["limit_remaining"])
	limit := coerce.Float(data["limit"])

	resetPeriod := DefaultResetPeriod
	if s, ok := data["limit_reset"].(string); ok {
		resetPeriod = s
	}

	pct := PercentRemaining(remaining, limit)

	return Balance{
		TotalLimit:       limit,
		Remaining:        remaining,
		ResetPeriod:      resetPeriod,
		Usage:            coerce.Float(data["usage"]),
		UsageDaily:       coerce.Float(data["usage_daily"]),
		UsageWeekly:      coerce.Float(data["usage_weekly"]),
		UsageMonthly:     coerce.Float(data["usage_monthly"]),
		PercentRemaining: coerce.Round(pct, 1),
		WarningLowBudget: pct < LowBudgetPercent,
		FetchedAt:        fetchedAt,
	}
}

// PercentRemaining returns remaining/limit as a percentage, or 0 when limit <= 0.
func PercentRemaining(remaining, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return remaining / limit * 100
}
