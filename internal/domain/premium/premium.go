// Package premium aggregates GitHub Copilot premium-request billing line items.
package premium

import (
	"math"

	"github.com/kailas-cloud/usagedash/internal/domain/coerce"
)

// DefaultMonthlyLimit is the Copilot Pro included premium-request quota.
const DefaultMonthlyLimit = 300.0

// PlanName is reported alongside the monthly limit.
const PlanName = "Copilot Pro"

// Plan describes the subscription the totals are measured against.
type Plan struct {
	Name         string
	MonthlyLimit float64
}

// Totals is the fold of all usage items against the monthly limit.
type Totals struct {
	IncludedUsed        float64
	IncludedRemaining   float64
	IncludedPercentUsed float64
	GrossUsed           float64
	NetOverage          float64
	BilledAmount        float64
}

// Report is the normalized premium-usage payload.
type Report struct {
	Plan       Plan
	User       any
	TimePeriod any
	Totals     Totals
	UsageItems []any
	FetchedAt  string
}

// MonthlyLimit parses a configured monthly limit, substituting
// DefaultMonthlyLimit for empty, invalid or non-positive values.
func MonthlyLimit(raw string) float64 {
	limit := coerce.Float(raw)
	if limit <= 0 {
		return DefaultMonthlyLimit
	}
	return limit
}

// Aggregate sums usage items and derives included-quota figures.
// Items that are not objects contribute nothing.
func Aggregate(items []any, monthlyLimit float64) Totals {
	var included, gross, net, billed float64
	for _, raw := range items {
		item, _ := raw.(map[string]any)
		included += coerce.Float(item["discountQuantity"])
		gross += coerce.Float(item["grossQuantity"])
		net += coerce.Float(item["netQuantity"])
		billed += coerce.Float(item["netAmount"])
	}

	remaining := math.Max(monthlyLimit-included, 0)
	var pctUsed float64
	if monthlyLimit > 0 {
		pctUsed = math.Min(included/monthlyLimit*100, 100)
	}

	return Totals{
		IncludedUsed:        coerce.Round(included, 4),
		IncludedRemaining:   coerce.Round(remaining, 4),
		IncludedPercentUsed: coerce.Round(pctUsed, 1),
		GrossUsed:           coerce.Round(gross, 4),
		NetOverage:          coerce.Round(net, 4),
		BilledAmount:        coerce.Round(billed, 4),
	}
}

// NewReport assembles a Report from a decoded billing payload.
// user falls back to the configured username and timePeriod to an empty object.
func NewReport(payload map[string]any, username string, monthlyLimit float64, fetchedAt string) Report {
	items, _ := payload["usageItems"].([]any)
	if items == nil {
		items = []any{}
	}

	user, ok := payload["user"]
	if !ok {
		user = username
	}
	period, ok := payload["timePeriod"]
	if !ok {
		period = map[string]any{}
	}

	return Report{
		Plan:       Plan{Name: PlanName, MonthlyLimit: coerce.Round(monthlyLimit, 2)},
		User:       user,
		TimePeriod: period,
		Totals:     Aggregate(items, monthlyLimit),
		UsageItems: items,
		FetchedAt:  fetchedAt,
	}
}
