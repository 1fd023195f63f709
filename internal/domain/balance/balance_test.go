package balance

import "testing"

func TestFromKeyData_LowBudget(t *testing.T) {
	b := FromKeyData(map[string]any{"limit_remaining": 5.0, "limit": 100.0}, "now")

	if b.PercentRemaining != 5.0 {
		t.Errorf("expected percentRemaining 5.0, got %v", b.PercentRemaining)
	}
	if !b.WarningLowBudget {
		t.Error("expected low budget warning")
	}
	if b.ResetPeriod != DefaultResetPeriod {
		t.Errorf("expected reset period %q, got %q", DefaultResetPeriod, b.ResetPeriod)
	}
	if b.FetchedAt != "now" {
		t.Errorf("expected fetchedAt passthrough, got %q", b.FetchedAt)
	}
}

func TestFromKeyData_ZeroLimit(t *testing.T) {
	b := FromKeyData(map[string]any{"limit_remaining": 50.0, "limit": 0.0}, "")

	if b.PercentRemaining != 0 {
		t.Errorf("expected 0 percent for zero limit, got %v", b.PercentRemaining)
	}
	if !b.WarningLowBudget {
		t.Error("zero percent remaining should warn")
	}
}

func TestFromKeyData_Coercion(t *testing.T) {
	b := FromKeyData(map[string]any{
		"limit_remaining": "75.56",
		"limit":           100.0,
		"limit_reset":     "monthly",
		"usage":           nil,
		"usage_daily":     "n/a",
		"usage_weekly":    1.25,
		"usage_monthly":   24.45,
	}, "")

	if b.Remaining != 75.56 {
		t.Errorf("expected remaining 75.56, got %v", b.Remaining)
	}
	if b.PercentRemaining != 75.6 {
		t.Errorf("expected percentRemaining 75.6, got %v", b.PercentRemaining)
	}
	if b.WarningLowBudget {
		t.Error("did not expect low budget warning")
	}
	if b.ResetPeriod != "monthly" {
		t.Errorf("expected reset period monthly, got %q", b.ResetPeriod)
	}
	if b.Usage != 0 || b.UsageDaily != 0 {
		t.Errorf("expected non-numeric usage to coerce to 0, got %v/%v", b.Usage, b.UsageDaily)
	}
	if b.UsageWeekly != 1.25 || b.UsageMonthly != 24.45 {
		t.Errorf("unexpected usage values %v/%v", b.UsageWeekly, b.UsageMonthly)
	}
}

func TestFromKeyData_NilData(t *testing.T) {
	b := FromKeyData(nil, "")
	if b.TotalLimit != 0 || b.Remaining != 0 || b.PercentRemaining != 0 {
		t.Errorf("expected zero balance, got %+v", b)
	}
}

func TestFromKeyData_PercentTieRoundsToEven(t *testing.T) {
	b := FromKeyData(map[string]any{"limit_remaining": 12.25, "limit": 100.0}, "")

	if b.PercentRemaining != 12.2 {
		t.Errorf("expected percentRemaining 12.2, got %v", b.PercentRemaining)
	}
}
