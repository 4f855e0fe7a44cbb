package model

import "github.com/shopspring/decimal"

// Dashboard is the portfolio-level rollup of all active budgets.
type Dashboard struct {
	TotalBudgets        int             `json:"total_budgets"`
	ActiveBudgets       int             `json:"active_budgets"`
	TotalBudgetAmount   decimal.Decimal `json:"total_budget_amount"`
	TotalActualAmount   decimal.Decimal `json:"total_actual_amount"`
	OverallUsagePercent decimal.Decimal `json:"overall_usage_percent"`
	ExceededCount       int             `json:"exceeded_count"`
	WarningCount        int             `json:"warning_count"`
	OnTrackCount        int             `json:"on_track_count"`
	BudgetUsages        []UsageSnapshot `json:"budget_usages"`
}

// BuildDashboard folds per-budget snapshots into portfolio totals. Bucket
// counts are tallied from each snapshot's status so they always agree with
// the per-budget classification.
func BuildDashboard(usages []UsageSnapshot) *Dashboard {
	d := &Dashboard{
		TotalBudgets:      len(usages),
		ActiveBudgets:     len(usages),
		TotalBudgetAmount: decimal.Zero,
		TotalActualAmount: decimal.Zero,
		BudgetUsages:      usages,
	}

	for _, u := range usages {
		d.TotalBudgetAmount = d.TotalBudgetAmount.Add(u.BudgetAmount)
		d.TotalActualAmount = d.TotalActualAmount.Add(u.ActualAmount)

		switch u.Status {
		case StatusExceeded:
			d.ExceededCount++
		case StatusWarning:
			d.WarningCount++
		default:
			d.OnTrackCount++
		}
	}

	d.OverallUsagePercent = UsagePercent(d.TotalActualAmount, d.TotalBudgetAmount)
	return d
}
