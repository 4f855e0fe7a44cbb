package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finopshq/budgetwatch/pkg/model"
	"github.com/finopshq/budgetwatch/pkg/storage"
)

// DedupWindow is the rolling look-back used to suppress duplicate alerts for
// the same (budget, threshold percent) pair.
const DedupWindow = 24 * time.Hour

// Ledger returns total recorded spend for an inclusive date range. A range
// with no recorded spend yields zero.
type Ledger interface {
	TotalCostBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

// Monitor runs usage aggregation, threshold evaluation, and alert emission
// over the active budget set.
type Monitor struct {
	budgets storage.BudgetStore
	alerts  storage.AlertStore
	ledger  Ledger
	metrics *Metrics
	logger  *slog.Logger
}

// NewMonitor creates a budget monitor. metrics may be nil.
func NewMonitor(budgets storage.BudgetStore, alerts storage.AlertStore, ledger Ledger, metrics *Metrics, logger *slog.Logger) *Monitor {
	return &Monitor{
		budgets: budgets,
		alerts:  alerts,
		ledger:  ledger,
		metrics: metrics,
		logger:  logger,
	}
}

// Usage computes the usage snapshot for one budget as of ref. Actual spend
// is summed from the resolved period start through ref, not through the
// period end, so an open period reports partial spend.
func (m *Monitor) Usage(ctx context.Context, b *model.Budget, ref time.Time) (*model.UsageSnapshot, error) {
	periodStart, periodEnd := model.ResolvePeriod(b.PeriodType, b.StartDate, b.EndDate, ref)

	actual, err := m.ledger.TotalCostBetween(ctx, periodStart, ref)
	if err != nil {
		return nil, fmt.Errorf("total spend for budget %q: %w", b.Name, err)
	}

	snap := model.NewUsageSnapshot(b, periodStart, periodEnd, actual)
	if m.metrics != nil {
		m.metrics.ObserveUsage(b.Name, snap.UsagePercent)
	}
	return snap, nil
}

// UsageByID loads a budget and computes its usage snapshot.
func (m *Monitor) UsageByID(ctx context.Context, id string, ref time.Time) (*model.UsageSnapshot, error) {
	b, err := m.budgets.GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.Usage(ctx, b, ref)
}

// Dashboard rolls the usage of every active budget into a portfolio view.
func (m *Monitor) Dashboard(ctx context.Context, ref time.Time) (*model.Dashboard, error) {
	budgets, err := m.budgets.ListActiveBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}

	usages := make([]model.UsageSnapshot, 0, len(budgets))
	for i := range budgets {
		snap, err := m.Usage(ctx, &budgets[i], ref)
		if err != nil {
			return nil, err
		}
		usages = append(usages, *snap)
	}

	return model.BuildDashboard(usages), nil
}

// CheckResult summarizes one evaluation pass.
type CheckResult struct {
	BudgetsChecked int
	AlertsEmitted  int
	Suppressed     int
	Failures       []error
}

// Err returns the pass failures joined, or nil when every budget evaluated
// cleanly.
func (r *CheckResult) Err() error {
	return errors.Join(r.Failures...)
}

// RunCheck evaluates every active budget against its active thresholds as of
// now, emitting a deduplicated alert for each crossed threshold. A threshold
// still above its percent is re-detected on every pass; suppression happens
// only through the 24h dedup window. One budget's failure does not stop the
// pass; failures are collected in the result.
func (m *Monitor) RunCheck(ctx context.Context, now time.Time) (*CheckResult, error) {
	started := time.Now()
	budgets, err := m.budgets.ListActiveBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}

	result := &CheckResult{}
	for i := range budgets {
		b := &budgets[i]
		emitted, err := m.checkBudget(ctx, b, now)
		if err != nil {
			m.logger.Error("budget evaluation failed", "budget", b.Name, "error", err)
			result.Failures = append(result.Failures, fmt.Errorf("budget %q: %w", b.Name, err))
			continue
		}
		result.BudgetsChecked++
		result.AlertsEmitted += emitted.emitted
		result.Suppressed += emitted.suppressed
	}

	if m.metrics != nil {
		m.metrics.ObservePass(time.Since(started), result)
	}
	m.logger.Info("threshold check finished",
		"budgets", result.BudgetsChecked,
		"alerts", result.AlertsEmitted,
		"suppressed", result.Suppressed,
		"failures", len(result.Failures),
	)
	return result, nil
}

type budgetOutcome struct {
	emitted    int
	suppressed int
}

// checkBudget evaluates one budget's thresholds. Any storage or ledger
// failure aborts this budget only.
func (m *Monitor) checkBudget(ctx context.Context, b *model.Budget, now time.Time) (budgetOutcome, error) {
	var out budgetOutcome

	usage, err := m.Usage(ctx, b, now)
	if err != nil {
		return out, err
	}

	for i := range b.Thresholds {
		th := &b.Thresholds[i]
		if !th.Active {
			continue
		}

		crossed := usage.UsagePercent.GreaterThanOrEqual(decimal.NewFromInt(int64(th.Percent)))
		if !crossed {
			continue
		}

		recent, err := m.alerts.CountRecentAlerts(ctx, b.ID, th.Percent, now.Add(-DedupWindow))
		if err != nil {
			return out, fmt.Errorf("count recent alerts: %w", err)
		}
		if recent > 0 {
			out.suppressed++
			continue
		}

		alert := &model.BudgetAlert{
			BudgetID:         b.ID,
			ThresholdPercent: th.Percent,
			ActualAmount:     usage.ActualAmount,
			BudgetAmount:     usage.BudgetAmount,
			UsagePercent:     usage.UsagePercent,
			Message:          renderAlertMessage(b, th.Percent, usage),
			SentAt:           now,
		}
		if err := m.alerts.EmitAlert(ctx, alert, th.ID); err != nil {
			return out, fmt.Errorf("emit alert for %d%%: %w", th.Percent, err)
		}
		stamped := now
		th.LastTriggeredAt = &stamped
		out.emitted++

		m.logger.Warn("budget threshold crossed",
			"budget", b.Name,
			"threshold_pct", th.Percent,
			"usage_pct", usage.UsagePercent.StringFixed(2),
			"actual", usage.ActualAmount.StringFixed(2),
			"limit", usage.BudgetAmount.StringFixed(2),
		)
	}

	return out, nil
}

func renderAlertMessage(b *model.Budget, percent int, usage *model.UsageSnapshot) string {
	return fmt.Sprintf("[Budget Alert] %q crossed the %d%% threshold. Current usage: %s%%, spend: $%s / $%s",
		b.Name, percent,
		usage.UsagePercent.StringFixed(2),
		usage.ActualAmount.StringFixed(2),
		usage.BudgetAmount.StringFixed(2),
	)
}
