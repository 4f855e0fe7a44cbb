package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics contains Prometheus collectors for the monitoring engine.
type Metrics struct {
	checkPasses      prometheus.Counter
	budgetsEvaluated prometheus.Counter
	alertsEmitted    prometheus.Counter
	alertsSuppressed prometheus.Counter
	checkFailures    prometheus.Counter
	budgetUsage      *prometheus.GaugeVec
	passDuration     prometheus.Histogram
}

// NewMetrics creates engine metrics registered against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		checkPasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetwatch_check_passes_total",
			Help: "Total number of threshold evaluation passes",
		}),
		budgetsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetwatch_budgets_evaluated_total",
			Help: "Total number of budgets evaluated across all passes",
		}),
		alertsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetwatch_alerts_emitted_total",
			Help: "Total number of threshold alerts persisted",
		}),
		alertsSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetwatch_alerts_suppressed_total",
			Help: "Total number of crossed thresholds suppressed by the dedup window",
		}),
		checkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "budgetwatch_check_failures_total",
			Help: "Total number of per-budget evaluation failures",
		}),
		budgetUsage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "budgetwatch_budget_usage_percent",
			Help: "Latest computed usage percentage per budget",
		}, []string{"budget"}),
		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "budgetwatch_check_pass_duration_seconds",
			Help:    "Duration of threshold evaluation passes",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveUsage records the latest usage percentage for a budget.
func (m *Metrics) ObserveUsage(budgetName string, usagePercent decimal.Decimal) {
	pct, _ := usagePercent.Float64()
	m.budgetUsage.WithLabelValues(budgetName).Set(pct)
}

// ObservePass records the outcome of one evaluation pass.
func (m *Metrics) ObservePass(elapsed time.Duration, result *CheckResult) {
	m.checkPasses.Inc()
	m.budgetsEvaluated.Add(float64(result.BudgetsChecked))
	m.alertsEmitted.Add(float64(result.AlertsEmitted))
	m.alertsSuppressed.Add(float64(result.Suppressed))
	m.checkFailures.Add(float64(len(result.Failures)))
	m.passDuration.Observe(elapsed.Seconds())
}
