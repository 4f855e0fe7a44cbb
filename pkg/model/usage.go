package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageStatus classifies a budget's spend level for its current period.
type UsageStatus string

const (
	StatusOnTrack  UsageStatus = "ON_TRACK"
	StatusWarning  UsageStatus = "WARNING"
	StatusExceeded UsageStatus = "EXCEEDED"
)

var (
	hundred       = decimal.NewFromInt(100)
	warningBound  = decimal.NewFromInt(80)
	exceededBound = hundred
)

// UsageSnapshot is the computed spend picture for one budget's current
// period as of a reference date.
type UsageSnapshot struct {
	BudgetID          string            `json:"budget_id"`
	BudgetName        string            `json:"budget_name"`
	BudgetAmount      decimal.Decimal   `json:"budget_amount"`
	ActualAmount      decimal.Decimal   `json:"actual_amount"`
	RemainingAmount   decimal.Decimal   `json:"remaining_amount"`
	UsagePercent      decimal.Decimal   `json:"usage_percent"`
	Status            UsageStatus       `json:"status"`
	PeriodStart       time.Time         `json:"period_start"`
	PeriodEnd         time.Time         `json:"period_end"`
	ThresholdStatuses []ThresholdStatus `json:"threshold_statuses"`
}

// ThresholdStatus is the informational trip-wire state inside a snapshot,
// distinct from the stateful crossing detection done by the monitor.
type ThresholdStatus struct {
	Percent       int             `json:"threshold_percent"`
	Triggered     bool            `json:"triggered"`
	TriggerAmount decimal.Decimal `json:"trigger_amount"`
}

// UsagePercent returns actual/amount as a percentage rounded half-up to two
// decimal places. A zero or negative budget amount yields zero, never an
// error.
func UsagePercent(actual, amount decimal.Decimal) decimal.Decimal {
	if amount.Sign() <= 0 {
		return decimal.Zero
	}
	return actual.Mul(hundred).DivRound(amount, 2)
}

// TriggerAmount returns amount * percent / 100 rounded half-up to two
// decimal places.
func TriggerAmount(amount decimal.Decimal, percent int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(percent))).DivRound(hundred, 2)
}

// StatusFor buckets a usage percentage. The low side of each bucket is
// exclusive: exactly 80.00 is ON_TRACK and exactly 100.00 is WARNING.
func StatusFor(usagePercent decimal.Decimal) UsageStatus {
	switch {
	case usagePercent.GreaterThan(exceededBound):
		return StatusExceeded
	case usagePercent.GreaterThan(warningBound):
		return StatusWarning
	default:
		return StatusOnTrack
	}
}

// NewUsageSnapshot assembles the usage picture for a budget given the actual
// spend summed over its resolved period. Triggered is inclusive: spend equal
// to a threshold's trigger amount counts as triggered.
func NewUsageSnapshot(b *Budget, periodStart, periodEnd time.Time, actualAmount decimal.Decimal) *UsageSnapshot {
	percent := UsagePercent(actualAmount, b.Amount)

	statuses := make([]ThresholdStatus, 0, len(b.Thresholds))
	for _, th := range b.Thresholds {
		trigger := TriggerAmount(b.Amount, th.Percent)
		statuses = append(statuses, ThresholdStatus{
			Percent:       th.Percent,
			Triggered:     actualAmount.GreaterThanOrEqual(trigger),
			TriggerAmount: trigger,
		})
	}

	return &UsageSnapshot{
		BudgetID:          b.ID,
		BudgetName:        b.Name,
		BudgetAmount:      b.Amount,
		ActualAmount:      actualAmount,
		RemainingAmount:   b.Amount.Sub(actualAmount),
		UsagePercent:      percent,
		Status:            StatusFor(percent),
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		ThresholdStatuses: statuses,
	}
}
