package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finopshq/budgetwatch/pkg/model"
)

// ErrNotFound is returned when a referenced budget does not exist.
var ErrNotFound = errors.New("not found")

// BudgetStore persists budgets with their thresholds.
type BudgetStore interface {
	// CreateBudget inserts a budget and its thresholds in one transaction.
	CreateBudget(ctx context.Context, budget *model.Budget) error

	// UpdateBudget updates a budget row. When replaceThresholds is true the
	// existing threshold set is deleted and the budget's current list is
	// inserted, all in the same transaction.
	UpdateBudget(ctx context.Context, budget *model.Budget, replaceThresholds bool) error

	// GetBudget retrieves one budget by id with thresholds populated.
	GetBudget(ctx context.Context, id string) (*model.Budget, error)

	// ListActiveBudgets returns all active budgets with thresholds populated.
	ListActiveBudgets(ctx context.Context) ([]model.Budget, error)

	// DeactivateBudget soft-deletes a budget by clearing its active flag.
	DeactivateBudget(ctx context.Context, id string) error
}

// AlertStore persists the append-only alert audit trail.
type AlertStore interface {
	// EmitAlert inserts an alert and stamps the owning threshold's
	// last-triggered time as one unit of work.
	EmitAlert(ctx context.Context, alert *model.BudgetAlert, thresholdID string) error

	// CountRecentAlerts counts alerts for a (budget, threshold percent) pair
	// sent at or after the given time.
	CountRecentAlerts(ctx context.Context, budgetID string, thresholdPercent int, since time.Time) (int64, error)

	// ListAlerts returns a budget's alerts ordered by sent time descending.
	ListAlerts(ctx context.Context, budgetID string) ([]model.BudgetAlert, error)

	// ListUndelivered returns alerts with at least one delivery flag unset.
	ListUndelivered(ctx context.Context) ([]model.BudgetAlert, error)

	// MarkDelivered sets the delivery flags on an alert.
	MarkDelivered(ctx context.Context, alertID string, slackSent, emailSent bool) error
}

// CostLedger records and sums daily spend.
type CostLedger interface {
	// RecordDailyCost upserts the total spend for one calendar date.
	RecordDailyCost(ctx context.Context, cost *model.DailyCost) error

	// TotalCostBetween sums spend for dates in [start, end] inclusive.
	// An empty range yields zero, not an error.
	TotalCostBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

// Storage is the full persistence surface backing the engine.
type Storage interface {
	BudgetStore
	AlertStore
	CostLedger

	// Close releases resources.
	Close() error
}
