package alerts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Notification is the outbound payload for one persisted budget alert.
type Notification struct {
	BudgetID         string          `json:"budget_id"`
	BudgetName       string          `json:"budget_name"`
	ThresholdPercent int             `json:"threshold_percent"`
	ActualAmount     decimal.Decimal `json:"actual_amount"`
	BudgetAmount     decimal.Decimal `json:"budget_amount"`
	UsagePercent     decimal.Decimal `json:"usage_percent"`
	Currency         string          `json:"currency"`
	Message          string          `json:"message"`
	SentAt           time.Time       `json:"sent_at"`
}

// Notifier delivers notifications to an external system.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers a notification. Implementations must be safe for
	// concurrent use.
	Send(ctx context.Context, n Notification) error
}
