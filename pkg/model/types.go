package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetType describes what a budget's target identifier refers to.
type BudgetType string

const (
	TypeTeam    BudgetType = "TEAM"
	TypeProject BudgetType = "PROJECT"
	TypeService BudgetType = "SERVICE"
)

// Valid reports whether the budget type is one of the known values.
func (t BudgetType) Valid() bool {
	switch t {
	case TypeTeam, TypeProject, TypeService:
		return true
	}
	return false
}

// PeriodType defines how a budget's current period window is derived.
type PeriodType string

const (
	PeriodMonthly   PeriodType = "MONTHLY"
	PeriodQuarterly PeriodType = "QUARTERLY"
	PeriodYearly    PeriodType = "YEARLY"
	PeriodCustom    PeriodType = "CUSTOM"
)

// NotificationType selects the delivery channel for a threshold's alerts.
type NotificationType string

const (
	NotifyEmail NotificationType = "EMAIL"
	NotifySlack NotificationType = "SLACK"
	NotifyBoth  NotificationType = "BOTH"
)

// Valid reports whether the notification type is one of the known values.
func (n NotificationType) Valid() bool {
	switch n {
	case NotifyEmail, NotifySlack, NotifyBoth:
		return true
	}
	return false
}

// Budget is a declared spending limit for a team, project, or service.
// It exclusively owns its thresholds; alerts only reference it by id.
type Budget struct {
	ID          string            `json:"id" db:"id"`
	Name        string            `json:"name" db:"name"`
	Type        BudgetType        `json:"budget_type" db:"budget_type"`
	TargetID    string            `json:"target_id" db:"target_id"`
	Amount      decimal.Decimal   `json:"amount" db:"amount"`
	PeriodType  PeriodType        `json:"period_type" db:"period_type"`
	StartDate   time.Time         `json:"start_date" db:"start_date"`
	EndDate     *time.Time        `json:"end_date,omitempty" db:"end_date"`
	Currency    string            `json:"currency" db:"currency"`
	Description string            `json:"description,omitempty" db:"description"`
	Active      bool              `json:"active" db:"is_active"`
	Thresholds  []BudgetThreshold `json:"thresholds"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// BudgetThreshold is a percent-of-budget trip-wire owned by one budget.
type BudgetThreshold struct {
	ID              string           `json:"id" db:"id"`
	BudgetID        string           `json:"budget_id" db:"budget_id"`
	Percent         int              `json:"threshold_percent" db:"threshold_percent"`
	Notification    NotificationType `json:"notification_type" db:"notification_type"`
	Active          bool             `json:"active" db:"is_active"`
	LastTriggeredAt *time.Time       `json:"last_triggered_at,omitempty" db:"last_triggered_at"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// BudgetAlert is an append-only record of one emitted threshold alert.
// The delivery flags are set later by the notification dispatcher; the
// monitoring engine only ever inserts these rows.
type BudgetAlert struct {
	ID               string          `json:"id" db:"id"`
	BudgetID         string          `json:"budget_id" db:"budget_id"`
	ThresholdPercent int             `json:"threshold_percent" db:"threshold_percent"`
	ActualAmount     decimal.Decimal `json:"actual_amount" db:"actual_amount"`
	BudgetAmount     decimal.Decimal `json:"budget_amount" db:"budget_amount"`
	UsagePercent     decimal.Decimal `json:"usage_percent" db:"usage_percent"`
	Message          string          `json:"message" db:"message"`
	SentAt           time.Time       `json:"sent_at" db:"sent_at"`
	SlackSent        bool            `json:"slack_sent" db:"slack_sent"`
	EmailSent        bool            `json:"email_sent" db:"email_sent"`
}

// DailyCost is one day's total recorded spend.
type DailyCost struct {
	ID        string          `json:"id" db:"id"`
	CostDate  time.Time       `json:"cost_date" db:"cost_date"`
	TotalCost decimal.Decimal `json:"total_cost" db:"total_cost"`
	Currency  string          `json:"currency" db:"currency"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// ThresholdSpec is the creation-time shape of a threshold.
type ThresholdSpec struct {
	Percent      int              `json:"threshold_percent" yaml:"percent"`
	Notification NotificationType `json:"notification_type,omitempty" yaml:"notification,omitempty"`
}

// DefaultThresholds is the threshold set attached to a budget created
// without an explicit list.
func DefaultThresholds() []ThresholdSpec {
	return []ThresholdSpec{
		{Percent: 50, Notification: NotifySlack},
		{Percent: 80, Notification: NotifySlack},
		{Percent: 100, Notification: NotifySlack},
	}
}

// Threshold percent bounds.
const (
	MinThresholdPercent = 1
	MaxThresholdPercent = 200
)

// DefaultCurrency is used when a budget is created without a currency code.
const DefaultCurrency = "USD"
