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

// ErrInvalidInput marks client-facing validation failures.
var ErrInvalidInput = errors.New("invalid input")

// BudgetRequest is the payload for creating or updating a budget. An empty
// Thresholds slice means "use defaults" on create and "leave unchanged" on
// update; a non-empty slice replaces the full threshold set.
type BudgetRequest struct {
	Name        string                `json:"name"`
	Type        model.BudgetType      `json:"budget_type"`
	TargetID    string                `json:"target_id"`
	Amount      decimal.Decimal       `json:"amount"`
	PeriodType  model.PeriodType      `json:"period_type"`
	StartDate   time.Time             `json:"start_date"`
	EndDate     *time.Time            `json:"end_date,omitempty"`
	Currency    string                `json:"currency,omitempty"`
	Description string                `json:"description,omitempty"`
	Thresholds  []model.ThresholdSpec `json:"thresholds,omitempty"`
}

// Service owns the budget lifecycle: creation with default thresholds,
// updates with full threshold replacement, and soft deletion.
type Service struct {
	store    storage.Storage
	defaults []model.ThresholdSpec
	logger   *slog.Logger
}

// NewService creates a budget service. defaults is the threshold set
// attached to budgets created without an explicit list; pass
// model.DefaultThresholds() for the standard 50/80/100 set.
func NewService(store storage.Storage, defaults []model.ThresholdSpec, logger *slog.Logger) *Service {
	return &Service{store: store, defaults: defaults, logger: logger}
}

// Create validates the request and persists a new active budget. When no
// thresholds are supplied the service's default set is attached.
func (s *Service) Create(ctx context.Context, req BudgetRequest) (*model.Budget, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	specs := req.Thresholds
	if len(specs) == 0 {
		specs = s.defaults
	}

	currency := req.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	budget := &model.Budget{
		Name:        req.Name,
		Type:        req.Type,
		TargetID:    req.TargetID,
		Amount:      req.Amount,
		PeriodType:  req.PeriodType,
		StartDate:   model.DateOf(req.StartDate),
		EndDate:     req.EndDate,
		Currency:    currency,
		Description: req.Description,
		Active:      true,
		Thresholds:  buildThresholds(specs),
	}

	if err := s.store.CreateBudget(ctx, budget); err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}

	s.logger.Info("budget created", "id", budget.ID, "name", budget.Name, "amount", budget.Amount.StringFixed(2))
	return budget, nil
}

// Update applies the request to an existing budget. A non-empty threshold
// list replaces the prior set entirely; nil or empty leaves it untouched, so
// a client omitting the field cannot silently strip a budget of its alerts.
func (s *Service) Update(ctx context.Context, id string, req BudgetRequest) (*model.Budget, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	budget, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}

	budget.Name = req.Name
	budget.Type = req.Type
	budget.TargetID = req.TargetID
	budget.Amount = req.Amount
	budget.PeriodType = req.PeriodType
	budget.StartDate = model.DateOf(req.StartDate)
	budget.EndDate = req.EndDate
	if req.Currency != "" {
		budget.Currency = req.Currency
	}
	budget.Description = req.Description

	replace := len(req.Thresholds) > 0
	if replace {
		budget.Thresholds = buildThresholds(req.Thresholds)
	}

	if err := s.store.UpdateBudget(ctx, budget, replace); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}

	s.logger.Info("budget updated", "id", budget.ID, "name", budget.Name)
	return budget, nil
}

// Delete soft-deletes a budget; the row and its alert history survive.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeactivateBudget(ctx, id); err != nil {
		return err
	}
	s.logger.Info("budget deactivated", "id", id)
	return nil
}

// Get returns one budget with its thresholds.
func (s *Service) Get(ctx context.Context, id string) (*model.Budget, error) {
	return s.store.GetBudget(ctx, id)
}

// ListActive returns all active budgets with thresholds.
func (s *Service) ListActive(ctx context.Context) ([]model.Budget, error) {
	return s.store.ListActiveBudgets(ctx)
}

// Alerts returns a budget's alert history, newest first.
func (s *Service) Alerts(ctx context.Context, budgetID string) ([]model.BudgetAlert, error) {
	if _, err := s.store.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.store.ListAlerts(ctx, budgetID)
}

func validateRequest(req BudgetRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown budget type %q", ErrInvalidInput, req.Type)
	}
	if req.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if req.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	for _, spec := range req.Thresholds {
		if spec.Percent < model.MinThresholdPercent || spec.Percent > model.MaxThresholdPercent {
			return fmt.Errorf("%w: threshold percent %d out of range [%d, %d]",
				ErrInvalidInput, spec.Percent, model.MinThresholdPercent, model.MaxThresholdPercent)
		}
		if spec.Notification != "" && !spec.Notification.Valid() {
			return fmt.Errorf("%w: unknown notification type %q", ErrInvalidInput, spec.Notification)
		}
	}
	return nil
}

func buildThresholds(specs []model.ThresholdSpec) []model.BudgetThreshold {
	thresholds := make([]model.BudgetThreshold, 0, len(specs))
	for _, spec := range specs {
		notification := spec.Notification
		if notification == "" {
			notification = model.NotifySlack
		}
		thresholds = append(thresholds, model.BudgetThreshold{
			Percent:      spec.Percent,
			Notification: notification,
			Active:       true,
		})
	}
	return thresholds
}
