package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finopshq/budgetwatch/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	// Threshold rows cascade with their budget
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = now
	}
	budget.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create budget: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO budgets (id, name, budget_type, target_id, amount, period_type,
			start_date, end_date, currency, description, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.ID, budget.Name, budget.Type, budget.TargetID, budget.Amount.String(),
		budget.PeriodType, budget.StartDate, nullableTime(budget.EndDate),
		budget.Currency, budget.Description, budget.Active, budget.CreatedAt, budget.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}

	if err := insertThresholds(ctx, tx, budget.ID, budget.Thresholds); err != nil {
		return err
	}
	for i := range budget.Thresholds {
		budget.Thresholds[i].BudgetID = budget.ID
	}

	return tx.Commit()
}

func (s *SQLite) UpdateBudget(ctx context.Context, budget *model.Budget, replaceThresholds bool) error {
	budget.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update budget: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE budgets SET name = ?, budget_type = ?, target_id = ?, amount = ?,
			period_type = ?, start_date = ?, end_date = ?, currency = ?,
			description = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		budget.Name, budget.Type, budget.TargetID, budget.Amount.String(),
		budget.PeriodType, budget.StartDate, nullableTime(budget.EndDate),
		budget.Currency, budget.Description, budget.Active, budget.UpdatedAt, budget.ID,
	)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("budget %q: %w", budget.ID, ErrNotFound)
	}

	if replaceThresholds {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM budget_thresholds WHERE budget_id = ?`, budget.ID); err != nil {
			return fmt.Errorf("clear thresholds: %w", err)
		}
		if err := insertThresholds(ctx, tx, budget.ID, budget.Thresholds); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertThresholds(ctx context.Context, tx *sql.Tx, budgetID string, thresholds []model.BudgetThreshold) error {
	for i := range thresholds {
		th := &thresholds[i]
		if th.ID == "" {
			th.ID = uuid.New().String()
		}
		if th.CreatedAt.IsZero() {
			th.CreatedAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budget_thresholds (id, budget_id, threshold_percent, notification_type,
				is_active, last_triggered_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			th.ID, budgetID, th.Percent, th.Notification, th.Active,
			nullableTime(th.LastTriggeredAt), th.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert threshold %d%%: %w", th.Percent, err)
		}
	}
	return nil
}

func (s *SQLite) GetBudget(ctx context.Context, id string) (*model.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, budget_type, target_id, amount, period_type, start_date,
			end_date, currency, description, is_active, created_at, updated_at
		 FROM budgets WHERE id = ?`, id)

	budget, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("budget %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	budget.Thresholds, err = s.loadThresholds(ctx, budget.ID)
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *SQLite) ListActiveBudgets(ctx context.Context) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, budget_type, target_id, amount, period_type, start_date,
			end_date, currency, description, is_active, created_at, updated_at
		 FROM budgets WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		budgets = append(budgets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range budgets {
		budgets[i].Thresholds, err = s.loadThresholds(ctx, budgets[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

func (s *SQLite) DeactivateBudget(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate budget: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("budget %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) loadThresholds(ctx context.Context, budgetID string) ([]model.BudgetThreshold, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, budget_id, threshold_percent, notification_type, is_active,
			last_triggered_at, created_at
		 FROM budget_thresholds WHERE budget_id = ? ORDER BY threshold_percent`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}
	defer rows.Close()

	var thresholds []model.BudgetThreshold
	for rows.Next() {
		var th model.BudgetThreshold
		var lastTriggered sql.NullTime
		if err := rows.Scan(&th.ID, &th.BudgetID, &th.Percent, &th.Notification,
			&th.Active, &lastTriggered, &th.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan threshold row: %w", err)
		}
		if lastTriggered.Valid {
			t := lastTriggered.Time
			th.LastTriggeredAt = &t
		}
		thresholds = append(thresholds, th)
	}
	return thresholds, rows.Err()
}

func (s *SQLite) EmitAlert(ctx context.Context, alert *model.BudgetAlert, thresholdID string) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.SentAt.IsZero() {
		alert.SentAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin emit alert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO budget_alerts (id, budget_id, threshold_percent, actual_amount,
			budget_amount, usage_percent, message, sent_at, slack_sent, email_sent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.BudgetID, alert.ThresholdPercent,
		alert.ActualAmount.String(), alert.BudgetAmount.String(), alert.UsagePercent.String(),
		alert.Message, alert.SentAt, alert.SlackSent, alert.EmailSent,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE budget_thresholds SET last_triggered_at = ? WHERE id = ?`,
		alert.SentAt, thresholdID,
	)
	if err != nil {
		return fmt.Errorf("stamp threshold: %w", err)
	}

	return tx.Commit()
}

func (s *SQLite) CountRecentAlerts(ctx context.Context, budgetID string, thresholdPercent int, since time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budget_alerts
		 WHERE budget_id = ? AND threshold_percent = ? AND sent_at >= ?`,
		budgetID, thresholdPercent, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent alerts: %w", err)
	}
	return count, nil
}

func (s *SQLite) ListAlerts(ctx context.Context, budgetID string) ([]model.BudgetAlert, error) {
	return s.queryAlerts(ctx,
		`SELECT id, budget_id, threshold_percent, actual_amount, budget_amount,
			usage_percent, message, sent_at, slack_sent, email_sent
		 FROM budget_alerts WHERE budget_id = ? ORDER BY sent_at DESC`, budgetID)
}

func (s *SQLite) ListUndelivered(ctx context.Context) ([]model.BudgetAlert, error) {
	return s.queryAlerts(ctx,
		`SELECT id, budget_id, threshold_percent, actual_amount, budget_amount,
			usage_percent, message, sent_at, slack_sent, email_sent
		 FROM budget_alerts WHERE slack_sent = 0 OR email_sent = 0 ORDER BY sent_at`)
}

func (s *SQLite) queryAlerts(ctx context.Context, query string, args ...any) ([]model.BudgetAlert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.BudgetAlert
	for rows.Next() {
		var a model.BudgetAlert
		var actual, amount, percent string
		if err := rows.Scan(&a.ID, &a.BudgetID, &a.ThresholdPercent, &actual, &amount,
			&percent, &a.Message, &a.SentAt, &a.SlackSent, &a.EmailSent); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		if a.ActualAmount, err = decimal.NewFromString(actual); err != nil {
			return nil, fmt.Errorf("parse actual amount: %w", err)
		}
		if a.BudgetAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse budget amount: %w", err)
		}
		if a.UsagePercent, err = decimal.NewFromString(percent); err != nil {
			return nil, fmt.Errorf("parse usage percent: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *SQLite) MarkDelivered(ctx context.Context, alertID string, slackSent, emailSent bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE budget_alerts SET slack_sent = ?, email_sent = ? WHERE id = ?`,
		slackSent, emailSent, alertID,
	)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("alert %q: %w", alertID, ErrNotFound)
	}
	return nil
}

func (s *SQLite) RecordDailyCost(ctx context.Context, cost *model.DailyCost) error {
	if cost.ID == "" {
		cost.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if cost.CreatedAt.IsZero() {
		cost.CreatedAt = now
	}
	cost.UpdatedAt = now
	if cost.Currency == "" {
		cost.Currency = model.DefaultCurrency
	}
	cost.CostDate = model.DateOf(cost.CostDate)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_costs (id, cost_date, total_cost, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cost_date) DO UPDATE SET
		   total_cost = excluded.total_cost,
		   currency = excluded.currency,
		   updated_at = excluded.updated_at`,
		cost.ID, cost.CostDate, cost.TotalCost.String(), cost.Currency,
		cost.CreatedAt, cost.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record daily cost: %w", err)
	}
	return nil
}

func (s *SQLite) TotalCostBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT total_cost FROM daily_costs WHERE cost_date >= ? AND cost_date <= ?`,
		model.DateOf(start), model.DateOf(end),
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query daily costs: %w", err)
	}
	defer rows.Close()

	// Amounts are stored as decimal strings, so the sum happens here rather
	// than in SQL to avoid float accumulation.
	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan daily cost: %w", err)
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse daily cost: %w", err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row rowScanner) (*model.Budget, error) {
	var b model.Budget
	var amount string
	var endDate sql.NullTime
	err := row.Scan(&b.ID, &b.Name, &b.Type, &b.TargetID, &amount, &b.PeriodType,
		&b.StartDate, &endDate, &b.Currency, &b.Description, &b.Active,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if endDate.Valid {
		t := endDate.Time
		b.EndDate = &t
	}
	return &b, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
