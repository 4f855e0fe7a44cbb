package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: Initial schema
	`CREATE TABLE IF NOT EXISTS budgets (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		budget_type TEXT NOT NULL CHECK(budget_type IN ('TEAM', 'PROJECT', 'SERVICE')),
		target_id   TEXT NOT NULL DEFAULT '',
		amount      TEXT NOT NULL,
		period_type TEXT NOT NULL,
		start_date  DATETIME NOT NULL,
		end_date    DATETIME,
		currency    TEXT NOT NULL DEFAULT 'USD',
		description TEXT NOT NULL DEFAULT '',
		is_active   INTEGER NOT NULL DEFAULT 1,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_budgets_type ON budgets(budget_type);
	CREATE INDEX IF NOT EXISTS idx_budgets_active ON budgets(is_active);

	CREATE TABLE IF NOT EXISTS budget_thresholds (
		id                TEXT PRIMARY KEY,
		budget_id         TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
		threshold_percent INTEGER NOT NULL CHECK(threshold_percent BETWEEN 1 AND 200),
		notification_type TEXT NOT NULL DEFAULT 'SLACK',
		is_active         INTEGER NOT NULL DEFAULT 1,
		last_triggered_at DATETIME,
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_thresholds_budget ON budget_thresholds(budget_id);

	CREATE TABLE IF NOT EXISTS budget_alerts (
		id                TEXT PRIMARY KEY,
		budget_id         TEXT NOT NULL,
		threshold_percent INTEGER NOT NULL,
		actual_amount     TEXT NOT NULL,
		budget_amount     TEXT NOT NULL,
		usage_percent     TEXT NOT NULL,
		message           TEXT NOT NULL DEFAULT '',
		sent_at           DATETIME NOT NULL,
		slack_sent        INTEGER NOT NULL DEFAULT 0,
		email_sent        INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_budget ON budget_alerts(budget_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_sent ON budget_alerts(sent_at);
	CREATE INDEX IF NOT EXISTS idx_alerts_dedup ON budget_alerts(budget_id, threshold_percent, sent_at);

	CREATE TABLE IF NOT EXISTS daily_costs (
		id         TEXT PRIMARY KEY,
		cost_date  DATETIME NOT NULL UNIQUE,
		total_cost TEXT NOT NULL,
		currency   TEXT NOT NULL DEFAULT 'USD',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	// Ensure migration tracking table exists
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
