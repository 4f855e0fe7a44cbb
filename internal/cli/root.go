package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/finopshq/budgetwatch/internal/config"
	"github.com/finopshq/budgetwatch/pkg/alerts"
	"github.com/finopshq/budgetwatch/pkg/model"
	"github.com/finopshq/budgetwatch/pkg/monitor"
	"github.com/finopshq/budgetwatch/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "budgetwatch",
	Short: "Budget Watch - Cloud spend budget monitoring and alerting",
	Long: `Budget Watch tracks cloud spend against configured budgets.
It evaluates usage per budget period, fires threshold alerts with
deduplication, and serves a dashboard and HTTP API for integrations.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.budgetwatch/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initNotifiers creates alert notifiers from config, split into the chat
// channel class (Slack and generic webhooks) and the mail class.
func initNotifiers(cfg *config.Config) (chat, mail []alerts.Notifier) {
	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		chat = append(chat, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		chat = append(chat, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	if cfg.Alerts.Email.Enabled && cfg.Alerts.Email.Host != "" {
		mail = append(mail, alerts.NewEmailNotifier(
			cfg.Alerts.Email.Host,
			cfg.Alerts.Email.Port,
			cfg.Alerts.Email.Username,
			cfg.Alerts.Email.Password,
			cfg.Alerts.Email.From,
			cfg.Alerts.Email.To,
		))
	}

	return chat, mail
}

// initMonitor creates a fully wired monitor and budget service.
func initMonitor(cfg *config.Config) (*monitor.Monitor, *monitor.Service, storage.Storage, error) {
	logger := newLogger(cfg)

	store, err := initStorage(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	metrics := monitor.NewMetrics(nil)
	mon := monitor.NewMonitor(store, store, store, metrics, logger)
	service := monitor.NewService(store, model.DefaultThresholds(), logger)

	return mon, service, store, nil
}
