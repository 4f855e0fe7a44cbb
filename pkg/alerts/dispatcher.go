package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finopshq/budgetwatch/pkg/model"
	"github.com/finopshq/budgetwatch/pkg/storage"
)

// Dispatcher delivers persisted alerts through the configured channels and
// is the only writer of the alert delivery flags. The monitoring engine
// inserts alert rows; this picks them up on its own tick.
//
// Chat-style integrations (Slack, generic webhooks) share the slack flag;
// SMTP shares the email flag. A channel a threshold did not ask for is
// flagged delivered immediately so the alert leaves the pending set.
type Dispatcher struct {
	budgets storage.BudgetStore
	alerts  storage.AlertStore
	chat    []Notifier
	mail    []Notifier
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. Either notifier list may be empty.
func NewDispatcher(budgets storage.BudgetStore, alerts storage.AlertStore, chat, mail []Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		budgets: budgets,
		alerts:  alerts,
		chat:    chat,
		mail:    mail,
		logger:  logger,
	}
}

// DispatchPending delivers all alerts with an unset delivery flag. Failed
// sends keep the flag unset so the alert is retried on the next tick; other
// alerts are not blocked by one alert's failure.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	pending, err := d.alerts.ListUndelivered(ctx)
	if err != nil {
		return 0, fmt.Errorf("list undelivered alerts: %w", err)
	}

	delivered := 0
	var failures []error
	for i := range pending {
		alert := &pending[i]
		done, err := d.dispatchOne(ctx, alert)
		if err != nil {
			failures = append(failures, fmt.Errorf("alert %s: %w", alert.ID, err))
			continue
		}
		if done {
			delivered++
		}
	}
	return delivered, errors.Join(failures...)
}

// dispatchOne reports whether the alert ended fully delivered.
func (d *Dispatcher) dispatchOne(ctx context.Context, alert *model.BudgetAlert) (bool, error) {
	budget, err := d.budgets.GetBudget(ctx, alert.BudgetID)
	if err != nil {
		return false, fmt.Errorf("load budget: %w", err)
	}

	wantChat, wantMail := channelsFor(budget, alert.ThresholdPercent)
	n := Notification{
		BudgetID:         alert.BudgetID,
		BudgetName:       budget.Name,
		ThresholdPercent: alert.ThresholdPercent,
		ActualAmount:     alert.ActualAmount,
		BudgetAmount:     alert.BudgetAmount,
		UsagePercent:     alert.UsagePercent,
		Currency:         budget.Currency,
		Message:          alert.Message,
		SentAt:           alert.SentAt,
	}

	slackSent := alert.SlackSent
	if !slackSent {
		slackSent = d.deliver(ctx, d.chat, wantChat, n)
	}
	emailSent := alert.EmailSent
	if !emailSent {
		emailSent = d.deliver(ctx, d.mail, wantMail, n)
	}

	if slackSent != alert.SlackSent || emailSent != alert.EmailSent {
		if err := d.alerts.MarkDelivered(ctx, alert.ID, slackSent, emailSent); err != nil {
			return false, err
		}
	}
	return slackSent && emailSent, nil
}

// deliver fans the notification out to the channel's notifiers and reports
// whether the channel should be considered delivered. An unwanted or
// unconfigured channel counts as delivered.
func (d *Dispatcher) deliver(ctx context.Context, notifiers []Notifier, wanted bool, n Notification) bool {
	if !wanted || len(notifiers) == 0 {
		return true
	}

	ok := true
	for _, notifier := range notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			ok = false
			d.logger.Error("send alert failed",
				"notifier", notifier.Name(),
				"budget", n.BudgetName,
				"threshold_pct", n.ThresholdPercent,
				"error", err,
			)
		}
	}
	return ok
}

// channelsFor resolves the delivery channels from the threshold that fired.
// A threshold replaced since the alert was emitted falls back to Slack.
func channelsFor(budget *model.Budget, thresholdPercent int) (chat, mail bool) {
	notification := model.NotifySlack
	for _, th := range budget.Thresholds {
		if th.Percent == thresholdPercent {
			notification = th.Notification
			break
		}
	}
	switch notification {
	case model.NotifyEmail:
		return false, true
	case model.NotifyBoth:
		return true, true
	default:
		return true, false
	}
}
