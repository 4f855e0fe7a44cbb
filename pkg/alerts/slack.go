package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/finopshq/budgetwatch/pkg/model"
)

// SlackNotifier sends budget notifications to a Slack webhook.
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, n Notification) error {
	color := "#ff9900" // orange
	if model.StatusFor(n.UsagePercent) == model.StatusExceeded {
		color = "#cc0000" // dark red
	}

	payload := slackPayload{
		Channel: s.channel,
		Attachments: []slackAttachment{
			{
				Color: color,
				Title: fmt.Sprintf("Budget Watch: %q crossed %d%%", n.BudgetName, n.ThresholdPercent),
				Text:  n.Message,
				Fields: []slackField{
					{Title: "Budget", Value: n.BudgetName, Short: true},
					{Title: "Threshold", Value: fmt.Sprintf("%d%%", n.ThresholdPercent), Short: true},
					{Title: "Spend", Value: fmt.Sprintf("%s %s", n.ActualAmount.StringFixed(2), n.Currency), Short: true},
					{Title: "Limit", Value: fmt.Sprintf("%s %s", n.BudgetAmount.StringFixed(2), n.Currency), Short: true},
					{Title: "Usage", Value: n.UsagePercent.StringFixed(2) + "%", Short: true},
				},
				Footer: "Budget Watch",
				Ts:     n.SentAt.Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
