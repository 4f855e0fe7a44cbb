package alerts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailNotifier sends budget notifications over SMTP.
type EmailNotifier struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
}

// NewEmailNotifier creates an SMTP notifier. Username may be empty for
// unauthenticated relays.
func NewEmailNotifier(host string, port int, username, password, from string, to []string) *EmailNotifier {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &EmailNotifier{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
		to:   to,
	}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Budget alert: %q crossed %d%%", n.BudgetName, n.ThresholdPercent)
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(e.to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(n.Message)
	fmt.Fprintf(&msg, "\r\n\r\nSpend: %s %s of %s %s (%s%%)\r\n",
		n.ActualAmount.StringFixed(2), n.Currency,
		n.BudgetAmount.StringFixed(2), n.Currency,
		n.UsagePercent.StringFixed(2))

	if err := smtp.SendMail(e.addr, e.auth, e.from, e.to, []byte(msg.String())); err != nil {
		return fmt.Errorf("send alert mail: %w", err)
	}
	return nil
}
