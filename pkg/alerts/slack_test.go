package alerts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finopshq/budgetwatch/pkg/alerts"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testNotification() alerts.Notification {
	return alerts.Notification{
		BudgetID:         "b1",
		BudgetName:       "platform",
		ThresholdPercent: 80,
		ActualAmount:     dec("850.00"),
		BudgetAmount:     dec("1000.00"),
		UsagePercent:     dec("85.00"),
		Currency:         "USD",
		Message:          "budget platform crossed 80%",
		SentAt:           time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSlackNotifier_Name(t *testing.T) {
	n := alerts.NewSlackNotifier("https://hooks.slack.com/test", "#test")
	assert.Equal(t, "slack", n.Name())
}

func TestSlackNotifier_Send(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "#cloud-costs")
	err := n.Send(context.Background(), testNotification())
	require.NoError(t, err)
	assert.Equal(t, "#cloud-costs", received["channel"])
	assert.NotNil(t, received["attachments"])
}

func TestSlackNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "#test")
	err := n.Send(context.Background(), testNotification())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSlackNotifier_ExceededUsesDarkRed(t *testing.T) {
	var received struct {
		Attachments []struct {
			Color string `json:"color"`
		} `json:"attachments"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "#test")
	notification := testNotification()
	notification.UsagePercent = dec("125.00")
	require.NoError(t, n.Send(context.Background(), notification))

	require.Len(t, received.Attachments, 1)
	assert.Equal(t, "#cc0000", received.Attachments[0].Color)
}
