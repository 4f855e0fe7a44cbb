package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finopshq/budgetwatch/pkg/model"
	"github.com/finopshq/budgetwatch/pkg/monitor"
	"github.com/finopshq/budgetwatch/pkg/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, storage.Storage) {
	t.Helper()

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(reg)

	service := monitor.NewService(store, model.DefaultThresholds(), logger)
	mon := monitor.NewMonitor(store, store, store, metrics, logger)
	srv := NewServer(service, mon, store, reg, logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createBudget(t *testing.T, ts *httptest.Server, name string, amount string) model.Budget {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/v1/budgets", map[string]any{
		"name":        name,
		"budget_type": "PROJECT",
		"amount":      amount,
		"period_type": "MONTHLY",
		"start_date":  "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var budget model.Budget
	decodeBody(t, resp, &budget)
	return budget
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndGetBudget(t *testing.T) {
	ts, _ := newTestServer(t)

	created := createBudget(t, ts, "prod-spend", "1000")
	assert.NotEmpty(t, created.ID)
	assert.Len(t, created.Thresholds, 3)

	resp, err := http.Get(ts.URL + "/api/v1/budgets/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Budget
	decodeBody(t, resp, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "prod-spend", got.Name)
	assert.True(t, decimal.NewFromInt(1000).Equal(got.Amount))
}

func TestCreateBudget_ValidationError(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/budgets", map[string]any{
		"name":        "",
		"budget_type": "PROJECT",
		"amount":      "100",
		"period_type": "MONTHLY",
		"start_date":  "2024-01-01",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateBudget_BadDate(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/budgets", map[string]any{
		"name":        "bad-date",
		"budget_type": "PROJECT",
		"amount":      "100",
		"period_type": "MONTHLY",
		"start_date":  "01/01/2024",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetBudget_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/budgets/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateBudget(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createBudget(t, ts, "to-update", "500")

	raw, err := json.Marshal(map[string]any{
		"name":        "updated",
		"budget_type": "PROJECT",
		"amount":      "750",
		"period_type": "MONTHLY",
		"start_date":  "2024-01-01",
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/budgets/"+created.ID, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Budget
	decodeBody(t, resp, &got)
	assert.Equal(t, "updated", got.Name)
	assert.True(t, decimal.NewFromInt(750).Equal(got.Amount))
}

func TestDeleteBudget(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createBudget(t, ts, "to-delete", "100")

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/budgets/"+created.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	listResp, err := http.Get(ts.URL + "/api/v1/budgets")
	require.NoError(t, err)
	var budgets []model.Budget
	decodeBody(t, listResp, &budgets)
	assert.Empty(t, budgets)
}

func TestRecordCostAndUsage(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createBudget(t, ts, "usage-budget", "1000")

	today := time.Now().UTC().Format("2006-01-02")
	resp := postJSON(t, ts.URL+"/api/v1/costs", map[string]any{
		"date":   today,
		"amount": "250",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	usageResp, err := http.Get(fmt.Sprintf("%s/api/v1/budgets/%s/usage", ts.URL, created.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, usageResp.StatusCode)

	var snap model.UsageSnapshot
	decodeBody(t, usageResp, &snap)
	assert.True(t, decimal.NewFromInt(250).Equal(snap.ActualAmount))
	assert.True(t, decimal.NewFromInt(25).Equal(snap.UsagePercent), "got %s", snap.UsagePercent)
	assert.Equal(t, model.StatusOnTrack, snap.Status)
}

func TestRecordCost_NegativeAmount(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/costs", map[string]any{
		"date":   "2024-01-01",
		"amount": "-5",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckEndpointEmitsAlerts(t *testing.T) {
	ts, store := newTestServer(t)
	created := createBudget(t, ts, "hot-budget", "100")

	today := time.Now().UTC()
	require.NoError(t, store.RecordDailyCost(context.Background(), &model.DailyCost{
		CostDate:  today,
		TotalCost: decimal.NewFromInt(85),
	}))

	resp := postJSON(t, ts.URL+"/api/v1/check", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	decodeBody(t, resp, &result)
	assert.Equal(t, float64(1), result["budgets_checked"])
	assert.Equal(t, float64(2), result["alerts_emitted"])

	alertsResp, err := http.Get(fmt.Sprintf("%s/api/v1/budgets/%s/alerts", ts.URL, created.ID))
	require.NoError(t, err)
	var alerts []model.BudgetAlert
	decodeBody(t, alertsResp, &alerts)
	assert.Len(t, alerts, 2)
}

func TestDashboardEndpoint(t *testing.T) {
	ts, store := newTestServer(t)
	createBudget(t, ts, "a", "600")
	createBudget(t, ts, "b", "400")

	require.NoError(t, store.RecordDailyCost(context.Background(), &model.DailyCost{
		CostDate:  time.Now().UTC(),
		TotalCost: decimal.NewFromInt(200),
	}))

	resp, err := http.Get(ts.URL + "/api/v1/dashboard")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dashboard model.Dashboard
	decodeBody(t, resp, &dashboard)
	assert.Equal(t, 2, dashboard.TotalBudgets)
	assert.True(t, decimal.NewFromInt(1000).Equal(dashboard.TotalBudgetAmount))
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
