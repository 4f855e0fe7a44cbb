package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/finopshq/budgetwatch/pkg/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUsagePercent_RoundsHalfUp(t *testing.T) {
	assert.True(t, dec("85.00").Equal(model.UsagePercent(dec("850"), dec("1000"))))
	assert.True(t, dec("66.67").Equal(model.UsagePercent(dec("400"), dec("600"))))
	assert.True(t, dec("33.33").Equal(model.UsagePercent(dec("100"), dec("300"))))
	assert.True(t, dec("12.35").Equal(model.UsagePercent(dec("12.345"), dec("100"))))
}

func TestUsagePercent_ZeroBudgetAmount(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(model.UsagePercent(dec("500"), decimal.Zero)))
}

func TestStatusFor_Boundaries(t *testing.T) {
	assert.Equal(t, model.StatusOnTrack, model.StatusFor(dec("80.00")))
	assert.Equal(t, model.StatusWarning, model.StatusFor(dec("80.01")))
	assert.Equal(t, model.StatusWarning, model.StatusFor(dec("100.00")))
	assert.Equal(t, model.StatusExceeded, model.StatusFor(dec("100.01")))
	assert.Equal(t, model.StatusOnTrack, model.StatusFor(decimal.Zero))
}

func TestTriggerAmount(t *testing.T) {
	assert.True(t, dec("800.00").Equal(model.TriggerAmount(dec("1000"), 80)))
	assert.True(t, dec("49.75").Equal(model.TriggerAmount(dec("99.50"), 50)))
	assert.True(t, dec("199.00").Equal(model.TriggerAmount(dec("99.50"), 200)))
}

func TestNewUsageSnapshot_WarningScenario(t *testing.T) {
	b := &model.Budget{
		ID:     "b1",
		Name:   "platform",
		Amount: dec("1000.00"),
		Thresholds: []model.BudgetThreshold{
			{Percent: 50}, {Percent: 80}, {Percent: 100},
		},
	}

	start := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	snap := model.NewUsageSnapshot(b, start, end, dec("850.00"))

	assert.True(t, dec("85.00").Equal(snap.UsagePercent))
	assert.Equal(t, model.StatusWarning, snap.Status)
	assert.True(t, dec("150.00").Equal(snap.RemainingAmount))
	assert.Equal(t, start, snap.PeriodStart)
	assert.Equal(t, end, snap.PeriodEnd)

	assert.Len(t, snap.ThresholdStatuses, 3)
	assert.True(t, snap.ThresholdStatuses[0].Triggered)  // 500 <= 850
	assert.True(t, snap.ThresholdStatuses[1].Triggered)  // 800 <= 850
	assert.False(t, snap.ThresholdStatuses[2].Triggered) // 1000 > 850
}

func TestNewUsageSnapshot_TriggeredIsInclusive(t *testing.T) {
	b := &model.Budget{
		ID:         "b1",
		Amount:     dec("1000.00"),
		Thresholds: []model.BudgetThreshold{{Percent: 80}},
	}

	snap := model.NewUsageSnapshot(b, time.Time{}, time.Time{}, dec("800.00"))
	assert.True(t, snap.ThresholdStatuses[0].Triggered)
	assert.True(t, dec("800.00").Equal(snap.ThresholdStatuses[0].TriggerAmount))
}

func TestNewUsageSnapshot_NegativeRemainingWhenExceeded(t *testing.T) {
	b := &model.Budget{ID: "b1", Amount: dec("200.00")}
	snap := model.NewUsageSnapshot(b, time.Time{}, time.Time{}, dec("250.00"))

	assert.True(t, dec("-50.00").Equal(snap.RemainingAmount))
	assert.True(t, dec("125.00").Equal(snap.UsagePercent))
	assert.Equal(t, model.StatusExceeded, snap.Status)
}

func TestBuildDashboard_Scenario(t *testing.T) {
	budgets := []*model.Budget{
		{ID: "a", Amount: dec("100")},
		{ID: "b", Amount: dec("200")},
		{ID: "c", Amount: dec("300")},
	}
	actuals := []string{"50", "250", "100"}

	var usages []model.UsageSnapshot
	for i, b := range budgets {
		usages = append(usages, *model.NewUsageSnapshot(b, time.Time{}, time.Time{}, dec(actuals[i])))
	}

	d := model.BuildDashboard(usages)
	assert.Equal(t, 3, d.TotalBudgets)
	assert.Equal(t, 3, d.ActiveBudgets)
	assert.True(t, dec("600").Equal(d.TotalBudgetAmount))
	assert.True(t, dec("400").Equal(d.TotalActualAmount))
	assert.True(t, dec("66.67").Equal(d.OverallUsagePercent))
	assert.Equal(t, 1, d.ExceededCount)
	assert.Equal(t, 0, d.WarningCount)
	assert.Equal(t, 2, d.OnTrackCount)
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := model.BuildDashboard(nil)
	assert.Equal(t, 0, d.TotalBudgets)
	assert.True(t, decimal.Zero.Equal(d.OverallUsagePercent))
}

func TestDefaultThresholds(t *testing.T) {
	defaults := model.DefaultThresholds()
	assert.Len(t, defaults, 3)
	assert.Equal(t, 50, defaults[0].Percent)
	assert.Equal(t, 80, defaults[1].Percent)
	assert.Equal(t, 100, defaults[2].Percent)
	for _, d := range defaults {
		assert.Equal(t, model.NotifySlack, d.Notification)
	}
}
