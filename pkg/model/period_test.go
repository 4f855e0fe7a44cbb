package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/finopshq/budgetwatch/pkg/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolvePeriod_MonthlyLeapFebruary(t *testing.T) {
	start, end := model.ResolvePeriod(model.PeriodMonthly, time.Time{}, nil, date(2024, time.February, 15))
	assert.Equal(t, date(2024, time.February, 1), start)
	assert.Equal(t, date(2024, time.February, 29), end)
}

func TestResolvePeriod_Quarterly(t *testing.T) {
	start, end := model.ResolvePeriod(model.PeriodQuarterly, time.Time{}, nil, date(2024, time.July, 10))
	assert.Equal(t, date(2024, time.July, 1), start)
	assert.Equal(t, date(2024, time.September, 30), end)
}

func TestResolvePeriod_QuarterlyFirstQuarter(t *testing.T) {
	start, end := model.ResolvePeriod(model.PeriodQuarterly, time.Time{}, nil, date(2025, time.March, 31))
	assert.Equal(t, date(2025, time.January, 1), start)
	assert.Equal(t, date(2025, time.March, 31), end)
}

func TestResolvePeriod_Yearly(t *testing.T) {
	start, end := model.ResolvePeriod(model.PeriodYearly, time.Time{}, nil, date(2024, time.November, 3))
	assert.Equal(t, date(2024, time.January, 1), start)
	assert.Equal(t, date(2024, time.December, 31), end)
}

func TestResolvePeriod_CustomWithEndDate(t *testing.T) {
	declared := date(2024, time.March, 1)
	end := date(2024, time.June, 30)
	gotStart, gotEnd := model.ResolvePeriod(model.PeriodCustom, declared, &end, date(2024, time.May, 5))
	assert.Equal(t, declared, gotStart)
	assert.Equal(t, end, gotEnd)
}

func TestResolvePeriod_CustomWithoutEndDate(t *testing.T) {
	declared := date(2024, time.March, 1)
	ref := date(2024, time.May, 5)
	gotStart, gotEnd := model.ResolvePeriod(model.PeriodCustom, declared, nil, ref)
	assert.Equal(t, declared, gotStart)
	assert.Equal(t, ref, gotEnd)
}

func TestResolvePeriod_UnknownTypeFallsBackToDeclaredDates(t *testing.T) {
	declared := date(2024, time.January, 10)
	end := date(2024, time.December, 10)
	gotStart, gotEnd := model.ResolvePeriod("BIWEEKLY", declared, &end, date(2024, time.June, 1))
	assert.Equal(t, declared, gotStart)
	assert.Equal(t, end, gotEnd)
}

func TestResolvePeriod_MonthlyDecember(t *testing.T) {
	start, end := model.ResolvePeriod(model.PeriodMonthly, time.Time{}, nil, date(2023, time.December, 25))
	assert.Equal(t, date(2023, time.December, 1), start)
	assert.Equal(t, date(2023, time.December, 31), end)
}
