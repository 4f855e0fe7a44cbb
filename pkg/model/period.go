package model

import "time"

// ResolvePeriod computes the inclusive [start, end] window of the budget
// period that contains ref.
//
// MONTHLY, QUARTERLY, and YEARLY windows are derived from the calendar
// position of ref alone. Any other period type, CUSTOM included, falls back
// to the declared start and end dates; a missing end date falls back to ref.
func ResolvePeriod(periodType PeriodType, startDate time.Time, endDate *time.Time, ref time.Time) (time.Time, time.Time) {
	switch periodType {
	case PeriodMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	case PeriodQuarterly:
		quarter := (int(ref.Month()) - 1) / 3
		start := time.Date(ref.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 3, -1)
	case PeriodYearly:
		start := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(ref.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		if endDate != nil {
			return startDate, *endDate
		}
		return startDate, DateOf(ref)
	}
}

// DateOf truncates t to a UTC calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
