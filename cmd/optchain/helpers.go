package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/report"
)

// parseDates parses date arguments and returns a list of dates
func parseDates(args []string) ([]string, error) {
	start, err := data.ParseDate(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid start date format (use YYYY-MM-DD): %w", err)
	}

	if len(args) == 1 {
		return []string{start.Format(data.DateLayout)}, nil
	}

	end, err := data.ParseDate(args[1])
	if err != nil {
		return nil, fmt.Errorf("invalid end date format (use YYYY-MM-DD): %w", err)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("end date must be after start date")
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(data.DateLayout))
	}

	return dates, nil
}

// filterMarketDays filters out non-trading days (weekends and NYSE holidays)
// and logs warnings for skipped dates
func filterMarketDays(cal *report.MarketCalendar, dates []string, logger *zap.Logger) []string {
	var marketDays []string
	for _, dateStr := range dates {
		d, err := data.ParseDate(dateStr)
		if err == nil && cal.IsMarketDay(d) {
			marketDays = append(marketDays, dateStr)
		} else {
			logger.Warn("skipping non-market day", zap.String("date", dateStr))
		}
	}
	return marketDays
}
