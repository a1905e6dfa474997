package report

import (
	"time"

	"github.com/scmhub/calendar"
)

// MarketCalendar answers NYSE trading-day questions for calendar dates.
type MarketCalendar struct {
	nyse     *calendar.Calendar
	location *time.Location
}

func NewMarketCalendar() *MarketCalendar {
	// NYSE operates in Eastern time
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &MarketCalendar{
		nyse:     calendar.XNYS(),
		location: loc,
	}
}

// IsMarketDay reports whether the calendar date of d is an NYSE trading day.
func (c *MarketCalendar) IsMarketDay(d time.Time) bool {
	// Noon local time keeps the date from shifting across midnight
	noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, c.location)
	return c.nyse.IsBusinessDay(noon)
}

// LatestMarketDay returns d if it is a trading day, else the closest
// earlier one, as a UTC midnight date.
func (c *MarketCalendar) LatestMarketDay(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14 && !c.IsMarketDay(day); i++ {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// Today returns the current date in Eastern time as a UTC midnight date.
func (c *MarketCalendar) Today() time.Time {
	now := time.Now().In(c.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
