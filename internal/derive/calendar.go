package derive

import (
	"time"

	"github.com/tgienger/coreterra/internal/models"
)

// GridCells is the size of a month grid: 6 weeks of 7 days
const GridCells = 42

// CalendarCell is one day in a month grid
type CalendarCell struct {
	Day          int
	Date         time.Time
	CurrentMonth bool
}

// DaysInMonth returns the number of days in a zero-based month. Months
// outside 0..11 roll over into adjacent years.
func DaysInMonth(year, month0 int) int {
	return time.Date(year, time.Month(month0+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// CalendarGrid builds a Sunday-first 42-cell grid for a zero-based month:
// trailing days of the previous month, the month itself, then leading days of
// the next month.
func CalendarGrid(year, month0 int) []CalendarCell {
	first := time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	cells := make([]CalendarCell, GridCells)
	for i := range cells {
		d := start.AddDate(0, 0, i)
		cells[i] = CalendarCell{
			Day:          d.Day(),
			Date:         d,
			CurrentMonth: d.Month() == first.Month() && d.Year() == first.Year(),
		}
	}
	return cells
}

// MonthTitle formats a zero-based month like "February 2024"
func MonthTitle(year, month0 int) string {
	return time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// EventsOn returns the events whose day-of-month is day
func EventsOn(events []models.CalendarEvent, day int) []models.CalendarEvent {
	var out []models.CalendarEvent
	for _, e := range events {
		if e.Date == day {
			out = append(out, e)
		}
	}
	return out
}
