package report

import "time"

// WindowDays is the length of the trailing reporting window.
const WindowDays = 14

// Window is a trailing range of calendar days ending on the render date.
type Window struct {
	FirstDay time.Time
	LastDay  time.Time
}

// NewWindow returns the window covering now minus WindowDays through now.
func NewWindow(now time.Time) Window {
	lastDay := calendarDay(now)
	return Window{FirstDay: lastDay.AddDate(0, 0, -WindowDays), LastDay: lastDay}
}

// Contains reports whether the calendar day of moment falls inside the window.
func (window Window) Contains(moment time.Time) bool {
	day := calendarDay(moment)
	return !day.Before(window.FirstDay) && !day.After(window.LastDay)
}

// Days lists every calendar day of the window in order.
func (window Window) Days() []time.Time {
	days := []time.Time{}
	for day := window.FirstDay; !day.After(window.LastDay); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

func calendarDay(moment time.Time) time.Time {
	year, month, day := moment.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
